package access_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/access"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/identity"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/shared"
	_ "github.com/idorenyinbassey/vip-ride-platform-sub004/testing"
)

func newGuardedRouter(capability string) http.Handler {
	guard := access.Guard{Evaluator: access.NewEvaluator(access.DefaultRegistry(), nil, nil)}
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(guard.Require(capability))
		r.Get("/resource", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})
	return r
}

func TestGuardRejectsAnonymous(t *testing.T) {
	router := newGuardedRouter(shared.CapRidesRequest)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/resource", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestGuardAllowsQualifiedPrincipal(t *testing.T) {
	router := newGuardedRouter(shared.CapRidesRequest)

	req := httptest.NewRequest(http.MethodGet, "/resource", nil)
	p := &identity.Principal{ID: 1, Tier: identity.TierNormal, Role: identity.RoleRider, Active: true}
	req = req.WithContext(identity.ContextWithPrincipal(req.Context(), p))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}

func TestGuardDeniesWithReasonOnly(t *testing.T) {
	router := newGuardedRouter(shared.CapVIPDataAccess)

	req := httptest.NewRequest(http.MethodGet, "/resource", nil)
	p := &identity.Principal{ID: 1, Tier: identity.TierPremium, Role: identity.RoleRider, Active: true}
	req = req.WithContext(identity.ContextWithPrincipal(req.Context(), p))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rr.Code)
	}
	body := rr.Body.String()
	if want := access.ReasonInsufficientTier; !strings.Contains(body, want) {
		t.Fatalf("body %q does not carry reason %q", body, want)
	}
	// The response must not leak the required tier itself.
	if strings.Contains(body, "vip") {
		t.Fatalf("body leaks requirement detail: %q", body)
	}
}
