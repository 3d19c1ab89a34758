package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/audit"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/identity"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/monitor"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/shared"
	_ "github.com/idorenyinbassey/vip-ride-platform-sub004/testing"
)

type stubSource struct {
	principal *identity.Principal
	hash      string
}

func (s *stubSource) GetByEmail(ctx context.Context, email string) (*identity.Principal, string, error) {
	if s.principal == nil || s.principal.Email != email {
		return nil, "", shared.ErrNotFound
	}
	return s.principal, s.hash, nil
}

type authFixture struct {
	service *Service
	store   *audit.MemoryStore
	lockout *monitor.Lockout
}

func newAuthFixture(t *testing.T, principal *identity.Principal, password string) authFixture {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	store := audit.NewMemoryStore()
	recorder := audit.NewRecorder(store, nil, audit.RecorderConfig{Retries: 1, RetryBackoff: time.Millisecond}, nil)
	scanner := monitor.NewScanner(store, monitor.Config{FailedAuthThreshold: 3}, nil)
	lockout := monitor.NewLockout(client, time.Minute, nil, recorder)
	verifier := NewHMACVerifier("mfa-secret")

	svc := NewService(&stubSource{principal: principal, hash: string(hash)}, recorder, scanner, lockout, verifier)
	return authFixture{service: svc, store: store, lockout: lockout}
}

func rider() *identity.Principal {
	return &identity.Principal{
		ID: 1, Email: "rider@example.com", Tier: identity.TierNormal, Role: identity.RoleRider, Active: true,
	}
}

func TestAuthenticateSuccess(t *testing.T) {
	fx := newAuthFixture(t, rider(), "correct horse")

	p, err := fx.service.Authenticate(context.Background(), "rider@example.com", "correct horse", "203.0.113.1")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if p.ID != 1 {
		t.Fatalf("principal id = %d", p.ID)
	}
	if fx.store.Len() != 0 {
		t.Fatalf("success should not record auth failures, got %d", fx.store.Len())
	}
}

func TestAuthenticateWrongPasswordIsOpaque(t *testing.T) {
	fx := newAuthFixture(t, rider(), "correct horse")

	_, err := fx.service.Authenticate(context.Background(), "rider@example.com", "wrong", "203.0.113.1")
	if !errors.Is(err, shared.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want invalid credentials", err)
	}

	recs := fx.store.All()
	if len(recs) != 1 {
		t.Fatalf("audit records = %d, want 1", len(recs))
	}
	if recs[0].Category != audit.CategoryAuthFailure {
		t.Fatalf("category = %s", recs[0].Category)
	}
	if recs[0].Metadata["detail"] != "bad_password" {
		t.Fatalf("detail = %q", recs[0].Metadata["detail"])
	}
}

func TestAuthenticateUnknownEmailIsOpaque(t *testing.T) {
	fx := newAuthFixture(t, rider(), "correct horse")

	_, err := fx.service.Authenticate(context.Background(), "ghost@example.com", "whatever", "203.0.113.1")
	if !errors.Is(err, shared.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want invalid credentials", err)
	}
	if fx.store.Len() != 1 {
		t.Fatalf("unknown email must still land in the audit trail")
	}
}

func TestAuthenticateInactiveAccount(t *testing.T) {
	p := rider()
	p.Active = false
	fx := newAuthFixture(t, p, "correct horse")

	_, err := fx.service.Authenticate(context.Background(), "rider@example.com", "correct horse", "203.0.113.1")
	if !errors.Is(err, shared.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want invalid credentials", err)
	}
}

func TestRepeatedFailuresEngageLockout(t *testing.T) {
	fx := newAuthFixture(t, rider(), "correct horse")
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, _ = fx.service.Authenticate(ctx, "rider@example.com", "wrong", "203.0.113.1")
	}

	if !fx.lockout.IsLocked(ctx, 1) {
		t.Fatalf("principal not locked after exceeding failure threshold")
	}

	// Even the right password bounces while locked.
	_, err := fx.service.Authenticate(ctx, "rider@example.com", "correct horse", "203.0.113.1")
	if !errors.Is(err, shared.ErrAccountLocked) {
		t.Fatalf("err = %v, want account locked", err)
	}
}

func TestVerifyMFA(t *testing.T) {
	fx := newAuthFixture(t, rider(), "correct horse")
	ctx := context.Background()
	p := rider()

	verifier := fx.service.verifier.(*HMACVerifier)
	if err := fx.service.VerifyMFA(ctx, p, verifier.Code(p.ID), "203.0.113.1"); err != nil {
		t.Fatalf("verify mfa: %v", err)
	}

	if err := fx.service.VerifyMFA(ctx, p, "999999", "203.0.113.1"); !errors.Is(err, shared.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want invalid credentials", err)
	}
}
