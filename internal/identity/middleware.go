package identity

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/shared"
)

// PrincipalSource is the lookup the loader needs.
type PrincipalSource interface {
	GetPrincipal(ctx context.Context, id int64) (*Principal, error)
}

// Loader resolves the session user into a Principal and stores it in the
// request context. Requests without a session pass through unauthenticated;
// the access guard decides what that means per route.
type Loader struct {
	Source PrincipalSource
	Logger *slog.Logger
}

// Middleware installs principal resolution.
func (l Loader) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil {
			next.ServeHTTP(w, r)
			return
		}
		raw := strings.TrimSpace(sess.User())
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			if l.Logger != nil {
				l.Logger.Error("identity parse user id", slog.String("value", raw))
			}
			next.ServeHTTP(w, r)
			return
		}
		principal, err := l.Source.GetPrincipal(r.Context(), id)
		if err != nil {
			if l.Logger != nil {
				l.Logger.Warn("identity load principal", slog.Int64("user_id", id), slog.Any("error", err))
			}
			next.ServeHTTP(w, r)
			return
		}
		// MFA is a session property: the account may be enrolled, but each
		// session must pass its own challenge.
		principal.MFAVerified = principal.MFAVerified && sess.MFAVerified()
		ctx := ContextWithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
