package audithttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/shared"
)

// Guard installs a capability check in front of a route subtree.
type Guard interface {
	Require(capability string) func(http.Handler) http.Handler
}

// MountRoutes registers audit endpoints behind the audit-view capability.
func (h *Handler) MountRoutes(r chi.Router, guard Guard) {
	r.Group(func(r chi.Router) {
		r.Use(guard.Require(shared.CapAuditView))
		r.Use(httprate.Limit(30, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		r.Get("/timeline", h.timeline)
	})
}
