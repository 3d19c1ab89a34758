package monitor

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/identity"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/platform/httpx"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/shared"
)

// Guard installs a capability check in front of a route subtree.
type Guard interface {
	Require(capability string) func(http.Handler) http.Handler
}

// Handler exposes security state to administrators: on-demand scans,
// lockout state, and the manual lockout override.
type Handler struct {
	logger  *slog.Logger
	scanner *Scanner
	lockout *Lockout
}

// NewHandler builds the security handler.
func NewHandler(logger *slog.Logger, scanner *Scanner, lockout *Lockout) *Handler {
	return &Handler{logger: logger, scanner: scanner, lockout: lockout}
}

// MountRoutes registers security routes behind users.manage.
func (h *Handler) MountRoutes(r chi.Router, guard Guard) {
	r.Group(func(r chi.Router) {
		r.Use(guard.Require(shared.CapUsersManage))
		r.Get("/alerts/{id}", h.scanPrincipal)
		r.Get("/lockouts/{id}", h.lockoutState)
		r.Post("/lockouts/{id}/clear", h.clearLockout)
	})
}

type alertResponse struct {
	Kind        string    `json:"kind"`
	PrincipalID int64     `json:"principal_id,omitempty"`
	SourceIP    string    `json:"source_ip,omitempty"`
	Count       int       `json:"count"`
	At          time.Time `json:"at"`
}

func (h *Handler) scanPrincipal(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	window := time.Duration(0)
	if raw := r.URL.Query().Get("window"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "window must be a duration")
			return
		}
		window = parsed
	}
	alerts := h.scanner.ScanPrincipal(r.Context(), id, window)
	out := make([]alertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, alertResponse{Kind: a.Kind, PrincipalID: a.PrincipalID, SourceIP: a.SourceIP, Count: a.Count, At: a.At})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"alerts": out})
}

func (h *Handler) lockoutState(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	state, err := h.lockout.State(r.Context(), id)
	if err != nil {
		h.logger.Error("lockout state", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"state": state})
}

func (h *Handler) clearLockout(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var clearedBy int64
	if p := identity.PrincipalFromContext(r.Context()); p != nil {
		clearedBy = p.ID
	}
	if err := h.lockout.Clear(r.Context(), id, clearedBy); err != nil {
		h.logger.Error("clear lockout", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"state": StateActive})
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "id must be an integer")
		return 0, false
	}
	return id, true
}
