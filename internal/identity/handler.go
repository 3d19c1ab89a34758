package identity

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/platform/httpx"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/shared"
)

// Guard installs a capability check in front of a route subtree.
type Guard interface {
	Require(capability string) func(http.Handler) http.Handler
}

// Handler manages principal administration endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers principal admin routes behind users.manage.
func (h *Handler) MountRoutes(r chi.Router, guard Guard) {
	r.Group(func(r chi.Router) {
		r.Use(guard.Require(shared.CapUsersManage))
		r.Get("/", h.listPrincipals)
		r.Get("/{id}", h.getPrincipal)
		r.Post("/{id}/tier", h.changeTier)
		r.Post("/{id}/mfa", h.setMFAEnrolment)
		r.Post("/{id}/deactivate", h.deactivate)
		r.Post("/{id}/reactivate", h.reactivate)
	})
}

type principalResponse struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	Tier        string    `json:"tier"`
	Role        string    `json:"role"`
	MFAVerified bool      `json:"mfa_verified"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toResponse(p Principal) principalResponse {
	return principalResponse{
		ID:          p.ID,
		Email:       p.Email,
		Tier:        string(p.Tier),
		Role:        string(p.Role),
		MFAVerified: p.MFAVerified,
		Active:      p.Active,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (h *Handler) listPrincipals(w http.ResponseWriter, r *http.Request) {
	principals, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list principals", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	out := make([]principalResponse, 0, len(principals))
	for _, p := range principals {
		out = append(out, toResponse(p))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"principals": out})
}

func (h *Handler) getPrincipal(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	principal, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err, "get principal")
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*principal))
}

type changeTierRequest struct {
	Tier string `json:"tier" validate:"required"`
}

func (h *Handler) changeTier(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req changeTierRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "tier is required")
		return
	}
	tier := Tier(req.Tier)
	if !tier.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown tier")
		return
	}
	principal, err := h.service.ChangeTier(r.Context(), id, tier)
	if err != nil {
		h.respondServiceError(w, err, "change tier")
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*principal))
}

type mfaEnrolmentRequest struct {
	Enrolled bool `json:"enrolled"`
}

func (h *Handler) setMFAEnrolment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req mfaEnrolmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.service.SetMFAEnrolled(r.Context(), id, req.Enrolled); err != nil {
		h.respondServiceError(w, err, "set mfa enrolment")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"enrolled": req.Enrolled})
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.Deactivate(r.Context(), id); err != nil {
		h.respondServiceError(w, err, "deactivate principal")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

func (h *Handler) reactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.Reactivate(r.Context(), id); err != nil {
		h.respondServiceError(w, err, "reactivate principal")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "active"})
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "id must be an integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error, op string) {
	if errors.Is(err, shared.ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "")
		return
	}
	h.logger.Error(op, slog.Any("error", err))
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
