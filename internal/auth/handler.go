package auth

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/identity"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/platform/httpx"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/shared"
)

// Registrar is the account creation contract, satisfied by the identity
// service.
type Registrar interface {
	Register(ctx context.Context, email, password string, role identity.Role) (int64, error)
}

// Handler exposes the authentication endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	registrar Registrar
	sessions  *shared.SessionManager
	validate  *validator.Validate
}

// NewHandler constructs the auth handler.
func NewHandler(logger *slog.Logger, service *Service, registrar Registrar, sessions *shared.SessionManager) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		registrar: registrar,
		sessions:  sessions,
		validate:  validator.New(),
	}
}

// MountRoutes registers the auth routes. Login and MFA verification carry a
// tight per-IP rate limit on top of the global one.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/register", h.register)
	r.Group(func(r chi.Router) {
		r.Use(httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		r.Post("/login", h.login)
		r.Post("/mfa/verify", h.verifyMFA)
	})
	r.Post("/logout", h.logout)
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=rider driver fleet"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	id, err := h.registrar.Register(r.Context(), req.Email, req.Password, identity.Role(req.Role))
	if err != nil {
		h.logger.Error("register", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", shared.UserSafeMessage(err))
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"id": id})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	Tier        string `json:"tier"`
	Role        string `json:"role"`
	MFARequired bool   `json:"mfa_required"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	principal, err := h.service.Authenticate(r.Context(), req.Email, req.Password, remoteIP(r))
	if err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, shared.ErrAccountLocked) {
			status = http.StatusForbidden
		}
		httpx.Problem(w, status, http.StatusText(status), shared.UserSafeMessage(err))
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("login: no session in context")
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	sess.SetUser(strconv.FormatInt(principal.ID, 10))
	sess.SetMFAVerified(false)

	httpx.JSON(w, http.StatusOK, loginResponse{
		ID:          principal.ID,
		Email:       principal.Email,
		Tier:        string(principal.Tier),
		Role:        string(principal.Role),
		MFARequired: principal.MFAVerified,
	})
}

type mfaVerifyRequest struct {
	Code string `json:"code" validate:"required,len=6"`
}

func (h *Handler) verifyMFA(w http.ResponseWriter, r *http.Request) {
	principal := identity.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	var req mfaVerifyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.VerifyMFA(r.Context(), principal, req.Code, remoteIP(r)); err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", shared.UserSafeMessage(err))
		return
	}
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		sess.SetMFAVerified(true)
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"mfa_verified": true})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		h.sessions.Destroy(sess)
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
