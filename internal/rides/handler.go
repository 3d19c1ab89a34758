package rides

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/identity"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/platform/httpx"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/shared"
)

// Guard installs capability checks in front of route subtrees.
type Guard interface {
	Require(capability string) func(http.Handler) http.Handler
}

// Handler exposes the ride booking endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds the ride handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes wires ride routes behind their capabilities.
func (h *Handler) MountRoutes(r chi.Router, guard Guard) {
	r.Group(func(r chi.Router) {
		r.Use(guard.Require(shared.CapRidesRequest))
		r.Post("/", h.request)
		r.Post("/{id}/cancel", h.cancel)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.Require(shared.CapRidesView))
		r.Get("/", h.listMine)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.Require(shared.CapVIPDataAccess))
		r.Get("/vip", h.listVIP)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.Require(shared.CapFleetManage))
		r.Post("/{id}/assign", h.assign)
	})
}

type requestRide struct {
	Pickup  string `json:"pickup" validate:"required"`
	Dropoff string `json:"dropoff" validate:"required"`
	// Optional quote basis in cents; zero falls back to the flat base fare.
	BaseFareCents int64 `json:"base_fare_cents" validate:"gte=0"`
}

type rideResponse struct {
	ID          int64     `json:"id"`
	RiderID     int64     `json:"rider_id"`
	DriverID    int64     `json:"driver_id,omitempty"`
	Pickup      string    `json:"pickup"`
	Dropoff     string    `json:"dropoff"`
	Status      string    `json:"status"`
	Tier        string    `json:"tier"`
	FareCents   int64     `json:"fare_cents"`
	FareDisplay string    `json:"fare_display"`
	CreatedAt   time.Time `json:"created_at"`
}

func toResponse(r Ride) rideResponse {
	return rideResponse{
		ID:          r.ID,
		RiderID:     r.RiderID,
		DriverID:    r.DriverID,
		Pickup:      r.PickupAddr,
		Dropoff:     r.DropoffAddr,
		Status:      r.Status,
		Tier:        string(r.Tier),
		FareCents:   r.FareCents,
		FareDisplay: FormatFare(r.FareCents, r.Currency),
		CreatedAt:   r.CreatedAt,
	}
}

func (h *Handler) request(w http.ResponseWriter, r *http.Request) {
	principal := identity.PrincipalFromContext(r.Context())
	var req requestRide
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	ride, err := h.service.Request(r.Context(), principal, req.Pickup, req.Dropoff, req.BaseFareCents)
	if err != nil {
		h.logger.Error("ride request", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(*ride))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	principal := identity.PrincipalFromContext(r.Context())
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	ride, err := h.service.Get(r.Context(), principal, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*ride))
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	principal := identity.PrincipalFromContext(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	out, err := h.service.ListMine(r.Context(), principal, limit)
	if err != nil {
		h.logger.Error("list rides", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	h.respondList(w, out)
}

func (h *Handler) listVIP(w http.ResponseWriter, r *http.Request) {
	principal := identity.PrincipalFromContext(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	out, err := h.service.ListVIP(r.Context(), principal, remoteIP(r), limit)
	if err != nil {
		h.logger.Error("list vip rides", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	h.respondList(w, out)
}

type assignRequest struct {
	DriverID int64 `json:"driver_id" validate:"required,gt=0"`
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req assignRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	ride, err := h.service.Assign(r.Context(), id, req.DriverID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*ride))
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	principal := identity.PrincipalFromContext(r.Context())
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.Cancel(r.Context(), principal, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": StatusCancelled})
}

func (h *Handler) respondList(w http.ResponseWriter, rides []Ride) {
	out := make([]rideResponse, 0, len(rides))
	for _, ride := range rides {
		out = append(out, toResponse(ride))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rides": out})
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "id must be an integer")
		return 0, false
	}
	return id, true
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
