package audithttp

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/audit"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/platform/httpx"
)

// Handler exposes the audit timeline as JSON.
type Handler struct {
	logger  *slog.Logger
	service *audit.Service
}

// NewHandler builds the audit HTTP handler.
func NewHandler(logger *slog.Logger, service *audit.Service) *Handler {
	return &Handler{logger: logger, service: service}
}

type timelineRow struct {
	ID          string            `json:"id"`
	At          time.Time         `json:"at"`
	PrincipalID int64             `json:"principal_id"`
	EventType   string            `json:"event_type"`
	Category    string            `json:"event_category"`
	Outcome     string            `json:"outcome"`
	SourceIP    string            `json:"source_ip,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type timelineResponse struct {
	Rows     []timelineRow `json:"rows"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	HasNext  bool          `json:"has_next"`
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	filters := audit.TimelineFilters{
		Category: r.URL.Query().Get("category"),
		Page:     queryInt(r, "page"),
		PageSize: queryInt(r, "page_size"),
	}
	if v := r.URL.Query().Get("principal_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "principal_id must be an integer")
			return
		}
		filters.PrincipalID = id
	}
	if t, ok := queryTime(r, "from"); ok {
		filters.From = t
	}
	if t, ok := queryTime(r, "to"); ok {
		filters.To = t
	}

	result, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		h.logger.Error("audit timeline", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	rows := make([]timelineRow, 0, len(result.Rows))
	for _, rec := range result.Rows {
		rows = append(rows, timelineRow{
			ID:          rec.ID,
			At:          rec.At,
			PrincipalID: rec.PrincipalID,
			EventType:   rec.EventType,
			Category:    rec.Category,
			Outcome:     rec.Outcome,
			SourceIP:    rec.SourceIP,
			Metadata:    rec.Metadata,
		})
	}
	httpx.JSON(w, http.StatusOK, timelineResponse{
		Rows:     rows,
		Page:     result.Paging.Page,
		PageSize: result.Paging.PageSize,
		HasNext:  result.Paging.HasNext,
	})
}

func queryInt(r *http.Request, key string) int {
	v, _ := strconv.Atoi(r.URL.Query().Get(key))
	return v
}

func queryTime(r *http.Request, key string) (time.Time, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
