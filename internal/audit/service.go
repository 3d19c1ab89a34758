package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/shared"
)

// TimelineFilters narrows the audit timeline listing.
type TimelineFilters struct {
	From        time.Time
	To          time.Time
	PrincipalID int64
	Category    string
	Page        int
	PageSize    int
}

// Result bundles timeline rows with paging information.
type Result struct {
	Rows   []Record
	Paging shared.Paging
}

// TimelineRepository is the read-side subset of the store the service needs.
type TimelineRepository interface {
	Timeline(ctx context.Context, filters TimelineFilters, offset, limit int) ([]Record, error)
}

// Service coordinates read access to the audit trail.
type Service struct {
	repo TimelineRepository
}

// NewService builds a timeline service.
func NewService(repo TimelineRepository) *Service {
	return &Service{repo: repo}
}

// Timeline fetches audit records with paging. One extra row is requested to
// detect whether a next page exists.
func (s *Service) Timeline(ctx context.Context, filters TimelineFilters) (Result, error) {
	if s.repo == nil {
		return Result{}, fmt.Errorf("audit: repository not configured")
	}
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 50 {
		pageSize = 50
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize

	rows, err := s.repo.Timeline(ctx, filters, offset, pageSize+1)
	if err != nil {
		return Result{}, err
	}
	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}
	return Result{Rows: rows, Paging: shared.NewPaging(page, pageSize, hasNext)}, nil
}
