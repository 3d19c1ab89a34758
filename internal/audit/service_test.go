package audit

import (
	"context"
	"testing"
	"time"
)

type stubTimelineRepo struct {
	rows       []Record
	lastOffset int
	lastLimit  int
}

func (s *stubTimelineRepo) Timeline(ctx context.Context, filters TimelineFilters, offset, limit int) ([]Record, error) {
	s.lastOffset = offset
	s.lastLimit = limit
	if limit > len(s.rows) {
		limit = len(s.rows)
	}
	return s.rows[:limit], nil
}

func makeRecords(n int) []Record {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	out := make([]Record, n)
	for i := range out {
		out[i] = Record{
			ID:        "rec",
			At:        base.Add(-time.Duration(i) * time.Minute),
			Category:  CategoryPermissionCheck,
			EventType: "permission.evaluate",
			Outcome:   OutcomeAllow,
		}
	}
	return out
}

func TestTimelinePagingRequestsOneExtraRow(t *testing.T) {
	repo := &stubTimelineRepo{rows: makeRecords(3)}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), TimelineFilters{Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(result.Rows))
	}
	if !result.Paging.HasNext {
		t.Fatalf("expected hasNext true")
	}
	if result.Paging.NextPage != 2 {
		t.Fatalf("next page = %d, want 2", result.Paging.NextPage)
	}
	if repo.lastLimit != 3 {
		t.Fatalf("limit = %d, want pageSize+1", repo.lastLimit)
	}
	if repo.lastOffset != 0 {
		t.Fatalf("offset = %d, want 0", repo.lastOffset)
	}
}

func TestTimelineLastPage(t *testing.T) {
	repo := &stubTimelineRepo{rows: makeRecords(2)}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), TimelineFilters{Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if result.Paging.HasNext {
		t.Fatalf("expected hasNext false")
	}
	if result.Paging.PrevPage != 1 {
		t.Fatalf("prev page = %d, want 1", result.Paging.PrevPage)
	}
	if repo.lastOffset != 2 {
		t.Fatalf("offset = %d, want 2", repo.lastOffset)
	}
}

func TestTimelineClampsPageSize(t *testing.T) {
	repo := &stubTimelineRepo{}
	svc := NewService(repo)

	if _, err := svc.Timeline(context.Background(), TimelineFilters{PageSize: 500}); err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if repo.lastLimit != 51 {
		t.Fatalf("limit = %d, want 51", repo.lastLimit)
	}

	if _, err := svc.Timeline(context.Background(), TimelineFilters{}); err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if repo.lastLimit != 21 {
		t.Fatalf("default limit = %d, want 21", repo.lastLimit)
	}
}
