package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type failingStore struct {
	mu       sync.Mutex
	attempts int
	failN    int
}

func (s *failingStore) Append(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	if s.attempts <= s.failN {
		return errors.New("store down")
	}
	return nil
}

func (s *failingStore) ListByPrincipal(ctx context.Context, principalID int64, since time.Time) ([]Record, error) {
	return nil, nil
}

func (s *failingStore) ListByIP(ctx context.Context, ip string, since time.Time) ([]Record, error) {
	return nil, nil
}

func fastConfig() RecorderConfig {
	return RecorderConfig{Retries: 3, RetryBackoff: time.Millisecond, AttemptTimeout: 50 * time.Millisecond}
}

func TestRecorderPersistsSanitizedRecord(t *testing.T) {
	store := NewMemoryStore()
	rec := NewRecorder(store, nil, fastConfig(), nil)

	rec.Record(context.Background(), Event{
		PrincipalID: 42,
		EventType:   "permission.evaluate",
		Category:    CategoryPermissionCheck,
		Outcome:     OutcomeDeny,
		SourceIP:    "198.51.100.4",
		Metadata:    map[string]string{"gps": "6.5244,3.3792", "capability": "rides.request"},
	})

	if store.Len() != 1 {
		t.Fatalf("stored %d records, want 1", store.Len())
	}
	got := store.All()[0]
	if got.ID == "" {
		t.Fatalf("record missing id")
	}
	if got.At.IsZero() {
		t.Fatalf("record missing timestamp")
	}
	if got.Metadata["gps"] != "[REDACTED]" {
		t.Fatalf("gps not redacted: %q", got.Metadata["gps"])
	}
	if got.Metadata["capability"] != "rides.request" {
		t.Fatalf("capability mangled: %q", got.Metadata["capability"])
	}
}

func TestRecorderRetriesTransientFailures(t *testing.T) {
	store := &failingStore{failN: 2}
	rec := NewRecorder(store, nil, fastConfig(), nil)

	rec.Record(context.Background(), Event{EventType: "auth.login_failed", Category: CategoryAuthFailure, Outcome: OutcomeDeny})

	if store.attempts != 3 {
		t.Fatalf("attempts = %d, want 3", store.attempts)
	}
}

func TestRecorderDegradesWithoutError(t *testing.T) {
	store := &failingStore{failN: 1000}
	rec := NewRecorder(store, nil, fastConfig(), nil)

	// Must return normally even though every attempt fails.
	rec.Record(context.Background(), Event{EventType: "permission.evaluate", Category: CategoryPermissionCheck, Outcome: OutcomeAllow})

	if store.attempts != 3 {
		t.Fatalf("attempts = %d, want 3", store.attempts)
	}
}

func TestRecorderFallsBackWithoutTrailingBackoff(t *testing.T) {
	store := &failingStore{failN: 1000}
	cfg := RecorderConfig{Retries: 3, RetryBackoff: 40 * time.Millisecond, AttemptTimeout: 50 * time.Millisecond}
	rec := NewRecorder(store, nil, cfg, nil)

	start := time.Now()
	rec.Record(context.Background(), Event{EventType: "permission.evaluate", Category: CategoryPermissionCheck, Outcome: OutcomeAllow})
	elapsed := time.Since(start)

	if store.attempts != 3 {
		t.Fatalf("attempts = %d, want 3", store.attempts)
	}
	// Backoff runs between attempts only: 40ms + 80ms. A sleep after the
	// final attempt would push this past 280ms.
	if elapsed >= 200*time.Millisecond {
		t.Fatalf("fallback delayed %v, backoff ran after the final attempt", elapsed)
	}
}

func TestRecorderSurvivesCancelledRequestContext(t *testing.T) {
	store := NewMemoryStore()
	rec := NewRecorder(store, nil, fastConfig(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec.Record(ctx, Event{EventType: "permission.evaluate", Category: CategoryPermissionCheck, Outcome: OutcomeAllow})

	if store.Len() != 1 {
		t.Fatalf("cancelled request context cut the audit write short")
	}
}
