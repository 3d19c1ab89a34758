package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// RecorderConfig bounds the write path. Zero values fall back to defaults.
type RecorderConfig struct {
	Retries        int
	RetryBackoff   time.Duration
	AttemptTimeout time.Duration
	FieldCap       int
}

func (c RecorderConfig) withDefaults() RecorderConfig {
	if c.Retries <= 0 {
		c.Retries = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 200 * time.Millisecond
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = 2 * time.Second
	}
	if c.FieldCap <= 0 {
		c.FieldCap = DefaultFieldCap
	}
	return c
}

// Recorder writes audit events to the store. A failed write never reaches
// the caller's business logic: after bounded retries the event degrades to
// the local log side channel and an operational counter.
type Recorder struct {
	store   Store
	logger  *slog.Logger
	cfg     RecorderConfig
	dropped prometheus.Counter
	clock   func() time.Time
}

// NewRecorder constructs a Recorder. The registerer may be nil to skip
// metric registration (tests).
func NewRecorder(store Store, logger *slog.Logger, cfg RecorderConfig, registerer prometheus.Registerer) *Recorder {
	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vipride_audit_records_dropped_total",
		Help: "Audit records that exhausted retries and fell back to the local log.",
	})
	if registerer != nil {
		registerer.MustRegister(dropped)
	}
	return &Recorder{
		store:   store,
		logger:  logger,
		cfg:     cfg.withDefaults(),
		dropped: dropped,
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

// Record sanitizes and appends the event. It never returns an error and
// never blocks past the configured attempt budget, so a guarded operation
// cannot fail solely because the audit store is down.
func (r *Recorder) Record(ctx context.Context, ev Event) {
	if r == nil || r.store == nil {
		return
	}
	rec := Record{
		ID:           uuid.NewString(),
		At:           r.clock(),
		PrincipalID:  ev.PrincipalID,
		EventType:    ev.EventType,
		Category:     ev.Category,
		Outcome:      ev.Outcome,
		SourceIP:     ev.SourceIP,
		RequiredRank: ev.RequiredRank,
		Metadata:     sanitizeMetadata(ev.Metadata, r.cfg.FieldCap),
	}

	// Detach from the request context so a cancelled request cannot cut the
	// trail short; each attempt still gets its own deadline.
	base := context.WithoutCancel(ctx)

	var lastErr error
	for attempt := 0; attempt < r.cfg.Retries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(base, r.cfg.AttemptTimeout)
		lastErr = r.store.Append(attemptCtx, rec)
		cancel()
		if lastErr == nil {
			return
		}
		if attempt < r.cfg.Retries-1 {
			time.Sleep(r.cfg.RetryBackoff << attempt)
		}
	}

	r.dropped.Inc()
	if r.logger != nil {
		r.logger.Error("audit write degraded to local log",
			slog.Any("error", lastErr),
			slog.String("record_id", rec.ID),
			slog.Int64("principal_id", rec.PrincipalID),
			slog.String("event_type", rec.EventType),
			slog.String("event_category", rec.Category),
			slog.String("outcome", rec.Outcome),
		)
	}
}
