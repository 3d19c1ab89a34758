package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/audit"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/identity"
)

// Alert kinds.
const (
	AlertExcessFailedAuth    = "excess_failed_auth"
	AlertRateLimitExceeded   = "rate_limit_exceeded"
	AlertPrivilegeEscalation = "privilege_escalation_attempt"
)

// Alert is a derived, ephemeral signal. It is emitted for callers to act on
// (lockout, ops page) and never persisted as a first-class entity.
type Alert struct {
	Kind        string
	PrincipalID int64
	SourceIP    string
	Count       int
	At          time.Time
}

// Config holds scan thresholds. Defaults follow deployment policy defaults
// and are overridable through the app config.
type Config struct {
	FailedAuthThreshold int
	RateLimitPerMinute  int
	EscalationRankGap   int
	Window              time.Duration
}

// DefaultConfig returns the standing policy thresholds.
func DefaultConfig() Config {
	return Config{
		FailedAuthThreshold: 5,
		RateLimitPerMinute:  100,
		EscalationRankGap:   1,
		Window:              5 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.FailedAuthThreshold <= 0 {
		c.FailedAuthThreshold = d.FailedAuthThreshold
	}
	if c.RateLimitPerMinute <= 0 {
		c.RateLimitPerMinute = d.RateLimitPerMinute
	}
	if c.EscalationRankGap <= 0 {
		c.EscalationRankGap = d.EscalationRankGap
	}
	if c.Window <= 0 {
		c.Window = d.Window
	}
	return c
}

// RecordSource is the read-side audit contract the scanner depends on.
type RecordSource interface {
	ListByPrincipal(ctx context.Context, principalID int64, since time.Time) ([]audit.Record, error)
	ListByIP(ctx context.Context, ip string, since time.Time) ([]audit.Record, error)
}

// Scanner inspects recent audit records for suspicious patterns. Scans are
// read-only and idempotent: identical records yield identical alerts. An
// unavailable record source degrades to an empty alert set; alerts are
// advisory, not safety gates.
type Scanner struct {
	source RecordSource
	cfg    Config
	logger *slog.Logger
	clock  func() time.Time
}

// NewScanner constructs a Scanner.
func NewScanner(source RecordSource, cfg Config, logger *slog.Logger) *Scanner {
	return &Scanner{
		source: source,
		cfg:    cfg.withDefaults(),
		logger: logger,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// ScanPrincipal evaluates recent activity of one principal.
func (s *Scanner) ScanPrincipal(ctx context.Context, principalID int64, window time.Duration) []Alert {
	if window <= 0 {
		window = s.cfg.Window
	}
	since := s.clock().Add(-window)
	records, err := s.source.ListByPrincipal(ctx, principalID, since)
	if err != nil {
		// Monitor data unavailable: no alert, never an implicit deny.
		if s.logger != nil {
			s.logger.Warn("security scan degraded", slog.Int64("principal_id", principalID), slog.Any("error", err))
		}
		return nil
	}
	alerts := s.evaluate(records, window)
	for i := range alerts {
		alerts[i].PrincipalID = principalID
	}
	return alerts
}

// ScanIP evaluates recent activity from one source IP.
func (s *Scanner) ScanIP(ctx context.Context, ip string, window time.Duration) []Alert {
	if window <= 0 {
		window = s.cfg.Window
	}
	since := s.clock().Add(-window)
	records, err := s.source.ListByIP(ctx, ip, since)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("security scan degraded", slog.String("ip", ip), slog.Any("error", err))
		}
		return nil
	}
	alerts := s.evaluate(records, window)
	for i := range alerts {
		alerts[i].SourceIP = ip
	}
	return alerts
}

// evaluate applies the three pattern rules over a window of records.
// Alert timestamps derive from the records, not the wall clock, so repeated
// scans over unchanged data produce identical sets.
func (s *Scanner) evaluate(records []audit.Record, window time.Duration) []Alert {
	if len(records) == 0 {
		return nil
	}
	latest := records[0].At
	for _, rec := range records {
		if rec.At.After(latest) {
			latest = rec.At
		}
	}

	var alerts []Alert

	failed := 0
	for _, rec := range records {
		if rec.Category == audit.CategoryAuthFailure {
			failed++
		}
	}
	if failed > s.cfg.FailedAuthThreshold {
		alerts = append(alerts, Alert{Kind: AlertExcessFailedAuth, Count: failed, At: latest})
	}

	minutes := int(window / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	if len(records) > s.cfg.RateLimitPerMinute*minutes {
		alerts = append(alerts, Alert{Kind: AlertRateLimitExceeded, Count: len(records), At: latest})
	}

	escalations := 0
	for _, rec := range records {
		if rec.Outcome != audit.OutcomeDeny || rec.RequiredRank == 0 {
			continue
		}
		subjectRank := identity.Tier(rec.Metadata["tier"]).Rank()
		if rec.RequiredRank-subjectRank > s.cfg.EscalationRankGap {
			escalations++
		}
	}
	if escalations > 0 {
		alerts = append(alerts, Alert{Kind: AlertPrivilegeEscalation, Count: escalations, At: latest})
	}

	return alerts
}
