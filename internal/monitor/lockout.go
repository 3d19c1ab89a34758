package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/audit"
)

// Lockout states.
const (
	StateActive = "active"
	StateLocked = "locked"
)

// Lockout drives the per-principal {active, locked} state machine in Redis.
// A lockout is keyed with a TTL, so the locked→active transition on expiry
// needs no sweeper; an admin override clears the key early. There is no
// terminal state.
type Lockout struct {
	client  *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
	auditor Auditor
}

// Auditor records lockout transitions as suspicious-activity events.
type Auditor interface {
	Record(ctx context.Context, ev audit.Event)
}

// NewLockout constructs the lockout manager.
func NewLockout(client *redis.Client, ttl time.Duration, logger *slog.Logger, auditor Auditor) *Lockout {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Lockout{client: client, ttl: ttl, logger: logger, auditor: auditor}
}

func lockoutKey(principalID int64) string {
	return "lockout:principal:" + strconv.FormatInt(principalID, 10)
}

// Lock transitions the principal to locked for the configured duration.
func (l *Lockout) Lock(ctx context.Context, principalID int64, reason string) error {
	if err := l.client.Set(ctx, lockoutKey(principalID), reason, l.ttl).Err(); err != nil {
		return fmt.Errorf("monitor: lock principal %d: %w", principalID, err)
	}
	if l.logger != nil {
		l.logger.Warn("principal locked",
			slog.Int64("principal_id", principalID),
			slog.String("reason", reason),
			slog.Duration("ttl", l.ttl),
		)
	}
	if l.auditor != nil {
		l.auditor.Record(ctx, audit.Event{
			PrincipalID: principalID,
			EventType:   "lockout.engage",
			Category:    audit.CategorySuspicious,
			Outcome:     audit.OutcomeDeny,
			Metadata:    map[string]string{"reason": reason, "ttl": l.ttl.String()},
		})
	}
	return nil
}

// State reports the current lockout state for a principal.
func (l *Lockout) State(ctx context.Context, principalID int64) (string, error) {
	err := l.client.Get(ctx, lockoutKey(principalID)).Err()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return StateActive, nil
		}
		return "", fmt.Errorf("monitor: lockout state for %d: %w", principalID, err)
	}
	return StateLocked, nil
}

// IsLocked is a convenience wrapper around State. A store error reports
// unlocked: lockouts are protective, not a safety gate, and must not turn
// a Redis outage into a platform-wide deny.
func (l *Lockout) IsLocked(ctx context.Context, principalID int64) bool {
	state, err := l.State(ctx, principalID)
	if err != nil {
		if l.logger != nil {
			l.logger.Warn("lockout state degraded", slog.Int64("principal_id", principalID), slog.Any("error", err))
		}
		return false
	}
	return state == StateLocked
}

// Clear is the admin override: locked→active before TTL expiry.
func (l *Lockout) Clear(ctx context.Context, principalID int64, clearedBy int64) error {
	if err := l.client.Del(ctx, lockoutKey(principalID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("monitor: clear lockout for %d: %w", principalID, err)
	}
	if l.auditor != nil {
		l.auditor.Record(ctx, audit.Event{
			PrincipalID: principalID,
			EventType:   "lockout.clear",
			Category:    audit.CategorySuspicious,
			Outcome:     audit.OutcomeAllow,
			Metadata:    map[string]string{"cleared_by": strconv.FormatInt(clearedBy, 10)},
		})
	}
	return nil
}

// TTL exposes the configured lockout duration.
func (l *Lockout) TTL() time.Duration {
	return l.ttl
}
