package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	jobmetrics "github.com/idorenyinbassey/vip-ride-platform-sub004/internal/jobs"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/monitor"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// PrincipalSource lists principals with recent audit activity.
type PrincipalSource interface {
	RecentPrincipals(ctx context.Context, since time.Time) ([]int64, error)
}

// SecuritySweepJob scans every recently active principal for suspicious
// patterns and engages lockouts where the scan warrants them.
type SecuritySweepJob struct {
	Source  PrincipalSource
	Scanner *monitor.Scanner
	Lockout *monitor.Lockout
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewSecuritySweepJob initialises the sweep handler.
func NewSecuritySweepJob(source PrincipalSource, scanner *monitor.Scanner, lockout *monitor.Lockout, logger *slog.Logger, metrics *jobmetrics.Metrics) *SecuritySweepJob {
	return &SecuritySweepJob{
		Source:  source,
		Scanner: scanner,
		Lockout: lockout,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes one sweep.
func (j *SecuritySweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Source == nil || j.Scanner == nil {
		return errors.New("security sweep: handler not configured")
	}
	var payload SecuritySweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.WindowMinutes <= 0 {
		payload.WindowMinutes = 5
	}
	window := time.Duration(payload.WindowMinutes) * time.Minute

	tracker := j.metrics().Track(TaskSecuritySweep)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Duration("window", window))
	logger.Info("starting security sweep")
	start := j.now()

	principals, err := j.Source.RecentPrincipals(ctx, start.Add(-window))
	if err != nil {
		resultErr = err
		logger.Error("sweep failed", slog.Any("error", err))
		return resultErr
	}

	var mu sync.Mutex
	var alerts []monitor.Alert

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, id := range principals {
		g.Go(func() error {
			found := j.Scanner.ScanPrincipal(gctx, id, window)
			if len(found) == 0 {
				return nil
			}
			mu.Lock()
			alerts = append(alerts, found...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		resultErr = err
		return resultErr
	}

	for _, a := range alerts {
		logger.Warn("security alert",
			slog.String("kind", a.Kind),
			slog.Int64("principal_id", a.PrincipalID),
			slog.Int("count", a.Count),
		)
		j.metrics().AddAlerts(a.Kind, 1)
		if a.Kind == monitor.AlertExcessFailedAuth && j.Lockout != nil {
			if err := j.Lockout.Lock(ctx, a.PrincipalID, a.Kind); err != nil {
				logger.Error("lockout failed", slog.Int64("principal_id", a.PrincipalID), slog.Any("error", err))
			}
		}
	}

	logger.Info("completed security sweep",
		slog.Int("principals", len(principals)),
		slog.Int("alerts", len(alerts)),
		slog.Duration("duration", time.Since(start)),
	)
	return resultErr
}

func (j *SecuritySweepJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskSecuritySweep))
	}
	return slog.Default().With(slog.String("job", TaskSecuritySweep))
}

func (j *SecuritySweepJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *SecuritySweepJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
