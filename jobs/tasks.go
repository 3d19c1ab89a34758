package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSecuritySweep scans recent audit activity for suspicious patterns.
	TaskSecuritySweep = "security:scan"
	// TaskAuditPurge removes audit records past the retention horizon.
	TaskAuditPurge = "audit:purge"
)

// SecuritySweepPayload controls the scan window of one sweep.
type SecuritySweepPayload struct {
	WindowMinutes int `json:"window_minutes"`
}

// NewSecuritySweepTask constructs the periodic security sweep task.
func NewSecuritySweepTask(payload SecuritySweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSecuritySweep, data), nil
}

// AuditPurgePayload controls the retention horizon for one purge run.
type AuditPurgePayload struct {
	RetentionDays int `json:"retention_days"`
}

// NewAuditPurgeTask constructs the retention purge task.
func NewAuditPurgeTask(payload AuditPurgePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditPurge, data), nil
}
