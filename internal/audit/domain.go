package audit

import "time"

// Event categories. Every record carries exactly one.
const (
	CategoryPermissionCheck = "permission_check"
	CategoryAuthFailure     = "authentication_failure"
	CategoryVIPDataAccess   = "vip_data_access"
	CategorySuspicious      = "suspicious_activity"
	CategoryAccountChange   = "account_change"
)

// Outcomes of the recorded event.
const (
	OutcomeAllow = "allow"
	OutcomeDeny  = "deny"
)

// Event is a security-relevant occurrence headed for the audit trail.
// Metadata is sanitized before storage; callers may pass raw values.
type Event struct {
	PrincipalID int64
	EventType   string
	Category    string
	Outcome     string
	SourceIP    string
	// RequiredRank carries the rank a denied requirement demanded, so the
	// monitor can detect escalation attempts. Zero when not applicable.
	RequiredRank int
	Metadata     map[string]string
}

// Record is an immutable, append-only audit trail entry. Records are never
// mutated; they are purged only after the retention window expires.
type Record struct {
	ID           string
	At           time.Time
	PrincipalID  int64
	EventType    string
	Category     string
	Outcome      string
	SourceIP     string
	RequiredRank int
	Metadata     map[string]string
}
