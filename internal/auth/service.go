package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/audit"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/identity"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/monitor"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/shared"
)

// PrincipalSource is the identity lookup the service needs.
type PrincipalSource interface {
	GetByEmail(ctx context.Context, email string) (*identity.Principal, string, error)
}

// Auditor records authentication outcomes.
type Auditor interface {
	Record(ctx context.Context, ev audit.Event)
}

// Service wraps authentication business rules. Every failed attempt lands
// in the audit trail; enough of them inside the scan window locks the
// account for the lockout TTL.
type Service struct {
	source   PrincipalSource
	auditor  Auditor
	scanner  *monitor.Scanner
	lockout  *monitor.Lockout
	verifier CodeVerifier
}

// NewService constructs a new Service.
func NewService(source PrincipalSource, auditor Auditor, scanner *monitor.Scanner, lockout *monitor.Lockout, verifier CodeVerifier) *Service {
	return &Service{source: source, auditor: auditor, scanner: scanner, lockout: lockout, verifier: verifier}
}

// Authenticate validates email/password credentials. Credential failures
// are indistinguishable to the caller; the audit trail keeps the detail.
func (s *Service) Authenticate(ctx context.Context, email, password, ip string) (*identity.Principal, error) {
	principal, hash, err := s.source.GetByEmail(ctx, email)
	if err != nil {
		s.recordFailure(ctx, 0, ip, "unknown_email")
		return nil, shared.ErrInvalidCredentials
	}

	if s.lockout != nil && s.lockout.IsLocked(ctx, principal.ID) {
		s.recordFailure(ctx, principal.ID, ip, "locked")
		return nil, shared.ErrAccountLocked
	}

	if !principal.Active {
		s.recordFailure(ctx, principal.ID, ip, "inactive_account")
		return nil, shared.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		s.recordFailure(ctx, principal.ID, ip, "bad_password")
		s.maybeLock(ctx, principal.ID)
		return nil, shared.ErrInvalidCredentials
	}

	return principal, nil
}

// VerifyMFA checks the one-time code for an authenticated principal.
// Success is session-scoped; the handler flips the session flag.
func (s *Service) VerifyMFA(ctx context.Context, principal *identity.Principal, code, ip string) error {
	if s.verifier == nil || !s.verifier.Verify(ctx, principal.ID, code) {
		s.recordFailure(ctx, principal.ID, ip, "bad_mfa_code")
		s.maybeLock(ctx, principal.ID)
		return shared.ErrInvalidCredentials
	}
	if s.auditor != nil {
		s.auditor.Record(ctx, audit.Event{
			PrincipalID: principal.ID,
			EventType:   "auth.mfa_verified",
			Category:    audit.CategoryAccountChange,
			Outcome:     audit.OutcomeAllow,
			SourceIP:    ip,
		})
	}
	return nil
}

func (s *Service) recordFailure(ctx context.Context, principalID int64, ip, detail string) {
	if s.auditor == nil {
		return
	}
	s.auditor.Record(ctx, audit.Event{
		PrincipalID: principalID,
		EventType:   "auth.login_failed",
		Category:    audit.CategoryAuthFailure,
		Outcome:     audit.OutcomeDeny,
		SourceIP:    ip,
		Metadata:    map[string]string{"detail": detail},
	})
}

// maybeLock runs an immediate scan after a failure so the active→locked
// transition does not wait for the periodic sweep.
func (s *Service) maybeLock(ctx context.Context, principalID int64) {
	if s.scanner == nil || s.lockout == nil {
		return
	}
	for _, alert := range s.scanner.ScanPrincipal(ctx, principalID, 0) {
		if alert.Kind == monitor.AlertExcessFailedAuth {
			_ = s.lockout.Lock(ctx, principalID, alert.Kind)
			return
		}
	}
}
