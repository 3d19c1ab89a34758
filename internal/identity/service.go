package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/audit"
)

// RepositoryPort defines data access methods for principals.
type RepositoryPort interface {
	GetPrincipal(ctx context.Context, id int64) (*Principal, error)
	GetByEmail(ctx context.Context, email string) (*Principal, string, error)
	ListPrincipals(ctx context.Context) ([]Principal, error)
	CreatePrincipal(ctx context.Context, email, passwordHash string, tier Tier, role Role) (int64, error)
	// ChangeTier applies the tier atomically and returns the pre-change
	// snapshot so callers can detect no-ops and audit the transition.
	ChangeTier(ctx context.Context, id int64, tier Tier) (*Principal, error)
	SetActive(ctx context.Context, id int64, active bool) error
	SetMFAVerified(ctx context.Context, id int64, verified bool) error
}

// Auditor records account lifecycle events.
type Auditor interface {
	Record(ctx context.Context, ev audit.Event)
}

// Service handles principal lifecycle business rules.
type Service struct {
	repo    RepositoryPort
	auditor Auditor
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, auditor Auditor) *Service {
	return &Service{repo: repo, auditor: auditor}
}

// Get fetches a principal by ID.
func (s *Service) Get(ctx context.Context, id int64) (*Principal, error) {
	return s.repo.GetPrincipal(ctx, id)
}

// List returns every principal, active and soft-deleted.
func (s *Service) List(ctx context.Context) ([]Principal, error) {
	return s.repo.ListPrincipals(ctx)
}

// Register creates a new account at the normal tier.
func (s *Service) Register(ctx context.Context, email, password string, role Role) (int64, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return 0, errors.New("identity: email required")
	}
	if !role.Valid() {
		return 0, fmt.Errorf("identity: unknown role %q", role)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}
	id, err := s.repo.CreatePrincipal(ctx, email, string(hash), TierNormal, role)
	if err != nil {
		return 0, err
	}
	s.audit(ctx, id, "account.register", map[string]string{"role": string(role)})
	return id, nil
}

// ChangeTier moves a principal to a new tier. Upgrades and downgrades share
// the same path; card purchases and expiries both land here.
func (s *Service) ChangeTier(ctx context.Context, id int64, tier Tier) (*Principal, error) {
	if !tier.Valid() {
		return nil, fmt.Errorf("identity: unknown tier %q", tier)
	}
	previous, err := s.repo.ChangeTier(ctx, id, tier)
	if err != nil {
		return nil, err
	}
	if previous.Tier == tier {
		return previous, nil
	}
	s.audit(ctx, id, "account.tier_change", map[string]string{
		"from": string(previous.Tier),
		"to":   string(tier),
	})
	updated := *previous
	updated.Tier = tier
	return &updated, nil
}

// Deactivate soft-deletes the account. The row survives so historical audit
// records keep resolving.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return err
	}
	s.audit(ctx, id, "account.deactivate", nil)
	return nil
}

// Reactivate re-enables a soft-deleted account.
func (s *Service) Reactivate(ctx context.Context, id int64) error {
	if err := s.repo.SetActive(ctx, id, true); err != nil {
		return err
	}
	s.audit(ctx, id, "account.reactivate", nil)
	return nil
}

// SetMFAEnrolled flips account-level MFA enrolment.
func (s *Service) SetMFAEnrolled(ctx context.Context, id int64, enrolled bool) error {
	if err := s.repo.SetMFAVerified(ctx, id, enrolled); err != nil {
		return err
	}
	s.audit(ctx, id, "account.mfa_enrolment", map[string]string{"enrolled": fmt.Sprintf("%t", enrolled)})
	return nil
}

func (s *Service) audit(ctx context.Context, id int64, eventType string, meta map[string]string) {
	if s.auditor == nil {
		return
	}
	s.auditor.Record(ctx, audit.Event{
		PrincipalID: id,
		EventType:   eventType,
		Category:    audit.CategoryAccountChange,
		Outcome:     audit.OutcomeAllow,
		Metadata:    meta,
	})
}
