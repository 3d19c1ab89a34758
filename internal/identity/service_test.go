package identity

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/audit"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/shared"
)

type memPrincipalRepo struct {
	principals map[int64]*Principal
	hashes     map[int64]string
	nextID     int64
}

func newMemPrincipalRepo() *memPrincipalRepo {
	return &memPrincipalRepo{
		principals: make(map[int64]*Principal),
		hashes:     make(map[int64]string),
		nextID:     1,
	}
}

func (m *memPrincipalRepo) GetPrincipal(ctx context.Context, id int64) (*Principal, error) {
	p, ok := m.principals[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	out := *p
	return &out, nil
}

func (m *memPrincipalRepo) GetByEmail(ctx context.Context, email string) (*Principal, string, error) {
	for id, p := range m.principals {
		if p.Email == email {
			out := *p
			return &out, m.hashes[id], nil
		}
	}
	return nil, "", shared.ErrNotFound
}

func (m *memPrincipalRepo) ListPrincipals(ctx context.Context) ([]Principal, error) {
	out := make([]Principal, 0, len(m.principals))
	for _, p := range m.principals {
		out = append(out, *p)
	}
	return out, nil
}

func (m *memPrincipalRepo) CreatePrincipal(ctx context.Context, email, passwordHash string, tier Tier, role Role) (int64, error) {
	id := m.nextID
	m.nextID++
	m.principals[id] = &Principal{ID: id, Email: email, Tier: tier, Role: role, Active: true}
	m.hashes[id] = passwordHash
	return id, nil
}

func (m *memPrincipalRepo) ChangeTier(ctx context.Context, id int64, tier Tier) (*Principal, error) {
	p, ok := m.principals[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	previous := *p
	p.Tier = tier
	return &previous, nil
}

func (m *memPrincipalRepo) SetActive(ctx context.Context, id int64, active bool) error {
	p, ok := m.principals[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.Active = active
	return nil
}

func (m *memPrincipalRepo) SetMFAVerified(ctx context.Context, id int64, verified bool) error {
	p, ok := m.principals[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.MFAVerified = verified
	return nil
}

type captureAuditor struct {
	events []audit.Event
}

func (c *captureAuditor) Record(ctx context.Context, ev audit.Event) {
	c.events = append(c.events, ev)
}

func TestRegisterStartsAtNormalTier(t *testing.T) {
	repo := newMemPrincipalRepo()
	auditor := &captureAuditor{}
	svc := NewService(repo, auditor)

	id, err := svc.Register(context.Background(), "  Rider@Example.COM ", "s3cretpass", RoleRider)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	p, err := svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.Tier != TierNormal {
		t.Fatalf("tier = %s, want normal", p.Tier)
	}
	if p.Email != "rider@example.com" {
		t.Fatalf("email not normalised: %q", p.Email)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(repo.hashes[id]), []byte("s3cretpass")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if len(auditor.events) != 1 || auditor.events[0].EventType != "account.register" {
		t.Fatalf("audit events = %+v", auditor.events)
	}
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	svc := NewService(newMemPrincipalRepo(), nil)
	if _, err := svc.Register(context.Background(), "x@example.com", "pw", Role("dispatcher")); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}

func TestChangeTierAuditsTransition(t *testing.T) {
	repo := newMemPrincipalRepo()
	auditor := &captureAuditor{}
	svc := NewService(repo, auditor)
	id, _ := svc.Register(context.Background(), "r@example.com", "pw123456", RoleRider)

	p, err := svc.ChangeTier(context.Background(), id, TierVIP)
	if err != nil {
		t.Fatalf("change tier: %v", err)
	}
	if p.Tier != TierVIP {
		t.Fatalf("tier = %s, want vip", p.Tier)
	}

	last := auditor.events[len(auditor.events)-1]
	if last.EventType != "account.tier_change" {
		t.Fatalf("event type = %s", last.EventType)
	}
	if last.Metadata["from"] != "normal" || last.Metadata["to"] != "vip" {
		t.Fatalf("metadata = %+v", last.Metadata)
	}

	// Same-tier change is a no-op without an audit entry.
	before := len(auditor.events)
	if _, err := svc.ChangeTier(context.Background(), id, TierVIP); err != nil {
		t.Fatalf("idempotent change: %v", err)
	}
	if len(auditor.events) != before {
		t.Fatalf("no-op change produced an audit event")
	}
}

type snapshotRepo struct {
	*memPrincipalRepo
	snapshot Principal
}

func (s *snapshotRepo) ChangeTier(ctx context.Context, id int64, tier Tier) (*Principal, error) {
	out := s.snapshot
	return &out, nil
}

func TestChangeTierAuditsFromRepositorySnapshot(t *testing.T) {
	// The transition is audited from the snapshot the repository returns
	// under its row lock, not from a separate unlocked read.
	repo := &snapshotRepo{
		memPrincipalRepo: newMemPrincipalRepo(),
		snapshot:         Principal{ID: 1, Tier: TierPremium, Role: RoleRider, Active: true},
	}
	auditor := &captureAuditor{}
	svc := NewService(repo, auditor)

	p, err := svc.ChangeTier(context.Background(), 1, TierVIP)
	if err != nil {
		t.Fatalf("change tier: %v", err)
	}
	if p.Tier != TierVIP {
		t.Fatalf("tier = %s, want vip", p.Tier)
	}
	if len(auditor.events) != 1 {
		t.Fatalf("audit events = %d, want 1", len(auditor.events))
	}
	if auditor.events[0].Metadata["from"] != "premium" {
		t.Fatalf("from = %q, want snapshot tier", auditor.events[0].Metadata["from"])
	}
}

func TestDeactivateKeepsRow(t *testing.T) {
	repo := newMemPrincipalRepo()
	svc := NewService(repo, nil)
	id, _ := svc.Register(context.Background(), "r@example.com", "pw123456", RoleRider)

	if err := svc.Deactivate(context.Background(), id); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	p, err := svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("soft-deleted principal must stay resolvable: %v", err)
	}
	if p.Active {
		t.Fatalf("principal still active")
	}

	if err := svc.Reactivate(context.Background(), id); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	p, _ = svc.Get(context.Background(), id)
	if !p.Active {
		t.Fatalf("principal not reactivated")
	}
}
