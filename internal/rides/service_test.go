package rides

import (
	"context"
	"errors"
	"testing"

	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/audit"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/identity"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/shared"
)

type memRepo struct {
	rides  map[int64]*Ride
	nextID int64
}

func newMemRepo() *memRepo {
	return &memRepo{rides: make(map[int64]*Ride), nextID: 1}
}

func (m *memRepo) CreateRide(ctx context.Context, ride *Ride) (int64, error) {
	id := m.nextID
	m.nextID++
	stored := *ride
	stored.ID = id
	m.rides[id] = &stored
	return id, nil
}

func (m *memRepo) GetRide(ctx context.Context, id int64) (*Ride, error) {
	ride, ok := m.rides[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	out := *ride
	return &out, nil
}

func (m *memRepo) ListByRider(ctx context.Context, riderID int64, limit int) ([]Ride, error) {
	var out []Ride
	for _, r := range m.rides {
		if r.RiderID == riderID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memRepo) ListVIP(ctx context.Context, limit int) ([]Ride, error) {
	var out []Ride
	for _, r := range m.rides {
		if r.Tier == identity.TierVIP || r.Tier == identity.TierConcierge {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	ride, ok := m.rides[id]
	if !ok {
		return shared.ErrNotFound
	}
	ride.Status = status
	return nil
}

func (m *memRepo) AssignDriver(ctx context.Context, id, driverID int64) error {
	ride, ok := m.rides[id]
	if !ok {
		return shared.ErrNotFound
	}
	ride.DriverID = driverID
	ride.Status = StatusAssigned
	return nil
}

type captureAuditor struct {
	events []audit.Event
}

func (c *captureAuditor) Record(ctx context.Context, ev audit.Event) {
	c.events = append(c.events, ev)
}

func principal(id int64, tier identity.Tier, role identity.Role) *identity.Principal {
	return &identity.Principal{ID: id, Tier: tier, Role: role, Active: true}
}

func TestQuoteFareByTier(t *testing.T) {
	base := int64(100000)
	cases := []struct {
		tier identity.Tier
		want int64
	}{
		{identity.TierNormal, 100000},
		{identity.TierPremium, 125000},
		{identity.TierVIP, 175000},
		{identity.TierConcierge, 250000},
		{identity.Tier("unknown"), 100000},
	}
	for _, tc := range cases {
		if got := QuoteFare(base, tc.tier); got != tc.want {
			t.Fatalf("QuoteFare(%s) = %d, want %d", tc.tier, got, tc.want)
		}
	}
}

func TestRequestQuotesAtBookingTier(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil)

	ride, err := svc.Request(context.Background(), principal(1, identity.TierVIP, identity.RoleRider), "Ikoyi", "VI", 100000)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if ride.FareCents != 175000 {
		t.Fatalf("fare = %d, want vip multiplier applied", ride.FareCents)
	}
	if ride.Status != StatusRequested {
		t.Fatalf("status = %s", ride.Status)
	}
	if ride.Tier != identity.TierVIP {
		t.Fatalf("tier = %s", ride.Tier)
	}
}

func TestRequestValidatesAddresses(t *testing.T) {
	svc := NewService(newMemRepo(), nil)
	_, err := svc.Request(context.Background(), principal(1, identity.TierNormal, identity.RoleRider), "", "VI", 0)
	if !errors.Is(err, shared.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestGetHidesOtherRidersTrips(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil)
	ride, err := svc.Request(context.Background(), principal(1, identity.TierNormal, identity.RoleRider), "A", "B", 0)
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	_, err = svc.Get(context.Background(), principal(2, identity.TierNormal, identity.RoleRider), ride.ID)
	if !errors.Is(err, shared.ErrForbidden) {
		t.Fatalf("err = %v, want forbidden", err)
	}

	// Concierge role sees everything.
	if _, err := svc.Get(context.Background(), principal(3, identity.TierConcierge, identity.RoleConcierge), ride.ID); err != nil {
		t.Fatalf("concierge get: %v", err)
	}
}

func TestListVIPAuditsEveryRead(t *testing.T) {
	repo := newMemRepo()
	auditor := &captureAuditor{}
	svc := NewService(repo, auditor)
	_, err := svc.Request(context.Background(), principal(1, identity.TierVIP, identity.RoleRider), "A", "B", 0)
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	out, err := svc.ListVIP(context.Background(), principal(9, identity.TierConcierge, identity.RoleConcierge), "203.0.113.5", 0)
	if err != nil {
		t.Fatalf("list vip: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("vip rides = %d, want 1", len(out))
	}
	if len(auditor.events) != 1 {
		t.Fatalf("audit events = %d, want 1", len(auditor.events))
	}
	ev := auditor.events[0]
	if ev.Category != audit.CategoryVIPDataAccess {
		t.Fatalf("category = %s", ev.Category)
	}
	if ev.SourceIP != "203.0.113.5" {
		t.Fatalf("source ip = %s", ev.SourceIP)
	}
}

func TestAssignMovesRequestedRideToAssigned(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil)
	ride, err := svc.Request(context.Background(), principal(1, identity.TierNormal, identity.RoleRider), "A", "B", 0)
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	assigned, err := svc.Assign(context.Background(), ride.ID, 77)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if assigned.Status != StatusAssigned {
		t.Fatalf("status = %s, want assigned", assigned.Status)
	}
	if assigned.DriverID != 77 {
		t.Fatalf("driver = %d, want 77", assigned.DriverID)
	}

	// Only requested rides take a driver.
	if _, err := svc.Assign(context.Background(), ride.ID, 78); !errors.Is(err, shared.ErrValidation) {
		t.Fatalf("second assign err = %v, want validation error", err)
	}
}

func TestAssignRejectsMissingDriver(t *testing.T) {
	svc := NewService(newMemRepo(), nil)
	if _, err := svc.Assign(context.Background(), 1, 0); !errors.Is(err, shared.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestCancelSettledRideFails(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil)
	p := principal(1, identity.TierNormal, identity.RoleRider)
	ride, err := svc.Request(context.Background(), p, "A", "B", 0)
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	if err := svc.Cancel(context.Background(), p, ride.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := svc.Cancel(context.Background(), p, ride.ID); !errors.Is(err, shared.ErrValidation) {
		t.Fatalf("second cancel err = %v, want validation error", err)
	}
}
