package rides

import (
	"context"
	"fmt"
	"strconv"

	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/audit"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/identity"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/shared"
)

// Default base fare when the caller supplies no quote basis.
const defaultBaseFareCents = 150000

// RepositoryPort defines the persistence contract for rides.
type RepositoryPort interface {
	CreateRide(ctx context.Context, ride *Ride) (int64, error)
	GetRide(ctx context.Context, id int64) (*Ride, error)
	ListByRider(ctx context.Context, riderID int64, limit int) ([]Ride, error)
	ListVIP(ctx context.Context, limit int) ([]Ride, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	AssignDriver(ctx context.Context, id, driverID int64) error
}

// Auditor records ride events.
type Auditor interface {
	Record(ctx context.Context, ev audit.Event)
}

// Service implements ride booking rules. Fares are quoted from the rider's
// tier at request time; later tier changes do not reprice existing rides.
type Service struct {
	repo    RepositoryPort
	auditor Auditor
}

// NewService builds the ride service.
func NewService(repo RepositoryPort, auditor Auditor) *Service {
	return &Service{repo: repo, auditor: auditor}
}

// Request books a new ride for the principal.
func (s *Service) Request(ctx context.Context, p *identity.Principal, pickup, dropoff string, baseFareCents int64) (*Ride, error) {
	if pickup == "" || dropoff == "" {
		return nil, fmt.Errorf("%w: pickup and dropoff required", shared.ErrValidation)
	}
	if baseFareCents <= 0 {
		baseFareCents = defaultBaseFareCents
	}
	ride := &Ride{
		RiderID:     p.ID,
		PickupAddr:  pickup,
		DropoffAddr: dropoff,
		Status:      StatusRequested,
		Tier:        p.Tier,
		FareCents:   QuoteFare(baseFareCents, p.Tier),
		Currency:    "NGN",
	}
	id, err := s.repo.CreateRide(ctx, ride)
	if err != nil {
		return nil, err
	}
	ride.ID = id
	return ride, nil
}

// Get fetches a single ride. Riders only see their own trips; concierge and
// admin roles see everything.
func (s *Service) Get(ctx context.Context, p *identity.Principal, id int64) (*Ride, error) {
	ride, err := s.repo.GetRide(ctx, id)
	if err != nil {
		return nil, err
	}
	if ride.RiderID != p.ID && p.Role != identity.RoleConcierge && p.Role != identity.RoleAdmin {
		return nil, shared.ErrForbidden
	}
	return ride, nil
}

// ListMine returns the principal's recent trips.
func (s *Service) ListMine(ctx context.Context, p *identity.Principal, limit int) ([]Ride, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListByRider(ctx, p.ID, limit)
}

// ListVIP returns recent vip-tier trips for the concierge dashboard. Every
// read of this data lands in the audit trail under its own category.
func (s *Service) ListVIP(ctx context.Context, p *identity.Principal, ip string, limit int) ([]Ride, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	out, err := s.repo.ListVIP(ctx, limit)
	if err != nil {
		return nil, err
	}
	if s.auditor != nil {
		s.auditor.Record(ctx, audit.Event{
			PrincipalID: p.ID,
			EventType:   "ride.vip_list",
			Category:    audit.CategoryVIPDataAccess,
			Outcome:     audit.OutcomeAllow,
			SourceIP:    ip,
			Metadata:    map[string]string{"count": strconv.Itoa(len(out))},
		})
	}
	return out, nil
}

// Assign attaches a driver to a requested ride and moves it to assigned.
// Dispatch is a fleet operation; the guard keeps riders out.
func (s *Service) Assign(ctx context.Context, id, driverID int64) (*Ride, error) {
	if driverID <= 0 {
		return nil, fmt.Errorf("%w: driver id required", shared.ErrValidation)
	}
	ride, err := s.repo.GetRide(ctx, id)
	if err != nil {
		return nil, err
	}
	if ride.Status != StatusRequested {
		return nil, fmt.Errorf("%w: ride is %s", shared.ErrValidation, ride.Status)
	}
	if err := s.repo.AssignDriver(ctx, id, driverID); err != nil {
		return nil, err
	}
	ride.DriverID = driverID
	ride.Status = StatusAssigned
	return ride, nil
}

// Cancel moves a requested or assigned ride to cancelled.
func (s *Service) Cancel(ctx context.Context, p *identity.Principal, id int64) error {
	ride, err := s.Get(ctx, p, id)
	if err != nil {
		return err
	}
	if ride.Status == StatusCompleted || ride.Status == StatusCancelled {
		return fmt.Errorf("%w: ride already settled", shared.ErrValidation)
	}
	return s.repo.UpdateStatus(ctx, id, StatusCancelled)
}
