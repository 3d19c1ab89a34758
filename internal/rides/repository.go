package rides

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/identity"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/shared"
)

// Repository persists rides in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const rideColumns = `id, rider_id, COALESCE(driver_id, 0), pickup_addr, dropoff_addr, status, tier, fare_cents, currency, created_at, updated_at`

// CreateRide inserts a new ride in the requested state.
func (r *Repository) CreateRide(ctx context.Context, ride *Ride) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO rides (rider_id, pickup_addr, dropoff_addr, status, tier, fare_cents, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		ride.RiderID, ride.PickupAddr, ride.DropoffAddr, ride.Status, string(ride.Tier), ride.FareCents, ride.Currency,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("rides: create: %w", err)
	}
	return id, nil
}

// GetRide fetches one ride by ID.
func (r *Repository) GetRide(ctx context.Context, id int64) (*Ride, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+rideColumns+` FROM rides WHERE id = $1`, id)
	ride, err := scanRide(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("rides: get %d: %w", id, err)
	}
	return ride, nil
}

// ListByRider returns a rider's trips, most recent first.
func (r *Repository) ListByRider(ctx context.Context, riderID int64, limit int) ([]Ride, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+rideColumns+` FROM rides
		WHERE rider_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, riderID, limit)
	if err != nil {
		return nil, fmt.Errorf("rides: list by rider %d: %w", riderID, err)
	}
	defer rows.Close()
	return collectRides(rows)
}

// ListVIP returns recent trips booked at the vip tier or above. This feeds
// the concierge dashboard and sits behind the vip_data_access capability.
func (r *Repository) ListVIP(ctx context.Context, limit int) ([]Ride, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+rideColumns+` FROM rides
		WHERE tier IN ('vip', 'concierge')
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("rides: list vip: %w", err)
	}
	defer rows.Close()
	return collectRides(rows)
}

// UpdateStatus moves a ride to a new lifecycle state.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE rides SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("rides: update status %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// AssignDriver attaches a driver and moves the ride to assigned.
func (r *Repository) AssignDriver(ctx context.Context, id, driverID int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE rides SET driver_id = $2, status = $3, updated_at = now() WHERE id = $1`,
		id, driverID, StatusAssigned)
	if err != nil {
		return fmt.Errorf("rides: assign driver %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanRide(row pgx.Row) (*Ride, error) {
	var ride Ride
	var tier string
	err := row.Scan(
		&ride.ID, &ride.RiderID, &ride.DriverID, &ride.PickupAddr, &ride.DropoffAddr,
		&ride.Status, &tier, &ride.FareCents, &ride.Currency, &ride.CreatedAt, &ride.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	ride.Tier = identity.Tier(tier)
	return &ride, nil
}

func collectRides(rows pgx.Rows) ([]Ride, error) {
	var out []Ride
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ride)
	}
	return out, rows.Err()
}
