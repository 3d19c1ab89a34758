package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/platform/db"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/shared"
)

// Repository provides PostgreSQL backed persistence for principals.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const principalColumns = `id, email, password_hash, tier, role, mfa_verified, is_active, created_at, updated_at`

type principalRow struct {
	Principal
	PasswordHash string
}

func scanPrincipal(row pgx.Row) (*principalRow, error) {
	var p principalRow
	var tier, role string
	if err := row.Scan(&p.ID, &p.Email, &p.PasswordHash, &tier, &role, &p.MFAVerified, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	p.Tier = Tier(tier)
	p.Role = Role(role)
	return &p, nil
}

// GetPrincipal fetches a principal by ID.
func (r *Repository) GetPrincipal(ctx context.Context, id int64) (*Principal, error) {
	row, err := scanPrincipal(r.pool.QueryRow(ctx, `SELECT `+principalColumns+` FROM principals WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	return &row.Principal, nil
}

// GetByEmail fetches a principal with its password hash for authentication.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Principal, string, error) {
	row, err := scanPrincipal(r.pool.QueryRow(ctx, `SELECT `+principalColumns+` FROM principals WHERE email = $1`, email))
	if err != nil {
		return nil, "", err
	}
	return &row.Principal, row.PasswordHash, nil
}

// ListPrincipals returns all principals ordered by ID, active and inactive.
func (r *Repository) ListPrincipals(ctx context.Context) ([]Principal, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+principalColumns+` FROM principals ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Principal
	for rows.Next() {
		var p Principal
		var hash, tier, role string
		if err := rows.Scan(&p.ID, &p.Email, &hash, &tier, &role, &p.MFAVerified, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Tier = Tier(tier)
		p.Role = Role(role)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CreatePrincipal inserts a new account and returns its ID.
func (r *Repository) CreatePrincipal(ctx context.Context, email, passwordHash string, tier Tier, role Role) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO principals (email, password_hash, tier, role, mfa_verified, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, FALSE, TRUE, NOW(), NOW()) RETURNING id`,
		email, passwordHash, string(tier), string(role)).Scan(&id)
	return id, err
}

// ChangeTier reads the current row and updates the tier in one transaction,
// returning the pre-update snapshot. The row lock keeps a concurrent change
// from interleaving between the read and the write.
func (r *Repository) ChangeTier(ctx context.Context, id int64, tier Tier) (*Principal, error) {
	var previous *Principal
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row, err := scanPrincipal(tx.QueryRow(ctx, `SELECT `+principalColumns+` FROM principals WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		previous = &row.Principal
		if previous.Tier == tier {
			return nil
		}
		_, err = tx.Exec(ctx, `UPDATE principals SET tier = $2, updated_at = NOW() WHERE id = $1`, id, string(tier))
		return err
	})
	if err != nil {
		return nil, err
	}
	return previous, nil
}

// SetActive flips the soft-delete flag. Rows are never removed so the audit
// trail stays resolvable.
func (r *Repository) SetActive(ctx context.Context, id int64, active bool) error {
	return r.exec(ctx, `UPDATE principals SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
}

// SetMFAVerified records the account-level MFA enrolment state.
func (r *Repository) SetMFAVerified(ctx context.Context, id int64, verified bool) error {
	return r.exec(ctx, `UPDATE principals SET mfa_verified = $2, updated_at = NOW() WHERE id = $1`, id, verified)
}

func (r *Repository) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ RepositoryPort = (*Repository)(nil)
