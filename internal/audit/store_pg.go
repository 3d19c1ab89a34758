package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore persists audit records in the audit_records table.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a PostgreSQL backed store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Append inserts a record. INSERT-only: nothing in this module issues
// UPDATE or DELETE against audit_records outside retention purges.
func (s *PGStore) Append(ctx context.Context, rec Record) error {
	meta, err := json.Marshal(rec.Metadata)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO audit_records (id, occurred_at, principal_id, event_type, event_category, outcome, source_ip, required_rank, meta)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.At, rec.PrincipalID, rec.EventType, rec.Category, rec.Outcome, rec.SourceIP, rec.RequiredRank, meta)
	return err
}

const recordColumns = `id, occurred_at, principal_id, event_type, event_category, outcome, source_ip, required_rank, meta`

// ListByPrincipal returns records for the principal newer than since.
func (s *PGStore) ListByPrincipal(ctx context.Context, principalID int64, since time.Time) ([]Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+recordColumns+` FROM audit_records WHERE principal_id = $1 AND occurred_at > $2 ORDER BY occurred_at DESC`,
		principalID, since)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

// ListByIP returns records from the source IP newer than since.
func (s *PGStore) ListByIP(ctx context.Context, ip string, since time.Time) ([]Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+recordColumns+` FROM audit_records WHERE source_ip = $1 AND occurred_at > $2 ORDER BY occurred_at DESC`,
		ip, since)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

// Timeline returns a page of records plus one extra row so callers can
// detect a next page, following the window+limit approach used elsewhere.
func (s *PGStore) Timeline(ctx context.Context, filters TimelineFilters, offset, limit int) ([]Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+recordColumns+` FROM audit_records
		 WHERE ($1::timestamptz IS NULL OR occurred_at >= $1)
		   AND ($2::timestamptz IS NULL OR occurred_at <= $2)
		   AND ($3::bigint = 0 OR principal_id = $3)
		   AND ($4::text = '' OR event_category = $4)
		 ORDER BY occurred_at DESC OFFSET $5 LIMIT $6`,
		nullableTime(filters.From), nullableTime(filters.To), filters.PrincipalID, filters.Category, offset, limit)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

// PurgeOlderThan removes records past the retention window. Returns the
// number of purged rows.
func (s *PGStore) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM audit_records WHERE occurred_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// RecentPrincipals lists distinct principal IDs that produced records in the
// window, feeding the periodic security sweep.
func (s *PGStore) RecentPrincipals(ctx context.Context, since time.Time) ([]int64, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT principal_id FROM audit_records WHERE occurred_at > $1 AND principal_id <> 0`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func collectRecords(rows pgx.Rows) ([]Record, error) {
	defer rows.Close()
	var out []Record
	for rows.Next() {
		var rec Record
		var meta []byte
		if err := rows.Scan(&rec.ID, &rec.At, &rec.PrincipalID, &rec.EventType, &rec.Category, &rec.Outcome, &rec.SourceIP, &rec.RequiredRank, &meta); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &rec.Metadata); err != nil {
				return nil, err
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

var _ Store = (*PGStore)(nil)
