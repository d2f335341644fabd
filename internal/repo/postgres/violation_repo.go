package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/miraclemap/internal/domain/enums"
	"github.com/ivankudzin/miraclemap/internal/domain/model"
)

// ViolationRepo is the append-only ledger. It never updates or deletes rows.
type ViolationRepo struct {
	pool *pgxpool.Pool
}

func NewViolationRepo(pool *pgxpool.Pool) *ViolationRepo {
	return &ViolationRepo{pool: pool}
}

const selectViolations = `
SELECT id, submission_id, kind, violation_type, flagged_content, author_id,
	COALESCE(actor_id, ''), COALESCE(reason_code, ''), created_at
FROM violations
`

func (r *ViolationRepo) AppendViolation(ctx context.Context, rec model.ViolationRecord) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	return WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		return insertViolationTx(ctx, tx, rec)
	})
}

func (r *ViolationRepo) ListViolations(ctx context.Context, limit, offset int) ([]model.ViolationRecord, error) {
	if offset < 0 {
		offset = 0
	}
	return r.query(ctx, selectViolations+`
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2
`, limit, offset)
}

func (r *ViolationRepo) ListViolationsByAuthor(ctx context.Context, authorID string, limit int) ([]model.ViolationRecord, error) {
	return r.query(ctx, selectViolations+`
WHERE author_id = $2
ORDER BY created_at DESC, id DESC
LIMIT $1
`, limit, authorID)
}

func (r *ViolationRepo) query(ctx context.Context, query string, limit int, args ...any) ([]model.ViolationRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, query, append([]any{limit}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("list violations: %w", err)
	}
	defer rows.Close()

	records := make([]model.ViolationRecord, 0, limit)
	for rows.Next() {
		var (
			rec           model.ViolationRecord
			kind          string
			violationType string
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.SubmissionID,
			&kind,
			&violationType,
			&rec.FlaggedContent,
			&rec.AuthorID,
			&rec.ActorID,
			&rec.ReasonCode,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan violation: %w", err)
		}
		rec.Kind = enums.ContentKind(kind)
		rec.ViolationType = enums.ViolationType(violationType)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate violations: %w", err)
	}

	return records, nil
}

func insertViolationTx(ctx context.Context, tx pgx.Tx, rec model.ViolationRecord) error {
	if _, err := tx.Exec(ctx, `
INSERT INTO violations (
	id,
	submission_id,
	kind,
	violation_type,
	flagged_content,
	author_id,
	actor_id,
	reason_code,
	created_at
) VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), $9)
`, rec.ID, rec.SubmissionID, string(rec.Kind), string(rec.ViolationType), rec.FlaggedContent, rec.AuthorID,
		rec.ActorID, rec.ReasonCode, rec.CreatedAt); err != nil {
		return fmt.Errorf("insert violation: %w", err)
	}
	return nil
}
