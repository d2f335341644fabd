package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/miraclemap/internal/domain/enums"
	"github.com/ivankudzin/miraclemap/internal/domain/model"
)

// SubmissionRepo stores submissions together with their moderation state.
type SubmissionRepo struct {
	pool *pgxpool.Pool
}

func NewSubmissionRepo(pool *pgxpool.Pool) *SubmissionRepo {
	return &SubmissionRepo{pool: pool}
}

const selectModerated = `
SELECT
	s.id, s.kind, s.author_id, s.title, s.description, s.category, COALESCE(s.urgency, ''),
	s.latitude, s.longitude, s.created_at,
	m.status, m.requires_review, COALESCE(m.decided_by, ''), m.decided_at,
	COALESCE(m.rejection_reason, ''), m.confidence, m.flagged_terms, m.suggestions, m.updated_at
FROM submissions s
JOIN moderation_states m ON m.submission_id = s.id
`

func (r *SubmissionRepo) CreateSubmission(ctx context.Context, sub model.Submission, state model.ModerationState) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(sub.ID) == "" {
		return fmt.Errorf("%w: submission id is required", model.ErrValidation)
	}

	return WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
INSERT INTO submissions (
	id,
	kind,
	author_id,
	title,
	description,
	category,
	urgency,
	latitude,
	longitude,
	created_at
) VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10)
`, sub.ID, string(sub.Kind), sub.AuthorID, sub.Title, sub.Description, string(sub.Category), string(sub.Urgency),
			sub.Latitude, sub.Longitude, sub.CreatedAt); err != nil {
			return fmt.Errorf("insert submission: %w", err)
		}

		if _, err := tx.Exec(ctx, `
INSERT INTO moderation_states (
	submission_id,
	status,
	requires_review,
	decided_by,
	decided_at,
	rejection_reason,
	confidence,
	flagged_terms,
	suggestions,
	updated_at
) VALUES ($1, $2, $3, NULLIF($4, ''), $5, NULLIF($6, ''), $7, $8, $9, $10)
`, sub.ID, string(state.Status), state.RequiresReview, state.DecidedBy, state.DecidedAt, state.RejectionReason,
			state.Confidence, nonNil(state.FlaggedTerms), nonNil(state.Suggestions), state.UpdatedAt); err != nil {
			return fmt.Errorf("insert moderation state: %w", err)
		}

		return nil
	})
}

func (r *SubmissionRepo) GetSubmission(ctx context.Context, id string) (model.ModeratedSubmission, error) {
	if r.pool == nil {
		return model.ModeratedSubmission{}, fmt.Errorf("postgres pool is nil")
	}
	if _, err := uuid.Parse(id); err != nil {
		return model.ModeratedSubmission{}, model.ErrSubmissionNotFound
	}

	item, err := scanModerated(r.pool.QueryRow(ctx, selectModerated+`WHERE s.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return model.ModeratedSubmission{}, model.ErrSubmissionNotFound
		}
		return model.ModeratedSubmission{}, fmt.Errorf("get submission: %w", err)
	}
	return item, nil
}

func (r *SubmissionRepo) UpdateModeration(ctx context.Context, expected enums.ModerationStatus, next model.ModerationState) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	return WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		return updateStateTx(ctx, tx, expected, next)
	})
}

func (r *SubmissionRepo) RejectSubmission(ctx context.Context, expected enums.ModerationStatus, next model.ModerationState, violation model.ViolationRecord) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	return WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if err := updateStateTx(ctx, tx, expected, next); err != nil {
			return err
		}
		if err := insertViolationTx(ctx, tx, violation); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
UPDATE submissions
SET removed_at = $2
WHERE id = $1 AND removed_at IS NULL
`, next.SubmissionID, next.UpdatedAt); err != nil {
			return fmt.Errorf("remove rejected submission: %w", err)
		}
		return nil
	})
}

func (r *SubmissionRepo) ListPending(ctx context.Context, kind enums.ContentKind, limit int) ([]model.ModeratedSubmission, error) {
	return r.list(ctx, `
WHERE m.status = 'pending_review'
  AND ($1 = '' OR s.kind = $1)
ORDER BY s.created_at DESC, s.id DESC
LIMIT $2
`, string(kind), limit)
}

// ListPublished returns approved submissions still visible to the public, newest first.
func (r *SubmissionRepo) ListPublished(ctx context.Context, kind enums.ContentKind, limit int) ([]model.ModeratedSubmission, error) {
	return r.list(ctx, `
WHERE m.status = 'approved'
  AND s.removed_at IS NULL
  AND ($1 = '' OR s.kind = $1)
ORDER BY s.created_at DESC, s.id DESC
LIMIT $2
`, string(kind), limit)
}

func (r *SubmissionRepo) list(ctx context.Context, where string, kind string, limit int) ([]model.ModeratedSubmission, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, selectModerated+where, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	items := make([]model.ModeratedSubmission, 0, limit)
	for rows.Next() {
		item, err := scanModerated(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}

	return items, nil
}

func updateStateTx(ctx context.Context, tx pgx.Tx, expected enums.ModerationStatus, next model.ModerationState) error {
	tag, err := tx.Exec(ctx, `
UPDATE moderation_states
SET
	status = $3,
	requires_review = $4,
	decided_by = NULLIF($5, ''),
	decided_at = $6,
	rejection_reason = NULLIF($7, ''),
	updated_at = $8
WHERE submission_id = $1 AND status = $2
`, next.SubmissionID, string(expected), string(next.Status), next.RequiresReview, next.DecidedBy, next.DecidedAt,
		next.RejectionReason, next.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update moderation state: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var current string
	err = tx.QueryRow(ctx, `SELECT status FROM moderation_states WHERE submission_id = $1`, next.SubmissionID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ErrSubmissionNotFound
	}
	if err != nil {
		return fmt.Errorf("read moderation status: %w", err)
	}
	return fmt.Errorf("%w: status is %s, expected %s", model.ErrConcurrentModification, current, expected)
}

func scanModerated(row pgx.Row) (model.ModeratedSubmission, error) {
	var (
		item      model.ModeratedSubmission
		kind      string
		category  string
		urgency   string
		status    string
		decidedAt *time.Time
	)
	err := row.Scan(
		&item.Submission.ID,
		&kind,
		&item.Submission.AuthorID,
		&item.Submission.Title,
		&item.Submission.Description,
		&category,
		&urgency,
		&item.Submission.Latitude,
		&item.Submission.Longitude,
		&item.Submission.CreatedAt,
		&status,
		&item.Moderation.RequiresReview,
		&item.Moderation.DecidedBy,
		&decidedAt,
		&item.Moderation.RejectionReason,
		&item.Moderation.Confidence,
		&item.Moderation.FlaggedTerms,
		&item.Moderation.Suggestions,
		&item.Moderation.UpdatedAt,
	)
	if err != nil {
		return model.ModeratedSubmission{}, err
	}

	item.Submission.Kind = enums.ContentKind(kind)
	item.Submission.Category = enums.Category(category)
	item.Submission.Urgency = enums.Urgency(urgency)
	item.Moderation.SubmissionID = item.Submission.ID
	item.Moderation.Status = enums.ModerationStatus(status)
	item.Moderation.DecidedAt = decidedAt

	return item, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
