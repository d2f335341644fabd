//go:build integration

package postgres

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/ivankudzin/miraclemap/internal/domain/enums"
	"github.com/ivankudzin/miraclemap/internal/domain/model"
)

// Run with: TEST_POSTGRES_DSN=postgres://... go test -tags integration ./internal/repo/postgres/
func newIntegrationPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN is not set")
	}

	ctx := context.Background()
	pool, err := NewPool(ctx, dsn, 4)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, file, _, _ := runtime.Caller(0)
	migration, err := os.ReadFile(filepath.Join(filepath.Dir(file), "..", "..", "..", "migrations", "0001_moderation.sql"))
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(migration))
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `TRUNCATE violations, moderation_states, submissions`)
	require.NoError(t, err)

	return pool
}

func seedSubmission(t *testing.T, repo *SubmissionRepo, status enums.ModerationStatus, createdAt time.Time) model.Submission {
	t.Helper()

	sub := model.Submission{
		ID:          uuid.NewString(),
		Kind:        enums.ContentKindPrimary,
		AuthorID:    "author-1",
		Title:       "A small miracle",
		Description: "A stranger returned my lost wallet.",
		Category:    enums.CategoryKindness,
		CreatedAt:   createdAt,
	}
	state := model.ModerationState{
		SubmissionID:   sub.ID,
		Status:         status,
		RequiresReview: status == enums.ModerationStatusPendingReview,
		Confidence:     100,
		UpdatedAt:      createdAt,
	}
	require.NoError(t, repo.CreateSubmission(context.Background(), sub, state))
	return sub
}

func TestSubmissionRepoRoundTrip(t *testing.T) {
	pool := newIntegrationPool(t)
	repo := NewSubmissionRepo(pool)
	ctx := context.Background()

	createdAt := time.Now().UTC().Truncate(time.Microsecond)
	sub := seedSubmission(t, repo, enums.ModerationStatusPendingReview, createdAt)

	got, err := repo.GetSubmission(ctx, sub.ID)
	require.NoError(t, err)
	require.Equal(t, sub.ID, got.Submission.ID)
	require.Equal(t, enums.ModerationStatusPendingReview, got.Moderation.Status)
	require.True(t, got.Moderation.RequiresReview)
	require.Empty(t, got.Submission.Urgency)
	require.Nil(t, got.Submission.Latitude)

	_, err = repo.GetSubmission(ctx, uuid.NewString())
	require.ErrorIs(t, err, model.ErrSubmissionNotFound)

	_, err = repo.GetSubmission(ctx, "not-a-uuid")
	require.ErrorIs(t, err, model.ErrSubmissionNotFound)
}

func TestUpdateModerationIsConditionalOnStatus(t *testing.T) {
	pool := newIntegrationPool(t)
	repo := NewSubmissionRepo(pool)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	sub := seedSubmission(t, repo, enums.ModerationStatusPendingReview, now)

	approved := model.ModerationState{
		SubmissionID: sub.ID,
		Status:       enums.ModerationStatusApproved,
		DecidedBy:    "mod-1",
		DecidedAt:    &now,
		Confidence:   100,
		UpdatedAt:    now,
	}
	require.NoError(t, repo.UpdateModeration(ctx, enums.ModerationStatusPendingReview, approved))

	// A second decision that still expects pending_review lost the race.
	err := repo.UpdateModeration(ctx, enums.ModerationStatusPendingReview, approved)
	require.ErrorIs(t, err, model.ErrConcurrentModification)

	missing := approved
	missing.SubmissionID = uuid.NewString()
	err = repo.UpdateModeration(ctx, enums.ModerationStatusPendingReview, missing)
	require.ErrorIs(t, err, model.ErrSubmissionNotFound)

	got, err := repo.GetSubmission(ctx, sub.ID)
	require.NoError(t, err)
	require.Equal(t, enums.ModerationStatusApproved, got.Moderation.Status)
	require.Equal(t, "mod-1", got.Moderation.DecidedBy)
	require.NotNil(t, got.Moderation.DecidedAt)
}

func TestRejectSubmissionRemovesAndRecordsViolation(t *testing.T) {
	pool := newIntegrationPool(t)
	subs := NewSubmissionRepo(pool)
	violations := NewViolationRepo(pool)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	kept := seedSubmission(t, subs, enums.ModerationStatusApproved, now.Add(-time.Minute))
	rejected := seedSubmission(t, subs, enums.ModerationStatusApproved, now)

	next := model.ModerationState{
		SubmissionID:    rejected.ID,
		Status:          enums.ModerationStatusRejected,
		DecidedBy:       "mod-1",
		DecidedAt:       &now,
		RejectionReason: "spam",
		Confidence:      100,
		UpdatedAt:       now,
	}
	rec := model.ViolationRecord{
		ID:             uuid.NewString(),
		SubmissionID:   rejected.ID,
		Kind:           rejected.Kind,
		ViolationType:  enums.ViolationTypeManualRejection,
		FlaggedContent: rejected.Title,
		AuthorID:       rejected.AuthorID,
		ActorID:        "mod-1",
		ReasonCode:     "spam",
		CreatedAt:      now,
	}

	// Stale expectation: nothing is written, not even the ledger entry.
	err := subs.RejectSubmission(ctx, enums.ModerationStatusPendingReview, next, rec)
	require.ErrorIs(t, err, model.ErrConcurrentModification)
	ledger, err := violations.ListViolations(ctx, 10, 0)
	require.NoError(t, err)
	require.Empty(t, ledger)

	require.NoError(t, subs.RejectSubmission(ctx, enums.ModerationStatusApproved, next, rec))

	published, err := subs.ListPublished(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, published, 1)
	require.Equal(t, kept.ID, published[0].Submission.ID)

	ledger, err = violations.ListViolations(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	require.Equal(t, rec.ID, ledger[0].ID)
	require.Equal(t, "spam", ledger[0].ReasonCode)
}

func TestListViolationsPagesNewestFirst(t *testing.T) {
	pool := newIntegrationPool(t)
	repo := NewViolationRepo(pool)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Microsecond)
	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		rec := model.ViolationRecord{
			ID:             uuid.NewString(),
			SubmissionID:   uuid.NewString(),
			Kind:           enums.ContentKindRequest,
			ViolationType:  enums.ViolationTypeLexiconMatch,
			FlaggedContent: "bad words",
			AuthorID:       "author-2",
			CreatedAt:      base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, repo.AppendViolation(ctx, rec))
		ids = append(ids, rec.ID)
	}

	first, err := repo.ListViolations(ctx, 2, 0)
	require.NoError(t, err)
	second, err := repo.ListViolations(ctx, 2, 2)
	require.NoError(t, err)
	tail, err := repo.ListViolations(ctx, 2, 4)
	require.NoError(t, err)

	got := make([]string, 0, 5)
	for _, page := range [][]model.ViolationRecord{first, second, tail} {
		for _, rec := range page {
			got = append(got, rec.ID)
		}
	}
	require.Equal(t, []string{ids[4], ids[3], ids[2], ids[1], ids[0]}, got)

	byAuthor, err := repo.ListViolationsByAuthor(ctx, "author-2", 10)
	require.NoError(t, err)
	require.Len(t, byAuthor, 5)

	past, err := repo.ListViolations(ctx, 2, 10)
	require.NoError(t, err)
	require.Empty(t, past)
}
