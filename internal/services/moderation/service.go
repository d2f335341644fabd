package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ivankudzin/miraclemap/internal/domain/enums"
	"github.com/ivankudzin/miraclemap/internal/domain/model"
	"github.com/ivankudzin/miraclemap/internal/infra/metrics"
)

const (
	defaultPendingLimit = 50
	maxPendingLimit     = 200
)

var (
	ErrValidation             = model.ErrValidation
	ErrSubmissionNotFound     = model.ErrSubmissionNotFound
	ErrInvalidStateTransition = model.ErrInvalidStateTransition
	ErrConcurrentModification = model.ErrConcurrentModification

	ErrReasonRequired    = fmt.Errorf("%w: rejection reason is required", model.ErrValidation)
	ErrInvalidReasonCode = fmt.Errorf("%w: unknown reject reason code", model.ErrValidation)
	ErrInvalidActor      = fmt.Errorf("%w: moderator actor is required", model.ErrValidation)
)

// Store persists moderation state. Conditional writes must fail with
// model.ErrConcurrentModification when the stored status differs from expected.
type Store interface {
	GetSubmission(ctx context.Context, id string) (model.ModeratedSubmission, error)
	UpdateModeration(ctx context.Context, expected enums.ModerationStatus, next model.ModerationState) error
	// RejectSubmission applies the rejected state, appends the violation and removes
	// the submission from the public set in one step.
	RejectSubmission(ctx context.Context, expected enums.ModerationStatus, next model.ModerationState, violation model.ViolationRecord) error
	ListPending(ctx context.Context, kind enums.ContentKind, limit int) ([]model.ModeratedSubmission, error)
}

// EvidenceArchiver snapshots a submission before its content is removed.
type EvidenceArchiver interface {
	ArchiveRejected(ctx context.Context, item model.ModeratedSubmission, reason string) (string, error)
}

type RejectRequest struct {
	Reason     string
	ReasonCode string
	ActorID    string
}

type Service struct {
	store   Store
	archive EvidenceArchiver
	metrics *metrics.Metrics
	log     *zap.Logger
	now     func() time.Time
	newID   func() string
}

func NewService(store Store, archive EvidenceArchiver, m *metrics.Metrics, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:   store,
		archive: archive,
		metrics: m,
		log:     log,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

func (s *Service) Get(ctx context.Context, id string) (model.ModeratedSubmission, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.ModeratedSubmission{}, fmt.Errorf("%w: submission id is required", ErrValidation)
	}
	if s.store == nil {
		return model.ModeratedSubmission{}, fmt.Errorf("moderation store is not configured")
	}
	return s.store.GetSubmission(ctx, id)
}

func (s *Service) ListPending(ctx context.Context, kind enums.ContentKind, limit int) ([]model.ModeratedSubmission, error) {
	if kind != "" && !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown content kind %q", ErrValidation, kind)
	}
	if s.store == nil {
		return nil, fmt.Errorf("moderation store is not configured")
	}
	if limit <= 0 {
		limit = defaultPendingLimit
	}
	if limit > maxPendingLimit {
		limit = maxPendingLimit
	}
	return s.store.ListPending(ctx, kind, limit)
}

// Approve moves a pending submission to approved. Approving an already approved
// submission returns its current state unchanged.
func (s *Service) Approve(ctx context.Context, id string, actorID string) (model.ModerationState, error) {
	actorID, err := validateActor(actorID)
	if err != nil {
		return model.ModerationState{}, err
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return model.ModerationState{}, err
	}

	switch current.Moderation.Status {
	case enums.ModerationStatusApproved:
		return current.Moderation, nil
	case enums.ModerationStatusPendingReview:
	default:
		return model.ModerationState{}, fmt.Errorf("%w: cannot approve %s submission", ErrInvalidStateTransition, current.Moderation.Status)
	}

	now := s.now().UTC()
	next := current.Moderation
	next.Status = enums.ModerationStatusApproved
	next.DecidedBy = actorID
	next.DecidedAt = &now
	next.RejectionReason = ""
	next.UpdatedAt = now

	if err := s.store.UpdateModeration(ctx, enums.ModerationStatusPendingReview, next); err != nil {
		return model.ModerationState{}, fmt.Errorf("approve submission %s: %w", current.Submission.ID, err)
	}

	s.metrics.ObserveDecision(string(next.Status))
	s.log.Info("submission approved",
		zap.String("submission_id", current.Submission.ID),
		zap.String("actor_id", actorID),
	)

	return next, nil
}

// Reject moves a pending submission to rejected and appends a manual_rejection
// violation. Nothing is written when validation fails.
func (s *Service) Reject(ctx context.Context, id string, req RejectRequest) (model.ModerationState, model.ViolationRecord, error) {
	reason, reasonCode, err := resolveReason(req.Reason, req.ReasonCode)
	if err != nil {
		return model.ModerationState{}, model.ViolationRecord{}, err
	}
	actorID, err := validateActor(req.ActorID)
	if err != nil {
		return model.ModerationState{}, model.ViolationRecord{}, err
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return model.ModerationState{}, model.ViolationRecord{}, err
	}
	if current.Moderation.Status != enums.ModerationStatusPendingReview {
		return model.ModerationState{}, model.ViolationRecord{}, fmt.Errorf("%w: cannot reject %s submission", ErrInvalidStateTransition, current.Moderation.Status)
	}

	now := s.now().UTC()
	next := current.Moderation
	next.Status = enums.ModerationStatusRejected
	next.DecidedBy = actorID
	next.DecidedAt = &now
	next.RejectionReason = reason
	next.UpdatedAt = now

	violation := model.ViolationRecord{
		ID:             s.newID(),
		SubmissionID:   current.Submission.ID,
		Kind:           current.Submission.Kind,
		ViolationType:  enums.ViolationTypeManualRejection,
		FlaggedContent: reason,
		AuthorID:       current.Submission.AuthorID,
		ActorID:        actorID,
		ReasonCode:     reasonCode,
		CreatedAt:      now,
	}

	if err := s.store.RejectSubmission(ctx, enums.ModerationStatusPendingReview, next, violation); err != nil {
		return model.ModerationState{}, model.ViolationRecord{}, fmt.Errorf("reject submission %s: %w", current.Submission.ID, err)
	}

	s.archiveRejected(ctx, model.ModeratedSubmission{Submission: current.Submission, Moderation: next}, reason)

	s.metrics.ObserveDecision(string(next.Status))
	s.metrics.ObserveViolation(string(violation.ViolationType), string(violation.Kind))
	s.log.Info("submission rejected",
		zap.String("submission_id", current.Submission.ID),
		zap.String("actor_id", actorID),
		zap.String("reason_code", reasonCode),
	)

	return next, violation, nil
}

// archiveRejected snapshots an item whose rejection has already committed.
// Failures are logged only: the ledger entry holds the final values.
func (s *Service) archiveRejected(ctx context.Context, item model.ModeratedSubmission, reason string) {
	if s.archive == nil {
		return
	}
	key, err := s.archive.ArchiveRejected(ctx, item, reason)
	if err != nil {
		s.log.Warn("archive rejected submission failed",
			zap.String("submission_id", item.Submission.ID),
			zap.Error(err),
		)
		return
	}
	s.log.Debug("rejected submission archived",
		zap.String("submission_id", item.Submission.ID),
		zap.String("object_key", key),
	)
}

func validateActor(actorID string) (string, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return "", ErrInvalidActor
	}
	if strings.EqualFold(actorID, model.SystemActor) {
		return "", fmt.Errorf("%w: %s may not decide manually", ErrValidation, model.SystemActor)
	}
	return actorID, nil
}

// IsConflict reports whether err means the caller raced another decision or hit a
// terminal state.
func IsConflict(err error) bool {
	return errors.Is(err, ErrInvalidStateTransition) || errors.Is(err, ErrConcurrentModification)
}
