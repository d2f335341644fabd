package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ivankudzin/miraclemap/internal/domain/enums"
	"github.com/ivankudzin/miraclemap/internal/domain/model"
)

// Store keeps submissions, moderation state and the violation ledger in process.
// It is used by tests and when the API runs without postgres.
type Store struct {
	mu         sync.RWMutex
	byID       map[string]entry
	violations []model.ViolationRecord
	now        func() time.Time
}

type entry struct {
	item      model.ModeratedSubmission
	removedAt *time.Time
	seq       int
}

func NewStore() *Store {
	return &Store{
		byID: make(map[string]entry),
		now:  time.Now,
	}
}

func (s *Store) CreateSubmission(_ context.Context, sub model.Submission, state model.ModerationState) error {
	if strings.TrimSpace(sub.ID) == "" {
		return fmt.Errorf("%w: submission id is required", model.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[sub.ID]; exists {
		return fmt.Errorf("submission %s already exists", sub.ID)
	}
	state.SubmissionID = sub.ID
	s.byID[sub.ID] = entry{
		item: cloneItem(model.ModeratedSubmission{Submission: sub, Moderation: state}),
		seq:  len(s.byID),
	}
	return nil
}

func (s *Store) GetSubmission(_ context.Context, id string) (model.ModeratedSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.byID[id]
	if !ok {
		return model.ModeratedSubmission{}, model.ErrSubmissionNotFound
	}
	return cloneItem(e.item), nil
}

func (s *Store) UpdateModeration(_ context.Context, expected enums.ModerationStatus, next model.ModerationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.expect(next.SubmissionID, expected)
	if err != nil {
		return err
	}
	e.item.Moderation = cloneState(next)
	s.byID[next.SubmissionID] = e
	return nil
}

func (s *Store) RejectSubmission(_ context.Context, expected enums.ModerationStatus, next model.ModerationState, violation model.ViolationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.expect(next.SubmissionID, expected)
	if err != nil {
		return err
	}
	removedAt := s.now().UTC()
	e.item.Moderation = cloneState(next)
	e.removedAt = &removedAt
	s.byID[next.SubmissionID] = e
	s.violations = append(s.violations, violation)
	return nil
}

func (s *Store) ListPending(_ context.Context, kind enums.ContentKind, limit int) ([]model.ModeratedSubmission, error) {
	return s.list(func(e entry) bool {
		return e.item.Moderation.Status == enums.ModerationStatusPendingReview &&
			(kind == "" || e.item.Submission.Kind == kind)
	}, limit), nil
}

// ListPublished returns approved submissions that were not removed, newest first.
func (s *Store) ListPublished(_ context.Context, kind enums.ContentKind, limit int) ([]model.ModeratedSubmission, error) {
	return s.list(func(e entry) bool {
		return e.removedAt == nil &&
			e.item.Moderation.Status == enums.ModerationStatusApproved &&
			(kind == "" || e.item.Submission.Kind == kind)
	}, limit), nil
}

func (s *Store) AppendViolation(_ context.Context, rec model.ViolationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.violations = append(s.violations, rec)
	return nil
}

func (s *Store) ListViolations(_ context.Context, limit, offset int) ([]model.ViolationRecord, error) {
	return s.recentViolations(func(model.ViolationRecord) bool { return true }, limit, offset), nil
}

func (s *Store) ListViolationsByAuthor(_ context.Context, authorID string, limit int) ([]model.ViolationRecord, error) {
	return s.recentViolations(func(rec model.ViolationRecord) bool { return rec.AuthorID == authorID }, limit, 0), nil
}

func (s *Store) expect(id string, expected enums.ModerationStatus) (entry, error) {
	e, ok := s.byID[id]
	if !ok {
		return entry{}, model.ErrSubmissionNotFound
	}
	if e.item.Moderation.Status != expected {
		return entry{}, fmt.Errorf("%w: status is %s, expected %s", model.ErrConcurrentModification, e.item.Moderation.Status, expected)
	}
	return e, nil
}

func (s *Store) list(match func(entry) bool, limit int) []model.ModeratedSubmission {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]entry, 0)
	for _, e := range s.byID {
		if match(e) {
			matched = append(matched, e)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i].item.Submission.CreatedAt, matched[j].item.Submission.CreatedAt
		if a.Equal(b) {
			return matched[i].seq > matched[j].seq
		}
		return a.After(b)
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	items := make([]model.ModeratedSubmission, 0, len(matched))
	for _, e := range matched {
		items = append(items, cloneItem(e.item))
	}
	return items
}

func (s *Store) recentViolations(match func(model.ViolationRecord) bool, limit, offset int) []model.ViolationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.ViolationRecord, 0)
	skipped := 0
	for i := len(s.violations) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		if !match(s.violations[i]) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, s.violations[i])
	}
	return out
}

func cloneItem(item model.ModeratedSubmission) model.ModeratedSubmission {
	out := item
	if item.Submission.Latitude != nil {
		lat := *item.Submission.Latitude
		out.Submission.Latitude = &lat
	}
	if item.Submission.Longitude != nil {
		lng := *item.Submission.Longitude
		out.Submission.Longitude = &lng
	}
	out.Moderation = cloneState(item.Moderation)
	return out
}

func cloneState(state model.ModerationState) model.ModerationState {
	out := state
	if state.DecidedAt != nil {
		decided := *state.DecidedAt
		out.DecidedAt = &decided
	}
	out.FlaggedTerms = append([]string(nil), state.FlaggedTerms...)
	out.Suggestions = append([]string(nil), state.Suggestions...)
	return out
}
