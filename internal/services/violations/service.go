package violations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ivankudzin/miraclemap/internal/domain/enums"
	"github.com/ivankudzin/miraclemap/internal/domain/model"
	"github.com/ivankudzin/miraclemap/internal/infra/metrics"
)

const (
	MaxRecentLimit     = 500
	DefaultStatsWindow = 100
	StatsSampleSize    = 10
)

// Store is the append-only ledger. List calls return newest first.
type Store interface {
	AppendViolation(ctx context.Context, rec model.ViolationRecord) error
	ListViolations(ctx context.Context, limit, offset int) ([]model.ViolationRecord, error)
	ListViolationsByAuthor(ctx context.Context, authorID string, limit int) ([]model.ViolationRecord, error)
}

type Service struct {
	store       Store
	metrics     *metrics.Metrics
	statsWindow int
	now         func() time.Time
}

func NewService(store Store, m *metrics.Metrics, statsWindow int) *Service {
	if statsWindow <= 0 {
		statsWindow = DefaultStatsWindow
	}
	return &Service{
		store:       store,
		metrics:     m,
		statsWindow: statsWindow,
		now:         time.Now,
	}
}

func (s *Service) Record(ctx context.Context, rec model.ViolationRecord) (model.ViolationRecord, error) {
	if strings.TrimSpace(rec.SubmissionID) == "" {
		return model.ViolationRecord{}, fmt.Errorf("%w: submission id is required", model.ErrValidation)
	}
	if !rec.Kind.Valid() {
		return model.ViolationRecord{}, fmt.Errorf("%w: unknown content kind %q", model.ErrValidation, rec.Kind)
	}
	if !rec.ViolationType.Valid() {
		return model.ViolationRecord{}, fmt.Errorf("%w: unknown violation type %q", model.ErrValidation, rec.ViolationType)
	}
	if s.store == nil {
		return model.ViolationRecord{}, fmt.Errorf("violation store is not configured")
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now().UTC()
	}

	if err := s.store.AppendViolation(ctx, rec); err != nil {
		return model.ViolationRecord{}, fmt.Errorf("append violation: %w", err)
	}
	s.metrics.ObserveViolation(string(rec.ViolationType), string(rec.Kind))

	return rec, nil
}

// Recent pages the ledger newest first. A non-positive limit means the stats
// window, so Recent(ctx, w, 0) always holds the records Stats(ctx, w) counts.
func (s *Service) Recent(ctx context.Context, limit, offset int) ([]model.ViolationRecord, error) {
	if offset < 0 {
		return nil, fmt.Errorf("%w: offset must not be negative", model.ErrValidation)
	}
	if s.store == nil {
		return nil, fmt.Errorf("violation store is not configured")
	}
	return s.store.ListViolations(ctx, s.clampLimit(limit), offset)
}

func (s *Service) ByAuthor(ctx context.Context, authorID string, limit int) ([]model.ViolationRecord, error) {
	authorID = strings.TrimSpace(authorID)
	if authorID == "" {
		return nil, fmt.Errorf("%w: author id is required", model.ErrValidation)
	}
	if s.store == nil {
		return nil, fmt.Errorf("violation store is not configured")
	}
	return s.store.ListViolationsByAuthor(ctx, authorID, s.clampLimit(limit))
}

// Stats aggregates the most recent windowLimit records. It is recomputed on every
// call; nothing is kept between calls.
func (s *Service) Stats(ctx context.Context, windowLimit int) (model.ViolationStats, error) {
	if s.store == nil {
		return model.ViolationStats{}, fmt.Errorf("violation store is not configured")
	}

	records, err := s.store.ListViolations(ctx, s.clampLimit(windowLimit), 0)
	if err != nil {
		return model.ViolationStats{}, fmt.Errorf("list violations: %w", err)
	}

	return Aggregate(records), nil
}

// Aggregate computes stats over records that are already ordered newest first.
func Aggregate(records []model.ViolationRecord) model.ViolationStats {
	stats := model.ViolationStats{
		Total:           len(records),
		ByViolationType: make(map[enums.ViolationType]int),
		ByContentKind:   make(map[enums.ContentKind]int),
	}
	for _, rec := range records {
		stats.ByViolationType[rec.ViolationType]++
		stats.ByContentKind[rec.Kind]++
	}

	sample := len(records)
	if sample > StatsSampleSize {
		sample = StatsSampleSize
	}
	stats.Recent = append(make([]model.ViolationRecord, 0, sample), records[:sample]...)

	return stats
}

func (s *Service) clampLimit(limit int) int {
	if limit <= 0 {
		limit = s.statsWindow
	}
	if limit > MaxRecentLimit {
		return MaxRecentLimit
	}
	return limit
}
