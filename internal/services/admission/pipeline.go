package admission

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ivankudzin/miraclemap/internal/domain/enums"
	"github.com/ivankudzin/miraclemap/internal/domain/model"
	"github.com/ivankudzin/miraclemap/internal/infra/metrics"
	"github.com/ivankudzin/miraclemap/internal/services/contentfilter"
	"github.com/ivankudzin/miraclemap/internal/services/rate"
)

const notifyTimeout = 5 * time.Second

var (
	ErrValidation             = model.ErrValidation
	ErrClassificationDegraded = model.ErrClassificationDegraded
	ErrRateLimited            = errors.New("rate limited")
)

// RateLimitError carries the wait time of a refused request.
type RateLimitError struct {
	RetryAfterSec int64
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %ds", e.RetryAfterSec)
}

func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

type Classifier interface {
	ClassifySubmission(title, description string) contentfilter.Verdict
	LexiconVersion() string
}

type Store interface {
	CreateSubmission(ctx context.Context, sub model.Submission, state model.ModerationState) error
}

type Limiter interface {
	Allow(ctx context.Context, scope rate.Scope, authorID string) (int64, bool, error)
	RetryAfter(ctx context.Context, scope rate.Scope, authorID string) (int64, error)
}

// Quota is how long an author has to wait per scope. Zero means the next
// action is allowed.
type Quota struct {
	AuthorID             string `json:"author_id"`
	SubmitRetryAfterSec  int64  `json:"submit_retry_after_sec"`
	PreviewRetryAfterSec int64  `json:"preview_retry_after_sec"`
}

// Notifier tells moderators about new pending items.
type Notifier interface {
	NotifyPending(ctx context.Context, item model.ModeratedSubmission) error
}

type VerdictCache interface {
	GetVerdict(ctx context.Context, key string) (contentfilter.Verdict, bool, error)
	SetVerdict(ctx context.Context, key string, verdict contentfilter.Verdict, ttl time.Duration) error
}

type Config struct {
	// ReviewBelowConfidence sends appropriate content to review when its
	// confidence is lower. Zero keeps review coupled to the verdict alone.
	ReviewBelowConfidence int
	PreviewCacheTTL       time.Duration
}

// Result is the outcome of one admission. Violation is always nil: admission
// never writes to the ledger.
type Result struct {
	Submission model.Submission       `json:"submission"`
	State      model.ModerationState  `json:"moderation"`
	Verdict    contentfilter.Verdict  `json:"verdict"`
	Violation  *model.ViolationRecord `json:"violation,omitempty"`
}

type Pipeline struct {
	classifier Classifier
	store      Store
	limiter    Limiter
	notifier   Notifier
	cache      VerdictCache
	metrics    *metrics.Metrics
	cfg        Config
	log        *zap.Logger
	now        func() time.Time
	newID      func() string
}

func NewPipeline(classifier Classifier, store Store, cfg Config, log *zap.Logger) *Pipeline {
	if classifier == nil {
		classifier = contentfilter.NewClassifier(nil)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		classifier: classifier,
		store:      store,
		cfg:        cfg,
		log:        log,
		now:        time.Now,
		newID:      func() string { return uuid.NewString() },
	}
}

func (p *Pipeline) WithLimiter(limiter Limiter) *Pipeline {
	p.limiter = limiter
	return p
}

func (p *Pipeline) WithNotifier(notifier Notifier) *Pipeline {
	p.notifier = notifier
	return p
}

func (p *Pipeline) WithVerdictCache(cache VerdictCache) *Pipeline {
	p.cache = cache
	return p
}

func (p *Pipeline) WithMetrics(m *metrics.Metrics) *Pipeline {
	p.metrics = m
	return p
}

// Admit classifies a submission, decides its initial moderation state and
// persists both. Exactly one state is produced per successful call.
func (p *Pipeline) Admit(ctx context.Context, sub model.Submission) (Result, error) {
	sub, err := p.normalize(sub)
	if err != nil {
		return Result{}, err
	}
	if p.store == nil {
		return Result{}, fmt.Errorf("submission store is not configured")
	}

	if err := p.allow(ctx, rate.ScopeSubmit, sub.AuthorID); err != nil {
		return Result{}, err
	}

	verdict := p.classify(sub.ID, sub.Title, sub.Description)
	state := p.decide(sub.ID, verdict)

	if err := p.store.CreateSubmission(ctx, sub, state); err != nil {
		return Result{}, fmt.Errorf("persist submission: %w", err)
	}

	p.metrics.ObserveAdmission(string(sub.Kind), string(state.Status))
	p.log.Info("submission admitted",
		zap.String("submission_id", sub.ID),
		zap.String("kind", string(sub.Kind)),
		zap.String("status", string(state.Status)),
		zap.Int("confidence", verdict.Confidence),
	)

	if state.Status == enums.ModerationStatusPendingReview {
		p.notifyPending(ctx, model.ModeratedSubmission{Submission: sub, Moderation: state})
	}

	return Result{Submission: sub, State: state, Verdict: verdict}, nil
}

// Preview classifies text for live feedback. It never persists state.
func (p *Pipeline) Preview(ctx context.Context, authorID, title, description string) (contentfilter.Verdict, error) {
	if authorID = strings.TrimSpace(authorID); authorID != "" {
		if err := p.allow(ctx, rate.ScopePreview, authorID); err != nil {
			return contentfilter.Verdict{}, err
		}
	}

	key := CacheKey(p.classifier.LexiconVersion(), title, description)
	if p.cache != nil {
		cached, ok, err := p.cache.GetVerdict(ctx, key)
		if err != nil {
			p.log.Warn("verdict cache read failed", zap.Error(err))
		}
		if ok {
			p.metrics.ObservePreview(true)
			return cached, nil
		}
	}

	verdict := p.classify("", title, description)
	p.metrics.ObservePreview(false)

	if p.cache != nil && p.cfg.PreviewCacheTTL > 0 {
		if err := p.cache.SetVerdict(ctx, key, verdict, p.cfg.PreviewCacheTTL); err != nil {
			p.log.Warn("verdict cache write failed", zap.Error(err))
		}
	}

	return verdict, nil
}

// CacheKey identifies a verdict by lexicon version and classified text.
func CacheKey(lexiconVersion, title, description string) string {
	sum := sha256.Sum256([]byte(lexiconVersion + "\x00" + title + " " + description))
	return hex.EncodeToString(sum[:])
}

func (p *Pipeline) normalize(sub model.Submission) (model.Submission, error) {
	if !sub.Kind.Valid() {
		return model.Submission{}, fmt.Errorf("%w: content kind is required", ErrValidation)
	}
	sub.AuthorID = strings.TrimSpace(sub.AuthorID)
	if sub.AuthorID == "" {
		return model.Submission{}, fmt.Errorf("%w: author id is required", ErrValidation)
	}

	category, err := enums.ParseCategory(sub.Kind, string(sub.Category))
	if err != nil {
		return model.Submission{}, fmt.Errorf("%w: category %q is not valid for %s", ErrValidation, sub.Category, sub.Kind)
	}
	sub.Category = category

	if sub.Kind == enums.ContentKindRequest {
		urgency, err := enums.ParseUrgency(string(sub.Urgency))
		if err != nil {
			return model.Submission{}, fmt.Errorf("%w: unknown urgency %q", ErrValidation, sub.Urgency)
		}
		sub.Urgency = urgency
	} else {
		sub.Urgency = ""
	}

	if strings.TrimSpace(sub.ID) == "" {
		sub.ID = p.newID()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = p.now().UTC()
	}
	return sub, nil
}

// Quota reports the author's remaining wait without counting an action.
func (p *Pipeline) Quota(ctx context.Context, authorID string) (Quota, error) {
	authorID = strings.TrimSpace(authorID)
	if authorID == "" {
		return Quota{}, fmt.Errorf("%w: author_id is required", model.ErrValidation)
	}
	return Quota{
		AuthorID:             authorID,
		SubmitRetryAfterSec:  p.retryAfter(ctx, rate.ScopeSubmit, authorID),
		PreviewRetryAfterSec: p.retryAfter(ctx, rate.ScopePreview, authorID),
	}, nil
}

func (p *Pipeline) retryAfter(ctx context.Context, scope rate.Scope, authorID string) int64 {
	if p.limiter == nil {
		return 0
	}
	sec, err := p.limiter.RetryAfter(ctx, scope, authorID)
	if err != nil {
		p.log.Warn("rate limit lookup failed, reporting no wait",
			zap.String("scope", string(scope)),
			zap.String("author_id", authorID),
			zap.Error(err),
		)
		return 0
	}
	return sec
}

func (p *Pipeline) allow(ctx context.Context, scope rate.Scope, authorID string) error {
	if p.limiter == nil {
		return nil
	}
	retryAfter, allowed, err := p.limiter.Allow(ctx, scope, authorID)
	if err != nil {
		// an unreachable counter store must not block submissions
		p.log.Warn("rate limit check failed, allowing",
			zap.String("scope", string(scope)),
			zap.String("author_id", authorID),
			zap.Error(err),
		)
		return nil
	}
	if !allowed {
		p.metrics.ObserveRateLimited(string(scope))
		return &RateLimitError{RetryAfterSec: retryAfter}
	}
	return nil
}

// classify never fails: a classifier fault yields the open verdict.
func (p *Pipeline) classify(submissionID, title, description string) contentfilter.Verdict {
	started := p.now()
	verdict, err := p.safeClassify(title, description)
	p.metrics.ObserveClassifyDuration(p.now().Sub(started).Seconds())
	if err != nil {
		p.metrics.ObserveClassificationFault()
		p.log.Error("classification degraded, admitting open",
			zap.String("submission_id", submissionID),
			zap.Error(err),
		)
		return contentfilter.OpenVerdict(p.classifier.LexiconVersion())
	}
	return verdict
}

func (p *Pipeline) safeClassify(title, description string) (verdict contentfilter.Verdict, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrClassificationDegraded, r)
		}
	}()
	return p.classifier.ClassifySubmission(title, description), nil
}

func (p *Pipeline) decide(submissionID string, verdict contentfilter.Verdict) model.ModerationState {
	now := p.now().UTC()
	state := model.ModerationState{
		SubmissionID: submissionID,
		Confidence:   verdict.Confidence,
		FlaggedTerms: append([]string(nil), verdict.FlaggedTerms...),
		Suggestions:  append([]string(nil), verdict.Suggestions...),
		UpdatedAt:    now,
	}

	lowConfidence := p.cfg.ReviewBelowConfidence > 0 && verdict.Confidence < p.cfg.ReviewBelowConfidence
	if verdict.IsAppropriate && !verdict.RequiresReview && !lowConfidence {
		state.Status = enums.ModerationStatusApproved
		state.DecidedBy = model.SystemActor
		state.DecidedAt = &now
		return state
	}

	state.Status = enums.ModerationStatusPendingReview
	state.RequiresReview = true
	return state
}

func (p *Pipeline) notifyPending(ctx context.Context, item model.ModeratedSubmission) {
	if p.notifier == nil {
		return
	}
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if err := p.notifier.NotifyPending(notifyCtx, item); err != nil {
		p.log.Warn("notify pending submission failed",
			zap.String("submission_id", item.Submission.ID),
			zap.Error(err),
		)
	}
}
