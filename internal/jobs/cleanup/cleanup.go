package cleanup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const defaultRetention = 365 * 24 * time.Hour

type evidencePurger interface {
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// Job removes archived rejection evidence once it is past retention.
type Job struct {
	evidence  evidencePurger
	retention time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

func NewEvidenceCleanupJob(evidence evidencePurger, retention time.Duration, logger *zap.Logger) *Job {
	if retention <= 0 {
		retention = defaultRetention
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		evidence:  evidence,
		retention: retention,
		now:       time.Now,
		logger:    logger,
	}
}

func (j *Job) Run(ctx context.Context) error {
	if j.evidence == nil {
		return nil
	}

	cutoff := j.now().Add(-j.retention)
	deleted, err := j.evidence.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge rejected evidence: %w", err)
	}
	if deleted > 0 {
		j.logger.Info("cleanup rejected evidence completed", zap.Int("deleted", deleted), zap.Time("cutoff", cutoff))
	}
	return nil
}

// Loop runs the job every interval until ctx is done.
func (j *Job) Loop(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	if err := j.Run(ctx); err != nil {
		j.logger.Warn("cleanup job failed", zap.Error(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Warn("cleanup job failed", zap.Error(err))
			}
		}
	}
}
