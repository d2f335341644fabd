package evidence

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ivankudzin/miraclemap/internal/domain/model"
)

const rejectedPrefix = "rejected/"

type ObjectInfo struct {
	Key          string
	LastModified time.Time
	Size         int64
}

type ObjectStore interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string) error
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	DeleteObject(ctx context.Context, key string) error
}

// Snapshot is what gets written for a rejected submission before its content is removed.
type Snapshot struct {
	Submission model.Submission      `json:"submission"`
	Moderation model.ModerationState `json:"moderation"`
	Reason     string                `json:"reason"`
	ArchivedAt time.Time             `json:"archived_at"`
}

type Archive struct {
	store ObjectStore
	now   func() time.Time
	log   *zap.Logger
}

func NewArchive(store ObjectStore, log *zap.Logger) *Archive {
	if log == nil {
		log = zap.NewNop()
	}
	return &Archive{store: store, now: time.Now, log: log}
}

func (a *Archive) ArchiveRejected(ctx context.Context, item model.ModeratedSubmission, reason string) (string, error) {
	if a.store == nil {
		return "", fmt.Errorf("evidence store is not configured")
	}
	if strings.TrimSpace(item.Submission.ID) == "" {
		return "", fmt.Errorf("submission id is required")
	}

	now := a.now().UTC()
	body, err := json.Marshal(Snapshot{
		Submission: item.Submission,
		Moderation: item.Moderation,
		Reason:     reason,
		ArchivedAt: now,
	})
	if err != nil {
		return "", fmt.Errorf("encode evidence snapshot: %w", err)
	}

	key := ObjectKey(item.Submission.ID, now)
	if err := a.store.PutObject(ctx, key, body, "application/json"); err != nil {
		return "", fmt.Errorf("store evidence snapshot: %w", err)
	}
	return key, nil
}

// PurgeOlderThan deletes snapshots archived before cutoff and returns how many were removed.
func (a *Archive) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	if a.store == nil {
		return 0, nil
	}

	objects, err := a.store.ListObjects(ctx, rejectedPrefix)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, obj := range objects {
		if !obj.LastModified.Before(cutoff) {
			continue
		}
		if err := a.store.DeleteObject(ctx, obj.Key); err != nil {
			a.log.Warn("failed to delete evidence object", zap.Error(err), zap.String("object_key", obj.Key))
			continue
		}
		deleted++
	}
	return deleted, nil
}

func ObjectKey(submissionID string, at time.Time) string {
	return path.Join(rejectedPrefix+at.UTC().Format("2006/01/02"), submissionID+".json")
}
