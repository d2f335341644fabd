package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ivankudzin/miraclemap/internal/services/contentfilter"
)

const verdictKeyPrefix = "verdict:"

// VerdictCache stores live-validation verdicts keyed by text hash and lexicon version.
type VerdictCache struct {
	client *goredis.Client
}

func NewVerdictCache(client *goredis.Client) *VerdictCache {
	return &VerdictCache{client: client}
}

func (c *VerdictCache) GetVerdict(ctx context.Context, key string) (contentfilter.Verdict, bool, error) {
	if c.client == nil {
		return contentfilter.Verdict{}, false, fmt.Errorf("redis client is nil")
	}

	raw, err := c.client.Get(ctx, verdictKeyPrefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return contentfilter.Verdict{}, false, nil
	}
	if err != nil {
		return contentfilter.Verdict{}, false, fmt.Errorf("get cached verdict: %w", err)
	}

	var verdict contentfilter.Verdict
	if err := json.Unmarshal(raw, &verdict); err != nil {
		return contentfilter.Verdict{}, false, fmt.Errorf("decode cached verdict: %w", err)
	}
	return verdict, true, nil
}

func (c *VerdictCache) SetVerdict(ctx context.Context, key string, verdict contentfilter.Verdict, ttl time.Duration) error {
	if c.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if ttl <= 0 {
		return nil
	}

	raw, err := json.Marshal(verdict)
	if err != nil {
		return fmt.Errorf("encode verdict: %w", err)
	}
	if err := c.client.Set(ctx, verdictKeyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache verdict: %w", err)
	}
	return nil
}
