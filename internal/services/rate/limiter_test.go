package rate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	redrepo "github.com/ivankudzin/miraclemap/internal/repo/redis"
)

func TestLimiterBlocksOnShortWindow(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	limiter := NewLimiter(redrepo.NewWindowRepo(client), map[Scope][]Rule{
		ScopeSubmit: {{Window: time.Hour, Limit: 100}, {Window: 10 * time.Second, Limit: 2}},
	})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		retryAfter, allowed, err := limiter.Allow(ctx, ScopeSubmit, "author-42")
		if err != nil {
			t.Fatalf("allow #%d: %v", i+1, err)
		}
		if !allowed || retryAfter != 0 {
			t.Fatalf("unexpected result on allow #%d: allowed=%v retry_after=%d", i+1, allowed, retryAfter)
		}
	}

	retryAfter, allowed, err := limiter.Allow(ctx, ScopeSubmit, "author-42")
	if err != nil {
		t.Fatalf("allow #3: %v", err)
	}
	if allowed || retryAfter <= 0 || retryAfter > 10 {
		t.Fatalf("expected block within 10s window: allowed=%v retry_after=%d", allowed, retryAfter)
	}

	currentRetry, err := limiter.RetryAfter(ctx, ScopeSubmit, "author-42")
	if err != nil {
		t.Fatalf("retry_after state: %v", err)
	}
	if currentRetry <= 0 {
		t.Fatalf("expected positive retry_after state, got %d", currentRetry)
	}

	mr.FastForward(11 * time.Second)

	retryAfter, allowed, err = limiter.Allow(ctx, ScopeSubmit, "author-42")
	if err != nil {
		t.Fatalf("allow after window: %v", err)
	}
	if !allowed || retryAfter != 0 {
		t.Fatalf("unexpected result after fast forward: allowed=%v retry_after=%d", allowed, retryAfter)
	}
}

func TestLimiterScopesAndAuthorsAreIndependent(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	limiter := NewLimiter(redrepo.NewWindowRepo(client), map[Scope][]Rule{
		ScopeSubmit:  {{Window: time.Minute, Limit: 1}},
		ScopePreview: {{Window: time.Minute, Limit: 5}},
	})
	ctx := context.Background()

	if _, allowed, _ := limiter.Allow(ctx, ScopeSubmit, "a"); !allowed {
		t.Fatalf("first submit must pass")
	}
	if _, allowed, _ := limiter.Allow(ctx, ScopeSubmit, "a"); allowed {
		t.Fatalf("second submit must be limited")
	}
	if _, allowed, _ := limiter.Allow(ctx, ScopeSubmit, "b"); !allowed {
		t.Fatalf("other author must not share the window")
	}
	if _, allowed, _ := limiter.Allow(ctx, ScopePreview, "a"); !allowed {
		t.Fatalf("preview scope must not share the submit window")
	}
}

func TestLimiterWithoutRulesAllows(t *testing.T) {
	limiter := NewLimiter(nil, map[Scope][]Rule{ScopeSubmit: {{Window: time.Minute, Limit: 0}}})

	_, allowed, err := limiter.Allow(context.Background(), ScopeSubmit, "a")
	if err != nil || !allowed {
		t.Fatalf("expected disabled rule to allow: allowed=%v err=%v", allowed, err)
	}
	if _, _, err := limiter.Allow(context.Background(), ScopeSubmit, ""); err == nil {
		t.Fatalf("expected error for empty author")
	}
}

func newMiniRedisClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}

	client := goredis.NewClient(&goredis.Options{
		Addr: mr.Addr(),
	})

	return mr, client
}
