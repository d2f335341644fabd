package rate

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Scope string

const (
	ScopeSubmit  Scope = "submit"
	ScopePreview Scope = "preview"
)

// Rule allows Limit actions per fixed Window. A zero Limit disables the rule.
type Rule struct {
	Window time.Duration
	Limit  int
}

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	WindowState(ctx context.Context, key string) (int64, time.Duration, error)
}

// Limiter applies fixed-window counters per author and scope.
type Limiter struct {
	store WindowStore
	rules map[Scope][]Rule
}

func NewLimiter(store WindowStore, rules map[Scope][]Rule) *Limiter {
	cleaned := make(map[Scope][]Rule, len(rules))
	for scope, list := range rules {
		for _, rule := range list {
			if rule.Limit <= 0 || rule.Window <= 0 {
				continue
			}
			cleaned[scope] = append(cleaned[scope], rule)
		}
	}

	return &Limiter{
		store: store,
		rules: cleaned,
	}
}

// Allow counts one action and reports whether it fits every rule of the scope.
// When it does not, the returned value is the number of seconds until it would.
func (l *Limiter) Allow(ctx context.Context, scope Scope, authorID string) (int64, bool, error) {
	authorID = strings.TrimSpace(authorID)
	if authorID == "" {
		return 0, false, fmt.Errorf("invalid author id")
	}
	rules := l.rules[scope]
	if len(rules) == 0 {
		return 0, true, nil
	}
	if l.store == nil {
		return 0, false, fmt.Errorf("rate limiter store is nil")
	}

	retryAfterSec := int64(0)
	for _, rule := range rules {
		count, ttl, err := l.store.IncrementWindow(ctx, windowKey(scope, rule.Window, authorID), rule.Window)
		if err != nil {
			return 0, false, err
		}
		if count > int64(rule.Limit) {
			retryAfterSec = maxInt64(retryAfterSec, ceilSeconds(ttl))
		}
	}

	if retryAfterSec > 0 {
		return retryAfterSec, false, nil
	}
	return 0, true, nil
}

// RetryAfter reports how long the author must wait without counting an action.
func (l *Limiter) RetryAfter(ctx context.Context, scope Scope, authorID string) (int64, error) {
	authorID = strings.TrimSpace(authorID)
	if authorID == "" {
		return 0, fmt.Errorf("invalid author id")
	}
	rules := l.rules[scope]
	if len(rules) == 0 {
		return 0, nil
	}
	if l.store == nil {
		return 0, fmt.Errorf("rate limiter store is nil")
	}

	retryAfterSec := int64(0)
	for _, rule := range rules {
		count, ttl, err := l.store.WindowState(ctx, windowKey(scope, rule.Window, authorID))
		if err != nil {
			return 0, err
		}
		if count >= int64(rule.Limit) {
			retryAfterSec = maxInt64(retryAfterSec, ceilSeconds(ttl))
		}
	}

	return retryAfterSec, nil
}

func windowKey(scope Scope, window time.Duration, authorID string) string {
	return "rate:" + string(scope) + ":" + strconv.FormatInt(int64(window/time.Second), 10) + "s:" + authorID
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	if sec <= 0 {
		sec = 1
	}
	return sec
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
