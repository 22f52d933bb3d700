package ratelimit

import "context"

// RateLimiter throttles outbound sends per scope (e.g. "email").
type RateLimiter interface {
	Allow(ctx context.Context, scope string) (bool, error)
	Wait(ctx context.Context, scope string) error
}
