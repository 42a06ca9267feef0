package ratelimit

import "context"

// Decision is the outcome of an admission check. RetryAfterSeconds is only
// meaningful when Allowed is false; it is always >= 1 then.
type Decision struct {
	Allowed           bool
	RetryAfterSeconds int64
}

// Limiter decides whether a client identity may proceed right now.
type Limiter interface {
	Admit(ctx context.Context, clientID string) (Decision, error)
}
