package ratelimit

import "context"

// NopLimiter admits everything; used when the gate is disabled.
type NopLimiter struct{}

// Admit always allows.
func (NopLimiter) Admit(context.Context, string) (Decision, error) {
	return Decision{Allowed: true}, nil
}

// NewNopLimiter returns NopLimiter.
func NewNopLimiter() Limiter { return NopLimiter{} }
