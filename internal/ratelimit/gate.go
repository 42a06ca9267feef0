// Package ratelimit is a token-bucket admission gate backed by the shared
// state store, so every service instance enforces one logical limit per
// client identity. Bucket state mutates only through the store's atomic
// update; two concurrent requests from one client can never spend the
// same token.
package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"service-fleet/internal/apperr"
	"service-fleet/internal/kv"
	"service-fleet/internal/logx"
)

const keyPrefix = "rate-limit:login:"

// Config stores Gate settings.
type Config struct {
	Capacity int           // max tokens per bucket
	Window   time.Duration // time to refill Capacity tokens
	// FailOpen selects the behaviour when the shared store is down:
	// true bypasses the gate, false rejects with Unavailable.
	FailOpen bool
}

// Gate is a distributed per-client token bucket.
type Gate struct {
	store  kv.Store
	clock  Clock
	logger logx.Logger
	cfg    Config
}

// bucketState is the wire form of one bucket in the shared store.
type bucketState struct {
	Tokens     float64 `json:"tokens"`
	RefilledAt int64   `json:"refilled_at"` // unix nanos of the last refill
}

// NewGate creates a Gate with explicit config and injected clock.
func NewGate(store kv.Store, clock Clock, logger logx.Logger, cfg Config) *Gate {
	if clock == nil {
		clock = RealClock{}
	}
	if logger == nil {
		logger = logx.Nop()
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = 1
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Second
	}
	return &Gate{store: store, clock: clock, logger: logger, cfg: cfg}
}

// Admit spends one token from the client's bucket, refilling it first in
// proportion to the time elapsed since the last refill. The bucket expires
// from the store after one idle window, so idle clients cost nothing.
func (g *Gate) Admit(ctx context.Context, clientID string) (Decision, error) {
	var decision Decision

	capacity := float64(g.cfg.Capacity)
	tokensPerNano := capacity / float64(g.cfg.Window.Nanoseconds())

	// Update may rerun the closure on a lost CAS race; every run starts
	// from the freshly read state, so the last run's decision is the one
	// that actually committed.
	_, err := g.store.Update(ctx, keyPrefix+clientID, g.cfg.Window, func(current []byte) ([]byte, error) {
		now := g.clock.Now().UnixNano()

		state := bucketState{Tokens: capacity, RefilledAt: now}
		if current != nil {
			if err := json.Unmarshal(current, &state); err != nil {
				// corrupt bucket: start over full rather than lock the client out
				state = bucketState{Tokens: capacity, RefilledAt: now}
			}
		}

		if elapsed := now - state.RefilledAt; elapsed > 0 {
			state.Tokens = math.Min(capacity, state.Tokens+float64(elapsed)*tokensPerNano)
		}
		state.RefilledAt = now

		if state.Tokens >= 1 {
			state.Tokens--
			decision = Decision{Allowed: true}
		} else {
			nanosToNext := (1 - state.Tokens) / tokensPerNano
			secs := int64(math.Ceil(nanosToNext / float64(time.Second)))
			if secs < 1 {
				secs = 1
			}
			decision = Decision{Allowed: false, RetryAfterSeconds: secs}
		}

		return json.Marshal(state)
	})
	if err != nil {
		if g.cfg.FailOpen {
			g.logger.Warn("rate limit store unavailable, failing open",
				logx.String("client", clientID),
				logx.Any("err", err),
			)
			return Decision{Allowed: true}, nil
		}
		// keep the cause in the chain so the middleware log shows why
		// the store was down
		return Decision{}, fmt.Errorf("%w: rate limit store: %w", apperr.Unavailable, err)
	}

	return decision, nil
}

var _ Limiter = (*Gate)(nil)
