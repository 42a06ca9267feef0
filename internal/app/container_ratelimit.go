package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"service-fleet/internal/config"
	mwratelimit "service-fleet/internal/http/middleware/ratelimit"
	"service-fleet/internal/kv"
	"service-fleet/internal/logx"
	"service-fleet/internal/ratelimit"
)

func newLimiter(cfg *config.Config, store kv.Store, clock ratelimit.Clock, logger logx.Logger) ratelimit.Limiter {
	rl := cfg.RateLimit
	if !rl.Enabled {
		return ratelimit.NopLimiter{}
	}
	return ratelimit.NewGate(store, clock, logger, ratelimit.Config{
		Capacity: rl.MaxRequests,
		Window:   rl.Window,
		FailOpen: rl.FailOpen,
	})
}

func newRateLimitClock() ratelimit.Clock {
	return ratelimit.RealClock{}
}

type rateLimitIn struct {
	dig.In

	Logger  logx.Logger
	Counter prometheus.Counter `name:"rate_limit_exceeded_total"`
	Limiter ratelimit.Limiter
}

func newRateLimitMiddleware(in rateLimitIn) *mwratelimit.Middleware {
	return mwratelimit.New(in.Logger, in.Counter, in.Limiter)
}

func registerRateLimit(container *dig.Container) error {
	return provideAll(container,
		newRateLimitClock,
		newLimiter,
		newRateLimitMiddleware,
	)
}
