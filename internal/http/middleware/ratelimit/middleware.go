// Package ratelimit gates the login route behind the distributed limiter.
package ratelimit

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"service-fleet/internal/apperr"
	"service-fleet/internal/logx"
	"service-fleet/internal/ratelimit"
)

// Middleware applies an admission decision per client identity before the
// protected handler runs.
type Middleware struct {
	logger  logx.Logger
	counter prometheus.Counter
	limiter ratelimit.Limiter
}

// New creates a Middleware. A nil limiter admits everything.
func New(logger logx.Logger, counter prometheus.Counter, limiter ratelimit.Limiter) *Middleware {
	if logger == nil {
		logger = logx.Nop()
	}
	if limiter == nil {
		limiter = ratelimit.NopLimiter{}
	}
	return &Middleware{
		logger:  logger,
		counter: counter,
		limiter: limiter,
	}
}

// Handler returns chi-style middleware.
func (m *Middleware) Handler() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := clientID(r)

			dec, err := m.limiter.Admit(r.Context(), client)
			if err != nil {
				// fail-closed path: the store is down and the gate is
				// configured to refuse rather than admit unmetered traffic
				status := http.StatusInternalServerError
				body := `{"error":"internal error"}`
				if errors.Is(err, apperr.Unavailable) {
					status = http.StatusServiceUnavailable
					body = `{"error":"rate limiter unavailable"}`
				}
				m.logger.Error("rate limit check failed",
					logx.String("client", client),
					logx.String("path", r.URL.Path),
					logx.Any("err", err),
				)
				m.respond(w, status, body, client)
				return
			}

			if !dec.Allowed {
				if m.counter != nil {
					m.counter.Inc()
				}
				m.logger.Warn("rate limit exceeded",
					logx.String("client", client),
					logx.String("method", r.Method),
					logx.String("path", r.URL.Path),
					logx.Int64("retry_after", dec.RetryAfterSeconds),
				)
				w.Header().Set("Retry-After", strconv.FormatInt(dec.RetryAfterSeconds, 10))
				m.respond(w, http.StatusTooManyRequests, `{"error":"too many requests"}`, client)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (m *Middleware) respond(w http.ResponseWriter, status int, body, client string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := io.WriteString(w, body); err != nil {
		// client may have dropped the connection
		m.logger.Debug("rate limit response write failed",
			logx.String("client", client),
			logx.Any("err", err),
		)
	}
}
