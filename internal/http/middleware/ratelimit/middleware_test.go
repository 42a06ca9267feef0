package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"service-fleet/internal/apperr"
	"service-fleet/internal/logx"
	rl "service-fleet/internal/ratelimit"
)

type stubLimiter struct {
	admitFn func(ctx context.Context, clientID string) (rl.Decision, error)
}

func (s stubLimiter) Admit(ctx context.Context, clientID string) (rl.Decision, error) {
	if s.admitFn == nil {
		return rl.Decision{Allowed: true}, nil
	}
	return s.admitFn(ctx, clientID)
}

func TestMiddleware_Allows_RequestPassesToNext(t *testing.T) {
	t.Parallel()

	nextCalled := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled++
		w.WriteHeader(http.StatusOK)
	})

	m := New(logx.Nop(), nil, stubLimiter{})
	h := m.Handler()(next)

	r := httptest.NewRequest(http.MethodPost, "http://example/auth/login", nil)
	r.RemoteAddr = "1.2.3.4:5678"
	w := httptest.NewRecorder()

	h.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, nextCalled)
}

func TestMiddleware_Blocks_Returns429WithRetryAfter(t *testing.T) {
	t.Parallel()

	nextCalled := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled++
	})

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rate_limit_exceeded_total_test",
		Help: "denied requests",
	})

	limiter := stubLimiter{admitFn: func(_ context.Context, clientID string) (rl.Decision, error) {
		require.Equal(t, "1.2.3.4", clientID)
		return rl.Decision{Allowed: false, RetryAfterSeconds: 42}, nil
	}}

	m := New(logx.Nop(), counter, limiter)
	h := m.Handler()(next)

	r := httptest.NewRequest(http.MethodPost, "http://example/auth/login", nil)
	r.RemoteAddr = "1.2.3.4:5678"
	w := httptest.NewRecorder()

	h.ServeHTTP(w, r)

	require.Equal(t, 0, nextCalled, "expected next not called")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))
	require.Equal(t, "42", w.Header().Get("Retry-After"))
	require.JSONEq(t, `{"error":"too many requests"}`, w.Body.String())
	require.Equal(t, float64(1), testutil.ToFloat64(counter))
}

func TestMiddleware_StoreDownFailClosed_Returns503(t *testing.T) {
	t.Parallel()

	limiter := stubLimiter{admitFn: func(context.Context, string) (rl.Decision, error) {
		return rl.Decision{}, apperr.WithMessage(apperr.Unavailable, "rate limit store")
	}}

	m := New(logx.Nop(), nil, limiter)
	h := m.Handler()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("next must not run when the gate fails closed")
	}))

	r := httptest.NewRequest(http.MethodPost, "http://example/auth/login", nil)
	r.RemoteAddr = "1.2.3.4:5678"
	w := httptest.NewRecorder()

	h.ServeHTTP(w, r)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.JSONEq(t, `{"error":"rate limiter unavailable"}`, w.Body.String())
}

func TestMiddleware_UnexpectedError_Returns500(t *testing.T) {
	t.Parallel()

	limiter := stubLimiter{admitFn: func(context.Context, string) (rl.Decision, error) {
		return rl.Decision{}, errors.New("boom")
	}}

	m := New(logx.Nop(), nil, limiter)
	h := m.Handler()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	r := httptest.NewRequest(http.MethodPost, "http://example/auth/login", nil)
	w := httptest.NewRecorder()

	h.ServeHTTP(w, r)

	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestMiddleware_NilLimiterAdmits(t *testing.T) {
	t.Parallel()

	m := New(logx.Nop(), nil, nil)
	nextCalled := 0
	h := m.Handler()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { nextCalled++ }))

	r := httptest.NewRequest(http.MethodPost, "http://example/auth/login", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	require.Equal(t, 1, nextCalled)
}
