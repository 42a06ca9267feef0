package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"service-fleet/internal/logx"
)

func TestHandlers_Ping(t *testing.T) {
	t.Parallel()

	h := New(logx.Nop())
	r := httptest.NewRequest(http.MethodGet, "http://example/ping", nil)
	w := httptest.NewRecorder()

	h.Ping(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))
	require.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}

func TestHandlers_HealthcheckHead(t *testing.T) {
	t.Parallel()

	h := New(logx.Nop())
	r := httptest.NewRequest(http.MethodHead, "http://example/healthcheck", nil)
	w := httptest.NewRecorder()

	h.HealthcheckHead(w, r)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Empty(t, w.Body.String())
}

func TestHandlers_NotFound(t *testing.T) {
	t.Parallel()

	h := New(logx.Nop())
	r := httptest.NewRequest(http.MethodGet, "http://example/nope", nil)
	w := httptest.NewRecorder()

	h.NotFound(w, r)

	require.Equal(t, http.StatusNotFound, w.Code)
	require.JSONEq(t, `{"error":"route not found"}`, w.Body.String())
}
