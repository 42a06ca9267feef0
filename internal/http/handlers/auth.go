package handlers

import (
	"errors"
	"net/http"

	"service-fleet/internal/apperr"
	"service-fleet/internal/logx"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	auth   authService
	logger logx.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(logger logx.Logger, auth authService) *AuthHandler {
	if logger == nil {
		logger = logx.Nop()
	}
	return &AuthHandler{auth: auth, logger: logger}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Login handles POST /auth/login. Bad credentials always read the same,
// whether the user exists or not.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	u, err := h.auth.Login(r.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, loginResponse{
			ID:       u.ID,
			Username: u.Username,
			Role:     u.Role,
		})
	case errors.Is(err, apperr.Invalid), errors.Is(err, apperr.NotFound):
		writeError(h.logger, w, r, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, apperr.Unavailable):
		writeError(h.logger, w, r, http.StatusServiceUnavailable, "service unavailable")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}
