package handler

import (
	"net/http"

	"github.com/projectbuzz/platform/internal/domain"
	"github.com/projectbuzz/platform/internal/guard"
	"github.com/projectbuzz/platform/internal/service"
)

// AuthHandler handles registration, OTP verification and login.
type AuthHandler struct {
	auth    *service.AuthService
	limiter *guard.RateLimiter
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService, limiter *guard.RateLimiter) *AuthHandler {
	return &AuthHandler{auth: auth, limiter: limiter}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if result := h.limiter.Check(r.Context(), "register:"+clientIP(r)); !result.Allowed {
		RespondError(w, domain.ErrValidation(result.Reason))
		return
	}

	var req service.RegisterInput
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	if err := h.auth.Register(r.Context(), req); err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusAccepted, map[string]string{
		"status": "verification_required",
	})
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// VerifyOTP handles POST /auth/verify.
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	result, err := h.auth.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, result)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if result := h.limiter.Check(r.Context(), "login:"+clientIP(r)); !result.Allowed {
		RespondError(w, domain.ErrValidation(result.Reason))
		return
	}

	var req loginRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, result)
}

// AdminLogin handles POST /auth/admin/login.
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	result, err := h.auth.AdminLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, result)
}

// Stats handles GET /me/stats.
func (h *AuthHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	stats, err := h.auth.GetStats(r.Context(), userID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, stats)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return r.RemoteAddr
}
