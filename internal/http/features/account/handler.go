package account

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/edtech-syndicate/membership-portal/internal/auth"
	"github.com/edtech-syndicate/membership-portal/internal/domain"
	"github.com/edtech-syndicate/membership-portal/internal/httputil"
)

// Handler handles signup and login endpoints.
type Handler struct {
	logger      *slog.Logger
	identitySvc *auth.IdentityService
	tokenTTLSec int
}

// NewHandler creates a new account handler.
func NewHandler(logger *slog.Logger, identitySvc *auth.IdentityService, tokenTTLSec int) *Handler {
	return &Handler{
		logger:      logger,
		identitySvc: identitySvc,
		tokenTTLSec: tokenTTLSec,
	}
}

// SignupRequest represents a signup request.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse represents an identity in responses.
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// TokenResponse represents a token response.
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int          `json:"expires_in"`
	User        UserResponse `json:"user"`
}

func userResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:    user.ID.String(),
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	}
}

// Signup handles identity creation.
// POST /v1/auth/signup
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" || req.Name == "" {
		httputil.Error(w, http.StatusBadRequest, "email, password, and name are required")
		return
	}

	user, err := h.identitySvc.Signup(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			httputil.Error(w, http.StatusConflict, "user already exists")
			return
		}
		h.logger.Error("signup failed", "error", err)
		httputil.ErrorWithDetails(w, http.StatusInternalServerError, "failed to create user", err.Error())
		return
	}

	h.logger.Info("user created", "user_id", user.ID)
	httputil.JSON(w, http.StatusCreated, map[string]interface{}{"user": userResponse(user)})
}

// Login handles credential verification and token issuance.
// POST /v1/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		httputil.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, token, err := h.identitySvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			httputil.Error(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.logger.Error("login failed", "error", err)
		httputil.ErrorWithDetails(w, http.StatusInternalServerError, "login failed", err.Error())
		return
	}

	httputil.JSON(w, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   h.tokenTTLSec,
		User:        userResponse(user),
	})
}
