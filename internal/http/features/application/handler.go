package application

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edtech-syndicate/membership-portal/internal/domain"
	"github.com/edtech-syndicate/membership-portal/internal/http/middleware"
	"github.com/edtech-syndicate/membership-portal/internal/httputil"
	"github.com/edtech-syndicate/membership-portal/internal/service"
)

// Handler handles applicant-facing application endpoints.
type Handler struct {
	logger *slog.Logger
	apps   *service.ApplicationService
}

// NewHandler creates a new application handler.
func NewHandler(logger *slog.Logger, apps *service.ApplicationService) *Handler {
	return &Handler{logger: logger, apps: apps}
}

// SubmitResponse represents a successful submission.
type SubmitResponse struct {
	Success       bool                `json:"success"`
	ApplicationID string              `json:"applicationId"`
	Message       string              `json:"message"`
	Application   *domain.Application `json:"application"`
}

// Submit handles application submission for the authenticated user.
// POST /v1/application
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req service.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	app, err := h.apps.Submit(r.Context(), identity.UserID, &req)
	if err != nil {
		var validationErr *domain.ValidationError
		var fileErr *domain.FileTooLargeError
		switch {
		case errors.Is(err, domain.ErrApplicationExists):
			// app holds the existing record here.
			httputil.JSON(w, http.StatusConflict, map[string]interface{}{
				"error":                 "You have already submitted an application",
				"existingApplicationId": app.ID,
			})
		case errors.As(err, &validationErr):
			httputil.JSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":         "Missing required fields",
				"missingFields": validationErr.MissingFields,
			})
		case errors.As(err, &fileErr):
			httputil.Error(w, http.StatusBadRequest, fileErr.Error())
		default:
			h.logger.Error("application submission failed", "error", err, "user_id", identity.UserID)
			httputil.ErrorWithDetails(w, http.StatusInternalServerError, "failed to submit application", err.Error())
		}
		return
	}

	httputil.JSON(w, http.StatusOK, SubmitResponse{
		Success:       true,
		ApplicationID: app.ID,
		Message:       "Application submitted successfully",
		Application:   app,
	})
}

// Get returns the application owned by the user in the path. Any
// authenticated caller may read any user's application; there is no
// ownership check.
// GET /v1/application/{userID}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		httputil.Error(w, http.StatusBadRequest, "user ID is required")
		return
	}

	app, err := h.apps.GetByUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrApplicationNotFound) {
			httputil.Error(w, http.StatusNotFound, "application not found")
			return
		}
		h.logger.Error("failed to fetch application", "error", err, "user_id", userID)
		httputil.ErrorWithDetails(w, http.StatusInternalServerError, "failed to fetch application", err.Error())
		return
	}

	httputil.JSON(w, http.StatusOK, app)
}
