package admin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edtech-syndicate/membership-portal/internal/domain"
	"github.com/edtech-syndicate/membership-portal/internal/httputil"
	"github.com/edtech-syndicate/membership-portal/internal/service"
)

// Handler handles admin review endpoints. Authentication and the admin role
// check are enforced by middleware; handlers delegate to the application
// service and return its result verbatim.
type Handler struct {
	logger *slog.Logger
	apps   *service.ApplicationService
}

// NewHandler creates a new admin handler.
func NewHandler(logger *slog.Logger, apps *service.ApplicationService) *Handler {
	return &Handler{logger: logger, apps: apps}
}

// ApproveRequest carries the membership validity window for an approval.
type ApproveRequest struct {
	ExpiryDate string `json:"expiryDate"`
}

// ReviewResponse wraps the updated application after a review transition.
type ReviewResponse struct {
	Success     bool                `json:"success"`
	Application *domain.Application `json:"application"`
}

// List returns every application, newest first.
// GET /v1/admin/applications
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	apps, err := h.apps.ListAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list applications", "error", err)
		httputil.ErrorWithDetails(w, http.StatusInternalServerError, "failed to fetch applications", err.Error())
		return
	}
	httputil.JSON(w, http.StatusOK, apps)
}

// Approve transitions an application to approved.
// POST /v1/admin/application/{id}/approve
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ApproveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	app, err := h.apps.Approve(r.Context(), id, req.ExpiryDate)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrExpiryDateRequired):
			httputil.Error(w, http.StatusBadRequest, "expiry date is required")
		case errors.Is(err, domain.ErrApplicationNotFound):
			httputil.Error(w, http.StatusNotFound, "application not found")
		default:
			h.logger.Error("failed to approve application", "error", err, "application_id", id)
			httputil.ErrorWithDetails(w, http.StatusInternalServerError, "failed to approve application", err.Error())
		}
		return
	}

	httputil.JSON(w, http.StatusOK, ReviewResponse{Success: true, Application: app})
}

// Reject transitions an application to rejected.
// POST /v1/admin/application/{id}/reject
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	app, err := h.apps.Reject(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrApplicationNotFound) {
			httputil.Error(w, http.StatusNotFound, "application not found")
			return
		}
		h.logger.Error("failed to reject application", "error", err, "application_id", id)
		httputil.ErrorWithDetails(w, http.StatusInternalServerError, "failed to reject application", err.Error())
		return
	}

	httputil.JSON(w, http.StatusOK, ReviewResponse{Success: true, Application: app})
}
