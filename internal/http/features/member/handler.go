package member

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/edtech-syndicate/membership-portal/internal/domain"
	"github.com/edtech-syndicate/membership-portal/internal/http/middleware"
	"github.com/edtech-syndicate/membership-portal/internal/httputil"
	"github.com/edtech-syndicate/membership-portal/internal/service"
)

// Handler serves the digital membership card for the authenticated member.
type Handler struct {
	logger *slog.Logger
	apps   *service.ApplicationService
}

// NewHandler creates a new member handler.
func NewHandler(logger *slog.Logger, apps *service.ApplicationService) *Handler {
	return &Handler{logger: logger, apps: apps}
}

// CardResponse is the verification card view. Status folds in derived
// expiry: an approved membership past its expiry date reads "expired",
// though the stored record is never rewritten.
type CardResponse struct {
	HolderName       string `json:"holderName"`
	MembershipNumber string `json:"membershipNumber,omitempty"`
	Status           string `json:"status"`
	SubmittedAt      string `json:"submittedAt"`
	ReviewedAt       string `json:"reviewedAt,omitempty"`
	ExpiryDate       string `json:"expiryDate,omitempty"`
}

// Card returns the caller's membership card.
// GET /v1/member/card
func (h *Handler) Card(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	app, err := h.apps.GetByUser(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrApplicationNotFound) {
			httputil.Error(w, http.StatusNotFound, "application not found")
			return
		}
		h.logger.Error("failed to fetch application", "error", err, "user_id", identity.UserID)
		httputil.ErrorWithDetails(w, http.StatusInternalServerError, "failed to fetch membership card", err.Error())
		return
	}

	card := CardResponse{
		HolderName:       app.FullName,
		MembershipNumber: app.MembershipNumber,
		Status:           string(app.EffectiveStatus(time.Now())),
		SubmittedAt:      app.SubmittedAt.Format(time.RFC3339),
		ExpiryDate:       app.ExpiryDate,
	}
	if app.ReviewedAt != nil {
		card.ReviewedAt = app.ReviewedAt.Format(time.RFC3339)
	}

	httputil.JSON(w, http.StatusOK, card)
}
