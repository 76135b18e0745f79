// Package service implements the application record workflow: one-shot
// submission, admin listing, and the pending -> approved/rejected review
// transitions.
package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/edtech-syndicate/membership-portal/internal/domain"
	"github.com/edtech-syndicate/membership-portal/internal/notification"
	"github.com/edtech-syndicate/membership-portal/internal/repository"
)

// DefaultMaxFileSize is the per-attachment decoded size limit.
const DefaultMaxFileSize = 10 * 1024 * 1024 // 10 MiB

// membershipNumberPrefix brands generated membership numbers.
const membershipNumberPrefix = "EDU"

// requiredFields lists the profile fields a submission must carry, in the
// order they are reported back when missing.
var requiredFields = []string{
	"fullName", "email", "phone", "position",
	"organization", "yearsExperience", "education",
	"specialization", "motivation",
}

// SubmitRequest carries the applicant-provided fields of a submission.
type SubmitRequest struct {
	FullName        string             `json:"fullName"`
	Email           string             `json:"email"`
	Phone           string             `json:"phone"`
	Position        string             `json:"position"`
	Organization    string             `json:"organization"`
	YearsExperience string             `json:"yearsExperience"`
	Education       string             `json:"education"`
	Specialization  string             `json:"specialization"`
	LinkedIn        string             `json:"linkedin"`
	Motivation      string             `json:"motivation"`
	Files           *domain.FileBundle `json:"files"`
}

func (r *SubmitRequest) fieldValues() map[string]string {
	return map[string]string{
		"fullName":        r.FullName,
		"email":           r.Email,
		"phone":           r.Phone,
		"position":        r.Position,
		"organization":    r.Organization,
		"yearsExperience": r.YearsExperience,
		"education":       r.Education,
		"specialization":  r.Specialization,
		"motivation":      r.Motivation,
	}
}

// ApplicationService is the application record service.
type ApplicationService struct {
	logger      *slog.Logger
	apps        *repository.ApplicationsRepository
	emailSvc    *notification.EmailService
	maxFileSize int64
}

// NewApplicationService creates a new application service. emailSvc may be
// nil; review notices are then skipped.
func NewApplicationService(logger *slog.Logger, apps *repository.ApplicationsRepository, emailSvc *notification.EmailService) *ApplicationService {
	return &ApplicationService{
		logger:      logger,
		apps:        apps,
		emailSvc:    emailSvc,
		maxFileSize: DefaultMaxFileSize,
	}
}

// Submit creates the application record for userID. Each user submits at
// most once; a duplicate submission fails with ErrApplicationExists and
// leaves the stored record untouched.
func (s *ApplicationService) Submit(ctx context.Context, userID string, req *SubmitRequest) (*domain.Application, error) {
	existing, err := s.apps.GetByUser(ctx, userID)
	if err == nil {
		return existing, domain.ErrApplicationExists
	}
	if !errors.Is(err, domain.ErrApplicationNotFound) {
		return nil, err
	}

	values := req.fieldValues()
	var missing []string
	for _, field := range requiredFields {
		if strings.TrimSpace(values[field]) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, &domain.ValidationError{MissingFields: missing}
	}

	if err := s.checkFileSizes(req.Files); err != nil {
		return nil, err
	}

	app := &domain.Application{
		ID:              uuid.New().String(),
		UserID:          userID,
		FullName:        req.FullName,
		Email:           req.Email,
		Phone:           req.Phone,
		Position:        req.Position,
		Organization:    req.Organization,
		YearsExperience: req.YearsExperience,
		Education:       req.Education,
		Specialization:  req.Specialization,
		LinkedIn:        req.LinkedIn,
		Motivation:      req.Motivation,
		Files:           req.Files,
		Status:          domain.StatusPending,
		SubmittedAt:     time.Now().UTC(),
	}

	if err := s.apps.Save(ctx, app); err != nil {
		return nil, fmt.Errorf("save application: %w", err)
	}

	// The pending list is advisory; failure to update it never fails the
	// submission.
	if err := s.apps.AppendToList(ctx, domain.StatusPending, app.ID); err != nil {
		s.logger.Warn("failed to update pending list", "error", err, "application_id", app.ID)
	}

	s.logger.Info("application submitted", "application_id", app.ID, "user_id", userID)
	return app, nil
}

// checkFileSizes enforces the decoded per-file limit at the boundary that
// accepts the record.
func (s *ApplicationService) checkFileSizes(files *domain.FileBundle) error {
	for field, file := range files.All() {
		size := decodedSize(file.Data)
		if size > s.maxFileSize {
			return &domain.FileTooLargeError{Field: field, Size: size, Limit: s.maxFileSize}
		}
	}
	return nil
}

// decodedSize estimates the decoded byte size of a data-URI encoded blob.
func decodedSize(data string) int64 {
	if idx := strings.Index(data, ","); idx >= 0 {
		data = data[idx+1:]
	}
	return int64(base64.StdEncoding.DecodedLen(len(data)))
}

// GetByUser returns the application owned by userID.
func (s *ApplicationService) GetByUser(ctx context.Context, userID string) (*domain.Application, error) {
	return s.apps.GetByUser(ctx, userID)
}

// ListAll returns every application, ordered by submission time descending.
// The sort happens on every call; there is no index.
func (s *ApplicationService) ListAll(ctx context.Context) ([]*domain.Application, error) {
	apps, err := s.apps.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(apps, func(i, j int) bool {
		return apps[i].SubmittedAt.After(apps[j].SubmittedAt)
	})
	return apps, nil
}

// Approve transitions an application to approved, stamping reviewedAt, the
// expiry date, and a generated membership number. Re-approving an already
// reviewed application overwrites; there is no guard.
func (s *ApplicationService) Approve(ctx context.Context, id, expiryDate string) (*domain.Application, error) {
	if strings.TrimSpace(expiryDate) == "" {
		return nil, domain.ErrExpiryDateRequired
	}

	app, err := s.apps.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	app.Status = domain.StatusApproved
	app.ReviewedAt = &now
	app.ExpiryDate = expiryDate
	app.MembershipNumber = generateMembershipNumber(now)

	if err := s.apps.Save(ctx, app); err != nil {
		return nil, fmt.Errorf("save application: %w", err)
	}

	if err := s.apps.MoveBetweenLists(ctx, domain.StatusPending, domain.StatusApproved, id); err != nil {
		s.logger.Warn("failed to update status lists", "error", err, "application_id", id)
	}

	s.logger.Info("application approved",
		"application_id", id, "membership_number", app.MembershipNumber, "expiry_date", expiryDate)
	s.notifyReviewed(app)
	return app, nil
}

// Reject transitions an application to rejected, stamping reviewedAt.
func (s *ApplicationService) Reject(ctx context.Context, id string) (*domain.Application, error) {
	app, err := s.apps.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	app.Status = domain.StatusRejected
	app.ReviewedAt = &now

	if err := s.apps.Save(ctx, app); err != nil {
		return nil, fmt.Errorf("save application: %w", err)
	}

	if err := s.apps.MoveBetweenLists(ctx, domain.StatusPending, domain.StatusRejected, id); err != nil {
		s.logger.Warn("failed to update status lists", "error", err, "application_id", id)
	}

	s.logger.Info("application rejected", "application_id", id)
	s.notifyReviewed(app)
	return app, nil
}

// notifyReviewed sends a best-effort review notice to the applicant.
func (s *ApplicationService) notifyReviewed(app *domain.Application) {
	if s.emailSvc == nil {
		return
	}
	var err error
	switch app.Status {
	case domain.StatusApproved:
		err = s.emailSvc.SendApprovalEmail(app.Email, app.FullName, app.MembershipNumber, app.ExpiryDate)
	case domain.StatusRejected:
		err = s.emailSvc.SendRejectionEmail(app.Email, app.FullName)
	default:
		return
	}
	if err != nil {
		s.logger.Error("failed to send review notice", "error", err, "application_id", app.ID)
	}
}

// generateMembershipNumber derives a number from the timestamp suffix, the
// same scheme the membership cards display. Not guaranteed globally unique.
func generateMembershipNumber(now time.Time) string {
	millis := strconv.FormatInt(now.UnixMilli(), 10)
	if len(millis) > 8 {
		millis = millis[len(millis)-8:]
	}
	return membershipNumberPrefix + millis
}
