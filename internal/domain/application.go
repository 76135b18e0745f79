package domain

import (
	"strconv"
	"time"
)

// ApplicationStatus is the review state of a membership application.
type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "pending"
	StatusApproved ApplicationStatus = "approved"
	StatusRejected ApplicationStatus = "rejected"
	// StatusExpired is a display-only state derived from ExpiryDate.
	// It is never written to the store.
	StatusExpired ApplicationStatus = "expired"
)

// FileAttachment is a document uploaded with an application, stored inline
// as a data-URI encoded string.
type FileAttachment struct {
	Name string `json:"name"`
	Data string `json:"data"`
}

// FileBundle groups the optional documents attached to an application.
type FileBundle struct {
	Resume         *FileAttachment  `json:"resume,omitempty"`
	Certificates   []FileAttachment `json:"certificates,omitempty"`
	Recommendation *FileAttachment  `json:"recommendation,omitempty"`
}

// All returns every attachment in the bundle, labeled by field name.
func (b *FileBundle) All() map[string]FileAttachment {
	if b == nil {
		return nil
	}
	files := make(map[string]FileAttachment)
	if b.Resume != nil {
		files["resume"] = *b.Resume
	}
	for i, cert := range b.Certificates {
		files[certLabel(i)] = cert
	}
	if b.Recommendation != nil {
		files["recommendation"] = *b.Recommendation
	}
	return files
}

func certLabel(i int) string {
	return "certificates[" + strconv.Itoa(i) + "]"
}

// Application is a membership application. There is at most one per user;
// the store keys records by userId, while admins address them by ID.
type Application struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`

	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Position        string `json:"position"`
	Organization    string `json:"organization"`
	YearsExperience string `json:"yearsExperience"`
	Education       string `json:"education"`
	Specialization  string `json:"specialization"`
	LinkedIn        string `json:"linkedin,omitempty"`
	Motivation      string `json:"motivation"`

	Files *FileBundle `json:"files,omitempty"`

	Status           ApplicationStatus `json:"status"`
	SubmittedAt      time.Time         `json:"submittedAt"`
	ReviewedAt       *time.Time        `json:"reviewedAt,omitempty"`
	ExpiryDate       string            `json:"expiryDate,omitempty"`
	MembershipNumber string            `json:"membershipNumber,omitempty"`
}

// IsExpired reports whether an approved membership has passed its expiry
// date. Expiry is computed at read time, never persisted.
func (a *Application) IsExpired(now time.Time) bool {
	if a.Status != StatusApproved || a.ExpiryDate == "" {
		return false
	}
	expiry, err := time.Parse("2006-01-02", a.ExpiryDate)
	if err != nil {
		// Fall back to full timestamp form.
		expiry, err = time.Parse(time.RFC3339, a.ExpiryDate)
		if err != nil {
			return false
		}
	}
	return expiry.Before(now)
}

// EffectiveStatus returns the status to display, folding in derived expiry.
func (a *Application) EffectiveStatus(now time.Time) ApplicationStatus {
	if a.IsExpired(now) {
		return StatusExpired
	}
	return a.Status
}
