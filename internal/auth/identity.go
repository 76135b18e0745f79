package auth

import (
	"context"
	"html"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/edtech-syndicate/membership-portal/internal/domain"
	"github.com/edtech-syndicate/membership-portal/internal/repository"
)

// IdentityService handles signup and login. Emails are treated as
// pre-confirmed; there is no verification flow.
type IdentityService struct {
	users      *repository.UsersRepository
	tokens     *TokenService
	adminEmail string
}

// NewIdentityService creates a new identity service. adminEmail, when set,
// grants the admin role to the matching signup (admin provisioning is
// otherwise out-of-band).
func NewIdentityService(users *repository.UsersRepository, tokens *TokenService, adminEmail string) *IdentityService {
	return &IdentityService{
		users:      users,
		tokens:     tokens,
		adminEmail: strings.ToLower(strings.TrimSpace(adminEmail)),
	}
}

// Signup creates an identity record with name metadata.
func (s *IdentityService) Signup(ctx context.Context, email, password, name string) (*domain.User, error) {
	email = NormalizeEmail(email)
	name = SanitizeName(name)

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	role := domain.RoleMember
	if s.adminEmail != "" && email == s.adminEmail {
		role = domain.RoleAdmin
	}

	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and returns the user plus a signed access token.
func (s *IdentityService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, "", domain.ErrInvalidCredentials
	}
	if !VerifyPassword(password, user.PasswordHash) {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Resolve maps a bearer token to the identity it represents.
func (s *IdentityService) Resolve(tokenString string) (*Identity, error) {
	claims, err := s.tokens.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return &Identity{
		UserID: claims.Subject,
		Email:  claims.Email,
		Name:   claims.Name,
		Role:   claims.Role,
	}, nil
}

// Identity is the authenticated caller extracted from a bearer credential.
type Identity struct {
	UserID string
	Email  string
	Name   string
	Role   string
}

// IsAdmin reports whether the identity carries the admin role claim.
func (i *Identity) IsAdmin() bool {
	return i.Role == domain.RoleAdmin
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SanitizeName sanitizes a name field (unicode-friendly, allows letters and spaces).
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	return html.EscapeString(name)
}
