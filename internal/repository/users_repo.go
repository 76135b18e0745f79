package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/edtech-syndicate/membership-portal/internal/domain"
	"github.com/edtech-syndicate/membership-portal/internal/kv"
)

const (
	userKeyPrefix      = "user:"
	userEmailKeyPrefix = "user:email:"
)

// UsersRepository handles identity persistence. Records live under
// user:<id>; user:email:<email> holds an email -> id pointer for login.
type UsersRepository struct {
	store kv.Store
}

// NewUsersRepository creates a new users repository.
func NewUsersRepository(store kv.Store) *UsersRepository {
	return &UsersRepository{store: store}
}

func userKey(id string) string {
	return userKeyPrefix + id
}

func userEmailKey(email string) string {
	return userEmailKeyPrefix + strings.ToLower(strings.TrimSpace(email))
}

// Create persists a new user. Fails with ErrUserAlreadyExists when the email
// pointer is already taken. The existence check and the writes are not
// atomic; concurrent signups for the same email are a tolerated race.
func (r *UsersRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.store.Get(ctx, userEmailKey(user.Email))
	if err == nil {
		return domain.ErrUserAlreadyExists
	}
	if !errors.Is(err, kv.ErrKeyNotFound) {
		return err
	}

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	if err := r.store.Set(ctx, userKey(user.ID.String()), data); err != nil {
		return err
	}
	return r.store.Set(ctx, userEmailKey(user.Email), []byte(user.ID.String()))
}

// GetByID retrieves a user by id.
func (r *UsersRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	data, err := r.store.Get(ctx, userKey(id))
	if errors.Is(err, kv.ErrKeyNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	user := &domain.User{}
	if err := json.Unmarshal(data, user); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email via the pointer key.
func (r *UsersRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	id, err := r.store.Get(ctx, userEmailKey(email))
	if errors.Is(err, kv.ErrKeyNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, string(id))
}
