package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/edtech-syndicate/membership-portal/internal/domain"
	"github.com/edtech-syndicate/membership-portal/internal/kv"
)

// Key layout. Applications are keyed by the owning user, which enforces the
// one-application-per-user invariant at the storage level. The per-status id
// lists are advisory mirrors, never a source of truth.
const (
	applicationKeyPrefix = "application:"
	pendingListKey       = "applications:pending"
	approvedListKey      = "applications:approved"
	rejectedListKey      = "applications:rejected"
)

// ApplicationsRepository handles application persistence.
type ApplicationsRepository struct {
	store kv.Store
}

// NewApplicationsRepository creates a new applications repository.
func NewApplicationsRepository(store kv.Store) *ApplicationsRepository {
	return &ApplicationsRepository{store: store}
}

func applicationKey(userID string) string {
	return applicationKeyPrefix + userID
}

// Save persists an application under its owner's key, overwriting any
// existing record.
func (r *ApplicationsRepository) Save(ctx context.Context, app *domain.Application) error {
	data, err := json.Marshal(app)
	if err != nil {
		return fmt.Errorf("marshal application: %w", err)
	}
	return r.store.Set(ctx, applicationKey(app.UserID), data)
}

// GetByUser retrieves the application owned by userID.
func (r *ApplicationsRepository) GetByUser(ctx context.Context, userID string) (*domain.Application, error) {
	data, err := r.store.Get(ctx, applicationKey(userID))
	if errors.Is(err, kv.ErrKeyNotFound) {
		return nil, domain.ErrApplicationNotFound
	}
	if err != nil {
		return nil, err
	}

	app := &domain.Application{}
	if err := json.Unmarshal(data, app); err != nil {
		return nil, fmt.Errorf("unmarshal application: %w", err)
	}
	return app, nil
}

// ListAll returns every stored application via prefix scan. Order is
// unspecified; callers sort.
func (r *ApplicationsRepository) ListAll(ctx context.Context) ([]*domain.Application, error) {
	values, err := r.store.GetByPrefix(ctx, applicationKeyPrefix)
	if err != nil {
		return nil, err
	}

	apps := make([]*domain.Application, 0, len(values))
	for _, data := range values {
		app := &domain.Application{}
		if err := json.Unmarshal(data, app); err != nil {
			return nil, fmt.Errorf("unmarshal application: %w", err)
		}
		apps = append(apps, app)
	}
	return apps, nil
}

// FindByID locates an application by its admin-facing id. The collection is
// keyed by userId, so this is a linear scan over the full prefix set.
func (r *ApplicationsRepository) FindByID(ctx context.Context, id string) (*domain.Application, error) {
	apps, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, app := range apps {
		if app.ID == id {
			return app, nil
		}
	}
	return nil, domain.ErrApplicationNotFound
}

// statusListKey maps a review status to its advisory list key.
func statusListKey(status domain.ApplicationStatus) (string, bool) {
	switch status {
	case domain.StatusPending:
		return pendingListKey, true
	case domain.StatusApproved:
		return approvedListKey, true
	case domain.StatusRejected:
		return rejectedListKey, true
	}
	return "", false
}

func (r *ApplicationsRepository) getIDList(ctx context.Context, key string) ([]string, error) {
	data, err := r.store.Get(ctx, key)
	if errors.Is(err, kv.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("unmarshal id list %s: %w", key, err)
	}
	return ids, nil
}

func (r *ApplicationsRepository) setIDList(ctx context.Context, key string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, key, data)
}

// AppendToList appends id to the advisory list for status. Read-modify-write
// without locking: drift under concurrency is accepted.
func (r *ApplicationsRepository) AppendToList(ctx context.Context, status domain.ApplicationStatus, id string) error {
	key, ok := statusListKey(status)
	if !ok {
		return fmt.Errorf("no advisory list for status %q", status)
	}
	ids, err := r.getIDList(ctx, key)
	if err != nil {
		return err
	}
	return r.setIDList(ctx, key, append(ids, id))
}

// MoveBetweenLists removes id from the advisory list for `from` and appends
// it to the list for `to`.
func (r *ApplicationsRepository) MoveBetweenLists(ctx context.Context, from, to domain.ApplicationStatus, id string) error {
	fromKey, ok := statusListKey(from)
	if !ok {
		return fmt.Errorf("no advisory list for status %q", from)
	}
	toKey, ok := statusListKey(to)
	if !ok {
		return fmt.Errorf("no advisory list for status %q", to)
	}

	fromIDs, err := r.getIDList(ctx, fromKey)
	if err != nil {
		return err
	}
	kept := fromIDs[:0]
	for _, existing := range fromIDs {
		if existing != id {
			kept = append(kept, existing)
		}
	}
	if err := r.setIDList(ctx, fromKey, kept); err != nil {
		return err
	}

	toIDs, err := r.getIDList(ctx, toKey)
	if err != nil {
		return err
	}
	return r.setIDList(ctx, toKey, append(toIDs, id))
}

// ListIDs returns the advisory id list for status. Diagnostic use only.
func (r *ApplicationsRepository) ListIDs(ctx context.Context, status domain.ApplicationStatus) ([]string, error) {
	key, ok := statusListKey(status)
	if !ok {
		return nil, fmt.Errorf("no advisory list for status %q", status)
	}
	return r.getIDList(ctx, key)
}
