package address

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("address not found")
	ErrDefaultAddress = errors.New("default address cannot be deleted")
	ErrInUse          = errors.New("address is referenced by an order")
)

// Repository scopes every read and write to the owning user.
type Repository interface {
	List(ctx context.Context, userID uuid.UUID) ([]Address, error)
	Get(ctx context.Context, userID, id uuid.UUID) (Address, error)
	FindForUser(ctx context.Context, userID uuid.UUID, ids ...uuid.UUID) ([]Address, error)
	// Create and Update clear the user's other default when a.IsDefault is set.
	Create(ctx context.Context, a Address) (Address, error)
	Update(ctx context.Context, a Address) (Address, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	SetDefault(ctx context.Context, userID, id uuid.UUID) (Address, error)
}

type InMemoryRepository struct {
	mu        sync.RWMutex
	addresses []Address
}

func NewInMemoryRepository(seed []Address) *InMemoryRepository {
	return &InMemoryRepository{addresses: slices.Clone(seed)}
}

func (r *InMemoryRepository) List(_ context.Context, userID uuid.UUID) ([]Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Address, 0)
	for _, a := range r.addresses {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sortForListing(out)
	return out, nil
}

func (r *InMemoryRepository) Get(_ context.Context, userID, id uuid.UUID) (Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(userID, id)
	if i < 0 {
		return Address{}, ErrNotFound
	}
	return r.addresses[i], nil
}

func (r *InMemoryRepository) FindForUser(_ context.Context, userID uuid.UUID, ids ...uuid.UUID) ([]Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Address, 0, len(ids))
	for _, a := range r.addresses {
		if a.UserID == userID && slices.Contains(ids, a.ID) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *InMemoryRepository) Create(_ context.Context, a Address) (Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.IsDefault {
		r.clearDefault(a.UserID, a.ID)
	}
	r.addresses = append(r.addresses, a)
	return a, nil
}

func (r *InMemoryRepository) Update(_ context.Context, a Address) (Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(a.UserID, a.ID)
	if i < 0 {
		return Address{}, ErrNotFound
	}
	if a.IsDefault {
		r.clearDefault(a.UserID, a.ID)
	}
	a.CreatedAt = r.addresses[i].CreatedAt
	r.addresses[i] = a
	return a, nil
}

func (r *InMemoryRepository) Delete(_ context.Context, userID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(userID, id)
	if i < 0 {
		return ErrNotFound
	}
	r.addresses = slices.Delete(r.addresses, i, i+1)
	return nil
}

func (r *InMemoryRepository) SetDefault(_ context.Context, userID, id uuid.UUID) (Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(userID, id)
	if i < 0 {
		return Address{}, ErrNotFound
	}
	r.clearDefault(userID, id)
	r.addresses[i].IsDefault = true
	return r.addresses[i], nil
}

func (r *InMemoryRepository) indexOf(userID, id uuid.UUID) int {
	return slices.IndexFunc(r.addresses, func(a Address) bool {
		return a.ID == id && a.UserID == userID
	})
}

func (r *InMemoryRepository) clearDefault(userID, except uuid.UUID) {
	for i := range r.addresses {
		if r.addresses[i].UserID == userID && r.addresses[i].ID != except {
			r.addresses[i].IsDefault = false
		}
	}
}

// sortForListing puts the default address first, then newest first.
func sortForListing(addrs []Address) {
	slices.SortStableFunc(addrs, func(a, b Address) int {
		if a.IsDefault != b.IsDefault {
			if a.IsDefault {
				return -1
			}
			return 1
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}
