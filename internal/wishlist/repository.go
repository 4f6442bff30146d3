package wishlist

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("wishlist item not found")
	ErrAlreadyInWishlist = errors.New("product already in wishlist")
)

type Repository interface {
	// List returns the user's items, newest first.
	List(ctx context.Context, userID uuid.UUID) ([]Item, error)
	// Find matches on product and variant; a nil variant only matches items without one.
	Find(ctx context.Context, userID, productID uuid.UUID, variantID *uuid.UUID) (Item, error)
	// Create fails with ErrAlreadyInWishlist when the same product and variant is already saved.
	Create(ctx context.Context, item Item) (Item, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu    sync.RWMutex
	items []Item
}

func NewInMemoryRepository(seed []Item) *InMemoryRepository {
	return &InMemoryRepository{items: slices.Clone(seed)}
}

func (r *InMemoryRepository) List(_ context.Context, userID uuid.UUID) ([]Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Item, 0)
	for _, it := range r.items {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	slices.SortStableFunc(out, func(a, b Item) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (r *InMemoryRepository) Find(_ context.Context, userID, productID uuid.UUID, variantID *uuid.UUID) (Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOfEntry(userID, productID, variantID)
	if i < 0 {
		return Item{}, ErrNotFound
	}
	return r.items[i], nil
}

func (r *InMemoryRepository) Create(_ context.Context, item Item) (Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOfEntry(item.UserID, item.ProductID, item.VariantID) >= 0 {
		return Item{}, ErrAlreadyInWishlist
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.items = append(r.items, item)
	return item, nil
}

func (r *InMemoryRepository) Delete(_ context.Context, userID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := slices.IndexFunc(r.items, func(it Item) bool { return it.ID == id && it.UserID == userID })
	if i < 0 {
		return ErrNotFound
	}
	r.items = slices.Delete(r.items, i, i+1)
	return nil
}

func (r *InMemoryRepository) Clear(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = slices.DeleteFunc(r.items, func(it Item) bool { return it.UserID == userID })
	return nil
}

func (r *InMemoryRepository) indexOfEntry(userID, productID uuid.UUID, variantID *uuid.UUID) int {
	return slices.IndexFunc(r.items, func(it Item) bool {
		return it.UserID == userID && it.ProductID == productID && sameVariant(it.VariantID, variantID)
	})
}

func sameVariant(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
