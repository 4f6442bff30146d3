package cart

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("cart item not found")

type Repository interface {
	// List returns the user's items, newest first.
	List(ctx context.Context, userID uuid.UUID) ([]Item, error)
	Get(ctx context.Context, userID, id uuid.UUID) (Item, error)
	// Find looks an item up by product and variant; a nil variant only matches items without one.
	Find(ctx context.Context, userID, productID uuid.UUID, variantID *uuid.UUID) (Item, error)
	Create(ctx context.Context, item Item) (Item, error)
	UpdateQuantity(ctx context.Context, userID, id uuid.UUID, quantity int, updatedAt time.Time) (Item, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

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

func (r *InMemoryRepository) Get(_ context.Context, userID, id uuid.UUID) (Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(userID, id)
	if i < 0 {
		return Item{}, ErrNotFound
	}
	return r.items[i], nil
}

func (r *InMemoryRepository) Find(_ context.Context, userID, productID uuid.UUID, variantID *uuid.UUID) (Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, it := range r.items {
		if it.UserID == userID && it.ProductID == productID && sameVariant(it.VariantID, variantID) {
			return it, nil
		}
	}
	return Item{}, ErrNotFound
}

func (r *InMemoryRepository) Create(_ context.Context, item Item) (Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.items = append(r.items, item)
	return item, nil
}

func (r *InMemoryRepository) UpdateQuantity(_ context.Context, userID, id uuid.UUID, quantity int, updatedAt time.Time) (Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(userID, id)
	if i < 0 {
		return Item{}, ErrNotFound
	}
	r.items[i].Quantity = quantity
	r.items[i].UpdatedAt = updatedAt
	return r.items[i], nil
}

func (r *InMemoryRepository) Delete(_ context.Context, userID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(userID, id)
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

func (r *InMemoryRepository) indexOf(userID, id uuid.UUID) int {
	return slices.IndexFunc(r.items, func(it Item) bool { return it.ID == id && it.UserID == userID })
}

func sameVariant(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
