package order

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wichananm65/storefront-backend/internal/product"
)

type ListFilter struct {
	Status      *Status
	OrderNumber string
	Page        int
	Limit       int
}

func (f ListFilter) offset() int {
	return (f.Page - 1) * f.Limit
}

// Change is what an UpdateFunc decides to write.
type Change struct {
	Status    *Status
	Notes     *string
	Restock   bool
	UpdatedAt time.Time
}

// UpdateFunc inspects the current order, read under lock, and returns the change to apply.
type UpdateFunc func(current Order) (Change, error)

type Repository interface {
	// Create stores the order, its items and shipping record and decrements
	// stock for every item as one unit; nothing is kept when a step fails.
	Create(ctx context.Context, o Order) (Order, error)
	// List returns one page of the user's orders, newest first, and the number of matches.
	List(ctx context.Context, userID uuid.UUID, f ListFilter) ([]Order, int, error)
	Get(ctx context.Context, userID, id uuid.UUID) (Order, error)
	// Update serializes with other updates of the same order. When the change
	// asks for it, stock of every item is restored in the same unit.
	Update(ctx context.Context, userID, id uuid.UUID, fn UpdateFunc) (Order, error)
}

// Inventory applies stock changes atomically.
type Inventory interface {
	ApplyStockChanges(ctx context.Context, changes []product.StockChange) error
}

type InMemoryRepository struct {
	mu        sync.RWMutex
	orders    []Order
	inventory Inventory
}

func NewInMemoryRepository(inventory Inventory) *InMemoryRepository {
	return &InMemoryRepository{inventory: inventory}
}

func (r *InMemoryRepository) Create(ctx context.Context, o Order) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if slices.ContainsFunc(r.orders, func(existing Order) bool { return existing.OrderNumber == o.OrderNumber }) {
		return Order{}, ErrNumberTaken
	}
	if err := r.inventory.ApplyStockChanges(ctx, stockChanges(o.Items, -1)); err != nil {
		return Order{}, err
	}

	r.orders = append(r.orders, cloneOrder(o))
	return cloneOrder(o), nil
}

func (r *InMemoryRepository) List(_ context.Context, userID uuid.UUID, f ListFilter) ([]Order, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]Order, 0)
	for _, o := range r.orders {
		if o.UserID != userID {
			continue
		}
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		if f.OrderNumber != "" && !strings.Contains(o.OrderNumber, f.OrderNumber) {
			continue
		}
		matched = append(matched, cloneOrder(o))
	}
	slices.SortStableFunc(matched, func(a, b Order) int { return b.CreatedAt.Compare(a.CreatedAt) })

	total := len(matched)
	start := min(f.offset(), total)
	end := min(start+f.Limit, total)
	return matched[start:end], total, nil
}

func (r *InMemoryRepository) Get(_ context.Context, userID, id uuid.UUID) (Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(userID, id)
	if i < 0 {
		return Order{}, ErrNotFound
	}
	return cloneOrder(r.orders[i]), nil
}

func (r *InMemoryRepository) Update(ctx context.Context, userID, id uuid.UUID, fn UpdateFunc) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(userID, id)
	if i < 0 {
		return Order{}, ErrNotFound
	}

	change, err := fn(cloneOrder(r.orders[i]))
	if err != nil {
		return Order{}, err
	}

	if change.Restock {
		if err := r.inventory.ApplyStockChanges(ctx, stockChanges(r.orders[i].Items, 1)); err != nil {
			return Order{}, err
		}
	}

	o := &r.orders[i]
	if change.Status != nil {
		o.Status = *change.Status
	}
	if change.Notes != nil {
		o.Notes = change.Notes
	}
	o.UpdatedAt = change.UpdatedAt
	return cloneOrder(*o), nil
}

func (r *InMemoryRepository) indexOf(userID, id uuid.UUID) int {
	return slices.IndexFunc(r.orders, func(o Order) bool { return o.ID == id && o.UserID == userID })
}

func cloneOrder(o Order) Order {
	o.Items = slices.Clone(o.Items)
	if o.Shipping != nil {
		s := *o.Shipping
		o.Shipping = &s
	}
	return o
}
