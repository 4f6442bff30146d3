package category

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Repository provides access to category rows.
type Repository interface {
	// List returns every category ordered by name.
	List(ctx context.Context) ([]Category, error)
	Get(ctx context.Context, id uuid.UUID) (Category, error)
	Create(ctx context.Context, c Category) (Category, error)
	// Update overwrites the stored row with c.
	Update(ctx context.Context, c Category) (Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu         sync.RWMutex
	categories []Category
}

func NewInMemoryRepository(seed []Category) *InMemoryRepository {
	r := &InMemoryRepository{categories: make([]Category, 0, len(seed))}
	for _, c := range seed {
		r.categories = append(r.categories, c.plain())
	}
	return r
}

func (r *InMemoryRepository) List(_ context.Context) ([]Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := slices.Clone(r.categories)
	slices.SortStableFunc(out, func(a, b Category) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

func (r *InMemoryRepository) Get(_ context.Context, id uuid.UUID) (Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return Category{}, ErrNotFound
	}
	return r.categories[i], nil
}

func (r *InMemoryRepository) Create(_ context.Context, c Category) (Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.ParentID != nil && r.indexOf(*c.ParentID) < 0 {
		return Category{}, ErrParentNotFound
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c = c.plain()
	r.categories = append(r.categories, c)
	return c, nil
}

func (r *InMemoryRepository) Update(_ context.Context, c Category) (Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(c.ID)
	if i < 0 {
		return Category{}, ErrNotFound
	}
	if c.ParentID != nil && r.indexOf(*c.ParentID) < 0 {
		return Category{}, ErrParentNotFound
	}
	r.categories[i] = c.plain()
	return r.categories[i], nil
}

func (r *InMemoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	if slices.ContainsFunc(r.categories, func(c Category) bool { return c.ParentID != nil && *c.ParentID == id }) {
		return ErrInUse
	}
	r.categories = slices.Delete(r.categories, i, i+1)
	return nil
}

func (r *InMemoryRepository) indexOf(id uuid.UUID) int {
	return slices.IndexFunc(r.categories, func(c Category) bool { return c.ID == id })
}
