package product

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type Filter struct {
	Search     string
	CategoryID *uuid.UUID
	Page       int
	Limit      int
}

func (f Filter) offset() int {
	return (f.Page - 1) * f.Limit
}

type Repository interface {
	// List returns one page of active products and the number of matches.
	List(ctx context.Context, f Filter) ([]Product, int, error)
	Get(ctx context.Context, id uuid.UUID) (Product, error)
	// GetMany ignores ids that do not exist.
	GetMany(ctx context.Context, ids []uuid.UUID) ([]Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	// CountByCategory counts products in the category, active or not.
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (int, error)
	// ApplyStockChanges applies every change or none of them.
	ApplyStockChanges(ctx context.Context, changes []StockChange) error
}

type InMemoryRepository struct {
	mu       sync.RWMutex
	products []Product
}

func NewInMemoryRepository(seed []Product) *InMemoryRepository {
	repo := &InMemoryRepository{products: make([]Product, 0, len(seed))}
	for _, p := range seed {
		repo.products = append(repo.products, clone(p))
	}
	return repo
}

func (r *InMemoryRepository) List(_ context.Context, f Filter) ([]Product, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]Product, 0)
	for _, p := range r.products {
		if p.IsActive && inCategory(p, f.CategoryID) && matches(p, f.Search) {
			matched = append(matched, clone(p))
		}
	}
	slices.SortStableFunc(matched, func(a, b Product) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	total := len(matched)
	start := min(f.offset(), total)
	end := min(start+f.Limit, total)
	return matched[start:end], total, nil
}

func (r *InMemoryRepository) Get(_ context.Context, id uuid.UUID) (Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return Product{}, ErrNotFound
	}
	return clone(r.products[i]), nil
}

func (r *InMemoryRepository) GetMany(_ context.Context, ids []uuid.UUID) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Product, 0, len(ids))
	for _, p := range r.products {
		if slices.Contains(ids, p.ID) {
			out = append(out, clone(p))
		}
	}
	return out, nil
}

func (r *InMemoryRepository) Create(_ context.Context, p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.products {
		if skuTaken(existing, p) {
			return Product{}, ErrSKUExists
		}
	}

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	for i := range p.Variants {
		if p.Variants[i].ID == uuid.Nil {
			p.Variants[i].ID = uuid.New()
		}
		p.Variants[i].ProductID = p.ID
	}
	r.products = append(r.products, clone(p))
	return clone(p), nil
}

func (r *InMemoryRepository) CountByCategory(_ context.Context, categoryID uuid.UUID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, p := range r.products {
		if inCategory(p, &categoryID) {
			n++
		}
	}
	return n, nil
}

func (r *InMemoryRepository) ApplyStockChanges(_ context.Context, changes []StockChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	staged := make([]Product, len(r.products))
	for i, p := range r.products {
		staged[i] = clone(p)
	}

	for _, ch := range changes {
		i := slices.IndexFunc(staged, func(p Product) bool { return p.ID == ch.ProductID })
		if i < 0 {
			return &StockError{Change: ch, Err: ErrNotFound}
		}

		stock := &staged[i].Stock
		if ch.VariantID != nil {
			j := slices.IndexFunc(staged[i].Variants, func(v Variant) bool { return v.ID == *ch.VariantID })
			if j < 0 {
				return &StockError{Change: ch, Err: ErrVariantNotFound}
			}
			stock = &staged[i].Variants[j].Stock
		}

		if *stock+ch.Delta < 0 {
			return &StockError{Change: ch, Err: ErrInsufficientStock}
		}
		*stock += ch.Delta
	}

	r.products = staged
	return nil
}

func (r *InMemoryRepository) indexOf(id uuid.UUID) int {
	return slices.IndexFunc(r.products, func(p Product) bool { return p.ID == id })
}

func inCategory(p Product, categoryID *uuid.UUID) bool {
	if categoryID == nil {
		return true
	}
	return p.CategoryID != nil && *p.CategoryID == *categoryID
}

func matches(p Product, search string) bool {
	if search == "" {
		return true
	}
	search = strings.ToLower(search)
	if strings.Contains(strings.ToLower(p.Name), search) || strings.Contains(strings.ToLower(p.Description), search) {
		return true
	}
	return p.SKU != nil && strings.Contains(strings.ToLower(*p.SKU), search)
}

func skuTaken(existing, p Product) bool {
	skus := make([]string, 0, len(p.Variants)+1)
	if p.SKU != nil {
		skus = append(skus, *p.SKU)
	}
	for _, v := range p.Variants {
		if v.SKU != nil {
			skus = append(skus, *v.SKU)
		}
	}

	if existing.SKU != nil && slices.Contains(skus, *existing.SKU) {
		return true
	}
	for _, v := range existing.Variants {
		if v.SKU != nil && slices.Contains(skus, *v.SKU) {
			return true
		}
	}
	return false
}

func clone(p Product) Product {
	p.Variants = slices.Clone(p.Variants)
	if p.Variants == nil {
		p.Variants = []Variant{}
	}
	return p
}
