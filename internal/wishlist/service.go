package wishlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/wichananm65/storefront-backend/internal/product"
)

var ErrInvalid = errors.New("invalid wishlist request")

// Catalog is the part of the product service the wishlist reads.
type Catalog interface {
	Get(ctx context.Context, id uuid.UUID) (product.Product, error)
	Lookup(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]product.Product, error)
}

type Service struct {
	repo    Repository
	catalog Catalog
	now     func() time.Time
}

func NewService(repo Repository, catalog Catalog) *Service {
	return &Service{repo: repo, catalog: catalog, now: time.Now}
}

// Get returns the user's wishlist, skipping entries whose product or variant is gone.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (Wishlist, error) {
	items, err := s.repo.List(ctx, userID)
	if err != nil {
		return Wishlist{}, err
	}

	ids := lo.Uniq(lo.Map(items, func(it Item, _ int) uuid.UUID { return it.ProductID }))
	products, err := s.catalog.Lookup(ctx, ids)
	if err != nil {
		return Wishlist{}, err
	}

	list := Wishlist{Items: make([]Entry, 0, len(items))}
	for _, it := range items {
		p, ok := products[it.ProductID]
		if !ok {
			continue
		}
		e, err := entry(it, p)
		if err != nil {
			continue
		}
		list.Items = append(list.Items, e)
	}
	list.TotalItems = len(list.Items)
	return list, nil
}

type AddRequest struct {
	ProductID uuid.UUID  `json:"productId"`
	VariantID *uuid.UUID `json:"variantId"`
}

func (s *Service) Add(ctx context.Context, userID uuid.UUID, req AddRequest) (Entry, error) {
	p, err := s.catalog.Get(ctx, req.ProductID)
	if err != nil {
		return Entry{}, err
	}
	if !p.IsActive {
		return Entry{}, fmt.Errorf("%w: product %s is not available", ErrInvalid, p.Name)
	}
	if req.VariantID != nil {
		if _, ok := p.Variant(*req.VariantID); !ok {
			return Entry{}, product.ErrVariantNotFound
		}
	}

	switch _, err := s.repo.Find(ctx, userID, req.ProductID, req.VariantID); {
	case err == nil:
		return Entry{}, ErrAlreadyInWishlist
	case !errors.Is(err, ErrNotFound):
		return Entry{}, err
	}

	created, err := s.repo.Create(ctx, Item{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return Entry{}, err
	}
	return entry(created, p)
}

// Contains reports whether the product, and the variant when given, is saved.
func (s *Service) Contains(ctx context.Context, userID, productID uuid.UUID, variantID *uuid.UUID) (bool, error) {
	_, err := s.repo.Find(ctx, userID, productID, variantID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (s *Service) Remove(ctx context.Context, userID, itemID uuid.UUID) error {
	return s.repo.Delete(ctx, userID, itemID)
}

func (s *Service) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.repo.Clear(ctx, userID)
}

func entry(it Item, p product.Product) (Entry, error) {
	e := Entry{Item: it, Product: p}
	if it.VariantID != nil {
		v, ok := p.Variant(*it.VariantID)
		if !ok {
			return Entry{}, product.ErrVariantNotFound
		}
		e.Variant = &v
	}
	return e, nil
}
