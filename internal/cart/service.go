package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/wichananm65/storefront-backend/internal/product"
)

var ErrInvalid = errors.New("invalid cart request")

// Catalog is the part of the product service the cart reads.
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

func (s *Service) Get(ctx context.Context, userID uuid.UUID) (Cart, error) {
	items, err := s.repo.List(ctx, userID)
	if err != nil {
		return Cart{}, err
	}

	ids := lo.Uniq(lo.Map(items, func(it Item, _ int) uuid.UUID { return it.ProductID }))
	products, err := s.catalog.Lookup(ctx, ids)
	if err != nil {
		return Cart{}, err
	}

	cart := Cart{Items: make([]Line, 0, len(items)), TotalPrice: decimal.Zero}
	for _, it := range items {
		p, ok := products[it.ProductID]
		if !ok {
			continue
		}
		line, err := price(it, p)
		if err != nil {
			continue
		}
		cart.Items = append(cart.Items, line)
		cart.TotalItems += it.Quantity
		cart.TotalPrice = cart.TotalPrice.Add(line.TotalPrice)
	}
	return cart, nil
}

type AddRequest struct {
	ProductID uuid.UUID  `json:"productId"`
	VariantID *uuid.UUID `json:"variantId"`
	Quantity  int        `json:"quantity"`
}

// Add puts a product in the cart, merging with an existing line for the same product and variant.
func (s *Service) Add(ctx context.Context, userID uuid.UUID, req AddRequest) (Line, error) {
	if err := checkQuantity(req.Quantity); err != nil {
		return Line{}, err
	}

	p, err := s.catalog.Get(ctx, req.ProductID)
	if err != nil {
		return Line{}, err
	}
	if !p.IsActive {
		return Line{}, fmt.Errorf("%w: product %s is not available", ErrInvalid, p.Name)
	}

	line, err := price(Item{ProductID: p.ID, VariantID: req.VariantID, Quantity: req.Quantity}, p)
	if err != nil {
		return Line{}, err
	}
	if line.Stock < req.Quantity {
		return Line{}, fmt.Errorf("%w: insufficient stock for %s", ErrInvalid, p.Name)
	}

	now := s.now().UTC()
	existing, err := s.repo.Find(ctx, userID, req.ProductID, req.VariantID)
	switch {
	case err == nil:
		quantity := existing.Quantity + req.Quantity
		if quantity > MaxQuantity {
			return Line{}, fmt.Errorf("%w: quantity cannot exceed %d", ErrInvalid, MaxQuantity)
		}
		updated, err := s.repo.UpdateQuantity(ctx, userID, existing.ID, quantity, now)
		if err != nil {
			return Line{}, err
		}
		return price(updated, p)
	case errors.Is(err, ErrNotFound):
		created, err := s.repo.Create(ctx, Item{
			ID:        uuid.New(),
			UserID:    userID,
			ProductID: req.ProductID,
			VariantID: req.VariantID,
			Quantity:  req.Quantity,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return Line{}, err
		}
		return price(created, p)
	default:
		return Line{}, err
	}
}

func (s *Service) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (Line, error) {
	if err := checkQuantity(quantity); err != nil {
		return Line{}, err
	}

	it, err := s.repo.Get(ctx, userID, itemID)
	if err != nil {
		return Line{}, err
	}
	p, err := s.catalog.Get(ctx, it.ProductID)
	if err != nil {
		return Line{}, err
	}

	line, err := price(it, p)
	if err != nil {
		return Line{}, err
	}
	if line.Stock < quantity {
		return Line{}, fmt.Errorf("%w: insufficient stock for %s", ErrInvalid, p.Name)
	}

	updated, err := s.repo.UpdateQuantity(ctx, userID, itemID, quantity, s.now().UTC())
	if err != nil {
		return Line{}, err
	}
	return price(updated, p)
}

func (s *Service) Remove(ctx context.Context, userID, itemID uuid.UUID) error {
	return s.repo.Delete(ctx, userID, itemID)
}

func (s *Service) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.repo.Clear(ctx, userID)
}

func checkQuantity(quantity int) error {
	if quantity < MinQuantity || quantity > MaxQuantity {
		return fmt.Errorf("%w: quantity must be between %d and %d", ErrInvalid, MinQuantity, MaxQuantity)
	}
	return nil
}

// price resolves the unit price and stock from the variant when the item has one.
func price(it Item, p product.Product) (Line, error) {
	line := Line{Item: it, ProductName: p.Name, UnitPrice: p.Price, Stock: p.Stock}
	if it.VariantID != nil {
		v, ok := p.Variant(*it.VariantID)
		if !ok {
			return Line{}, product.ErrVariantNotFound
		}
		line.VariantName = lo.ToPtr(v.Name)
		line.UnitPrice = v.Price
		line.Stock = v.Stock
	}
	line.TotalPrice = line.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
	return line, nil
}
