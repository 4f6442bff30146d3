package product

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type Page struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}

func (s *Service) List(ctx context.Context, f Filter) (Page, error) {
	f.Search = strings.TrimSpace(f.Search)
	if f.Page < 1 {
		f.Page = defaultPage
	}
	if f.Limit < 1 {
		f.Limit = defaultLimit
	}
	f.Limit = min(f.Limit, maxLimit)

	products, total, err := s.repo.List(ctx, f)
	if err != nil {
		return Page{}, err
	}

	return Page{
		Products: products,
		Pagination: Pagination{
			Page:       f.Page,
			Limit:      f.Limit,
			Total:      total,
			TotalPages: (total + f.Limit - 1) / f.Limit,
		},
	}, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Product, error) {
	return s.repo.Get(ctx, id)
}

// Lookup returns the requested products keyed by id.
func (s *Service) Lookup(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Product, error) {
	products, err := s.repo.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]Product, len(products))
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, p Product) (Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	if err := validate(p); err != nil {
		return Product{}, err
	}

	now := s.now().UTC()
	p.ID = uuid.New()
	p.CreatedAt, p.UpdatedAt = now, now
	for i := range p.Variants {
		p.Variants[i].ID = uuid.New()
		p.Variants[i].ProductID = p.ID
		p.Variants[i].CreatedAt, p.Variants[i].UpdatedAt = now, now
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int, error) {
	return s.repo.CountByCategory(ctx, categoryID)
}

func (s *Service) ApplyStockChanges(ctx context.Context, changes []StockChange) error {
	return s.repo.ApplyStockChanges(ctx, changes)
}

func validate(p Product) error {
	switch {
	case p.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalid)
	case p.Price.IsNegative():
		return fmt.Errorf("%w: price must not be negative", ErrInvalid)
	case p.Stock < 0:
		return fmt.Errorf("%w: stock must not be negative", ErrInvalid)
	}
	for _, v := range p.Variants {
		switch {
		case strings.TrimSpace(v.Name) == "":
			return fmt.Errorf("%w: variant name is required", ErrInvalid)
		case v.Price.IsNegative():
			return fmt.Errorf("%w: variant %s price must not be negative", ErrInvalid, v.Name)
		case v.Stock < 0:
			return fmt.Errorf("%w: variant %s stock must not be negative", ErrInvalid, v.Name)
		}
	}
	return nil
}
