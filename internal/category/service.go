package category

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Products is the part of the catalog the category service reads.
type Products interface {
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (int, error)
}

// Service provides business logic for categories.
type Service struct {
	repo     Repository
	products Products
	now      func() time.Time
}

func NewService(repo Repository, products Products) *Service {
	return &Service{repo: repo, products: products, now: time.Now}
}

// List returns every category by name, each with its parent and direct children.
func (s *Service) List(ctx context.Context) ([]Category, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	t := newTree(all)
	return lo.Map(all, func(c Category, _ int) Category { return t.withRelations(c) }), nil
}

// Hierarchy returns the root categories with two levels of children.
func (s *Service) Hierarchy(ctx context.Context) ([]Category, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	t := newTree(all)

	roots := lo.Filter(all, func(c Category, _ int) bool { return c.ParentID == nil })
	return lo.Map(roots, func(root Category, _ int) Category {
		root.Children = lo.Map(t.children[root.ID], func(child Category, _ int) Category {
			child.Children = t.children[child.ID]
			return child
		})
		return root
	}), nil
}

// Get returns the category with its parent, children and product count.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Category, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return Category{}, err
	}
	all, err := s.repo.List(ctx)
	if err != nil {
		return Category{}, err
	}
	n, err := s.products.CountByCategory(ctx, id)
	if err != nil {
		return Category{}, err
	}

	c = newTree(all).withRelations(c)
	c.ProductCount = &n
	return c, nil
}

type Input struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Image       *string    `json:"image"`
	ParentID    *uuid.UUID `json:"parentId"`
}

func (s *Service) Create(ctx context.Context, in Input) (Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Category{}, fmt.Errorf("%w: name is required", ErrInvalid)
	}

	now := s.now().UTC()
	return s.repo.Create(ctx, Category{
		ID:          uuid.New(),
		Name:        name,
		Description: in.Description,
		Image:       in.Image,
		ParentID:    in.ParentID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

// Patch leaves nil fields unchanged.
type Patch struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Image       *string    `json:"image"`
	ParentID    *uuid.UUID `json:"parentId"`
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, p Patch) (Category, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return Category{}, err
	}

	if p.Name != nil {
		c.Name = strings.TrimSpace(*p.Name)
		if c.Name == "" {
			return Category{}, fmt.Errorf("%w: name is required", ErrInvalid)
		}
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Image != nil {
		c.Image = p.Image
	}
	if p.ParentID != nil {
		if err := s.checkParent(ctx, id, *p.ParentID); err != nil {
			return Category{}, err
		}
		c.ParentID = p.ParentID
	}

	c.UpdatedAt = s.now().UTC()
	return s.repo.Update(ctx, c)
}

// Delete refuses categories that still have children or products.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	all, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	if len(newTree(all).children[id]) > 0 {
		return fmt.Errorf("%w: category has subcategories", ErrInUse)
	}
	n, err := s.products.CountByCategory(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: category has %d products", ErrInUse, n)
	}
	return s.repo.Delete(ctx, id)
}

// checkParent rejects a parent that is the category itself or one of its descendants.
func (s *Service) checkParent(ctx context.Context, id, parentID uuid.UUID) error {
	if parentID == id {
		return fmt.Errorf("%w: category cannot be its own parent", ErrInvalid)
	}
	all, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	t := newTree(all)
	if _, ok := t.byID[parentID]; !ok {
		return ErrParentNotFound
	}
	cur := t.byID[parentID]
	for range len(all) {
		if cur.ParentID == nil {
			break
		}
		if *cur.ParentID == id {
			return fmt.Errorf("%w: parent is a subcategory of this category", ErrInvalid)
		}
		cur = t.byID[*cur.ParentID]
	}
	return nil
}

type tree struct {
	byID     map[uuid.UUID]Category
	children map[uuid.UUID][]Category
}

func newTree(all []Category) tree {
	t := tree{byID: make(map[uuid.UUID]Category, len(all)), children: make(map[uuid.UUID][]Category)}
	for _, c := range all {
		t.byID[c.ID] = c
		if c.ParentID != nil {
			t.children[*c.ParentID] = append(t.children[*c.ParentID], c)
		}
	}
	return t
}

func (t tree) withRelations(c Category) Category {
	if c.ParentID != nil {
		if p, ok := t.byID[*c.ParentID]; ok {
			c.Parent = &p
		}
	}
	c.Children = t.children[c.ID]
	return c
}
