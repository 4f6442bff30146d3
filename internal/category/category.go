package category

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("category not found")
	ErrParentNotFound = errors.New("parent category not found")
	ErrInvalid        = errors.New("invalid category")
	ErrInUse          = errors.New("category is in use")
)

// Category is a node in the catalog tree. Parent and Children are filled by
// the service and only ever carry plain categories one level deep, except in
// the hierarchy view.
type Category struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Image        *string    `json:"image,omitempty"`
	ParentID     *uuid.UUID `json:"parentId,omitempty"`
	Parent       *Category  `json:"parent,omitempty"`
	Children     []Category `json:"children,omitempty"`
	ProductCount *int       `json:"productCount,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// plain drops the attached relations.
func (c Category) plain() Category {
	c.Parent, c.Children, c.ProductCount = nil, nil, nil
	return c
}
