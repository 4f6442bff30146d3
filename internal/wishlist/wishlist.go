package wishlist

import (
	"time"

	"github.com/google/uuid"
	"github.com/wichananm65/storefront-backend/internal/product"
)

type Item struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"userId"`
	ProductID uuid.UUID  `json:"productId"`
	VariantID *uuid.UUID `json:"variantId,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Entry is a wishlist item with the current catalog data attached.
type Entry struct {
	Item
	Product product.Product  `json:"product"`
	Variant *product.Variant `json:"variant,omitempty"`
}

type Wishlist struct {
	Items      []Entry `json:"items"`
	TotalItems int     `json:"totalItems"`
}
