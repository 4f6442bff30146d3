package product

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("product not found")
	ErrVariantNotFound   = errors.New("product variant not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrSKUExists         = errors.New("sku already exists")
	ErrInvalid           = errors.New("invalid product")
)

type Product struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	SKU         *string         `json:"sku,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	IsActive    bool            `json:"isActive"`
	CategoryID  *uuid.UUID      `json:"categoryId,omitempty"`
	Variants    []Variant       `json:"variants"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type Variant struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	SKU       *string         `json:"sku,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Variant returns the variant with the given id among the product's variants.
func (p Product) Variant(id uuid.UUID) (Variant, bool) {
	for _, v := range p.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}

// StockChange adds Delta to the stock of the variant, or of the product when
// VariantID is nil. A negative Delta is a decrement.
type StockChange struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Delta     int
}

func (c StockChange) String() string {
	if c.VariantID != nil {
		return fmt.Sprintf("product %s variant %s (%+d)", c.ProductID, *c.VariantID, c.Delta)
	}
	return fmt.Sprintf("product %s (%+d)", c.ProductID, c.Delta)
}

// StockError reports the change that could not be applied.
type StockError struct {
	Change StockChange
	Err    error
}

func (e *StockError) Error() string {
	return fmt.Sprintf("%s: %v", e.Change, e.Err)
}

func (e *StockError) Unwrap() error {
	return e.Err
}
