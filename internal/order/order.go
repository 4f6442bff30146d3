package order

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/wichananm65/storefront-backend/internal/address"
	"github.com/wichananm65/storefront-backend/internal/product"
)

var (
	ErrNotFound       = errors.New("order not found")
	ErrInvalidRequest = errors.New("invalid order request")
	ErrNumberTaken    = errors.New("order number already exists")
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
	StatusRefunded   Status = "REFUNDED"
)

var statuses = []Status{
	StatusPending, StatusConfirmed, StatusProcessing, StatusShipped,
	StatusDelivered, StatusCancelled, StatusRefunded,
}

func (s Status) Valid() bool {
	return lo.Contains(statuses, s)
}

type ShippingMethod string

const (
	ShippingStandard ShippingMethod = "STANDARD"
	ShippingExpress  ShippingMethod = "EXPRESS"
	ShippingSameDay  ShippingMethod = "SAME_DAY"
)

func (m ShippingMethod) Valid() bool {
	return m == ShippingStandard || m == ShippingExpress || m == ShippingSameDay
}

// ShippingStatusPending is the status of a freshly created shipping record.
const ShippingStatusPending = "PENDING"

type Order struct {
	ID                uuid.UUID        `json:"id"`
	OrderNumber       string           `json:"orderNumber"`
	UserID            uuid.UUID        `json:"userId"`
	Status            Status           `json:"status"`
	Subtotal          decimal.Decimal  `json:"subtotal"`
	TaxAmount         decimal.Decimal  `json:"taxAmount"`
	ShippingAmount    decimal.Decimal  `json:"shippingAmount"`
	TotalAmount       decimal.Decimal  `json:"totalAmount"`
	Currency          string           `json:"currency"`
	Notes             *string          `json:"notes,omitempty"`
	ShippingAddressID uuid.UUID        `json:"shippingAddressId"`
	BillingAddressID  uuid.UUID        `json:"billingAddressId"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
	Items             []Item           `json:"items"`
	Shipping          *Shipping        `json:"shipping,omitempty"`
	ShippingAddress   *address.Address `json:"shippingAddress,omitempty"`
	BillingAddress    *address.Address `json:"billingAddress,omitempty"`
}

// Item prices are frozen at creation time.
type Item struct {
	ID          uuid.UUID       `json:"id"`
	OrderID     uuid.UUID       `json:"orderId"`
	ProductID   uuid.UUID       `json:"productId"`
	VariantID   *uuid.UUID      `json:"variantId,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
	CreatedAt   time.Time       `json:"createdAt"`
	ProductName string          `json:"productName"`
	VariantName *string         `json:"variantName,omitempty"`
}

type Shipping struct {
	ID             uuid.UUID      `json:"id"`
	OrderID        uuid.UUID      `json:"orderId"`
	Method         ShippingMethod `json:"method"`
	Status         string         `json:"status"`
	TrackingNumber *string        `json:"trackingNumber,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// stockChanges maps every item to a change of sign*quantity on the variant or product counter.
func stockChanges(items []Item, sign int) []product.StockChange {
	return lo.Map(items, func(it Item, _ int) product.StockChange {
		return product.StockChange{ProductID: it.ProductID, VariantID: it.VariantID, Delta: sign * it.Quantity}
	})
}
