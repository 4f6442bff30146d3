package order

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/storefront-backend/internal/address"
	"github.com/wichananm65/storefront-backend/internal/metrics"
	"github.com/wichananm65/storefront-backend/internal/product"
)

// seqNumbers hands out ORD-TEST-1, ORD-TEST-2, ...
type seqNumbers struct {
	mu sync.Mutex
	n  int
}

func (g *seqNumbers) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("ORD-TEST-%d", g.n)
}

type fixedNumber string

func (n fixedNumber) Next() string { return string(n) }

// tickingClock advances one second on every call so creation order is observable.
type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type orderFixture struct {
	service  *Service
	repo     *InMemoryRepository
	products *product.InMemoryRepository
	metrics  *metrics.OrderMetrics
	logs     *test.Hook

	owner    uuid.UUID
	stranger uuid.UUID
	home     address.Address
	office   address.Address
	foreign  address.Address

	kibble product.Product
	bed    product.Product
	large  product.Variant
}

func newOrderFixture(opts ...Option) *orderFixture {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	f := &orderFixture{owner: uuid.New(), stranger: uuid.New()}

	f.home = address.Address{
		ID: uuid.New(), UserID: f.owner, Type: address.TypeShipping, Name: "Kim Minji", Phone: "010-1234-5678",
		Address1: "12 Teheran-ro", City: "Seoul", PostalCode: "06234", Country: address.DefaultCountry, IsDefault: true,
		CreatedAt: now, UpdatedAt: now,
	}
	f.office = address.Address{
		ID: uuid.New(), UserID: f.owner, Type: address.TypeBilling, Name: "Kim Minji", Phone: "010-1234-5678",
		Address1: "1 Sejong-daero", City: "Seoul", PostalCode: "04524", Country: address.DefaultCountry,
		CreatedAt: now, UpdatedAt: now,
	}
	f.foreign = address.Address{
		ID: uuid.New(), UserID: f.stranger, Type: address.TypeShipping, Name: "Park Jisoo", Phone: "010-9999-0000",
		Address1: "77 Haeundae-ro", City: "Busan", PostalCode: "48099", Country: address.DefaultCountry, IsDefault: true,
		CreatedAt: now, UpdatedAt: now,
	}

	f.kibble = product.Product{
		ID: uuid.New(), Name: "Kibble", SKU: lo.ToPtr("KIB-1"), Price: decimal.NewFromInt(20000), Stock: 10, IsActive: true,
		CreatedAt: now, UpdatedAt: now,
	}
	bedID := uuid.New()
	f.large = product.Variant{ID: uuid.New(), ProductID: bedID, Name: "Large", SKU: lo.ToPtr("BED-L"), Price: decimal.NewFromInt(45000), Stock: 3}
	f.bed = product.Product{
		ID: bedID, Name: "Bed", SKU: lo.ToPtr("BED"), Price: decimal.NewFromInt(30000), Stock: 0, IsActive: true,
		Variants: []product.Variant{f.large}, CreatedAt: now, UpdatedAt: now,
	}

	f.products = product.NewInMemoryRepository([]product.Product{f.kibble, f.bed})
	f.repo = NewInMemoryRepository(f.products)
	f.metrics = metrics.NewOrderMetrics(prometheus.NewRegistry())

	var logger *logrus.Logger
	logger, f.logs = test.NewNullLogger()

	clock := &tickingClock{now: now}
	base := []Option{
		WithNumberGenerator(&seqNumbers{}),
		WithLogger(logger),
		WithRecorder(f.metrics),
		WithClock(clock.Now),
	}
	addresses := address.NewService(address.NewInMemoryRepository([]address.Address{f.home, f.office, f.foreign}))
	f.service = NewService(f.repo, addresses, product.NewService(f.products), DefaultPricing(), append(base, opts...)...)
	return f
}

func (f *orderFixture) request(items ...ItemRequest) CreateRequest {
	return CreateRequest{
		ShippingAddressID: f.home.ID,
		BillingAddressID:  f.office.ID,
		ShippingMethod:    ShippingStandard,
		Items:             items,
	}
}

func (f *orderFixture) stock(t *testing.T, productID uuid.UUID, variantID *uuid.UUID) int {
	t.Helper()
	p, err := f.products.Get(context.Background(), productID)
	require.NoError(t, err)
	if variantID == nil {
		return p.Stock
	}
	v, ok := p.Variant(*variantID)
	require.True(t, ok)
	return v.Stock
}
