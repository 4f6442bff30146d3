package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/wichananm65/storefront-backend/internal/address"
	"github.com/wichananm65/storefront-backend/internal/logging"
	"github.com/wichananm65/storefront-backend/internal/product"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// AddressBook resolves addresses owned by a user.
type AddressBook interface {
	FindForUser(ctx context.Context, userID uuid.UUID, ids ...uuid.UUID) ([]address.Address, error)
}

// Catalog resolves products with their variants and current stock.
type Catalog interface {
	Lookup(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]product.Product, error)
}

// Recorder receives order events for metrics.
type Recorder interface {
	OrderCreated(shippingMethod, currency string, total decimal.Decimal)
	OrderCancelled()
}

type nopRecorder struct{}

func (nopRecorder) OrderCreated(string, string, decimal.Decimal) {}
func (nopRecorder) OrderCancelled()                              {}

type Service struct {
	repo      Repository
	addresses AddressBook
	catalog   Catalog
	pricing   Pricing
	numbers   NumberGenerator
	allowed   TransitionPolicy
	log       logrus.FieldLogger
	recorder  Recorder
	now       func() time.Time
}

type Option func(*Service)

func WithNumberGenerator(g NumberGenerator) Option {
	return func(s *Service) { s.numbers = g }
}

func WithTransitionPolicy(p TransitionPolicy) Option {
	return func(s *Service) { s.allowed = p }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Service) { s.log = log }
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, addresses AddressBook, catalog Catalog, pricing Pricing, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		addresses: addresses,
		catalog:   catalog,
		pricing:   pricing,
		numbers:   NewTimestampNumbers(),
		allowed:   Permissive,
		log:       logrus.StandardLogger(),
		recorder:  nopRecorder{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type ItemRequest struct {
	ProductID uuid.UUID  `json:"productId"`
	VariantID *uuid.UUID `json:"variantId"`
	Quantity  int        `json:"quantity"`
}

type CreateRequest struct {
	ShippingAddressID uuid.UUID      `json:"shippingAddressId"`
	BillingAddressID  uuid.UUID      `json:"billingAddressId"`
	ShippingMethod    ShippingMethod `json:"shippingMethod"`
	Notes             *string        `json:"notes"`
	Items             []ItemRequest  `json:"items"`
}

func (r CreateRequest) validate() error {
	switch {
	case r.ShippingAddressID == uuid.Nil || r.BillingAddressID == uuid.Nil:
		return fmt.Errorf("%w: shippingAddressId and billingAddressId are required", ErrInvalidRequest)
	case !r.ShippingMethod.Valid():
		return fmt.Errorf("%w: unknown shipping method %q", ErrInvalidRequest, r.ShippingMethod)
	case len(r.Items) == 0:
		return fmt.Errorf("%w: order has no items", ErrInvalidRequest)
	}
	for _, it := range r.Items {
		if it.ProductID == uuid.Nil {
			return fmt.Errorf("%w: productId is required", ErrInvalidRequest)
		}
		if it.Quantity < 1 {
			return fmt.Errorf("%w: quantity must be at least 1", ErrInvalidRequest)
		}
	}
	return nil
}

// Create prices the request against the live catalog and places the order.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, req CreateRequest) (Order, error) {
	if err := req.validate(); err != nil {
		return Order{}, err
	}

	addrs, err := s.addresses.FindForUser(ctx, userID, req.ShippingAddressID, req.BillingAddressID)
	if err != nil {
		return Order{}, fmt.Errorf("find addresses: %w", err)
	}
	byID := lo.KeyBy(addrs, func(a address.Address) uuid.UUID { return a.ID })
	shippingAddr, okShipping := byID[req.ShippingAddressID]
	billingAddr, okBilling := byID[req.BillingAddressID]
	if !okShipping || !okBilling {
		return Order{}, fmt.Errorf("%w: shipping or billing address does not exist", ErrInvalidRequest)
	}

	productIDs := lo.Uniq(lo.Map(req.Items, func(it ItemRequest, _ int) uuid.UUID { return it.ProductID }))
	products, err := s.catalog.Lookup(ctx, productIDs)
	if err != nil {
		return Order{}, fmt.Errorf("lookup products: %w", err)
	}

	now := s.now().UTC()
	o := Order{
		ID:                uuid.New(),
		OrderNumber:       s.numbers.Next(),
		UserID:            userID,
		Status:            StatusPending,
		Currency:          s.pricing.Currency.String(),
		Notes:             req.Notes,
		ShippingAddressID: req.ShippingAddressID,
		BillingAddressID:  req.BillingAddressID,
		CreatedAt:         now,
		UpdatedAt:         now,
		Items:             make([]Item, 0, len(req.Items)),
	}

	subtotal := decimal.Zero
	for _, line := range req.Items {
		it, err := priceItem(line, products)
		if err != nil {
			return Order{}, err
		}
		it.ID = uuid.New()
		it.OrderID = o.ID
		it.CreatedAt = now
		o.Items = append(o.Items, it)
		subtotal = subtotal.Add(it.TotalPrice)
	}

	quote := s.pricing.Quote(req.ShippingMethod, subtotal)
	o.Subtotal = quote.Subtotal
	o.ShippingAmount = quote.Shipping
	o.TaxAmount = quote.Tax
	o.TotalAmount = quote.Total
	o.Shipping = &Shipping{
		ID:        uuid.New(),
		OrderID:   o.ID,
		Method:    req.ShippingMethod,
		Status:    ShippingStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.repo.Create(ctx, o)
	if err != nil {
		return Order{}, stockErrorToRequest(err, products)
	}
	created.ShippingAddress = &shippingAddr
	created.BillingAddress = &billingAddr

	s.log.WithFields(logrus.Fields{
		logging.FieldOrderID:     created.ID,
		logging.FieldOrderNumber: created.OrderNumber,
		logging.FieldUserID:      userID,
		logging.FieldStep:        "create",
	}).Info("order created")
	s.recorder.OrderCreated(string(req.ShippingMethod), created.Currency, created.TotalAmount)

	return created, nil
}

// priceItem resolves the unit price and checks stock of one requested line.
func priceItem(line ItemRequest, products map[uuid.UUID]product.Product) (Item, error) {
	p, ok := products[line.ProductID]
	if !ok {
		return Item{}, fmt.Errorf("product %s: %w", line.ProductID, product.ErrNotFound)
	}

	it := Item{
		ProductID:   p.ID,
		VariantID:   line.VariantID,
		Quantity:    line.Quantity,
		Price:       p.Price,
		ProductName: p.Name,
	}
	name, stock := p.Name, p.Stock
	if line.VariantID != nil {
		v, ok := p.Variant(*line.VariantID)
		if !ok {
			return Item{}, fmt.Errorf("variant %s: %w", *line.VariantID, product.ErrVariantNotFound)
		}
		it.Price = v.Price
		it.VariantName = lo.ToPtr(v.Name)
		name, stock = v.Name, v.Stock
	}

	if stock < line.Quantity {
		return Item{}, fmt.Errorf("%w: insufficient stock for %s", ErrInvalidRequest, name)
	}

	it.TotalPrice = it.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
	return it, nil
}

// stockErrorToRequest turns a stock counter that ran short while committing into ErrInvalidRequest.
func stockErrorToRequest(err error, products map[uuid.UUID]product.Product) error {
	var se *product.StockError
	if !errors.As(err, &se) || !errors.Is(se.Err, product.ErrInsufficientStock) {
		return err
	}

	name := se.Change.ProductID.String()
	if p, ok := products[se.Change.ProductID]; ok {
		name = p.Name
		if se.Change.VariantID != nil {
			if v, ok := p.Variant(*se.Change.VariantID); ok {
				name = v.Name
			}
		}
	}
	return fmt.Errorf("%w: insufficient stock for %s", ErrInvalidRequest, name)
}

type ListQuery struct {
	Status      *Status
	OrderNumber string
	Page        int
	Limit       int
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type ListResult struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, q ListQuery) (ListResult, error) {
	if q.Status != nil && !q.Status.Valid() {
		return ListResult{}, fmt.Errorf("%w: unknown status %q", ErrInvalidRequest, *q.Status)
	}
	if q.Page < 1 {
		q.Page = defaultPage
	}
	if q.Limit < 1 {
		q.Limit = defaultLimit
	}
	q.Limit = min(q.Limit, maxLimit)

	orders, total, err := s.repo.List(ctx, userID, ListFilter{
		Status:      q.Status,
		OrderNumber: strings.TrimSpace(q.OrderNumber),
		Page:        q.Page,
		Limit:       q.Limit,
	})
	if err != nil {
		return ListResult{}, err
	}

	if err := s.attachAddresses(ctx, userID, orders); err != nil {
		return ListResult{}, err
	}

	return ListResult{
		Orders: orders,
		Pagination: Pagination{
			Page:  q.Page,
			Limit: q.Limit,
			Total: total,
			Pages: (total + q.Limit - 1) / q.Limit,
		},
	}, nil
}

func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (Order, error) {
	o, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return Order{}, err
	}
	orders := []Order{o}
	if err := s.attachAddresses(ctx, userID, orders); err != nil {
		return Order{}, err
	}
	return orders[0], nil
}

type Patch struct {
	Status *Status `json:"status"`
	Notes  *string `json:"notes"`
}

// Update applies patch. Moving a not yet cancelled order to CANCELLED restores
// the stock of every item; cancelling twice restores nothing.
func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, patch Patch) (Order, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return Order{}, fmt.Errorf("%w: unknown status %q", ErrInvalidRequest, *patch.Status)
	}

	var from Status
	restocked := false
	updated, err := s.repo.Update(ctx, userID, id, func(current Order) (Change, error) {
		from = current.Status
		change := Change{Status: patch.Status, Notes: patch.Notes, UpdatedAt: s.now().UTC()}
		if patch.Status == nil {
			return change, nil
		}
		if !s.allowed(current.Status, *patch.Status) {
			return Change{}, fmt.Errorf("%w: cannot move order from %s to %s", ErrInvalidRequest, current.Status, *patch.Status)
		}
		change.Restock = *patch.Status == StatusCancelled && current.Status != StatusCancelled
		restocked = change.Restock
		return change, nil
	})
	if err != nil {
		return Order{}, err
	}

	entry := s.log.WithFields(logrus.Fields{
		logging.FieldOrderID:     updated.ID,
		logging.FieldOrderNumber: updated.OrderNumber,
		logging.FieldUserID:      userID,
		logging.FieldStatus:      updated.Status,
	})
	if restocked {
		entry.WithField(logging.FieldStep, "cancel").Info("order cancelled, stock restored")
		s.recorder.OrderCancelled()
	} else if from != updated.Status {
		entry.WithField(logging.FieldStep, "update").Infof("order status changed from %s", from)
	}

	orders := []Order{updated}
	if err := s.attachAddresses(ctx, userID, orders); err != nil {
		return Order{}, err
	}
	return orders[0], nil
}

func (s *Service) Cancel(ctx context.Context, userID, id uuid.UUID) (Order, error) {
	return s.Update(ctx, userID, id, Patch{Status: lo.ToPtr(StatusCancelled)})
}

// attachAddresses resolves the addresses of all orders with one lookup.
func (s *Service) attachAddresses(ctx context.Context, userID uuid.UUID, orders []Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, 2*len(orders))
	for _, o := range orders {
		ids = append(ids, o.ShippingAddressID, o.BillingAddressID)
	}
	addrs, err := s.addresses.FindForUser(ctx, userID, lo.Uniq(ids)...)
	if err != nil {
		return fmt.Errorf("find addresses: %w", err)
	}

	byID := lo.KeyBy(addrs, func(a address.Address) uuid.UUID { return a.ID })
	for i := range orders {
		if a, ok := byID[orders[i].ShippingAddressID]; ok {
			orders[i].ShippingAddress = &a
		}
		if a, ok := byID[orders[i].BillingAddressID]; ok {
			orders[i].BillingAddress = &a
		}
	}
	return nil
}
