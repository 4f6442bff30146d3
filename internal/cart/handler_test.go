package cart

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/storefront-backend/internal/product"
)

func makeAppWithCartHandler(h *Handler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			claims := jwt.MapClaims{"user_id": v}
			c.Locals("user", &jwt.Token{Claims: claims})
		}
		return c.Next()
	})
	h.RegisterProtectedRoutes(app)
	return app
}

func send(t *testing.T, app *fiber.App, method, path string, userID uuid.UUID, body string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != uuid.Nil {
		req.Header.Set("X-User-ID", userID.String())
	}
	res, err := app.Test(req)
	require.NoError(t, err)
	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, b
}

type cartFixture struct {
	app      *fiber.App
	repo     *InMemoryRepository
	owner    uuid.UUID
	kibble   product.Product
	sizedBed product.Product
	inactive product.Product
}

func newCartFixture() cartFixture {
	now := time.Now().UTC()
	kibble := product.Product{ID: uuid.New(), Name: "Kibble", Price: decimal.NewFromInt(12000), Stock: 10, IsActive: true, CreatedAt: now}
	bedID := uuid.New()
	sizedBed := product.Product{
		ID: bedID, Name: "Bed", Price: decimal.NewFromInt(30000), Stock: 0, IsActive: true, CreatedAt: now,
		Variants: []product.Variant{{ID: uuid.New(), ProductID: bedID, Name: "Large", Price: decimal.NewFromInt(45000), Stock: 3}},
	}
	inactive := product.Product{ID: uuid.New(), Name: "Old Toy", Price: decimal.NewFromInt(1000), Stock: 5, CreatedAt: now}

	catalog := product.NewService(product.NewInMemoryRepository([]product.Product{kibble, sizedBed, inactive}))
	repo := NewInMemoryRepository(nil)
	return cartFixture{
		app:      makeAppWithCartHandler(NewHandler(NewService(repo, catalog))),
		repo:     repo,
		owner:    uuid.New(),
		kibble:   kibble,
		sizedBed: sizedBed,
		inactive: inactive,
	}
}

func TestCartRoutes_AddMergesAndTotals(t *testing.T) {
	f := newCartFixture()
	variantID := f.sizedBed.Variants[0].ID.String()

	status, body := send(t, f.app, "POST", "/cart", f.owner, `{"productId":"`+f.kibble.ID.String()+`","quantity":2}`)
	require.Equal(t, fiber.StatusCreated, status, string(body))
	status, body = send(t, f.app, "POST", "/cart", f.owner, `{"productId":"`+f.kibble.ID.String()+`","quantity":3}`)
	require.Equal(t, fiber.StatusCreated, status, string(body))

	var merged Line
	require.NoError(t, json.Unmarshal(body, &merged))
	assert.Equal(t, 5, merged.Quantity)

	status, body = send(t, f.app, "POST", "/cart", f.owner,
		`{"productId":"`+f.sizedBed.ID.String()+`","variantId":"`+variantID+`","quantity":1}`)
	require.Equal(t, fiber.StatusCreated, status, string(body))

	status, body = send(t, f.app, "GET", "/cart", f.owner, "")
	require.Equal(t, fiber.StatusOK, status)

	var cart Cart
	require.NoError(t, json.Unmarshal(body, &cart))
	assert.Len(t, cart.Items, 2)
	assert.Equal(t, 6, cart.TotalItems)
	assert.True(t, decimal.NewFromInt(5*12000+45000).Equal(cart.TotalPrice), cart.TotalPrice.String())
}

func TestCartRoutes_AddRejections(t *testing.T) {
	f := newCartFixture()
	variantID := f.sizedBed.Variants[0].ID.String()

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "inactive product", body: `{"productId":"` + f.inactive.ID.String() + `","quantity":1}`, wantStatus: fiber.StatusBadRequest},
		{name: "unknown product", body: `{"productId":"` + uuid.NewString() + `","quantity":1}`, wantStatus: fiber.StatusNotFound},
		{name: "unknown variant", body: `{"productId":"` + f.sizedBed.ID.String() + `","variantId":"` + uuid.NewString() + `","quantity":1}`, wantStatus: fiber.StatusNotFound},
		{name: "variant stock short", body: `{"productId":"` + f.sizedBed.ID.String() + `","variantId":"` + variantID + `","quantity":4}`, wantStatus: fiber.StatusBadRequest},
		{name: "zero quantity", body: `{"productId":"` + f.kibble.ID.String() + `","quantity":0}`, wantStatus: fiber.StatusBadRequest},
		{name: "over max quantity", body: `{"productId":"` + f.kibble.ID.String() + `","quantity":100}`, wantStatus: fiber.StatusBadRequest},
		{name: "missing product", body: `{"quantity":1}`, wantStatus: fiber.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := send(t, f.app, "POST", "/cart", f.owner, tt.body)
			assert.Equal(t, tt.wantStatus, status, string(body))
		})
	}
}

func TestCartRoutes_MergeCappedAtMax(t *testing.T) {
	f := newCartFixture()
	_, err := f.repo.Create(t.Context(), Item{ID: uuid.New(), UserID: f.owner, ProductID: f.kibble.ID, Quantity: 98})
	require.NoError(t, err)

	status, _ := send(t, f.app, "POST", "/cart", f.owner, `{"productId":"`+f.kibble.ID.String()+`","quantity":2}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestCartRoutes_UpdateRemoveClear(t *testing.T) {
	f := newCartFixture()
	item, err := f.repo.Create(t.Context(), Item{ID: uuid.New(), UserID: f.owner, ProductID: f.kibble.ID, Quantity: 1})
	require.NoError(t, err)
	path := "/cart/" + item.ID.String()

	status, _ := send(t, f.app, "PATCH", path, f.owner, `{"quantity":11}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body := send(t, f.app, "PATCH", path, f.owner, `{"quantity":4}`)
	require.Equal(t, fiber.StatusOK, status, string(body))

	status, _ = send(t, f.app, "PATCH", path, uuid.New(), `{"quantity":2}`)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = send(t, f.app, "DELETE", path, f.owner, "")
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = send(t, f.app, "DELETE", path, f.owner, "")
	assert.Equal(t, fiber.StatusNotFound, status)

	_, err = f.repo.Create(t.Context(), Item{ID: uuid.New(), UserID: f.owner, ProductID: f.kibble.ID, Quantity: 1})
	require.NoError(t, err)
	status, _ = send(t, f.app, "DELETE", "/cart", f.owner, "")
	assert.Equal(t, fiber.StatusOK, status)

	items, err := f.repo.List(t.Context(), f.owner)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCartRoutes_Unauthorized(t *testing.T) {
	f := newCartFixture()

	status, _ := send(t, f.app, "GET", "/cart", uuid.Nil, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
}
