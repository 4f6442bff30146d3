package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/storefront-backend/internal/address"
	"github.com/wichananm65/storefront-backend/internal/product"
)

func makeAppWithOrderHandler(h *Handler) *fiber.App {
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

func message(t *testing.T, body []byte) string {
	t.Helper()
	var m map[string]string
	require.NoError(t, json.Unmarshal(body, &m))
	return m["message"]
}

func (f *orderFixture) createBody(items string) string {
	return fmt.Sprintf(`{"shippingAddressId":%q,"billingAddressId":%q,"shippingMethod":"STANDARD","items":[%s]}`,
		f.home.ID, f.office.ID, items)
}

func TestOrderRoutes_CreateGetCancel(t *testing.T) {
	f := newOrderFixture()
	app := makeAppWithOrderHandler(NewHandler(f.service))

	status, body := send(t, app, fiber.MethodPost, "/orders", f.owner,
		f.createBody(fmt.Sprintf(`{"productId":%q,"quantity":2}`, f.kibble.ID)))
	require.Equal(t, fiber.StatusCreated, status, string(body))

	var created Order
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, StatusPending, created.Status)
	assert.True(t, decimal.NewFromInt(47000).Equal(created.TotalAmount))
	require.Len(t, created.Items, 1)
	require.NotNil(t, created.ShippingAddress)
	assert.Equal(t, f.home.ID, created.ShippingAddress.ID)

	status, body = send(t, app, fiber.MethodGet, "/orders/"+created.ID.String(), f.owner, "")
	require.Equal(t, fiber.StatusOK, status)
	var got Order
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, created.OrderNumber, got.OrderNumber)

	status, _ = send(t, app, fiber.MethodGet, "/orders/"+created.ID.String(), f.stranger, "")
	assert.Equal(t, fiber.StatusNotFound, status)

	status, body = send(t, app, fiber.MethodPatch, "/orders/"+created.ID.String(), f.owner, `{"status":"CONFIRMED","notes":"ring twice"}`)
	require.Equal(t, fiber.StatusOK, status, string(body))
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, StatusConfirmed, got.Status)
	assert.Equal(t, "ring twice", *got.Notes)

	status, body = send(t, app, fiber.MethodDelete, "/orders/"+created.ID.String(), f.owner, "")
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, StatusCancelled, got.Status)
	assert.Equal(t, 10, f.stock(t, f.kibble.ID, nil))
}

func TestOrderRoutes_List(t *testing.T) {
	f := newOrderFixture()
	app := makeAppWithOrderHandler(NewHandler(f.service))

	for range 3 {
		status, body := send(t, app, fiber.MethodPost, "/orders", f.owner,
			f.createBody(fmt.Sprintf(`{"productId":%q,"quantity":1}`, f.kibble.ID)))
		require.Equal(t, fiber.StatusCreated, status, string(body))
	}

	status, body := send(t, app, fiber.MethodGet, "/orders?page=2&limit=2", f.owner, "")
	require.Equal(t, fiber.StatusOK, status)
	var res ListResult
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Len(t, res.Orders, 1)
	assert.Equal(t, Pagination{Page: 2, Limit: 2, Total: 3, Pages: 2}, res.Pagination)

	status, body = send(t, app, fiber.MethodGet, "/orders?status=CANCELLED", f.owner, "")
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Empty(t, res.Orders)

	status, _ = send(t, app, fiber.MethodGet, "/orders?status=LOST", f.owner, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestOrderRoutes_Errors(t *testing.T) {
	f := newOrderFixture()
	app := makeAppWithOrderHandler(NewHandler(f.service))

	tests := []struct {
		name       string
		method     string
		path       string
		user       uuid.UUID
		body       string
		wantStatus int
		wantMsg    string
	}{
		{
			name: "no token", method: fiber.MethodPost, path: "/orders", body: "{}",
			wantStatus: fiber.StatusUnauthorized,
		},
		{
			name: "malformed body", method: fiber.MethodPost, path: "/orders", user: f.owner, body: "{",
			wantStatus: fiber.StatusBadRequest,
		},
		{
			name: "no items", method: fiber.MethodPost, path: "/orders", user: f.owner, body: f.createBody(""),
			wantStatus: fiber.StatusBadRequest,
		},
		{
			name: "insufficient stock", method: fiber.MethodPost, path: "/orders", user: f.owner,
			body:       f.createBody(fmt.Sprintf(`{"productId":%q,"variantId":%q,"quantity":5}`, f.bed.ID, f.large.ID)),
			wantStatus: fiber.StatusBadRequest, wantMsg: "insufficient stock for Large",
		},
		{
			name: "unknown product", method: fiber.MethodPost, path: "/orders", user: f.owner,
			body:       f.createBody(fmt.Sprintf(`{"productId":%q,"quantity":1}`, uuid.New())),
			wantStatus: fiber.StatusNotFound,
		},
		{
			name: "address of another user", method: fiber.MethodPost, path: "/orders", user: f.stranger,
			body:       f.createBody(fmt.Sprintf(`{"productId":%q,"quantity":1}`, f.kibble.ID)),
			wantStatus: fiber.StatusBadRequest, wantMsg: "shipping or billing address does not exist",
		},
		{
			name: "malformed id", method: fiber.MethodGet, path: "/orders/not-a-uuid", user: f.owner,
			wantStatus: fiber.StatusNotFound,
		},
		{
			name: "unknown order", method: fiber.MethodDelete, path: "/orders/" + uuid.NewString(), user: f.owner,
			wantStatus: fiber.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := send(t, app, tt.method, tt.path, tt.user, tt.body)
			assert.Equal(t, tt.wantStatus, status, string(body))
			if tt.wantMsg != "" {
				assert.Contains(t, message(t, body), tt.wantMsg)
			}
		})
	}
}

type unavailableRepository struct {
	*InMemoryRepository
}

func (unavailableRepository) Get(context.Context, uuid.UUID, uuid.UUID) (Order, error) {
	return Order{}, errors.New("get order: read tcp 10.0.0.5:5432: connection reset by peer")
}

func TestOrderRoutes_InternalErrorHidesCause(t *testing.T) {
	f := newOrderFixture()
	svc := NewService(unavailableRepository{f.repo}, address.NewService(address.NewInMemoryRepository(nil)),
		product.NewService(f.products), DefaultPricing())
	app := makeAppWithOrderHandler(NewHandler(svc))

	status, body := send(t, app, fiber.MethodGet, "/orders/"+uuid.NewString(), f.owner, "")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "internal server error", message(t, body))
	assert.NotContains(t, string(body), "10.0.0.5")
}
