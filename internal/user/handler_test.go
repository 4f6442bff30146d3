package user

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func makeAppWithUserHandler(h *Handler) *fiber.App {
	app := fiber.New()
	h.RegisterPublicRoutes(app)
	app.Use(Protected(testSecret))
	h.RegisterProtectedRoutes(app)
	return app
}

func newTestHandler() *Handler {
	return NewHandler(NewService(NewInMemoryRepository(nil)), NewTokenIssuer(testSecret, time.Hour))
}

func doJSON(t *testing.T, app *fiber.App, method, path, body, token string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := app.Test(req)
	require.NoError(t, err)
	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, b
}

func TestAuth_RegisterLoginProfile(t *testing.T) {
	app := makeAppWithUserHandler(newTestHandler())

	status, body := doJSON(t, app, "POST", "/auth/register",
		`{"email":"Jenny@Example.com","password":"secret1","name":"Jenny"}`, "")
	require.Equal(t, fiber.StatusCreated, status, string(body))

	var registered authResponse
	require.NoError(t, json.Unmarshal(body, &registered))
	assert.NotEmpty(t, registered.AccessToken)
	assert.Equal(t, "jenny@example.com", registered.User.Email)
	assert.Empty(t, registered.User.Password)

	status, body = doJSON(t, app, "POST", "/auth/login",
		`{"email":"jenny@example.com","password":"secret1"}`, "")
	require.Equal(t, fiber.StatusOK, status, string(body))

	var loggedIn authResponse
	require.NoError(t, json.Unmarshal(body, &loggedIn))

	status, body = doJSON(t, app, "GET", "/auth/profile", "", loggedIn.AccessToken)
	require.Equal(t, fiber.StatusOK, status, string(body))

	var profile User
	require.NoError(t, json.Unmarshal(body, &profile))
	assert.Equal(t, registered.User.ID, profile.ID)
	assert.Empty(t, profile.Password)
}

func TestAuth_RegisterDuplicateEmail(t *testing.T) {
	app := makeAppWithUserHandler(newTestHandler())
	payload := `{"email":"dup@example.com","password":"secret1","name":"Dup"}`

	status, _ := doJSON(t, app, "POST", "/auth/register", payload, "")
	require.Equal(t, fiber.StatusCreated, status)

	status, _ = doJSON(t, app, "POST", "/auth/register", payload, "")
	assert.Equal(t, fiber.StatusConflict, status)
}

func TestAuth_RegisterValidation(t *testing.T) {
	app := makeAppWithUserHandler(newTestHandler())

	tests := []struct {
		name string
		body string
	}{
		{name: "missing name", body: `{"email":"a@example.com","password":"secret1"}`},
		{name: "bad email", body: `{"email":"nope","password":"secret1","name":"A"}`},
		{name: "short password", body: `{"email":"a@example.com","password":"123","name":"A"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := doJSON(t, app, "POST", "/auth/register", tt.body, "")
			assert.Equal(t, fiber.StatusBadRequest, status)
		})
	}
}

func TestAuth_LoginWrongPassword(t *testing.T) {
	app := makeAppWithUserHandler(newTestHandler())

	status, _ := doJSON(t, app, "POST", "/auth/register",
		`{"email":"a@example.com","password":"secret1","name":"A"}`, "")
	require.Equal(t, fiber.StatusCreated, status)

	status, _ = doJSON(t, app, "POST", "/auth/login", `{"email":"a@example.com","password":"wrong!"}`, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestAuth_ProfileRequiresToken(t *testing.T) {
	app := makeAppWithUserHandler(newTestHandler())

	status, _ := doJSON(t, app, "GET", "/auth/profile", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = doJSON(t, app, "GET", "/auth/profile", "", "not-a-token")
	assert.Equal(t, fiber.StatusUnauthorized, status)
}
