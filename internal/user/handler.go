package user

import (
	"errors"
	"net/mail"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/storefront-backend/internal/logging"
)

type Handler struct {
	service *Service
	tokens  *TokenIssuer
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type authResponse struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

const minPasswordLength = 6

func NewHandler(service *Service, tokens *TokenIssuer) *Handler {
	return &Handler{service: service, tokens: tokens}
}

func (h *Handler) RegisterPublicRoutes(r fiber.Router) {
	r.Post("/auth/register", h.register)
	r.Post("/auth/login", h.login)
}

func (h *Handler) RegisterProtectedRoutes(r fiber.Router) {
	r.Get("/auth/profile", h.getProfile)
}

func (h *Handler) register(c *fiber.Ctx) error {
	payload := new(registerRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if msg := payload.validate(); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": msg})
	}

	created, err := h.service.Register(c.UserContext(), User{
		Email:    payload.Email,
		Password: payload.Password,
		Name:     payload.Name,
	})
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "Email already exists"})
		}
		logging.RecordError(c, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "internal server error"})
	}

	return h.respondWithToken(c, fiber.StatusCreated, created)
}

func (h *Handler) login(c *fiber.Ctx) error {
	payload := new(loginRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	user, err := h.service.Authenticate(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid email or password"})
	}

	return h.respondWithToken(c, fiber.StatusOK, user)
}

func (h *Handler) getProfile(c *fiber.Ctx) error {
	userID, err := GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	user, err := h.service.GetByID(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "user not found"})
		}
		logging.RecordError(c, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "internal server error"})
	}

	return c.JSON(sanitizeUser(user))
}

func (h *Handler) respondWithToken(c *fiber.Ctx, status int, user User) error {
	signed, err := h.tokens.Issue(user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to generate token"})
	}
	return c.Status(status).JSON(authResponse{AccessToken: signed, User: sanitizeUser(user)})
}

func (p registerRequest) validate() string {
	if strings.TrimSpace(p.Email) == "" || p.Password == "" || strings.TrimSpace(p.Name) == "" {
		return "Missing required fields"
	}
	if _, err := mail.ParseAddress(p.Email); err != nil {
		return "Invalid email"
	}
	if len(p.Password) < minPasswordLength {
		return "Password must be at least 6 characters"
	}
	return ""
}

func sanitizeUser(user User) User {
	user.Password = ""
	return user
}
