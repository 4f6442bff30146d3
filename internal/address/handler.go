package address

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/wichananm65/storefront-backend/internal/logging"
	"github.com/wichananm65/storefront-backend/internal/user"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(r fiber.Router) {
	r.Get("/addresses", h.list)
	r.Post("/addresses", h.create)
	r.Get("/addresses/:id", h.get)
	r.Patch("/addresses/:id/default", h.setDefault)
	r.Patch("/addresses/:id", h.update)
	r.Delete("/addresses/:id", h.delete)
}

type createRequest struct {
	Type       Type    `json:"type"`
	Name       string  `json:"name"`
	Phone      string  `json:"phone"`
	Address1   string  `json:"address1"`
	Address2   *string `json:"address2"`
	City       string  `json:"city"`
	State      *string `json:"state"`
	PostalCode string  `json:"postalCode"`
	Country    string  `json:"country"`
	IsDefault  bool    `json:"isDefault"`
}

func (h *Handler) list(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	addrs, err := h.service.List(c.UserContext(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(addrs)
}

func (h *Handler) get(c *fiber.Ctx) error {
	userID, id, ok := ids(c)
	if !ok {
		return nil
	}

	a, err := h.service.Get(c.UserContext(), userID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(a)
}

func (h *Handler) create(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	payload := new(createRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	a, err := h.service.Create(c.UserContext(), userID, Address{
		Type:       payload.Type,
		Name:       payload.Name,
		Phone:      payload.Phone,
		Address1:   payload.Address1,
		Address2:   payload.Address2,
		City:       payload.City,
		State:      payload.State,
		PostalCode: payload.PostalCode,
		Country:    payload.Country,
		IsDefault:  payload.IsDefault,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(a)
}

func (h *Handler) update(c *fiber.Ctx) error {
	userID, id, ok := ids(c)
	if !ok {
		return nil
	}

	patch := new(Patch)
	if err := c.BodyParser(patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	a, err := h.service.Update(c.UserContext(), userID, id, *patch)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(a)
}

func (h *Handler) delete(c *fiber.Ctx) error {
	userID, id, ok := ids(c)
	if !ok {
		return nil
	}

	if err := h.service.Delete(c.UserContext(), userID, id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "address deleted"})
}

func (h *Handler) setDefault(c *fiber.Ctx) error {
	userID, id, ok := ids(c)
	if !ok {
		return nil
	}

	a, err := h.service.SetDefault(c.UserContext(), userID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(a)
}

// ids writes the error response itself when it reports !ok.
func ids(c *fiber.Ctx) (userID, id uuid.UUID, ok bool) {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		_ = c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
		return uuid.Nil, uuid.Nil, false
	}
	id, err = uuid.Parse(c.Params("id"))
	if err != nil {
		_ = c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": ErrNotFound.Error()})
		return uuid.Nil, uuid.Nil, false
	}
	return userID, id, true
}

func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, ErrInvalid), errors.Is(err, ErrDefaultAddress):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, ErrInUse):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
	default:
		logging.RecordError(c, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "internal server error"})
	}
}
