package order

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/wichananm65/storefront-backend/internal/logging"
	"github.com/wichananm65/storefront-backend/internal/product"
	"github.com/wichananm65/storefront-backend/internal/user"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(r fiber.Router) {
	r.Post("/orders", h.createOrder)
	r.Get("/orders", h.getOrders)
	r.Get("/orders/:id", h.getOrder)
	r.Patch("/orders/:id", h.updateOrder)
	r.Delete("/orders/:id", h.cancelOrder)
}

type listQuery struct {
	Status      string `query:"status"`
	OrderNumber string `query:"orderNumber"`
	Page        int    `query:"page"`
	Limit       int    `query:"limit"`
}

func (h *Handler) createOrder(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	payload := new(CreateRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	created, err := h.service.Create(c.UserContext(), userID, *payload)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handler) getOrders(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	q := new(listQuery)
	if err := c.QueryParser(q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	query := ListQuery{OrderNumber: q.OrderNumber, Page: q.Page, Limit: q.Limit}
	if q.Status != "" {
		status := Status(q.Status)
		query.Status = &status
	}

	result, err := h.service.List(c.UserContext(), userID, query)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(result)
}

func (h *Handler) getOrder(c *fiber.Ctx) error {
	userID, id, ok := ids(c)
	if !ok {
		return nil
	}

	o, err := h.service.Get(c.UserContext(), userID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(o)
}

func (h *Handler) updateOrder(c *fiber.Ctx) error {
	userID, id, ok := ids(c)
	if !ok {
		return nil
	}

	patch := new(Patch)
	if err := c.BodyParser(patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	o, err := h.service.Update(c.UserContext(), userID, id, *patch)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(o)
}

func (h *Handler) cancelOrder(c *fiber.Ctx) error {
	userID, id, ok := ids(c)
	if !ok {
		return nil
	}

	o, err := h.service.Cancel(c.UserContext(), userID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(o)
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
	case errors.Is(err, ErrNotFound), errors.Is(err, product.ErrNotFound), errors.Is(err, product.ErrVariantNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, ErrInvalidRequest):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, ErrNumberTaken):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
	default:
		logging.RecordError(c, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "internal server error"})
	}
}
