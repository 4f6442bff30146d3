package product

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/wichananm65/storefront-backend/internal/logging"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(r fiber.Router) {
	r.Get("/products", h.list)
	r.Get("/products/:id", h.get)
}

func (h *Handler) RegisterProtectedRoutes(r fiber.Router) {
	r.Post("/products", h.create)
}

type listQuery struct {
	Search     string `query:"search"`
	CategoryID string `query:"categoryId"`
	Page       int    `query:"page"`
	Limit      int    `query:"limit"`
}

type variantRequest struct {
	Name  string          `json:"name"`
	SKU   *string         `json:"sku"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

type createRequest struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	SKU         *string          `json:"sku"`
	Price       decimal.Decimal  `json:"price"`
	Stock       int              `json:"stock"`
	IsActive    *bool            `json:"isActive"`
	CategoryID  *uuid.UUID       `json:"categoryId"`
	Variants    []variantRequest `json:"variants"`
}

func (h *Handler) list(c *fiber.Ctx) error {
	q := new(listQuery)
	if err := c.QueryParser(q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	f := Filter{Search: q.Search, Page: q.Page, Limit: q.Limit}
	if q.CategoryID != "" {
		id, err := uuid.Parse(q.CategoryID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "categoryId must be a uuid"})
		}
		f.CategoryID = &id
	}

	page, err := h.service.List(c.UserContext(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(page)
}

func (h *Handler) get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": ErrNotFound.Error()})
	}

	p, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(p)
}

func (h *Handler) create(c *fiber.Ctx) error {
	payload := new(createRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	created, err := h.service.Create(c.UserContext(), Product{
		Name:        payload.Name,
		Description: payload.Description,
		SKU:         payload.SKU,
		Price:       payload.Price,
		Stock:       payload.Stock,
		IsActive:    lo.FromPtrOr(payload.IsActive, true),
		CategoryID:  payload.CategoryID,
		Variants: lo.Map(payload.Variants, func(v variantRequest, _ int) Variant {
			return Variant{Name: v.Name, SKU: v.SKU, Price: v.Price, Stock: v.Stock}
		}),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrVariantNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, ErrInvalid):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, ErrSKUExists):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
	default:
		logging.RecordError(c, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "internal server error"})
	}
}
