package product

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/storefront-backend/internal/apperr"
	"github.com/wichananm65/storefront-backend/internal/httpx"
	"github.com/wichananm65/storefront-backend/internal/money"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(r fiber.Router) {
	r.Get("/products", h.getProducts)
	r.Get("/products/:id", h.getProduct)
}

// RegisterProtectedRoutes mounts the catalog admin endpoints behind guard.
func (h *Handler) RegisterProtectedRoutes(r fiber.Router, guard fiber.Handler) {
	r.Post("/products", guard, h.createProduct)
	r.Put("/products/:id", guard, h.updateProduct)
	r.Delete("/products/:id", guard, h.deleteProduct)
}

// view adds the derived display fields to a product.
type view struct {
	Product
	AvailabilityStatus string `json:"availabilityStatus"`
	FormattedPrice     string `json:"formattedPrice"`
}

func toView(p Product) view {
	return view{Product: p, AvailabilityStatus: AvailabilityStatus(p), FormattedPrice: money.Format(p.Price)}
}

func (h *Handler) getProducts(c *fiber.Ctx) error {
	products, err := h.service.List(c.UserContext())
	if err != nil {
		return httpx.Fail(c, err)
	}
	out := make([]view, 0, len(products))
	for _, p := range products {
		out = append(out, toView(p))
	}
	return httpx.OK(c, fiber.StatusOK, "Products retrieved successfully", fiber.Map{
		"products": out,
		"count":    len(out),
	})
}

func (h *Handler) getProduct(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return httpx.Fail(c, err)
	}
	p, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return httpx.OK(c, fiber.StatusOK, "Product retrieved successfully", toView(p))
}

func (h *Handler) createProduct(c *fiber.Ctx) error {
	var in Input
	if errs := bindInput(c, &in); errs != nil {
		return httpx.Invalid(c, errs)
	}
	created, err := h.service.Create(c.UserContext(), in)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return httpx.OK(c, fiber.StatusCreated, "Product created successfully", toView(created))
}

func (h *Handler) updateProduct(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return httpx.Fail(c, err)
	}
	var in Input
	if errs := bindInput(c, &in); errs != nil {
		return httpx.Invalid(c, errs)
	}
	updated, err := h.service.Update(c.UserContext(), id, in)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return httpx.OK(c, fiber.StatusOK, "Product updated successfully", toView(updated))
}

func (h *Handler) deleteProduct(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return httpx.Fail(c, err)
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return httpx.Fail(c, err)
	}
	return httpx.OK(c, fiber.StatusOK, "Product deleted successfully", nil)
}

func bindInput(c *fiber.Ctx, in *Input) map[string]string {
	errs := httpx.Bind(c, in)
	for k, v := range in.check() {
		if errs == nil {
			errs = map[string]string{}
		}
		if _, ok := errs[k]; !ok {
			errs[k] = v
		}
	}
	return errs
}

func paramID(c *fiber.Ctx) (int, error) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return 0, apperr.InvalidArgument("Invalid product ID")
	}
	return id, nil
}
