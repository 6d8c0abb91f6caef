package cart

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/storefront-backend/internal/apperr"
	"github.com/wichananm65/storefront-backend/internal/httpx"
	"github.com/wichananm65/storefront-backend/internal/user"
)

// Handler delegates cart operations to the cart service.
type Handler struct {
	service   *Service
	presenter *Presenter
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s, presenter: NewPresenter()}
}

func (h *Handler) RegisterProtectedRoutes(r fiber.Router) {
	r.Get("/cart", h.getCart)
	r.Post("/cart/add", h.addToCart)
	r.Put("/cart/item/:productId", h.updateItem)
	r.Delete("/cart/item/:productId", h.removeItem)
	r.Delete("/cart/clear", h.clearCart)
}

type addRequest struct {
	ProductID int  `json:"productId" validate:"required,gt=0"`
	Quantity  *int `json:"quantity" validate:"omitempty,gte=1"`
}

type updateRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

func (h *Handler) getCart(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return httpx.FailStatus(c, fiber.StatusUnauthorized, "Access denied. Invalid or missing token.")
	}
	cart, err := h.service.Get(c.UserContext(), userID)
	return h.respond(c, "Cart retrieved successfully", cart, err)
}

func (h *Handler) addToCart(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return httpx.FailStatus(c, fiber.StatusUnauthorized, "Access denied. Invalid or missing token.")
	}
	var payload addRequest
	if errs := httpx.Bind(c, &payload); errs != nil {
		return httpx.Invalid(c, errs)
	}
	qty := 1
	if payload.Quantity != nil {
		qty = *payload.Quantity
	}

	cart, err := h.service.AddItem(c.UserContext(), userID, payload.ProductID, qty)
	return h.respond(c, "Item added to cart successfully", cart, err)
}

func (h *Handler) updateItem(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return httpx.FailStatus(c, fiber.StatusUnauthorized, "Access denied. Invalid or missing token.")
	}
	productID, err := productParam(c)
	if err != nil {
		return httpx.Fail(c, err)
	}
	var payload updateRequest
	if errs := httpx.Bind(c, &payload); errs != nil {
		return httpx.Invalid(c, errs)
	}

	cart, err := h.service.UpdateItemQuantity(c.UserContext(), userID, productID, *payload.Quantity)
	return h.respond(c, "Cart item updated successfully", cart, err)
}

func (h *Handler) removeItem(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return httpx.FailStatus(c, fiber.StatusUnauthorized, "Access denied. Invalid or missing token.")
	}
	productID, err := productParam(c)
	if err != nil {
		return httpx.Fail(c, err)
	}

	cart, err := h.service.RemoveItem(c.UserContext(), userID, productID)
	return h.respond(c, "Item removed from cart successfully", cart, err)
}

func (h *Handler) clearCart(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return httpx.FailStatus(c, fiber.StatusUnauthorized, "Access denied. Invalid or missing token.")
	}
	cart, err := h.service.Clear(c.UserContext(), userID)
	return h.respond(c, "Cart cleared successfully", cart, err)
}

func (h *Handler) respond(c *fiber.Ctx, message string, cart Cart, err error) error {
	if err != nil {
		return httpx.Fail(c, err)
	}
	return httpx.OK(c, fiber.StatusOK, message, h.presenter.ToResponse(cart))
}

func productParam(c *fiber.Ctx) (int, error) {
	id, err := strconv.Atoi(c.Params("productId"))
	if err != nil || id <= 0 {
		return 0, apperr.InvalidArgument("Invalid product ID")
	}
	return id, nil
}
