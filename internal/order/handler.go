package order

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/storefront-backend/internal/httpx"
	"github.com/wichananm65/storefront-backend/internal/user"
)

// Handler delegates order operations to the order service.
type Handler struct {
	service   *Service
	presenter *Presenter
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s, presenter: NewPresenter()}
}

// RegisterProtectedRoutes mounts the customer order endpoints. The advance
// endpoint is only reachable through guard.
func (h *Handler) RegisterProtectedRoutes(r fiber.Router, guard fiber.Handler) {
	r.Post("/orders", h.placeOrder)
	r.Get("/orders", h.getOrders)
	r.Patch("/orders/:orderId/cancel", h.cancelOrder)
	r.Patch("/orders/:orderId/advance", guard, h.advanceOrder)
}

type itemRequest struct {
	ID       int `json:"id" validate:"required,gt=0"`
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

type placeRequest struct {
	FirstName string        `json:"firstName" validate:"required,max=50"`
	LastName  string        `json:"lastName" validate:"required,max=50"`
	Address   string        `json:"address" validate:"required"`
	City      string        `json:"city"`
	State     string        `json:"state"`
	ZipCode   string        `json:"zipCode"`
	Country   string        `json:"country"`
	Notes     string        `json:"notes" validate:"max=500"`
	CartItems []itemRequest `json:"cartItems" validate:"required,min=1,dive"`
	ClearCart bool          `json:"clearCart"`
}

type cancelRequest struct {
	Reason string `json:"reason" validate:"max=200"`
}

func (h *Handler) placeOrder(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return httpx.FailStatus(c, fiber.StatusUnauthorized, "Access denied. Invalid or missing token.")
	}
	var payload placeRequest
	if errs := httpx.Bind(c, &payload); errs != nil {
		return httpx.Invalid(c, errs)
	}

	in := PlaceInput{
		Address: ShippingAddress{
			FirstName: payload.FirstName,
			LastName:  payload.LastName,
			Address:   payload.Address,
			City:      payload.City,
			State:     payload.State,
			ZipCode:   payload.ZipCode,
			Country:   payload.Country,
		},
		Items:     make([]Item, 0, len(payload.CartItems)),
		Notes:     payload.Notes,
		ClearCart: payload.ClearCart,
	}
	for _, it := range payload.CartItems {
		in.Items = append(in.Items, Item{ProductID: it.ID, Quantity: it.Quantity})
	}

	o, err := h.service.PlaceOrder(c.UserContext(), userID, in)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return httpx.OK(c, fiber.StatusCreated, "Order placed successfully", h.presenter.ToResponse(o))
}

func (h *Handler) getOrders(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return httpx.FailStatus(c, fiber.StatusUnauthorized, "Access denied. Invalid or missing token.")
	}
	orders, err := h.service.ListByUser(c.UserContext(), userID)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return httpx.OK(c, fiber.StatusOK, "Orders retrieved successfully", fiber.Map{
		"orders": h.presenter.ToResponses(orders),
		"count":  len(orders),
	})
}

func (h *Handler) cancelOrder(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return httpx.FailStatus(c, fiber.StatusUnauthorized, "Access denied. Invalid or missing token.")
	}
	var payload cancelRequest
	// the body is optional
	if len(c.Body()) > 0 {
		if errs := httpx.Bind(c, &payload); errs != nil {
			return httpx.Invalid(c, errs)
		}
	}

	o, err := h.service.Cancel(c.UserContext(), userID, c.Params("orderId"), payload.Reason)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return httpx.OK(c, fiber.StatusOK, "Order cancelled successfully", h.presenter.ToResponse(o))
}

func (h *Handler) advanceOrder(c *fiber.Ctx) error {
	o, err := h.service.Advance(c.UserContext(), c.Params("orderId"))
	if err != nil {
		return httpx.Fail(c, err)
	}
	return httpx.OK(c, fiber.StatusOK, "Order status updated successfully", h.presenter.ToResponse(o))
}
