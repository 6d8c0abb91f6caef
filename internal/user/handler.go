package user

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/storefront-backend/internal/apperr"
	"github.com/wichananm65/storefront-backend/internal/httpx"
)

type Handler struct {
	service *Service
	tokens  *TokenIssuer
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type signupRequest struct {
	FirstName string `json:"firstName" validate:"required,min=2,max=50"`
	LastName  string `json:"lastName" validate:"required,min=2,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
}

func NewHandler(service *Service, tokens *TokenIssuer) *Handler {
	return &Handler{service: service, tokens: tokens}
}

func (h *Handler) RegisterPublicRoutes(r fiber.Router) {
	r.Post("/auth/signup", h.signup)
	r.Post("/auth/login", h.login)
}

func (h *Handler) RegisterProtectedRoutes(r fiber.Router) {
	r.Get("/auth/profile", h.getProfile)
}

func (h *Handler) signup(c *fiber.Ctx) error {
	var payload signupRequest
	if errs := httpx.Bind(c, &payload); errs != nil {
		return httpx.Invalid(c, errs)
	}

	created, err := h.service.Register(c.UserContext(), RegisterInput{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
		Password:  payload.Password,
	})
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			return httpx.FailStatus(c, fiber.StatusConflict, "User with this email already exists")
		}
		return httpx.Fail(c, apperr.Internal(err, "Failed to register user"))
	}

	token, err := h.tokens.Issue(created)
	if err != nil {
		return httpx.Fail(c, apperr.Internal(err, "Failed to generate token"))
	}
	return httpx.OK(c, fiber.StatusCreated, "User registered successfully", fiber.Map{
		"user":  PublicProfile(created),
		"token": token,
	})
}

func (h *Handler) login(c *fiber.Ctx) error {
	var payload loginRequest
	if errs := httpx.Bind(c, &payload); errs != nil {
		return httpx.Invalid(c, errs)
	}

	u, err := h.service.Authenticate(c.UserContext(), payload.Email, payload.Password)
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return httpx.FailStatus(c, fiber.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, ErrInactive):
		return httpx.FailStatus(c, fiber.StatusUnauthorized, "Account is deactivated")
	case err != nil:
		return httpx.Fail(c, apperr.Internal(err, "Failed to login user"))
	}

	token, err := h.tokens.Issue(u)
	if err != nil {
		return httpx.Fail(c, apperr.Internal(err, "Failed to generate token"))
	}
	return httpx.OK(c, fiber.StatusOK, "Login successful", fiber.Map{
		"user":  PublicProfile(u),
		"token": token,
	})
}

// getProfile returns the user record for the currently authenticated user.
func (h *Handler) getProfile(c *fiber.Ctx) error {
	userID, err := GetUserIDFromCtx(c)
	if err != nil {
		return httpx.FailStatus(c, fiber.StatusUnauthorized, "Access denied. Invalid or missing token.")
	}

	u, err := h.service.GetByID(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return httpx.FailStatus(c, fiber.StatusUnauthorized, "Access denied. User not found.")
		}
		return httpx.Fail(c, apperr.Internal(err, "Failed to retrieve user profile"))
	}
	if !u.Active {
		return httpx.FailStatus(c, fiber.StatusUnauthorized, "Account is deactivated")
	}
	return httpx.OK(c, fiber.StatusOK, "User profile retrieved successfully", PublicProfile(u))
}
