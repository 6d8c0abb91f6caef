package user

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/golang-jwt/jwt/v4"

	"github.com/wichananm65/storefront-backend/internal/httpx"
)

// TokenIssuer signs HS256 tokens carrying the user_id and role claims.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *TokenIssuer) Issue(u User) (string, error) {
	now := t.now()
	claims := jwt.MapClaims{
		"user_id": u.ID,
		"email":   u.Email,
		"role":    u.Role,
		"iat":     now.Unix(),
		"exp":     now.Add(t.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Middleware verifies the bearer token and stores it in c.Locals("user").
func (t *TokenIssuer) Middleware() fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: t.secret,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return httpx.FailStatus(c, fiber.StatusUnauthorized, "Access denied. Invalid or missing token.")
		},
	})
}

// GetUserIDFromCtx extracts the user_id claim from the JWT token stored in
// c.Locals("user"). Numeric and string claims are both accepted and
// normalized to int.
func GetUserIDFromCtx(c *fiber.Ctx) (int, error) {
	claims, ok := claimsFromCtx(c)
	if !ok {
		return 0, fiber.ErrUnauthorized
	}
	raw, ok := claims["user_id"]
	if !ok {
		return 0, fiber.ErrUnauthorized
	}

	var id int
	switch v := raw.(type) {
	case float64:
		id = int(v)
	case int:
		id = v
	case int64:
		id = int(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fiber.ErrUnauthorized
		}
		id = int(n)
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fiber.ErrUnauthorized
		}
		id = n
	default:
		return 0, fiber.ErrUnauthorized
	}
	if id <= 0 {
		return 0, fiber.ErrUnauthorized
	}
	return id, nil
}

func RoleFromCtx(c *fiber.Ctx) string {
	claims, ok := claimsFromCtx(c)
	if !ok {
		return ""
	}
	role, _ := claims["role"].(string)
	return role
}

// RequireRole rejects requests whose token does not carry role.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if RoleFromCtx(c) != role {
			return httpx.FailStatus(c, fiber.StatusForbidden, "Access denied. Insufficient permissions.")
		}
		return c.Next()
	}
}

func claimsFromCtx(c *fiber.Ctx) (jwt.MapClaims, bool) {
	tok, ok := c.Locals("user").(*jwt.Token)
	if !ok || tok == nil {
		return nil, false
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	return claims, ok
}
