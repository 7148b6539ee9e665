package auth

import (
	"strings"

	"pos-backend/internal/audit"

	"github.com/gofiber/fiber/v2"
)

const (
	CtxUserIDKey   = "user_id"
	CtxUsernameKey = "username"
)

// JWTMiddleware accepts "Authorization: Bearer <token>", a bare token in
// Authorization, or the x-access-token header.
func JWTMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := c.Get("x-access-token")
		if tokenStr == "" {
			tokenStr = c.Get(fiber.HeaderAuthorization)
		}
		if tokenStr == "" {
			return fiber.NewError(fiber.StatusForbidden, "No token provided!")
		}
		if len(tokenStr) > 7 && strings.EqualFold(tokenStr[:7], "bearer ") {
			tokenStr = strings.TrimSpace(tokenStr[7:])
		}

		claims, err := ParseToken(secret, tokenStr)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized!")
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxUsernameKey, claims.Username)
		return c.Next()
	}
}

// CurrentActor reads the actor stored by JWTMiddleware.
func CurrentActor(c *fiber.Ctx) (audit.Actor, error) {
	id, ok := c.Locals(CtxUserIDKey).(uint)
	if !ok || id == 0 {
		return audit.Actor{}, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized!")
	}
	name, _ := c.Locals(CtxUsernameKey).(string)
	return audit.Actor{ID: id, Username: name}, nil
}
