package middleware

import (
	"context"
	"errors"
	"slices"

	"github.com/anjiri1684/counsel_connect/models"
	"github.com/anjiri1684/counsel_connect/services"
	"github.com/anjiri1684/counsel_connect/store"
	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const actorKey = "actor"

// Accounts looks up the user behind a token.
type Accounts interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Protected verifies the bearer token and resolves the caller into a
// services.Actor stored in the request locals. The account must still exist,
// be active and hold the role the token was issued for.
func Protected(secret string, accounts Accounts) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:    []byte(secret),
		SigningMethod: "HS256",
		ErrorHandler:  jwtError,
		SuccessHandler: func(c *fiber.Ctx) error {
			return identify(c, accounts)
		},
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if err.Error() == "Missing or malformed JWT" {
		return deny(c, fiber.StatusBadRequest, services.KindValidation, "Missing or malformed JWT")
	}
	return deny(c, fiber.StatusUnauthorized, services.KindUnauthorized, "Invalid or expired JWT")
}

func identify(c *fiber.Ctx, accounts Accounts) error {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return deny(c, fiber.StatusUnauthorized, services.KindUnauthorized, "Invalid or expired JWT")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return deny(c, fiber.StatusUnauthorized, services.KindUnauthorized, "Invalid token claims")
	}

	rawID, _ := claims[services.ClaimUserID].(string)
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return deny(c, fiber.StatusUnauthorized, services.KindUnauthorized, "Invalid token claims")
	}
	rawRole, _ := claims[services.ClaimRole].(string)
	role, ok := models.ParseRole(rawRole)
	if !ok {
		return deny(c, fiber.StatusUnauthorized, services.KindUnauthorized, "Unknown role")
	}

	user, err := accounts.GetUser(c.UserContext(), userID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return deny(c, fiber.StatusUnauthorized, services.KindUnauthorized, "Account not found")
	case err != nil:
		return deny(c, fiber.StatusInternalServerError, services.KindInternal, "Failed to resolve account")
	case !user.IsActive:
		return deny(c, fiber.StatusUnauthorized, services.KindUnauthorized, "Account is deactivated")
	case user.Role != role:
		return deny(c, fiber.StatusUnauthorized, services.KindUnauthorized, "Token role is out of date")
	}

	c.Locals(actorKey, services.Actor{UserID: userID, Role: role})
	return c.Next()
}

// ActorFrom returns the caller resolved by Protected.
func ActorFrom(c *fiber.Ctx) (services.Actor, bool) {
	actor, ok := c.Locals(actorKey).(services.Actor)
	return actor, ok
}

// RequireRoles rejects callers whose role is not listed.
func RequireRoles(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFrom(c)
		if !ok {
			return deny(c, fiber.StatusUnauthorized, services.KindUnauthorized, "Authentication required")
		}
		if !slices.Contains(roles, actor.Role) {
			return deny(c, fiber.StatusForbidden, services.KindForbidden, "Forbidden: insufficient role")
		}
		return c.Next()
	}
}

func deny(c *fiber.Ctx, status int, kind services.ErrorKind, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
		"kind":    kind,
	})
}
