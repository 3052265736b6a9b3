package middleware

import (
	"context"
	"strings"

	"agora/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ActorLocal is the Locals key holding the resolved Actor.
const ActorLocal = "actor"

// ActorResolver turns a bearer credential into the caller's identity.
type ActorResolver func(ctx context.Context, token string) (models.Actor, error)

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *fiber.Ctx) (string, bool) {
	parts := strings.Fields(c.Get(fiber.HeaderAuthorization))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// AuthRequired rejects requests without a resolvable bearer token and stores
// the Actor and its user id in fiber locals.
func AuthRequired(resolve ActorResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get(fiber.HeaderAuthorization) == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthenticatedError("Authorization header required"))
		}
		token, ok := BearerToken(c)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthenticatedError("Invalid authorization header format"))
		}
		return authenticate(c, resolve, token)
	}
}

// WebSocketAuthRequired accepts the token from the "token" query parameter,
// since browsers cannot set headers on a websocket upgrade.
func WebSocketAuthRequired(resolve ActorResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Query("token")
		if token == "" {
			var ok bool
			if token, ok = BearerToken(c); !ok {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthenticatedError("Token required"))
			}
		}
		return authenticate(c, resolve, token)
	}
}

func authenticate(c *fiber.Ctx, resolve ActorResolver, token string) error {
	actor, err := resolve(c.UserContext(), token)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthenticatedError("Invalid or expired token"))
	}
	c.Locals(ActorLocal, actor)
	c.Locals("userID", actor.ID)
	c.SetUserContext(WithUserID(c.UserContext(), actor.ID))
	return c.Next()
}

// ActorFrom returns the Actor stored by AuthRequired.
func ActorFrom(c *fiber.Ctx) (models.Actor, bool) {
	actor, ok := c.Locals(ActorLocal).(models.Actor)
	return actor, ok
}
