package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"quickgrocery/internal/model"
	"quickgrocery/internal/service"
	"quickgrocery/pkg/jwt"
)

// Authenticator resolves a bearer token to the user it belongs to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

const (
	LocalUser      = "user"
	LocalUserID    = "user_id"
	LocalUserEmail = "user_email"
	LocalUserName  = "user_name"
	LocalUserRole  = "user_role"
)

// RequireAuth is middleware that validates the bearer token and sets user info in context
func RequireAuth(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
		}

		return authenticate(c, auth, parts[1])
	}
}

// RequireAuthQuery reads the token from the ?token= query parameter. Browsers cannot set
// headers on a websocket upgrade.
func RequireAuthQuery(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Query("token")
		if token == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Missing authorization token"})
		}
		return authenticate(c, auth, token)
	}
}

func authenticate(c *fiber.Ctx, auth Authenticator, token string) error {
	user, err := auth.Authenticate(c.UserContext(), token)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrInvalidToken), errors.Is(err, jwt.ErrMissingToken):
		return c.Status(401).JSON(fiber.Map{"error": "Invalid or expired token"})
	case errors.Is(err, service.ErrSessionExpired):
		return c.Status(401).JSON(fiber.Map{"error": "Session expired, please log in again"})
	case errors.Is(err, service.ErrUserNotFound):
		return c.Status(401).JSON(fiber.Map{"error": "User not found"})
	default:
		log.Error().Err(err).Str("path", c.Path()).Msg("Authentication failed")
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	// Set user info in context for downstream handlers
	c.Locals(LocalUser, user)
	c.Locals(LocalUserID, user.ID)
	c.Locals(LocalUserEmail, user.Email)
	c.Locals(LocalUserName, user.Name)
	c.Locals(LocalUserRole, user.Role)

	return c.Next()
}

// RequireCapability checks if the authenticated user's role grants c
func RequireCapability(capability model.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(LocalUserRole).(model.Role)
		if !ok {
			return c.Status(403).JSON(fiber.Map{"error": "No role found"})
		}

		if !role.Can(capability) {
			return c.Status(403).JSON(fiber.Map{
				"error": "Forbidden: requires '" + string(capability) + "' capability",
			})
		}
		return c.Next()
	}
}

// CurrentUser returns the user RequireAuth stored on the request.
func CurrentUser(c *fiber.Ctx) (*model.User, bool) {
	user, ok := c.Locals(LocalUser).(*model.User)
	return user, ok && user != nil
}
