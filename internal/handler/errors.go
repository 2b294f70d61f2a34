package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"quickgrocery/internal/middleware"
	"quickgrocery/internal/model"
	"quickgrocery/internal/service"
)

// writeError maps service errors onto status codes. Anything unrecognised is a 500 and
// its detail stays in the log.
func writeError(c *fiber.Ctx, err error) error {
	var (
		validation *service.ValidationError
		missing    *service.ProductNotFoundError
		short      *service.InsufficientStockError
	)

	switch {
	case errors.As(err, &validation):
		return c.Status(400).JSON(fiber.Map{"error": validation.Error(), "field": validation.Field})
	case errors.Is(err, service.ErrValidation):
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})

	case errors.As(err, &missing):
		return c.Status(404).JSON(fiber.Map{
			"error":      missing.Error(),
			"code":       "product_not_found",
			"product_id": missing.ProductID,
		})
	case errors.As(err, &short):
		return c.Status(409).JSON(fiber.Map{
			"error":      short.Error(),
			"code":       "insufficient_stock",
			"product_id": short.ProductID,
			"product":    short.Name,
			"available":  short.Available,
			"requested":  short.Requested,
		})
	case errors.Is(err, service.ErrTransactionAborted):
		return c.Status(503).JSON(fiber.Map{"error": service.ErrTransactionAborted.Error(), "code": "try_again"})

	case errors.Is(err, service.ErrOrderNotFound), errors.Is(err, service.ErrUserNotFound):
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		return c.Status(403).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidTransition), errors.Is(err, service.ErrStatusChanged):
		return c.Status(409).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, service.ErrEmailExists):
		return c.Status(409).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrWrongPassword):
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	log.Error().Err(err).Str("path", c.Path()).Msg("Request failed")
	return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
}

func currentUser(c *fiber.Ctx) (*model.User, error) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return nil, fiber.ErrUnauthorized
	}
	return user, nil
}

func viewerOf(user *model.User) service.Viewer {
	return service.Viewer{UserID: user.ID, Role: user.Role}
}

func actorOf(user *model.User) service.Actor {
	return service.Actor{ID: user.ID, Name: user.Name, Email: user.Email}
}
