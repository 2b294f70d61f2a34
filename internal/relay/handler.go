// Package relay is the small HTTP service that turns order notifications into WhatsApp messages.
package relay

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"quickgrocery/internal/notify"
	"quickgrocery/pkg/validator"
)

type Handler struct {
	sender Sender
}

func NewHandler(sender Sender) *Handler {
	return &Handler{sender: sender}
}

func (h *Handler) Register(app *fiber.App) {
	app.Get("/", h.Status)
	app.Post("/notify", h.Notify)
}

// Notify handles POST /notify
func (h *Handler) Notify(c *fiber.Ctx) error {
	var req notify.OrderNotification
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(notify.Response{Success: false, Message: "Invalid JSON"})
	}
	if errs := validator.ValidateStruct(&req); len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(notify.Response{Success: false, Message: errs[0].Error()})
	}

	msg, err := h.sender.Send(c.UserContext(), req.Message)
	if err != nil {
		log.Error().Err(err).Str("order_id", req.OrderID).Msg("Error sending WhatsApp notification")
		return c.Status(fiber.StatusInternalServerError).JSON(notify.Response{
			Success: false,
			Message: "Failed to send WhatsApp notification",
			Error:   err.Error(),
		})
	}

	log.Info().
		Str("order_id", req.OrderID).
		Str("total", req.Total.StringFixed(2)).
		Str("message_sid", msg.Sid).
		Str("message_status", msg.Status).
		Msg("Order notification sent")

	return c.JSON(notify.Response{
		Success:    true,
		Message:    "WhatsApp notification sent successfully",
		MessageSid: msg.Sid,
	})
}

// Status handles GET /
func (h *Handler) Status(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "running",
		"message": "QuickGrocery notification relay",
		"endpoints": []fiber.Map{
			{"method": "POST", "path": "/notify", "description": "Send order notification"},
		},
	})
}
