package handler

import (
	"github.com/gofiber/fiber/v2"

	"quickgrocery/internal/service"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetProfile returns the caller's delivery profile
// GET /api/v1/profile
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	profile, err := h.userService.GetProfile(c.UserContext(), user.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(profile)
}

// UpdateProfile saves name, phone and address. Email cannot change.
// PUT /api/v1/profile
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req service.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	profile, err := h.userService.UpdateProfile(c.UserContext(), user.ID, &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Profile updated", "data": profile})
}
