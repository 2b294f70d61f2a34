package handler

import (
	"github.com/gofiber/fiber/v2"

	"quickgrocery/internal/service"
)

type InventoryHandler struct {
	service service.InventoryService
}

func NewInventoryHandler(s service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: s}
}

func (h *InventoryHandler) GetCategories(c *fiber.Ctx) error {
	return c.JSON(h.service.Categories())
}

// GetProducts lists the catalog, optionally narrowed with ?category=
func (h *InventoryHandler) GetProducts(c *fiber.Ctx) error {
	products, err := h.service.ListProducts(c.UserContext(), c.Query("category"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(products)
}

func (h *InventoryHandler) GetProduct(c *fiber.Ctx) error {
	product, err := h.service.GetProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(product)
}

func (h *InventoryHandler) CreateProduct(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var in service.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	product, err := h.service.CreateProduct(c.UserContext(), &in, actorOf(user))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Product created", "data": product})
}

func (h *InventoryHandler) UpdateProduct(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var in service.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	updated, err := h.service.UpdateProduct(c.UserContext(), c.Params("id"), &in, actorOf(user))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product updated", "data": updated})
}

func (h *InventoryHandler) DeleteProduct(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	if err := h.service.DeleteProduct(c.UserContext(), c.Params("id"), actorOf(user)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product deleted"})
}

// GetFrequentProducts lists what the caller reorders most
// GET /api/v1/products/frequent
func (h *InventoryHandler) GetFrequentProducts(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	products, err := h.service.FrequentProducts(c.UserContext(), user.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(products)
}
