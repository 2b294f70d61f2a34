package handler

import (
	"github.com/gofiber/fiber/v2"

	"quickgrocery/internal/cart"
	"quickgrocery/internal/model"
	"quickgrocery/internal/repository"
	"quickgrocery/internal/service"
)

type OrderHandler struct {
	service service.OrderService
}

func NewOrderHandler(s service.OrderService) *OrderHandler {
	return &OrderHandler{service: s}
}

// PlaceOrderRequest is the checkout body. Line prices are ignored; the stored price is charged.
type PlaceOrderRequest struct {
	Lines         []cart.Line         `json:"lines"`
	PaymentMethod model.PaymentMethod `json:"payment_method"`
	PaymentApp    string              `json:"payment_app"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// PlaceOrder checks the cart out against the caller's stored delivery profile
// POST /api/v1/orders
func (h *OrderHandler) PlaceOrder(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req PlaceOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	draft, err := cart.New(req.Lines...)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error(), "field": "cart"})
	}

	order, err := h.service.PlaceOrder(c.UserContext(), &service.PlaceOrderRequest{
		Cart: draft,
		Profile: service.DeliveryProfile{
			UserID:  user.ID,
			Email:   user.Email,
			Name:    user.Name,
			Phone:   user.Phone,
			Address: user.Address,
		},
		PaymentMethod: req.PaymentMethod,
		PaymentApp:    req.PaymentApp,
	})
	if err != nil {
		return writeError(c, err)
	}

	resp := fiber.Map{"message": "Order placed", "data": order}
	if order.PaymentMethod == model.PaymentUPI {
		resp["payment_link"] = h.service.PaymentLinkFor(order, req.PaymentApp)
	}
	return c.Status(201).JSON(resp)
}

// GetMyOrders lists the caller's orders, newest first
// GET /api/v1/orders/mine
func (h *OrderHandler) GetMyOrders(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	orders, err := h.service.ListUserOrders(c.UserContext(), user.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(orders)
}

// GetOrders is the admin view, filtered by ?status= and ?user_id=
// GET /api/v1/orders
func (h *OrderHandler) GetOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListOrders(c.UserContext(), repository.OrderFilter{
		Status: model.OrderStatus(c.Query("status")),
		UserID: c.Query("user_id"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(orders)
}

func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	order, err := h.service.GetOrder(c.UserContext(), c.Params("id"), viewerOf(user))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(order)
}

// GetPaymentLink rebuilds the UPI link, optionally for a different ?app=
// GET /api/v1/orders/:id/payment-link
func (h *OrderHandler) GetPaymentLink(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	link, err := h.service.PaymentLink(c.UserContext(), c.Params("id"), viewerOf(user), c.Query("app"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"payment_link": link})
}

// UpdateStatus moves an order along placed, out for delivery, delivered
// PATCH /api/v1/orders/:id/status
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	order, err := h.service.UpdateStatus(c.UserContext(), c.Params("id"), req.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Order status updated", "data": order})
}
