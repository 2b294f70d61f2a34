// Package notify talks to the shopkeeper notification relay.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"quickgrocery/internal/model"
)

var ErrDispatchFailed = errors.New("notification dispatch failed")

// OrderNotification is the body of POST /notify.
type OrderNotification struct {
	OrderID string          `json:"orderId" validate:"required"`
	Message string          `json:"message" validate:"required"`
	Total   decimal.Decimal `json:"total"`
}

// Response is what the relay answers with, on success and on failure.
type Response struct {
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
	MessageSid string `json:"messageSid,omitempty"`
	Error      string `json:"error,omitempty"`
}

type Client struct {
	url     string
	timeout time.Duration
}

func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{url: url, timeout: timeout}
}

// Notify posts n to the relay. Any transport error or non-success answer is ErrDispatchFailed.
func (c *Client) Notify(ctx context.Context, n OrderNotification) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	agent := fiber.Post(c.url)
	agent.JSON(n)
	agent.Timeout(timeout)
	if err := agent.Parse(); err != nil {
		// Struct releases the agent; on this path nothing else will.
		fiber.ReleaseAgent(agent)
		return fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}

	var resp Response
	code, _, errs := agent.Struct(&resp)
	if len(errs) > 0 {
		return fmt.Errorf("%w: %v", ErrDispatchFailed, errors.Join(errs...))
	}
	if code != fiber.StatusOK || !resp.Success {
		return fmt.Errorf("%w: status %d: %s", ErrDispatchFailed, code, firstNonEmpty(resp.Error, resp.Message))
	}
	return nil
}

// FormatOrderMessage renders the WhatsApp text the shopkeeper receives.
func FormatOrderMessage(order *model.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New Order #%s\n\n", order.ShortID())
	fmt.Fprintf(&b, "Customer: %s\n", order.UserName)
	b.WriteString("Items:\n")
	for _, it := range order.Items {
		fmt.Fprintf(&b, "%s x%d - ₹%s\n", it.Name, it.Quantity, it.LineTotal().StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: ₹%s\n", order.Total.StringFixed(2))
	fmt.Fprintf(&b, "Payment: %s\n", order.PaymentMethod.Label())
	fmt.Fprintf(&b, "Address: %s\n", order.Address)
	fmt.Fprintf(&b, "Phone: %s", order.Phone)
	return b.String()
}

// ForOrder builds the relay payload for a committed order.
func ForOrder(order *model.Order) OrderNotification {
	return OrderNotification{
		OrderID: order.ID,
		Message: FormatOrderMessage(order),
		Total:   order.Total,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return "relay reported failure"
}
