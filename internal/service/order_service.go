package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"quickgrocery/internal/cart"
	"quickgrocery/internal/model"
	"quickgrocery/internal/notify"
	"quickgrocery/internal/repository"
)

// Notifier forwards a committed order to the shopkeeper.
type Notifier interface {
	Notify(ctx context.Context, n notify.OrderNotification) error
}

// DeliveryProfile is the customer snapshot copied onto the order.
type DeliveryProfile struct {
	UserID  string
	Email   string
	Name    string
	Phone   string
	Address string
}

type PlaceOrderRequest struct {
	Cart          *cart.Cart
	Profile       DeliveryProfile
	PaymentMethod model.PaymentMethod
	PaymentApp    string
}

// Viewer is who is asking for an order.
type Viewer struct {
	UserID string
	Role   model.Role
}

type OrderOptions struct {
	// PlatformFee is charged once per order when the subtotal is positive.
	PlatformFee   decimal.Decimal
	MaxRetries    int
	NotifyTimeout time.Duration
	UPI           UPIConfig
	Now           func() time.Time
}

type OrderService interface {
	PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*model.Order, error)
	GetOrder(ctx context.Context, id string, viewer Viewer) (*model.Order, error)
	ListOrders(ctx context.Context, filter repository.OrderFilter) ([]model.Order, error)
	ListUserOrders(ctx context.Context, userID string) ([]model.Order, error)
	UpdateStatus(ctx context.Context, id, status string) (*model.Order, error)
	PaymentLink(ctx context.Context, id string, viewer Viewer, app string) (string, error)
	PaymentLinkFor(order *model.Order, app string) string
}

type orderService struct {
	store     repository.CheckoutStore
	orders    repository.OrderRepository
	notifier  Notifier
	publisher Publisher
	opts      OrderOptions
}

func NewOrderService(store repository.CheckoutStore, orders repository.OrderRepository, notifier Notifier, publisher Publisher, opts OrderOptions) OrderService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = 10 * time.Second
	}
	return &orderService{
		store:     store,
		orders:    orders,
		notifier:  notifier,
		publisher: publisherOrNop(publisher),
		opts:      opts,
	}
}

// PlaceOrder reserves stock and records the order in one transaction. On success the cart
// is cleared and the shopkeeper is notified in the background. On any failure nothing is
// written and the cart is left as it was.
func (s *orderService) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*model.Order, error) {
	if err := validatePlaceOrder(req); err != nil {
		return nil, err
	}

	// Sorted by product id so concurrent checkouts lock rows in the same order.
	lines := req.Cart.Lines()

	var (
		order   *model.Order
		changes []StockChange
		err     error
	)
	for attempt := 0; attempt <= s.opts.MaxRetries; attempt++ {
		order, changes, err = s.placeOnce(ctx, req, lines)
		if err == nil || !errors.Is(err, repository.ErrConflict) {
			break
		}
		log.Warn().Err(err).
			Str("user_id", req.Profile.UserID).
			Int("attempt", attempt+1).
			Msg("Checkout transaction conflict")
		if ctx.Err() != nil {
			break
		}
	}
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: %w", ErrTransactionAborted, err)
		}
		return nil, err
	}

	req.Cart.Clear()

	log.Info().
		Str("order_id", order.ID).
		Str("user_id", order.UserID).
		Str("total", order.Total.StringFixed(2)).
		Int("items", len(order.Items)).
		Msg("Order placed")

	s.publisher.Publish(EventOrderPlaced, order)
	for _, c := range changes {
		s.publisher.Publish(EventStockUpdate, c)
	}
	if s.notifier != nil {
		go s.dispatch(context.WithoutCancel(ctx), order)
	}

	return order, nil
}

func (s *orderService) placeOnce(ctx context.Context, req *PlaceOrderRequest, lines []cart.Line) (*model.Order, []StockChange, error) {
	var (
		order   *model.Order
		changes []StockChange
	)

	err := s.store.RunInTransaction(ctx, func(ctx context.Context, tx repository.CheckoutTx) error {
		// Rebuilt on every attempt so a retry never sees state from an aborted one.
		now := s.opts.Now()
		order = &model.Order{
			UserID:        req.Profile.UserID,
			UserName:      req.Profile.Name,
			UserEmail:     req.Profile.Email,
			Phone:         req.Profile.Phone,
			Address:       req.Profile.Address,
			PaymentMethod: req.PaymentMethod,
			PaymentStatus: req.PaymentMethod.InitialPaymentStatus(),
			Status:        model.StatusPlaced,
		}
		if req.PaymentMethod == model.PaymentUPI {
			order.PaymentApp = req.PaymentApp
		}
		order.ID = model.NewID()
		order.CreatedAt, order.UpdatedAt = now, now
		changes = changes[:0]

		subtotal := decimal.Zero
		for _, line := range lines {
			product, err := tx.GetProduct(ctx, line.ProductID)
			if errors.Is(err, repository.ErrNotFound) {
				return &ProductNotFoundError{ProductID: line.ProductID, Name: line.Name}
			}
			if err != nil {
				return err
			}
			if !product.InStock(line.Quantity) {
				return &InsufficientStockError{
					ProductID: product.ID,
					Name:      product.Name,
					Available: product.StockCount,
					Requested: line.Quantity,
				}
			}

			item := model.OrderItem{
				ProductID: product.ID,
				Name:      product.Name,
				Price:     product.Price,
				Quantity:  line.Quantity,
			}
			subtotal = subtotal.Add(item.LineTotal())
			order.Items = append(order.Items, item)

			remaining := model.Product{}
			remaining.SetStockCount(product.StockCount - line.Quantity)
			changes = append(changes, StockChange{
				ProductID:  product.ID,
				Name:       product.Name,
				StockCount: remaining.StockCount,
				Stock:      remaining.Stock,
			})
		}

		fee := s.platformFee(subtotal)
		order.Subtotal = subtotal
		order.PlatformFee = fee
		order.Total = subtotal.Add(fee)

		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}
		for _, line := range lines {
			if err := tx.DecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return order, changes, nil
}

func (s *orderService) platformFee(subtotal decimal.Decimal) decimal.Decimal {
	if !subtotal.IsPositive() {
		return decimal.Zero
	}
	return s.opts.PlatformFee
}

func (s *orderService) dispatch(ctx context.Context, order *model.Order) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.NotifyTimeout)
	defer cancel()

	if err := s.notifier.Notify(ctx, notify.ForOrder(order)); err != nil {
		log.Error().
			Err(fmt.Errorf("%w: %w", ErrNotificationDispatchFailed, err)).
			Str("order_id", order.ID).
			Msg("Shopkeeper was not notified")
		return
	}
	log.Debug().Str("order_id", order.ID).Msg("Shopkeeper notified")
}

func validatePlaceOrder(req *PlaceOrderRequest) error {
	if req == nil {
		return validationError("", "empty request")
	}
	if req.Profile.UserID == "" {
		return validationError("user", "sign in to place an order")
	}
	if req.Cart == nil || req.Cart.IsEmpty() {
		return validationError("cart", "cart is empty")
	}
	for _, line := range req.Cart.Lines() {
		if line.ProductID == "" {
			return validationError("cart", "cart line without product")
		}
		if line.Quantity <= 0 {
			return validationError("cart", "quantity for %s must be greater than zero", line.Name)
		}
	}
	if strings.TrimSpace(req.Profile.Name) == "" {
		return validationError("name", "name is required for delivery")
	}
	if strings.TrimSpace(req.Profile.Phone) == "" {
		return validationError("phone", "phone is required for delivery")
	}
	if strings.TrimSpace(req.Profile.Address) == "" {
		return validationError("address", "address is required for delivery")
	}
	if !req.PaymentMethod.Valid() {
		return validationError("payment_method", "unsupported payment method %q", req.PaymentMethod)
	}
	if req.PaymentMethod == model.PaymentUPI && !validPaymentApp(req.PaymentApp) {
		return validationError("payment_app", "unsupported payment app %q", req.PaymentApp)
	}
	return nil
}

func (s *orderService) GetOrder(ctx context.Context, id string, viewer Viewer) (*model.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if order.UserID != viewer.UserID && !viewer.Role.Can(model.CapManageOrders) {
		return nil, ErrForbidden
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]model.Order, error) {
	if filter.Status != "" {
		if _, err := model.ParseOrderStatus(string(filter.Status)); err != nil {
			return nil, validationError("status", "%v", err)
		}
	}
	return s.orders.FindAll(ctx, filter)
}

func (s *orderService) ListUserOrders(ctx context.Context, userID string) ([]model.Order, error) {
	return s.orders.FindAll(ctx, repository.OrderFilter{UserID: userID})
}

// UpdateStatus moves an order along the status timeline. Setting the current status again is a no-op.
func (s *orderService) UpdateStatus(ctx context.Context, id, status string) (*model.Order, error) {
	next, err := model.ParseOrderStatus(status)
	if err != nil {
		return nil, validationError("status", "%v", err)
	}

	order, err := s.orders.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	if order.Status == next {
		return order, nil
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, order.Status, next)
	}

	now := s.opts.Now()
	if err := s.orders.UpdateStatus(ctx, id, order.Status, next, now); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrOrderNotFound
		case errors.Is(err, repository.ErrConflict):
			return nil, ErrStatusChanged
		default:
			return nil, err
		}
	}

	prev := order.Status
	order.Status = next
	order.UpdatedAt = now

	log.Info().Str("order_id", id).Stringer("from", prev).Stringer("to", next).Msg("Order status updated")
	s.publisher.Publish(EventOrderStatusUpdated, map[string]interface{}{
		"order_id":   order.ID,
		"status":     order.Status,
		"previous":   prev,
		"updated_at": order.UpdatedAt,
	})
	return order, nil
}

func (s *orderService) PaymentLink(ctx context.Context, id string, viewer Viewer, app string) (string, error) {
	order, err := s.GetOrder(ctx, id, viewer)
	if err != nil {
		return "", err
	}
	if order.PaymentMethod != model.PaymentUPI {
		return "", validationError("payment_method", "order is not paid by UPI")
	}
	return s.PaymentLinkFor(order, app), nil
}

// PaymentLinkFor builds the UPI link for order, falling back to the app chosen at checkout.
func (s *orderService) PaymentLinkFor(order *model.Order, app string) string {
	if app == "" {
		app = order.PaymentApp
	}
	return GeneratePaymentLink(s.opts.UPI, order.ID, order.Total, app)
}
