package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPlaced         OrderStatus = "placed"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"

	// StatusPreparing is read from legacy rows and counted on the dashboard, but nothing
	// transitions into it.
	StatusPreparing OrderStatus = "preparing"
)

// OrderStatuses lists every recognised status in timeline order.
var OrderStatuses = []OrderStatus{StatusPlaced, StatusPreparing, StatusOutForDelivery, StatusDelivered}

var allowedTransitions = map[OrderStatus]map[OrderStatus]bool{
	StatusPlaced: {
		StatusOutForDelivery: true,
		StatusDelivered:      true,
	},
	StatusPreparing: {
		StatusOutForDelivery: true,
		StatusDelivered:      true,
	},
	StatusOutForDelivery: {
		StatusDelivered: true,
		StatusPlaced:    true,
	},
	StatusDelivered: {},
}

func (s OrderStatus) String() string {
	return string(s)
}

// ParseOrderStatus accepts only the known status values.
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if _, ok := allowedTransitions[status]; !ok {
		return "", fmt.Errorf("unknown order status %q", s)
	}
	return status, nil
}

// CanTransitionTo reports whether an admin may move an order from s to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return allowedTransitions[s][next]
}

type PaymentMethod string

const (
	PaymentCOD PaymentMethod = "cod"
	PaymentUPI PaymentMethod = "upi"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCOD || m == PaymentUPI
}

// InitialPaymentStatus is the payment status an order starts with for this method.
func (m PaymentMethod) InitialPaymentStatus() PaymentStatus {
	if m == PaymentUPI {
		return PaymentAwaitingVerification
	}
	return PaymentPending
}

// Label is the human-readable form used in notifications.
func (m PaymentMethod) Label() string {
	switch m {
	case PaymentCOD:
		return "Cash on Delivery"
	case PaymentUPI:
		return "UPI"
	default:
		return string(m)
	}
}

type PaymentStatus string

const (
	PaymentPending              PaymentStatus = "pending"
	PaymentAwaitingVerification PaymentStatus = "awaiting_verification"
)

// OrderItem is a snapshot of a product at order time. It is never updated.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey" json:"-" bson:"-"`
	OrderID   string          `gorm:"type:uuid;index;not null" json:"-" bson:"-"`
	ProductID string          `gorm:"type:uuid;not null" json:"product_id" bson:"product_id"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name" bson:"name"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price" bson:"price"`
	Quantity  int             `gorm:"not null" json:"quantity" bson:"quantity"`
}

// LineTotal is Price * Quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	BaseModel     `bson:",inline"`
	UserID        string          `gorm:"type:uuid;index;not null" json:"user_id" bson:"user_id"`
	UserName      string          `gorm:"type:varchar(255)" json:"user_name" bson:"user_name"`
	UserEmail     string          `gorm:"type:varchar(255)" json:"user_email" bson:"user_email"`
	Phone         string          `gorm:"type:varchar(20)" json:"phone" bson:"phone"`
	Address       string          `gorm:"type:text" json:"address" bson:"address"`
	Items         []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items" bson:"items"`
	Subtotal      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal" bson:"subtotal"`
	PlatformFee   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"platform_fee" bson:"platform_fee"`
	Total         decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total" bson:"total"`
	PaymentMethod PaymentMethod   `gorm:"type:varchar(10);not null" json:"payment_method" bson:"payment_method"`
	PaymentApp    string          `gorm:"type:varchar(20)" json:"payment_app,omitempty" bson:"payment_app,omitempty"`
	PaymentStatus PaymentStatus   `gorm:"type:varchar(30);not null" json:"payment_status" bson:"payment_status"`
	Status        OrderStatus     `gorm:"type:varchar(30);not null;index" json:"status" bson:"status"`
}

// ShortID is the tail of the id shown to customers and in notifications.
func (o *Order) ShortID() string {
	if len(o.ID) <= 6 {
		return o.ID
	}
	return o.ID[len(o.ID)-6:]
}

// ItemsSubtotal recomputes the subtotal from the item snapshot.
func (o *Order) ItemsSubtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range o.Items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}
