package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetStockCount(t *testing.T) {
	var p Product

	p.SetStockCount(3)
	assert.Equal(t, 3, p.StockCount)
	assert.True(t, p.Stock)

	p.SetStockCount(0)
	assert.False(t, p.Stock)

	p.SetStockCount(-4)
	assert.Equal(t, 0, p.StockCount)
	assert.False(t, p.Stock)
}

func TestInStock(t *testing.T) {
	var p Product
	p.SetStockCount(2)

	assert.True(t, p.InStock(2))
	assert.False(t, p.InStock(3))
	assert.False(t, p.InStock(0))
}

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		ok       bool
	}{
		{StatusPlaced, StatusOutForDelivery, true},
		{StatusPlaced, StatusDelivered, true},
		{StatusOutForDelivery, StatusDelivered, true},
		{StatusOutForDelivery, StatusPlaced, true},
		{StatusPreparing, StatusOutForDelivery, true},
		{StatusDelivered, StatusPlaced, false},
		{StatusDelivered, StatusOutForDelivery, false},
		{StatusPlaced, StatusPreparing, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestParseOrderStatus(t *testing.T) {
	for _, s := range OrderStatuses {
		got, err := ParseOrderStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := ParseOrderStatus("shipped")
	assert.Error(t, err)
}

func TestPaymentMethod(t *testing.T) {
	assert.True(t, PaymentCOD.Valid())
	assert.False(t, PaymentMethod("card").Valid())
	assert.Equal(t, PaymentAwaitingVerification, PaymentUPI.InitialPaymentStatus())
	assert.Equal(t, PaymentPending, PaymentCOD.InitialPaymentStatus())
	assert.Equal(t, "Cash on Delivery", PaymentCOD.Label())
}

func TestOrderShortIDAndSubtotal(t *testing.T) {
	o := Order{Items: []OrderItem{
		{Price: decimal.RequireFromString("30.50"), Quantity: 2},
		{Price: decimal.NewFromInt(10), Quantity: 1},
	}}
	o.ID = "3f2b9c1e-aaaa-bbbb-cccc-1234567890ab"

	assert.Equal(t, "7890ab", o.ShortID())
	assert.True(t, decimal.RequireFromString("71").Equal(o.ItemsSubtotal()))

	o.ID = "abc"
	assert.Equal(t, "abc", o.ShortID())
}

func TestRoleCapabilities(t *testing.T) {
	assert.True(t, RoleUser.Can(CapPlaceOrder))
	assert.False(t, RoleUser.Can(CapManageOrders))
	assert.True(t, RoleAdmin.Can(CapViewDashboard))
	assert.False(t, Role("guest").Valid())
	assert.Empty(t, Role("guest").Capabilities())
}

func TestCategories(t *testing.T) {
	assert.True(t, IsValidCategory("Sweet Tooth"))
	assert.False(t, IsValidCategory("sweet tooth"))
}

func TestUserPassword(t *testing.T) {
	var u User
	require.NoError(t, u.SetPassword("secret1"))
	assert.NotEqual(t, "secret1", u.Password)
	assert.True(t, u.CheckPassword("secret1"))
	assert.False(t, u.CheckPassword("secret2"))

	assert.False(t, u.HasDeliveryDetails())
	u.Name, u.Phone, u.Address = "Asha", "9876543210", "12 MG Road"
	assert.True(t, u.HasDeliveryDetails())
}
