package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickgrocery/internal/model"
)

func TestClient_Notify(t *testing.T) {
	var got OrderNotification
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/notify", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Response{Success: true, Message: "Notification sent successfully", MessageSid: "SM123"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/notify", time.Second)
	err := c.Notify(context.Background(), OrderNotification{OrderID: "o1", Message: "hi", Total: decimal.NewFromInt(120)})
	require.NoError(t, err)

	assert.Equal(t, "o1", got.OrderID)
	assert.Equal(t, "hi", got.Message)
	assert.True(t, decimal.NewFromInt(120).Equal(got.Total))
}

func TestClient_NotifyFailures(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(Response{Success: false, Message: "Failed to send notification", Error: "twilio down"})
	}))
	defer failing.Close()

	t.Run("relay reports failure", func(t *testing.T) {
		err := NewClient(failing.URL, time.Second).Notify(context.Background(), OrderNotification{OrderID: "o1", Message: "m"})
		assert.ErrorIs(t, err, ErrDispatchFailed)
		assert.Contains(t, err.Error(), "twilio down")
	})

	t.Run("relay unreachable", func(t *testing.T) {
		closed := httptest.NewServer(http.NotFoundHandler())
		url := closed.URL
		closed.Close()

		err := NewClient(url, 200*time.Millisecond).Notify(context.Background(), OrderNotification{OrderID: "o1", Message: "m"})
		assert.ErrorIs(t, err, ErrDispatchFailed)
	})

	t.Run("unsupported relay scheme", func(t *testing.T) {
		client := NewClient("ftp://relay.local/notify", time.Second)
		for i := 0; i < 3; i++ {
			err := client.Notify(context.Background(), OrderNotification{OrderID: "o1", Message: "m"})
			assert.ErrorIs(t, err, ErrDispatchFailed)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := NewClient(failing.URL, time.Second).Notify(ctx, OrderNotification{OrderID: "o1", Message: "m"})
		assert.ErrorIs(t, err, ErrDispatchFailed)
	})
}

func TestFormatOrderMessage(t *testing.T) {
	order := &model.Order{
		UserName: "Asha",
		Phone:    "9876543210",
		Address:  "12 MG Road",
		Items: []model.OrderItem{
			{Name: "Milk", Price: decimal.NewFromInt(30), Quantity: 2},
			{Name: "Bread", Price: decimal.RequireFromString("45.5"), Quantity: 1},
		},
		Total:         decimal.RequireFromString("105.5"),
		PaymentMethod: model.PaymentCOD,
	}
	order.ID = "0f8e3c1a-aaaa-bbbb-cccc-1234567890ab"

	want := "New Order #7890ab\n\n" +
		"Customer: Asha\n" +
		"Items:\n" +
		"Milk x2 - ₹60.00\n" +
		"Bread x1 - ₹45.50\n" +
		"\nTotal: ₹105.50\n" +
		"Payment: Cash on Delivery\n" +
		"Address: 12 MG Road\n" +
		"Phone: 9876543210"
	assert.Equal(t, want, FormatOrderMessage(order))

	n := ForOrder(order)
	assert.Equal(t, order.ID, n.OrderID)
	assert.True(t, order.Total.Equal(n.Total))
}
