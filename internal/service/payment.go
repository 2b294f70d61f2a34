package service

import (
	"net/url"

	"github.com/shopspring/decimal"
)

// UPIConfig identifies the payee for generated payment links.
type UPIConfig struct {
	VPA       string
	PayeeName string
}

var upiSchemes = map[string]string{
	"gpay":    "tez://upi/pay",
	"phonepe": "phonepe://pay",
	"paytm":   "paytmmp://pay",
}

const defaultUPIScheme = "upi://pay"

// validPaymentApp accepts an empty app (any UPI app) or one with a known deep link.
func validPaymentApp(app string) bool {
	if app == "" {
		return true
	}
	_, ok := upiSchemes[app]
	return ok
}

// GeneratePaymentLink builds the UPI deep link for an order. The same inputs always
// give the same link.
func GeneratePaymentLink(cfg UPIConfig, orderID string, amount decimal.Decimal, app string) string {
	scheme, ok := upiSchemes[app]
	if !ok {
		scheme = defaultUPIScheme
	}

	short := orderID
	if len(short) > 6 {
		short = short[len(short)-6:]
	}

	q := url.Values{}
	q.Set("pa", cfg.VPA)
	q.Set("pn", cfg.PayeeName)
	q.Set("am", amount.StringFixed(2))
	q.Set("cu", "INR")
	q.Set("tn", "Order #"+short)
	q.Set("tr", orderID)
	return scheme + "?" + q.Encode()
}
