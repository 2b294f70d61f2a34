package service

// Live feed event types.
const (
	EventOrderPlaced        = "order_placed"
	EventOrderStatusUpdated = "order_status_updated"
	EventStockUpdate        = "stock_update"
	EventProductCreated     = "product_created"
	EventProductUpdated     = "product_updated"
	EventProductDeleted     = "product_deleted"
)

// Publisher pushes events to connected admin clients. Publish must not block.
type Publisher interface {
	Publish(eventType string, payload interface{})
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, interface{}) {}

func publisherOrNop(p Publisher) Publisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

// StockChange is the payload of a stock_update event.
type StockChange struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	StockCount int    `json:"stock_count"`
	Stock      bool   `json:"stock"`
}
