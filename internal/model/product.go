package model

import "github.com/shopspring/decimal"

func init() {
	// Prices travel as JSON numbers, matching what the storefront and the relay expect.
	decimal.MarshalJSONWithoutQuotes = true
}

// LowStockThreshold is the count under which a product shows up as low stock on the dashboard.
const LowStockThreshold = 10

type Product struct {
	BaseModel  `bson:",inline"`
	Name       string          `gorm:"type:varchar(255);not null" json:"name" bson:"name"`
	Price      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price" bson:"price"`
	Category   string          `gorm:"type:varchar(100);index" json:"category" bson:"category"`
	Size       string          `gorm:"type:varchar(50)" json:"size,omitempty" bson:"size,omitempty"`
	StockCount int             `gorm:"not null;default:0" json:"stock_count" bson:"stock_count"`
	Stock      bool            `gorm:"not null;default:false" json:"stock" bson:"stock"`
	Image      string          `gorm:"type:text" json:"image,omitempty" bson:"image,omitempty"`
}

// SetStockCount is the only way stock should change: it floors the count at zero
// and keeps the Stock flag equal to StockCount > 0.
func (p *Product) SetStockCount(n int) {
	if n < 0 {
		n = 0
	}
	p.StockCount = n
	p.Stock = n > 0
}

// InStock reports whether qty units can be reserved right now.
func (p *Product) InStock(qty int) bool {
	return qty > 0 && p.StockCount >= qty
}
