package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	RetailPrice     decimal.Decimal `json:"retail_price"`
	WholesalePrice  decimal.Decimal `json:"wholesale_price"`
	MinWholesaleQty decimal.Decimal `json:"min_wholesale_qty"`
	StockKg         decimal.Decimal `json:"stock_kg"`
	ImageURL        string          `json:"image_url"`
	IsActive        bool            `json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// LineItem seeds a cart line for this product. Price is left for the
// pricing rule to fill in.
func (p Product) LineItem(quantity decimal.Decimal) LineItem {
	return LineItem{
		ProductID:       p.ID,
		Name:            p.Name,
		Quantity:        quantity,
		RetailPrice:     p.RetailPrice,
		WholesalePrice:  p.WholesalePrice,
		MinWholesaleQty: p.MinWholesaleQty,
		ImageURL:        p.ImageURL,
	}
}
