package models

import "github.com/shopspring/decimal"

// LineItem is one product line of a cart. Price is the effective unit price
// after the pricing rule has been applied to the other fields.
type LineItem struct {
	ProductID       int64           `json:"productId"`
	Name            string          `json:"name"`
	Quantity        decimal.Decimal `json:"quantity"`
	RetailPrice     decimal.Decimal `json:"retailPrice"`
	WholesalePrice  decimal.Decimal `json:"wholesalePrice"`
	MinWholesaleQty decimal.Decimal `json:"minWholesaleQty"`
	Price           decimal.Decimal `json:"price"`
	ImageURL        string          `json:"imageUrl,omitempty"`
}

func (i LineItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(i.Quantity)
}

type CartResponse struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message,omitempty"`
	Items     []LineItem      `json:"items"`
	ItemCount int             `json:"itemCount"`
	Total     decimal.Decimal `json:"total"`
}

type CartCountResponse struct {
	Success   bool `json:"success"`
	ItemCount int  `json:"itemCount"`
}

// CloneItems returns a copy that callers may modify freely.
func CloneItems(src []LineItem) []LineItem {
	out := make([]LineItem, len(src))
	copy(out, src)
	return out
}
