package services

import (
	"context"
	"greenbasket/models"
	"sync/atomic"

	"github.com/shopspring/decimal"
)

// ComputePrice applies the tiered pricing rule. Wholesale customers get the
// wholesale price once quantity reaches minWholesaleQty (inclusive).
func ComputePrice(quantity, retailPrice, wholesalePrice, minWholesaleQty decimal.Decimal, isWholesaleCustomer bool) decimal.Decimal {
	if isWholesaleCustomer && quantity.GreaterThanOrEqual(minWholesaleQty) {
		return wholesalePrice
	}
	return retailPrice
}

// PricingModeSource tells the cart which price tier the current customer is in.
// It is consulted on every mutation.
type PricingModeSource interface {
	IsWholesaleCustomer(ctx context.Context) bool
}

type CustomerPricingMode string

const (
	PricingRetail    CustomerPricingMode = "retail"
	PricingWholesale CustomerPricingMode = "wholesale"
)

func (m CustomerPricingMode) IsWholesaleCustomer(context.Context) bool {
	return m == PricingWholesale
}

// SessionPricing is a pricing source that follows the latest session state.
type SessionPricing struct {
	wholesale atomic.Bool
}

func NewSessionPricing(wholesale bool) *SessionPricing {
	p := &SessionPricing{}
	p.wholesale.Store(wholesale)
	return p
}

func (p *SessionPricing) Set(wholesale bool) {
	p.wholesale.Store(wholesale)
}

func (p *SessionPricing) IsWholesaleCustomer(context.Context) bool {
	return p.wholesale.Load()
}

func priceItem(item models.LineItem, wholesale bool) models.LineItem {
	item.Price = ComputePrice(item.Quantity, item.RetailPrice, item.WholesalePrice, item.MinWholesaleQty, wholesale)
	return item
}
