package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/db/models"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/enums"
)

var hundred = decimal.NewFromInt(100)

// Quote is the priced view of a cart: the raw subtotal, the coupon discount
// actually granted, and the amount to charge.
type Quote struct {
	TotalPrice      decimal.Decimal
	DiscountApplied decimal.Decimal
	FinalPrice      decimal.Decimal
}

// PriceCart computes the charge for the given cart snapshot at the given
// instant. The coupon may be nil.
func PriceCart(record *models.Cart, now time.Time) Quote {
	subtotal := decimal.Zero
	if record != nil {
		for _, item := range record.Items {
			subtotal = subtotal.Add(item.Price)
		}
	}
	var coupon *models.Coupon
	if record != nil {
		coupon = record.Coupon
	}
	return PriceSubtotal(subtotal, coupon, now)
}

// PriceSubtotal applies the coupon discount to a precomputed subtotal.
// A coupon that is inactive or outside its validity window at the given
// instant lapses silently: the subtotal is charged undiscounted. A flat
// discount never pushes the final price below zero.
func PriceSubtotal(subtotal decimal.Decimal, coupon *models.Coupon, now time.Time) Quote {
	subtotal = subtotal.Round(2)
	quote := Quote{
		TotalPrice:      subtotal,
		DiscountApplied: decimal.Zero,
		FinalPrice:      subtotal,
	}
	if coupon == nil || subtotal.IsZero() {
		return quote
	}
	if !coupon.IsActive || !coupon.ValidAt(now) {
		return quote
	}

	var discount decimal.Decimal
	switch coupon.DiscountType {
	case enums.DiscountTypePercentage:
		discount = subtotal.Mul(coupon.DiscountValue).Div(hundred).Round(2)
	case enums.DiscountTypeFlat:
		discount = coupon.DiscountValue.Round(2)
	default:
		return quote
	}

	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}

	quote.DiscountApplied = discount
	quote.FinalPrice = subtotal.Sub(discount).Round(2)
	return quote
}

// SavingsPercent reports the effective discount rate of a quote, rounded to
// two decimal places. Zero subtotals yield zero.
func SavingsPercent(quote Quote) decimal.Decimal {
	if quote.TotalPrice.IsZero() {
		return decimal.Zero
	}
	return quote.DiscountApplied.Mul(hundred).Div(quote.TotalPrice).Round(2)
}
