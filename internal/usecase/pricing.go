package usecase

import (
	"context"
	"time"

	domain "github.com/Koneum/sissansissan-api/internal/entity"
)

// ShippingPolicy is injected configuration: orders at or above FreeThreshold
// ship free, everything else pays the flat fee.
type ShippingPolicy struct {
	FlatFee       int64
	FreeThreshold int64
}

func (p ShippingPolicy) FeeFor(subtotal int64) int64 {
	if p.FreeThreshold > 0 && subtotal >= p.FreeThreshold {
		return 0
	}
	return p.FlatFee
}

type Pricing struct {
	Subtotal int64
	Discount int64
	Shipping int64
	Total    int64
	Coupon   *domain.Coupon // nil when no coupon was applied
}

// price computes the order totals from authoritative unit prices. An
// invalid, unknown, or ineligible coupon code is silently ignored; it never
// fails the checkout.
func price(ctx context.Context, coupons CouponRepo, items []pricedItem, couponCode string, shipping ShippingPolicy, now time.Time) (Pricing, error) {
	var subtotal int64
	for _, it := range items {
		subtotal += it.UnitPrice * int64(it.Quantity)
	}

	var (
		discount int64
		applied  *domain.Coupon
	)
	if couponCode != "" {
		c, err := coupons.GetByCode(ctx, couponCode)
		if err != nil {
			return Pricing{}, err
		}
		if c != nil && c.EligibleAt(now, subtotal) {
			discount = c.DiscountFor(subtotal)
			applied = c
		}
	}

	fee := shipping.FeeFor(subtotal)
	total := subtotal - discount + fee
	if total < 0 {
		total = 0
	}
	return Pricing{
		Subtotal: subtotal,
		Discount: discount,
		Shipping: fee,
		Total:    total,
		Coupon:   applied,
	}, nil
}
