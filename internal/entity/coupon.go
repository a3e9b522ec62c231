package domain

import "time"

type DiscountType string

const (
	DiscountPercentage DiscountType = "PERCENTAGE"
	DiscountFixed      DiscountType = "FIXED"
)

const CouponActive = "ACTIVE"

type Coupon struct {
	ID            string
	Code          string
	Status        string
	ValidFrom     *time.Time // nil = unbounded
	ValidUntil    *time.Time // nil = unbounded
	UsageLimit    int        // 0 = unlimited
	UsedCount     int
	MinPurchase   int64 // 0 = no minimum
	DiscountType  DiscountType
	DiscountValue int64
	MaxDiscount   int64 // percentage cap, 0 = uncapped
}

// EligibleAt reports whether the coupon may be applied to a cart with the
// given subtotal. Ineligibility never fails a checkout; the discount is
// simply not applied.
func (c *Coupon) EligibleAt(now time.Time, subtotal int64) bool {
	if c.Status != CouponActive {
		return false
	}
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return false
	}
	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		return false
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return false
	}
	if c.MinPurchase > 0 && subtotal < c.MinPurchase {
		return false
	}
	return true
}

func (c *Coupon) DiscountFor(subtotal int64) int64 {
	var d int64
	switch c.DiscountType {
	case DiscountPercentage:
		d = subtotal * c.DiscountValue / 100
		if c.MaxDiscount > 0 && d > c.MaxDiscount {
			d = c.MaxDiscount
		}
	case DiscountFixed:
		d = c.DiscountValue
	}
	if d > subtotal {
		d = subtotal
	}
	if d < 0 {
		d = 0
	}
	return d
}
