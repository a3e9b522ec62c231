package domain

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

var ErrInvalidTotals = errors.New("order totals do not add up")

// Address is stored as an immutable snapshot on the order, never as a
// reference to a mutable profile record.
type Address struct {
	FullName   string `json:"fullName"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// Amounts are int64 in major currency units; the deployment currency has no
// fractional subunit. Minor units (x100) exist only at the gateway boundary.
type Order struct {
	ID              string
	OrderNumber     string
	CustomerID      string
	Status          Status
	PaymentStatus   PaymentStatus
	Subtotal        int64
	Shipping        int64
	Discount        int64
	Total           int64
	CouponID        string
	CouponCode      string
	ShippingAddress Address
	BillingAddress  Address
	PaymentMethod   string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Items []OrderItem
}

func (o *Order) Validate() error {
	if o.Subtotal < 0 || o.Shipping < 0 || o.Discount < 0 || o.Total < 0 {
		return ErrInvalidTotals
	}
	want := o.Subtotal - o.Discount + o.Shipping
	if want < 0 {
		want = 0
	}
	if o.Total != want {
		return ErrInvalidTotals
	}
	if len(o.Items) == 0 {
		return errors.New("order has no items")
	}
	return nil
}

// ProductSnapshot freezes the product fields shown on the order at purchase
// time. It is never recomputed from the live product row.
type ProductSnapshot struct {
	Name      string `json:"name"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Price     int64  `json:"price"`
}

type OrderItem struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  int
	Price     int64
	Snapshot  ProductSnapshot
}

// NewOrderNumber builds the gateway-facing correlation key: timestamp plus a
// random suffix so numbers are unique and not guessable from one another.
func NewOrderNumber(now time.Time) string {
	buf := make([]byte, 3)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), strings.ToUpper(hex.EncodeToString(buf)))
}
