package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domain "github.com/Koneum/sissansissan-api/internal/entity"
	"github.com/Koneum/sissansissan-api/internal/logging"
)

type CheckoutInput struct {
	UserID          string
	Guest           *GuestContact
	Items           []CheckoutItem
	CouponCode      string
	ShippingAddress domain.Address
	BillingAddress  domain.Address
	PaymentMethod   string
	IdempotencyKey  string
}

type CheckoutOutput struct {
	OrderID     string
	OrderNumber string
	PaymentURL  string // empty when payment initiation failed; order stays PENDING
	Replayed    bool   // true when an idempotency key matched an earlier order
}

type Checkout struct {
	customers CustomerRepo
	products  ProductRepo
	coupons   CouponRepo
	store     OrderStore
	idem      IdempotencyStore
	gateway   PaymentGateway
	shipping  ShippingPolicy
	currency  string
}

func NewCheckout(customers CustomerRepo, products ProductRepo, coupons CouponRepo,
	store OrderStore, idem IdempotencyStore, gateway PaymentGateway,
	shipping ShippingPolicy, currency string) *Checkout {
	return &Checkout{
		customers: customers,
		products:  products,
		coupons:   coupons,
		store:     store,
		idem:      idem,
		gateway:   gateway,
		shipping:  shipping,
		currency:  currency,
	}
}

// Execute runs the full pipeline: resolve customer, validate the cart
// against the catalog, price it, persist the order atomically with its
// stock/coupon side effects, then initiate payment. A gateway failure does
// not roll back the order; the caller may retry initiation later.
func (uc *Checkout) Execute(ctx context.Context, in CheckoutInput) (CheckoutOutput, error) {
	log := logging.FromCtx(ctx)

	cust, err := resolveCustomer(ctx, uc.customers, in.UserID, in.Guest)
	if err != nil {
		return CheckoutOutput{}, err
	}

	// Idempotent retry: same key for the same customer returns the original
	// order instead of creating a second one (and double-decrementing stock).
	if in.IdempotencyKey != "" {
		if id, ok, _ := uc.idem.Recall(ctx, cust.ID, in.IdempotencyKey); ok {
			prev, err := uc.store.GetByID(ctx, id)
			if err != nil {
				return CheckoutOutput{}, err
			}
			if prev == nil {
				return CheckoutOutput{}, ErrOrderNotFound
			}
			out := CheckoutOutput{OrderID: prev.ID, OrderNumber: prev.OrderNumber, Replayed: true}
			// While the order is still awaiting payment, a replay retries
			// payment initiation so a transient gateway failure on the first
			// attempt does not strand the caller without a checkout URL.
			// Settled orders are returned as-is.
			if prev.Status == domain.StatusPending && prev.PaymentStatus == domain.PaymentPending {
				payURL, err := uc.gateway.Initiate(ctx, prev, cust.Email)
				if err != nil {
					log.Warn("payment re-initiation failed",
						slog.String("order_id", prev.ID),
						slog.String("order_number", prev.OrderNumber),
						slog.String("error", err.Error()))
				} else {
					out.PaymentURL = payURL
				}
			}
			return out, nil
		}
		ok, err := uc.idem.TryLock(ctx, cust.ID, in.IdempotencyKey)
		if err != nil {
			return CheckoutOutput{}, err
		}
		if !ok {
			return CheckoutOutput{}, ErrDuplicate
		}
	}

	priced, err := validateItems(ctx, uc.products, in.Items)
	if err != nil {
		return CheckoutOutput{}, err
	}

	now := time.Now()
	pricing, err := price(ctx, uc.coupons, priced, in.CouponCode, uc.shipping, now)
	if err != nil {
		return CheckoutOutput{}, err
	}

	order := uc.buildOrder(cust, priced, pricing, in, now)
	if err := order.Validate(); err != nil {
		return CheckoutOutput{}, err
	}

	err = uc.store.WithinTx(ctx, func(tx OrderTx) error {
		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}
		if err := tx.InsertItems(ctx, order.Items); err != nil {
			return err
		}
		for _, it := range order.Items {
			// Conditional decrement: a concurrent checkout that drained the
			// stock since validation fails the whole transaction here.
			if err := tx.DecrementStock(ctx, it.ProductID, it.Quantity); err != nil {
				return err
			}
		}
		if order.CouponID != "" {
			if err := tx.IncrementCouponUsage(ctx, order.CouponID); err != nil {
				return err
			}
		}
		payload, _ := json.Marshal(OrderCreatedMsg{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			CustomerID:  cust.ID,
			Email:       cust.Email,
			Total:       order.Total,
			Currency:    uc.currency,
		})
		return tx.InsertEvent(ctx, ChannelOrderCreated, payload)
	})
	if err != nil {
		return CheckoutOutput{}, err
	}

	if in.IdempotencyKey != "" {
		_ = uc.idem.Remember(ctx, cust.ID, in.IdempotencyKey, order.ID)
	}

	payURL, err := uc.gateway.Initiate(ctx, order, cust.Email)
	if err != nil {
		// Order stays valid and PENDING; the UI retries initiation without
		// re-creating it.
		log.Warn("payment initiation failed",
			slog.String("order_id", order.ID),
			slog.String("order_number", order.OrderNumber),
			slog.String("error", err.Error()))
		payURL = ""
	}

	return CheckoutOutput{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		PaymentURL:  payURL,
	}, nil
}

func (uc *Checkout) buildOrder(cust *domain.Customer, priced []pricedItem, pricing Pricing, in CheckoutInput, now time.Time) *domain.Order {
	orderID := uuid.NewString()
	items := make([]domain.OrderItem, 0, len(priced))
	for _, it := range priced {
		items = append(items, domain.OrderItem{
			ID:        uuid.NewString(),
			OrderID:   orderID,
			ProductID: it.Product.ID,
			Quantity:  it.Quantity,
			Price:     it.UnitPrice,
			Snapshot:  it.Product.Snapshot(),
		})
	}

	billing := in.BillingAddress
	if billing == (domain.Address{}) {
		billing = in.ShippingAddress
	}

	o := &domain.Order{
		ID:              orderID,
		OrderNumber:     domain.NewOrderNumber(now),
		CustomerID:      cust.ID,
		Status:          domain.StatusPending,
		PaymentStatus:   domain.PaymentPending,
		Subtotal:        pricing.Subtotal,
		Shipping:        pricing.Shipping,
		Discount:        pricing.Discount,
		Total:           pricing.Total,
		ShippingAddress: in.ShippingAddress,
		BillingAddress:  billing,
		PaymentMethod:   in.PaymentMethod,
		CreatedAt:       now,
		UpdatedAt:       now,
		Items:           items,
	}
	if pricing.Coupon != nil {
		o.CouponID = pricing.Coupon.ID
		o.CouponCode = pricing.Coupon.Code
	}
	return o
}
