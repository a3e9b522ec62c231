package usecase

import (
	"context"
	"time"

	domain "github.com/Koneum/sissansissan-api/internal/entity"
)

type CustomerRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	// Find* return (nil, nil) when no record matches.
	FindByEmail(ctx context.Context, email string) (*domain.Customer, error)
	FindByPhone(ctx context.Context, phone string) (*domain.Customer, error)
	Create(ctx context.Context, c *domain.Customer) error
}

type ProductRepo interface {
	// GetByID returns (nil, nil) when the product does not exist.
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

type CouponRepo interface {
	// GetByCode returns (nil, nil) when the code is unknown.
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
}

// OrderTx is the explicit transaction boundary threaded through the order
// writer and the compensator. Every method runs inside the same database
// transaction; an error aborts the whole unit.
type OrderTx interface {
	InsertOrder(ctx context.Context, o *domain.Order) error
	InsertItems(ctx context.Context, items []domain.OrderItem) error
	// DecrementStock is conditional: it fails with ErrInsufficientStock when
	// stock has fallen below qty by the time of the update.
	DecrementStock(ctx context.Context, productID string, qty int) error
	RestoreStock(ctx context.Context, productID string, qty int) error
	// IncrementCouponUsage fails with ErrCouponExhausted when the usage limit
	// has been reached by the time of the update.
	IncrementCouponUsage(ctx context.Context, couponID string) error
	DecrementCouponUsage(ctx context.Context, couponID string) error
	GetOrderForUpdate(ctx context.Context, id string) (*domain.Order, error)
	ItemsForOrder(ctx context.Context, orderID string) ([]domain.OrderItem, error)
	// SettleIfPending flips status/paymentStatus only while the order is
	// still PENDING and reports whether a row was written (compare-and-swap).
	SettleIfPending(ctx context.Context, orderID string, st domain.Status, ps domain.PaymentStatus) (bool, error)
	CancelOrder(ctx context.Context, orderID string, ps domain.PaymentStatus) error
	InsertEvent(ctx context.Context, channel string, payload []byte) error
}

type OrderStore interface {
	WithinTx(ctx context.Context, fn func(tx OrderTx) error) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByNumber(ctx context.Context, number string) (*domain.Order, error)
	ItemsForOrder(ctx context.Context, orderID string) ([]domain.OrderItem, error)
}

type IdempotencyStore interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	Remember(ctx context.Context, scope, key, value string) error
	Recall(ctx context.Context, scope, key string) (string, bool, error)
}

type OrderCache interface {
	SetStatus(ctx context.Context, orderID string, status string) error
	GetStatus(ctx context.Context, orderID string) (string, bool, error)
}

type PaymentGateway interface {
	// Initiate exchanges the order for a hosted-checkout redirect URL.
	Initiate(ctx context.Context, o *domain.Order, email string) (string, error)
}

type EventProducer interface {
	PublishStatusChanged(ctx context.Context, msg OrderStatusChangedMsg) error
}

type OutboxEvent struct {
	ID      int64
	Channel string
	Payload []byte
}

type OutboxRepo interface {
	PickBatch(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkSent(ctx context.Context, id int64) error
	Reschedule(ctx context.Context, id int64, delay time.Duration) error
}
