package usecase

import (
	"context"
	"errors"
	"log/slog"

	domain "github.com/Koneum/sissansissan-api/internal/entity"
	"github.com/Koneum/sissansissan-api/internal/logging"
)

// Actor is the authenticated principal behind a cancellation request,
// extracted from the bearer token by the authz middleware.
type Actor struct {
	ID    string
	Role  string
	Perms []string
}

func (a Actor) CanManageOrders() bool {
	if a.Role == domain.RoleAdmin {
		return true
	}
	for _, p := range a.Perms {
		if p == "orders.delete" {
			return true
		}
	}
	return false
}

type CancelResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type CancelOrders struct {
	store    OrderStore
	cache    OrderCache
	events   EventProducer
	currency string
}

func NewCancelOrders(store OrderStore, cache OrderCache, events EventProducer, currency string) *CancelOrders {
	return &CancelOrders{store: store, cache: cache, events: events, currency: currency}
}

// Execute cancels each order in its own transaction so one bad id never
// blocks the rest of the batch.
func (uc *CancelOrders) Execute(ctx context.Context, ids []string, actor Actor) []CancelResult {
	results := make([]CancelResult, 0, len(ids))
	for _, id := range ids {
		res := CancelResult{ID: id, Success: true}
		if err := uc.cancelOne(ctx, id, actor); err != nil {
			res.Success = false
			res.Error = err.Error()
		}
		results = append(results, res)
	}
	return results
}

// CancelOne is the single-order path used by customer self-cancellation.
func (uc *CancelOrders) CancelOne(ctx context.Context, id string, actor Actor) error {
	return uc.cancelOne(ctx, id, actor)
}

// cancelOne is the exact inverse of the order writer: status to CANCELLED,
// stock restored per line, coupon usage decremented. Cancelling an
// already-cancelled order is a no-op success.
func (uc *CancelOrders) cancelOne(ctx context.Context, id string, actor Actor) error {
	log := logging.FromCtx(ctx)

	var (
		cancelled bool
		order     *domain.Order
		ps        domain.PaymentStatus
	)
	err := uc.store.WithinTx(ctx, func(tx OrderTx) error {
		o, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if o == nil {
			return ErrOrderNotFound
		}
		if !actor.CanManageOrders() {
			if o.CustomerID != actor.ID {
				return ErrForbidden
			}
			if o.Status != domain.StatusPending && o.Status != domain.StatusCancelled {
				return ErrNotCancellable
			}
		}
		if o.Status == domain.StatusCancelled {
			order = o
			return nil
		}

		ps = domain.PaymentFailed
		if o.PaymentStatus == domain.PaymentPaid {
			ps = domain.PaymentRefunded
		}

		items, err := tx.ItemsForOrder(ctx, o.ID)
		if err != nil {
			return err
		}
		for _, it := range items {
			if err := tx.RestoreStock(ctx, it.ProductID, it.Quantity); err != nil {
				return err
			}
		}
		if o.CouponID != "" {
			if err := tx.DecrementCouponUsage(ctx, o.CouponID); err != nil {
				return err
			}
		}
		if err := tx.CancelOrder(ctx, o.ID, ps); err != nil {
			return err
		}
		order = o
		cancelled = true
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrOrderNotFound) {
			log.Error("cancellation failed",
				slog.String("order_id", id),
				slog.String("error", err.Error()))
		}
		return err
	}
	if !cancelled {
		return nil
	}

	if err := uc.cache.SetStatus(ctx, order.ID, string(domain.StatusCancelled)); err != nil {
		log.Warn("status cache update failed", slog.String("error", err.Error()))
	}
	if err := uc.events.PublishStatusChanged(ctx, OrderStatusChangedMsg{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		CustomerID:    order.CustomerID,
		Status:        string(domain.StatusCancelled),
		PaymentStatus: string(ps),
		Total:         order.Total,
		Currency:      uc.currency,
	}); err != nil {
		log.Warn("status event publish failed", slog.String("error", err.Error()))
	}
	return nil
}
