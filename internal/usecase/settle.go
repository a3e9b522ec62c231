package usecase

import (
	"context"
	"fmt"
	"log/slog"

	domain "github.com/Koneum/sissansissan-api/internal/entity"
	"github.com/Koneum/sissansissan-api/internal/logging"
)

// AuthenticityVerifier recomputes the gateway hash over the callback fields
// and compares it to the supplied token.
type AuthenticityVerifier interface {
	VerifyCallback(orderID, amount100, currency, token string) bool
}

type SettleInput struct {
	OrderNumber  string
	Amount100    string
	Currency     string
	Authenticity string
	Success      bool
}

type SettlePayment struct {
	store    OrderStore
	verifier AuthenticityVerifier
	cache    OrderCache
	events   EventProducer
	currency string
}

func NewSettlePayment(store OrderStore, verifier AuthenticityVerifier, cache OrderCache, events EventProducer, currency string) *SettlePayment {
	return &SettlePayment{store: store, verifier: verifier, cache: cache, events: events, currency: currency}
}

// Execute reconciles one gateway callback against its order. The hash check
// is the sole authenticity guarantee on this channel; the PENDING gate makes
// the transition exactly-once, so replays and duplicates are rejected.
func (uc *SettlePayment) Execute(ctx context.Context, in SettleInput) error {
	log := logging.FromCtx(ctx)

	if !uc.verifier.VerifyCallback(in.OrderNumber, in.Amount100, in.Currency, in.Authenticity) {
		log.Error("callback rejected: bad authenticity hash",
			slog.String("order_number", in.OrderNumber))
		return ErrAuthenticityMismatch
	}

	order, err := uc.store.GetByNumber(ctx, in.OrderNumber)
	if err != nil {
		return err
	}
	if order == nil {
		return fmt.Errorf("order %s: %w", in.OrderNumber, ErrOrderNotFound)
	}

	st, ps := domain.StatusProcessing, domain.PaymentPaid
	if !in.Success {
		st, ps = domain.StatusCancelled, domain.PaymentFailed
	}

	err = uc.store.WithinTx(ctx, func(tx OrderTx) error {
		ok, err := tx.SettleIfPending(ctx, order.ID, st, ps)
		if err != nil {
			return err
		}
		if !ok {
			return ErrOrderAlreadyProcessed
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Best-effort side effects; the settlement itself is already durable.
	if err := uc.cache.SetStatus(ctx, order.ID, string(st)); err != nil {
		log.Warn("status cache update failed", slog.String("error", err.Error()))
	}
	if err := uc.events.PublishStatusChanged(ctx, OrderStatusChangedMsg{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		CustomerID:    order.CustomerID,
		Status:        string(st),
		PaymentStatus: string(ps),
		Total:         order.Total,
		Currency:      uc.currency,
	}); err != nil {
		log.Warn("status event publish failed", slog.String("error", err.Error()))
	}

	log.Info("order settled",
		slog.String("order_number", order.OrderNumber),
		slog.String("status", string(st)),
		slog.String("payment_status", string(ps)))
	return nil
}
