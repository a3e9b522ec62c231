package usecase

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	domain "github.com/Koneum/sissansissan-api/internal/entity"
	"github.com/Koneum/sissansissan-api/internal/security"
)

const testSecret = "test-secret"

func settleFixture() (*memBackend, *memCache, *memEvents, *SettlePayment) {
	b := newMemBackend()
	b.orders["o1"] = &domain.Order{
		ID:            "o1",
		OrderNumber:   "ORD-1700000000000-AB12CD",
		CustomerID:    "u1",
		Status:        domain.StatusPending,
		PaymentStatus: domain.PaymentPending,
		Subtotal:      3000,
		Shipping:      50,
		Total:         3050,
	}

	cache := newMemCache()
	events := &memEvents{}
	uc := NewSettlePayment(memStore{b}, security.NewGatewaySigner(testSecret), cache, events, "MDL")
	return b, cache, events, uc
}

func signedInput(o *domain.Order, success bool) SettleInput {
	signer := security.NewGatewaySigner(testSecret)
	amount100 := strconv.FormatInt(o.Total*100, 10)
	return SettleInput{
		OrderNumber:  o.OrderNumber,
		Amount100:    amount100,
		Currency:     "MDL",
		Authenticity: signer.CallbackHash(o.OrderNumber, amount100, "MDL"),
		Success:      success,
	}
}

func TestSettle_SuccessCallback(t *testing.T) {
	b, cache, events, uc := settleFixture()

	if err := uc.Execute(context.Background(), signedInput(b.orders["o1"], true)); err != nil {
		t.Fatal(err)
	}
	o := b.orders["o1"]
	if o.Status != domain.StatusProcessing || o.PaymentStatus != domain.PaymentPaid {
		t.Fatalf("want PROCESSING/PAID, got %s/%s", o.Status, o.PaymentStatus)
	}
	if st, ok, _ := cache.GetStatus(context.Background(), "o1"); !ok || st != string(domain.StatusProcessing) {
		t.Fatalf("status cache not refreshed: %q %v", st, ok)
	}
	if len(events.msgs) != 1 || events.msgs[0].PaymentStatus != string(domain.PaymentPaid) {
		t.Fatalf("status event missing: %+v", events.msgs)
	}
}

func TestSettle_FailureCallback(t *testing.T) {
	b, _, _, uc := settleFixture()

	if err := uc.Execute(context.Background(), signedInput(b.orders["o1"], false)); err != nil {
		t.Fatal(err)
	}
	o := b.orders["o1"]
	if o.Status != domain.StatusCancelled || o.PaymentStatus != domain.PaymentFailed {
		t.Fatalf("want CANCELLED/FAILED, got %s/%s", o.Status, o.PaymentStatus)
	}
}

func TestSettle_ReplayRejectedExactlyOnce(t *testing.T) {
	b, _, events, uc := settleFixture()
	ctx := context.Background()
	in := signedInput(b.orders["o1"], true)

	if err := uc.Execute(ctx, in); err != nil {
		t.Fatal(err)
	}
	err := uc.Execute(ctx, in)
	if !errors.Is(err, ErrOrderAlreadyProcessed) {
		t.Fatalf("want ErrOrderAlreadyProcessed, got %v", err)
	}

	o := b.orders["o1"]
	if o.Status != domain.StatusProcessing || o.PaymentStatus != domain.PaymentPaid {
		t.Fatalf("replay changed state: %s/%s", o.Status, o.PaymentStatus)
	}
	if len(events.msgs) != 1 {
		t.Fatalf("replay published a second event: %d", len(events.msgs))
	}
}

func TestSettle_TamperedFieldsRejected(t *testing.T) {
	b, _, _, uc := settleFixture()
	ctx := context.Background()

	t.Run("tampered amount", func(t *testing.T) {
		in := signedInput(b.orders["o1"], true)
		in.Amount100 = "1" // hash no longer matches
		if err := uc.Execute(ctx, in); !errors.Is(err, ErrAuthenticityMismatch) {
			t.Fatalf("want ErrAuthenticityMismatch, got %v", err)
		}
	})

	t.Run("tampered order id", func(t *testing.T) {
		in := signedInput(b.orders["o1"], true)
		in.OrderNumber = "ORD-1700000000000-FFFFFF"
		if err := uc.Execute(ctx, in); !errors.Is(err, ErrAuthenticityMismatch) {
			t.Fatalf("want ErrAuthenticityMismatch, got %v", err)
		}
	})

	t.Run("success flag does not bypass the gate", func(t *testing.T) {
		in := signedInput(b.orders["o1"], true)
		in.Authenticity = "0000000000000000000000000000000000000000"
		if err := uc.Execute(ctx, in); !errors.Is(err, ErrAuthenticityMismatch) {
			t.Fatalf("want ErrAuthenticityMismatch, got %v", err)
		}
	})

	if o := b.orders["o1"]; o.Status != domain.StatusPending {
		t.Fatalf("forged callback mutated state: %s", o.Status)
	}
}

func TestSettle_UnknownOrder(t *testing.T) {
	_, _, _, uc := settleFixture()

	signer := security.NewGatewaySigner(testSecret)
	in := SettleInput{
		OrderNumber:  "ORD-1700000000000-FFFFFF",
		Amount100:    "305000",
		Currency:     "MDL",
		Authenticity: signer.CallbackHash("ORD-1700000000000-FFFFFF", "305000", "MDL"),
		Success:      true,
	}
	if err := uc.Execute(context.Background(), in); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("want ErrOrderNotFound, got %v", err)
	}
}

func TestSettle_LowercaseTokenAccepted(t *testing.T) {
	b, _, _, uc := settleFixture()

	in := signedInput(b.orders["o1"], true)
	in.Authenticity = strings.ToLower(in.Authenticity)
	if err := uc.Execute(context.Background(), in); err != nil {
		t.Fatalf("case-insensitive compare failed: %v", err)
	}
}
