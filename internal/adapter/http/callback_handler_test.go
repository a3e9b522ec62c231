package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	domain "github.com/Koneum/sissansissan-api/internal/entity"
	"github.com/Koneum/sissansissan-api/internal/security"
	"github.com/Koneum/sissansissan-api/internal/usecase"
)

const cbSecret = "cb-secret"

// stubStore holds a single order and tracks settlement transitions.
type stubStore struct {
	order   *domain.Order
	settled bool
}

func (s *stubStore) WithinTx(ctx context.Context, fn func(tx usecase.OrderTx) error) error {
	return fn(stubTx{s})
}

func (s *stubStore) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if s.order != nil && s.order.ID == id {
		return s.order, nil
	}
	return nil, nil
}

func (s *stubStore) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	if s.order != nil && s.order.OrderNumber == number {
		return s.order, nil
	}
	return nil, nil
}

func (s *stubStore) ItemsForOrder(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	return nil, nil
}

type stubTx struct{ s *stubStore }

func (t stubTx) InsertOrder(ctx context.Context, o *domain.Order) error {
	cp := *o
	t.s.order = &cp
	return nil
}
func (t stubTx) InsertItems(ctx context.Context, items []domain.OrderItem) error { return nil }
func (t stubTx) DecrementStock(ctx context.Context, productID string, qty int) error {
	return nil
}
func (t stubTx) RestoreStock(ctx context.Context, productID string, qty int) error { return nil }
func (t stubTx) IncrementCouponUsage(ctx context.Context, couponID string) error   { return nil }
func (t stubTx) DecrementCouponUsage(ctx context.Context, couponID string) error   { return nil }
func (t stubTx) GetOrderForUpdate(ctx context.Context, id string) (*domain.Order, error) {
	return t.s.GetByID(ctx, id)
}
func (t stubTx) ItemsForOrder(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	return nil, nil
}
func (t stubTx) SettleIfPending(ctx context.Context, orderID string, st domain.Status, ps domain.PaymentStatus) (bool, error) {
	if t.s.order == nil || t.s.order.ID != orderID || t.s.order.Status != domain.StatusPending {
		return false, nil
	}
	t.s.order.Status = st
	t.s.order.PaymentStatus = ps
	t.s.settled = true
	return true, nil
}
func (t stubTx) CancelOrder(ctx context.Context, orderID string, ps domain.PaymentStatus) error {
	return nil
}
func (t stubTx) InsertEvent(ctx context.Context, channel string, payload []byte) error { return nil }

type stubCache struct{}

func (stubCache) SetStatus(ctx context.Context, orderID, status string) error { return nil }
func (stubCache) GetStatus(ctx context.Context, orderID string) (string, bool, error) {
	return "", false, nil
}

type stubEvents struct{}

func (stubEvents) PublishStatusChanged(ctx context.Context, msg usecase.OrderStatusChangedMsg) error {
	return nil
}

func callbackRouter(store *stubStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	settle := usecase.NewSettlePayment(store, security.NewGatewaySigner(cbSecret), stubCache{}, stubEvents{}, "MDL")
	r := gin.New()
	r.POST("/payments/callback", NewCallbackHandler(settle).Settle)
	return r
}

func pendingOrder() *stubStore {
	return &stubStore{order: &domain.Order{
		ID:            "o1",
		OrderNumber:   "ORD-1700000000000-AB12CD",
		Status:        domain.StatusPending,
		PaymentStatus: domain.PaymentPending,
		Total:         3050,
	}}
}

func signedForm(o *domain.Order, success string) url.Values {
	amount100 := strconv.FormatInt(o.Total*100, 10)
	signer := security.NewGatewaySigner(cbSecret)
	return url.Values{
		"order_id":      {o.OrderNumber},
		"amount_100":    {amount100},
		"currency_code": {"MDL"},
		"authenticity":  {signer.CallbackHash(o.OrderNumber, amount100, "MDL")},
		"success":       {success},
	}
}

func postCallback(t *testing.T, r *gin.Engine, form url.Values) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/payments/callback", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("non-JSON response %q: %v", w.Body.String(), err)
	}
	return w, body
}

func TestCallback_SuccessAcknowledged(t *testing.T) {
	store := pendingOrder()
	r := callbackRouter(store)

	w, body := postCallback(t, r, signedForm(store.order, "1"))
	if w.Code != http.StatusOK || body["status"] != "1" {
		t.Fatalf("want 200 {\"status\":\"1\"}, got %d %v", w.Code, body)
	}
	if store.order.Status != domain.StatusProcessing || store.order.PaymentStatus != domain.PaymentPaid {
		t.Fatalf("order not settled: %s/%s", store.order.Status, store.order.PaymentStatus)
	}
}

func TestCallback_DeclineCancelsOrder(t *testing.T) {
	store := pendingOrder()
	r := callbackRouter(store)

	w, body := postCallback(t, r, signedForm(store.order, "0"))
	if w.Code != http.StatusOK || body["status"] != "1" {
		t.Fatalf("decline must still be acknowledged, got %d %v", w.Code, body)
	}
	if store.order.Status != domain.StatusCancelled || store.order.PaymentStatus != domain.PaymentFailed {
		t.Fatalf("want CANCELLED/FAILED, got %s/%s", store.order.Status, store.order.PaymentStatus)
	}
}

func TestCallback_MissingFieldRejected(t *testing.T) {
	store := pendingOrder()
	r := callbackRouter(store)

	form := signedForm(store.order, "1")
	form.Del("authenticity")
	w, body := postCallback(t, r, form)
	if w.Code != http.StatusBadRequest || body["status"] != "0" {
		t.Fatalf("want 400 status 0, got %d %v", w.Code, body)
	}
	if store.settled {
		t.Fatal("rejected callback mutated the order")
	}
}

func TestCallback_BadHashRejected(t *testing.T) {
	store := pendingOrder()
	r := callbackRouter(store)

	form := signedForm(store.order, "1")
	form.Set("authenticity", "0000000000000000000000000000000000000000")
	w, body := postCallback(t, r, form)
	if w.Code != http.StatusForbidden || body["status"] != "0" {
		t.Fatalf("want 403 status 0, got %d %v", w.Code, body)
	}
	if store.settled {
		t.Fatal("forged callback mutated the order")
	}
}

func TestCallback_UnknownOrder(t *testing.T) {
	store := pendingOrder()
	r := callbackRouter(store)

	ghost := &domain.Order{OrderNumber: "ORD-1700000000000-FFFFFF", Total: 100}
	w, body := postCallback(t, r, signedForm(ghost, "1"))
	if w.Code != http.StatusNotFound || body["status"] != "0" {
		t.Fatalf("want 404 status 0, got %d %v", w.Code, body)
	}
}

func TestCallback_ReplayRejected(t *testing.T) {
	store := pendingOrder()
	r := callbackRouter(store)
	form := signedForm(store.order, "1")

	if w, _ := postCallback(t, r, form); w.Code != http.StatusOK {
		t.Fatalf("first delivery failed: %d", w.Code)
	}
	w, body := postCallback(t, r, form)
	if w.Code != http.StatusBadRequest || body["message"] != "already processed" {
		t.Fatalf("want 400 already processed, got %d %v", w.Code, body)
	}
	if store.order.PaymentStatus != domain.PaymentPaid {
		t.Fatalf("replay changed payment status: %s", store.order.PaymentStatus)
	}
}
