package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	domain "github.com/Koneum/sissansissan-api/internal/entity"
	"github.com/Koneum/sissansissan-api/internal/usecase"
)

type MySQLOrderStore struct{ db *sql.DB }

func NewMySQLOrderStore(db *sql.DB) *MySQLOrderStore { return &MySQLOrderStore{db: db} }

// WithinTx runs fn inside one database transaction: commit on nil, rollback
// on error. This is the all-or-nothing boundary for the order writer and the
// compensator.
func (s *MySQLOrderStore) WithinTx(ctx context.Context, fn func(tx usecase.OrderTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&orderTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *MySQLOrderStore) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return scanOrder(s.db.QueryRowContext(ctx, selectOrder+` WHERE id=?`, id))
}

func (s *MySQLOrderStore) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	return scanOrder(s.db.QueryRowContext(ctx, selectOrder+` WHERE order_number=?`, number))
}

func (s *MySQLOrderStore) ItemsForOrder(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := s.db.QueryContext(ctx, selectItems, orderID)
	if err != nil {
		return nil, err
	}
	return scanItems(rows)
}

var _ usecase.OrderStore = (*MySQLOrderStore)(nil)

type orderTx struct{ tx *sql.Tx }

func (t *orderTx) InsertOrder(ctx context.Context, o *domain.Order) error {
	shipAddr, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return err
	}
	billAddr, err := json.Marshal(o.BillingAddress)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(ctx, `
INSERT INTO orders (id,order_number,customer_id,status,payment_status,
  subtotal,shipping,discount,total,coupon_id,coupon_code,
  shipping_address,billing_address,payment_method,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,NOW(),NOW())`,
		o.ID, o.OrderNumber, o.CustomerID, o.Status, o.PaymentStatus,
		o.Subtotal, o.Shipping, o.Discount, o.Total,
		nullStr(o.CouponID), nullStr(o.CouponCode),
		shipAddr, billAddr, o.PaymentMethod,
	)
	return err
}

func (t *orderTx) InsertItems(ctx context.Context, items []domain.OrderItem) error {
	for _, it := range items {
		snap, err := json.Marshal(it.Snapshot)
		if err != nil {
			return err
		}
		if _, err := t.tx.ExecContext(ctx, `
INSERT INTO order_items (id,order_id,product_id,quantity,price,product_snapshot,created_at)
VALUES (?,?,?,?,?,?,NOW())`,
			it.ID, it.OrderID, it.ProductID, it.Quantity, it.Price, snap,
		); err != nil {
			return err
		}
	}
	return nil
}

// DecrementStock decrements only while enough stock remains, so concurrent
// checkouts serialize on the row and can never drive stock negative.
func (t *orderTx) DecrementStock(ctx context.Context, productID string, qty int) error {
	res, err := t.tx.ExecContext(ctx, `
UPDATE products SET stock = stock - ?, updated_at = NOW()
WHERE id = ? AND stock >= ?`,
		qty, productID, qty,
	)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("product %s: %w", productID, usecase.ErrInsufficientStock)
	}
	return nil
}

func (t *orderTx) RestoreStock(ctx context.Context, productID string, qty int) error {
	_, err := t.tx.ExecContext(ctx, `
UPDATE products SET stock = stock + ?, updated_at = NOW()
WHERE id = ?`,
		qty, productID,
	)
	return err
}

func (t *orderTx) IncrementCouponUsage(ctx context.Context, couponID string) error {
	res, err := t.tx.ExecContext(ctx, `
UPDATE coupons SET used_count = used_count + 1, updated_at = NOW()
WHERE id = ? AND (usage_limit = 0 OR used_count < usage_limit)`,
		couponID,
	)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return usecase.ErrCouponExhausted
	}
	return nil
}

// GREATEST guards the unsigned column against underflow on double release.
func (t *orderTx) DecrementCouponUsage(ctx context.Context, couponID string) error {
	_, err := t.tx.ExecContext(ctx, `
UPDATE coupons SET used_count = GREATEST(used_count, 1) - 1, updated_at = NOW()
WHERE id = ?`,
		couponID,
	)
	return err
}

func (t *orderTx) GetOrderForUpdate(ctx context.Context, id string) (*domain.Order, error) {
	return scanOrder(t.tx.QueryRowContext(ctx, selectOrder+` WHERE id=? FOR UPDATE`, id))
}

func (t *orderTx) ItemsForOrder(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := t.tx.QueryContext(ctx, selectItems, orderID)
	if err != nil {
		return nil, err
	}
	return scanItems(rows)
}

// SettleIfPending is the compare-and-swap on the payment outcome: the row is
// written only while status is still PENDING, so two near-simultaneous
// callbacks cannot both apply.
func (t *orderTx) SettleIfPending(ctx context.Context, orderID string, st domain.Status, ps domain.PaymentStatus) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `
UPDATE orders SET status = ?, payment_status = ?, updated_at = NOW()
WHERE id = ? AND status = ?`,
		st, ps, orderID, domain.StatusPending,
	)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (t *orderTx) CancelOrder(ctx context.Context, orderID string, ps domain.PaymentStatus) error {
	_, err := t.tx.ExecContext(ctx, `
UPDATE orders SET status = ?, payment_status = ?, updated_at = NOW()
WHERE id = ?`,
		domain.StatusCancelled, ps, orderID,
	)
	return err
}

func (t *orderTx) InsertEvent(ctx context.Context, channel string, payload []byte) error {
	_, err := t.tx.ExecContext(ctx, `
INSERT INTO outbox (channel,payload,status,retry_count,next_attempt_at,created_at)
VALUES (?,?,'PENDING',0,NOW(),NOW())`,
		channel, payload,
	)
	return err
}

var _ usecase.OrderTx = (*orderTx)(nil)

const selectOrder = `
SELECT id,order_number,customer_id,status,payment_status,
  subtotal,shipping,discount,total,coupon_id,coupon_code,
  shipping_address,billing_address,payment_method,created_at,updated_at
FROM orders`

const selectItems = `
SELECT id,order_id,product_id,quantity,price,product_snapshot
FROM order_items WHERE order_id=?`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		o                  domain.Order
		couponID, couponCd sql.NullString
		shipAddr, billAddr []byte
	)
	err := row.Scan(&o.ID, &o.OrderNumber, &o.CustomerID, &o.Status, &o.PaymentStatus,
		&o.Subtotal, &o.Shipping, &o.Discount, &o.Total, &couponID, &couponCd,
		&shipAddr, &billAddr, &o.PaymentMethod, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	o.CouponID = couponID.String
	o.CouponCode = couponCd.String
	if err := json.Unmarshal(shipAddr, &o.ShippingAddress); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(billAddr, &o.BillingAddress); err != nil {
		return nil, err
	}
	return &o, nil
}

func scanItems(rows *sql.Rows) ([]domain.OrderItem, error) {
	defer rows.Close()
	var out []domain.OrderItem
	for rows.Next() {
		var (
			it   domain.OrderItem
			snap []byte
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.Price, &snap); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(snap, &it.Snapshot); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
