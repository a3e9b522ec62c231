package repo

import (
	"context"
	"database/sql"
	"errors"

	domain "github.com/Koneum/sissansissan-api/internal/entity"
	"github.com/Koneum/sissansissan-api/internal/usecase"
)

type MySQLProductRepo struct{ db *sql.DB }

func NewMySQLProductRepo(db *sql.DB) *MySQLProductRepo { return &MySQLProductRepo{db: db} }

func (r *MySQLProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id,name,thumbnail,price,discount_price,stock,is_active
FROM products WHERE id=?`, id)
	var (
		p        domain.Product
		discount sql.NullInt64
	)
	err := row.Scan(&p.ID, &p.Name, &p.Thumbnail, &p.Price, &discount, &p.Stock, &p.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.DiscountPrice = discount.Int64
	return &p, nil
}

var _ usecase.ProductRepo = (*MySQLProductRepo)(nil)

type MySQLCouponRepo struct{ db *sql.DB }

func NewMySQLCouponRepo(db *sql.DB) *MySQLCouponRepo { return &MySQLCouponRepo{db: db} }

func (r *MySQLCouponRepo) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id,code,status,valid_from,valid_until,usage_limit,used_count,
  min_purchase,discount_type,discount_value,max_discount
FROM coupons WHERE code=?`, code)
	var (
		c          domain.Coupon
		from, till sql.NullTime
	)
	err := row.Scan(&c.ID, &c.Code, &c.Status, &from, &till, &c.UsageLimit, &c.UsedCount,
		&c.MinPurchase, &c.DiscountType, &c.DiscountValue, &c.MaxDiscount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if from.Valid {
		c.ValidFrom = &from.Time
	}
	if till.Valid {
		c.ValidUntil = &till.Time
	}
	return &c, nil
}

var _ usecase.CouponRepo = (*MySQLCouponRepo)(nil)
