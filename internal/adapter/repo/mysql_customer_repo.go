package repo

import (
	"context"
	"database/sql"
	"errors"

	domain "github.com/Koneum/sissansissan-api/internal/entity"
	"github.com/Koneum/sissansissan-api/internal/usecase"
)

type MySQLCustomerRepo struct{ db *sql.DB }

func NewMySQLCustomerRepo(db *sql.DB) *MySQLCustomerRepo { return &MySQLCustomerRepo{db: db} }

const selectCustomer = `
SELECT id,name,email,phone,role,email_verified FROM customers`

func (r *MySQLCustomerRepo) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	return r.scan(r.db.QueryRowContext(ctx, selectCustomer+` WHERE id=?`, id))
}

func (r *MySQLCustomerRepo) FindByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	return r.scan(r.db.QueryRowContext(ctx, selectCustomer+` WHERE email=?`, email))
}

func (r *MySQLCustomerRepo) FindByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	return r.scan(r.db.QueryRowContext(ctx, selectCustomer+` WHERE phone=?`, phone))
}

func (r *MySQLCustomerRepo) Create(ctx context.Context, c *domain.Customer) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO customers (id,name,email,phone,role,email_verified,created_at,updated_at)
VALUES (?,?,?,?,?,?,NOW(),NOW())`,
		c.ID, c.Name, c.Email, nullStr(c.Phone), c.Role, c.EmailVerified,
	)
	return err
}

func (r *MySQLCustomerRepo) scan(row *sql.Row) (*domain.Customer, error) {
	var (
		c     domain.Customer
		phone sql.NullString
	)
	err := row.Scan(&c.ID, &c.Name, &c.Email, &phone, &c.Role, &c.EmailVerified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.Phone = phone.String
	return &c, nil
}

var _ usecase.CustomerRepo = (*MySQLCustomerRepo)(nil)
