package domain

const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

type Customer struct {
	ID            string
	Name          string
	Email         string
	Phone         string
	Role          string
	EmailVerified bool
}
