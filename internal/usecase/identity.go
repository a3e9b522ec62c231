package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	domain "github.com/Koneum/sissansissan-api/internal/entity"
)

type GuestContact struct {
	Name  string
	Email string
	Phone string
}

// guestEmailDomain hosts the synthetic addresses minted for phone-only
// guests so repeated checkouts with the same number hit the same record.
const guestEmailDomain = "storefront.local"

func normalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// resolveCustomer returns the durable customer behind a checkout. A known
// userID must exist; a guest contact is matched by email first, then phone,
// and a CUSTOMER record is created on first purchase. Retries with the same
// contact (however the phone is formatted) land on the same customer.
func resolveCustomer(ctx context.Context, repo CustomerRepo, userID string, guest *GuestContact) (*domain.Customer, error) {
	if userID != "" {
		cust, err := repo.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if cust == nil {
			return nil, fmt.Errorf("user %s: %w", userID, ErrCustomerNotFound)
		}
		return cust, nil
	}

	if guest == nil {
		return nil, fmt.Errorf("%w: user id or guest contact required", ErrInvalidInput)
	}

	email := strings.ToLower(strings.TrimSpace(guest.Email))
	phone := normalizePhone(guest.Phone)
	if email == "" {
		if phone == "" {
			return nil, fmt.Errorf("%w: guest email or phone required", ErrInvalidInput)
		}
		email = "guest-" + phone + "@" + guestEmailDomain
	}

	cust, err := repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if cust == nil && phone != "" {
		if cust, err = repo.FindByPhone(ctx, phone); err != nil {
			return nil, err
		}
	}
	if cust != nil {
		return cust, nil
	}

	cust = &domain.Customer{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(guest.Name),
		Email:         email,
		Phone:         phone,
		Role:          domain.RoleCustomer,
		EmailVerified: false,
	}
	if err := repo.Create(ctx, cust); err != nil {
		return nil, err
	}
	return cust, nil
}
