package usecase

import (
	"context"
	"fmt"

	domain "github.com/Koneum/sissansissan-api/internal/entity"
)

type CheckoutItem struct {
	ProductID string
	Quantity  int
}

type pricedItem struct {
	Product   *domain.Product
	Quantity  int
	UnitPrice int64
}

// validateItems loads the authoritative product for every requested line and
// checks existence, the active flag, and available stock. The first failing
// line aborts the whole checkout; nothing is reserved here.
func validateItems(ctx context.Context, repo ProductRepo, items []CheckoutItem) ([]pricedItem, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", ErrInvalidInput)
	}
	out := make([]pricedItem, 0, len(items))
	for _, it := range items {
		if it.ProductID == "" || it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: bad line item", ErrInvalidInput)
		}
		p, err := repo.GetByID(ctx, it.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("product %s: %w", it.ProductID, ErrProductNotFound)
		}
		if !p.IsActive {
			return nil, fmt.Errorf("product %s: %w", it.ProductID, ErrProductUnavailable)
		}
		if p.Stock < it.Quantity {
			return nil, fmt.Errorf("product %s: %w", it.ProductID, ErrInsufficientStock)
		}
		out = append(out, pricedItem{Product: p, Quantity: it.Quantity, UnitPrice: p.UnitPrice()})
	}
	return out, nil
}
