package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	domain "github.com/Koneum/sissansissan-api/internal/entity"
	"github.com/Koneum/sissansissan-api/internal/usecase"
)

type CheckoutHandler struct {
	checkout *usecase.Checkout
}

func NewCheckoutHandler(checkout *usecase.Checkout) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

type addressReq struct {
	FullName   string `json:"fullName"`
	Line1      string `json:"line1" binding:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" binding:"required"`
	Region     string `json:"region"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country" binding:"required"`
	Phone      string `json:"phone"`
}

func (a *addressReq) domain() domain.Address {
	if a == nil {
		return domain.Address{}
	}
	return domain.Address{
		FullName:   a.FullName,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		Region:     a.Region,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Phone:      a.Phone,
	}
}

type guestInfoReq struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type checkoutItemReq struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
	// Accepted for wire compatibility with older clients; the server always
	// reprices from the catalog.
	Price int64 `json:"price"`
}

type checkoutReq struct {
	UserID          string            `json:"userId"`
	GuestInfo       *guestInfoReq     `json:"guestInfo"`
	Items           []checkoutItemReq `json:"items" binding:"required,min=1,dive"`
	PromoCode       string            `json:"promoCode"`
	ShippingAddress addressReq        `json:"shippingAddress" binding:"required"`
	BillingAddress  *addressReq       `json:"billingAddress"`
	PaymentMethod   string            `json:"paymentMethod"`
	// Client-computed totals, ignored for the same reason as item prices.
	Subtotal int64 `json:"subtotal"`
	Shipping int64 `json:"shipping"`
	Total    int64 `json:"total"`
}

type checkoutResp struct {
	OrderID     string  `json:"orderId"`
	OrderNumber string  `json:"orderNumber"`
	PaymentURL  *string `json:"paymentUrl"`
}

// Checkout drives the whole pipeline: cart in, durable PENDING order plus a
// gateway redirect URL (or null) out.
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req checkoutReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	in := usecase.CheckoutInput{
		UserID:          req.UserID,
		CouponCode:      req.PromoCode,
		ShippingAddress: req.ShippingAddress.domain(),
		BillingAddress:  req.BillingAddress.domain(),
		PaymentMethod:   req.PaymentMethod,
		IdempotencyKey:  c.GetHeader("X-Idempotency-Key"),
	}
	if req.GuestInfo != nil {
		in.Guest = &usecase.GuestContact{
			Name:  req.GuestInfo.Name,
			Email: req.GuestInfo.Email,
			Phone: req.GuestInfo.Phone,
		}
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, usecase.CheckoutItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 20*time.Second)
	defer cancel()

	out, err := h.checkout.Execute(ctx, in)
	if err != nil {
		status, msg := mapCheckoutErr(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	var payURL *string
	if out.PaymentURL != "" {
		payURL = &out.PaymentURL
	}
	status := http.StatusCreated
	if out.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, checkoutResp{
		OrderID:     out.OrderID,
		OrderNumber: out.OrderNumber,
		PaymentURL:  payURL,
	})
}

func mapCheckoutErr(err error) (int, string) {
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, usecase.ErrCustomerNotFound),
		errors.Is(err, usecase.ErrProductNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, usecase.ErrProductUnavailable),
		errors.Is(err, usecase.ErrInsufficientStock),
		errors.Is(err, usecase.ErrCouponExhausted),
		errors.Is(err, usecase.ErrDuplicate):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
