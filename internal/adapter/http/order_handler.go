package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Koneum/sissansissan-api/internal/adapter/http/middleware"
	"github.com/Koneum/sissansissan-api/internal/usecase"
)

type OrderHandler struct {
	store  usecase.OrderStore
	cache  usecase.OrderCache
	cancel *usecase.CancelOrders
}

func NewOrderHandler(store usecase.OrderStore, cache usecase.OrderCache, cancel *usecase.CancelOrders) *OrderHandler {
	return &OrderHandler{store: store, cache: cache, cancel: cancel}
}

func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	id := c.Param("id")
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	o, err := h.store.GetByID(ctx, id)
	if err != nil || o == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	items, err := h.store.ItemsForOrder(ctx, o.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	lines := make([]gin.H, 0, len(items))
	for _, it := range items {
		lines = append(lines, gin.H{
			"productId": it.ProductID,
			"quantity":  it.Quantity,
			"price":     it.Price,
			"snapshot":  it.Snapshot,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"id":            o.ID,
		"orderNumber":   o.OrderNumber,
		"status":        o.Status,
		"paymentStatus": o.PaymentStatus,
		"subtotal":      o.Subtotal,
		"shipping":      o.Shipping,
		"discount":      o.Discount,
		"total":         o.Total,
		"couponCode":    o.CouponCode,
		"items":         lines,
		"createdAt":     o.CreatedAt,
	})
}

// GetOrderStatus serves the post-checkout polling path from the status cache
// when possible, falling back to the database.
func (h *OrderHandler) GetOrderStatus(c *gin.Context) {
	id := c.Param("id")
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if st, ok, err := h.cache.GetStatus(ctx, id); err == nil && ok {
		c.JSON(http.StatusOK, gin.H{"id": id, "status": st})
		return
	}
	o, err := h.store.GetByID(ctx, id)
	if err != nil || o == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": o.ID, "status": o.Status})
}

type bulkCancelReq struct {
	IDs []string `json:"ids" binding:"required,min=1"`
}

// BulkCancel cancels each id in its own transaction and reports per-id
// results; admins cancel anything, customers only their own PENDING orders.
func (h *OrderHandler) BulkCancel(c *gin.Context) {
	var req bulkCancelReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	// Large batches get a generous deadline; each order commits separately.
	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	results := h.cancel.Execute(ctx, req.IDs, middleware.ActorFrom(c))
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// CancelOne is the customer self-service path.
func (h *OrderHandler) CancelOne(c *gin.Context) {
	id := c.Param("id")
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.cancel.CancelOne(ctx, id, middleware.ActorFrom(c)); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, usecase.ErrOrderNotFound):
			status = http.StatusNotFound
		case errors.Is(err, usecase.ErrForbidden):
			status = http.StatusForbidden
		case errors.Is(err, usecase.ErrNotCancellable):
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "success": true})
}
