package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Koneum/sissansissan-api/internal/usecase"
)

type CallbackHandler struct {
	settle *usecase.SettlePayment
}

func NewCallbackHandler(settle *usecase.SettlePayment) *CallbackHandler {
	return &CallbackHandler{settle: settle}
}

// Settle handles the gateway's asynchronous payment callback. The response
// body follows the gateway contract exactly ({"status":"1"} acknowledges and
// stops its retries); internal detail is never leaked on rejection.
func (h *CallbackHandler) Settle(c *gin.Context) {
	orderID := c.PostForm("order_id")
	amount100 := c.PostForm("amount_100")
	currency := c.PostForm("currency_code")
	authenticity := c.PostForm("authenticity")
	success := c.PostForm("success")

	if orderID == "" || amount100 == "" || currency == "" || authenticity == "" || success == "" {
		reject(c, http.StatusBadRequest, "missing required fields")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	err := h.settle.Execute(ctx, usecase.SettleInput{
		OrderNumber:  orderID,
		Amount100:    amount100,
		Currency:     currency,
		Authenticity: authenticity,
		Success:      success == "1",
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrAuthenticityMismatch):
			reject(c, http.StatusForbidden, "invalid authenticity")
		case errors.Is(err, usecase.ErrOrderNotFound):
			reject(c, http.StatusNotFound, "order not found")
		case errors.Is(err, usecase.ErrOrderAlreadyProcessed):
			reject(c, http.StatusBadRequest, "already processed")
		default:
			reject(c, http.StatusInternalServerError, "processing error")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "1"})
}

func reject(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"status": "0", "message": msg})
}
