package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Koneum/sissansissan-api/internal/adapter/http/middleware"
	"github.com/Koneum/sissansissan-api/internal/logging"
)

func NewRouter(ch *CheckoutHandler, cb *CallbackHandler, oh *OrderHandler, authz *middleware.Authz) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.MetricsMiddleware())

	r.Use(middleware.Logging(logging.New("http")))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	// Prometheus endpoint (scraped by Prometheus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Gateway webhook: unauthenticated channel, the authenticity hash is the
	// only gate.
	r.POST("/payments/callback", cb.Settle)

	v1 := r.Group("/v1")
	{
		// Guest checkout is allowed, so no bearer token here.
		v1.POST("/checkout", ch.Checkout)
		v1.GET("/orders/:id", oh.GetOrderByID)
		v1.GET("/orders/:id/status", oh.GetOrderStatus)
		// Back-office batch path; self-cancellation goes through :id/cancel.
		v1.POST("/orders/cancel", authz.Require("orders.delete"), oh.BulkCancel)
		v1.POST("/orders/:id/cancel", authz.Authenticate(), oh.CancelOne)
	}

	return r
}
