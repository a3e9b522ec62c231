package app

import (
	"context"
	"database/sql"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/Koneum/sissansissan-api/configs"
	"github.com/Koneum/sissansissan-api/internal/adapter/cache"
	"github.com/Koneum/sissansissan-api/internal/adapter/gateway"
	httpadapter "github.com/Koneum/sissansissan-api/internal/adapter/http"
	"github.com/Koneum/sissansissan-api/internal/adapter/http/middleware"
	"github.com/Koneum/sissansissan-api/internal/adapter/kafka"
	"github.com/Koneum/sissansissan-api/internal/adapter/queue"
	"github.com/Koneum/sissansissan-api/internal/adapter/repo"
	"github.com/Koneum/sissansissan-api/internal/logging"
	"github.com/Koneum/sissansissan-api/internal/security"
	"github.com/Koneum/sissansissan-api/internal/usecase"
)

type App struct {
	Router *gin.Engine
}

func InitWithConfig(cfg configs.Config) (*App, func(), error) {
	logging.Init(cfg.App.Name, "./logs/app.log")
	log := logging.New("app")

	// mysql
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		return nil, nil, err
	}
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)

	ctx, cancelPing := context.WithTimeout(context.Background(), 60*time.Second)
	if err := db.PingContext(ctx); err != nil {
		cancelPing()
		return nil, nil, err
	}
	cancelPing()

	// redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, nil, err
	}

	// rabbitmq
	conn, err := amqp091.Dial(cfg.Rabbit.URL)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, err
	}
	producer, err := queue.NewRabbitProducer(ch)
	if err != nil {
		return nil, nil, err
	}

	// kafka
	kprod, err := kafka.NewSyncProducer(cfg.Kafka.Brokers)
	if err != nil {
		return nil, nil, err
	}
	events := kafka.NewStatusProducer(kprod, cfg.Kafka.TopicEvents)

	// gateway
	signer := security.NewGatewaySigner(cfg.Gateway.APISecret)
	gw := gateway.NewClient(gateway.Config{
		BaseURL:       cfg.Gateway.BaseURL,
		APIKey:        cfg.Gateway.APIKey,
		Currency:      cfg.Gateway.Currency,
		PublicBaseURL: cfg.Gateway.PublicBaseURL,
		SuccessMarker: cfg.Gateway.SuccessMarker,
		Timeout:       cfg.Gateway.Timeout,
	}, signer)

	// infra
	orderStore := repo.NewMySQLOrderStore(db)
	products := repo.NewMySQLProductRepo(db)
	coupons := repo.NewMySQLCouponRepo(db)
	customers := repo.NewMySQLCustomerRepo(db)
	outbox := repo.NewMySQLOutboxRepo(db)
	idem := cache.NewRedisIdempotencyStore(rdb, cfg.Idempotency.TTL)
	statusCache := cache.NewRedisCache(rdb, cfg.Cache.TTL)

	// use cases
	shipping := usecase.ShippingPolicy{
		FlatFee:       cfg.Shipping.FlatFee,
		FreeThreshold: cfg.Shipping.FreeThreshold,
	}
	checkoutUC := usecase.NewCheckout(customers, products, coupons, orderStore, idem, gw, shipping, cfg.Gateway.Currency)
	settleUC := usecase.NewSettlePayment(orderStore, signer, statusCache, events, cfg.Gateway.Currency)
	cancelUC := usecase.NewCancelOrders(orderStore, statusCache, events, cfg.Gateway.Currency)

	// outbox drainer: order.created rows -> rabbitmq
	drainCtx, stopDrain := context.WithCancel(context.Background())
	go queue.NewDrainer(outbox, producer, logging.New("outbox")).Start(drainCtx)

	// handlers + router + middleware
	chk := httpadapter.NewCheckoutHandler(checkoutUC)
	cb := httpadapter.NewCallbackHandler(settleUC)
	oh := httpadapter.NewOrderHandler(orderStore, statusCache, cancelUC)
	authz := middleware.NewAuthz(cfg)
	router := httpadapter.NewRouter(chk, cb, oh, authz)

	log.Info("storefront-api wired up")

	cleanup := func() {
		stopDrain()
		_ = kprod.Close()
		_ = ch.Close()
		_ = conn.Close()
		_ = rdb.Close()
		_ = db.Close()
	}

	return &App{Router: router}, cleanup, nil
}
