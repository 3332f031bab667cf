package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/MikeMC777/multimarket/internal/auth"
	"github.com/MikeMC777/multimarket/internal/cart"
	"github.com/MikeMC777/multimarket/internal/config"
	"github.com/MikeMC777/multimarket/internal/db"
	_ "github.com/MikeMC777/multimarket/internal/docs"
	"github.com/MikeMC777/multimarket/internal/httpx"
	"github.com/MikeMC777/multimarket/internal/logging"
	ord "github.com/MikeMC777/multimarket/internal/order"
	"github.com/MikeMC777/multimarket/internal/pricing"
	"github.com/MikeMC777/multimarket/internal/userrpc"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config: ", err)
	}
	logger, err := logging.New(cfg.LogLevel, "order-service")
	if err != nil {
		log.Fatal("logger: ", err)
	}
	defer logger.Sync()
	logger.Info("configuration", zap.Stringer("config", cfg))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Postgres (orders)
	pool, err := db.OpenPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("postgres", zap.Error(err))
	}
	defer pool.Close()

	// Mongo (carts)
	mc, err := cart.Connect(ctx, cfg.MongoURI)
	if err != nil {
		logger.Fatal("mongo", zap.Error(err))
	}
	defer func() { _ = mc.Disconnect(context.Background()) }()
	carts := cart.NewMongoStore(mc.Database(cfg.MongoDB))
	if err := carts.EnsureIndexes(ctx); err != nil {
		logger.Fatal("mongo indexes", zap.Error(err))
	}

	// user-service (gRPC)
	users, conn, err := userrpc.Dial(cfg.UserSvcAddr)
	if err != nil {
		logger.Fatal("dial user-service", zap.Error(err))
	}
	defer conn.Close()
	ext := ord.NewExt(users, strings.TrimRight(cfg.ProductSvcBaseURL, "/"))

	calc, err := pricing.LoadCalculator(cfg.DiscountTiersFile)
	if err != nil {
		logger.Fatal("discount tiers", zap.Error(err))
	}

	var events ord.Publisher = ord.NopPublisher{}
	if cfg.KafkaBrokers != "" {
		events = ord.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		logger.Info("publishing order events", zap.String("topic", cfg.KafkaTopic))
	}
	defer events.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := ord.NewService(ord.Deps{
		Repo:    ord.NewPGRepo(pool),
		Carts:   carts,
		Catalog: ext,
		Users:   ext,
		Pricing: calc,
		Events:  events,
		Policy:  ord.CancelPolicy{Window: cfg.CancelWindow},
		Metrics: ord.NewMetrics(reg),
		Logger:  logger,
	})
	tokens := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)

	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(logger), httpx.Metrics(reg, "order-service"))
	r.GET("/healthz", httpx.Healthz)
	r.GET("/metrics", httpx.MetricsHandler(reg))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	routes(r, svc, tokens, logger)
	authRoutes(r, users, tokens)

	srv := &http.Server{Addr: cfg.OrderSvcAddr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Info("order-service listening", zap.String("addr", cfg.OrderSvcAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}

func routes(r gin.IRouter, svc *ord.Service, tokens httpx.TokenParser, logger *zap.Logger) {
	buyer := r.Group("", httpx.Auth(tokens))
	buyer.GET("/cart", getCartHandler(svc))
	buyer.POST("/cart", addToCartHandler(svc))
	buyer.DELETE("/cart", clearCartHandler(svc))
	buyer.POST("/cart/:product_id/increase", increaseItemHandler(svc))
	buyer.POST("/cart/:product_id/decrease", decreaseItemHandler(svc))
	buyer.DELETE("/cart/:product_id", removeItemHandler(svc))

	buyer.POST("/orders", createOrderHandler(svc, logger))
	buyer.GET("/orders/mine", listMyOrdersHandler(svc))
	buyer.GET("/orders/:id", getOrderHandler(svc))
	buyer.POST("/orders/:id/cancel", cancelMyOrderHandler(svc))

	admin := r.Group("/admin/orders", httpx.Auth(tokens), httpx.RequireAdmin())
	admin.GET("", adminListOrdersHandler(svc))
	admin.GET("/stats", adminStatsHandler(svc))
	admin.POST("/:id/assign", assignDriverHandler(svc))
	admin.POST("/:id/deliver", deliverHandler(svc))
	admin.POST("/:id/cancel", adminCancelHandler(svc))
	admin.POST("/:id/payment", markPaidHandler(svc))
	admin.PUT("/:id/status", updateOrderStatusHandler(svc))
}
