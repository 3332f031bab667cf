package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/MikeMC777/multimarket/internal/auth"
	"github.com/MikeMC777/multimarket/internal/config"
	"github.com/MikeMC777/multimarket/internal/db"
	_ "github.com/MikeMC777/multimarket/internal/docs"
	"github.com/MikeMC777/multimarket/internal/httpx"
	"github.com/MikeMC777/multimarket/internal/logging"
	prod "github.com/MikeMC777/multimarket/internal/product"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config: ", err)
	}
	logger, err := logging.New(cfg.LogLevel, "product-service")
	if err != nil {
		log.Fatal("logger: ", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.OpenPostgres(ctx, cfg.PostgresDSN)
	cancel()
	if err != nil {
		logger.Fatal("postgres", zap.Error(err))
	}
	defer pool.Close()

	repo := prod.NewPGRepo(pool)
	tokens := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(logger), httpx.Metrics(reg, "product-service"))
	r.GET("/healthz", httpx.Healthz)
	r.GET("/metrics", httpx.MetricsHandler(reg))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// public catalog
	r.GET("/products", listOnlyHandler(repo))
	r.GET("/products/search", searchHandler(repo))
	r.GET("/products/:id", getProductHandler(repo))

	admin := r.Group("/products", httpx.Auth(tokens), httpx.RequireAdmin())
	admin.POST("", createProductHandler(repo))
	admin.PUT("/:id", updateProductHandler(repo))
	admin.DELETE("/:id", deleteProductHandler(repo))

	serve(logger, cfg.ProductSvcAddr, r)
}

func serve(logger *zap.Logger, addr string, h http.Handler) {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Info("product-service listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}
