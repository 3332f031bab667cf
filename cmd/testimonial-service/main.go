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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/MikeMC777/multimarket/internal/auth"
	"github.com/MikeMC777/multimarket/internal/config"
	"github.com/MikeMC777/multimarket/internal/db"
	_ "github.com/MikeMC777/multimarket/internal/docs"
	"github.com/MikeMC777/multimarket/internal/httpx"
	"github.com/MikeMC777/multimarket/internal/logging"
	tm "github.com/MikeMC777/multimarket/internal/testimonial"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config: ", err)
	}
	logger, err := logging.New(cfg.LogLevel, "testimonial-service")
	if err != nil {
		log.Fatal("logger: ", err)
	}
	defer logger.Sync()

	sqlDB, err := db.OpenSQLite(cfg.SQLitePath)
	if err != nil {
		logger.Fatal("sqlite", zap.String("path", cfg.SQLitePath), zap.Error(err))
	}
	defer sqlDB.Close()

	reg := prometheus.NewRegistry()
	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(logger), httpx.Metrics(reg, "testimonial-service"))
	r.GET("/healthz", httpx.Healthz)
	r.GET("/metrics", httpx.MetricsHandler(reg))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	routes(r, tm.NewSQLiteRepo(sqlDB), auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL))

	srv := &http.Server{Addr: cfg.TestimonialSvcAddr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Info("testimonial-service listening", zap.String("addr", cfg.TestimonialSvcAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}

func routes(r gin.IRouter, repo tm.Repository, tokens httpx.TokenParser) {
	r.GET("/testimonials", listApprovedHandler(repo))
	r.POST("/testimonials", submitHandler(repo))

	admin := r.Group("/admin/testimonials", httpx.Auth(tokens), httpx.RequireAdmin())
	admin.GET("", adminListHandler(repo))
	admin.POST("/:id/approve", setStatusHandler(repo, tm.StatusApproved))
	admin.POST("/:id/reject", setStatusHandler(repo, tm.StatusRejected))
	admin.POST("/:id/restore", setStatusHandler(repo, tm.StatusPending))
	admin.DELETE("/:id", deleteHandler(repo))
}
