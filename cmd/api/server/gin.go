package server

import (
	"net/http"
	"time"

	ginhandler "user-registry/internal/adapter/gin/handler"
	"user-registry/internal/adapter/gin/middleware"
	ginrouter "user-registry/internal/adapter/gin/router"
	"user-registry/internal/config"

	"go.uber.org/zap"
)

// SetupGinServer creates and configures the Gin REST API server
func SetupGinServer(
	handler *ginhandler.UserHandler,
	rateLimiter *middleware.RateLimiter,
	cfg *config.Config,
	l *zap.Logger,
) *http.Server {
	router := ginrouter.SetupRouter(handler, ginrouter.Options{
		ServiceName:    cfg.Logger.ServiceName,
		AllowedOrigins: cfg.App.CORSAllowedOrigins,
		RateLimiter:    rateLimiter,
	}, l)

	addr := ":" + cfg.App.HTTPPort
	l.Info("Gin REST API configured", zap.String("address", addr))

	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
