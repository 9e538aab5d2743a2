package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/address-completer/app/bootstrap"
	"github.com/address-completer/app/config"
	"github.com/address-completer/app/controllers"
	"github.com/address-completer/app/services"
	"github.com/address-completer/routes"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	settings, err := bootstrap.LoadSettings("config/app.yaml", "config/parser.yaml")
	if err != nil {
		panic(err)
	}

	logger, err := bootstrap.NewLogger(settings.Env)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Starting Address Completer Service...",
		zap.String("env", settings.Env),
		zap.String("parser_version", config.C.ParserVersion))

	stack, err := bootstrap.NewStack(context.Background(), settings, logger)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer stack.Close()

	locationService := services.NewLocationService(stack.Gateway, stack.Matcher, logger.Named("location"))
	adminService := services.NewAdminService(stack.Gateway, stack.Cache, stack.Addresses, logger.Named("admin"), settings.Version, settings.Env)

	ctrl := routes.Controllers{
		Address:  controllers.NewAddressController(stack.Addresses, config.C.Batch.MaxAddresses, settings.Version, logger),
		Location: controllers.NewLocationController(locationService, logger),
		Admin:    controllers.NewAdminController(adminService, logger),
	}

	if settings.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	routes.SetupAllRoutes(router, ctrl, logger)

	server := &http.Server{
		Addr:              ":" + settings.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", settings.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
