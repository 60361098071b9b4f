package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"branch-ledger/internal/app"
	"branch-ledger/internal/config"
	"branch-ledger/internal/handler"
	"branch-ledger/internal/logger"
)

const version = "1.0.0"

func main() {
	configFile := flag.String("config", "", "path to a YAML, JSON or TOML config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	// Open the store and load the ledger
	ledgerApp, err := app.New(context.Background(), cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize ledger", zap.Error(err))
	}
	defer func() {
		if err := ledgerApp.Close(); err != nil {
			zapLogger.Error("Failed to close ledger resources", zap.Error(err))
		}
	}()

	server := initServer(cfg, ledgerApp, zapLogger)

	// Start server in a goroutine
	go func() {
		zapLogger.Info("Starting server", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Driver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initServer(cfg *config.Config, a *app.App, zapLogger *zap.Logger) *http.Server {
	var pinger handler.Pinger
	if p, ok := a.Store.(handler.Pinger); ok {
		pinger = p
	}

	router := handler.NewRouter(handler.RouterConfig{
		Customers:    handler.NewCustomerHandler(a.Customers),
		Accounts:     handler.NewAccountHandler(a.Customers),
		Transactions: handler.NewTransactionHandler(a.Transactions),
		Health:       handler.NewHealthHandler(a.Ledger, pinger, version),
		AllowOrigins: cfg.Server.AllowOrigins,
		Logger:       zapLogger.With(zap.String("component", "HTTP")),
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
}
