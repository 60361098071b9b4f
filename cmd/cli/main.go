package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"branch-ledger/internal/app"
	"branch-ledger/internal/cli"
	"branch-ledger/internal/config"
	"branch-ledger/internal/logger"
)

func main() {
	configFile := flag.String("config", "", "path to a YAML, JSON or TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// the menu owns stdout, so diagnostics go to stderr
	cfg.Logger.Format = "console"
	zapLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ledgerApp, err := app.New(ctx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize ledger", zap.Error(err))
	}
	defer ledgerApp.Close()

	menu := cli.NewMenu(os.Stdin, os.Stdout, ledgerApp.Customers, ledgerApp.Transactions)
	if err := menu.Run(ctx); err != nil && ctx.Err() == nil {
		zapLogger.Error("Menu stopped", zap.Error(err))
	}
}
