// Package app wires configuration, storage, audit sinks and services together.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"branch-ledger/internal/audit"
	"branch-ledger/internal/config"
	"branch-ledger/internal/logger"
	"branch-ledger/internal/repository"
	"branch-ledger/internal/service"
)

// App holds the wired ledger services
type App struct {
	Config       *config.Config
	Logger       *zap.Logger
	Store        repository.Store
	Ledger       *service.Ledger
	Customers    *service.CustomerService
	Transactions *service.TransactionService

	closers []func() error
}

// New opens the configured store, loads the ledger from it and builds the services
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: log}

	store, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Store = store

	sink, err := a.openAudit()
	if err != nil {
		a.Close()
		return nil, err
	}

	registry := repository.NewRegistry(cfg.Ledger.Limits())
	a.Ledger = service.NewLedger(registry, store, sink, log.With(zap.String("component", "Ledger")), cfg.Ledger.BranchCode)
	if _, err := a.Ledger.Load(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.Customers = service.NewCustomerService(a.Ledger)
	a.Transactions = service.NewTransactionService(a.Ledger)
	return a, nil
}

// Close releases the store connection and audit sinks in reverse order
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) openStore(ctx context.Context) (repository.Store, error) {
	switch a.Config.Store.Driver {
	case "postgres":
		db, err := initDatabase(ctx, a.Config.Database)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		a.Logger.Info("Database connection established")

		if err := runMigrations(a.Config.Database); err != nil {
			return nil, err
		}
		a.Logger.Info("Database migrations completed successfully (or no new migrations)")
		return repository.NewPostgresStore(db), nil
	default:
		a.Logger.Info("Using file store", zap.String("path", a.Config.Store.Path))
		return repository.NewFileStore(a.Config.Store.Path), nil
	}
}

func (a *App) openAudit() (audit.Sink, error) {
	sinks := audit.Multi{}

	if path := a.Config.Logger.AuditPath; path != "" {
		fileLogger, err := logger.NewFileLogger(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open audit log: %w", err)
		}
		zapSink := audit.NewZapSink(fileLogger)
		a.closers = append(a.closers, zapSink.Sync)
		sinks = append(sinks, zapSink)
	}

	if a.Config.Kafka.Enabled {
		kafkaLogger := a.Logger.With(zap.String("component", "AuditPublisher"))
		writer := audit.NewKafkaWriter(a.Config.Kafka.Brokers, a.Config.Kafka.AuditTopic, kafkaLogger)
		kafkaSink := audit.NewKafkaSink(writer, kafkaLogger)
		a.closers = append(a.closers, kafkaSink.Close)
		sinks = append(sinks, kafkaSink)
		a.Logger.Info("Publishing audit events to Kafka",
			zap.Strings("brokers", a.Config.Kafka.Brokers),
			zap.String("topic", a.Config.Kafka.AuditTopic),
		)
	}

	if len(sinks) == 0 {
		return audit.Nop{}, nil
	}
	return sinks, nil
}

func initDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func runMigrations(cfg config.DatabaseConfig) error {
	m, err := migrate.New("file://"+cfg.MigrationsPath, cfg.DSN())
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	return nil
}
