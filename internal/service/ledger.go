package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"branch-ledger/internal/audit"
	"branch-ledger/internal/model"
	"branch-ledger/internal/repository"
)

// Ledger is the shared state behind the customer and transaction services.
// Every operation runs under one lock and every successful mutation is
// written to the store before it is reported.
type Ledger struct {
	mu         sync.Mutex
	registry   *repository.Registry
	store      repository.Store
	audit      audit.Sink
	logger     *zap.Logger
	branchCode string
}

// NewLedger creates a ledger for one branch
func NewLedger(registry *repository.Registry, store repository.Store, sink audit.Sink, logger *zap.Logger, branchCode string) *Ledger {
	if sink == nil {
		sink = audit.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		registry:   registry,
		store:      store,
		audit:      sink,
		logger:     logger,
		branchCode: branchCode,
	}
}

// Load replaces the in-memory state with the store's contents
func (l *Ledger) Load(ctx context.Context) (repository.LoadReport, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	report, err := l.registry.Load(ctx, l.store)
	if err != nil {
		return report, err
	}
	for _, skipped := range report.Skipped {
		l.logger.Warn("Skipped corrupt record",
			zap.String("source", skipped.Source),
			zap.Int("line", skipped.Line),
			zap.String("reason", skipped.Reason),
		)
	}
	for _, moved := range report.Renumbered {
		l.logger.Warn("Renumbered account with a number already in use",
			zap.String("tax_id", moved.TaxID),
			zap.String("branch_code", moved.BranchCode),
			zap.Int("from", moved.From),
			zap.Int("to", moved.To),
		)
	}
	l.logger.Info("Ledger loaded",
		zap.String("driver", l.store.Driver()),
		zap.Int("customers", report.Customers),
		zap.Int("accounts", report.Accounts),
		zap.Int("skipped", len(report.Skipped)),
		zap.Int("renumbered", len(report.Renumbered)),
	)
	return report, nil
}

// BranchCode returns the branch this ledger serves
func (l *Ledger) BranchCode() string {
	return l.branchCode
}

// Driver returns the name of the backing store
func (l *Ledger) Driver() string {
	return l.store.Driver()
}

// Counts returns the number of customers and accounts
func (l *Ledger) Counts() (customers, accounts int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.registry.Customers()), len(l.registry.Accounts())
}

// commit persists the registry. On failure the registry is rolled back to before.
func (l *Ledger) commit(ctx context.Context, before *repository.Snapshot) error {
	if err := l.registry.Save(ctx, l.store); err != nil {
		l.registry.Restore(before)
		l.logger.Error("Failed to persist ledger", zap.Error(err))
		return &ServiceError{
			Code:    model.ErrCodeStorageUnavailable,
			Message: "Ledger could not be saved",
			Err:     err,
		}
	}
	return nil
}

func (l *Ledger) record(ctx context.Context, e audit.Event) {
	if err := l.audit.Record(ctx, e); err != nil {
		l.logger.Warn("Failed to record audit event",
			zap.String("operation", e.Operation),
			zap.Error(err),
		)
	}
}

func (l *Ledger) findAccount(number int) (*model.Account, error) {
	a, ok := l.registry.FindAccount(l.branchCode, number)
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	return a, nil
}
