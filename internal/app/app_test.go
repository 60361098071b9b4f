package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"branch-ledger/internal/config"
	"branch-ledger/internal/model"
)

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("LEDGER_STORE_PATH", filepath.Join(t.TempDir(), "dados.csv"))
	t.Setenv("LEDGER_LOG_AUDIT_PATH", filepath.Join(t.TempDir(), "log.txt"))
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func TestNew_FileStore(t *testing.T) {
	cfg := newTestConfig(t)
	ctx := context.Background()

	a, err := New(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "file", a.Store.Driver())
	assert.Equal(t, "0001", a.Ledger.BranchCode())

	_, err = a.Customers.CreateCustomer(ctx, &model.CreateCustomerRequest{
		Name:      "Maria Silva",
		TaxID:     "12345678901",
		BirthDate: "01-02-1990",
		Address:   "Rua A, 10",
	}, true)
	require.NoError(t, err)
	require.NoError(t, a.Close())

	audit, err := os.ReadFile(cfg.Logger.AuditPath)
	require.NoError(t, err)
	assert.Contains(t, string(audit), "create_customer")

	reopened, err := New(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer reopened.Close()

	customers, accounts := reopened.Ledger.Counts()
	assert.Equal(t, 1, customers)
	assert.Equal(t, 1, accounts)
}

func TestNew_WithoutAuditLog(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Logger.AuditPath = ""

	a, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, a.Close())
}
