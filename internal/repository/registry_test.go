package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"branch-ledger/internal/model"
)

// memStore is an in-memory Store used to exercise Registry.Load and Registry.Save
type memStore struct {
	snap    *Snapshot
	loadErr error
	saveErr error
	saves   int
}

func (m *memStore) Load(ctx context.Context) (*Snapshot, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.snap == nil {
		return &Snapshot{}, nil
	}
	return m.snap, nil
}

func (m *memStore) Save(ctx context.Context, snap *Snapshot) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.snap = snap
	m.saves++
	return nil
}

func (m *memStore) Driver() string { return "memory" }

func newTestRegistry(t *testing.T, taxIDs ...string) *Registry {
	t.Helper()
	r := NewRegistry(model.DefaultLimits())
	for _, id := range taxIDs {
		require.NoError(t, r.AddCustomer(model.NewCustomer("Customer "+id[:3], id, "01-02-1990", "Rua A, 10")))
	}
	return r
}

func TestRegistry_AddCustomer_DuplicateTaxID(t *testing.T) {
	r := newTestRegistry(t, "12345678901")

	err := r.AddCustomer(model.NewCustomer("Other", "12345678901", "02-03-1980", "Rua B"))
	assert.ErrorIs(t, err, ErrDuplicateTaxID)
	assert.Len(t, r.Customers(), 1)
	assert.Equal(t, "Customer 123", r.Customers()[0].Name)
}

func TestRegistry_OpenAccount_NumbersAreUniquePerBranch(t *testing.T) {
	r := newTestRegistry(t, "11111111111", "22222222222")

	a1, err := r.OpenAccount("11111111111", "0001")
	require.NoError(t, err)
	a2, err := r.OpenAccount("22222222222", "0001")
	require.NoError(t, err)
	a3, err := r.OpenAccount("11111111111", "0001")
	require.NoError(t, err)
	other, err := r.OpenAccount("22222222222", "0002")
	require.NoError(t, err)

	assert.Equal(t, 1, a1.Number)
	assert.Equal(t, 2, a2.Number)
	assert.Equal(t, 3, a3.Number)
	assert.Equal(t, 1, other.Number)
	assert.Equal(t, 4, r.NextAccountNumber("0001"))

	c, ok := r.FindCustomer("11111111111")
	require.True(t, ok)
	assert.Equal(t, []*model.Account{a1, a3}, c.Accounts())
	assert.Same(t, c, a3.Owner)
	assert.True(t, a1.Balance().IsZero())
}

func TestRegistry_OpenAccountNumber(t *testing.T) {
	r := newTestRegistry(t, "11111111111", "22222222222")

	_, err := r.OpenAccountNumber("11111111111", "0001", 7)
	require.NoError(t, err)

	_, err = r.OpenAccountNumber("22222222222", "0001", 7)
	assert.ErrorIs(t, err, ErrDuplicateAccount)

	_, err = r.OpenAccountNumber("99999999999", "0001", 8)
	assert.ErrorIs(t, err, ErrCustomerNotFound)

	assert.Equal(t, 8, r.NextAccountNumber("0001"))
}

func TestRegistry_Lookups(t *testing.T) {
	r := newTestRegistry(t, "11111111111")
	a, err := r.OpenAccount("11111111111", "0001")
	require.NoError(t, err)

	found, ok := r.FindAccount("0001", a.Number)
	assert.True(t, ok)
	assert.Same(t, a, found)

	_, ok = r.FindAccount("0001", 42)
	assert.False(t, ok)
	_, ok = r.FindAccount("0002", a.Number)
	assert.False(t, ok)
	_, ok = r.FindCustomer("00000000000")
	assert.False(t, ok)
}

func TestRegistry_AccountsFollowCustomerOrder(t *testing.T) {
	r := newTestRegistry(t, "22222222222", "11111111111")
	b1, _ := r.OpenAccount("11111111111", "0001")
	a1, _ := r.OpenAccount("22222222222", "0001")
	b2, _ := r.OpenAccount("11111111111", "0001")

	assert.Equal(t, []*model.Account{a1, b1, b2}, r.Accounts())
}

func TestRegistry_SnapshotRestore(t *testing.T) {
	r := newTestRegistry(t, "11111111111", "22222222222")
	a, err := r.OpenAccount("11111111111", "0001")
	require.NoError(t, err)
	c, _ := r.FindCustomer("11111111111")
	require.NoError(t, c.ExecuteTransaction(a, model.NewDeposit(decimal.NewFromInt(100))))
	require.NoError(t, c.ExecuteTransaction(a, model.NewWithdrawal(decimal.NewFromInt(30))))

	snap := r.Snapshot()
	require.Len(t, snap.Customers, 2)
	require.Len(t, snap.Accounts, 1)
	assert.Equal(t, "70", snap.Accounts[0].Balance.String())
	assert.Len(t, snap.Accounts[0].Transactions, 2)

	restored := NewRegistry(model.DefaultLimits())
	report := restored.Restore(snap)
	assert.Equal(t, 2, report.Customers)
	assert.Equal(t, 1, report.Accounts)
	assert.Empty(t, report.Skipped)

	got, ok := restored.FindAccount("0001", 1)
	require.True(t, ok)
	assert.True(t, got.Balance().Equal(decimal.NewFromInt(70)))
	assert.Equal(t, 2, got.History.Len())
	assert.Equal(t, 1, got.DailyWithdrawalCount())
	assert.Equal(t, "11111111111", got.Owner.TaxID)
	assert.Equal(t, 2, restored.NextAccountNumber("0001"))
}

func TestRegistry_RestoreSkipsInconsistentRecords(t *testing.T) {
	snap := &Snapshot{
		Customers: []CustomerRecord{
			{Name: "Maria", TaxID: "11111111111"},
			{Name: "Maria again", TaxID: "11111111111"},
		},
		Accounts: []AccountRecord{
			{TaxID: "11111111111", BranchCode: "0001", Number: 1, Balance: decimal.NewFromInt(10)},
			{TaxID: "11111111111", BranchCode: "0001", Number: 1, Balance: decimal.NewFromInt(20)},
			{TaxID: "33333333333", BranchCode: "0001", Number: 2},
			{TaxID: "11111111111", BranchCode: "0001", Number: 3, Balance: decimal.NewFromInt(-5)},
		},
		Skipped: []*CorruptRecordError{{Source: "data.csv", Line: 9, Reason: "bad row"}},
	}

	r := NewRegistry(model.DefaultLimits())
	report := r.Restore(snap)

	assert.Equal(t, 1, report.Customers)
	assert.Equal(t, 2, report.Accounts)
	require.Len(t, report.Skipped, 4)
	for _, skipped := range report.Skipped {
		assert.ErrorIs(t, skipped, ErrCorruptRecord)
	}

	a, ok := r.FindAccount("0001", 1)
	require.True(t, ok)
	assert.True(t, a.Balance().Equal(decimal.NewFromInt(10)))

	// the second account 1 keeps its balance under the next free number
	assert.Equal(t, []Renumbering{{TaxID: "11111111111", BranchCode: "0001", From: 1, To: 2}}, report.Renumbered)
	moved, ok := r.FindAccount("0001", 2)
	require.True(t, ok)
	assert.True(t, moved.Balance().Equal(decimal.NewFromInt(20)))
}

func TestRegistry_RestoreSeedsOnlyTodaysWithdrawals(t *testing.T) {
	yesterday := time.Now().AddDate(0, 0, -1)
	snap := &Snapshot{
		Customers: []CustomerRecord{{Name: "Maria", TaxID: "11111111111"}},
		Accounts: []AccountRecord{{
			TaxID: "11111111111", BranchCode: "0001", Number: 1, Balance: decimal.NewFromInt(100),
			Transactions: []model.Transaction{
				model.NewTransactionAt(model.KindWithdrawal, decimal.NewFromInt(10), yesterday),
				model.NewTransactionAt(model.KindWithdrawal, decimal.NewFromInt(10), yesterday),
				model.NewWithdrawal(decimal.NewFromInt(10)),
			},
		}},
	}

	r := NewRegistry(model.DefaultLimits())
	r.Restore(snap)
	a, ok := r.FindAccount("0001", 1)
	require.True(t, ok)
	assert.Equal(t, 1, a.DailyWithdrawalCount())
	assert.Len(t, a.History.TransactionsToday(), 1)
}

func TestRegistry_LoadAndSave(t *testing.T) {
	store := &memStore{}
	r := newTestRegistry(t, "11111111111")
	_, err := r.OpenAccount("11111111111", "0001")
	require.NoError(t, err)

	require.NoError(t, r.Save(context.Background(), store))
	assert.Equal(t, 1, store.saves)

	loaded := NewRegistry(model.DefaultLimits())
	report, err := loaded.Load(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Customers)
	assert.Equal(t, 1, report.Accounts)
}

func TestRegistry_LoadEmptyStore(t *testing.T) {
	r := newTestRegistry(t, "11111111111")
	report, err := r.Load(context.Background(), &memStore{})

	require.NoError(t, err)
	assert.Zero(t, report.Customers)
	assert.Empty(t, r.Customers())
}

func TestRegistry_StoreErrorsAreWrapped(t *testing.T) {
	boom := errors.New("disk on fire")
	r := newTestRegistry(t)

	_, err := r.Load(context.Background(), &memStore{loadErr: boom})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "memory store")

	err = r.Save(context.Background(), &memStore{saveErr: boom})
	assert.ErrorIs(t, err, boom)
}
