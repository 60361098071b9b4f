package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"branch-ledger/internal/audit"
	"branch-ledger/internal/model"
	"branch-ledger/internal/repository"
)

type fakeStore struct {
	snap    *repository.Snapshot
	saveErr error
	saves   int
}

func (s *fakeStore) Load(ctx context.Context) (*repository.Snapshot, error) {
	if s.snap == nil {
		return &repository.Snapshot{}, nil
	}
	return s.snap, nil
}

func (s *fakeStore) Save(ctx context.Context, snap *repository.Snapshot) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.snap = snap
	s.saves++
	return nil
}

func (s *fakeStore) Driver() string { return "fake" }

type recordingSink struct {
	events []audit.Event
}

func (s *recordingSink) Record(_ context.Context, e audit.Event) error {
	s.events = append(s.events, e)
	return nil
}

type testEnv struct {
	customers    *CustomerService
	transactions *TransactionService
	ledger       *Ledger
	store        *fakeStore
	sink         *recordingSink
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := &fakeStore{}
	sink := &recordingSink{}
	ledger := NewLedger(repository.NewRegistry(model.DefaultLimits()), store, sink, zap.NewNop(), "0001")
	return &testEnv{
		customers:    NewCustomerService(ledger),
		transactions: NewTransactionService(ledger),
		ledger:       ledger,
		store:        store,
		sink:         sink,
	}
}

func customerRequest(taxID string) *model.CreateCustomerRequest {
	return &model.CreateCustomerRequest{
		Name:      "Maria Silva",
		TaxID:     taxID,
		BirthDate: "01-02-1990",
		Address:   "Rua A, 10 - Centro - Recife/PE",
	}
}

func amount(s string) *model.TransactionRequest {
	return &model.TransactionRequest{Amount: decimal.RequireFromString(s)}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var serviceErr *ServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, code, serviceErr.Code)
}

func TestCustomerService_CreateCustomer(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.customers.CreateCustomer(context.Background(), customerRequest("12345678901"), true)
	require.NoError(t, err)
	assert.Equal(t, "12345678901", resp.TaxID)
	require.Len(t, resp.Accounts, 1)
	assert.Equal(t, "0001", resp.Accounts[0].BranchCode)
	assert.Equal(t, 1, resp.Accounts[0].Number)
	assert.True(t, resp.Accounts[0].Balance.IsZero())
	assert.Equal(t, 1, env.store.saves)

	withoutAccount, err := env.customers.CreateCustomer(context.Background(), customerRequest("10987654321"), false)
	require.NoError(t, err)
	assert.Empty(t, withoutAccount.Accounts)
}

func TestCustomerService_CreateCustomer_DuplicateTaxID(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.customers.CreateCustomer(context.Background(), customerRequest("12345678901"), true)
	require.NoError(t, err)

	_, err = env.customers.CreateCustomer(context.Background(), customerRequest("12345678901"), true)
	assertCode(t, err, model.ErrCodeDuplicateTaxID)
	assert.ErrorIs(t, err, repository.ErrDuplicateTaxID)

	customers, accounts := env.ledger.Counts()
	assert.Equal(t, 1, customers)
	assert.Equal(t, 1, accounts)
	assert.Equal(t, 1, env.store.saves)
}

func TestCustomerService_CreateCustomer_Validation(t *testing.T) {
	env := newTestEnv(t)
	req := customerRequest("123")

	_, err := env.customers.CreateCustomer(context.Background(), req, true)
	assertCode(t, err, model.ErrCodeValidation)
	assert.Zero(t, env.store.saves)

	require.Len(t, env.sink.events, 1)
	assert.Equal(t, audit.OutcomeFailure, env.sink.events[0].Outcome)
}

func TestCustomerService_OpenAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.customers.CreateCustomer(ctx, customerRequest("11111111111"), true)
	require.NoError(t, err)
	_, err = env.customers.CreateCustomer(ctx, customerRequest("22222222222"), true)
	require.NoError(t, err)

	acct, err := env.customers.OpenAccount(ctx, "11111111111")
	require.NoError(t, err)
	assert.Equal(t, 3, acct.Number)
	assert.Equal(t, "11111111111", acct.HolderTaxID)

	_, err = env.customers.OpenAccount(ctx, "99999999999")
	assertCode(t, err, model.ErrCodeCustomerNotFound)

	customer, err := env.customers.GetCustomer(ctx, "11111111111")
	require.NoError(t, err)
	require.Len(t, customer.Accounts, 2)
	assert.Equal(t, 1, customer.Accounts[0].Number)
	assert.Equal(t, 3, customer.Accounts[1].Number)

	list := env.customers.ListAccounts(ctx)
	require.Len(t, list, 3)
	assert.Equal(t, []int{1, 3, 2}, []int{list[0].Number, list[1].Number, list[2].Number})
}

func TestCustomerService_GetCustomer(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.customers.GetCustomer(context.Background(), "12345678901")
	assertCode(t, err, model.ErrCodeCustomerNotFound)

	_, err = env.customers.GetCustomer(context.Background(), "abc")
	assertCode(t, err, model.ErrCodeValidation)
}

func TestTransactionService_Scenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.customers.CreateCustomer(ctx, customerRequest("12345678901"), true)
	require.NoError(t, err)

	resp, err := env.transactions.Deposit(ctx, 1, amount("100"))
	require.NoError(t, err)
	assert.Equal(t, model.KindDeposit, resp.Kind)
	assert.Equal(t, "100.00", resp.Account.Balance.StringFixed(2))

	_, err = env.transactions.Withdraw(ctx, 1, amount("600"))
	assertCode(t, err, model.ErrCodeLimitExceeded)
	assert.ErrorIs(t, err, model.ErrExceedsDailyLimit)

	resp, err = env.transactions.Withdraw(ctx, 1, amount("50"))
	require.NoError(t, err)
	assert.Equal(t, "50.00", resp.Account.Balance.StringFixed(2))
	assert.Equal(t, 1, resp.Account.WithdrawalsToday)

	_, err = env.transactions.Withdraw(ctx, 1, amount("50"))
	require.NoError(t, err)

	_, err = env.transactions.Withdraw(ctx, 1, amount("50"))
	assertCode(t, err, model.ErrCodeInsufficientFunds)

	st, err := env.transactions.Statement(ctx, 1)
	require.NoError(t, err)
	require.Len(t, st.Transactions, 3)
	assert.Equal(t, []model.TransactionKind{model.KindDeposit, model.KindWithdrawal, model.KindWithdrawal},
		[]model.TransactionKind{st.Transactions[0].Kind, st.Transactions[1].Kind, st.Transactions[2].Kind})
	assert.True(t, st.Balance.IsZero())

	// one save for the customer and one per successful transaction
	assert.Equal(t, 4, env.store.saves)
}

func TestTransactionService_WithdrawalCount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.customers.CreateCustomer(ctx, customerRequest("12345678901"), true)
	require.NoError(t, err)
	_, err = env.transactions.Deposit(ctx, 1, amount("1000"))
	require.NoError(t, err)

	for i := 0; i < model.DefaultWithdrawalsPerDay; i++ {
		_, err := env.transactions.Withdraw(ctx, 1, amount("10"))
		require.NoError(t, err)
	}

	_, err = env.transactions.Withdraw(ctx, 1, amount("10"))
	assertCode(t, err, model.ErrCodeWithdrawalCount)

	acct, err := env.customers.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "970.00", acct.Balance.StringFixed(2))
}

func TestTransactionService_DailyTransactionLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.customers.CreateCustomer(ctx, customerRequest("12345678901"), true)
	require.NoError(t, err)

	for i := 0; i < model.DefaultTransactionsPerDay; i++ {
		_, err := env.transactions.Deposit(ctx, 1, amount("1"))
		require.NoError(t, err)
	}

	_, err = env.transactions.Deposit(ctx, 1, amount("1"))
	assertCode(t, err, model.ErrCodeDailyTransactions)

	st, err := env.transactions.Statement(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, st.Transactions, model.DefaultTransactionsPerDay)
	assert.Equal(t, "10.00", st.Balance.StringFixed(2))
}

func TestTransactionService_InvalidInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.customers.CreateCustomer(ctx, customerRequest("12345678901"), true)
	require.NoError(t, err)

	_, err = env.transactions.Deposit(ctx, 1, amount("0"))
	assertCode(t, err, model.ErrCodeValidation)

	_, err = env.transactions.Withdraw(ctx, 1, amount("-5"))
	assertCode(t, err, model.ErrCodeValidation)

	_, err = env.transactions.Deposit(ctx, 42, amount("10"))
	assertCode(t, err, model.ErrCodeAccountNotFound)

	_, err = env.transactions.Statement(ctx, 42)
	assertCode(t, err, model.ErrCodeAccountNotFound)
}

func TestTransactionService_SaveFailureLeavesStateUnchanged(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.customers.CreateCustomer(ctx, customerRequest("12345678901"), true)
	require.NoError(t, err)
	_, err = env.transactions.Deposit(ctx, 1, amount("100"))
	require.NoError(t, err)

	boom := errors.New("disk full")
	env.store.saveErr = boom

	_, err = env.transactions.Withdraw(ctx, 1, amount("40"))
	assertCode(t, err, model.ErrCodeStorageUnavailable)
	assert.ErrorIs(t, err, boom)

	_, err = env.customers.OpenAccount(ctx, "12345678901")
	assertCode(t, err, model.ErrCodeStorageUnavailable)

	env.store.saveErr = nil
	st, err := env.transactions.Statement(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, st.Transactions, 1)
	assert.Equal(t, "100.00", st.Balance.StringFixed(2))
	assert.Zero(t, st.Account.WithdrawalsToday)

	customers, accounts := env.ledger.Counts()
	assert.Equal(t, 1, customers)
	assert.Equal(t, 1, accounts)
}

func TestTransactionService_AuditTrail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.customers.CreateCustomer(ctx, customerRequest("12345678901"), true)
	require.NoError(t, err)
	_, err = env.transactions.Deposit(ctx, 1, amount("25.50"))
	require.NoError(t, err)
	_, err = env.transactions.Withdraw(ctx, 1, amount("30"))
	require.Error(t, err)

	require.Len(t, env.sink.events, 3)

	created := env.sink.events[0]
	assert.Equal(t, audit.OpCreateCustomer, created.Operation)
	assert.Equal(t, 1, created.AccountNumber)

	deposit := env.sink.events[1]
	assert.Equal(t, audit.OpDeposit, deposit.Operation)
	assert.Equal(t, audit.OutcomeSuccess, deposit.Outcome)
	assert.Equal(t, "12345678901", deposit.TaxID)
	require.NotNil(t, deposit.Balance)
	assert.Equal(t, "25.50", deposit.Balance.StringFixed(2))

	withdrawal := env.sink.events[2]
	assert.Equal(t, audit.OutcomeFailure, withdrawal.Outcome)
	assert.Equal(t, "Insufficient funds", withdrawal.Error)
}

func TestLedger_LoadRestoresState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.customers.CreateCustomer(ctx, customerRequest("12345678901"), true)
	require.NoError(t, err)
	_, err = env.transactions.Deposit(ctx, 1, amount("80"))
	require.NoError(t, err)
	_, err = env.transactions.Withdraw(ctx, 1, amount("30"))
	require.NoError(t, err)

	reloaded := NewLedger(repository.NewRegistry(model.DefaultLimits()), env.store, nil, nil, "0001")
	report, err := reloaded.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Customers)
	assert.Equal(t, "fake", reloaded.Driver())

	acct, err := NewCustomerService(reloaded).GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "50.00", acct.Balance.StringFixed(2))
	assert.Equal(t, 1, acct.WithdrawalsToday)
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, model.ErrCodeInsufficientFunds, ErrorCode(wrapError(model.ErrInsufficientFunds)))
	assert.Equal(t, model.ErrCodeInternalError, ErrorCode(errors.New("boom")))
	assert.Nil(t, wrapError(nil))

	plain := errors.New("io failure")
	assert.Same(t, plain, wrapError(plain))
}
