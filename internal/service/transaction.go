package service

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"branch-ledger/internal/audit"
	"branch-ledger/internal/model"
)

// TransactionService handles deposits, withdrawals and statements
type TransactionService struct {
	ledger *Ledger
	logger *zap.Logger
}

// NewTransactionService creates a new transaction service
func NewTransactionService(ledger *Ledger) *TransactionService {
	return &TransactionService{
		ledger: ledger,
		logger: ledger.logger.With(zap.String("component", "TransactionService")),
	}
}

// Deposit credits an account of this branch
func (s *TransactionService) Deposit(ctx context.Context, number int, req *model.TransactionRequest) (*model.TransactionResponse, error) {
	return s.execute(ctx, audit.OpDeposit, number, req, model.NewDeposit)
}

// Withdraw debits an account of this branch
func (s *TransactionService) Withdraw(ctx context.Context, number int, req *model.TransactionRequest) (*model.TransactionResponse, error) {
	return s.execute(ctx, audit.OpWithdraw, number, req, model.NewWithdrawal)
}

func (s *TransactionService) execute(
	ctx context.Context,
	op string,
	number int,
	req *model.TransactionRequest,
	newTransaction func(decimal.Decimal) model.Transaction,
) (*model.TransactionResponse, error) {
	event := audit.NewEvent(op)
	event.BranchCode = s.ledger.branchCode
	event.AccountNumber = number
	amount := req.Amount
	event.Amount = &amount

	resp, err := s.apply(ctx, number, req, newTransaction)
	if resp != nil {
		balance := resp.Account.Balance
		event.TaxID = resp.Account.HolderTaxID
		event.Balance = &balance
	}
	s.ledger.record(ctx, event.WithError(err))
	return resp, err
}

func (s *TransactionService) apply(
	ctx context.Context,
	number int,
	req *model.TransactionRequest,
	newTransaction func(decimal.Decimal) model.Transaction,
) (*model.TransactionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, wrapError(err)
	}

	s.ledger.mu.Lock()
	defer s.ledger.mu.Unlock()

	account, err := s.ledger.findAccount(number)
	if err != nil {
		return nil, wrapError(err)
	}

	before := s.ledger.registry.Snapshot()
	tx := newTransaction(req.Amount)
	if err := account.Owner.ExecuteTransaction(account, tx); err != nil {
		s.logger.Info("Transaction rejected",
			zap.String("kind", string(tx.Kind)),
			zap.Int("account_number", number),
			zap.String("amount", req.Amount.StringFixed(2)),
			zap.Error(err),
		)
		return nil, wrapError(err)
	}
	if err := s.ledger.commit(ctx, before); err != nil {
		return nil, err
	}

	s.logger.Info("Transaction completed",
		zap.Stringer("transaction_id", tx.ID),
		zap.String("kind", string(tx.Kind)),
		zap.Int("account_number", number),
		zap.String("amount", tx.Amount.StringFixed(2)),
	)
	return &model.TransactionResponse{
		ID:        tx.ID,
		Kind:      tx.Kind,
		Amount:    tx.Amount,
		Timestamp: tx.Timestamp,
		Account:   model.NewAccountResponse(account),
	}, nil
}

// Statement returns the account's transactions in chronological order and its balance
func (s *TransactionService) Statement(ctx context.Context, number int) (*model.StatementResponse, error) {
	event := audit.NewEvent(audit.OpStatement)
	event.BranchCode = s.ledger.branchCode
	event.AccountNumber = number

	s.ledger.mu.Lock()
	account, err := s.ledger.findAccount(number)
	var resp *model.StatementResponse
	if err == nil {
		st := model.NewStatementResponse(account)
		resp = &st
		event.TaxID = st.Account.HolderTaxID
		event.Balance = &st.Balance
	}
	s.ledger.mu.Unlock()

	err = wrapError(err)
	s.ledger.record(ctx, event.WithError(err))
	return resp, err
}
