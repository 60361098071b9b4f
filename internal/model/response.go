package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string      `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Version   string      `json:"version"`
	Store     StoreHealth `json:"store"`
}

// StoreHealth represents the persistence backend status
type StoreHealth struct {
	Status    string `json:"status"`
	Driver    string `json:"driver"`
	Customers int    `json:"customers"`
	Accounts  int    `json:"accounts"`
}

// Common error codes
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeInsufficientFunds  = "INSUFFICIENT_FUNDS"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeLimitExceeded      = "LIMIT_EXCEEDED"
	ErrCodeWithdrawalCount    = "WITHDRAWAL_COUNT_EXCEEDED"
	ErrCodeDailyTransactions  = "DAILY_TRANSACTION_LIMIT_EXCEEDED"
	ErrCodeAccountNotOwned    = "ACCOUNT_NOT_OWNED"
	ErrCodeInvalidAmount      = "INVALID_AMOUNT"
	ErrCodeDuplicateTaxID     = "DUPLICATE_TAX_ID"
	ErrCodeCustomerNotFound   = "CUSTOMER_NOT_FOUND"
	ErrCodeAccountNotFound    = "ACCOUNT_NOT_FOUND"
	ErrCodeDuplicateAccount   = "DUPLICATE_ACCOUNT"
	ErrCodeStorageUnavailable = "STORAGE_UNAVAILABLE"
)

// CustomerResponse represents a customer and its accounts
type CustomerResponse struct {
	Name      string            `json:"name"`
	TaxID     string            `json:"tax_id"`
	BirthDate string            `json:"birth_date"`
	Address   string            `json:"address"`
	Accounts  []AccountResponse `json:"accounts"`
}

// AccountResponse represents an account snapshot
type AccountResponse struct {
	BranchCode       string          `json:"branch_code"`
	Number           int             `json:"number"`
	HolderTaxID      string          `json:"holder_tax_id"`
	HolderName       string          `json:"holder_name"`
	Balance          decimal.Decimal `json:"balance"`
	WithdrawalsToday int             `json:"withdrawals_today"`
}

// TransactionResponse represents the outcome of a deposit or withdrawal
type TransactionResponse struct {
	ID        uuid.UUID       `json:"id"`
	Kind      TransactionKind `json:"kind"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
	Account   AccountResponse `json:"account"`
}

// StatementResponse represents an account statement
type StatementResponse struct {
	Account      AccountResponse `json:"account"`
	Transactions []Transaction   `json:"transactions"`
	Balance      decimal.Decimal `json:"balance"`
}

// NewAccountResponse builds the response view of an account
func NewAccountResponse(a *Account) AccountResponse {
	resp := AccountResponse{
		BranchCode:       a.BranchCode,
		Number:           a.Number,
		Balance:          a.Balance(),
		WithdrawalsToday: a.DailyWithdrawalCount(),
	}
	if a.Owner != nil {
		resp.HolderTaxID = a.Owner.TaxID
		resp.HolderName = a.Owner.Name
	}
	return resp
}

// NewCustomerResponse builds the response view of a customer
func NewCustomerResponse(c *Customer) CustomerResponse {
	resp := CustomerResponse{
		Name:      c.Name,
		TaxID:     c.TaxID,
		BirthDate: c.BirthDate,
		Address:   c.Address,
		Accounts:  make([]AccountResponse, 0, len(c.accounts)),
	}
	for _, a := range c.accounts {
		resp.Accounts = append(resp.Accounts, NewAccountResponse(a))
	}
	return resp
}

// NewStatementResponse materializes an account statement
func NewStatementResponse(a *Account) StatementResponse {
	st := a.Statement()
	resp := StatementResponse{
		Account:      NewAccountResponse(a),
		Transactions: make([]Transaction, 0, a.History.Len()),
		Balance:      st.Balance,
	}
	for t := range st.Transactions {
		resp.Transactions = append(resp.Transactions, t)
	}
	return resp
}
