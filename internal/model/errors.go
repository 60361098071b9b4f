package model

import "errors"

// Domain errors
var (
	ErrInvalidAmount                 = errors.New("amount must be positive")
	ErrInsufficientFunds             = errors.New("insufficient funds")
	ErrExceedsDailyLimit             = errors.New("withdrawal exceeds the per-transaction limit")
	ErrWithdrawalCountExceeded       = errors.New("maximum number of daily withdrawals exceeded")
	ErrDailyTransactionLimitExceeded = errors.New("maximum number of daily transactions exceeded")
	ErrAccountNotOwned               = errors.New("account does not belong to the customer")
	ErrUnknownKind                   = errors.New("unknown transaction kind")
)
