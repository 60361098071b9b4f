package service

import (
	"errors"

	"branch-ledger/internal/model"
	"branch-ledger/internal/repository"
)

// ServiceError represents a service-level error
type ServiceError struct {
	Code    string
	Message string
	Err     error
}

// Error returns the client-facing message
func (e *ServiceError) Error() string {
	return e.Message
}

// Unwrap returns the underlying domain error, if any
func (e *ServiceError) Unwrap() error {
	return e.Err
}

var domainErrors = []struct {
	target  error
	code    string
	message string
}{
	{model.ErrInvalidAmount, model.ErrCodeInvalidAmount, "Amount must be positive"},
	{model.ErrInsufficientFunds, model.ErrCodeInsufficientFunds, "Insufficient funds"},
	{model.ErrExceedsDailyLimit, model.ErrCodeLimitExceeded, "Withdrawal exceeds the per-withdrawal limit"},
	{model.ErrWithdrawalCountExceeded, model.ErrCodeWithdrawalCount, "Maximum number of daily withdrawals exceeded"},
	{model.ErrDailyTransactionLimitExceeded, model.ErrCodeDailyTransactions, "Maximum number of daily transactions exceeded"},
	{model.ErrAccountNotOwned, model.ErrCodeAccountNotOwned, "Account does not belong to the customer"},
	{repository.ErrDuplicateTaxID, model.ErrCodeDuplicateTaxID, "Tax ID already registered"},
	{repository.ErrDuplicateAccount, model.ErrCodeDuplicateAccount, "Account number already in use"},
	{repository.ErrCustomerNotFound, model.ErrCodeCustomerNotFound, "Customer not found"},
	{repository.ErrAccountNotFound, model.ErrCodeAccountNotFound, "Account not found"},
}

// wrapError converts domain and validation failures into ServiceErrors.
// Anything else is returned unchanged.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return err
	}
	var validationErr *model.ValidationError
	if errors.As(err, &validationErr) {
		return &ServiceError{Code: model.ErrCodeValidation, Message: validationErr.Message, Err: err}
	}
	for _, d := range domainErrors {
		if errors.Is(err, d.target) {
			return &ServiceError{Code: d.code, Message: d.message, Err: err}
		}
	}
	return err
}

// ErrorCode returns the service error code carried by err, or
// ErrCodeInternalError when err is not a ServiceError
func ErrorCode(err error) string {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.Code
	}
	return model.ErrCodeInternalError
}
