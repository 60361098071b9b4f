package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"branch-ledger/internal/model"
	"branch-ledger/internal/service"
)

// TransactionHandler handles deposits, withdrawals and statements
type TransactionHandler struct {
	transactionService *service.TransactionService
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
	}
}

// Deposit handles POST /v1/accounts/{number}/deposits
func (h *TransactionHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.handleTransaction(w, r, h.transactionService.Deposit)
}

// Withdraw handles POST /v1/accounts/{number}/withdrawals
func (h *TransactionHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.handleTransaction(w, r, h.transactionService.Withdraw)
}

type transactionFunc func(ctx context.Context, number int, req *model.TransactionRequest) (*model.TransactionResponse, error)

func (h *TransactionHandler) handleTransaction(w http.ResponseWriter, r *http.Request, fn transactionFunc) {
	number, ok := accountNumber(w, r)
	if !ok {
		return
	}

	var req model.TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid transaction request", model.ErrCodeInvalidInput)
		return
	}

	response, err := fn(r.Context(), number, &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, response)
}

// Statement handles GET /v1/accounts/{number}/statement
func (h *TransactionHandler) Statement(w http.ResponseWriter, r *http.Request) {
	number, ok := accountNumber(w, r)
	if !ok {
		return
	}

	response, err := h.transactionService.Statement(r.Context(), number)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}
