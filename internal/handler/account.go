package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"branch-ledger/internal/model"
	"branch-ledger/internal/service"
)

// AccountHandler handles account lookups
type AccountHandler struct {
	customerService *service.CustomerService
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(customerService *service.CustomerService) *AccountHandler {
	return &AccountHandler{
		customerService: customerService,
	}
}

// ListAccounts handles GET /v1/accounts
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.customerService.ListAccounts(r.Context()))
}

// GetAccount handles GET /v1/accounts/{number}
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	number, ok := accountNumber(w, r)
	if !ok {
		return
	}

	response, err := h.customerService.GetAccount(r.Context(), number)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// accountNumber extracts the {number} path parameter, writing a 400 when it is not a positive integer
func accountNumber(w http.ResponseWriter, r *http.Request) (int, bool) {
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil || number <= 0 {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid account number", model.ErrCodeInvalidInput)
		return 0, false
	}
	return number, true
}

// handleServiceError converts service errors to HTTP responses
func handleServiceError(w http.ResponseWriter, err error) {
	if serviceErr, ok := err.(*service.ServiceError); ok {
		switch serviceErr.Code {
		case model.ErrCodeNotFound, model.ErrCodeCustomerNotFound, model.ErrCodeAccountNotFound:
			writeErrorResponse(w, http.StatusNotFound, serviceErr.Message, serviceErr.Code)
		case model.ErrCodeValidation, model.ErrCodeInvalidInput, model.ErrCodeInvalidAmount:
			writeErrorResponse(w, http.StatusBadRequest, serviceErr.Message, serviceErr.Code)
		case model.ErrCodeInsufficientFunds, model.ErrCodeLimitExceeded, model.ErrCodeWithdrawalCount,
			model.ErrCodeDailyTransactions, model.ErrCodeAccountNotOwned:
			writeErrorResponse(w, http.StatusUnprocessableEntity, serviceErr.Message, serviceErr.Code)
		case model.ErrCodeConflict, model.ErrCodeDuplicateTaxID, model.ErrCodeDuplicateAccount:
			writeErrorResponse(w, http.StatusConflict, serviceErr.Message, serviceErr.Code)
		case model.ErrCodeStorageUnavailable:
			writeErrorResponse(w, http.StatusServiceUnavailable, serviceErr.Message, serviceErr.Code)
		default:
			writeErrorResponse(w, http.StatusInternalServerError, "Internal server error", model.ErrCodeInternalError)
		}
		return
	}

	// Unknown error
	writeErrorResponse(w, http.StatusInternalServerError, "Internal server error", model.ErrCodeInternalError)
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, message, code string) {
	writeJSON(w, statusCode, model.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
