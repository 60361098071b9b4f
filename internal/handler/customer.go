package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"branch-ledger/internal/model"
	"branch-ledger/internal/service"
)

// CustomerHandler handles customer-related HTTP requests
type CustomerHandler struct {
	customerService *service.CustomerService
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(customerService *service.CustomerService) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
	}
}

// CreateCustomer handles POST /v1/customers.
// The first account is opened too unless open_account=false is passed.
func (h *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	openAccount := true
	if v := r.URL.Query().Get("open_account"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeErrorResponse(w, http.StatusBadRequest, "open_account must be true or false", model.ErrCodeInvalidInput)
			return
		}
		openAccount = parsed
	}

	var req model.CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON", model.ErrCodeInvalidInput)
		return
	}

	response, err := h.customerService.CreateCustomer(r.Context(), &req, openAccount)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, response)
}

// GetCustomer handles GET /v1/customers/{taxID}
func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	response, err := h.customerService.GetCustomer(r.Context(), chi.URLParam(r, "taxID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// OpenAccount handles POST /v1/customers/{taxID}/accounts
func (h *CustomerHandler) OpenAccount(w http.ResponseWriter, r *http.Request) {
	response, err := h.customerService.OpenAccount(r.Context(), chi.URLParam(r, "taxID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, response)
}
