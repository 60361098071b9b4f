package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CreateCustomerRequest represents the request to register a new customer
type CreateCustomerRequest struct {
	Name      string `json:"name" validate:"required"`
	TaxID     string `json:"tax_id" validate:"required,taxid"`
	BirthDate string `json:"birth_date" validate:"required,birthdate"`
	Address   string `json:"address" validate:"required"`
}

// Normalize trims surrounding whitespace from every field
func (r *CreateCustomerRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.TaxID = strings.TrimSpace(r.TaxID)
	r.BirthDate = strings.TrimSpace(r.BirthDate)
	r.Address = strings.TrimSpace(r.Address)
}

// Validate validates the create customer request
func (r *CreateCustomerRequest) Validate() error {
	r.Normalize()
	return validateStruct(r)
}

// TransactionRequest represents a deposit or withdrawal request.
// Amount accepts both JSON numbers and strings.
type TransactionRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// Validate validates the transaction request
func (r *TransactionRequest) Validate() error {
	return validateAmount(r.Amount)
}
