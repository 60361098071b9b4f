package model

import (
	"slices"

	"github.com/shopspring/decimal"
)

// Customer represents a bank customer and the accounts it owns
type Customer struct {
	Name      string
	TaxID     string
	BirthDate string
	Address   string

	accounts []*Account
}

// NewCustomer creates a customer without accounts
func NewCustomer(name, taxID, birthDate, address string) *Customer {
	return &Customer{
		Name:      name,
		TaxID:     taxID,
		BirthDate: birthDate,
		Address:   address,
	}
}

// Accounts returns the customer's accounts in opening order
func (c *Customer) Accounts() []*Account {
	return slices.Clone(c.accounts)
}

// OpenAccount creates a zero-balance account owned by the customer
func (c *Customer) OpenAccount(branchCode string, number int, limits Limits) *Account {
	return c.RestoreAccount(branchCode, number, decimal.Zero, limits)
}

// RestoreAccount creates an account with a seed balance, used when loading from storage
func (c *Customer) RestoreAccount(branchCode string, number int, balance decimal.Decimal, limits Limits) *Account {
	a := newAccount(branchCode, number, c, balance, limits)
	c.accounts = append(c.accounts, a)
	return a
}

// Owns reports whether the account is one of the customer's accounts
func (c *Customer) Owns(a *Account) bool {
	return a != nil && slices.Contains(c.accounts, a)
}

// ExecuteTransaction applies t to the account and records it in the account's history.
// Nothing changes when the daily transaction limit is already reached or when Apply fails.
func (c *Customer) ExecuteTransaction(a *Account, t Transaction) error {
	if !c.Owns(a) {
		return ErrAccountNotOwned
	}
	if len(a.History.TransactionsOn(t.Timestamp)) >= a.Limits.TransactionsPerDay {
		return ErrDailyTransactionLimitExceeded
	}
	if err := t.Apply(a); err != nil {
		return err
	}
	a.History.Record(t)
	return nil
}
