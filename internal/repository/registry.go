package repository

import (
	"context"
	"fmt"

	"branch-ledger/internal/model"
)

// AccountKey identifies an account within the ledger
type AccountKey struct {
	BranchCode string
	Number     int
}

// LoadReport summarizes a load from a store
type LoadReport struct {
	Customers  int
	Accounts   int
	Skipped    []*CorruptRecordError
	Renumbered []Renumbering
}

// Renumbering records an account restored under a new number because its
// stored number was already taken in the branch
type Renumbering struct {
	TaxID      string
	BranchCode string
	From       int
	To         int
}

// Registry is the in-memory collection of customers and their accounts
type Registry struct {
	limits    model.Limits
	customers map[string]*model.Customer
	order     []string
	accounts  map[AccountKey]*model.Account
}

// NewRegistry creates an empty registry. New accounts get the given limits.
func NewRegistry(limits model.Limits) *Registry {
	return &Registry{
		limits:    limits,
		customers: make(map[string]*model.Customer),
		accounts:  make(map[AccountKey]*model.Account),
	}
}

// AddCustomer registers a customer; tax IDs are unique
func (r *Registry) AddCustomer(c *model.Customer) error {
	if _, exists := r.customers[c.TaxID]; exists {
		return ErrDuplicateTaxID
	}
	r.customers[c.TaxID] = c
	r.order = append(r.order, c.TaxID)
	for _, a := range c.Accounts() {
		r.accounts[AccountKey{a.BranchCode, a.Number}] = a
	}
	return nil
}

// FindCustomer looks up a customer by tax ID
func (r *Registry) FindCustomer(taxID string) (*model.Customer, bool) {
	c, ok := r.customers[taxID]
	return c, ok
}

// FindAccount looks up an account by branch and number
func (r *Registry) FindAccount(branchCode string, number int) (*model.Account, bool) {
	a, ok := r.accounts[AccountKey{branchCode, number}]
	return a, ok
}

// NextAccountNumber returns the next unused account number in the branch
func (r *Registry) NextAccountNumber(branchCode string) int {
	next := 1
	for key := range r.accounts {
		if key.BranchCode == branchCode && key.Number >= next {
			next = key.Number + 1
		}
	}
	return next
}

// OpenAccount opens an account for the customer using the next free number in the branch
func (r *Registry) OpenAccount(taxID, branchCode string) (*model.Account, error) {
	return r.OpenAccountNumber(taxID, branchCode, r.NextAccountNumber(branchCode))
}

// OpenAccountNumber opens an account with an explicit number.
// Account numbers are unique across all customers of a branch.
func (r *Registry) OpenAccountNumber(taxID, branchCode string, number int) (*model.Account, error) {
	c, ok := r.customers[taxID]
	if !ok {
		return nil, ErrCustomerNotFound
	}
	key := AccountKey{branchCode, number}
	if _, exists := r.accounts[key]; exists {
		return nil, ErrDuplicateAccount
	}
	a := c.OpenAccount(branchCode, number, r.limits)
	r.accounts[key] = a
	return a, nil
}

// Customers returns all customers in registration order
func (r *Registry) Customers() []*model.Customer {
	out := make([]*model.Customer, 0, len(r.order))
	for _, taxID := range r.order {
		out = append(out, r.customers[taxID])
	}
	return out
}

// Accounts returns every account, grouped by customer in registration order
func (r *Registry) Accounts() []*model.Account {
	out := make([]*model.Account, 0, len(r.accounts))
	for _, c := range r.Customers() {
		out = append(out, c.Accounts()...)
	}
	return out
}

// Snapshot exports the registry for persistence
func (r *Registry) Snapshot() *Snapshot {
	snap := &Snapshot{}
	for _, c := range r.Customers() {
		snap.Customers = append(snap.Customers, CustomerRecord{
			Name:      c.Name,
			TaxID:     c.TaxID,
			BirthDate: c.BirthDate,
			Address:   c.Address,
		})
		for _, a := range c.Accounts() {
			snap.Accounts = append(snap.Accounts, AccountRecord{
				TaxID:        c.TaxID,
				BranchCode:   a.BranchCode,
				Number:       a.Number,
				Balance:      a.Balance(),
				Transactions: a.History.Entries(),
			})
		}
	}
	return snap
}

// Restore replaces the registry contents with the snapshot.
// Records that contradict the registry invariants are skipped and reported.
// Accounts whose number is already taken in the branch keep their balance
// and history under the next free number.
func (r *Registry) Restore(snap *Snapshot) LoadReport {
	r.customers = make(map[string]*model.Customer)
	r.order = nil
	r.accounts = make(map[AccountKey]*model.Account)

	report := LoadReport{Skipped: append([]*CorruptRecordError(nil), snap.Skipped...)}
	for i, rec := range snap.Customers {
		c := model.NewCustomer(rec.Name, rec.TaxID, rec.BirthDate, rec.Address)
		if err := r.AddCustomer(c); err != nil {
			report.Skipped = append(report.Skipped, &CorruptRecordError{
				Source: "customers", Line: i + 1, Reason: fmt.Sprintf("tax ID %s: %v", rec.TaxID, err),
			})
			continue
		}
		report.Customers++
	}

	var colliding []AccountRecord
	for i, rec := range snap.Accounts {
		c, ok := r.customers[rec.TaxID]
		if !ok {
			report.Skipped = append(report.Skipped, &CorruptRecordError{
				Source: "accounts", Line: i + 1, Reason: fmt.Sprintf("account %d references unknown customer %s", rec.Number, rec.TaxID),
			})
			continue
		}
		if rec.Balance.IsNegative() {
			report.Skipped = append(report.Skipped, &CorruptRecordError{
				Source: "accounts", Line: i + 1, Reason: fmt.Sprintf("account %d has a negative balance", rec.Number),
			})
			continue
		}
		if _, exists := r.accounts[AccountKey{rec.BranchCode, rec.Number}]; exists {
			colliding = append(colliding, rec)
			continue
		}
		r.restoreAccount(c, rec, rec.Number)
		report.Accounts++
	}

	// numbers are handed out only after every stored number is claimed
	for _, rec := range colliding {
		number := r.NextAccountNumber(rec.BranchCode)
		r.restoreAccount(r.customers[rec.TaxID], rec, number)
		report.Accounts++
		report.Renumbered = append(report.Renumbered, Renumbering{
			TaxID: rec.TaxID, BranchCode: rec.BranchCode, From: rec.Number, To: number,
		})
	}
	return report
}

func (r *Registry) restoreAccount(c *model.Customer, rec AccountRecord, number int) {
	a := c.RestoreAccount(rec.BranchCode, number, rec.Balance, r.limits)
	a.Restore(rec.Transactions)
	r.accounts[AccountKey{rec.BranchCode, number}] = a
}

// Load replaces the registry contents with the store's state.
// A store that does not exist yet yields an empty registry.
func (r *Registry) Load(ctx context.Context, store Store) (LoadReport, error) {
	snap, err := store.Load(ctx)
	if err != nil {
		return LoadReport{}, fmt.Errorf("failed to load ledger from %s store: %w", store.Driver(), err)
	}
	return r.Restore(snap), nil
}

// Save writes the full registry state to the store
func (r *Registry) Save(ctx context.Context, store Store) error {
	if err := store.Save(ctx, r.Snapshot()); err != nil {
		return fmt.Errorf("failed to save ledger to %s store: %w", store.Driver(), err)
	}
	return nil
}
