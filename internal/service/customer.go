package service

import (
	"context"

	"go.uber.org/zap"

	"branch-ledger/internal/audit"
	"branch-ledger/internal/model"
	"branch-ledger/internal/repository"
)

// CustomerService handles customer and account business logic
type CustomerService struct {
	ledger *Ledger
	logger *zap.Logger
}

// NewCustomerService creates a new customer service
func NewCustomerService(ledger *Ledger) *CustomerService {
	return &CustomerService{
		ledger: ledger,
		logger: ledger.logger.With(zap.String("component", "CustomerService")),
	}
}

// CreateCustomer registers a customer. When openAccount is set the customer's
// first account is opened in the same step.
func (s *CustomerService) CreateCustomer(ctx context.Context, req *model.CreateCustomerRequest, openAccount bool) (*model.CustomerResponse, error) {
	event := audit.NewEvent(audit.OpCreateCustomer)
	event.TaxID = req.TaxID

	resp, err := s.createCustomer(ctx, req, openAccount)
	if resp != nil {
		event.TaxID = resp.TaxID
		if len(resp.Accounts) > 0 {
			event.BranchCode = resp.Accounts[0].BranchCode
			event.AccountNumber = resp.Accounts[0].Number
		}
	}
	s.ledger.record(ctx, event.WithError(err))
	return resp, err
}

func (s *CustomerService) createCustomer(ctx context.Context, req *model.CreateCustomerRequest, openAccount bool) (*model.CustomerResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, wrapError(err)
	}

	s.ledger.mu.Lock()
	defer s.ledger.mu.Unlock()

	before := s.ledger.registry.Snapshot()
	customer := model.NewCustomer(req.Name, req.TaxID, req.BirthDate, req.Address)
	if err := s.ledger.registry.AddCustomer(customer); err != nil {
		return nil, wrapError(err)
	}
	if openAccount {
		if _, err := s.ledger.registry.OpenAccount(customer.TaxID, s.ledger.branchCode); err != nil {
			s.ledger.registry.Restore(before)
			return nil, wrapError(err)
		}
	}
	if err := s.ledger.commit(ctx, before); err != nil {
		return nil, err
	}

	s.logger.Info("Customer created",
		zap.String("tax_id", customer.TaxID),
		zap.Int("accounts", len(customer.Accounts())),
	)
	resp := model.NewCustomerResponse(customer)
	return &resp, nil
}

// GetCustomer retrieves a customer and its accounts by tax ID
func (s *CustomerService) GetCustomer(ctx context.Context, taxID string) (*model.CustomerResponse, error) {
	if !model.IsValidTaxID(taxID) {
		return nil, wrapError(&model.ValidationError{Field: "tax_id", Message: "tax ID must contain exactly 11 digits"})
	}

	s.ledger.mu.Lock()
	defer s.ledger.mu.Unlock()

	customer, ok := s.ledger.registry.FindCustomer(taxID)
	if !ok {
		return nil, wrapError(repository.ErrCustomerNotFound)
	}
	resp := model.NewCustomerResponse(customer)
	return &resp, nil
}

// OpenAccount opens a new account for an existing customer, numbered after
// the highest account number in the branch
func (s *CustomerService) OpenAccount(ctx context.Context, taxID string) (*model.AccountResponse, error) {
	event := audit.NewEvent(audit.OpOpenAccount)
	event.TaxID = taxID
	event.BranchCode = s.ledger.branchCode

	resp, err := s.openAccount(ctx, taxID)
	if resp != nil {
		event.AccountNumber = resp.Number
	}
	s.ledger.record(ctx, event.WithError(err))
	return resp, err
}

func (s *CustomerService) openAccount(ctx context.Context, taxID string) (*model.AccountResponse, error) {
	s.ledger.mu.Lock()
	defer s.ledger.mu.Unlock()

	before := s.ledger.registry.Snapshot()
	account, err := s.ledger.registry.OpenAccount(taxID, s.ledger.branchCode)
	if err != nil {
		return nil, wrapError(err)
	}
	if err := s.ledger.commit(ctx, before); err != nil {
		return nil, err
	}

	s.logger.Info("Account opened",
		zap.String("tax_id", taxID),
		zap.String("branch_code", account.BranchCode),
		zap.Int("account_number", account.Number),
	)
	resp := model.NewAccountResponse(account)
	return &resp, nil
}

// ListAccounts returns every account, grouped by customer in registration order
func (s *CustomerService) ListAccounts(ctx context.Context) []model.AccountResponse {
	s.ledger.mu.Lock()
	accounts := s.ledger.registry.Accounts()
	resp := make([]model.AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		resp = append(resp, model.NewAccountResponse(a))
	}
	s.ledger.mu.Unlock()

	s.ledger.record(ctx, audit.NewEvent(audit.OpListAccounts))
	return resp
}

// GetAccount retrieves an account of this branch by number
func (s *CustomerService) GetAccount(ctx context.Context, number int) (*model.AccountResponse, error) {
	s.ledger.mu.Lock()
	defer s.ledger.mu.Unlock()

	account, err := s.ledger.findAccount(number)
	if err != nil {
		return nil, wrapError(err)
	}
	resp := model.NewAccountResponse(account)
	return &resp, nil
}
