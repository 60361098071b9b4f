// Package cli implements the interactive teller menu.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"branch-ledger/internal/model"
	"branch-ledger/internal/service"
)

const separator = "=========================================="

// Menu reads commands from in and writes prompts and results to out
type Menu struct {
	in           *bufio.Scanner
	out          io.Writer
	customers    *service.CustomerService
	transactions *service.TransactionService
}

// NewMenu creates a menu bound to the services
func NewMenu(in io.Reader, out io.Writer, customers *service.CustomerService, transactions *service.TransactionService) *Menu {
	return &Menu{
		in:           bufio.NewScanner(in),
		out:          out,
		customers:    customers,
		transactions: transactions,
	}
}

// Run loops until the user quits, the input ends or ctx is cancelled.
// Operation failures are printed and the loop continues.
func (m *Menu) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.printMenu()
		option, ok := m.prompt("Choose an option: ")
		if !ok {
			return m.in.Err()
		}

		switch strings.ToLower(option) {
		case "d":
			m.transact(ctx, "deposit", m.transactions.Deposit)
		case "s":
			m.transact(ctx, "withdrawal", m.transactions.Withdraw)
		case "e":
			m.statement(ctx)
		case "nu":
			m.newCustomer(ctx)
		case "nc":
			m.newAccount(ctx)
		case "lc":
			m.listAccounts(ctx)
		case "q":
			return nil
		default:
			m.fail("Invalid option")
		}
	}
}

func (m *Menu) printMenu() {
	fmt.Fprintln(m.out)
	fmt.Fprintln(m.out, "===== MENU =====")
	fmt.Fprintln(m.out, "d  - Deposit")
	fmt.Fprintln(m.out, "s  - Withdraw")
	fmt.Fprintln(m.out, "e  - Statement")
	fmt.Fprintln(m.out, "nu - New customer")
	fmt.Fprintln(m.out, "nc - New account for existing customer")
	fmt.Fprintln(m.out, "lc - List accounts")
	fmt.Fprintln(m.out, "q  - Quit")
}

func (m *Menu) prompt(label string) (string, bool) {
	fmt.Fprint(m.out, label)
	if !m.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(m.in.Text()), true
}

func (m *Menu) success(msg string) {
	fmt.Fprintf(m.out, "\n=== %s ===\n", msg)
}

func (m *Menu) fail(msg string) {
	fmt.Fprintf(m.out, "\n@@@ %s @@@\n", msg)
}

func (m *Menu) failErr(err error) {
	var serviceErr *service.ServiceError
	if errors.As(err, &serviceErr) {
		m.fail("Operation failed: " + serviceErr.Message)
		return
	}
	m.fail("Operation failed: " + err.Error())
}

func (m *Menu) accountNumber() (int, bool) {
	input, ok := m.prompt("Account number: ")
	if !ok {
		return 0, false
	}
	number, err := strconv.Atoi(input)
	if err != nil || number <= 0 {
		m.fail("Account not found")
		return 0, false
	}
	return number, true
}

type transactFunc func(ctx context.Context, number int, req *model.TransactionRequest) (*model.TransactionResponse, error)

func (m *Menu) transact(ctx context.Context, label string, fn transactFunc) {
	number, ok := m.accountNumber()
	if !ok {
		return
	}
	if _, err := m.customers.GetAccount(ctx, number); err != nil {
		m.failErr(err)
		return
	}

	input, ok := m.prompt(fmt.Sprintf("Enter the %s amount: ", label))
	if !ok {
		return
	}
	amount, err := model.ParseAmount(input)
	if err != nil {
		m.fail("Invalid amount: " + err.Error())
		return
	}

	resp, err := fn(ctx, number, &model.TransactionRequest{Amount: amount})
	if err != nil {
		m.failErr(err)
		return
	}
	m.success(fmt.Sprintf("%s completed, balance $ %s", capitalize(label), resp.Account.Balance.StringFixed(2)))
}

func (m *Menu) statement(ctx context.Context) {
	number, ok := m.accountNumber()
	if !ok {
		return
	}
	st, err := m.transactions.Statement(ctx, number)
	if err != nil {
		m.failErr(err)
		return
	}

	fmt.Fprintln(m.out)
	fmt.Fprintln(m.out, "================ STATEMENT ================")
	if len(st.Transactions) == 0 {
		fmt.Fprintln(m.out, "No transactions recorded.")
	}
	for _, t := range st.Transactions {
		fmt.Fprintln(m.out, t.String())
	}
	fmt.Fprintf(m.out, "\n  %-10s $ %10s\n", "Balance:", st.Balance.StringFixed(2))
	fmt.Fprintln(m.out, separator)
}

func (m *Menu) newCustomer(ctx context.Context) {
	var req model.CreateCustomerRequest
	var ok bool

	if req.TaxID, ok = m.prompt("Tax ID (digits only): "); !ok {
		return
	}
	if !model.IsValidTaxID(req.TaxID) {
		m.fail("Error: tax ID must contain exactly 11 digits")
		return
	}
	if _, err := m.customers.GetCustomer(ctx, req.TaxID); err == nil {
		m.fail("Error: tax ID already registered")
		return
	}

	if req.BirthDate, ok = m.prompt("Birth date (dd-mm-yyyy): "); !ok {
		return
	}
	if !model.IsValidBirthDate(req.BirthDate) {
		m.fail("Error: birth date must use the dd-mm-yyyy format")
		return
	}
	if req.Name, ok = m.prompt("Full name: "); !ok {
		return
	}
	if req.Address, ok = m.prompt("Address (street, number - district - city/state): "); !ok {
		return
	}

	resp, err := m.customers.CreateCustomer(ctx, &req, true)
	if err != nil {
		m.failErr(err)
		return
	}
	m.success("Customer created")
	for _, a := range resp.Accounts {
		m.success(fmt.Sprintf("Account %s/%d created", a.BranchCode, a.Number))
	}
}

func (m *Menu) newAccount(ctx context.Context) {
	taxID, ok := m.prompt("Customer tax ID: ")
	if !ok {
		return
	}
	resp, err := m.customers.OpenAccount(ctx, taxID)
	if err != nil {
		m.failErr(err)
		return
	}
	m.success(fmt.Sprintf("Account %s/%d created", resp.BranchCode, resp.Number))
}

func (m *Menu) listAccounts(ctx context.Context) {
	accounts := m.customers.ListAccounts(ctx)
	if len(accounts) == 0 {
		m.fail("No accounts found")
		return
	}
	fmt.Fprintln(m.out, separator)
	fmt.Fprintln(m.out, "ACCOUNTS:")
	for _, a := range accounts {
		fmt.Fprintf(m.out, "Branch: %s\tAccount: %d\tHolder: %s\n", a.BranchCode, a.Number, a.HolderName)
		fmt.Fprintln(m.out, strings.Repeat("-", len(separator)))
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
