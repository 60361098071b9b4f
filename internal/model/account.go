package model

import (
	"iter"
	"time"

	"github.com/shopspring/decimal"
)

// Default account limits
const (
	DefaultWithdrawalsPerDay  = 3
	DefaultTransactionsPerDay = 10
)

// DefaultMaxWithdrawal is the default per-withdrawal ceiling
var DefaultMaxWithdrawal = decimal.NewFromInt(500)

// Limits holds the daily and per-transaction limits of an account
type Limits struct {
	WithdrawalsPerDay  int
	MaxWithdrawal      decimal.Decimal
	TransactionsPerDay int
}

// DefaultLimits returns the limits of a standard checking account
func DefaultLimits() Limits {
	return Limits{
		WithdrawalsPerDay:  DefaultWithdrawalsPerDay,
		MaxWithdrawal:      DefaultMaxWithdrawal,
		TransactionsPerDay: DefaultTransactionsPerDay,
	}
}

// Account represents a checking account held by one customer
type Account struct {
	BranchCode string
	Number     int
	Owner      *Customer
	Limits     Limits
	History    *History

	balance       decimal.Decimal
	withdrawals   int
	withdrawalDay time.Time
}

// Statement is a read-only view of an account's transactions and balance
type Statement struct {
	Transactions iter.Seq[Transaction]
	Balance      decimal.Decimal
}

func newAccount(branchCode string, number int, owner *Customer, balance decimal.Decimal, limits Limits) *Account {
	return &Account{
		BranchCode: branchCode,
		Number:     number,
		Owner:      owner,
		Limits:     limits,
		History:    &History{},
		balance:    balance,
	}
}

// Balance returns the current balance
func (a *Account) Balance() decimal.Decimal {
	return a.balance
}

// Deposit adds amount to the balance. History is not touched.
func (a *Account) Deposit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	a.balance = a.balance.Add(amount)
	return nil
}

// Withdraw removes amount from the balance, counting it against today's withdrawals.
// History is not touched.
func (a *Account) Withdraw(amount decimal.Decimal) error {
	return a.withdrawAt(amount, time.Now())
}

// withdrawAt checks, in order: positive amount, per-withdrawal ceiling,
// available funds, daily withdrawal count.
func (a *Account) withdrawAt(amount decimal.Decimal, at time.Time) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if amount.GreaterThan(a.Limits.MaxWithdrawal) {
		return ErrExceedsDailyLimit
	}
	if amount.GreaterThan(a.balance) {
		return ErrInsufficientFunds
	}
	if a.withdrawalsOn(at) >= a.Limits.WithdrawalsPerDay {
		return ErrWithdrawalCountExceeded
	}

	a.balance = a.balance.Sub(amount)
	if !sameDay(a.withdrawalDay, at) {
		a.withdrawalDay = at
		a.withdrawals = 0
	}
	a.withdrawals++
	return nil
}

func (a *Account) withdrawalsOn(day time.Time) int {
	if a.withdrawalDay.IsZero() || !sameDay(a.withdrawalDay, day) {
		return 0
	}
	return a.withdrawals
}

// DailyWithdrawalCount returns the number of withdrawals made today
func (a *Account) DailyWithdrawalCount() int {
	return a.withdrawalsOn(time.Now())
}

// Statement returns the recorded transactions in chronological order and the current balance.
// The sequence can be iterated any number of times.
func (a *Account) Statement() Statement {
	return Statement{
		Transactions: a.History.All(),
		Balance:      a.balance,
	}
}

// Restore replaces the history with persisted entries and seeds today's
// withdrawal counter from them.
func (a *Account) Restore(entries []Transaction) {
	a.History = &History{}
	a.withdrawals = 0
	a.withdrawalDay = time.Time{}

	now := time.Now()
	for _, t := range entries {
		a.History.Record(t)
		if t.Kind == KindWithdrawal && sameDay(t.Timestamp, now) {
			a.withdrawalDay = t.Timestamp
			a.withdrawals++
		}
	}
}
