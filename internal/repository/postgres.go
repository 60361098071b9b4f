package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"branch-ledger/internal/model"
)

// PostgresStore keeps the ledger, including transaction history, in PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres-backed store
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Driver returns the store driver name
func (s *PostgresStore) Driver() string {
	return "postgres"
}

// Ping checks database connectivity
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Load reads customers, accounts and their transactions
func (s *PostgresStore) Load(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}
	customers := make(map[string]struct{})
	accounts := make(map[AccountKey]int)

	if err := s.loadCustomers(ctx, snap, customers); err != nil {
		return nil, err
	}
	if err := s.loadAccounts(ctx, snap, customers, accounts); err != nil {
		return nil, err
	}
	if err := s.loadTransactions(ctx, snap, accounts); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *PostgresStore) loadCustomers(ctx context.Context, snap *Snapshot, seen map[string]struct{}) error {
	query := `
		SELECT tax_id, name, birth_date, address
		FROM customers
		ORDER BY position
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	line := 0
	for rows.Next() {
		line++
		var c CustomerRecord
		if err := rows.Scan(&c.TaxID, &c.Name, &c.BirthDate, &c.Address); err != nil {
			return fmt.Errorf("failed to scan customer: %w", err)
		}
		if !model.IsValidTaxID(c.TaxID) {
			snap.Skipped = append(snap.Skipped, &CorruptRecordError{
				Source: "customers", Line: line, Reason: fmt.Sprintf("invalid tax ID %q", c.TaxID),
			})
			continue
		}
		seen[c.TaxID] = struct{}{}
		snap.Customers = append(snap.Customers, c)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate customers: %w", err)
	}
	return nil
}

func (s *PostgresStore) loadAccounts(ctx context.Context, snap *Snapshot, customers map[string]struct{}, index map[AccountKey]int) error {
	query := `
		SELECT tax_id, branch_code, number, balance
		FROM accounts
		ORDER BY position
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	line := 0
	for rows.Next() {
		line++
		var a AccountRecord
		if err := rows.Scan(&a.TaxID, &a.BranchCode, &a.Number, &a.Balance); err != nil {
			return fmt.Errorf("failed to scan account: %w", err)
		}
		reason := ""
		switch {
		case !hasKey(customers, a.TaxID):
			reason = fmt.Sprintf("account %d references unknown customer %s", a.Number, a.TaxID)
		case a.Balance.IsNegative():
			reason = fmt.Sprintf("account %d has a negative balance", a.Number)
		}
		if reason != "" {
			snap.Skipped = append(snap.Skipped, &CorruptRecordError{Source: "accounts", Line: line, Reason: reason})
			continue
		}
		index[AccountKey{a.BranchCode, a.Number}] = len(snap.Accounts)
		snap.Accounts = append(snap.Accounts, a)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate accounts: %w", err)
	}
	return nil
}

func (s *PostgresStore) loadTransactions(ctx context.Context, snap *Snapshot, accounts map[AccountKey]int) error {
	query := `
		SELECT id, branch_code, account_number, kind, amount, created_at
		FROM transactions
		ORDER BY branch_code, account_number, seq
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	line := 0
	for rows.Next() {
		line++
		var (
			id        uuid.UUID
			key       AccountKey
			kind      string
			amount    decimal.Decimal
			createdAt time.Time
		)
		if err := rows.Scan(&id, &key.BranchCode, &key.Number, &kind, &amount, &createdAt); err != nil {
			return fmt.Errorf("failed to scan transaction: %w", err)
		}
		i, ok := accounts[key]
		if !ok {
			snap.Skipped = append(snap.Skipped, &CorruptRecordError{
				Source: "transactions", Line: line, Reason: fmt.Sprintf("transaction %s references unknown account %s/%d", id, key.BranchCode, key.Number),
			})
			continue
		}
		k, err := model.ParseTransactionKind(kind)
		if err != nil {
			snap.Skipped = append(snap.Skipped, &CorruptRecordError{Source: "transactions", Line: line, Reason: err.Error()})
			continue
		}
		t := model.NewTransactionAt(k, amount, createdAt.Local())
		t.ID = id
		snap.Accounts[i].Transactions = append(snap.Accounts[i].Transactions, t)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return nil
}

// Save replaces the stored ledger with the snapshot in one serializable transaction
func (s *PostgresStore) Save(ctx context.Context, snap *Snapshot) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"transactions", "accounts", "customers"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for i, c := range snap.Customers {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO customers (tax_id, name, birth_date, address, position) VALUES ($1, $2, $3, $4, $5)`,
			c.TaxID, c.Name, c.BirthDate, c.Address, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert customer %s: %w", c.TaxID, err)
		}
	}

	for i, a := range snap.Accounts {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO accounts (tax_id, branch_code, number, balance, position) VALUES ($1, $2, $3, $4, $5)`,
			a.TaxID, a.BranchCode, a.Number, a.Balance, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert account %d: %w", a.Number, err)
		}
		for seq, t := range a.Transactions {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO transactions (id, branch_code, account_number, kind, amount, created_at, seq) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				t.ID, a.BranchCode, a.Number, string(t.Kind), t.Amount, t.Timestamp, seq,
			)
			if err != nil {
				return fmt.Errorf("failed to insert transaction %s: %w", t.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ledger: %w", err)
	}
	return nil
}

func hasKey(m map[string]struct{}, k string) bool {
	_, ok := m[k]
	return ok
}
