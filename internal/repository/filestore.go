package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"branch-ledger/internal/model"
)

const (
	fullRecordFields   = 7
	legacyRecordFields = 6
)

// FileStore keeps the ledger in a semicolon-delimited CSV file.
//
// Each row is name;tax_id;birth_date;address;branch_code;account_number;balance.
// Customers without accounts leave the last three fields empty. Rows in the
// older branch_code;account_number;tax_id;name;birth_date;address layout are
// accepted on load with a zero balance. Rows may repeat an account number
// already in use; they are returned as they are. Transaction history is not kept.
type FileStore struct {
	path string
}

// NewFileStore creates a file store backed by path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Driver returns the store driver name
func (s *FileStore) Driver() string {
	return "file"
}

// Path returns the data file location
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the data file. A missing file yields an empty snapshot.
func (s *FileStore) Load(ctx context.Context) (*Snapshot, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", s.path, err)
	}
	defer f.Close()

	return s.read(ctx, f)
}

func (s *FileStore) read(ctx context.Context, r io.Reader) (*Snapshot, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	snap := &Snapshot{}
	customers := make(map[string]struct{})
	accounts := make(map[AccountKey]string)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				snap.Skipped = append(snap.Skipped, s.corrupt(parseErr.Line, parseErr.Err.Error()))
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
		}
		line, _ := reader.FieldPos(0)
		if len(fields) == 1 && strings.TrimSpace(fields[0]) == "" {
			continue
		}

		var (
			cust   CustomerRecord
			acct   *AccountRecord
			rowErr string
			legacy bool
		)
		switch len(fields) {
		case fullRecordFields:
			cust, acct, rowErr = parseFullRow(fields)
		case legacyRecordFields:
			cust, acct, rowErr = parseLegacyRow(fields)
			legacy = true
		default:
			rowErr = fmt.Sprintf("expected %d fields, got %d", fullRecordFields, len(fields))
		}
		if rowErr != "" {
			snap.Skipped = append(snap.Skipped, s.corrupt(line, rowErr))
			continue
		}

		if acct != nil {
			key := AccountKey{acct.BranchCode, acct.Number}
			owner, exists := accounts[key]
			// the append-only legacy writer repeated rows for the same account;
			// any other collision is a distinct account and is renumbered on restore
			if exists && legacy && owner == acct.TaxID {
				continue
			}
			if !exists {
				accounts[key] = acct.TaxID
			}
		}
		if _, seen := customers[cust.TaxID]; !seen {
			customers[cust.TaxID] = struct{}{}
			snap.Customers = append(snap.Customers, cust)
		}
		if acct != nil {
			snap.Accounts = append(snap.Accounts, *acct)
		}
	}
	return snap, nil
}

func (s *FileStore) corrupt(line int, reason string) *CorruptRecordError {
	return &CorruptRecordError{Source: s.path, Line: line, Reason: reason}
}

func parseFullRow(fields []string) (CustomerRecord, *AccountRecord, string) {
	cust := CustomerRecord{
		Name:      strings.TrimSpace(fields[0]),
		TaxID:     strings.TrimSpace(fields[1]),
		BirthDate: strings.TrimSpace(fields[2]),
		Address:   strings.TrimSpace(fields[3]),
	}
	if !model.IsValidTaxID(cust.TaxID) {
		return cust, nil, fmt.Sprintf("invalid tax ID %q", cust.TaxID)
	}

	branch := strings.TrimSpace(fields[4])
	number := strings.TrimSpace(fields[5])
	balance := strings.TrimSpace(fields[6])
	if branch == "" && number == "" && balance == "" {
		return cust, nil, ""
	}

	acct, reason := parseAccount(cust.TaxID, branch, number, balance)
	return cust, acct, reason
}

func parseLegacyRow(fields []string) (CustomerRecord, *AccountRecord, string) {
	cust := CustomerRecord{
		TaxID:     strings.TrimSpace(fields[2]),
		Name:      strings.TrimSpace(fields[3]),
		BirthDate: strings.TrimSpace(fields[4]),
		Address:   strings.TrimSpace(fields[5]),
	}
	if !model.IsValidTaxID(cust.TaxID) {
		return cust, nil, fmt.Sprintf("invalid tax ID %q", cust.TaxID)
	}
	acct, reason := parseAccount(cust.TaxID, strings.TrimSpace(fields[0]), strings.TrimSpace(fields[1]), "0")
	return cust, acct, reason
}

func parseAccount(taxID, branch, number, balance string) (*AccountRecord, string) {
	if branch == "" {
		return nil, "missing branch code"
	}
	n, err := strconv.Atoi(number)
	if err != nil || n <= 0 {
		return nil, fmt.Sprintf("invalid account number %q", number)
	}
	b, err := decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Sprintf("invalid balance %q", balance)
	}
	if b.IsNegative() {
		return nil, fmt.Sprintf("negative balance %s", balance)
	}
	return &AccountRecord{TaxID: taxID, BranchCode: branch, Number: n, Balance: b}, ""
}

// Save rewrites the data file with the snapshot. The file is written to a
// temporary sibling, flushed to disk and renamed into place.
func (s *FileStore) Save(ctx context.Context, snap *Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create data directory %s: %w", dir, err)
		}
	}

	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}
	if err := s.write(f, snap); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to sync %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) write(w io.Writer, snap *Snapshot) error {
	writer := csv.NewWriter(w)
	writer.Comma = ';'

	byOwner := make(map[string][]AccountRecord)
	for _, a := range snap.Accounts {
		byOwner[a.TaxID] = append(byOwner[a.TaxID], a)
	}

	for _, c := range snap.Customers {
		owned := byOwner[c.TaxID]
		if len(owned) == 0 {
			if err := writer.Write([]string{c.Name, c.TaxID, c.BirthDate, c.Address, "", "", ""}); err != nil {
				return fmt.Errorf("failed to write customer %s: %w", c.TaxID, err)
			}
			continue
		}
		for _, a := range owned {
			row := []string{
				c.Name, c.TaxID, c.BirthDate, c.Address,
				a.BranchCode, strconv.Itoa(a.Number), formatBalance(a.Balance),
			}
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("failed to write account %d: %w", a.Number, err)
			}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	return nil
}

func formatBalance(b decimal.Decimal) string {
	if b.Equal(b.Round(2)) {
		return b.StringFixed(2)
	}
	return b.String()
}
