package model

import (
	"iter"
	"slices"
	"time"
)

// History is the append-only log of committed transactions of one account.
// Insertion order is chronological order.
type History struct {
	entries []Transaction
}

// Record appends a transaction. Callers only record transactions that were applied.
func (h *History) Record(t Transaction) {
	h.entries = append(h.entries, t)
}

// Len returns the number of recorded transactions
func (h *History) Len() int {
	return len(h.entries)
}

// Entries returns a copy of all recorded transactions
func (h *History) Entries() []Transaction {
	return slices.Clone(h.entries)
}

// All iterates over a snapshot of the history taken at call time
func (h *History) All() iter.Seq[Transaction] {
	return slices.Values(slices.Clone(h.entries))
}

// TransactionsOn returns the transactions recorded on the calendar day of day
func (h *History) TransactionsOn(day time.Time) []Transaction {
	var out []Transaction
	for _, t := range h.entries {
		if sameDay(t.Timestamp, day) {
			out = append(out, t)
		}
	}
	return out
}

// TransactionsToday returns the transactions recorded on the current date
func (h *History) TransactionsToday() []Transaction {
	return h.TransactionsOn(time.Now())
}

// sameDay compares calendar days in the local zone, whatever zone a and b carry
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.In(time.Local).Date()
	by, bm, bd := b.In(time.Local).Date()
	return ay == by && am == bm && ad == bd
}
