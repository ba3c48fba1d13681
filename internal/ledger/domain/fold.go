package domain

import (
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"

	chargedomain "github.com/helloword214/zmstore-pos-sub004/internal/charge/domain"
	"github.com/helloword214/zmstore-pos-sub004/internal/money"
)

// Transaction is the tagged union fed into the balance fold. Amount is the
// charge amount for charges and the raw recorded amount for settlements.
type Transaction struct {
	Kind             EntryKind
	ID               snowflake.ID
	OccurredAt       time.Time
	Label            string
	ReferenceID      snowflake.ID
	Amount           money.Amount
	PriceAdjustments []chargedomain.PriceAdjustment
}

// FoldResult carries the outcome of a balance fold.
type FoldResult struct {
	Entries          []Entry
	TotalDebits      money.Amount
	TotalCredits     money.Amount
	UnappliedCredits money.Amount
	ClosingBalance   money.Amount
}

// SortTransactions orders transactions chronologically. Transactions sharing
// an instant keep a fixed order: charges before settlements, then ascending
// id, so repeated folds over the same rows are byte-identical.
func SortTransactions(txns []Transaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		a, b := txns[i], txns[j]
		if !a.OccurredAt.Equal(b.OccurredAt) {
			return a.OccurredAt.Before(b.OccurredAt)
		}
		if a.Kind != b.Kind {
			return a.Kind == EntryKindCharge
		}
		return a.ID < b.ID
	})
}

// Fold runs the running-balance fold over already-sorted transactions.
//
// Charges add their full amount. Settlements apply at most the balance
// currently due: the applied credit is capped so the running balance never
// goes negative, and the excess is reported as unapplied credit instead of
// disappearing from the statement.
func Fold(opening money.Amount, txns []Transaction) FoldResult {
	result := FoldResult{
		Entries:        make([]Entry, 0, len(txns)),
		ClosingBalance: opening,
	}

	run := opening
	for _, txn := range txns {
		entry := Entry{
			Kind:             txn.Kind,
			OccurredAt:       txn.OccurredAt,
			Label:            txn.Label,
			ReferenceID:      txn.ReferenceID,
			PriceAdjustments: txn.PriceAdjustments,
		}

		switch txn.Kind {
		case EntryKindCharge:
			run = run.Add(txn.Amount)
			entry.Debit = txn.Amount
			result.TotalDebits = result.TotalDebits.Add(txn.Amount)
		case EntryKindSettlement:
			dueNow := money.NonNegative(run)
			applied := money.Min(txn.Amount, dueNow)
			run = run.Sub(applied)
			entry.Credit = applied
			entry.UnappliedCredit = txn.Amount.Sub(applied)
			result.TotalCredits = result.TotalCredits.Add(applied)
			result.UnappliedCredits = result.UnappliedCredits.Add(entry.UnappliedCredit)
		}

		entry.RunningBalance = run
		result.Entries = append(result.Entries, entry)
	}

	result.ClosingBalance = run
	return result
}
