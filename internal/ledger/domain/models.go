// Package domain defines the customer-ledger projection: normalized
// transaction rows, the period result, and the balance fold that produces
// them. Results are computed per request and never persisted; the ledger is a
// read-only reconciliation layer over charges and payments owned elsewhere.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"

	chargedomain "github.com/helloword214/zmstore-pos-sub004/internal/charge/domain"
	"github.com/helloword214/zmstore-pos-sub004/internal/money"
)

// EntryKind tags a ledger row as a debit or a credit event.
type EntryKind string

const (
	EntryKindCharge     EntryKind = "charge"
	EntryKindSettlement EntryKind = "settlement"
)

// Entry is one normalized transaction row. Credit holds the applied amount;
// any settlement excess over the due balance lands in UnappliedCredit rather
// than driving the running balance negative.
type Entry struct {
	Kind             EntryKind                      `json:"kind"`
	OccurredAt       time.Time                      `json:"occurred_at"`
	Label            string                         `json:"label"`
	ReferenceID      snowflake.ID                   `json:"reference_id"`
	Debit            money.Amount                   `json:"debit"`
	Credit           money.Amount                   `json:"credit"`
	UnappliedCredit  money.Amount                   `json:"unapplied_credit,omitempty"`
	RunningBalance   money.Amount                   `json:"running_balance"`
	PriceAdjustments []chargedomain.PriceAdjustment `json:"price_adjustments,omitempty"`
}

// PeriodResult is the computed statement for one customer and period.
type PeriodResult struct {
	CustomerID       snowflake.ID `json:"customer_id"`
	CustomerName     string       `json:"customer_name"`
	PeriodStart      time.Time    `json:"period_start"`
	PeriodEnd        time.Time    `json:"period_end"`
	OpeningBalance   money.Amount `json:"opening_balance"`
	Entries          []Entry      `json:"entries"`
	TotalDebits      money.Amount `json:"total_debits"`
	TotalCredits     money.Amount `json:"total_credits"`
	UnappliedCredits money.Amount `json:"unapplied_credits,omitempty"`
	ClosingBalance   money.Amount `json:"closing_balance"`
}

// Service computes customer ledgers.
type Service interface {
	// ComputeLedger builds the statement for [periodStart, periodEnd], both
	// local-midnight instants with periodEnd inclusive of its entire day.
	ComputeLedger(ctx context.Context, customerID snowflake.ID, periodStart, periodEnd time.Time, historicalPricing bool) (*PeriodResult, error)

	// ComputeCurrentBalance folds the customer's full history and returns
	// only the final balance.
	ComputeCurrentBalance(ctx context.Context, customerID snowflake.ID) (money.Amount, error)
}

var (
	ErrInvalidRange     = errors.New("invalid_range")
	ErrCustomerNotFound = errors.New("customer_not_found")
)
