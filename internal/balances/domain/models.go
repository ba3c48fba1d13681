// Package domain defines the cross-customer open-balance summary used by
// dashboard and list views.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/helloword214/zmstore-pos-sub004/internal/money"
)

// CustomerBalanceSummary is one row of the open-balances list. The earliest
// unpaid due date is derived by applying settlements to charges oldest-first;
// it is nil for customers whose balance comes only from zero-dated data.
type CustomerBalanceSummary struct {
	CustomerID         snowflake.ID `json:"customer_id"`
	Name               string       `json:"name"`
	Alias              string       `json:"alias,omitempty"`
	Phone              string       `json:"phone,omitempty"`
	OpenChargeCount    int          `json:"open_charge_count"`
	EarliestUnpaidDue  *time.Time   `json:"earliest_unpaid_due,omitempty"`
	TotalOpenBalance   money.Amount `json:"total_open_balance"`
}

// ListFilter narrows the customer set by a name/alias/phone substring.
type ListFilter struct {
	Query string
	Limit int
}

// Service aggregates current open balances across customers.
type Service interface {
	// ListOpenBalances computes every matching customer's all-time balance,
	// drops those at or below zero, and sorts by balance descending then
	// earliest unpaid due date ascending with nulls last.
	ListOpenBalances(ctx context.Context, filter ListFilter) ([]CustomerBalanceSummary, error)
}
