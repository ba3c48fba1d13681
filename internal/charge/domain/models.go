// Package domain defines charge events and the rows they are resolved from.
//
// A charge is a debit against a customer. Its amount is resolved once from
// the first available source in a fixed priority order: frozen lines of the
// order's own origin receipt, frozen lines of a consolidated parent-remit
// receipt covering the order, then the order's live item lines. Receipt lines
// never linked to an order (a rider remit covering off-system sales) charge
// as a unit, and manual ledger adjustments carry their stored amount as-is.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/helloword214/zmstore-pos-sub004/internal/money"
)

// SourceKind tags where a charge amount was resolved from.
type SourceKind string

const (
	SourceKindOrder       SourceKind = "order"
	SourceKindParentRemit SourceKind = "parent_remit"
	SourceKindLedgerEntry SourceKind = "ledger_entry"
)

// ReceiptKind distinguishes origin receipts from consolidated remits.
type ReceiptKind string

const (
	ReceiptKindOrigin      ReceiptKind = "origin"
	ReceiptKindParentRemit ReceiptKind = "parent_remit"
)

// Order is a charge-worthy point-of-sale record.
type Order struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	CustomerID snowflake.ID `gorm:"not null;index"`
	Channel    string       `gorm:"type:text;not null"` // walkin | delivery | pickup
	Label      string       `gorm:"type:text;not null"`
	OrderedAt  time.Time    `gorm:"not null;index"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Order) TableName() string { return "orders" }

// OrderItem is a live (mutable) item line on an order.
type OrderItem struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	OrderID   snowflake.ID `gorm:"not null;index"`
	Product   string       `gorm:"type:text;not null"`
	Qty       float64      `gorm:"not null"`
	UnitPrice float64      `gorm:"not null"`
}

// TableName sets the database table name.
func (OrderItem) TableName() string { return "order_items" }

// Receipt is a printed artifact whose lines are frozen at issue time.
type Receipt struct {
	ID         snowflake.ID  `gorm:"primaryKey"`
	CustomerID snowflake.ID  `gorm:"not null;index"`
	Kind       ReceiptKind   `gorm:"type:text;not null"`
	OrderID    *snowflake.ID `gorm:"index"` // set for origin receipts
	Rider      string        `gorm:"type:text"`
	IssuedAt   time.Time     `gorm:"not null"`
}

// TableName sets the database table name.
func (Receipt) TableName() string { return "receipts" }

// ReceiptLine is a frozen line on a receipt. Parent-remit lines reference the
// covered order when one exists; lines with no order are charged per receipt.
type ReceiptLine struct {
	ID        snowflake.ID  `gorm:"primaryKey"`
	ReceiptID snowflake.ID  `gorm:"not null;index"`
	OrderID   *snowflake.ID `gorm:"index"`
	Product   string        `gorm:"type:text;not null"`
	Qty       float64       `gorm:"not null"`
	UnitPrice float64       `gorm:"not null"`
	LineTotal float64       `gorm:"not null"`
}

// TableName sets the database table name.
func (ReceiptLine) TableName() string { return "receipt_lines" }

// DiscountRule overrides a product's unit price within an effective window.
// A rule applies when valid_from <= t and (valid_until is null or t < valid_until).
type DiscountRule struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	Product    string       `gorm:"type:text;not null;index"`
	UnitPrice  float64      `gorm:"not null"`
	ValidFrom  time.Time    `gorm:"not null"`
	ValidUntil *time.Time   `gorm:""`
}

// TableName sets the database table name.
func (DiscountRule) TableName() string { return "discount_rules" }

// LedgerAdjustment is a manual charge entry (credit-clearance decision,
// opening balance carried in from a legacy book). Its amount is frozen as
// stored and never recomputed.
type LedgerAdjustment struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	CustomerID snowflake.ID `gorm:"not null;index"`
	Amount     float64      `gorm:"not null"`
	Label      string       `gorm:"type:text;not null"`
	EnteredAt  time.Time    `gorm:"not null"`
}

// TableName sets the database table name.
func (LedgerAdjustment) TableName() string { return "ledger_adjustments" }

// PriceAdjustment records a before/after unit price when a discount rule in
// effect at the charge instant changed the price during a historical
// recomputation. It preserves the audit trail on statements.
type PriceAdjustment struct {
	Product          string       `json:"product"`
	ListUnitPrice    money.Amount `json:"list_unit_price"`
	ChargedUnitPrice money.Amount `json:"charged_unit_price"`
	RuleID           snowflake.ID `json:"rule_id"`
}

// Charge is a resolved debit event. Amount is deterministic for a given set
// of underlying rows; a charge with no resolvable line source carries a zero
// amount but stays visible downstream.
type Charge struct {
	ID          snowflake.ID
	CustomerID  snowflake.ID
	OccurredAt  time.Time
	SourceKind  SourceKind
	Amount      money.Amount
	Label       string
	ReferenceID snowflake.ID
	Adjustments []PriceAdjustment
}

// Resolver produces the canonical charges for a customer. When
// historicalPricing is set, orders resolved from live item lines are
// recomputed under the discount rules valid at their dating instant.
type Resolver interface {
	ListCharges(ctx context.Context, customerID snowflake.ID, historicalPricing bool) ([]Charge, error)
}
