// Package domain defines payment rows and the settlement classifier.
package domain

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Method is the recorded payment method.
type Method string

const (
	MethodCash           Method = "cash"
	MethodInternalCredit Method = "internal_credit"
	MethodOther          Method = "other"
)

// Payment is a recorded payment row. Whether it settles customer balance is
// decided by Qualifies, not by the row itself.
type Payment struct {
	ID            snowflake.ID `gorm:"primaryKey"`
	CustomerID    snowflake.ID `gorm:"not null;index"`
	Method        Method       `gorm:"type:text;not null"`
	ReferenceCode *string      `gorm:"type:text"`
	Amount        float64      `gorm:"not null"`
	Note          string       `gorm:"type:text"`
	ReceivedAt    time.Time    `gorm:"not null;index"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }

// Qualifies reports whether the payment reduces customer balance. Cash always
// settles. Internal credit settles only through the rider-shortage bridge:
// the adjustment posted when the business already absorbed a rider's cash
// shortfall on the customer's behalf. Reference codes are matched
// case-insensitively with hyphen and underscore treated as the same
// separator, so RIDER_SHORTAGE, rider-shortage and RIDER_SHORTAGE-042 all
// qualify.
func (p Payment) Qualifies() bool {
	switch p.Method {
	case MethodCash:
		return true
	case MethodInternalCredit:
		if p.ReferenceCode == nil {
			return false
		}
		ref := strings.ToUpper(strings.TrimSpace(*p.ReferenceCode))
		ref = strings.ReplaceAll(ref, "-", "_")
		return strings.HasPrefix(ref, "RIDER_SHORTAGE")
	default:
		return false
	}
}

// Repository reads payment rows for the ledger engine.
type Repository interface {
	// ListByCustomer returns all of a customer's payments ordered by
	// received_at then id.
	ListByCustomer(ctx context.Context, customerID snowflake.ID) ([]Payment, error)

	// ListQualifyingByCustomer returns only payments that settle balance.
	ListQualifyingByCustomer(ctx context.Context, customerID snowflake.ID) ([]Payment, error)
}
