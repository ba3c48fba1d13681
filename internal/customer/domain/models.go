// Package domain contains the customer master records the ledger engine
// reads. Customers are owned by the account-provisioning subsystem; the
// engine only looks them up.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Customer identifies an account-receivable party.
type Customer struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:text;not null;index" json:"name"`
	Alias     string       `gorm:"type:text" json:"alias,omitempty"`
	Phone     string       `gorm:"type:text" json:"phone,omitempty"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (Customer) TableName() string { return "customers" }
