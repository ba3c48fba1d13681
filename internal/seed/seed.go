// Package seed installs a small demo dataset for local development.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	chargedomain "github.com/helloword214/zmstore-pos-sub004/internal/charge/domain"
	customerdomain "github.com/helloword214/zmstore-pos-sub004/internal/customer/domain"
	settlementdomain "github.com/helloword214/zmstore-pos-sub004/internal/settlement/domain"
)

// EnsureDemoData seeds a few customers with orders, receipts, and payments.
// It is a no-op when any customer already exists.
func EnsureDemoData(db *gorm.DB, node *snowflake.Node) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&customerdomain.Customer{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		return insertDemoData(tx, node)
	})
}

func insertDemoData(tx *gorm.DB, node *snowflake.Node) error {
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local)

	nena := customerdomain.Customer{ID: node.Generate(), Name: "Aling Nena", Alias: "nena-sari-sari", Phone: "09171234567"}
	ben := customerdomain.Customer{ID: node.Generate(), Name: "Mang Ben", Phone: "09189999999"}
	if err := tx.Create([]customerdomain.Customer{nena, ben}).Error; err != nil {
		return err
	}

	order := chargedomain.Order{
		ID:         node.Generate(),
		CustomerID: nena.ID,
		Channel:    "walkin",
		Label:      "Walk-in order",
		OrderedAt:  monthStart.AddDate(0, 0, 2),
	}
	if err := tx.Create(&order).Error; err != nil {
		return err
	}
	items := []chargedomain.OrderItem{
		{ID: node.Generate(), OrderID: order.ID, Product: "Rice 25kg", Qty: 1, UnitPrice: 1450},
		{ID: node.Generate(), OrderID: order.ID, Product: "Cooking Oil 1L", Qty: 2, UnitPrice: 85.50},
	}
	if err := tx.Create(&items).Error; err != nil {
		return err
	}

	remit := chargedomain.Receipt{
		ID:         node.Generate(),
		CustomerID: ben.ID,
		Kind:       chargedomain.ReceiptKindParentRemit,
		Rider:      "Jun",
		IssuedAt:   monthStart.AddDate(0, 0, 5),
	}
	if err := tx.Create(&remit).Error; err != nil {
		return err
	}
	remitLine := chargedomain.ReceiptLine{
		ID:        node.Generate(),
		ReceiptID: remit.ID,
		Product:   "LPG 11kg",
		Qty:       1,
		UnitPrice: 950,
		LineTotal: 950,
	}
	if err := tx.Create(&remitLine).Error; err != nil {
		return err
	}

	payment := settlementdomain.Payment{
		ID:         node.Generate(),
		CustomerID: nena.ID,
		Method:     settlementdomain.MethodCash,
		Amount:     500,
		ReceivedAt: monthStart.AddDate(0, 0, 8),
	}
	return tx.Create(&payment).Error
}
