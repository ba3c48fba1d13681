package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	chargedomain "github.com/helloword214/zmstore-pos-sub004/internal/charge/domain"
)

var testDBSeq int

func setupResolverTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDBSeq++
	dsn := fmt.Sprintf("file:resolver_test_%d?mode=memory&cache=shared", testDBSeq)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	statements := []string{
		`CREATE TABLE customers (id INTEGER PRIMARY KEY, name TEXT NOT NULL, alias TEXT, phone TEXT, created_at DATETIME DEFAULT CURRENT_TIMESTAMP)`,
		`CREATE TABLE orders (id INTEGER PRIMARY KEY, customer_id BIGINT NOT NULL, channel TEXT NOT NULL, label TEXT NOT NULL, ordered_at DATETIME NOT NULL, created_at DATETIME DEFAULT CURRENT_TIMESTAMP)`,
		`CREATE TABLE order_items (id INTEGER PRIMARY KEY, order_id BIGINT NOT NULL, product TEXT NOT NULL, qty REAL NOT NULL, unit_price REAL NOT NULL)`,
		`CREATE TABLE receipts (id INTEGER PRIMARY KEY, customer_id BIGINT NOT NULL, kind TEXT NOT NULL, order_id BIGINT, rider TEXT, issued_at DATETIME NOT NULL)`,
		`CREATE TABLE receipt_lines (id INTEGER PRIMARY KEY, receipt_id BIGINT NOT NULL, order_id BIGINT, product TEXT NOT NULL, qty REAL NOT NULL, unit_price REAL NOT NULL, line_total REAL NOT NULL)`,
		`CREATE TABLE discount_rules (id INTEGER PRIMARY KEY, product TEXT NOT NULL, unit_price REAL NOT NULL, valid_from DATETIME NOT NULL, valid_until DATETIME)`,
		`CREATE TABLE ledger_adjustments (id INTEGER PRIMARY KEY, customer_id BIGINT NOT NULL, amount REAL NOT NULL, label TEXT NOT NULL, entered_at DATETIME NOT NULL)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func newTestResolver(db *gorm.DB) chargedomain.Resolver {
	return NewResolver(Params{DB: db, Log: zap.NewNop()})
}

func mustExec(t *testing.T, db *gorm.DB, query string, args ...any) {
	t.Helper()
	if err := db.Exec(query, args...).Error; err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

func TestResolveOriginReceiptWinsOverLiveItems(t *testing.T) {
	db := setupResolverTestDB(t)
	at := time.Date(2025, 4, 1, 9, 0, 0, 0, time.Local)

	mustExec(t, db, `INSERT INTO customers (id, name) VALUES (1, 'Dela Cruz Store')`)
	mustExec(t, db, `INSERT INTO orders (id, customer_id, channel, label, ordered_at) VALUES (10, 1, 'delivery', 'Order #10', ?)`, at)
	// Frozen origin receipt totals 120.00; live items were edited afterwards
	// and now sum to 150.00.
	mustExec(t, db, `INSERT INTO receipts (id, customer_id, kind, order_id, issued_at) VALUES (100, 1, 'origin', 10, ?)`, at)
	mustExec(t, db, `INSERT INTO receipt_lines (id, receipt_id, order_id, product, qty, unit_price, line_total) VALUES (1000, 100, 10, 'Rice 5kg', 2, 60.00, 120.00)`)
	mustExec(t, db, `INSERT INTO order_items (id, order_id, product, qty, unit_price) VALUES (2000, 10, 'Rice 5kg', 2, 75.00)`)

	charges, err := newTestResolver(db).ListCharges(context.Background(), 1, false)
	if err != nil {
		t.Fatalf("list charges: %v", err)
	}
	if len(charges) != 1 {
		t.Fatalf("expected 1 charge, got %d", len(charges))
	}
	if charges[0].Amount != 120.00 {
		t.Fatalf("charge amount = %v, want 120.00 (origin receipt wins)", charges[0].Amount)
	}
	if charges[0].SourceKind != chargedomain.SourceKindOrder {
		t.Fatalf("source kind = %s, want order", charges[0].SourceKind)
	}
	if charges[0].ReferenceID != 100 {
		t.Fatalf("reference id = %v, want resolving receipt 100", charges[0].ReferenceID)
	}
}

func TestResolveParentRemitCoversOrderWithoutOriginReceipt(t *testing.T) {
	db := setupResolverTestDB(t)
	at := time.Date(2025, 4, 2, 14, 0, 0, 0, time.Local)

	mustExec(t, db, `INSERT INTO customers (id, name) VALUES (1, 'Dela Cruz Store')`)
	mustExec(t, db, `INSERT INTO orders (id, customer_id, channel, label, ordered_at) VALUES (11, 1, 'delivery', 'Order #11', ?)`, at)
	mustExec(t, db, `INSERT INTO receipts (id, customer_id, kind, rider, issued_at) VALUES (101, 1, 'parent_remit', 'R. Santos', ?)`, at.Add(4*time.Hour))
	mustExec(t, db, `INSERT INTO receipt_lines (id, receipt_id, order_id, product, qty, unit_price, line_total) VALUES (1001, 101, 11, 'LPG 11kg', 1, 950.00, 950.00)`)
	mustExec(t, db, `INSERT INTO order_items (id, order_id, product, qty, unit_price) VALUES (2001, 11, 'LPG 11kg', 1, 1000.00)`)

	charges, err := newTestResolver(db).ListCharges(context.Background(), 1, false)
	if err != nil {
		t.Fatalf("list charges: %v", err)
	}
	if len(charges) != 1 {
		t.Fatalf("expected 1 charge, got %d", len(charges))
	}
	if charges[0].Amount != 950.00 {
		t.Fatalf("charge amount = %v, want 950.00 (parent remit wins over live items)", charges[0].Amount)
	}
}

func TestResolveLiveItemsFallback(t *testing.T) {
	db := setupResolverTestDB(t)
	at := time.Date(2025, 4, 3, 10, 0, 0, 0, time.Local)

	mustExec(t, db, `INSERT INTO customers (id, name) VALUES (1, 'Dela Cruz Store')`)
	mustExec(t, db, `INSERT INTO orders (id, customer_id, channel, label, ordered_at) VALUES (12, 1, 'walkin', 'Order #12', ?)`, at)
	mustExec(t, db, `INSERT INTO order_items (id, order_id, product, qty, unit_price) VALUES (2002, 12, 'Cooking oil 1L', 3, 85.50)`)
	mustExec(t, db, `INSERT INTO order_items (id, order_id, product, qty, unit_price) VALUES (2003, 12, 'Sugar 1kg', 2, 62.25)`)

	charges, err := newTestResolver(db).ListCharges(context.Background(), 1, false)
	if err != nil {
		t.Fatalf("list charges: %v", err)
	}
	if len(charges) != 1 {
		t.Fatalf("expected 1 charge, got %d", len(charges))
	}
	// 3*85.50 + 2*62.25 = 256.50 + 124.50 = 381.00
	if charges[0].Amount != 381.00 {
		t.Fatalf("charge amount = %v, want 381.00", charges[0].Amount)
	}
}

func TestResolveHistoricalPricingUsesRuleAsOfOrderTime(t *testing.T) {
	db := setupResolverTestDB(t)
	orderedAt := time.Date(2025, 2, 10, 11, 0, 0, 0, time.Local)
	ruleStart := time.Date(2025, 2, 1, 0, 0, 0, 0, time.Local)
	ruleEnd := time.Date(2025, 3, 1, 0, 0, 0, 0, time.Local)

	mustExec(t, db, `INSERT INTO customers (id, name) VALUES (1, 'Dela Cruz Store')`)
	mustExec(t, db, `INSERT INTO orders (id, customer_id, channel, label, ordered_at) VALUES (13, 1, 'pickup', 'Order #13', ?)`, orderedAt)
	mustExec(t, db, `INSERT INTO order_items (id, order_id, product, qty, unit_price) VALUES (2004, 13, 'Rice 5kg', 2, 75.00)`)
	// February promo priced the rice at 70.00; a later rule outside the
	// window must not apply.
	mustExec(t, db, `INSERT INTO discount_rules (id, product, unit_price, valid_from, valid_until) VALUES (1, 'Rice 5kg', 70.00, ?, ?)`, ruleStart, ruleEnd)
	mustExec(t, db, `INSERT INTO discount_rules (id, product, unit_price, valid_from, valid_until) VALUES (2, 'Rice 5kg', 50.00, ?, NULL)`, ruleEnd)

	resolver := newTestResolver(db)

	historical, err := resolver.ListCharges(context.Background(), 1, true)
	if err != nil {
		t.Fatalf("list charges historical: %v", err)
	}
	if historical[0].Amount != 140.00 {
		t.Fatalf("historical amount = %v, want 140.00 (2 x 70.00 under February rule)", historical[0].Amount)
	}
	if len(historical[0].Adjustments) != 1 {
		t.Fatalf("expected 1 price adjustment, got %d", len(historical[0].Adjustments))
	}
	adj := historical[0].Adjustments[0]
	if adj.ListUnitPrice != 75.00 || adj.ChargedUnitPrice != 70.00 {
		t.Fatalf("adjustment = %+v, want 75.00 -> 70.00", adj)
	}

	current, err := resolver.ListCharges(context.Background(), 1, false)
	if err != nil {
		t.Fatalf("list charges current: %v", err)
	}
	if current[0].Amount != 150.00 {
		t.Fatalf("current amount = %v, want 150.00 (live unit prices)", current[0].Amount)
	}
}

func TestResolveUnresolvableOrderChargesZeroButStaysVisible(t *testing.T) {
	db := setupResolverTestDB(t)
	at := time.Date(2025, 4, 5, 8, 0, 0, 0, time.Local)

	mustExec(t, db, `INSERT INTO customers (id, name) VALUES (1, 'Dela Cruz Store')`)
	mustExec(t, db, `INSERT INTO orders (id, customer_id, channel, label, ordered_at) VALUES (14, 1, 'delivery', 'Order #14', ?)`, at)

	charges, err := newTestResolver(db).ListCharges(context.Background(), 1, false)
	if err != nil {
		t.Fatalf("list charges: %v", err)
	}
	if len(charges) != 1 {
		t.Fatalf("expected unresolvable order to stay visible, got %d charges", len(charges))
	}
	if charges[0].Amount != 0 {
		t.Fatalf("charge amount = %v, want 0", charges[0].Amount)
	}
}

func TestResolveUnlinkedRemitLinesAndAdjustments(t *testing.T) {
	db := setupResolverTestDB(t)
	at := time.Date(2025, 4, 6, 17, 0, 0, 0, time.Local)

	mustExec(t, db, `INSERT INTO customers (id, name) VALUES (1, 'Dela Cruz Store')`)
	mustExec(t, db, `INSERT INTO receipts (id, customer_id, kind, rider, issued_at) VALUES (102, 1, 'parent_remit', 'R. Santos', ?)`, at)
	mustExec(t, db, `INSERT INTO receipt_lines (id, receipt_id, order_id, product, qty, unit_price, line_total) VALUES (1002, 102, NULL, 'Softdrinks case', 1, 480.00, 480.00)`)
	mustExec(t, db, `INSERT INTO receipt_lines (id, receipt_id, order_id, product, qty, unit_price, line_total) VALUES (1003, 102, NULL, 'Ice bag', 4, 15.00, 60.00)`)
	mustExec(t, db, `INSERT INTO ledger_adjustments (id, customer_id, amount, label, entered_at) VALUES (3000, 1, 215.75, 'Carried balance from old book', ?)`, at.AddDate(0, -1, 0))

	charges, err := newTestResolver(db).ListCharges(context.Background(), 1, false)
	if err != nil {
		t.Fatalf("list charges: %v", err)
	}
	if len(charges) != 2 {
		t.Fatalf("expected remit charge and adjustment charge, got %d", len(charges))
	}

	byKind := map[chargedomain.SourceKind]chargedomain.Charge{}
	for _, charge := range charges {
		byKind[charge.SourceKind] = charge
	}
	if remit := byKind[chargedomain.SourceKindParentRemit]; remit.Amount != 540.00 {
		t.Fatalf("remit charge amount = %v, want 540.00", remit.Amount)
	}
	if adj := byKind[chargedomain.SourceKindLedgerEntry]; adj.Amount != 215.75 {
		t.Fatalf("adjustment charge amount = %v, want 215.75", adj.Amount)
	}
}

func TestResolveDeterministicAcrossRuns(t *testing.T) {
	db := setupResolverTestDB(t)
	at := time.Date(2025, 4, 7, 9, 30, 0, 0, time.Local)

	mustExec(t, db, `INSERT INTO customers (id, name) VALUES (1, 'Dela Cruz Store')`)
	mustExec(t, db, `INSERT INTO orders (id, customer_id, channel, label, ordered_at) VALUES (15, 1, 'walkin', 'Order #15', ?)`, at)
	mustExec(t, db, `INSERT INTO order_items (id, order_id, product, qty, unit_price) VALUES (2005, 15, 'Eggs tray', 2, 210.00)`)

	resolver := newTestResolver(db)
	first, err := resolver.ListCharges(context.Background(), 1, false)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := resolver.ListCharges(context.Background(), 1, false)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("run lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Amount != second[i].Amount || first[i].ID != second[i].ID {
			t.Fatalf("runs differ at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}
