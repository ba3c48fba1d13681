package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	balancesservice "github.com/helloword214/zmstore-pos-sub004/internal/balances/service"
	chargeservice "github.com/helloword214/zmstore-pos-sub004/internal/charge/service"
	"github.com/helloword214/zmstore-pos-sub004/internal/config"
	ledgerservice "github.com/helloword214/zmstore-pos-sub004/internal/ledger/service"
	settlementrepo "github.com/helloword214/zmstore-pos-sub004/internal/settlement/repository"
)

var testDBSeq int

func setupServerTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	testDBSeq++
	dsn := fmt.Sprintf("file:server_test_%d?mode=memory&cache=shared", testDBSeq)
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
		`CREATE TABLE payments (id INTEGER PRIMARY KEY, customer_id BIGINT NOT NULL, method TEXT NOT NULL, reference_code TEXT, amount REAL NOT NULL, note TEXT, received_at DATETIME NOT NULL, created_at DATETIME DEFAULT CURRENT_TIMESTAMP)`,
		`CREATE TABLE ledger_adjustments (id INTEGER PRIMARY KEY, customer_id BIGINT NOT NULL, amount REAL NOT NULL, label TEXT NOT NULL, entered_at DATETIME NOT NULL)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}

	log := zap.NewNop()
	resolver := chargeservice.NewResolver(chargeservice.Params{DB: db, Log: log})
	payments := settlementrepo.NewRepository(settlementrepo.Params{DB: db})
	ledgerSvc := ledgerservice.NewService(ledgerservice.Params{
		DB: db, Log: log, Resolver: resolver, Payments: payments,
	})
	balancesSvc := balancesservice.NewService(balancesservice.Params{
		DB: db, Log: log, Resolver: resolver, Payments: payments,
	})

	engine := gin.New()
	srv := NewServer(Params{
		Config:      config.Config{Environment: "test"},
		Log:         log,
		DB:          db,
		Engine:      engine,
		LedgerSvc:   ledgerSvc,
		BalancesSvc: balancesSvc,
	})
	srv.RegisterRoutes()
	return engine, db
}

func mustExec(t *testing.T, db *gorm.DB, query string, args ...any) {
	t.Helper()
	if err := db.Exec(query, args...).Error; err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

func seedLedgerFixture(t *testing.T, db *gorm.DB) {
	t.Helper()
	day := time.Date(2025, 6, 3, 0, 0, 0, 0, time.Local)
	mustExec(t, db, `INSERT INTO customers (id, name, phone) VALUES (1, 'Aling Nena', '0917')`)
	mustExec(t, db, `INSERT INTO orders (id, customer_id, channel, label, ordered_at) VALUES (10, 1, 'walkin', 'Order #10', ?)`, day)
	mustExec(t, db, `INSERT INTO order_items (id, order_id, product, qty, unit_price) VALUES (100, 10, 'Goods', 1, 500.00)`)
	mustExec(t, db, `INSERT INTO payments (id, customer_id, method, amount, received_at) VALUES (900, 1, 'cash', 200.00, ?)`, day.AddDate(0, 0, 2))
}

func doRequest(engine *gin.Engine, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestGetCustomerLedger(t *testing.T) {
	engine, db := setupServerTest(t)
	seedLedgerFixture(t, db)

	w := doRequest(engine, http.MethodGet, "/api/customers/1/ledger?start=2025-06-01&end=2025-06-30")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var payload struct {
		Data struct {
			OpeningBalance json.Number `json:"opening_balance"`
			ClosingBalance json.Number `json:"closing_balance"`
			Entries        []struct {
				Kind  string `json:"kind"`
				Label string `json:"label"`
			} `json:"entries"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Data.ClosingBalance.String() != "300.00" {
		t.Fatalf("closing = %s, want 300.00", payload.Data.ClosingBalance)
	}
	if len(payload.Data.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(payload.Data.Entries))
	}
}

func TestGetCustomerLedgerValidation(t *testing.T) {
	engine, _ := setupServerTest(t)

	cases := []struct {
		name   string
		target string
		status int
	}{
		{"missing start", "/api/customers/1/ledger?end=2025-06-30", http.StatusBadRequest},
		{"bad date", "/api/customers/1/ledger?start=June-1&end=2025-06-30", http.StatusBadRequest},
		{"inverted range", "/api/customers/1/ledger?start=2025-06-30&end=2025-06-01", http.StatusBadRequest},
		{"bad customer id", "/api/customers/abc/ledger?start=2025-06-01&end=2025-06-30", http.StatusBadRequest},
		{"unknown customer", "/api/customers/42/ledger?start=2025-06-01&end=2025-06-30", http.StatusNotFound},
	}
	for _, tc := range cases {
		w := doRequest(engine, http.MethodGet, tc.target)
		if w.Code != tc.status {
			t.Errorf("%s: status = %d, want %d", tc.name, w.Code, tc.status)
		}
	}
}

func TestGetCustomerLedgerCSV(t *testing.T) {
	engine, db := setupServerTest(t)
	seedLedgerFixture(t, db)

	w := doRequest(engine, http.MethodGet, "/api/customers/1/ledger?start=2025-06-01&end=2025-06-30&format=csv")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type = %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Opening balance") || !strings.Contains(body, "Order #10") {
		t.Fatalf("csv body missing rows: %s", body)
	}
}

func TestGetCustomerBalance(t *testing.T) {
	engine, db := setupServerTest(t)
	seedLedgerFixture(t, db)

	w := doRequest(engine, http.MethodGet, "/api/customers/1/balance")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"balance":300.00`) {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestListOpenBalancesEndpoint(t *testing.T) {
	engine, db := setupServerTest(t)
	seedLedgerFixture(t, db)

	w := doRequest(engine, http.MethodGet, "/api/balances")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Aling Nena") {
		t.Fatalf("body = %s", w.Body.String())
	}

	w = doRequest(engine, http.MethodGet, "/api/balances?limit=-1")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("negative limit status = %d", w.Code)
	}
}

func TestExportStatementPDF(t *testing.T) {
	engine, db := setupServerTest(t)
	seedLedgerFixture(t, db)

	w := doRequest(engine, http.MethodGet, "/api/customers/1/statement.pdf?start=2025-06-01&end=2025-06-30")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if !strings.HasPrefix(w.Body.String(), "%PDF") {
		t.Fatalf("response is not a PDF document")
	}
}

func TestExportStatementXLSX(t *testing.T) {
	engine, db := setupServerTest(t)
	seedLedgerFixture(t, db)

	w := doRequest(engine, http.MethodGet, "/api/customers/1/statement.xlsx?start=2025-06-01&end=2025-06-30")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Fatalf("content type = %q", ct)
	}
}

func TestHealth(t *testing.T) {
	engine, _ := setupServerTest(t)
	w := doRequest(engine, http.MethodGet, "/healthz")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}
