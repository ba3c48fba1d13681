package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/helloword214/zmstore-pos-sub004/internal/audit/domain"
	"github.com/helloword214/zmstore-pos-sub004/internal/audit/repository"
	"github.com/helloword214/zmstore-pos-sub004/internal/auditcontext"
)

var testDBSeq int

func setupAuditTest(t *testing.T) domain.Service {
	t.Helper()
	testDBSeq++
	dsn := fmt.Sprintf("file:audit_test_%d?mode=memory&cache=shared", testDBSeq)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.AuditLog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	return NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		Repo:  repository.Provide(repository.Params{}),
		GenID: node,
	})
}

func TestRecordDefaultsToSystemActor(t *testing.T) {
	svc := setupAuditTest(t)

	err := svc.Record(context.Background(), domain.Record{
		Action:     "statement.export",
		TargetType: "customer",
		TargetID:   "42",
		Metadata:   datatypes.JSONMap{"format": "pdf"},
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	entries, err := svc.List(context.Background(), domain.ListFilter{Action: "statement.export"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.ActorType != string(domain.ActorTypeSystem) {
		t.Fatalf("actor type = %q, want system", entry.ActorType)
	}
	if entry.TargetID == nil || *entry.TargetID != "42" {
		t.Fatalf("target id = %v", entry.TargetID)
	}
}

func TestRecordCarriesContextAttributes(t *testing.T) {
	svc := setupAuditTest(t)

	ctx := auditcontext.WithActor(context.Background(), string(domain.ActorTypeUser), "cashier-1")
	ctx = auditcontext.WithIPAddress(ctx, "10.0.0.5")
	ctx = auditcontext.WithUserAgent(ctx, "back-office/1.0")

	if err := svc.Record(ctx, domain.Record{Action: "balance.view", TargetType: "customer"}); err != nil {
		t.Fatalf("record: %v", err)
	}

	entries, err := svc.List(context.Background(), domain.ListFilter{Action: "balance.view"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.ActorID == nil || *entry.ActorID != "cashier-1" {
		t.Fatalf("actor id = %v", entry.ActorID)
	}
	if entry.IPAddress == nil || *entry.IPAddress != "10.0.0.5" {
		t.Fatalf("ip = %v", entry.IPAddress)
	}
	if entry.UserAgent == nil || *entry.UserAgent != "back-office/1.0" {
		t.Fatalf("user agent = %v", entry.UserAgent)
	}
}
