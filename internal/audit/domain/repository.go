package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AuditCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type ListFilter struct {
	Action     string
	TargetType string
	TargetID   string
	ActorType  string
	StartAt    *time.Time
	EndAt      *time.Time
	Cursor     *AuditCursor
	Limit      int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditLog) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*AuditLog, error)
}

// Record describes one action to be written to the audit trail. Actor and
// request attributes are filled in from the context by the service.
type Record struct {
	Action     string
	TargetType string
	TargetID   string
	Metadata   datatypes.JSONMap
}

type Service interface {
	Record(ctx context.Context, record Record) error
	List(ctx context.Context, filter ListFilter) ([]*AuditLog, error)
}
