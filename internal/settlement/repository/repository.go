package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"

	settlementdomain "github.com/helloword214/zmstore-pos-sub004/internal/settlement/domain"
)

type Repository struct {
	db *gorm.DB
}

type Params struct {
	fx.In

	DB *gorm.DB
}

func NewRepository(p Params) settlementdomain.Repository {
	return &Repository{db: p.DB}
}

func (r *Repository) ListByCustomer(ctx context.Context, customerID snowflake.ID) ([]settlementdomain.Payment, error) {
	var payments []settlementdomain.Payment
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, customer_id, method, reference_code, amount, note, received_at
		 FROM payments
		 WHERE customer_id = ?
		 ORDER BY received_at, id`,
		customerID,
	).Scan(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *Repository) ListQualifyingByCustomer(ctx context.Context, customerID snowflake.ID) ([]settlementdomain.Payment, error) {
	payments, err := r.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	qualifying := payments[:0:0]
	for _, payment := range payments {
		if payment.Qualifies() {
			qualifying = append(qualifying, payment)
		}
	}
	return qualifying, nil
}
