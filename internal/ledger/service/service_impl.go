package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	chargedomain "github.com/helloword214/zmstore-pos-sub004/internal/charge/domain"
	ledgerdomain "github.com/helloword214/zmstore-pos-sub004/internal/ledger/domain"
	"github.com/helloword214/zmstore-pos-sub004/internal/money"
	"github.com/helloword214/zmstore-pos-sub004/internal/observability/metrics"
	settlementdomain "github.com/helloword214/zmstore-pos-sub004/internal/settlement/domain"
)

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	resolver chargedomain.Resolver
	payments settlementdomain.Repository
	metrics  *metrics.LedgerMetrics
}

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Resolver chargedomain.Resolver
	Payments settlementdomain.Repository
}

func NewService(p Params) ledgerdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("ledger.service"),
		resolver: p.Resolver,
		payments: p.Payments,
		metrics:  metrics.Ledger(),
	}
}

type customerRow struct {
	ID   snowflake.ID
	Name string
}

func (s *Service) ComputeLedger(
	ctx context.Context,
	customerID snowflake.ID,
	periodStart time.Time,
	periodEnd time.Time,
	historicalPricing bool,
) (*ledgerdomain.PeriodResult, error) {
	if periodStart.After(periodEnd) {
		return nil, ledgerdomain.ErrInvalidRange
	}

	started := time.Now()
	defer func() { s.metrics.ObserveCompute("ledger", time.Since(started)) }()

	customer, err := s.loadCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ledgerdomain.ErrCustomerNotFound
	}

	charges, err := s.resolver.ListCharges(ctx, customerID, historicalPricing)
	if err != nil {
		return nil, err
	}
	payments, err := s.payments.ListQualifyingByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	// The period-end day is inclusive; the fold uses an exclusive bound one
	// day later.
	endExclusive := periodEnd.AddDate(0, 0, 1)

	// Opening balance is the uncapped carry-forward of everything dated
	// before the period.
	var opening money.Amount
	var inRange []ledgerdomain.Transaction
	for _, charge := range charges {
		switch {
		case charge.OccurredAt.Before(periodStart):
			opening = opening.Add(charge.Amount)
		case charge.OccurredAt.Before(endExclusive):
			inRange = append(inRange, chargeTransaction(charge))
		}
	}
	for _, payment := range payments {
		switch {
		case payment.ReceivedAt.Before(periodStart):
			opening = opening.Sub(money.Round2(payment.Amount))
		case payment.ReceivedAt.Before(endExclusive):
			inRange = append(inRange, settlementTransaction(payment))
		}
	}

	ledgerdomain.SortTransactions(inRange)
	folded := ledgerdomain.Fold(opening, inRange)

	result := &ledgerdomain.PeriodResult{
		CustomerID:       customerID,
		CustomerName:     customer.Name,
		PeriodStart:      periodStart,
		PeriodEnd:        periodEnd,
		OpeningBalance:   opening,
		Entries:          folded.Entries,
		TotalDebits:      folded.TotalDebits,
		TotalCredits:     folded.TotalCredits,
		UnappliedCredits: folded.UnappliedCredits,
		ClosingBalance:   folded.ClosingBalance,
	}

	s.checkClosingIdentity(result)
	return result, nil
}

func (s *Service) ComputeCurrentBalance(ctx context.Context, customerID snowflake.ID) (money.Amount, error) {
	started := time.Now()
	defer func() { s.metrics.ObserveCompute("balance", time.Since(started)) }()

	customer, err := s.loadCustomer(ctx, customerID)
	if err != nil {
		return 0, err
	}
	if customer == nil {
		return 0, ledgerdomain.ErrCustomerNotFound
	}

	charges, err := s.resolver.ListCharges(ctx, customerID, false)
	if err != nil {
		return 0, err
	}
	payments, err := s.payments.ListQualifyingByCustomer(ctx, customerID)
	if err != nil {
		return 0, err
	}

	txns := make([]ledgerdomain.Transaction, 0, len(charges)+len(payments))
	for _, charge := range charges {
		txns = append(txns, chargeTransaction(charge))
	}
	for _, payment := range payments {
		txns = append(txns, settlementTransaction(payment))
	}

	ledgerdomain.SortTransactions(txns)
	return ledgerdomain.Fold(0, txns).ClosingBalance, nil
}

// checkClosingIdentity verifies the core correctness invariant: the closing
// balance must equal opening + debits - credits and the last running balance
// exactly. A mismatch indicates a rounding defect, never bad input.
func (s *Service) checkClosingIdentity(result *ledgerdomain.PeriodResult) {
	identity := result.OpeningBalance.Add(result.TotalDebits).Sub(result.TotalCredits)
	last := result.OpeningBalance
	if n := len(result.Entries); n > 0 {
		last = result.Entries[n-1].RunningBalance
	}

	if result.ClosingBalance == identity && result.ClosingBalance == last {
		s.metrics.IncIdentityCheck("ok")
		return
	}

	s.metrics.IncIdentityCheck("mismatch")
	s.log.Error("ledger closing identity violated",
		zap.String("customer_id", result.CustomerID.String()),
		zap.String("closing", result.ClosingBalance.String()),
		zap.String("identity", identity.String()),
		zap.String("last_running", last.String()),
	)
}

func (s *Service) loadCustomer(ctx context.Context, customerID snowflake.ID) (*customerRow, error) {
	var row customerRow
	err := s.db.WithContext(ctx).Raw(
		`SELECT id, name FROM customers WHERE id = ?`,
		customerID,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func chargeTransaction(charge chargedomain.Charge) ledgerdomain.Transaction {
	return ledgerdomain.Transaction{
		Kind:             ledgerdomain.EntryKindCharge,
		ID:               charge.ID,
		OccurredAt:       charge.OccurredAt,
		Label:            charge.Label,
		ReferenceID:      charge.ReferenceID,
		Amount:           charge.Amount,
		PriceAdjustments: charge.Adjustments,
	}
}

func settlementTransaction(payment settlementdomain.Payment) ledgerdomain.Transaction {
	label := "Payment (" + string(payment.Method) + ")"
	if payment.ReferenceCode != nil && *payment.ReferenceCode != "" {
		label += " " + *payment.ReferenceCode
	}
	return ledgerdomain.Transaction{
		Kind:        ledgerdomain.EntryKindSettlement,
		ID:          payment.ID,
		OccurredAt:  payment.ReceivedAt,
		Label:       label,
		ReferenceID: payment.ID,
		Amount:      money.Round2(payment.Amount),
	}
}
