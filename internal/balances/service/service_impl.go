package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	balancesdomain "github.com/helloword214/zmstore-pos-sub004/internal/balances/domain"
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

func NewService(p Params) balancesdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("balances.service"),
		resolver: p.Resolver,
		payments: p.Payments,
		metrics:  metrics.Ledger(),
	}
}

type customerRow struct {
	ID    snowflake.ID
	Name  string
	Alias string
	Phone string
}

func (s *Service) ListOpenBalances(ctx context.Context, filter balancesdomain.ListFilter) ([]balancesdomain.CustomerBalanceSummary, error) {
	started := time.Now()
	defer func() { s.metrics.ObserveCompute("summary", time.Since(started)) }()

	customers, err := s.listChargeableCustomers(ctx, filter.Query)
	if err != nil {
		return nil, err
	}

	summaries := make([]balancesdomain.CustomerBalanceSummary, 0, len(customers))
	for _, customer := range customers {
		summary, err := s.summarize(ctx, customer)
		if err != nil {
			return nil, err
		}
		if summary == nil {
			continue
		}
		summaries = append(summaries, *summary)
	}

	sortSummaries(summaries)
	if filter.Limit > 0 && len(summaries) > filter.Limit {
		summaries = summaries[:filter.Limit]
	}
	return summaries, nil
}

// summarize folds one customer's full history and derives the list-view
// aggregate. Customers whose balance rounds to zero or below are dropped.
func (s *Service) summarize(ctx context.Context, customer customerRow) (*balancesdomain.CustomerBalanceSummary, error) {
	charges, err := s.resolver.ListCharges(ctx, customer.ID, false)
	if err != nil {
		return nil, err
	}
	payments, err := s.payments.ListQualifyingByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, err
	}

	txns := make([]ledgerdomain.Transaction, 0, len(charges)+len(payments))
	for _, charge := range charges {
		txns = append(txns, ledgerdomain.Transaction{
			Kind:       ledgerdomain.EntryKindCharge,
			ID:         charge.ID,
			OccurredAt: charge.OccurredAt,
			Amount:     charge.Amount,
		})
	}
	for _, payment := range payments {
		txns = append(txns, ledgerdomain.Transaction{
			Kind:       ledgerdomain.EntryKindSettlement,
			ID:         payment.ID,
			OccurredAt: payment.ReceivedAt,
			Amount:     money.Round2(payment.Amount),
		})
	}

	ledgerdomain.SortTransactions(txns)
	folded := ledgerdomain.Fold(0, txns)
	if folded.ClosingBalance <= 0 {
		return nil, nil
	}

	earliest, openCount := unpaidFrom(txns, folded.TotalCredits)

	return &balancesdomain.CustomerBalanceSummary{
		CustomerID:        customer.ID,
		Name:              customer.Name,
		Alias:             customer.Alias,
		Phone:             customer.Phone,
		OpenChargeCount:   openCount,
		EarliestUnpaidDue: earliest,
		TotalOpenBalance:  folded.ClosingBalance,
	}, nil
}

// unpaidFrom applies the total settled amount to charges oldest-first and
// reports the dating instant of the first charge not fully covered, plus the
// number of open charges from that point on.
func unpaidFrom(txns []ledgerdomain.Transaction, applied money.Amount) (*time.Time, int) {
	var cum money.Amount
	var earliest *time.Time
	openCount := 0
	for _, txn := range txns {
		if txn.Kind != ledgerdomain.EntryKindCharge || txn.Amount <= 0 {
			continue
		}
		cum = cum.Add(txn.Amount)
		if cum <= applied {
			continue
		}
		if earliest == nil {
			at := txn.OccurredAt
			earliest = &at
		}
		openCount++
	}
	return earliest, openCount
}

func sortSummaries(summaries []balancesdomain.CustomerBalanceSummary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		if a.TotalOpenBalance != b.TotalOpenBalance {
			return a.TotalOpenBalance > b.TotalOpenBalance
		}
		switch {
		case a.EarliestUnpaidDue == nil && b.EarliestUnpaidDue == nil:
			return a.CustomerID < b.CustomerID
		case a.EarliestUnpaidDue == nil:
			return false
		case b.EarliestUnpaidDue == nil:
			return true
		case !a.EarliestUnpaidDue.Equal(*b.EarliestUnpaidDue):
			return a.EarliestUnpaidDue.Before(*b.EarliestUnpaidDue)
		}
		return a.CustomerID < b.CustomerID
	})
}

func (s *Service) listChargeableCustomers(ctx context.Context, query string) ([]customerRow, error) {
	like := "%" + strings.TrimSpace(query) + "%"
	var customers []customerRow
	err := s.db.WithContext(ctx).Raw(
		`SELECT c.id, c.name, c.alias, c.phone
		 FROM customers c
		 WHERE (c.name LIKE ? OR c.alias LIKE ? OR c.phone LIKE ?)
		 AND (
			EXISTS (SELECT 1 FROM orders o WHERE o.customer_id = c.id)
			OR EXISTS (SELECT 1 FROM receipts r WHERE r.customer_id = c.id AND r.kind = ?)
			OR EXISTS (SELECT 1 FROM ledger_adjustments la WHERE la.customer_id = c.id)
		 )
		 ORDER BY c.id`,
		like,
		like,
		like,
		chargedomain.ReceiptKindParentRemit,
	).Scan(&customers).Error
	if err != nil {
		return nil, err
	}
	return customers, nil
}
