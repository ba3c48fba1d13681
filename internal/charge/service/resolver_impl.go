package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/helloword214/zmstore-pos-sub004/internal/cache"
	chargedomain "github.com/helloword214/zmstore-pos-sub004/internal/charge/domain"
	"github.com/helloword214/zmstore-pos-sub004/internal/money"
)

// ruleCacheTTL bounds staleness of memoized discount rules. Rules rows are
// append-only, so a short memo never changes a resolved amount.
const ruleCacheTTL = 30 * time.Second

type Resolver struct {
	db    *gorm.DB
	log   *zap.Logger
	rules cache.Cache[string, []chargedomain.DiscountRule]
}

type Params struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

func NewResolver(p Params) chargedomain.Resolver {
	return &Resolver{
		db:    p.DB,
		log:   p.Log.Named("charge.resolver"),
		rules: cache.NewTTLCache[string, []chargedomain.DiscountRule](),
	}
}

type orderRow struct {
	ID        snowflake.ID
	Label     string
	Channel   string
	OrderedAt time.Time
}

type lineRow struct {
	OrderID   snowflake.ID
	ReceiptID snowflake.ID
	Product   string
	Qty       float64
	UnitPrice float64
	LineTotal float64
}

type itemRow struct {
	OrderID   snowflake.ID
	Product   string
	Qty       float64
	UnitPrice float64
}

type remitLineRow struct {
	ReceiptID snowflake.ID
	Rider     string
	IssuedAt  time.Time
	LineTotal float64
}

type adjustmentRow struct {
	ID        snowflake.ID
	Amount    float64
	Label     string
	EnteredAt time.Time
}

func (r *Resolver) ListCharges(ctx context.Context, customerID snowflake.ID, historicalPricing bool) ([]chargedomain.Charge, error) {
	orders, err := r.listOrders(ctx, customerID)
	if err != nil {
		return nil, err
	}

	originLines, err := r.listOrderLines(ctx, customerID, chargedomain.ReceiptKindOrigin)
	if err != nil {
		return nil, err
	}
	remitLines, err := r.listOrderLines(ctx, customerID, chargedomain.ReceiptKindParentRemit)
	if err != nil {
		return nil, err
	}
	items, err := r.listItems(ctx, customerID)
	if err != nil {
		return nil, err
	}

	charges := make([]chargedomain.Charge, 0, len(orders))
	for _, order := range orders {
		charge, err := r.resolveOrder(ctx, customerID, order, originLines[order.ID], remitLines[order.ID], items[order.ID], historicalPricing)
		if err != nil {
			return nil, err
		}
		charges = append(charges, charge)
	}

	remitCharges, err := r.listUnlinkedRemitCharges(ctx, customerID)
	if err != nil {
		return nil, err
	}
	charges = append(charges, remitCharges...)

	adjustments, err := r.listAdjustments(ctx, customerID)
	if err != nil {
		return nil, err
	}
	charges = append(charges, adjustments...)

	return charges, nil
}

// resolveOrder walks the source priority chain: frozen origin receipt lines,
// frozen parent-remit lines covering the order, then live item lines. An
// order with no resolvable source charges zero but is still returned.
func (r *Resolver) resolveOrder(
	ctx context.Context,
	customerID snowflake.ID,
	order orderRow,
	origin []lineRow,
	remit []lineRow,
	items []itemRow,
	historicalPricing bool,
) (chargedomain.Charge, error) {
	charge := chargedomain.Charge{
		ID:          order.ID,
		CustomerID:  customerID,
		OccurredAt:  order.OrderedAt,
		SourceKind:  chargedomain.SourceKindOrder,
		Label:       order.Label,
		ReferenceID: order.ID,
	}

	switch {
	case len(origin) > 0:
		charge.Amount = sumFrozenLines(origin)
		charge.ReferenceID = origin[0].ReceiptID
	case len(remit) > 0:
		charge.Amount = sumFrozenLines(remit)
		charge.ReferenceID = remit[0].ReceiptID
	case len(items) > 0 && historicalPricing:
		amount, adjusted, err := r.repriceItems(ctx, order.OrderedAt, items)
		if err != nil {
			return chargedomain.Charge{}, err
		}
		charge.Amount = amount
		charge.Adjustments = adjusted
	case len(items) > 0:
		var run money.Amount
		for _, item := range items {
			run = run.Add(money.Round2(item.Qty * item.UnitPrice))
		}
		charge.Amount = run
	default:
		r.log.Debug("order has no resolvable charge source",
			zap.String("order_id", order.ID.String()),
			zap.String("customer_id", customerID.String()),
		)
	}

	return charge, nil
}

// repriceItems recomputes item lines under the discount rules valid at the
// order's dating instant, attaching a before/after unit price whenever a
// rule changed the price.
func (r *Resolver) repriceItems(ctx context.Context, at time.Time, items []itemRow) (money.Amount, []chargedomain.PriceAdjustment, error) {
	var run money.Amount
	var adjusted []chargedomain.PriceAdjustment
	for _, item := range items {
		unit := item.UnitPrice
		rule, err := r.ruleAsOf(ctx, item.Product, at)
		if err != nil {
			return 0, nil, err
		}
		if rule != nil && rule.UnitPrice != item.UnitPrice {
			unit = rule.UnitPrice
			adjusted = append(adjusted, chargedomain.PriceAdjustment{
				Product:          item.Product,
				ListUnitPrice:    money.Round2(item.UnitPrice),
				ChargedUnitPrice: money.Round2(rule.UnitPrice),
				RuleID:           rule.ID,
			})
		}
		run = run.Add(money.Round2(item.Qty * unit))
	}
	return run, adjusted, nil
}

// ruleAsOf returns the discount rule in effect for a product at t, or nil.
// When windows overlap, the most recently effective rule wins.
func (r *Resolver) ruleAsOf(ctx context.Context, product string, at time.Time) (*chargedomain.DiscountRule, error) {
	rules, ok := r.rules.Get(product)
	if !ok {
		if err := r.db.WithContext(ctx).Raw(
			`SELECT id, product, unit_price, valid_from, valid_until
			 FROM discount_rules
			 WHERE product = ?
			 ORDER BY valid_from, id`,
			product,
		).Scan(&rules).Error; err != nil {
			return nil, err
		}
		r.rules.Set(product, rules, ruleCacheTTL)
	}

	var match *chargedomain.DiscountRule
	for i := range rules {
		rule := rules[i]
		if at.Before(rule.ValidFrom) {
			continue
		}
		if rule.ValidUntil != nil && !at.Before(*rule.ValidUntil) {
			continue
		}
		if match == nil || rule.ValidFrom.After(match.ValidFrom) || (rule.ValidFrom.Equal(match.ValidFrom) && rule.ID > match.ID) {
			match = &rule
		}
	}
	return match, nil
}

func sumFrozenLines(lines []lineRow) money.Amount {
	var run money.Amount
	for _, line := range lines {
		run = run.Add(money.Round2(line.LineTotal))
	}
	return run
}

func (r *Resolver) listOrders(ctx context.Context, customerID snowflake.ID) ([]orderRow, error) {
	var orders []orderRow
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, label, channel, ordered_at
		 FROM orders
		 WHERE customer_id = ?
		 ORDER BY ordered_at, id`,
		customerID,
	).Scan(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *Resolver) listOrderLines(ctx context.Context, customerID snowflake.ID, kind chargedomain.ReceiptKind) (map[snowflake.ID][]lineRow, error) {
	var lines []lineRow
	err := r.db.WithContext(ctx).Raw(
		`SELECT rl.order_id, rl.receipt_id, rl.product, rl.qty, rl.unit_price, rl.line_total
		 FROM receipt_lines rl
		 JOIN receipts r ON r.id = rl.receipt_id
		 WHERE r.customer_id = ? AND r.kind = ? AND rl.order_id IS NOT NULL
		 ORDER BY rl.receipt_id, rl.id`,
		customerID,
		kind,
	).Scan(&lines).Error
	if err != nil {
		return nil, err
	}

	grouped := make(map[snowflake.ID][]lineRow, len(lines))
	for _, line := range lines {
		grouped[line.OrderID] = append(grouped[line.OrderID], line)
	}
	return grouped, nil
}

func (r *Resolver) listItems(ctx context.Context, customerID snowflake.ID) (map[snowflake.ID][]itemRow, error) {
	var items []itemRow
	err := r.db.WithContext(ctx).Raw(
		`SELECT oi.order_id, oi.product, oi.qty, oi.unit_price
		 FROM order_items oi
		 WHERE oi.order_id IN (SELECT id FROM orders WHERE customer_id = ?)
		 ORDER BY oi.order_id, oi.id`,
		customerID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}

	grouped := make(map[snowflake.ID][]itemRow, len(items))
	for _, item := range items {
		grouped[item.OrderID] = append(grouped[item.OrderID], item)
	}
	return grouped, nil
}

// listUnlinkedRemitCharges charges parent-remit lines that cover no order
// (off-system delivery sales remitted by a rider) as one charge per receipt.
func (r *Resolver) listUnlinkedRemitCharges(ctx context.Context, customerID snowflake.ID) ([]chargedomain.Charge, error) {
	var rows []remitLineRow
	err := r.db.WithContext(ctx).Raw(
		`SELECT r.id AS receipt_id, r.rider, r.issued_at, rl.line_total
		 FROM receipts r
		 JOIN receipt_lines rl ON rl.receipt_id = r.id
		 WHERE r.customer_id = ? AND r.kind = ? AND rl.order_id IS NULL
		 ORDER BY r.issued_at, r.id, rl.id`,
		customerID,
		chargedomain.ReceiptKindParentRemit,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	grouped := make(map[snowflake.ID]*chargedomain.Charge)
	order := make([]snowflake.ID, 0)
	for _, row := range rows {
		charge, ok := grouped[row.ReceiptID]
		if !ok {
			label := "Rider remit"
			if row.Rider != "" {
				label = fmt.Sprintf("Rider remit (%s)", row.Rider)
			}
			charge = &chargedomain.Charge{
				ID:          row.ReceiptID,
				CustomerID:  customerID,
				OccurredAt:  row.IssuedAt,
				SourceKind:  chargedomain.SourceKindParentRemit,
				Label:       label,
				ReferenceID: row.ReceiptID,
			}
			grouped[row.ReceiptID] = charge
			order = append(order, row.ReceiptID)
		}
		charge.Amount = charge.Amount.Add(money.Round2(row.LineTotal))
	}

	charges := make([]chargedomain.Charge, 0, len(order))
	for _, id := range order {
		charges = append(charges, *grouped[id])
	}
	sort.SliceStable(charges, func(i, j int) bool {
		if !charges[i].OccurredAt.Equal(charges[j].OccurredAt) {
			return charges[i].OccurredAt.Before(charges[j].OccurredAt)
		}
		return charges[i].ID < charges[j].ID
	})
	return charges, nil
}

func (r *Resolver) listAdjustments(ctx context.Context, customerID snowflake.ID) ([]chargedomain.Charge, error) {
	var rows []adjustmentRow
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, amount, label, entered_at
		 FROM ledger_adjustments
		 WHERE customer_id = ?
		 ORDER BY entered_at, id`,
		customerID,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	charges := make([]chargedomain.Charge, 0, len(rows))
	for _, row := range rows {
		charges = append(charges, chargedomain.Charge{
			ID:          row.ID,
			CustomerID:  customerID,
			OccurredAt:  row.EnteredAt,
			SourceKind:  chargedomain.SourceKindLedgerEntry,
			Amount:      money.Round2(row.Amount),
			Label:       row.Label,
			ReferenceID: row.ID,
		})
	}
	return charges, nil
}
