package monitor

import (
	"context"
	"errors"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	balancesdomain "github.com/helloword214/zmstore-pos-sub004/internal/balances/domain"
	"github.com/helloword214/zmstore-pos-sub004/internal/clock"
	"github.com/helloword214/zmstore-pos-sub004/internal/money"
	"github.com/helloword214/zmstore-pos-sub004/internal/observability/metrics"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Balances balancesdomain.Service
	Clock    clock.Clock `optional:"true"`
	Config   Config      `optional:"true"`
}

// Worker periodically sweeps open balances and publishes receivables gauges.
// It never writes anything back; the sweep is a read-only aggregation.
type Worker struct {
	log      *zap.Logger
	balances balancesdomain.Service
	clock    clock.Clock
	cfg      Config
	metrics  *metrics.ReceivablesMetrics
}

func NewWorker(p Params) *Worker {
	cfg := p.Config.withDefaults()
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Worker{
		log:      p.Log.Named("balances.monitor"),
		balances: p.Balances,
		clock:    clk,
		cfg:      cfg,
		metrics:  metrics.Receivables(),
	}
}

func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := w.RunOnce(ctx); err != nil {
			w.log.Warn("receivables sweep failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) RunOnce(ctx context.Context) error {
	if w.balances == nil {
		return errors.New("receivables_monitor_unavailable")
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	summaries, err := w.balances.ListOpenBalances(ctx, balancesdomain.ListFilter{})
	if err != nil {
		w.metrics.IncSweep("failed")
		return err
	}

	var total money.Amount
	var oldest *time.Time
	for _, row := range summaries {
		total = total.Add(row.TotalOpenBalance)
		if row.EarliestUnpaidDue == nil {
			continue
		}
		if oldest == nil || row.EarliestUnpaidDue.Before(*oldest) {
			oldest = row.EarliestUnpaidDue
		}
	}

	var oldestAge time.Duration
	if oldest != nil {
		oldestAge = w.clock.Now().Sub(*oldest)
	}
	w.metrics.SetOpenBalanceTotal(float64(total))
	w.metrics.SetOpenCustomers(len(summaries))
	w.metrics.SetOldestUnpaidAge(oldestAge)
	w.metrics.IncSweep("success")

	w.log.Debug("receivables sweep complete",
		zap.Int("open_customers", len(summaries)),
		zap.String("open_balance_total", total.String()),
	)
	return nil
}
