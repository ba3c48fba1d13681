package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/helloword214/zmstore-pos-sub004/internal/audit"
	"github.com/helloword214/zmstore-pos-sub004/internal/balances"
	"github.com/helloword214/zmstore-pos-sub004/internal/balances/monitor"
	"github.com/helloword214/zmstore-pos-sub004/internal/charge"
	"github.com/helloword214/zmstore-pos-sub004/internal/clock"
	"github.com/helloword214/zmstore-pos-sub004/internal/config"
	"github.com/helloword214/zmstore-pos-sub004/internal/ledger"
	"github.com/helloword214/zmstore-pos-sub004/internal/migration"
	"github.com/helloword214/zmstore-pos-sub004/internal/observability"
	"github.com/helloword214/zmstore-pos-sub004/internal/seed"
	"github.com/helloword214/zmstore-pos-sub004/internal/server"
	"github.com/helloword214/zmstore-pos-sub004/internal/settlement"
	"github.com/helloword214/zmstore-pos-sub004/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(newSnowflakeNode),
		fx.Provide(newMonitorConfig),
		db.Module,
		clock.Module,
		migration.Module,
		fx.Invoke(runSeed),

		charge.Module,
		settlement.Module,
		ledger.Module,
		balances.Module,
		monitor.Module,
		audit.Module,
		server.Module,
	)
	app.Run()
}

func newSnowflakeNode() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

func newMonitorConfig(cfg config.Config) monitor.Config {
	return monitor.Config{PollInterval: cfg.Monitor.PollInterval}
}

func runSeed(conn *gorm.DB, cfg config.Config, node *snowflake.Node) error {
	if !cfg.Seed.Enabled {
		return nil
	}
	return seed.EnsureDemoData(conn, node)
}
