package balances

import (
	"go.uber.org/fx"

	"github.com/helloword214/zmstore-pos-sub004/internal/balances/service"
)

var Module = fx.Module("balances.service",
	fx.Provide(service.NewService),
)
