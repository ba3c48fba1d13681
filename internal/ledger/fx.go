package ledger

import (
	"go.uber.org/fx"

	"github.com/helloword214/zmstore-pos-sub004/internal/ledger/service"
)

var Module = fx.Module("ledger.service",
	fx.Provide(service.NewService),
)
