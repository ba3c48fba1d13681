package charge

import (
	"go.uber.org/fx"

	"github.com/helloword214/zmstore-pos-sub004/internal/charge/service"
)

var Module = fx.Module("charge.resolver",
	fx.Provide(service.NewResolver),
)
