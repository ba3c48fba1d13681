package settlement

import (
	"go.uber.org/fx"

	"github.com/helloword214/zmstore-pos-sub004/internal/settlement/repository"
)

var Module = fx.Module("settlement.repository",
	fx.Provide(repository.NewRepository),
)
