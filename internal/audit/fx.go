package audit

import (
	"go.uber.org/fx"

	"github.com/helloword214/zmstore-pos-sub004/internal/audit/repository"
	"github.com/helloword214/zmstore-pos-sub004/internal/audit/service"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
