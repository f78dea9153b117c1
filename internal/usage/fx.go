package usage

import (
	"go.uber.org/fx"

	"github.com/SystonTigers/receptionist-sub000/internal/usage/overview"
	"github.com/SystonTigers/receptionist-sub000/internal/usage/service"
)

var Module = fx.Module("usage",
	fx.Provide(service.NewService),
	fx.Provide(overview.NewBuilder),
)
