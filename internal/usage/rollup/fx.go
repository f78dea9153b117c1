package rollup

import (
	"context"

	"go.uber.org/fx"

	"github.com/SystonTigers/receptionist-sub000/internal/config"
)

var Module = fx.Module("usage.rollup",
	fx.Provide(func(cfg config.Config) Config {
		return Config{Interval: cfg.Rollup.Interval}
	}),
	fx.Provide(NewWorker),
	fx.Invoke(runWorker),
)

func runWorker(lc fx.Lifecycle, worker *Worker) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go worker.RunForever(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
