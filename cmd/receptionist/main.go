package main

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/SystonTigers/receptionist-sub000/internal/clock"
	"github.com/SystonTigers/receptionist-sub000/internal/config"
	"github.com/SystonTigers/receptionist-sub000/internal/insight"
	"github.com/SystonTigers/receptionist-sub000/internal/insight/sweep"
	"github.com/SystonTigers/receptionist-sub000/internal/migration"
	"github.com/SystonTigers/receptionist-sub000/internal/observability"
	"github.com/SystonTigers/receptionist-sub000/internal/seed"
	"github.com/SystonTigers/receptionist-sub000/internal/server"
	"github.com/SystonTigers/receptionist-sub000/internal/telemetry"
	"github.com/SystonTigers/receptionist-sub000/internal/tenant"
	"github.com/SystonTigers/receptionist-sub000/internal/usage"
	"github.com/SystonTigers/receptionist-sub000/internal/usage/rollup"
	"github.com/SystonTigers/receptionist-sub000/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		tenant.Module,
		usage.Module,
		telemetry.Module,
		insight.Module,
		rollup.Module,
		sweep.Module,

		fx.Invoke(func(conn *gorm.DB, cfg config.Config, node *snowflake.Node, log *zap.Logger) error {
			if err := migration.Run(context.Background(), conn, log); err != nil {
				return err
			}
			if cfg.IsProduction() || !cfg.Bootstrap.EnsureDefaultTenant {
				return nil
			}
			return seed.EnsureDefaultTenant(conn, node, log)
		}),

		fx.Provide(server.NewEngine),
		fx.Provide(server.NewServer),
		fx.Invoke(func(s *server.Server) {
			s.RegisterAPIRoutes()
		}),
		fx.Invoke(server.RunHTTP),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
