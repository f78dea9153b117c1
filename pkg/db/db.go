// Package db provides the shared gorm connection as an fx module.
package db

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/SystonTigers/receptionist-sub000/internal/config"
)

var Module = fx.Module("db",
	fx.Provide(NewConnection),
)

// NewConnection opens the postgres connection, applies pool settings and
// registers a lifecycle hook that closes it on shutdown.
func NewConnection(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	dsn := cfg.Database.DSN()
	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return sqlDB.PingContext(ctx)
		},
		OnStop: func(ctx context.Context) error {
			log.Info("closing database connection")
			return sqlDB.Close()
		},
	})

	return conn, nil
}
