// Package migration applies the embedded schema files in order.
package migration

import (
	"context"
	"embed"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationsDir = "migrations"

//go:embed migrations/*.up.sql
var embeddedMigrations embed.FS

// Run applies every embedded *.up.sql file that has not been recorded in
// schema_migrations yet, in lexical order.
func Run(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
	if err := db.WithContext(ctx).Exec(
		`CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	).Error; err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := embeddedMigrations.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		applied, err := isApplied(ctx, db, name)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		script, err := embeddedMigrations.ReadFile(migrationsDir + "/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(string(script)).Error; err != nil {
				return err
			}
			return tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, name).Error
		})
		if err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		log.Info("migration applied", zap.String("version", name))
	}
	return nil
}

func isApplied(ctx context.Context, db *gorm.DB, version string) (bool, error) {
	var count int64
	if err := db.WithContext(ctx).
		Table("schema_migrations").
		Where("version = ?", version).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
