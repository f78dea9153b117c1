// Package option provides composable query modifiers for repository reads.
package option

import "gorm.io/gorm"

// Option narrows or orders a repository query.
type Option func(*gorm.DB) *gorm.DB

// Where appends a conditional clause.
func Where(query string, args ...any) Option {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where(query, args...)
	}
}

// Limit caps the number of returned rows.
func Limit(n int) Option {
	return func(tx *gorm.DB) *gorm.DB {
		if n <= 0 {
			return tx
		}
		return tx.Limit(n)
	}
}

// OrderAsc sorts ascending by a column.
func OrderAsc(column string) Option {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Order(column + " ASC")
	}
}

// OrderDesc sorts descending by a column.
func OrderDesc(column string) Option {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Order(column + " DESC")
	}
}
