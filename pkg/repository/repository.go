// Package repository provides a thin generic gorm store for domain models.
package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/SystonTigers/receptionist-sub000/pkg/db/option"
)

// Repository exposes the store operations shared by domain services.
// Aggregation paths that need SQL beyond this surface use raw queries.
type Repository[T any] interface {
	Create(ctx context.Context, record *T) error
	Find(ctx context.Context, filter *T, opts ...option.Option) ([]*T, error)
}

type store[T any] struct {
	db *gorm.DB
}

// ProvideStore builds a Repository bound to the given connection.
func ProvideStore[T any](db *gorm.DB) Repository[T] {
	return &store[T]{db: db}
}

func (s *store[T]) Create(ctx context.Context, record *T) error {
	return s.db.WithContext(ctx).Create(record).Error
}

func (s *store[T]) Find(ctx context.Context, filter *T, opts ...option.Option) ([]*T, error) {
	tx := s.db.WithContext(ctx).Model(new(T))
	if filter != nil {
		tx = tx.Where(filter)
	}
	for _, opt := range opts {
		tx = opt(tx)
	}

	var records []*T
	if err := tx.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
