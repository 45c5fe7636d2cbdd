package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// BaseRepository generic Repository base class
type BaseRepository[T any] struct {
	db *gorm.DB
}

func NewBaseRepository[T any](db *gorm.DB) *BaseRepository[T] {
	return &BaseRepository[T]{db: db}
}

// DB returns the database handle
func (r *BaseRepository[T]) DB() *gorm.DB {
	return r.db
}

// Create inserts entity; unique violations become ErrDuplicateKey
func (r *BaseRepository[T]) Create(ctx context.Context, entity *T) error {
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create record: %w", err)
	}
	return nil
}

// FindByID returns ErrRecordNotFound for a missing id
func (r *BaseRepository[T]) FindByID(ctx context.Context, id any) (*T, error) {
	var entity T
	err := r.db.WithContext(ctx).First(&entity, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query record (id=%v): %w", id, err)
	}
	return &entity, nil
}

// FindOne returns the first record matching query
func (r *BaseRepository[T]) FindOne(ctx context.Context, query string, args ...any) (*T, error) {
	var entity T
	err := r.db.WithContext(ctx).Where(query, args...).First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query record: %w", err)
	}
	return &entity, nil
}

// Update saves every field of entity
func (r *BaseRepository[T]) Update(ctx context.Context, entity *T) error {
	if err := r.db.WithContext(ctx).Save(entity).Error; err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	return nil
}

// UpdateColumns updates selected columns of the record with id
func (r *BaseRepository[T]) UpdateColumns(ctx context.Context, id any, values map[string]any) error {
	var entity T
	if err := r.db.WithContext(ctx).Model(&entity).Where("id = ?", id).Updates(values).Error; err != nil {
		return fmt.Errorf("update record (id=%v): %w", id, err)
	}
	return nil
}

// Exists check if record exists
func (r *BaseRepository[T]) Exists(ctx context.Context, query string, args ...any) (bool, error) {
	var count int64
	var entity T
	if err := r.db.WithContext(ctx).Model(&entity).Where(query, args...).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count records: %w", err)
	}
	return count > 0, nil
}

// Count Statistic record count
func (r *BaseRepository[T]) Count(ctx context.Context) (int64, error) {
	var count int64
	var entity T
	if err := r.db.WithContext(ctx).Model(&entity).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}

// Transaction execution
func (r *BaseRepository[T]) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}
