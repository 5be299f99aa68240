package main

// store.go gorm-backed persistence for the five tables

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Store is the persistence contract of one resource table.
type Store[T any] interface {
	Insert(ctx context.Context, rec *T) error
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id uint) (*T, error)
	Update(ctx context.Context, id uint, cols map[string]any) (int64, error)
	Delete(ctx context.Context, id uint) (int64, error)
}

// AdminStore adds the lookups the credential service needs.
type AdminStore interface {
	Store[AdminAccount]
	FindByEmail(ctx context.Context, email string) (*AdminAccount, error)
	Count(ctx context.Context) (int64, error)
}

func openDB(cfg *Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DatabaseDSN)
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.DBDriver == "sqlite" {
		// sqlite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	}
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}

type gormStore[T any] struct {
	db *gorm.DB
}

func newGormStore[T any](db *gorm.DB) *gormStore[T] {
	return &gormStore[T]{db: db}
}

func (s *gormStore[T]) Insert(ctx context.Context, rec *T) error {
	return translate(s.db.WithContext(ctx).Create(rec).Error)
}

func (s *gormStore[T]) List(ctx context.Context) ([]T, error) {
	out := []T{}
	if err := s.db.WithContext(ctx).Order("id").Find(&out).Error; err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (s *gormStore[T]) Get(ctx context.Context, id uint) (*T, error) {
	var rec T
	if err := s.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

func (s *gormStore[T]) Update(ctx context.Context, id uint, cols map[string]any) (int64, error) {
	result := s.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(cols)
	if result.Error != nil {
		return 0, translate(result.Error)
	}
	return result.RowsAffected, nil
}

func (s *gormStore[T]) Delete(ctx context.Context, id uint) (int64, error) {
	result := s.db.WithContext(ctx).Delete(new(T), id)
	if result.Error != nil {
		return 0, translate(result.Error)
	}
	return result.RowsAffected, nil
}

type gormAdminStore struct {
	*gormStore[AdminAccount]
}

func newAdminStore(db *gorm.DB) *gormAdminStore {
	return &gormAdminStore{gormStore: newGormStore[AdminAccount](db)}
}

func (s *gormAdminStore) FindByEmail(ctx context.Context, email string) (*AdminAccount, error) {
	var admin AdminAccount
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&admin).Error; err != nil {
		return nil, translate(err)
	}
	return &admin, nil
}

func (s *gormAdminStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&AdminAccount{}).Count(&n).Error; err != nil {
		return 0, translate(err)
	}
	return n, nil
}

// translate maps gorm errors onto the service error kinds.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}
