package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// StorageItem is one persisted key/value row.
type StorageItem struct {
	Key       string `gorm:"primaryKey;size:255"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

// TableName pins the table name.
func (StorageItem) TableName() string {
	return "storage_items"
}

// PostgresOptions configures a PostgresStore.
type PostgresOptions struct {
	DSN             string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// PostgresStore keeps values in a PostgreSQL table. Updates on the same key
// are serialised with a transaction-scoped advisory lock.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore connects and migrates the storage table.
func NewPostgresStore(ctx context.Context, opts PostgresOptions) (*PostgresStore, error) {
	if opts.DSN == "" {
		return nil, fmt.Errorf("database DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(opts.DSN), &gorm.Config{
		PrepareStmt: true,
		Logger:      gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("retrieve sql db: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err := db.WithContext(ctx).AutoMigrate(&StorageItem{}); err != nil {
		return nil, fmt.Errorf("migrate storage table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (p *PostgresStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	if err := checkKey(key); err != nil {
		return "", false, err
	}
	return getRow(p.db.WithContext(ctx), key)
}

func (p *PostgresStore) SetItem(ctx context.Context, key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	return upsertRow(p.db.WithContext(ctx), key, value)
}

func (p *PostgresStore) UpdateData(ctx context.Context, key string, fn UpdateFunc) error {
	if err := checkKey(key); err != nil {
		return err
	}

	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error; err != nil {
			return fmt.Errorf("lock %s: %w", key, err)
		}

		current, exists, err := getRow(tx, key)
		if err != nil {
			return err
		}
		next, err := fn(current, exists)
		if err != nil {
			return err
		}
		return upsertRow(tx, key, next)
	})
}

// Close releases the connection pool.
func (p *PostgresStore) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func getRow(db *gorm.DB, key string) (string, bool, error) {
	var item StorageItem
	err := db.Where("key = ?", key).Take(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return item.Value, true, nil
}

func upsertRow(db *gorm.DB, key, value string) error {
	item := StorageItem{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&item).Error
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}
