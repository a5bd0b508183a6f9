package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry is the row backing one key in the postgres store
type Entry struct {
	Key       string    `gorm:"primaryKey;size:255"`
	Value     []byte    `gorm:"type:bytea;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName pins the table name regardless of naming strategy
func (Entry) TableName() string { return "kv_entries" }

// Gorm keeps every key as a row in kv_entries
type Gorm struct {
	db *gorm.DB
}

// NewGorm wraps db and migrates the kv_entries table
func NewGorm(db *gorm.DB) (*Gorm, error) {
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate kv_entries: %w", err)
	}
	return &Gorm{db: db}, nil
}

func (g *Gorm) Name() string { return "postgres" }

func (g *Gorm) Ping(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (g *Gorm) Get(ctx context.Context, key string) ([]byte, error) {
	var entry Entry
	err := g.db.WithContext(ctx).Where("key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("kv get %s: %w", key, err)
	}
	return entry.Value, nil
}

func (g *Gorm) Set(ctx context.Context, key string, value []byte) error {
	return g.upsert(g.db.WithContext(ctx), key, value)
}

func (g *Gorm) Delete(ctx context.Context, key string) error {
	if err := g.db.WithContext(ctx).Where("key = ?", key).Delete(&Entry{}).Error; err != nil {
		return fmt.Errorf("kv delete %s: %w", key, err)
	}
	return nil
}

func (g *Gorm) Update(ctx context.Context, key string, fn UpdateFunc) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Make sure the row exists so FOR UPDATE has something to lock.
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&Entry{Key: key, Value: []byte{}}).Error; err != nil {
			return fmt.Errorf("kv update %s: %w", key, err)
		}

		var entry Entry
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("key = ?", key).First(&entry).Error; err != nil {
			return fmt.Errorf("kv update %s: %w", key, err)
		}

		current := entry.Value
		if len(current) == 0 {
			current = nil
		}

		next, err := fn(current)
		if err != nil {
			return err
		}
		if next == nil {
			return tx.Where("key = ?", key).Delete(&Entry{}).Error
		}
		return g.upsert(tx, key, next)
	})
}

func (g *Gorm) upsert(db *gorm.DB, key string, value []byte) error {
	entry := Entry{Key: key, Value: value}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("kv set %s: %w", key, err)
	}
	return nil
}
