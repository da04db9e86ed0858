package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SECUREATTEND/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBackend stores snapshots as rows of the snapshots table.
type GormBackend struct {
	db *gorm.DB
}

func NewGormBackend(db *gorm.DB) *GormBackend {
	return &GormBackend{db: db}
}

func (g *GormBackend) Load(ctx context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	var row models.Snapshot
	err := g.db.WithContext(ctx).Where(&models.Snapshot{Key: key}).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", key, err)
	}
	if len(row.Payload) == 0 {
		return nil, ErrNotFound
	}
	return row.Payload, nil
}

func (g *GormBackend) Replace(ctx context.Context, key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	row := models.Snapshot{Key: key, Payload: data, UpdatedAt: time.Now()}
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).Create(&row).Error
	})
	if err != nil {
		return fmt.Errorf("replace snapshot %s: %w", key, err)
	}
	return nil
}
