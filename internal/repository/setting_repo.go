package repository

import (
	"context"

	"staticblog/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// GetAllSettings retrieves all settings as a map.
func (r *SettingRepository) GetAllSettings(ctx context.Context) (map[string]string, error) {
	var settings []models.Setting
	if err := r.db.WithContext(ctx).Find(&settings).Error; err != nil {
		return nil, err
	}

	settingsMap := make(map[string]string, len(settings))
	for _, s := range settings {
		settingsMap[s.Key] = s.Value
	}
	return settingsMap, nil
}

// UpdateSettings upserts every pair in one transaction.
func (r *SettingRepository) UpdateSettings(ctx context.Context, values map[string]string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for key, value := range values {
			setting := models.Setting{Key: key, Value: value}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value"}),
			}).Create(&setting).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}
