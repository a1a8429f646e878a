package repository

import (
	"context"

	"gorm.io/gorm"

	"fleet_tracker/internal/models"
)

type LocationHistoryRepository struct{ DB *gorm.DB }

func NewLocationHistoryRepository(db *gorm.DB) *LocationHistoryRepository {
	return &LocationHistoryRepository{DB: db}
}

func (r *LocationHistoryRepository) Append(ctx context.Context, entry *models.LocationHistory) error {
	return r.DB.WithContext(ctx).Create(entry).Error
}

// Last returns the most recent point for the driver.
func (r *LocationHistoryRepository) Last(ctx context.Context, driverID string) (*models.LocationHistory, error) {
	var entry models.LocationHistory
	if err := r.DB.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Order("recorded_at DESC").
		Order("id DESC").
		First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// Latest returns up to limit points, newest first.
func (r *LocationHistoryRepository) Latest(ctx context.Context, driverID string, limit int) ([]models.LocationHistory, error) {
	var entries []models.LocationHistory
	if err := r.DB.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Order("recorded_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
