package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"fleet_tracker/internal/models"
)

type DriverRepository struct{ DB *gorm.DB }

func NewDriverRepository(db *gorm.DB) *DriverRepository { return &DriverRepository{DB: db} }

func (r *DriverRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Driver{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *DriverRepository) Create(ctx context.Context, driver *models.Driver) error {
	return r.DB.WithContext(ctx).Create(driver).Error
}

// ListByCompany returns the tenant's drivers newest first.
func (r *DriverRepository) ListByCompany(ctx context.Context, companyID string) ([]models.Driver, error) {
	var drivers []models.Driver
	if err := r.DB.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at DESC").
		Find(&drivers).Error; err != nil {
		return nil, err
	}
	return drivers, nil
}

// FindInCompany loads a driver only if it belongs to companyID.
func (r *DriverRepository) FindInCompany(ctx context.Context, companyID, id string) (*models.Driver, error) {
	var driver models.Driver
	if err := r.DB.WithContext(ctx).
		Where("id = ? AND company_id = ?", id, companyID).
		First(&driver).Error; err != nil {
		return nil, err
	}
	return &driver, nil
}

// UpdateLocation stores the driver's last-known coordinates.
func (r *DriverRepository) UpdateLocation(ctx context.Context, id string, lat, lng float64, at time.Time) error {
	res := r.DB.WithContext(ctx).Model(&models.Driver{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"latitude":     lat,
			"longitude":    lng,
			"last_updated": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
