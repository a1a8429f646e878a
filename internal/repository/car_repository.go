package repository

import (
	"context"

	"gorm.io/gorm"

	"fleet_tracker/internal/models"
)

type CarRepository struct{ DB *gorm.DB }

func NewCarRepository(db *gorm.DB) *CarRepository { return &CarRepository{DB: db} }

func (r *CarRepository) Create(ctx context.Context, car *models.Car) error {
	return r.DB.WithContext(ctx).Create(car).Error
}

// Save updates every column of an existing car.
func (r *CarRepository) Save(ctx context.Context, car *models.Car) error {
	return r.DB.WithContext(ctx).Omit("Driver").Save(car).Error
}

// ListByDriverIDs returns cars oldest first, so the first car per driver comes first.
func (r *CarRepository) ListByDriverIDs(ctx context.Context, driverIDs []string) ([]models.Car, error) {
	if len(driverIDs) == 0 {
		return []models.Car{}, nil
	}
	var cars []models.Car
	if err := r.DB.WithContext(ctx).
		Where("driver_id IN ?", driverIDs).
		Order("created_at ASC").
		Find(&cars).Error; err != nil {
		return nil, err
	}
	return cars, nil
}

// ListByCompany returns the tenant's cars newest first with the driver's name.
func (r *CarRepository) ListByCompany(ctx context.Context, companyID string) ([]models.Car, error) {
	var cars []models.Car
	if err := r.DB.WithContext(ctx).
		Preload("Driver", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name")
		}).
		Where("company_id = ?", companyID).
		Order("created_at DESC").
		Find(&cars).Error; err != nil {
		return nil, err
	}
	return cars, nil
}

// FindByDriver returns the driver's first car.
func (r *CarRepository) FindByDriver(ctx context.Context, driverID string) (*models.Car, error) {
	var car models.Car
	if err := r.DB.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Order("created_at ASC").
		First(&car).Error; err != nil {
		return nil, err
	}
	return &car, nil
}

func (r *CarRepository) FindInCompany(ctx context.Context, companyID, id string) (*models.Car, error) {
	var car models.Car
	if err := r.DB.WithContext(ctx).
		Where("id = ? AND company_id = ?", id, companyID).
		First(&car).Error; err != nil {
		return nil, err
	}
	return &car, nil
}

func (r *CarRepository) UpdatePicture(ctx context.Context, id, url string) error {
	return r.DB.WithContext(ctx).Model(&models.Car{}).
		Where("id = ?", id).
		Update("picture_url", url).Error
}
