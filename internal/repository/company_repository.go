package repository

import (
	"context"

	"gorm.io/gorm"

	"fleet_tracker/internal/models"
)

type CompanyRepository struct{ DB *gorm.DB }

func NewCompanyRepository(db *gorm.DB) *CompanyRepository { return &CompanyRepository{DB: db} }

func (r *CompanyRepository) Create(ctx context.Context, company *models.Company) error {
	return r.DB.WithContext(ctx).Create(company).Error
}

func (r *CompanyRepository) FindByID(ctx context.Context, id string) (*models.Company, error) {
	var company models.Company
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}
