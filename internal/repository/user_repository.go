package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fleet_tracker/internal/models"
)

// UserRepository talks to the users table only.
type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Update applies a partial update to one row. It reports how many rows matched.
func (r *UserRepository) Update(ctx context.Context, id string, updates map[string]any) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
	return res.RowsAffected, res.Error
}

// UpsertCompanyAdmin points the user at companyID with the COMPANY_ADMIN role,
// inserting the row when it does not exist yet. Other columns are left alone.
func (r *UserRepository) UpsertCompanyAdmin(ctx context.Context, id, email, companyID string) error {
	user := models.User{
		ID:              id,
		Email:           email,
		CompanyID:       &companyID,
		Role:            models.RoleCompanyAdmin,
		OnboardingStage: models.StageComplete,
	}
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"company_id", "role", "onboarding_stage", "updated_at"}),
	}).Create(&user).Error
}
