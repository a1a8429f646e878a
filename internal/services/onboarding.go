package services

import (
	"context"

	logrus "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"fleet_tracker/internal/models"
	"fleet_tracker/internal/repository"
)

type PersonalInfo struct {
	FirstName   string
	LastName    string
	PhoneNumber string
	Address     string
}

type BusinessInfo struct {
	Name               string
	PhoneNumber        string
	Address            string
	RegistrationNumber string
}

// OnboardingService runs the two onboarding steps. Steps may be repeated or
// taken in either order; OnboardingStage only records the furthest step.
type OnboardingService struct {
	users     *repository.UserRepository
	companies *repository.CompanyRepository
}

func NewOnboardingService(users *repository.UserRepository, companies *repository.CompanyRepository) *OnboardingService {
	return &OnboardingService{users: users, companies: companies}
}

// SavePersonalInfo updates the caller's own row. A missing row is not an error.
func (s *OnboardingService) SavePersonalInfo(ctx context.Context, userID string, in PersonalInfo) error {
	stage := gorm.Expr("CASE WHEN onboarding_stage = ? THEN onboarding_stage ELSE ? END",
		string(models.StageComplete), string(models.StagePersonalInfo))
	updates := map[string]any{
		"first_name":       in.FirstName,
		"last_name":        in.LastName,
		"name":             fullName(in.FirstName, in.LastName),
		"phone_number":     in.PhoneNumber,
		"address":          in.Address,
		"onboarding_stage": stage,
	}
	n, err := s.users.Update(ctx, userID, updates)
	if err != nil {
		return storeError("update personal info", err)
	}
	if n == 0 {
		logrus.WithField("user_id", userID).Warn("Personal info submitted for a user with no row")
	}
	return nil
}

// SaveBusinessInfo inserts a new company, then makes the caller its admin.
// The two writes are independent: if the second fails the company stays.
func (s *OnboardingService) SaveBusinessInfo(ctx context.Context, userID, email string, in BusinessInfo) (*models.Company, error) {
	company := &models.Company{
		Name:               in.Name,
		PhoneNumber:        in.PhoneNumber,
		Address:            in.Address,
		RegistrationNumber: in.RegistrationNumber,
	}
	if err := s.companies.Create(ctx, company); err != nil {
		return nil, storeError("create company", err)
	}

	if err := s.users.UpsertCompanyAdmin(ctx, userID, email, company.ID); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id":    userID,
			"company_id": company.ID,
		}).Error("Company created but user upsert failed")
		return nil, storeError("upsert company admin", err)
	}
	return company, nil
}
