package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser         = "USER"
	RoleCompanyAdmin = "COMPANY_ADMIN"
)

// OnboardingStage records how far a user got through onboarding.
// Steps can still be repeated or taken out of order; the stage only moves forward.
type OnboardingStage string

const (
	StageSignedUp     OnboardingStage = "SIGNED_UP"
	StagePersonalInfo OnboardingStage = "PERSONAL_INFO"
	StageComplete     OnboardingStage = "COMPLETE"
)

type User struct {
	ID              string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email           string          `json:"email" gorm:"uniqueIndex;not null"`
	Password        string          `json:"-"`
	FirstName       string          `json:"first_name"`
	LastName        string          `json:"last_name"`
	Name            string          `json:"name"`
	PhoneNumber     string          `json:"phone_number"`
	Address         string          `json:"address"`
	CompanyID       *string         `json:"company_id" gorm:"type:varchar(36);index"`
	Role            string          `json:"role" gorm:"default:USER"`
	OnboardingStage OnboardingStage `json:"onboarding_stage" gorm:"default:SIGNED_UP"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	Company *Company `json:"company,omitempty" gorm:"foreignKey:CompanyID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// IsCompanyAdmin reports whether the user may manage drivers and cars for a company.
func (u *User) IsCompanyAdmin() bool {
	return u.Role == RoleCompanyAdmin && u.CompanyID != nil && *u.CompanyID != ""
}
