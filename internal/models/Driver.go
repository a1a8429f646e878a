package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Driver struct {
	ID                    string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name                  string     `json:"name"`
	Email                 string     `json:"email" gorm:"uniqueIndex"`
	PhoneNumber           string     `json:"phone_number"`
	Address               string     `json:"address"`
	DateOfBirth           string     `json:"date_of_birth"`
	NextOfKinName         string     `json:"next_of_kin_name"`
	NextOfKinPhoneNumber  string     `json:"next_of_kin_phone_number"`
	NextOfKinRelationship string     `json:"next_of_kin_relationship"`
	NextOfKinAddress      string     `json:"next_of_kin_address"`
	NextOfKinWorkAddress  string     `json:"next_of_kin_work_address"`
	LicenseNumber         string     `json:"license_number"`
	Latitude              *float64   `json:"latitude"`
	Longitude             *float64   `json:"longitude"`
	LastUpdated           *time.Time `json:"last_updated"`
	CompanyID             string     `json:"company_id" gorm:"type:varchar(36);index;not null"`
	CreatedBy             string     `json:"created_by" gorm:"type:varchar(36)"`
	CreatedAt             time.Time  `json:"created_at"`
}

func (d *Driver) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// HasPosition reports whether the driver has stored last-known coordinates.
func (d *Driver) HasPosition() bool {
	return d.Latitude != nil && d.Longitude != nil
}
