package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Car is a vehicle driven by one driver. Its CompanyID always mirrors the driver's.
type Car struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name         string    `json:"name"`
	PlateNumber  string    `json:"plate_number"`
	Model        string    `json:"model"`
	Year         *int      `json:"year"`
	EngineNumber string    `json:"engine_number"`
	Color        string    `json:"color"`
	PictureURL   *string   `json:"picture_url"`
	CompanyID    string    `json:"company_id" gorm:"type:varchar(36);index;not null"`
	DriverID     string    `json:"driver_id" gorm:"type:varchar(36);index;not null"`
	CreatedAt    time.Time `json:"created_at"`

	Driver *Driver `json:"drivers,omitempty" gorm:"foreignKey:DriverID"`
}

func (c *Car) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
