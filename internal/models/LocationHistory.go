package models

import (
	"time"
)

type LocationHistory struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	DriverID         string    `json:"driver_id" gorm:"type:varchar(36);index"`
	Latitude         float64   `json:"latitude"`
	Longitude        float64   `json:"longitude"`
	DistanceFromLast float64   `json:"distance_from_last"` // metres from the previous point
	RecordedAt       time.Time `json:"recorded_at" gorm:"index"`
}
