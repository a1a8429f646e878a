// Package realtime fans driver-row changes out to live-map subscribers.
package realtime

import (
	"time"

	"fleet_tracker/internal/models"
)

const (
	OpInsert = "INSERT"
	OpUpdate = "UPDATE"
)

// Change is one driver-row change, scoped to the driver's company.
// Fields carries the changed columns under their column names.
type Change struct {
	Op        string         `json:"op"`
	DriverID  string         `json:"driver_id"`
	CompanyID string         `json:"company_id"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Notifier accepts changes for delivery. Notify must not block.
type Notifier interface {
	Notify(ch Change)
}

// Nop discards changes. Used when a database trigger is the change source.
type Nop struct{}

func (Nop) Notify(Change) {}

// DriverChange builds the change message for a driver row, carrying the same
// columns the database trigger sends.
func DriverChange(op string, d *models.Driver) Change {
	fields := map[string]any{
		"name":         d.Name,
		"latitude":     d.Latitude,
		"longitude":    d.Longitude,
		"last_updated": nil,
	}
	if d.LastUpdated != nil {
		fields["last_updated"] = d.LastUpdated.UTC().Format(time.RFC3339Nano)
	}
	return Change{Op: op, DriverID: d.ID, CompanyID: d.CompanyID, Fields: fields}
}
