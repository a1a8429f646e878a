// Package livemap keeps one marker per driver for a live map, fed by full
// snapshots or by realtime driver changes.
package livemap

import (
	"sort"
	"sync"
	"time"

	"fleet_tracker/internal/models"
	"fleet_tracker/internal/realtime"
)

// CarInfo is the vehicle detail shown in a marker popup.
type CarInfo struct {
	Name        string  `json:"name"`
	PlateNumber string  `json:"plate_number"`
	Model       string  `json:"model"`
	Color       string  `json:"color"`
	PictureURL  *string `json:"picture_url,omitempty"`
}

type Marker struct {
	DriverID    string   `json:"driver_id"`
	Name        string   `json:"name"`
	PhoneNumber string   `json:"phone_number,omitempty"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	LastUpdated string   `json:"last_updated,omitempty"`
	Live        bool     `json:"live"` // position came from the fleet service
	Car         *CarInfo `json:"car,omitempty"`
}

// Plottable reports whether the marker has a position to draw.
func (m Marker) Plottable() bool {
	return m.Latitude != nil && m.Longitude != nil
}

// Board is safe for concurrent use.
type Board struct {
	mu      sync.RWMutex
	markers map[string]*Marker
}

func NewBoard() *Board {
	return &Board{markers: make(map[string]*Marker)}
}

// Load replaces the whole board with a snapshot.
func (b *Board) Load(snapshot []models.DriverWithCar) {
	markers := make(map[string]*Marker, len(snapshot))
	for i := range snapshot {
		m := markerFromSnapshot(&snapshot[i])
		markers[m.DriverID] = m
	}

	b.mu.Lock()
	b.markers = markers
	b.mu.Unlock()
}

// Apply merges a change into the board. Only the fields present in the change
// are replaced; unknown drivers are added. Changes are applied in arrival order.
func (b *Board) Apply(ch realtime.Change) {
	if ch.DriverID == "" {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	m, ok := b.markers[ch.DriverID]
	if !ok {
		m = &Marker{DriverID: ch.DriverID}
		b.markers[ch.DriverID] = m
	}

	if v, ok := ch.Fields["name"]; ok {
		if s, ok := v.(string); ok {
			m.Name = s
		}
	}
	if v, ok := ch.Fields["phone_number"]; ok {
		if s, ok := v.(string); ok {
			m.PhoneNumber = s
		}
	}
	_, hasLat := ch.Fields["latitude"]
	_, hasLng := ch.Fields["longitude"]
	if hasLat || hasLng {
		if hasLat {
			m.Latitude = toFloat(ch.Fields["latitude"])
		}
		if hasLng {
			m.Longitude = toFloat(ch.Fields["longitude"])
		}
		m.Live = false
	}
	if v, ok := ch.Fields["last_updated"]; ok {
		s, _ := v.(string)
		m.LastUpdated = s
	}
}

// Markers returns a copy of every marker, ordered by name then driver id.
func (b *Board) Markers() []Marker {
	b.mu.RLock()
	out := make([]Marker, 0, len(b.markers))
	for _, m := range b.markers {
		out = append(out, *m)
	}
	b.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].DriverID < out[j].DriverID
	})
	return out
}

// Plotted returns only the markers with a position.
func (b *Board) Plotted() []Marker {
	all := b.Markers()
	out := all[:0]
	for _, m := range all {
		if m.Plottable() {
			out = append(out, m)
		}
	}
	return out
}

func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.markers)
}

func markerFromSnapshot(d *models.DriverWithCar) *Marker {
	m := &Marker{
		DriverID:    d.ID,
		Name:        d.Name,
		PhoneNumber: d.PhoneNumber,
		Latitude:    d.Latitude,
		Longitude:   d.Longitude,
	}
	if d.LastUpdated != nil {
		m.LastUpdated = d.LastUpdated.UTC().Format(time.RFC3339Nano)
	}
	if loc := d.CurrentLocation; loc != nil {
		lat, lng := loc.Latitude, loc.Longitude
		m.Latitude, m.Longitude = &lat, &lng
		m.LastUpdated = loc.LastUpdated
		m.Live = true
	}
	if car := d.Car; car != nil {
		m.Car = &CarInfo{
			Name:        car.Name,
			PlateNumber: car.PlateNumber,
			Model:       car.Model,
			Color:       car.Color,
			PictureURL:  car.PictureURL,
		}
	}
	return m
}

func toFloat(v any) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case *float64:
		return n
	case int:
		f := float64(n)
		return &f
	default:
		return nil
	}
}
