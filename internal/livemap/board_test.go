package livemap

import (
	"encoding/json"
	"testing"

	"fleet_tracker/internal/models"
	"fleet_tracker/internal/realtime"
)

func ptr(f float64) *float64 { return &f }

func snapshot() []models.DriverWithCar {
	return []models.DriverWithCar{
		{
			Driver: models.Driver{ID: "d1", Name: "Ann", Latitude: ptr(1), Longitude: ptr(2)},
			Car:    &models.Car{Name: "Van", PlateNumber: "KAA 1"},
		},
		{
			Driver:          models.Driver{ID: "d2", Name: "Ben", Latitude: ptr(5), Longitude: ptr(6)},
			CurrentLocation: &models.LiveLocation{Latitude: 7, Longitude: 8, LastUpdated: "2024-01-01T00:00:00Z"},
		},
		{
			Driver: models.Driver{ID: "d3", Name: "Cat"},
		},
	}
}

func TestLoadPrefersLiveLocation(t *testing.T) {
	b := NewBoard()
	b.Load(snapshot())

	markers := b.Markers()
	if len(markers) != 3 {
		t.Fatalf("expected 3 markers, got %d", len(markers))
	}

	ben := markers[1]
	if !ben.Live || *ben.Latitude != 7 || *ben.Longitude != 8 {
		t.Fatalf("expected live position for Ben, got %+v", ben)
	}
	ann := markers[0]
	if ann.Live || *ann.Latitude != 1 || ann.Car == nil || ann.Car.Name != "Van" {
		t.Fatalf("expected stored position and car for Ann, got %+v", ann)
	}
}

func TestUnplottableMarkersAreKeptButNotPlotted(t *testing.T) {
	b := NewBoard()
	b.Load(snapshot())

	if b.Len() != 3 {
		t.Fatalf("expected 3 markers on the board, got %d", b.Len())
	}
	if got := len(b.Plotted()); got != 2 {
		t.Fatalf("expected 2 plotted markers, got %d", got)
	}
	if got := len(b.FeatureCollection().Features); got != 2 {
		t.Fatalf("expected 2 features, got %d", got)
	}
}

func TestLoadReplacesBoard(t *testing.T) {
	b := NewBoard()
	b.Load(snapshot())
	b.Load([]models.DriverWithCar{{Driver: models.Driver{ID: "d9", Name: "Zed"}}})

	markers := b.Markers()
	if len(markers) != 1 || markers[0].DriverID != "d9" {
		t.Fatalf("expected only d9 after reload, got %+v", markers)
	}
}

func TestApply(t *testing.T) {
	b := NewBoard()
	b.Load(snapshot())

	b.Apply(realtime.Change{Op: realtime.OpUpdate, DriverID: "d1", Fields: map[string]any{
		"latitude":  10.5,
		"longitude": 20.5,
	}})
	b.Apply(realtime.Change{Op: realtime.OpInsert, DriverID: "d4", Fields: map[string]any{
		"name": "Dan",
	}})

	markers := b.Markers()
	byID := map[string]Marker{}
	for _, m := range markers {
		byID[m.DriverID] = m
	}

	ann := byID["d1"]
	if *ann.Latitude != 10.5 || *ann.Longitude != 20.5 || ann.Name != "Ann" || ann.Car == nil {
		t.Fatalf("expected d1 position replaced and other fields kept, got %+v", ann)
	}
	if dan, ok := byID["d4"]; !ok || dan.Name != "Dan" || dan.Plottable() {
		t.Fatalf("expected unknown driver to be added without a position, got %+v", dan)
	}
}

func TestApplyLastArrivalWins(t *testing.T) {
	b := NewBoard()
	b.Apply(realtime.Change{DriverID: "d1", Fields: map[string]any{"latitude": 1.0, "longitude": 1.0, "last_updated": "2024-01-02T00:00:00Z"}})
	b.Apply(realtime.Change{DriverID: "d1", Fields: map[string]any{"latitude": 2.0, "longitude": 2.0, "last_updated": "2024-01-01T00:00:00Z"}})

	m := b.Markers()[0]
	if *m.Latitude != 2 || m.LastUpdated != "2024-01-01T00:00:00Z" {
		t.Fatalf("expected the later arrival to win, got %+v", m)
	}
}

func TestFeatureCollectionJSON(t *testing.T) {
	b := NewBoard()
	b.Load(snapshot()[:1])

	data, err := json.Marshal(b.FeatureCollection())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out struct {
		Type     string `json:"type"`
		Features []struct {
			ID       string `json:"id"`
			Geometry struct {
				Type        string    `json:"type"`
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Type != "FeatureCollection" || len(out.Features) != 1 {
		t.Fatalf("unexpected collection %s", data)
	}
	f := out.Features[0]
	if f.ID != "d1" || f.Geometry.Type != "Point" {
		t.Fatalf("unexpected feature %s", data)
	}
	if f.Geometry.Coordinates[0] != 2 || f.Geometry.Coordinates[1] != 1 {
		t.Fatalf("expected [lng, lat] coordinates, got %v", f.Geometry.Coordinates)
	}
	if f.Properties["plate_number"] != "KAA 1" {
		t.Fatalf("expected car details in properties, got %v", f.Properties)
	}
}
