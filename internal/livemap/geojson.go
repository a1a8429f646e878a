package livemap

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// FeatureCollection renders the plottable markers as GeoJSON points. The
// marker details travel as feature properties for the map popup.
func (b *Board) FeatureCollection() *geojson.FeatureCollection {
	plotted := b.Plotted()
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(plotted))}
	for _, m := range plotted {
		fc.Features = append(fc.Features, toFeature(m))
	}
	return fc
}

func toFeature(m Marker) *geojson.Feature {
	props := map[string]interface{}{
		"name":         m.Name,
		"live":         m.Live,
		"last_updated": m.LastUpdated,
	}
	if m.PhoneNumber != "" {
		props["phone_number"] = m.PhoneNumber
	}
	if m.Car != nil {
		props["car_name"] = m.Car.Name
		props["plate_number"] = m.Car.PlateNumber
		props["car_model"] = m.Car.Model
		props["car_color"] = m.Car.Color
		if m.Car.PictureURL != nil {
			props["car_picture_url"] = *m.Car.PictureURL
		}
	}
	return &geojson.Feature{
		ID:         m.DriverID,
		Geometry:   geom.NewPointFlat(geom.XY, []float64{*m.Longitude, *m.Latitude}),
		Properties: props,
	}
}
