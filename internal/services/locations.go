package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	logrus "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"fleet_tracker/internal/events"
	"fleet_tracker/internal/fleet"
	"fleet_tracker/internal/metrics"
	"fleet_tracker/internal/models"
	"fleet_tracker/internal/realtime"
	"fleet_tracker/internal/repository"
)

const historyLimit = 100

type LocationService struct {
	drivers      *repository.DriverRepository
	cars         *repository.CarRepository
	history      *repository.LocationHistoryRepository
	fleet        FleetAPI
	fleetTimeout time.Duration
	notifier     realtime.Notifier
	events       events.Publisher
}

func NewLocationService(
	drivers *repository.DriverRepository,
	cars *repository.CarRepository,
	history *repository.LocationHistoryRepository,
	fleetAPI FleetAPI,
	fleetTimeout time.Duration,
	notifier realtime.Notifier,
	pub events.Publisher,
) *LocationService {
	return &LocationService{
		drivers:      drivers,
		cars:         cars,
		history:      history,
		fleet:        fleetAPI,
		fleetTimeout: fleetTimeout,
		notifier:     notifier,
		events:       pub,
	}
}

// Snapshot returns every driver of the company with its first car and, when
// the fleet service has one, its live position. The fleet service can only
// degrade the result, never fail it.
func (s *LocationService) Snapshot(ctx context.Context, companyID string) ([]models.DriverWithCar, error) {
	drivers, err := s.drivers.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, storeError("list drivers", err)
	}
	if len(drivers) == 0 {
		return []models.DriverWithCar{}, nil
	}

	ids := make([]string, len(drivers))
	for i := range drivers {
		ids[i] = drivers[i].ID
	}
	cars, err := s.cars.ListByDriverIDs(ctx, ids)
	if err != nil {
		return nil, storeError("list cars", err)
	}

	return mergeLocations(drivers, cars, s.liveVehicles(ctx)), nil
}

// fleetContext bounds a fleet call by the configured timeout, if any.
func (s *LocationService) fleetContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.fleetTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.fleetTimeout)
}

func (s *LocationService) liveVehicles(ctx context.Context) []fleet.Vehicle {
	ctx, cancel := s.fleetContext(ctx)
	defer cancel()

	vehicles, err := s.fleet.ListVehicles(ctx)
	if err != nil {
		if errors.Is(err, fleet.ErrNotConfigured) {
			logrus.Debug("Fleet API not configured, serving stored locations only")
			return nil
		}
		metrics.BestEffortFailures.WithLabelValues("fleet_fetch").Inc()
		logrus.WithError(err).Warn("Fetching live vehicle locations failed, serving stored locations only")
		return nil
	}
	return vehicles
}

// mergeLocations attaches to each driver its first car (cars are expected
// oldest first) and the live location of the vehicle keyed by its id.
func mergeLocations(drivers []models.Driver, cars []models.Car, vehicles []fleet.Vehicle) []models.DriverWithCar {
	firstCar := make(map[string]*models.Car, len(cars))
	for i := range cars {
		if _, seen := firstCar[cars[i].DriverID]; !seen {
			firstCar[cars[i].DriverID] = &cars[i]
		}
	}

	live := make(map[string]*models.LiveLocation, len(vehicles))
	for _, v := range vehicles {
		if v.LastLocation == nil {
			continue
		}
		live[v.VehicleID] = &models.LiveLocation{
			Latitude:    v.LastLocation.LatLng.Latitude,
			Longitude:   v.LastLocation.LatLng.Longitude,
			LastUpdated: v.LastLocation.Time,
		}
	}

	out := make([]models.DriverWithCar, len(drivers))
	for i, d := range drivers {
		out[i] = models.DriverWithCar{
			Driver:          d,
			Car:             firstCar[d.ID],
			CurrentLocation: live[d.ID],
		}
	}
	return out
}

// UpdateDriverLocation stores the driver's new position, records it in the
// history and tells live-map subscribers. Pushing the position to the fleet
// service is best-effort; the returned bool reports whether it succeeded.
func (s *LocationService) UpdateDriverLocation(ctx context.Context, companyID, driverID string, lat, lng float64) (bool, error) {
	if err := validateCoordinates(lat, lng); err != nil {
		return false, err
	}
	driver, err := s.drivers.FindInCompany(ctx, companyID, driverID)
	if err != nil {
		return false, storeError("find driver", err)
	}

	now := time.Now().UTC()
	if err := s.drivers.UpdateLocation(ctx, driver.ID, lat, lng, now); err != nil {
		return false, storeError("update driver location", err)
	}
	driver.Latitude, driver.Longitude, driver.LastUpdated = &lat, &lng, &now
	metrics.LocationUpdates.Inc()

	s.appendHistory(ctx, driver.ID, lat, lng, now)
	s.notifier.Notify(realtime.DriverChange(realtime.OpUpdate, driver))
	publish(ctx, s.events, events.Event{
		Type:      events.DriverLocationUpdated,
		CompanyID: companyID,
		DriverID:  driver.ID,
		Payload:   map[string]float64{"latitude": lat, "longitude": lng},
	})

	pushCtx, cancel := s.fleetContext(ctx)
	defer cancel()
	if err := s.fleet.UpdateVehicleLocation(pushCtx, driver.ID, lat, lng); err != nil {
		if !errors.Is(err, fleet.ErrNotConfigured) {
			metrics.BestEffortFailures.WithLabelValues("fleet_push").Inc()
		}
		logrus.WithError(err).WithField("driver_id", driver.ID).Warn("Pushing location to fleet service failed")
		return false, nil
	}
	return true, nil
}

func (s *LocationService) appendHistory(ctx context.Context, driverID string, lat, lng float64, at time.Time) {
	var distance float64
	prev, err := s.history.Last(ctx, driverID)
	switch {
	case err == nil:
		distance = distanceMeters(prev.Latitude, prev.Longitude, lat, lng)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		logrus.WithError(err).WithField("driver_id", driverID).Warn("Could not read previous location")
	}

	entry := &models.LocationHistory{
		DriverID:         driverID,
		Latitude:         lat,
		Longitude:        lng,
		DistanceFromLast: distance,
		RecordedAt:       at,
	}
	if err := s.history.Append(ctx, entry); err != nil {
		metrics.BestEffortFailures.WithLabelValues("history_append").Inc()
		logrus.WithError(err).WithField("driver_id", driverID).Error("Failed to record location history")
	}
}

// RegisterVehicle creates the driver's vehicle in the fleet service, starting
// at the given coordinates or else the driver's stored ones.
func (s *LocationService) RegisterVehicle(ctx context.Context, companyID, driverID, name string, lat, lng *float64) error {
	driver, err := s.drivers.FindInCompany(ctx, companyID, driverID)
	if err != nil {
		return storeError("find driver", err)
	}
	if lat == nil || lng == nil {
		lat, lng = driver.Latitude, driver.Longitude
	}
	if lat == nil || lng == nil {
		return invalid("no start location for driver %s", driverID)
	}
	if err := validateCoordinates(*lat, *lng); err != nil {
		return err
	}
	if name == "" {
		name = driver.Name
	}

	ctx, cancel := s.fleetContext(ctx)
	defer cancel()
	if err := s.fleet.CreateVehicle(ctx, driver.ID, name, *lat, *lng); err != nil {
		return fmt.Errorf("register vehicle: %w", err)
	}
	return nil
}

// History returns the driver's latest recorded positions, newest first.
func (s *LocationService) History(ctx context.Context, companyID, driverID string) ([]models.LocationHistory, error) {
	if _, err := s.drivers.FindInCompany(ctx, companyID, driverID); err != nil {
		return nil, storeError("find driver", err)
	}
	entries, err := s.history.Latest(ctx, driverID, historyLimit)
	if err != nil {
		return nil, storeError("list location history", err)
	}
	return entries, nil
}

func validateCoordinates(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsNaN(lng) || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return invalid("coordinates out of range: %f, %f", lat, lng)
	}
	return nil
}

// distanceMeters is the haversine distance between two points.
func distanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371000 // Earth's radius in meters.
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return R * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
