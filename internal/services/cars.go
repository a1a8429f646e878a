package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"fleet_tracker/internal/events"
	"fleet_tracker/internal/models"
	"fleet_tracker/internal/repository"
	"fleet_tracker/internal/storage"
)

// CarDetails is a standalone car submission for an existing driver.
type CarDetails struct {
	DriverID     string
	Name         string
	Color        string
	EngineNumber string
	PlateNumber  string
}

type CarService struct {
	drivers *repository.DriverRepository
	cars    *repository.CarRepository
	blobs   storage.BlobStore
	events  events.Publisher
}

func NewCarService(drivers *repository.DriverRepository, cars *repository.CarRepository, blobs storage.BlobStore, pub events.Publisher) *CarService {
	return &CarService{drivers: drivers, cars: cars, blobs: blobs, events: pub}
}

func (s *CarService) List(ctx context.Context, companyID string) ([]models.Car, error) {
	cars, err := s.cars.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, storeError("list cars", err)
	}
	return cars, nil
}

// ForDriver returns the driver's first car.
func (s *CarService) ForDriver(ctx context.Context, companyID, driverID string) (*models.Car, error) {
	if _, err := s.drivers.FindInCompany(ctx, companyID, driverID); err != nil {
		return nil, storeError("find driver", err)
	}
	car, err := s.cars.FindByDriver(ctx, driverID)
	if err != nil {
		return nil, storeError("find car", err)
	}
	return car, nil
}

// UpsertForDriver updates the driver's first car, or inserts one. The car
// always takes the driver's company.
func (s *CarService) UpsertForDriver(ctx context.Context, companyID, driverID string, in CarInput) (*models.Car, error) {
	driver, err := s.drivers.FindInCompany(ctx, companyID, driverID)
	if err != nil {
		return nil, storeError("find driver", err)
	}

	car, err := s.cars.FindByDriver(ctx, driverID)
	switch {
	case err == nil:
		car.Name, car.PlateNumber, car.Model = in.Name, in.PlateNumber, in.Model
		car.Year, car.EngineNumber, car.Color = in.Year, in.EngineNumber, in.Color
		car.CompanyID = driver.CompanyID
		if err := s.cars.Save(ctx, car); err != nil {
			return nil, storeError("update car", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		car = &models.Car{
			Name:         in.Name,
			PlateNumber:  in.PlateNumber,
			Model:        in.Model,
			Year:         in.Year,
			EngineNumber: in.EngineNumber,
			Color:        in.Color,
			CompanyID:    driver.CompanyID,
			DriverID:     driver.ID,
		}
		if err := s.cars.Create(ctx, car); err != nil {
			return nil, storeError("create car", err)
		}
	default:
		return nil, storeError("find car", err)
	}

	s.carSaved(ctx, car)
	return car, nil
}

// CreateDetails inserts a car for an existing driver. The picture is optional
// and best-effort.
func (s *CarService) CreateDetails(ctx context.Context, companyID string, in CarDetails, picture *Upload) (*models.Car, error) {
	if missing := missingFields(
		"driverId", in.DriverID,
		"name", in.Name,
		"color", in.Color,
		"engineNumber", in.EngineNumber,
		"plateNumber", in.PlateNumber,
	); len(missing) > 0 {
		return nil, invalid("missing required fields: %s", strings.Join(missing, ", "))
	}

	driver, err := s.drivers.FindInCompany(ctx, companyID, in.DriverID)
	if err != nil {
		return nil, storeError("find driver", err)
	}

	car := &models.Car{
		Name:         in.Name,
		PlateNumber:  in.PlateNumber,
		EngineNumber: in.EngineNumber,
		Color:        in.Color,
		PictureURL:   uploadPicture(ctx, s.blobs, driver.ID, picture),
		CompanyID:    driver.CompanyID,
		DriverID:     driver.ID,
	}
	if err := s.cars.Create(ctx, car); err != nil {
		return nil, storeError("create car", err)
	}
	s.carSaved(ctx, car)
	return car, nil
}

func (s *CarService) UpdatePicture(ctx context.Context, companyID, carID, url string) (*models.Car, error) {
	if strings.TrimSpace(url) == "" {
		return nil, invalid("pictureUrl is required")
	}
	car, err := s.cars.FindInCompany(ctx, companyID, carID)
	if err != nil {
		return nil, storeError("find car", err)
	}
	if err := s.cars.UpdatePicture(ctx, car.ID, url); err != nil {
		return nil, storeError("update car picture", err)
	}
	car.PictureURL = &url
	return car, nil
}

// UploadImage stores a picture on its own. Unlike the picture attached to a
// registration, a failure here is returned.
func (s *CarService) UploadImage(ctx context.Context, owner string, up *Upload) (string, error) {
	if up == nil {
		return "", invalid("file is required")
	}
	return putBlob(ctx, s.blobs, owner, up)
}

func (s *CarService) carSaved(ctx context.Context, car *models.Car) {
	publish(ctx, s.events, events.Event{
		Type:      events.CarSaved,
		CompanyID: car.CompanyID,
		DriverID:  car.DriverID,
		Payload:   car,
	})
}

// missingFields takes name, value pairs and returns the names whose value is blank.
func missingFields(pairs ...string) []string {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			missing = append(missing, pairs[i])
		}
	}
	return missing
}
