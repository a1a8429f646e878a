package services

import (
	"context"
	"errors"
	"strings"

	logrus "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"fleet_tracker/internal/events"
	"fleet_tracker/internal/metrics"
	"fleet_tracker/internal/models"
	"fleet_tracker/internal/realtime"
	"fleet_tracker/internal/repository"
	"fleet_tracker/internal/storage"
)

type DriverInput struct {
	Name                  string
	Email                 string
	PhoneNumber           string
	Address               string
	DateOfBirth           string
	NextOfKinName         string
	NextOfKinPhoneNumber  string
	NextOfKinRelationship string
	NextOfKinAddress      string
	NextOfKinWorkAddress  string
	LicenseNumber         string
	Latitude              *float64
	Longitude             *float64
}

type CarInput struct {
	Name         string
	Model        string
	Color        string
	EngineNumber string
	PlateNumber  string
	Year         *int
}

type RegistrationService struct {
	drivers  *repository.DriverRepository
	cars     *repository.CarRepository
	blobs    storage.BlobStore
	events   events.Publisher
	notifier realtime.Notifier
}

func NewRegistrationService(
	drivers *repository.DriverRepository,
	cars *repository.CarRepository,
	blobs storage.BlobStore,
	pub events.Publisher,
	notifier realtime.Notifier,
) *RegistrationService {
	return &RegistrationService{drivers: drivers, cars: cars, blobs: blobs, events: pub, notifier: notifier}
}

// Register creates a driver and its car for the admin's company. The steps
// run in order without a transaction: a failed car insert leaves the driver.
// A failed picture upload only drops the picture.
func (s *RegistrationService) Register(ctx context.Context, admin *models.User, d DriverInput, c CarInput, picture *Upload) (*models.Driver, *models.Car, error) {
	if admin == nil || !admin.IsCompanyAdmin() {
		return nil, nil, ErrForbidden
	}
	companyID := *admin.CompanyID

	email := strings.ToLower(strings.TrimSpace(d.Email))
	exists, err := s.drivers.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, nil, storeError("check driver email", err)
	}
	if exists {
		return nil, nil, ErrDriverEmailTaken
	}

	driver := &models.Driver{
		Name:                  d.Name,
		Email:                 email,
		PhoneNumber:           d.PhoneNumber,
		Address:               d.Address,
		DateOfBirth:           d.DateOfBirth,
		NextOfKinName:         d.NextOfKinName,
		NextOfKinPhoneNumber:  d.NextOfKinPhoneNumber,
		NextOfKinRelationship: d.NextOfKinRelationship,
		NextOfKinAddress:      d.NextOfKinAddress,
		NextOfKinWorkAddress:  d.NextOfKinWorkAddress,
		LicenseNumber:         d.LicenseNumber,
		Latitude:              d.Latitude,
		Longitude:             d.Longitude,
		CompanyID:             companyID,
		CreatedBy:             admin.ID,
	}
	if err := s.drivers.Create(ctx, driver); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, nil, ErrDriverEmailTaken
		}
		return nil, nil, storeError("create driver", err)
	}

	car := &models.Car{
		Name:         c.Name,
		PlateNumber:  c.PlateNumber,
		Model:        c.Model,
		Year:         c.Year,
		EngineNumber: c.EngineNumber,
		Color:        c.Color,
		PictureURL:   uploadPicture(ctx, s.blobs, driver.ID, picture),
		CompanyID:    companyID,
		DriverID:     driver.ID,
	}
	if err := s.cars.Create(ctx, car); err != nil {
		logrus.WithError(err).WithField("driver_id", driver.ID).Error("Driver created but car insert failed")
		return nil, nil, storeError("create car", err)
	}

	metrics.DriversRegistered.Inc()
	s.notifier.Notify(realtime.DriverChange(realtime.OpInsert, driver))
	publish(ctx, s.events, events.Event{
		Type:      events.DriverRegistered,
		CompanyID: companyID,
		DriverID:  driver.ID,
		Payload:   map[string]any{"driver": driver, "car": car},
	})
	return driver, car, nil
}
