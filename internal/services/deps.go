package services

import (
	"context"
	"io"
	"time"

	logrus "github.com/sirupsen/logrus"

	"fleet_tracker/internal/events"
	"fleet_tracker/internal/fleet"
	"fleet_tracker/internal/metrics"
	"fleet_tracker/internal/storage"
)

// FleetAPI is the subset of the fleet routing client the services use.
type FleetAPI interface {
	ListVehicles(ctx context.Context) ([]fleet.Vehicle, error)
	CreateVehicle(ctx context.Context, id, name string, lat, lng float64) error
	UpdateVehicleLocation(ctx context.Context, id string, lat, lng float64) error
}

// Upload is a file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// uploadPicture stores up under a name owned by owner and returns its public
// URL. Failures are logged and counted, and yield nil.
func uploadPicture(ctx context.Context, blobs storage.BlobStore, owner string, up *Upload) *string {
	if up == nil {
		return nil
	}
	url, err := putBlob(ctx, blobs, owner, up)
	if err != nil {
		metrics.BestEffortFailures.WithLabelValues("blob_upload").Inc()
		logrus.WithError(err).WithField("owner", owner).Warn("Car picture upload failed, continuing without it")
		return nil
	}
	return &url
}

func putBlob(ctx context.Context, blobs storage.BlobStore, owner string, up *Upload) (string, error) {
	name := storage.ObjectName(owner, up.Filename, time.Now())
	if err := blobs.Upload(ctx, name, up.Body, up.Size, up.ContentType); err != nil {
		return "", err
	}
	return blobs.PublicURL(name), nil
}

func publish(ctx context.Context, pub events.Publisher, ev events.Event) {
	if err := pub.Publish(ctx, ev); err != nil {
		metrics.BestEffortFailures.WithLabelValues("event_publish").Inc()
		logrus.WithError(err).WithField("event", ev.Type).Warn("Failed to publish event")
	}
}
