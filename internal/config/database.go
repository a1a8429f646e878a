package config

import (
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	logrus "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"fleet_tracker/internal/logger"
	"fleet_tracker/internal/models"
)

// driverChangeTrigger publishes every insert/update on drivers to the
// driver_changes channel, consumed by realtime.Listener.
const driverChangeTrigger = `
CREATE OR REPLACE FUNCTION notify_driver_change() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify('driver_changes', json_build_object(
		'op', TG_OP,
		'driver_id', NEW.id,
		'company_id', NEW.company_id,
		'fields', json_build_object(
			'name', NEW.name,
			'latitude', NEW.latitude,
			'longitude', NEW.longitude,
			'last_updated', NEW.last_updated
		)
	)::text);
	RETURN NEW;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS driver_change_notify ON drivers;
CREATE TRIGGER driver_change_notify AFTER INSERT OR UPDATE ON drivers
	FOR EACH ROW EXECUTE FUNCTION notify_driver_change();
`

// PostgresDSN builds the key/value DSN shared by gorm and the pq listener.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode, c.DBTimezone,
	)
}

// InitDB opens the record store, retrying the connection with exponential
// backoff, and migrates the schema.
func InitDB(cfg *Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dialector = postgres.Open(cfg.PostgresDSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.DBSource)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(logger.GormLogger(), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}

	retry := backoff.NewExponentialBackOff()
	retry.MaxElapsedTime = time.Minute

	var db *gorm.DB
	err := backoff.RetryNotify(func() error {
		var openErr error
		db, openErr = gorm.Open(dialector, gormCfg)
		if openErr != nil {
			return openErr
		}
		sqlDB, openErr := db.DB()
		if openErr != nil {
			return backoff.Permanent(openErr)
		}
		return sqlDB.Ping()
	}, retry, func(err error, wait time.Duration) {
		logrus.WithError(err).WithField("retry_in", wait.String()).Warn("Database not ready")
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	if cfg.DBDriver == "postgres" {
		if err := db.Exec(driverChangeTrigger).Error; err != nil {
			return nil, fmt.Errorf("install driver change trigger: %w", err)
		}
	}

	logrus.WithField("driver", cfg.DBDriver).Info("Database connected and migrated")
	return db, nil
}

// Migrate applies the schema for every model.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(&models.Company{}, &models.User{}, &models.Driver{}, &models.Car{}, &models.LocationHistory{})
	if err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}
	return nil
}
