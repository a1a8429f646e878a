package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"fleet_tracker/internal/models"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	for _, key := range []string{"PORT", "DB_DRIVER", "JWT_TTL", "STREAM_INTERVAL", "KAFKA_BROKERS", "REALTIME_SOURCE"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	cfg := Load()

	if cfg.Port != "8080" || cfg.DBDriver != "postgres" || cfg.RealtimeSource != "inprocess" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.JWTTTL != 72*time.Hour || cfg.StreamInterval != 2*time.Second {
		t.Errorf("JWTTTL = %v, StreamInterval = %v", cfg.JWTTTL, cfg.StreamInterval)
	}
	if cfg.KafkaBrokers != nil {
		t.Errorf("KafkaBrokers = %v, want none", cfg.KafkaBrokers)
	}
}

func TestInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("FLEET_TIMEOUT", "soon")
	if got := getDuration("FLEET_TIMEOUT", 5*time.Second); got != 5*time.Second {
		t.Fatalf("getDuration = %v", got)
	}
}

func TestStreamIntervalMustBePositive(t *testing.T) {
	chdir(t, t.TempDir())
	for _, v := range []string{"0s", "-1s"} {
		t.Setenv("STREAM_INTERVAL", v)
		if got := Load().StreamInterval; got != 2*time.Second {
			t.Errorf("STREAM_INTERVAL=%s gave %v, want the 2s default", v, got)
		}
	}
}

func TestLoadOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("FLEET_TIMEOUT", "750ms")
	t.Setenv("KAFKA_BROKERS", "k1:9092, ,k2:9092")
	t.Setenv("LOG_STDOUT", "true")
	t.Setenv("CORS_ORIGINS", "https://app.test")

	cfg := Load()
	if cfg.Port != "9090" || cfg.FleetTimeout != 750*time.Millisecond || !cfg.LogStdout {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.KafkaBrokers, []string{"k1:9092", "k2:9092"}) {
		t.Errorf("KafkaBrokers = %v", cfg.KafkaBrokers)
	}
	if !reflect.DeepEqual(cfg.CORSOrigins, []string{"https://app.test"}) {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBUser: "u", DBPassword: "p", DBName: "fleet", DBPort: "5432", DBSSLMode: "disable", DBTimezone: "UTC"}
	want := "host=db user=u password=p dbname=fleet port=5432 sslmode=disable TimeZone=UTC"
	if got := cfg.PostgresDSN(); got != want {
		t.Fatalf("PostgresDSN() = %q", got)
	}
}

func TestInitDBWithSQLite(t *testing.T) {
	cfg := &Config{DBDriver: "sqlite", DBSource: filepath.Join(t.TempDir(), "fleet.db")}
	db, err := InitDB(cfg)
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	for _, model := range []any{&models.Company{}, &models.User{}, &models.Driver{}, &models.Car{}, &models.LocationHistory{}} {
		if !db.Migrator().HasTable(model) {
			t.Errorf("table for %T not migrated", model)
		}
	}
}

func TestInitDBRejectsUnknownDriver(t *testing.T) {
	if _, err := InitDB(&Config{DBDriver: "oracle"}); err == nil {
		t.Fatal("expected an error for an unsupported driver")
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
