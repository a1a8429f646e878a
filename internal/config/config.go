package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	logrus "github.com/sirupsen/logrus"
)

// Config holds every setting the server reads from the environment.
type Config struct {
	Port string

	DBDriver   string // "postgres" or "sqlite"
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBTimezone string
	DBSource   string // sqlite file

	JWTSecret string
	JWTTTL    time.Duration

	RedisURL string

	KafkaBrokers []string
	KafkaTopic   string

	FleetAPIURL  string
	FleetAPIKey  string
	FleetTimeout time.Duration

	BlobBackend   string // "local" or "s3"
	BlobDir       string
	BlobPublicURL string
	S3Bucket      string
	S3PublicURL   string

	StreamInterval time.Duration
	RealtimeSource string // "inprocess" or "postgres"

	LogFile   string
	LogLevel  string
	LogStdout bool

	CORSOrigins []string
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, relying on env vars")
	}

	return &Config{
		Port: getEnv("PORT", "8080"),

		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "fleet"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		DBTimezone: getEnv("DB_TIMEZONE", "UTC"),
		DBSource:   getEnv("DB_SOURCE", "fleet.db"),

		JWTSecret: getEnv("JWT_SECRET", "supersecret"),
		JWTTTL:    getDuration("JWT_TTL", 72*time.Hour),

		RedisURL: os.Getenv("REDIS_URL"),

		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "fleet.events"),

		FleetAPIURL:  getEnv("FLEET_API_URL", "https://mapsfleetrouting.googleapis.com"),
		FleetAPIKey:  os.Getenv("FLEET_API_KEY"),
		FleetTimeout: getDuration("FLEET_TIMEOUT", 5*time.Second),

		BlobBackend:   getEnv("BLOB_BACKEND", "local"),
		BlobDir:       getEnv("BLOB_DIR", "./uploads/car-images"),
		BlobPublicURL: getEnv("BLOB_PUBLIC_URL", "/uploads/car-images"),
		S3Bucket:      getEnv("S3_BUCKET", "car-images"),
		S3PublicURL:   os.Getenv("S3_PUBLIC_URL"),

		StreamInterval: getPositiveDuration("STREAM_INTERVAL", 2*time.Second),
		RealtimeSource: getEnv("REALTIME_SOURCE", "inprocess"),

		LogFile:   getEnv("LOG_FILE", "./logs/app.log"),
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogStdout: getBool("LOG_STDOUT", false),

		CORSOrigins: splitList(os.Getenv("CORS_ORIGINS")),
	}
}

// getEnv reads an environment variable or returns the provided default
func getEnv(key, defaultValue string) string {
	if v, exists := os.LookupEnv(key); exists {
		return v
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logrus.WithField("key", key).WithError(err).Warn("Invalid duration, using default")
		return defaultValue
	}
	return d
}

// getPositiveDuration is getDuration for values that must be above zero.
func getPositiveDuration(key string, defaultValue time.Duration) time.Duration {
	d := getDuration(key, defaultValue)
	if d <= 0 {
		logrus.WithField("key", key).Warn("Duration must be positive, using default")
		return defaultValue
	}
	return d
}

func getBool(key string, defaultValue bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}
	return b
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
