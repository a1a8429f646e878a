package cli

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	logrus "github.com/sirupsen/logrus"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"fleet_tracker/internal/config"
	"fleet_tracker/internal/controllers"
	"fleet_tracker/internal/events"
	"fleet_tracker/internal/fleet"
	"fleet_tracker/internal/logger"
	"fleet_tracker/internal/middleware"
	"fleet_tracker/internal/realtime"
	"fleet_tracker/internal/repository"
	"fleet_tracker/internal/routes"
	"fleet_tracker/internal/services"
	"fleet_tracker/internal/session"
	"fleet_tracker/internal/storage"
)

// ServerModule wires the API server for cfg. Every connection it opens is
// closed again by the fx lifecycle.
func ServerModule(cfg *config.Config) fx.Option {
	return fx.Options(
		fx.Supply(cfg),
		fx.Provide(
			provideLogWriter,
			provideDB,
			provideSessionStore,
			provideSessions,
			providePublisher,
			provideBlobStore,
			provideFleetAPI,
			realtime.NewHub,
			provideNotifier,
		),
		fx.Provide(
			repository.NewUserRepository,
			repository.NewCompanyRepository,
			repository.NewDriverRepository,
			repository.NewCarRepository,
			repository.NewLocationHistoryRepository,
			provideUserLookup,
		),
		fx.Provide(
			services.NewAccountService,
			services.NewOnboardingService,
			services.NewRegistrationService,
			services.NewCarService,
			provideLocationService,
		),
		fx.Provide(
			controllers.NewAuthController,
			controllers.NewOnboardingController,
			controllers.NewDriverController,
			controllers.NewCarController,
			provideLocationController,
			provideRealtimeController,
			provideRouter,
		),
		fx.Invoke(startRealtime, startHTTPServer),
	)
}

func provideLogWriter(cfg *config.Config) io.Writer {
	return logger.Setup(logger.Options{File: cfg.LogFile, Level: cfg.LogLevel, Stdout: cfg.LogStdout})
}

// provideDB opens the record store. The io.Writer dependency makes sure
// logging is configured before the first connection attempt is logged.
func provideDB(lc fx.Lifecycle, cfg *config.Config, _ io.Writer) (*gorm.DB, error) {
	db, err := config.InitDB(cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			logrus.Info("Closing DB connection")
			return sqlDB.Close()
		},
	})
	return db, nil
}

// provideSessionStore uses Redis when REDIS_URL is set and keeps
// revocations in memory otherwise.
func provideSessionStore(lc fx.Lifecycle, cfg *config.Config) (session.Store, error) {
	if cfg.RedisURL == "" {
		logrus.Warn("REDIS_URL not set, keeping revoked sessions in memory")
		return session.NewMemoryStore(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store, err := session.NewRedisStore(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logrus.Info("Closing Redis")
			return store.Close()
		},
	})
	return store, nil
}

func provideSessions(cfg *config.Config, store session.Store) *middleware.Sessions {
	return middleware.NewSessions(cfg.JWTSecret, cfg.JWTTTL, store)
}

func providePublisher(lc fx.Lifecycle, cfg *config.Config) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		logrus.Info("KAFKA_BROKERS not set, domain events are not published")
		return events.Nop{}
	}
	pub := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return pub.Close()
		},
	})
	return pub
}

func provideBlobStore(cfg *config.Config) (storage.BlobStore, error) {
	switch cfg.BlobBackend {
	case "s3":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return storage.NewS3Store(ctx, cfg.S3Bucket, cfg.S3PublicURL)
	case "local":
		return storage.NewLocalStore(cfg.BlobDir, cfg.BlobPublicURL)
	default:
		return nil, errors.New("unsupported BLOB_BACKEND " + cfg.BlobBackend)
	}
}

func provideFleetAPI(cfg *config.Config) services.FleetAPI {
	return fleet.NewClient(cfg.FleetAPIURL, cfg.FleetAPIKey, cfg.FleetTimeout)
}

// provideNotifier hands services the hub directly for in-process fan-out.
// With the postgres source the database trigger feeds the hub instead, so
// services must not notify a second time.
func provideNotifier(cfg *config.Config, hub *realtime.Hub) realtime.Notifier {
	if cfg.RealtimeSource == "postgres" {
		return realtime.Nop{}
	}
	return hub
}

func provideUserLookup(users *repository.UserRepository) middleware.UserLookup {
	return users
}

func provideLocationService(
	cfg *config.Config,
	drivers *repository.DriverRepository,
	cars *repository.CarRepository,
	history *repository.LocationHistoryRepository,
	fleetAPI services.FleetAPI,
	notifier realtime.Notifier,
	pub events.Publisher,
) *services.LocationService {
	return services.NewLocationService(drivers, cars, history, fleetAPI, cfg.FleetTimeout, notifier, pub)
}

func provideLocationController(cfg *config.Config, locations *services.LocationService) *controllers.LocationController {
	return controllers.NewLocationController(locations, cfg.StreamInterval)
}

func provideRealtimeController(cfg *config.Config, hub *realtime.Hub) *controllers.RealtimeController {
	return controllers.NewRealtimeController(hub, cfg.CORSOrigins)
}

type routerParams struct {
	fx.In

	Config     *config.Config
	LogWriter  io.Writer
	Sessions   *middleware.Sessions
	Users      middleware.UserLookup
	Auth       *controllers.AuthController
	Onboarding *controllers.OnboardingController
	Drivers    *controllers.DriverController
	Cars       *controllers.CarController
	Locations  *controllers.LocationController
	Realtime   *controllers.RealtimeController
}

func provideRouter(p routerParams) *gin.Engine {
	d := routes.Deps{
		Sessions:    p.Sessions,
		Users:       p.Users,
		Auth:        p.Auth,
		Onboarding:  p.Onboarding,
		Drivers:     p.Drivers,
		Cars:        p.Cars,
		Locations:   p.Locations,
		Realtime:    p.Realtime,
		LogWriter:   p.LogWriter,
		CORSOrigins: p.Config.CORSOrigins,
	}
	if p.Config.BlobBackend == "local" {
		d.UploadsDir = p.Config.BlobDir
		d.UploadsURL = p.Config.BlobPublicURL
	}
	return routes.SetupRouter(d)
}

// startRealtime runs the websocket hub and, for the postgres source, the
// trigger listener feeding it, for the lifetime of the app.
func startRealtime(lc fx.Lifecycle, cfg *config.Config, hub *realtime.Hub) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go hub.Run(ctx)
			if cfg.RealtimeSource == "postgres" {
				listener := realtime.NewListener(cfg.PostgresDSN(), hub)
				go func() {
					if err := listener.Run(ctx); err != nil {
						logrus.WithError(err).Error("Driver change listener stopped")
					}
				}()
			}
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

// newHTTPServer returns a server whose request contexts end when stop is
// called, so long-lived streams return before Shutdown waits on them.
func newHTTPServer(addr string, handler http.Handler) (srv *http.Server, stop func(context.Context) error) {
	base, cancel := context.WithCancel(context.Background())
	srv = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return base },
	}
	return srv, func(ctx context.Context) error {
		cancel()
		return srv.Shutdown(ctx)
	}
}

func startHTTPServer(lc fx.Lifecycle, cfg *config.Config, engine *gin.Engine, shutdowner fx.Shutdowner) {
	srv, stop := newHTTPServer(":"+cfg.Port, engine)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			logrus.WithField("addr", srv.Addr).Info("Server running")
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logrus.WithError(err).Error("HTTP server failed")
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logrus.Info("Stopping HTTP server")
			return stop(ctx)
		},
	})
}
