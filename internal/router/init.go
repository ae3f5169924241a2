package router

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/linkcircle/config"
	"github.com/oksasatya/linkcircle/internal/application"
	"github.com/oksasatya/linkcircle/internal/container"
	repouser "github.com/oksasatya/linkcircle/internal/domain/repository"
	"github.com/oksasatya/linkcircle/internal/infrastructure/elastic"
	"github.com/oksasatya/linkcircle/internal/infrastructure/memory"
	mongoinfra "github.com/oksasatya/linkcircle/internal/infrastructure/mongodb"
	pginfra "github.com/oksasatya/linkcircle/internal/infrastructure/postgres"
	"github.com/oksasatya/linkcircle/internal/infrastructure/storage"
	handlers "github.com/oksasatya/linkcircle/internal/interface/http"
	"github.com/oksasatya/linkcircle/internal/interface/middleware"
	"github.com/oksasatya/linkcircle/internal/router/modules"
	mailtpl "github.com/oksasatya/linkcircle/pkg/mailer/templates"
)

// Deps are the application services built from the container.
type Deps struct {
	Repo       repouser.UserRepository
	Cache      *application.ProfileCache
	Profiles   *application.ProfileService
	Circles    *application.CircleService
	Sessions   *application.SessionService
	Reconciler *application.Reconciler
}

// NewUserRepository picks the storage backend named by STORE_DRIVER. The
// backend's client must already be in the container.
func NewUserRepository(cfg *config.Config) repouser.UserRepository {
	switch cfg.StoreDriver {
	case "mongo", "mongodb":
		return mongoinfra.NewUserRepository(container.GetMongo(), cfg.MongoDB, cfg.MongoTransactions)
	case "memory":
		return memory.NewUserRepository()
	default:
		return pginfra.NewUserRepository(container.GetPGPool())
	}
}

// BuildDeps wires services over repo using whatever infrastructure the
// container holds.
func BuildDeps(repo repouser.UserRepository) Deps {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	cache := application.NewProfileCache(container.GetRedis(), cfg.ProfileCacheTTL, logger)

	var index application.UserIndex
	if es := container.GetES(); es != nil && cfg.ESUsersIndex != "" {
		ix := elastic.NewUserIndex(es, cfg.ESUsersIndex)
		if err := ix.EnsureIndex(context.Background()); err != nil {
			logger.WithError(err).Warn("search index setup failed")
		}
		index = ix
	}

	var images application.ImageStore
	if gcs := container.GetGCS(); gcs != nil && cfg.GCSBucket != "" {
		images = storage.NewGCSImageStore(gcs, cfg.GCSBucket)
	} else if cfg.UploadsDir != "" {
		disk, err := storage.NewDiskImageStore(cfg.UploadsDir)
		if err != nil {
			logger.WithError(err).Warn("uploads dir unavailable, image upload disabled")
		} else {
			images = disk
		}
	}

	var notifier application.Notifier
	if pub := container.GetRabbitPub(); pub != nil {
		notifier = application.NewQueueNotifier(pub, mailtpl.Branding{
			AppName:       cfg.AppName,
			SupportURL:    cfg.SupportURL,
			PublicBaseURL: cfg.PublicBaseURL,
		}, logger)
	}

	return Deps{
		Repo:       repo,
		Cache:      cache,
		Profiles:   application.NewProfileService(repo, cache, index, images, logger),
		Circles:    application.NewCircleService(repo, cache, notifier, logger),
		Sessions:   application.NewSessionService(repo, container.GetJWT(), container.GetRedis(), logger),
		Reconciler: application.NewReconciler(repo, cache, logger),
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry, deps Deps) {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	rdb := container.GetRedis()
	jwt := container.GetJWT()

	r.Use(middleware.RealIP(), middleware.Session(jwt, deps.Sessions, false))

	r.Add(modules.NewUserModule(handlers.NewUserHandler(deps.Profiles, logger), rdb, cfg.AuthRequired))
	r.Add(modules.NewCircleModule(handlers.NewCircleHandler(deps.Circles, logger, cfg.AuthRequired), rdb, cfg.AuthRequired))
	r.Add(modules.NewSessionModule(handlers.NewSessionHandler(deps.Sessions, deps.Profiles, logger, cfg.CookieDomain, cfg.CookieSecure), jwt, rdb))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(rdb))
	}
}

// OpenStore connects the configured backend, records its client in the
// container and returns the repository with a closer.
func OpenStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (repouser.UserRepository, func(), error) {
	closer := func() {}
	switch cfg.StoreDriver {
	case "mongo", "mongodb":
		client, err := mongoinfra.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongodb: %w", err)
		}
		container.SetMongo(client)
		closer = func() { _ = client.Disconnect(context.Background()) }
	case "memory":
		logger.Warn("using in-memory store, data is lost on exit")
	default:
		pool, err := pginfra.NewPool(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		container.SetPGPool(pool)
		closer = pool.Close
	}
	repo := NewUserRepository(cfg)
	if err := EnsureStore(ctx, cfg, repo, logger); err != nil {
		closer()
		return nil, nil, fmt.Errorf("prepare store: %w", err)
	}
	return repo, closer, nil
}

// EnsureStore prepares the selected backend's schema or indexes.
func EnsureStore(ctx context.Context, cfg *config.Config, repo repouser.UserRepository, logger *logrus.Logger) error {
	switch r := repo.(type) {
	case *mongoinfra.UserRepository:
		c, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return r.EnsureIndexes(c)
	case *pginfra.UserRepository:
		return pginfra.Migrate(cfg.PostgresDSN(), cfg.MigrationsDir, logger)
	}
	return nil
}
