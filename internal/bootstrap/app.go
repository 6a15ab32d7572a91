package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"rec-admin-backend/internal/assets"
	"rec-admin-backend/internal/resources"
	"rec-admin-backend/internal/services/health"
	"rec-admin-backend/internal/shared/config"
	"rec-admin-backend/internal/shared/metrics"
	"rec-admin-backend/internal/shared/server"
	"rec-admin-backend/internal/shared/server/middleware"
	"rec-admin-backend/internal/shared/storage/db"
	"rec-admin-backend/internal/shared/storage/object"
	localstore "rec-admin-backend/internal/shared/storage/object/local"
	miniostore "rec-admin-backend/internal/shared/storage/object/minio"
	s3store "rec-admin-backend/internal/shared/storage/object/s3"
	"rec-admin-backend/internal/shared/telemetry"
)

// App holds shared dependencies.
type App struct {
	Config   config.Config
	Router   *gin.Engine
	DB       *sql.DB
	Registry *object.Registry
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	Resources resources.Repo
	Assets    assets.Repo

	ImagesService    *assets.Service
	DocumentsService *assets.Service
	ImagesHandler    *assets.Handler
	DocumentsHandler *assets.Handler
}

// Build wires storage, repositories, services and the router from cfg.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = config.StoreLocal
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	ctor, err := storeConstructor(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app := &App{
		Config:   cfg,
		DB:       sqlDB,
		Registry: object.NewRegistry(instrumented(ctor, m)),
		Metrics:  m,
		Gatherer: reg,
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:    cfg,
		Images:    app.ImagesHandler,
		Documents: app.DocumentsHandler,
		Health:    health.NewService(sqlDB),
		Metrics:   metrics.Handler(reg),
	})
	return app, nil
}

// Close releases the database connection, if any.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.db.memory", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.db.memory", map[string]any{"reason": "connect failed", "error": err})
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return sqlDB, nil
}

// storeConstructor picks the per-bucket client constructor for the configured
// backend. Bucket clients are built lazily by the registry.
func storeConstructor(ctx context.Context, cfg config.Config) (object.Constructor, error) {
	switch cfg.ObjectStoreType {
	case config.StoreS3:
		opts := s3store.Options{
			Region:   cfg.AWSRegion,
			Endpoint: cfg.S3Endpoint,
			KMSKeyID: cfg.SSEKMSKeyID,
		}
		return func(bucket string) (object.BucketHandle, error) {
			st, err := s3store.New(ctx, bucket, opts)
			if err != nil {
				return nil, err
			}
			return st, nil
		}, nil
	case config.StoreMinIO:
		opts := miniostore.Options{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			UseSSL:    cfg.MinIOUseSSL,
		}
		return func(bucket string) (object.BucketHandle, error) {
			st, err := miniostore.New(bucket, opts)
			if err != nil {
				return nil, err
			}
			if err := st.EnsureBucket(ctx); err != nil {
				return nil, err
			}
			return st, nil
		}, nil
	case config.StoreLocal:
		return func(bucket string) (object.BucketHandle, error) {
			st, err := localstore.New(cfg.LocalStoreDir, bucket)
			if err != nil {
				return nil, err
			}
			return st, nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown OBJECT_STORE %q", cfg.ObjectStoreType)
	}
}

func instrumented(ctor object.Constructor, m *metrics.Metrics) object.Constructor {
	return func(bucket string) (object.BucketHandle, error) {
		h, err := ctor(bucket)
		if err != nil {
			return nil, err
		}
		return object.Instrument(h, m), nil
	}
}

func buildServices(app *App) error {
	cfg := app.Config
	if app.DB != nil {
		app.Resources = &resources.PGRepo{DB: app.DB}
		app.Assets = &assets.PGRepo{DB: app.DB}
	} else {
		app.Resources = resources.NewMemoryRepo(cfg.DevRecResourceIDs...)
		app.Assets = assets.NewMemoryRepo()
	}

	var write []gin.HandlerFunc
	if cfg.UploadRateLimit > 0 {
		limiter := middleware.NewRateLimiter(middleware.RateLimitRule{
			Rate:  cfg.UploadRateLimit,
			Burst: cfg.UploadBurst,
		}, nil)
		write = append(write, middleware.RateLimit(limiter))
	}

	build := func(b config.BucketConfig, set assets.VariantSet) (*assets.Service, *assets.Handler, error) {
		// Built once up front so a bad bucket fails startup. Afterwards every
		// operation goes back to the registry and sees ClearCache.
		if _, err := app.Registry.CreateForBucket(b.Name); err != nil {
			return nil, nil, err
		}
		name := b.Name
		resolve := func() (object.BucketHandle, error) {
			return app.Registry.CreateForBucket(name)
		}
		svc := &assets.Service{
			Coordinator: &assets.Coordinator{Resolve: resolve, Variants: set, Metrics: app.Metrics},
			Address:     cfg.Address(b),
			Owners:      app.Resources,
			Repo:        app.Assets,
			PresignTTL:  cfg.PresignTTL,
			DownloadTTL: cfg.DownloadTTL,
		}
		h := assets.NewHandler(svc)
		if cfg.MaxUploadBytes > 0 {
			h.MaxUploadBytes = cfg.MaxUploadBytes
		}
		h.Write = write
		return svc, h, nil
	}

	var err error
	if app.ImagesService, app.ImagesHandler, err = build(cfg.Images, assets.ImageVariants); err != nil {
		return err
	}
	if app.DocumentsService, app.DocumentsHandler, err = build(cfg.Documents, assets.DocumentVariants); err != nil {
		return err
	}
	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
