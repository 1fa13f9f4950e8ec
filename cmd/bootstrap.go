package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"llmconf/internal/config"
	"llmconf/internal/hostenv"
	"llmconf/internal/logger"
	"llmconf/internal/manager"
	"llmconf/internal/provider"
	providerfactory "llmconf/internal/provider/factory"
	"llmconf/internal/router"
	"llmconf/internal/storage"
)

// app is the wired dependency graph shared by every command.
type app struct {
	cfg      config.Config
	log      zerolog.Logger
	store    storage.Store
	registry *provider.Registry
	manager  *manager.Manager
	router   *router.Router
	closers  []func() error
}

func bootstrap(ctx context.Context, cfgPath string) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("configure logger: %w", err)
	}

	a := &app{cfg: cfg, log: log}

	store, closer, err := openStore(ctx, cfg.Storage, log)
	if err != nil {
		return nil, err
	}
	a.store = store
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	registry, err := providerfactory.NewRegistry()
	if err != nil {
		a.close()
		return nil, err
	}
	a.registry = registry

	opts := []manager.Option{
		manager.WithLogger(log.With().Str("component", "model-manager").Logger()),
		manager.WithRegistry(registry),
		manager.WithRegistryTimeout(cfg.Registry.Timeout),
		manager.WithStorageKey(cfg.Storage.Key),
	}
	if cfg.Validation.StrictParams {
		opts = append(opts, manager.WithStrictParams())
	}
	if cfg.HostEnv.Enabled {
		vars, err := hostenv.Load()
		if err != nil {
			a.close()
			return nil, err
		}
		opts = append(opts, manager.WithHostSyncer(hostenv.NewSyncer(vars, log)))
	}

	mgr, err := manager.New(store, opts...)
	if err != nil {
		a.close()
		return nil, err
	}
	if err := mgr.EnsureInitialized(ctx); err != nil {
		a.close()
		return nil, err
	}
	a.manager = mgr
	a.router = router.New(mgr, registry)

	return a, nil
}

func (a *app) close() {
	for _, fn := range a.closers {
		if err := fn(); err != nil {
			a.log.Warn().Err(err).Msg("close resource")
		}
	}
	a.closers = nil
}

func openStore(ctx context.Context, cfg config.StorageConfig, log zerolog.Logger) (storage.Store, func() error, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return storage.NewMemoryStore(), nil, nil
	case config.DriverFile:
		store, err := storage.NewFileStore(cfg.File.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("open file store: %w", err)
		}
		return store, nil, nil
	case config.DriverRedis:
		store, err := storage.NewRedisStore(ctx, storage.RedisOptions{
			URL:     cfg.Redis.URL,
			Prefix:  cfg.Redis.Prefix,
			LockTTL: cfg.Redis.LockTTL,
			Logger:  log.With().Str("component", "redis-store").Logger(),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open redis store: %w", err)
		}
		return store, store.Close, nil
	case config.DriverS3:
		store, err := storage.NewS3Store(ctx, storage.S3Options{
			Bucket:    cfg.S3.Bucket,
			Prefix:    cfg.S3.Prefix,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open s3 store: %w", err)
		}
		return store, nil, nil
	case config.DriverPostgres:
		store, err := storage.NewPostgresStore(ctx, storage.PostgresOptions{
			DSN:             cfg.Postgres.DSN,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres store: %w", err)
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}
