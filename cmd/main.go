package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/l0p7/regiond/internal/cache"
	"github.com/l0p7/regiond/internal/config"
	"github.com/l0p7/regiond/internal/hierarchy"
	"github.com/l0p7/regiond/internal/logging"
	"github.com/l0p7/regiond/internal/metrics"
	"github.com/l0p7/regiond/internal/server"
	"github.com/l0p7/regiond/internal/store"
)

func main() {
	var (
		configFile = flag.String("config", "", "path to server configuration file")
		envPrefix  = flag.String("env-prefix", "REGIOND", "environment variable prefix")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loader := config.NewLoader(*envPrefix, *configFile)
	cfg, err := loader.Load(ctx)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Server.Logging)
	if err != nil {
		log.Fatalf("failed to configure logger: %v", err)
	}

	promRegistry := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(promRegistry)

	cacheLogger := logger.With(slog.String("component", "cache_factory"))
	backend := buildResultCache(cacheLogger, cfg.Server.Cache, recorder)
	group := cache.NewGroup(cache.GroupOptions{
		Backend: backend,
		TTL:     time.Duration(cfg.Server.Cache.TTLSeconds) * time.Second,
		Logger:  logger,
		Metrics: recorder,
	})
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := group.Close(shutdownCtx); err != nil {
			logger.Error("cache shutdown failed", slog.Any("error", err))
		}
	}()

	locations, cleanup, err := buildLocationStore(ctx, logger, cfg.Server.Store)
	if err != nil {
		logger.Error("location store setup failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer cleanup()

	translator := hierarchy.Translator{
		DefaultLanguage: cfg.Server.Locale.DefaultLanguage,
		Aliases:         cfg.Server.Locale.DefaultAliases,
		Enabled:         cfg.Server.Locale.Translate,
	}

	svc := hierarchy.NewService(hierarchy.ServiceOptions{
		Store:      locations,
		Translator: translator,
		Cache:      group,
		Logger:     logger,
		Metrics:    recorder,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", recorder.Handler())
	mux.Handle("/", server.NewHandler(svc, logger))

	srv, err := server.New(cfg, logger, mux)
	if err != nil {
		logger.Error("unable to construct server", slog.Any("error", err))
		os.Exit(1)
	}

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server terminated unexpectedly", slog.Any("error", err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger.Info("server shutdown complete")
}

func buildResultCache(logger *slog.Logger, cfg config.CacheConfig, recorder *metrics.Recorder) cache.ResultCache {
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	onEvict := func(string) { recorder.ObserveCacheEviction() }
	backend := strings.TrimSpace(strings.ToLower(cfg.Backend))
	switch backend {
	case "", "memory":
		if logger != nil {
			logger.Info("using memory result cache",
				slog.Duration("ttl", ttl), slog.Int("max_entries", cfg.MaxEntries))
		}
		return cache.NewMemory(ttl, cfg.MaxEntries, onEvict)
	case "redis":
		redisCache, err := cache.NewRedis(cache.RedisConfig{
			Address:  cfg.Redis.Address,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TLS: cache.RedisTLSConfig{
				Enabled: cfg.Redis.TLS.Enabled,
				CAFile:  cfg.Redis.TLS.CAFile,
			},
		})
		if err != nil {
			if logger != nil {
				logger.Error("redis cache initialization failed", slog.Any("error", err))
				logger.Info("falling back to memory cache")
			}
			return cache.NewMemory(ttl, cfg.MaxEntries, onEvict)
		}
		if logger != nil {
			logger.Info("using redis result cache", slog.String("address", cfg.Redis.Address))
		}
		return redisCache
	default:
		if logger != nil {
			logger.Warn("unsupported cache backend, defaulting to memory", slog.String("backend", cfg.Backend))
		}
		return cache.NewMemory(ttl, cfg.MaxEntries, onEvict)
	}
}

func buildLocationStore(ctx context.Context, logger *slog.Logger, cfg config.StoreConfig) (hierarchy.Store, func(), error) {
	storeLogger := logger.With(slog.String("component", "store_factory"))
	backend := strings.TrimSpace(strings.ToLower(cfg.Backend))
	switch backend {
	case "", "memory":
		nodes, err := store.LoadSeed(cfg.SeedFile)
		if err != nil {
			return nil, nil, err
		}
		memory := store.NewMemory(nodes)
		storeLogger.Info("using memory location store",
			slog.String("seed_file", cfg.SeedFile), slog.Int("locations", memory.Len()))
		cleanup := func() {}
		if cfg.Watch {
			watcher, err := store.WatchSeed(ctx, cfg.SeedFile, func(nodes []hierarchy.Node) {
				memory.Replace(nodes)
				storeLogger.Info("location snapshot reloaded", slog.Int("locations", len(nodes)))
			}, func(err error) {
				storeLogger.Error("seed watcher error", slog.Any("error", err))
			})
			if err != nil {
				storeLogger.Error("seed watcher setup failed", slog.Any("error", err))
			} else {
				cleanup = watcher.Stop
			}
		}
		return memory, cleanup, nil
	case "postgres":
		pg, err := store.OpenPostgres(store.PostgresConfig{
			DSN:          cfg.Postgres.DSN,
			MaxOpenConns: cfg.Postgres.MaxOpenConns,
			MaxIdleConns: cfg.Postgres.MaxIdleConns,
		})
		if err != nil {
			return nil, nil, err
		}
		storeLogger.Info("using postgres location store")
		return pg, func() {
			if err := pg.Close(); err != nil {
				storeLogger.Error("postgres close failed", slog.Any("error", err))
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store backend: %s", cfg.Backend)
	}
}
