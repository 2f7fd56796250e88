package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/offlineshell/swproxy/pkg/cache"
	"github.com/offlineshell/swproxy/pkg/classify"
	"github.com/offlineshell/swproxy/pkg/config"
	"github.com/offlineshell/swproxy/pkg/lifecycle"
	"github.com/offlineshell/swproxy/pkg/logging"
	"github.com/offlineshell/swproxy/pkg/worker"
)

func main() {
	configPath := flag.String("config", "swproxy.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Logging.Level),
		Pretty: cfg.Logging.Pretty,
		Output: os.Stderr,
	})

	store, err := openStore(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open cache store")
	}
	defer store.Close()

	httpClient := &http.Client{Timeout: 30 * time.Second}

	ctrl, err := lifecycle.New(lifecycle.Config{
		Store:      store,
		Fetcher:    httpClient,
		Origin:     cfg.OriginURL(),
		Generation: cfg.Generation,
		Precache:   cfg.Precache,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create lifecycle controller")
	}

	// Install and activate before serving. A precache failure is fatal
	// on first run; an already-running prior deployment keeps serving.
	ctx := context.Background()
	if err := ctrl.Run(ctx); err != nil {
		logger.Fatal().Err(err).Str("generation", cfg.Generation).Msg("Install failed")
	}

	classifier := classify.New(cfg.OriginURL().Host, classify.Config{
		AssetPrefixes: cfg.Static.Prefixes,
		Extensions:    cfg.Static.Extensions,
		ManifestPaths: cfg.Static.Manifest,
	})

	w := worker.New(worker.Config{
		Controller: ctrl,
		Classifier: classifier,
		Store:      store,
		Fetcher:    httpClient,
		Origin:     cfg.OriginURL(),
		Logger:     logger,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", healthHandler(ctrl, store))
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", w)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info().
		Str("addr", addr).
		Str("origin", cfg.Server.Origin).
		Str("generation", cfg.Generation).
		Msg("Starting swproxy")

	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

// openStore builds the configured cache backend.
func openStore(cfg config.Config) (cache.Store, error) {
	switch cfg.Cache.Backend {
	case config.BackendRedis:
		addr := cfg.Cache.Redis.Addr
		if env := os.Getenv("REDIS_ADDR"); env != "" {
			addr = env
		}
		client := redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   cfg.Cache.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("redis ping %s: %w", addr, err)
		}
		return cache.NewRedisStore(client), nil
	case config.BackendLevelDB:
		return cache.OpenLevelDBStore(cfg.Cache.LevelDB.Path)
	case config.BackendMemory:
		return cache.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Cache.Backend)
	}
}

// healthHandler reports lifecycle state and namespace sizes.
func healthHandler(ctrl *lifecycle.Controller, store cache.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := ctrl.State()
		status := http.StatusOK
		if state != lifecycle.StateActive {
			status = http.StatusServiceUnavailable
		}

		staticLen, _ := store.Len(r.Context(), ctrl.Namespace(cache.FamilyStatic))
		pagesLen, _ := store.Len(r.Context(), ctrl.Namespace(cache.FamilyPages))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprintf(w, `{"state":%q,"generation":%q,"static_entries":%d,"pages_entries":%d}`,
			state.String(), ctrl.Generation(), staticLen, pagesLen)
	}
}
