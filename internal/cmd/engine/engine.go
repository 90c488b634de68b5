// Package engine parses engine command flags and starts the turn resolution
// service: storage, catalog, ledger, engine, and the HTTP API.
package engine

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/louisbranch/concord.quest/internal/api/httpapi"
	"github.com/louisbranch/concord.quest/internal/api/readywatch"
	"github.com/louisbranch/concord.quest/internal/game/catalog"
	gameengine "github.com/louisbranch/concord.quest/internal/game/engine"
	"github.com/louisbranch/concord.quest/internal/game/ledger"
	"github.com/louisbranch/concord.quest/internal/platform/config"
	"github.com/louisbranch/concord.quest/internal/platform/otel"
	"github.com/louisbranch/concord.quest/internal/storage"
	"github.com/louisbranch/concord.quest/internal/storage/sqlite"
)

// Config holds engine command configuration.
type Config struct {
	Port        int    `env:"CONCORD_QUEST_PORT" envDefault:"8080"`
	Addr        string `env:"CONCORD_QUEST_ADDR"`
	DBPath      string `env:"CONCORD_QUEST_DB_PATH" envDefault:"concord.db"`
	CatalogPath string `env:"CONCORD_QUEST_CATALOG_PATH"`
	LogLevel    string `env:"CONCORD_QUEST_LOG_LEVEL" envDefault:"info"`
}

// ParseConfig parses environment and flags into a Config. Flags override
// environment values.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The engine server port")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The engine listen address (overrides -port)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the SQLite database file")
	fs.StringVar(&cfg.CatalogPath, "catalog", cfg.CatalogPath, "Path to a catalog YAML file (embedded default when empty)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (trace, debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the engine service and blocks until ctx is canceled or the
// server fails.
func Run(ctx context.Context, cfg Config) error {
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	shutdownTracing, err := otel.Setup(ctx, "concord-quest-engine")
	if err != nil {
		return fmt.Errorf("set up tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("tracing shutdown failed")
		}
	}()

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn().Err(err).Msg("storage close failed")
		}
	}()

	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	stores := storage.Stores{
		Actions:      store,
		Resources:    store,
		AuditLogs:    store,
		Participants: store,
		TurnResults:  store,
	}
	l := ledger.New(store, store, store)
	eng := gameengine.New(stores, l, cat)
	hub := readywatch.NewHub(logger)
	api := httpapi.New(eng, stores, l, cat, hub, logger)

	addr := cfg.Addr
	if addr == "" {
		addr = fmt.Sprintf(":%d", cfg.Port)
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           api,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Str("db", cfg.DBPath).Msg("engine listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shut down server: %w", err)
		}
		logger.Info().Msg("engine stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	}
}

func newLogger(level string) (zerolog.Logger, error) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("parse log level %q: %w", level, err)
	}
	return zerolog.New(os.Stderr).Level(parsed).With().Timestamp().Logger(), nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}
