package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andymarkow/fueltracker/internal/auth"
	"github.com/andymarkow/fueltracker/internal/config"
	"github.com/andymarkow/fueltracker/internal/logger"
	"github.com/andymarkow/fueltracker/internal/metrics"
	"github.com/andymarkow/fueltracker/internal/recordstore"
	"github.com/andymarkow/fueltracker/internal/recordstore/inmemory"
	"github.com/andymarkow/fueltracker/internal/recordstore/pgstore"
	"github.com/andymarkow/fueltracker/internal/recordstore/sheetsapi"
	"github.com/andymarkow/fueltracker/internal/recordstore/xlsxstore"
	"github.com/andymarkow/fueltracker/internal/server"
	"github.com/andymarkow/fueltracker/internal/server/router"
	"github.com/andymarkow/fueltracker/internal/session"
	"github.com/redis/go-redis/v9"
)

const (
	BackendMemory   = "memory"
	BackendXLSX     = "xlsx"
	BackendSheets   = "sheets"
	BackendPostgres = "postgres"

	shutdownTimeout = 10 * time.Second
)

type Application struct {
	log    *slog.Logger
	server *server.Server
	store  recordstore.Store
	redis  *redis.Client
}

func New() (*Application, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("config.NewConfig: %w", err)
	}

	logLevel, err := logger.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger.ParseLogLevel: %w", err)
	}

	logFormat, err := logger.ParseLogFormat(cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("logger.ParseLogFormat: %w", err)
	}

	logg := logger.NewLogger(
		logger.WithLevel(logLevel),
		logger.WithFormat(logFormat),
		logger.WithAddSource(false),
	)

	metrics.Init()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
	defer cancel()

	store, err := OpenStore(ctx, cfg, logg)
	if err != nil {
		return nil, fmt.Errorf("app.OpenStore: %w", err)
	}

	revoker, rdb, err := newRevoker(ctx, cfg)
	if err != nil {
		store.Close() //nolint:errcheck

		return nil, fmt.Errorf("app.newRevoker: %w", err)
	}

	srv, err := server.NewServer(
		store,
		server.WithServerAddr(cfg.ServerAddr),
		server.WithLogger(logg),
		server.WithRouterOptions(
			router.WithSecret([]byte(cfg.JWTSecretKey)),
			router.WithTokenOptions(auth.WithTokenTTL(cfg.SessionTTL)),
			router.WithRevoker(revoker),
			router.WithAllowedOrigins(cfg.AllowedOrigins()),
		),
	)
	if err != nil {
		store.Close() //nolint:errcheck

		return nil, fmt.Errorf("server.NewServer: %w", err)
	}

	logg.Info("Record store opened",
		slog.String("backend", cfg.StoreBackend),
		slog.String("workbook", store.Name()),
	)

	return &Application{
		log:    logg,
		server: srv,
		store:  store,
		redis:  rdb,
	}, nil
}

// OpenStore opens the record store backend named by cfg.StoreBackend.
func OpenStore(ctx context.Context, cfg config.Config, log *slog.Logger) (recordstore.Store, error) {
	switch cfg.StoreBackend {
	case BackendMemory:
		return inmemory.NewStorage(cfg.WorkbookName), nil

	case BackendXLSX:
		store, err := xlsxstore.NewStorage(cfg.WorkbookPath,
			xlsxstore.WithName(cfg.WorkbookName),
			xlsxstore.WithLogger(log),
		)
		if err != nil {
			return nil, fmt.Errorf("xlsxstore.NewStorage: %w", err)
		}

		return store, nil

	case BackendSheets:
		if cfg.SpreadsheetID == "" {
			return nil, errors.New("spreadsheet ID is required for the sheets backend")
		}

		return sheetsapi.NewStorage(cfg.SpreadsheetID,
			sheetsapi.WithLogger(log),
			sheetsapi.WithBaseURL(cfg.SheetsAPIURL),
			sheetsapi.WithAccessToken(cfg.SheetsToken),
			sheetsapi.WithTimeout(cfg.StoreTimeout),
			sheetsapi.WithRetryWaitTime(cfg.StoreRetryWait),
		), nil

	case BackendPostgres:
		store, err := pgstore.NewStorage(cfg.DatabaseURI,
			pgstore.WithName(cfg.WorkbookName),
			pgstore.WithLogger(log),
			pgstore.WithTimeout(cfg.StoreTimeout),
			pgstore.WithRetryWait(cfg.StoreRetryWait),
		)
		if err != nil {
			return nil, fmt.Errorf("pgstore.NewStorage: %w", err)
		}

		if err := store.Bootstrap(ctx); err != nil {
			store.Close() //nolint:errcheck

			return nil, fmt.Errorf("store.Bootstrap: %w", err)
		}

		return store, nil

	default:
		return nil, fmt.Errorf("%w: %q", recordstore.ErrUnknownBackend, cfg.StoreBackend)
	}
}

// newRevoker keeps logged out tokens in redis when an address is configured, in memory otherwise.
func newRevoker(ctx context.Context, cfg config.Config) (session.Revoker, *redis.Client, error) {
	if cfg.RedisAddr == "" {
		return session.NewMemoryRevoker(), nil, nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close() //nolint:errcheck

		return nil, nil, fmt.Errorf("redis.Ping: %w", err)
	}

	return session.NewRedisRevoker(rdb), rdb, nil
}

func (a *Application) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Error("store.Close()", slog.Any("error", err))
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Error("redis.Close()", slog.Any("error", err))
		}
	}
}

func (a *Application) Run() error {
	defer a.Close()

	errChan := make(chan error, 1)

	go func() {
		if err := a.server.Start(); err != nil {
			errChan <- fmt.Errorf("server.Start: %w", err)
		}
	}()

	// Graceful shutdown handler
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err

	case <-quit:
		a.log.Info("Gracefully shutting down application...")

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return a.server.Shutdown(ctx) //nolint:wrapcheck
	}
}
