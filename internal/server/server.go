package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/andymarkow/fueltracker/internal/logger"
	"github.com/andymarkow/fueltracker/internal/recordstore"
	"github.com/andymarkow/fueltracker/internal/server/router"
)

type Server struct {
	srv *http.Server
	log *slog.Logger
}

type config struct {
	addr       string
	log        *slog.Logger
	routerOpts []router.Option
}

type Option func(c *config)

func WithServerAddr(addr string) Option {
	return func(c *config) {
		c.addr = addr
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.log = logger
	}
}

// WithRouterOptions passes options through to the router.
func WithRouterOptions(opts ...router.Option) Option {
	return func(c *config) {
		c.routerOpts = append(c.routerOpts, opts...)
	}
}

func NewServer(store recordstore.Store, opts ...Option) (*Server, error) {
	cfg := &config{
		addr: "localhost:8080",
		log:  logger.Nop(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.addr == "" {
		return nil, errors.New("server address is empty")
	}

	routerOpts := append([]router.Option{router.WithLogger(cfg.log)}, cfg.routerOpts...)

	srv := &http.Server{
		Addr:              cfg.addr,
		Handler:           router.NewRouter(store, routerOpts...),
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return &Server{
		srv: srv,
		log: cfg.log,
	}, nil
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info(fmt.Sprintf("Starting server on %s", s.srv.Addr))

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe: %w", err)
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}

	return nil
}
