package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/nkiryanov/realit/internal/db"
	"github.com/nkiryanov/realit/internal/handlers"
	"github.com/nkiryanov/realit/internal/logger"
	"github.com/nkiryanov/realit/internal/metrics"
	"github.com/nkiryanov/realit/internal/repository"
	"github.com/nkiryanov/realit/internal/repository/memory"
	"github.com/nkiryanov/realit/internal/repository/postgres"
	"github.com/nkiryanov/realit/internal/service/auth"
	"github.com/nkiryanov/realit/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/realit/internal/service/sweeper"
	"github.com/nkiryanov/realit/internal/service/user"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger  logger.Logger
	sweeper *sweeper.Sweeper

	// Release resources in reverse order
	closers []func()
}

func NewServerApp(ctx context.Context, c *Config) (_ *ServerApp, err error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	app := &ServerApp{ListenAddr: c.ListenAddr, logger: logger}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	if c.SentryDSN != "" {
		err = sentry.Init(sentry.ClientOptions{
			Dsn:              c.SentryDSN,
			Environment:      c.Environment,
			AttachStacktrace: true,
		})
		if err != nil {
			return nil, fmt.Errorf("error while initializing sentry. Err: %w", err)
		}
		app.closers = append(app.closers, func() { sentry.Flush(2 * time.Second) })
	}

	// Initialize storage
	var storage repository.Storage
	if c.DatabaseDSN == "" {
		logger.Warn("database is not configured, credentials are kept in memory and lost on restart")
		storage = memory.NewStorage()
	} else {
		// Connect to the database and run migrations
		pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
		}
		app.closers = append(app.closers, pool.Close)
		storage = postgres.NewStorage(pool)
	}

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{
		AccessSecret:  c.AccessSecret,
		RefreshSecret: c.RefreshSecret,
		AccessTTL:     c.AccessTokenTTL,
		RefreshTTL:    c.RefreshTokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}

	m := metrics.New()
	authService, err := auth.NewService(
		auth.Config{Logger: logger.WithGroup("auth"), Metrics: m},
		tokenManager,
		storage,
	)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}
	userService := user.NewService(storage)

	app.Handler = handlers.NewRouter(authService, userService, m, logger)
	app.sweeper = sweeper.New(
		sweeper.Config{Interval: c.SweepInterval, Logger: logger.WithGroup("sweeper"), Observer: m},
		storage.Refresh(),
	)

	return app, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	sweeperStopped := s.sweeper.Run(srvCtx)

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed
	<-sweeperStopped

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *ServerApp) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
