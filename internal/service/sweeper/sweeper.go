// Package sweeper periodically deletes refresh token records that can never be used again
package sweeper

import (
	"context"
	"time"

	"github.com/nkiryanov/realit/internal/logger"
)

const defaultInterval = time.Hour

type tokenPurger interface {
	DeleteDead(ctx context.Context, now time.Time) (int64, error)
}

type purgeObserver interface {
	TokensPurged(n int64)
}

type noopObserver struct{}

func (noopObserver) TokensPurged(int64) {}

type Config struct {
	// How often to purge. One hour if not set
	Interval time.Duration

	Logger   logger.Logger
	Observer purgeObserver
	Now      func() time.Time
}

type Sweeper struct {
	interval time.Duration
	logger   logger.Logger
	observer purgeObserver
	now      func() time.Time

	tokens tokenPurger
}

func New(cfg Config, tokens tokenPurger) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNoOpLogger()
	}
	if cfg.Observer == nil {
		cfg.Observer = noopObserver{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Sweeper{
		interval: cfg.Interval,
		logger:   cfg.Logger,
		observer: cfg.Observer,
		now:      cfg.Now,
		tokens:   tokens,
	}
}

// Purge dead records once
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	deleted, err := s.tokens.DeleteDead(ctx, s.now())
	if err != nil {
		return 0, err
	}
	s.observer.TokensPurged(deleted)

	return deleted, nil
}

// Start purging on every tick until ctx is done
// Returned channel is closed when the loop stopped
func (s *Sweeper) Run(ctx context.Context) <-chan struct{} {
	idleStopped := make(chan struct{})
	s.logger.Debug("Starting sweeper", "interval", s.interval)

	go func() {
		defer close(idleStopped)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Debug("Sweeper stopped by context")
				return

			case <-ticker.C:
				deleted, err := s.Sweep(ctx)
				if err != nil {
					if ctx.Err() == nil {
						s.logger.Error("Failed to purge refresh tokens", "error", err)
					}
					continue
				}
				if deleted > 0 {
					s.logger.Info("Refresh tokens purged", "deleted", deleted)
				}
			}
		}
	}()

	return idleStopped
}
