package backend

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
	"fintrack/internal/storage/postgres"
)

type Factory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Factory{logger: logger.WithComponent(log.ComponentBackend)}
}

// Create opens the configured repository and, when AMQP_URL is set, the
// event publisher. A broker that cannot be reached is logged and skipped;
// the database stays the source of truth.
func (f *Factory) Create(ctx context.Context, cfg *config.Config) (*Result, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	typ := Type(cfg.DataBackend)
	if !typ.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	repo, err := f.openRepository(ctx, typ, cfg)
	if err != nil {
		return nil, err
	}

	res := &Result{Type: typ, Repository: repo}
	var publisher *amqp.Client
	if cfg.AMQPURL != "" {
		publisher, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, f.logger)
		if err != nil {
			f.logger.WarnContext(ctx, "AMQP unavailable, continuing without ledger events", log.FieldError, err.Error())
		} else {
			res.Publisher = publisher
			f.logger.InfoContext(ctx, "AMQP publisher ready", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	res.Cleanup = func() error {
		var errs []error
		if publisher != nil {
			errs = append(errs, publisher.Close())
		}
		errs = append(errs, repo.Close())
		return errors.Join(errs...)
	}
	f.logger.InfoContext(ctx, "Backend initialized", "type", typ.String(), "events_enabled", res.Publisher != nil)
	return res, nil
}

func (f *Factory) openRepository(ctx context.Context, typ Type, cfg *config.Config) (services.Repository, error) {
	switch typ {
	case SQLite:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite repository: %w", err)
		}
		return repo, nil
	case Postgres:
		repo, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres repository: %w", err)
		}
		return repo, nil
	}
	return nil, fmt.Errorf("unsupported backend type: %s", typ)
}
