package backend

import (
	"context"
	"errors"
	"fmt"

	"finboard/internal/api"
	"finboard/internal/events"
	"finboard/internal/log"
	"finboard/internal/memory"
	"finboard/internal/ports"
	"finboard/internal/session"
)

// DefaultFactory implements the Factory interface.
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory.
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// Create opens the session store, builds the data backend on top of it and
// connects the optional change publisher. On error everything opened so far
// is closed again.
func (f *DefaultFactory) Create(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var closers []func() error
	cleanup := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	store, err := f.createSessionStore(ctx, config)
	if err != nil {
		return nil, err
	}
	closers = append(closers, store.Close)
	sess := session.New(store, session.WithLogger(f.logger))

	var be ports.Backend
	switch config.Type {
	case APIBackend:
		be, err = api.New(config.APIURL,
			api.WithTokenSource(sess),
			api.WithTimeout(config.APITimeout),
			api.WithLogger(f.logger))
	case MemoryBackend:
		be = memory.New()
	default:
		err = fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		_ = cleanup()
		return nil, fmt.Errorf("failed to initialize %s backend: %w", config.Type, err)
	}

	var pub events.Publisher = events.Nop{}
	if config.AMQPURL != "" {
		client, err := events.Dial(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without change events", "error", err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			pub = client
			closers = append(closers, client.Close)
		}
	}

	f.logger.Info("Initialized backend",
		log.FieldBackend, config.Type,
		"session", config.Session,
		"events_enabled", config.AMQPURL != "")

	return &Result{
		Backend: be,
		Session: sess,
		Events:  pub,
		Cleanup: cleanup,
	}, nil
}

func (f *DefaultFactory) createSessionStore(ctx context.Context, config Config) (session.Store, error) {
	switch config.Session {
	case MemorySession:
		return session.NewMemoryStore(), nil
	case SQLiteSession:
		store, err := session.NewSQLiteStore(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite session store: %w", err)
		}
		f.logger.Debug("Opened SQLite session store", "db_path", config.SQLiteDBPath)
		return store, nil
	case RedisSession:
		store, err := session.NewRedisStore(ctx, config.RedisURL, config.SessionNamespace)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Redis session store: %w", err)
		}
		f.logger.Debug("Opened Redis session store", "namespace", config.SessionNamespace)
		return store, nil
	}
	return nil, fmt.Errorf("%w: %s", session.ErrUnknownBackend, config.Session)
}
