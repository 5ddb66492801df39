package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"finboard/internal/backend"
	"finboard/internal/cache"
	"finboard/internal/config"
	"finboard/internal/core"
	"finboard/internal/form"
	"finboard/internal/log"
	"finboard/internal/ports"
	"finboard/internal/services"
	"finboard/internal/session"
)

// IO is where commands read answers and write output. Notices and prompts
// go to Err.
type IO struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// StdIO uses the process streams.
func StdIO() IO {
	return IO{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// App is one signed-in (or signing-in) client with every service wired.
type App struct {
	IO
	Config  *config.Config
	Logger  *log.Logger
	Session *session.Session
	Backend ports.Backend
	Ledger  *services.Ledger
	Budgets *services.Budgets
	Savings *services.Savings
	Account *services.Account
	Form    *form.Validator
	Now     func() time.Time

	caches  *cache.Manager
	cleanup backend.CleanupFunc
}

// NewApp builds the backend described by cfg and the services on top of it.
func NewApp(ctx context.Context, cfg *config.Config, logger *log.Logger, stdio IO) (*App, error) {
	if logger == nil {
		logger = log.Discard()
	}
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).Create(ctx, bc)
	if err != nil {
		return nil, err
	}

	ledgerCache := cache.NewLRUCache[[]core.Transaction](cfg.CacheSize, cfg.CacheTTL)
	caches := cache.NewManager(logger)
	caches.Register(ledgerCache)
	if cfg.CacheTTL > 0 {
		caches.StartCleanup(cfg.CacheTTL)
	}

	notifier := services.NotifierFunc(func(n services.Notice) {
		fmt.Fprintf(stdio.Err, "%s: %s\n", n.Level, n.Text)
	})
	opts := []services.Option{
		services.WithNotifier(notifier),
		services.WithEvents(res.Events),
		services.WithSession(res.Session),
		services.WithLogger(logger),
	}
	ledger := services.NewLedger(res.Backend, res.Backend, ledgerCache, opts...)

	return &App{
		IO:      stdio,
		Config:  cfg,
		Logger:  logger.WithComponent(log.ComponentCLI),
		Session: res.Session,
		Backend: res.Backend,
		Ledger:  ledger,
		Budgets: services.NewBudgets(res.Backend, ledger, opts...),
		Savings: services.NewSavings(res.Backend, res.Backend, ledger, opts...),
		Account: services.NewAccount(res.Backend, res.Session, ledger, opts...),
		Form:    form.Default(),
		Now:     time.Now,
		caches:  caches,
		cleanup: res.Cleanup,
	}, nil
}

// Close stops the cache sweeper and releases the backend.
func (a *App) Close() error {
	if a.Config.CacheTTL > 0 {
		a.caches.Stop()
	}
	if a.cleanup != nil {
		return a.cleanup()
	}
	return nil
}
