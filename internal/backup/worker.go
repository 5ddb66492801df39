package backup

import (
	"context"
	"time"

	"finboard/internal/events"
	"finboard/internal/log"
)

// Runner performs one backup.
type Runner interface {
	Run(ctx context.Context) (int, error)
}

// Worker runs a backup once change events stop arriving for the debounce
// interval, so a burst of mutations costs one sheet rewrite.
type Worker struct {
	runner   Runner
	debounce time.Duration
	userID   int64
	kick     chan struct{}
	logger   *log.Logger
}

// NewWorker only reacts to changes of userID; 0 accepts every user.
func NewWorker(r Runner, debounce time.Duration, userID int64, logger *log.Logger) *Worker {
	if logger == nil {
		logger = log.Discard()
	}
	return &Worker{
		runner:   r,
		debounce: debounce,
		userID:   userID,
		kick:     make(chan struct{}, 1),
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// Handle is an events.Handler. It never fails, so deliveries are always acked.
func (w *Worker) Handle(ctx context.Context, c events.Change) error {
	if w.userID != 0 && c.UserID != w.userID {
		w.logger.DebugContext(ctx, "Ignoring change of another user", log.FieldUserID, c.UserID)
		return nil
	}
	if c.Entity == events.EntityAccount && c.Op == events.OpDelete {
		w.logger.InfoContext(ctx, "Account deleted, nothing left to back up", log.FieldUserID, c.UserID)
		return nil
	}
	w.Trigger()
	return nil
}

// Trigger schedules a backup after the debounce interval.
func (w *Worker) Trigger() {
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

// Run waits for triggers until ctx is cancelled. Backup failures are logged
// and the next trigger tries again.
func (w *Worker) Run(ctx context.Context) error {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.kick:
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			fire = timer.C
		case <-fire:
			timer, fire = nil, nil
			n, err := w.runner.Run(ctx)
			if err != nil {
				w.logger.ErrorContext(ctx, "Backup failed",
					log.NewFields().WithOperation(log.OpBackup).WithError(err).ToSlice()...)
				continue
			}
			w.logger.InfoContext(ctx, "Backup complete", "transactions", n)
		}
	}
}
