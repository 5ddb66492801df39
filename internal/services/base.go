package services

import (
	"context"
	"time"

	"finboard/internal/core"
	"finboard/internal/events"
	"finboard/internal/log"
	"finboard/internal/session"
)

// base carries what every service shares: where notices go, where change
// events go, who is signed in and how to log.
type base struct {
	notifier Notifier
	events   events.Publisher
	session  *session.Session
	logger   *log.Logger
	now      func() time.Time
}

type Option func(*base)

func WithNotifier(n Notifier) Option {
	return func(b *base) { b.notifier = n }
}

// WithEvents publishes a change after every successful mutation.
func WithEvents(p events.Publisher) Option {
	return func(b *base) { b.events = p }
}

// WithSession identifies the user for cache keys and change events.
func WithSession(s *session.Session) Option {
	return func(b *base) { b.session = s }
}

func WithLogger(l *log.Logger) Option {
	return func(b *base) { b.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(b *base) { b.now = now }
}

func newBase(component string, opts []Option) base {
	b := base{
		notifier: nopNotifier{},
		events:   events.Nop{},
		now:      time.Now,
	}
	for _, o := range opts {
		o(&b)
	}
	if b.logger == nil {
		b.logger = log.Discard()
	}
	b.logger = b.logger.WithComponent(component)
	return b
}

// userID is the signed-in user's id, or 0 without a session.
func (b *base) userID(ctx context.Context) int64 {
	if b.session == nil {
		return 0
	}
	u, err := b.session.User(ctx)
	if err != nil {
		return 0
	}
	return u.ID
}

func (b *base) success(text string) {
	b.notifier.Notify(Notice{Level: LevelSuccess, Text: text})
}

func (b *base) warn(text string) {
	b.notifier.Notify(Notice{Level: LevelWarning, Text: text})
}

// fail reports err to the user and the log and hands it back.
func (b *base) fail(ctx context.Context, op string, err error) error {
	b.notifier.Notify(Notice{Level: LevelError, Text: core.UserMessage(err)})
	b.logger.ErrorContext(ctx, "Operation failed", log.NewFields().WithOperation(op).WithError(err).ToSlice()...)
	return err
}

// staleAfterSave reports a re-fetch that failed after a successful
// mutation. The user only gets a warning.
func (b *base) staleAfterSave(ctx context.Context, what string, err error) {
	b.warn("Saved, but the " + what + " could not be refreshed.")
	b.logger.WarnContext(ctx, "Refresh after mutation failed",
		log.NewFields().WithOperation(log.OpRefresh).WithError(err).ToSlice()...)
}

// publish sends a change event. Failures are logged and never fail the
// mutation that already succeeded.
func (b *base) publish(ctx context.Context, entity, op string, id int64) {
	ch := events.NewChange(entity, op, id, b.userID(ctx))
	if err := b.events.Publish(ctx, ch); err != nil {
		b.logger.WarnContext(ctx, "Failed to publish change",
			log.NewFields().WithOperation(log.OpPublish).WithEntity(entity, id).WithError(err).ToSlice()...)
	}
}
