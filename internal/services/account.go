package services

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"finboard/internal/core"
	"finboard/internal/events"
	"finboard/internal/log"
	"finboard/internal/ports"
	"finboard/internal/session"
)

// AccountBackend is what the account service needs from the backend.
type AccountBackend interface {
	ports.Authenticator
	ports.ProfileStore
	ports.AnalyticsSource
	ports.AccountAdmin
	ports.Exporter
}

// Account covers login, profile and the destructive account operations.
type Account struct {
	base
	backend AccountBackend
	sess    *session.Session
	ledger  *Ledger
}

// NewAccount requires a session; ledger may be nil.
func NewAccount(backend AccountBackend, sess *session.Session, ledger *Ledger, opts ...Option) *Account {
	opts = append([]Option{WithSession(sess)}, opts...)
	return &Account{
		base:    newBase(log.ComponentAccount, opts),
		backend: backend,
		sess:    sess,
		ledger:  ledger,
	}
}

// Login authenticates, starts the session and caches the profile. A
// profile fetch failure does not fail the login.
func (a *Account) Login(ctx context.Context, email, password string) (session.User, error) {
	res, err := a.backend.Login(ctx, email, password)
	if err != nil {
		return session.User{}, a.fail(ctx, log.OpLogin, err)
	}
	if err := a.sess.Begin(ctx, res); err != nil {
		return session.User{}, a.fail(ctx, log.OpLogin, err)
	}
	if p, err := a.backend.GetProfile(ctx); err == nil {
		if err := a.sess.CacheProfile(ctx, p); err != nil {
			a.logger.WarnContext(ctx, "Failed to cache profile", "error", err)
		}
	} else {
		a.logger.WarnContext(ctx, "Failed to load profile after login", "error", err)
	}
	if a.ledger != nil {
		a.ledger.Reset(ctx)
	}
	a.success("Login successful!")
	return session.User{ID: res.UserID, Username: res.Username, Email: res.Email}, nil
}

// Logout ends the session and drops the cached ledger.
func (a *Account) Logout(ctx context.Context) error {
	if a.ledger != nil {
		a.ledger.Reset(ctx)
	}
	if err := a.sess.End(ctx); err != nil {
		return a.fail(ctx, log.OpLogout, err)
	}
	a.notifier.Notify(Notice{Level: LevelInfo, Text: "Logged out."})
	return nil
}

// Profile fetches the profile and refreshes the cache. When the backend is
// unreachable the cached copy is returned with a warning.
func (a *Account) Profile(ctx context.Context) (core.Profile, error) {
	p, err := a.backend.GetProfile(ctx)
	if err == nil {
		if cerr := a.sess.CacheProfile(ctx, p); cerr != nil {
			a.logger.WarnContext(ctx, "Failed to cache profile", "error", cerr)
		}
		return p, nil
	}
	cached, ok, cerr := a.sess.CachedProfile(ctx)
	if cerr != nil || !ok {
		return core.Profile{}, a.fail(ctx, log.OpRead, err)
	}
	a.warn("Showing saved profile: " + core.UserMessage(err))
	return cached, nil
}

func (a *Account) UpdateProfile(ctx context.Context, p core.Profile) error {
	if err := a.backend.UpdateProfile(ctx, p); err != nil {
		return a.fail(ctx, log.OpUpdate, err)
	}
	if err := a.sess.CacheProfile(ctx, p); err != nil {
		a.logger.WarnContext(ctx, "Failed to cache profile", "error", err)
	}
	a.success("Profile updated successfully!")
	a.publish(ctx, events.EntityProfile, events.OpUpdate, 0)
	return nil
}

// UploadProfileImage sends the image and re-reads the profile so the cache
// holds the stored data URL.
func (a *Account) UploadProfileImage(ctx context.Context, filename string, data []byte) error {
	if len(data) == 0 {
		return a.fail(ctx, log.OpUpdate, core.ErrEmptyImage)
	}
	if err := a.backend.UploadProfileImage(ctx, filename, bytes.NewReader(data)); err != nil {
		return a.fail(ctx, log.OpUpdate, fmt.Errorf("upload image: %w", err))
	}
	a.success("Profile image uploaded successfully!")
	a.publish(ctx, events.EntityProfile, events.OpUpdate, 0)
	a.recacheProfile(ctx)
	return nil
}

func (a *Account) DeleteProfileImage(ctx context.Context) error {
	if err := a.backend.DeleteProfileImage(ctx); err != nil {
		return a.fail(ctx, log.OpDelete, fmt.Errorf("delete image: %w", err))
	}
	a.success("Profile image deleted successfully!")
	a.publish(ctx, events.EntityProfile, events.OpUpdate, 0)
	a.recacheProfile(ctx)
	return nil
}

func (a *Account) recacheProfile(ctx context.Context) {
	p, err := a.backend.GetProfile(ctx)
	if err != nil {
		a.staleAfterSave(ctx, "profile", err)
		return
	}
	if err := a.sess.CacheProfile(ctx, p); err != nil {
		a.logger.WarnContext(ctx, "Failed to cache profile", "error", err)
	}
}

// Summary is the backend's own all-time summary.
func (a *Account) Summary(ctx context.Context) (core.ServerSummary, error) {
	s, err := a.backend.Summary(ctx)
	if err != nil {
		return core.ServerSummary{}, a.fail(ctx, log.OpRead, err)
	}
	return s, nil
}

// ResetData deletes every transaction, budget and goal of the user after
// confirmation. The account and session stay.
func (a *Account) ResetData(ctx context.Context, d core.Decision) error {
	if err := d.Require(); err != nil {
		return err
	}
	if err := a.backend.ResetData(ctx); err != nil {
		return a.fail(ctx, log.OpDelete, err)
	}
	a.success("All data has been reset.")
	a.publish(ctx, events.EntityAccount, events.OpReset, 0)
	if a.ledger != nil {
		a.ledger.afterMutation(ctx)
	}
	return nil
}

// DeleteAccount removes the account after confirmation and ends the session.
func (a *Account) DeleteAccount(ctx context.Context, d core.Decision) error {
	if err := d.Require(); err != nil {
		return err
	}
	// Capture the user id before the session ends.
	uid := a.userID(ctx)
	if err := a.backend.DeleteAccount(ctx); err != nil {
		return a.fail(ctx, log.OpDelete, err)
	}
	if err := a.events.Publish(ctx, events.NewChange(events.EntityAccount, events.OpDelete, uid, uid)); err != nil {
		a.logger.WarnContext(ctx, "Failed to publish change", "error", err)
	}
	if a.ledger != nil {
		a.ledger.Reset(ctx)
	}
	if err := a.sess.End(ctx); err != nil {
		return a.fail(ctx, log.OpLogout, err)
	}
	a.success("Your account has been deleted.")
	return nil
}

// Export downloads a backend-rendered document into w.
func (a *Account) Export(ctx context.Context, format core.ExportFormat, w io.Writer) (int64, error) {
	n, err := a.backend.Export(ctx, format, w)
	if err != nil {
		return n, a.fail(ctx, log.OpExport, fmt.Errorf("export %s: %w", format, err))
	}
	a.success(fmt.Sprintf("Exported %s (%d bytes).", format, n))
	return n, nil
}
