package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"finboard/internal/core"
	"finboard/internal/log"
)

// ErrNotSignedIn is returned by operations that need a token when there is none.
var ErrNotSignedIn = errors.New("not signed in")

// User identifies the signed-in account.
type User struct {
	ID       int64
	Username string
	Email    string
}

// Session is the signed-in state. Its lifecycle follows login and logout;
// nothing else writes the token. Two processes sharing one Store race
// last-writer-wins.
type Session struct {
	store  Store
	now    func() time.Time
	logger *log.Logger
}

type Option func(*Session)

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Session) { s.logger = l }
}

func New(store Store, opts ...Option) *Session {
	s := &Session{store: store, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	if s.logger == nil {
		s.logger = log.Discard()
	}
	s.logger = s.logger.WithComponent(log.ComponentSession)
	return s
}

// Store returns the backing store.
func (s *Session) Store() Store { return s.store }

// Begin replaces whatever was stored with the login result.
func (s *Session) Begin(ctx context.Context, res core.LoginResult) error {
	if strings.TrimSpace(res.Token) == "" {
		return fmt.Errorf("begin session: empty token")
	}
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("begin session: %w", err)
	}
	vals := [][2]string{
		{KeyToken, res.Token},
		{KeyUsername, res.Username},
		{KeyEmail, res.Email},
		{KeyUserID, strconv.FormatInt(res.UserID, 10)},
	}
	for _, kv := range vals {
		if err := s.store.Set(ctx, kv[0], kv[1]); err != nil {
			return fmt.Errorf("begin session: %w", err)
		}
	}
	s.logger.Info("Session started", "user", res.Username, log.FieldUserID, res.UserID)
	return nil
}

// End clears every stored value.
func (s *Session) End(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	s.logger.Info("Session ended")
	return nil
}

func (s *Session) get(ctx context.Context, key string) (string, error) {
	v, _, err := s.store.Get(ctx, key)
	return v, err
}

// Token implements api.TokenSource. A store failure is logged and treated
// as no token.
func (s *Session) Token() string {
	tok, err := s.get(context.Background(), KeyToken)
	if err != nil {
		s.logger.Warn("Failed to read session token", "error", err)
		return ""
	}
	return tok
}

// User returns the signed-in account, or ErrNotSignedIn.
func (s *Session) User(ctx context.Context) (User, error) {
	tok, err := s.get(ctx, KeyToken)
	if err != nil {
		return User{}, err
	}
	if tok == "" {
		return User{}, ErrNotSignedIn
	}
	var u User
	if u.Username, err = s.get(ctx, KeyUsername); err != nil {
		return User{}, err
	}
	if u.Email, err = s.get(ctx, KeyEmail); err != nil {
		return User{}, err
	}
	id, err := s.get(ctx, KeyUserID)
	if err != nil {
		return User{}, err
	}
	u.ID, _ = strconv.ParseInt(id, 10, 64)
	return u, nil
}

var profileKeys = []string{KeyFullName, KeyMobile, KeyPreferredCurrency, KeyFinancialGoal, KeyProfileImage}

// CacheProfile stores the editable profile fields. Empty fields are removed.
func (s *Session) CacheProfile(ctx context.Context, p core.Profile) error {
	vals := map[string]string{
		KeyFullName:          p.FullName,
		KeyMobile:            p.Mobile,
		KeyPreferredCurrency: p.PreferredCurrency,
		KeyFinancialGoal:     p.FinancialGoal,
		KeyProfileImage:      p.ProfileImage,
	}
	var empty []string
	for _, k := range profileKeys {
		if vals[k] == "" {
			empty = append(empty, k)
			continue
		}
		if err := s.store.Set(ctx, k, vals[k]); err != nil {
			return fmt.Errorf("cache profile: %w", err)
		}
	}
	if len(empty) > 0 {
		if err := s.store.Delete(ctx, empty...); err != nil {
			return fmt.Errorf("cache profile: %w", err)
		}
	}
	return nil
}

// CachedProfile rebuilds the profile from the cached fields and the login
// identity. ok is false when no profile field was ever cached.
func (s *Session) CachedProfile(ctx context.Context) (p core.Profile, ok bool, err error) {
	dst := map[string]*string{
		KeyFullName:          &p.FullName,
		KeyMobile:            &p.Mobile,
		KeyPreferredCurrency: &p.PreferredCurrency,
		KeyFinancialGoal:     &p.FinancialGoal,
		KeyProfileImage:      &p.ProfileImage,
		KeyUsername:          &p.Username,
		KeyEmail:             &p.Email,
	}
	for key, ptr := range dst {
		v, found, err := s.store.Get(ctx, key)
		if err != nil {
			return core.Profile{}, false, fmt.Errorf("read cached profile: %w", err)
		}
		*ptr = v
		if found && key != KeyUsername && key != KeyEmail {
			ok = true
		}
	}
	return p, ok, nil
}

// Expiry reads the exp claim of the stored token without verifying the
// signature. ok is false when there is no token or no exp claim.
func (s *Session) Expiry() (exp time.Time, ok bool) {
	tok := s.Token()
	if tok == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return time.Time{}, false
	}
	nd, err := claims.GetExpirationTime()
	if err != nil || nd == nil {
		return time.Time{}, false
	}
	return nd.Time, true
}

// Active reports a stored token that has not expired. Tokens without an exp
// claim count as active; the backend decides.
func (s *Session) Active() bool {
	if s.Token() == "" {
		return false
	}
	exp, ok := s.Expiry()
	return !ok || s.now().Before(exp)
}
