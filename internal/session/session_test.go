package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"finboard/internal/core"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()

	sq, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "session.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { sq.Close() })

	mr := miniredis.RunT(t)
	rs, err := NewRedisStore(context.Background(), "redis://"+mr.Addr(), "test")
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	t.Cleanup(func() { rs.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sq,
		"redis":  rs,
	}
}

func TestStores(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := s.Get(ctx, "missing"); ok || err != nil {
				t.Fatalf("Get missing = ok %v err %v", ok, err)
			}
			if err := s.Set(ctx, "a", "1"); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if err := s.Set(ctx, "a", "2"); err != nil {
				t.Fatalf("Set overwrite: %v", err)
			}
			if err := s.Set(ctx, "b", "3"); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if v, ok, err := s.Get(ctx, "a"); !ok || err != nil || v != "2" {
				t.Fatalf("Get a = %q %v %v", v, ok, err)
			}

			if err := s.Delete(ctx, "a"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, ok, _ := s.Get(ctx, "a"); ok {
				t.Fatal("a still present after Delete")
			}
			if err := s.Delete(ctx); err != nil {
				t.Fatalf("Delete nothing: %v", err)
			}

			if err := s.Clear(ctx); err != nil {
				t.Fatalf("Clear: %v", err)
			}
			if _, ok, _ := s.Get(ctx, "b"); ok {
				t.Fatal("b still present after Clear")
			}
		})
	}
}

func TestSQLiteStoreInMemory(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()

	for i := 0; i < 3; i++ {
		if err := s.Set(ctx, "token", "abc"); err != nil {
			t.Fatalf("Set #%d: %v", i, err)
		}
	}
	if v, ok, err := s.Get(ctx, "token"); !ok || err != nil || v != "abc" {
		t.Fatalf("Get token = %q %v %v", v, ok, err)
	}
}

func TestSQLiteStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	ctx := context.Background()

	s1, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s1.Set(ctx, KeyToken, "persisted"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	s1.Close()

	s2, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	if v, ok, _ := s2.Get(ctx, KeyToken); !ok || v != "persisted" {
		t.Fatalf("value after reopen = %q, %v", v, ok)
	}
}

func TestRedisStoreNamespaces(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	a := NewRedisStoreWithClient(client, "a")
	b := NewRedisStoreWithClient(client, "b")
	_ = a.Set(ctx, KeyToken, "ta")
	_ = b.Set(ctx, KeyToken, "tb")
	if err := a.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if v, ok, _ := b.Get(ctx, KeyToken); !ok || v != "tb" {
		t.Fatalf("namespace b affected by clearing a: %q %v", v, ok)
	}
	if mr.Exists("finboard:session:a") {
		t.Fatal("hash a should be deleted")
	}
}

func TestNewRedisStoreBadURL(t *testing.T) {
	if _, err := NewRedisStore(context.Background(), "not-a-url", ""); err == nil {
		t.Fatal("expected error")
	}
}

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s := New(NewMemoryStore(), WithClock(func() time.Time { return now }))

	if s.Active() {
		t.Fatal("empty session should not be active")
	}
	if _, err := s.User(ctx); !errors.Is(err, ErrNotSignedIn) {
		t.Fatalf("User before login = %v", err)
	}

	tok := signed(t, jwt.MapClaims{"sub": "ana@example.com", "exp": now.Add(time.Hour).Unix()})
	if err := s.Begin(ctx, core.LoginResult{Token: tok, Username: "ana", UserID: 7, Email: "ana@example.com"}); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if s.Token() != tok {
		t.Fatal("token not stored")
	}
	u, err := s.User(ctx)
	if err != nil || u != (User{ID: 7, Username: "ana", Email: "ana@example.com"}) {
		t.Fatalf("User = %+v, %v", u, err)
	}
	exp, ok := s.Expiry()
	if !ok || !exp.Equal(now.Add(time.Hour)) {
		t.Fatalf("Expiry = %v, %v", exp, ok)
	}
	if !s.Active() {
		t.Fatal("session should be active before exp")
	}

	now = now.Add(2 * time.Hour)
	if s.Active() {
		t.Fatal("session should be inactive after exp")
	}

	if err := s.End(ctx); err != nil {
		t.Fatalf("End: %v", err)
	}
	if s.Token() != "" {
		t.Fatal("token survived End")
	}
}

func TestSessionBeginRejectsEmptyToken(t *testing.T) {
	s := New(NewMemoryStore())
	if err := s.Begin(context.Background(), core.LoginResult{Username: "x"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestTokenWithoutExpIsActive(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryStore())
	_ = s.Begin(ctx, core.LoginResult{Token: signed(t, jwt.MapClaims{"sub": "x"})})
	if _, ok := s.Expiry(); ok {
		t.Fatal("expected no expiry")
	}
	if !s.Active() {
		t.Fatal("token without exp should be active")
	}

	_ = s.Begin(ctx, core.LoginResult{Token: "opaque-token"})
	if !s.Active() {
		t.Fatal("opaque token should be active")
	}
}

func TestProfileCache(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryStore())
	_ = s.Begin(ctx, core.LoginResult{Token: "t", Username: "ana", Email: "ana@example.com"})

	if _, ok, err := s.CachedProfile(ctx); ok || err != nil {
		t.Fatalf("CachedProfile before caching: ok=%v err=%v", ok, err)
	}

	p := core.Profile{FullName: "Ana Lima", PreferredCurrency: "EUR", Mobile: "555"}
	if err := s.CacheProfile(ctx, p); err != nil {
		t.Fatalf("CacheProfile: %v", err)
	}
	got, ok, err := s.CachedProfile(ctx)
	if err != nil || !ok {
		t.Fatalf("CachedProfile: ok=%v err=%v", ok, err)
	}
	if got.FullName != "Ana Lima" || got.Username != "ana" || got.Email != "ana@example.com" || got.Mobile != "555" {
		t.Fatalf("unexpected profile %+v", got)
	}

	p.Mobile = ""
	_ = s.CacheProfile(ctx, p)
	got, _, _ = s.CachedProfile(ctx)
	if got.Mobile != "" {
		t.Fatalf("emptied field kept: %q", got.Mobile)
	}
}
