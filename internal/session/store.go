// Package session keeps the signed-in user's token and cached profile
// fields in a small key/value store that outlives the process.
package session

import (
	"context"
	"errors"
)

// Store is a flat string key/value store. Get reports a missing key with
// ok=false and no error.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Clear(ctx context.Context) error
	Close() error
}

// ErrUnknownBackend is returned for a session backend name nobody implements.
var ErrUnknownBackend = errors.New("unknown session backend")

const (
	KeyToken             = "token"
	KeyUsername          = "username"
	KeyEmail             = "userEmail"
	KeyUserID            = "userId"
	KeyFullName          = "fullName"
	KeyMobile            = "mobile"
	KeyPreferredCurrency = "preferredCurrency"
	KeyFinancialGoal     = "financialGoal"
	KeyProfileImage      = "profileImage"
)
