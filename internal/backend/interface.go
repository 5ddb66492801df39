package backend

import (
	"context"
	"time"

	"finboard/internal/events"
	"finboard/internal/ports"
	"finboard/internal/session"
)

// CleanupFunc releases resources held by a Result.
type CleanupFunc func() error

// Result is everything a front end needs to talk to one account.
type Result struct {
	Backend ports.Backend
	Session *session.Session
	Events  events.Publisher
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type BackendType

	// REST API
	APIURL     string
	APITimeout time.Duration

	// Session storage
	Session          SessionType
	SessionNamespace string
	SQLiteDBPath     string
	RedisURL         string

	// Change events, optional
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType selects where financial data lives.
type BackendType string

const (
	APIBackend    BackendType = "api"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case APIBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// SessionType selects where the session values are persisted.
type SessionType string

const (
	MemorySession SessionType = "memory"
	SQLiteSession SessionType = "sqlite"
	RedisSession  SessionType = "redis"
)

func (st SessionType) IsValid() bool {
	switch st {
	case MemorySession, SQLiteSession, RedisSession:
		return true
	default:
		return false
	}
}
