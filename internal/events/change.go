// Package events publishes and consumes change notifications over AMQP so
// other processes can invalidate caches or refresh backups.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Entities that can change.
const (
	EntityTransaction = "transaction"
	EntityBudget      = "budget"
	EntityGoal        = "goal"
	EntitySavings     = "savings"
	EntityProfile     = "profile"
	EntityAccount     = "account"
)

// Operations on an entity.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
	OpReset  = "reset"
)

var ErrInvalidChange = errors.New("invalid change")

// Change says that one entity of a user changed. Receivers fetch the
// current state themselves; the message carries no payload.
type Change struct {
	Entity string    `json:"entity"`
	Op     string    `json:"op"`
	ID     int64     `json:"id,omitempty"`
	UserID int64     `json:"user_id"`
	At     time.Time `json:"at"`
}

// NewChange stamps a change with the current time.
func NewChange(entity, op string, id, userID int64) Change {
	return Change{Entity: entity, Op: op, ID: id, UserID: userID, At: time.Now().UTC()}
}

func (c Change) Validate() error {
	if c.Entity == "" {
		return fmt.Errorf("%w: empty entity", ErrInvalidChange)
	}
	switch c.Op {
	case OpCreate, OpUpdate, OpDelete, OpReset:
	default:
		return fmt.Errorf("%w: unknown op %q", ErrInvalidChange, c.Op)
	}
	return nil
}

func (c Change) Encode() ([]byte, error) {
	return json.Marshal(c)
}

// DecodeChange parses and validates a message body.
func DecodeChange(data []byte) (Change, error) {
	var c Change
	if err := json.Unmarshal(data, &c); err != nil {
		return Change{}, fmt.Errorf("%w: %v", ErrInvalidChange, err)
	}
	if err := c.Validate(); err != nil {
		return Change{}, err
	}
	return c, nil
}

// Publisher sends change notifications.
type Publisher interface {
	Publish(ctx context.Context, c Change) error
}

// Nop discards every change.
type Nop struct{}

func (Nop) Publish(context.Context, Change) error { return nil }

// Recorder keeps published changes in memory.
type Recorder struct {
	mu      sync.Mutex
	changes []Change
}

func (r *Recorder) Publish(_ context.Context, c Change) error {
	if err := c.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	r.changes = append(r.changes, c)
	r.mu.Unlock()
	return nil
}

// Changes returns a copy of everything published so far.
func (r *Recorder) Changes() []Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Change(nil), r.changes...)
}
