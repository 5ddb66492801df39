package services

import (
	"context"
	"fmt"
	"sync"

	"finboard/internal/core"
	"finboard/internal/events"
	"finboard/internal/log"
	"finboard/internal/ports"
)

// Savings manages goals and one-off transfers. Transfers book an expense
// on the backend, so they refresh the ledger too.
type Savings struct {
	base
	goals   ports.SavingsStore
	entries ports.SavingsLedger
	ledger  *Ledger

	mu    sync.RWMutex
	cache []core.SavingsGoal
}

func NewSavings(goals ports.SavingsStore, entries ports.SavingsLedger, ledger *Ledger, opts ...Option) *Savings {
	return &Savings{
		base:    newBase(log.ComponentSavings, opts),
		goals:   goals,
		entries: entries,
		ledger:  ledger,
	}
}

// Goals fetches the goals and remembers them for Find.
func (s *Savings) Goals(ctx context.Context) ([]core.SavingsGoal, error) {
	goals, err := s.loadGoals(ctx)
	if err != nil {
		return nil, s.fail(ctx, log.OpList, err)
	}
	return goals, nil
}

func (s *Savings) loadGoals(ctx context.Context) ([]core.SavingsGoal, error) {
	goals, err := s.goals.ListGoals(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.cache = goals
	s.mu.Unlock()
	return append([]core.SavingsGoal(nil), goals...), nil
}

// Find returns a goal from the last fetch.
func (s *Savings) Find(id int64) (core.SavingsGoal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.cache {
		if g.ID == id {
			return g, true
		}
	}
	return core.SavingsGoal{}, false
}

func (s *Savings) reloadGoals(ctx context.Context) {
	if _, err := s.loadGoals(ctx); err != nil {
		s.staleAfterSave(ctx, "goals", err)
	}
}

func (s *Savings) CreateGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, s.fail(ctx, log.OpCreate, err)
	}
	saved, err := s.goals.CreateGoal(ctx, g)
	if err != nil {
		return core.SavingsGoal{}, s.fail(ctx, log.OpCreate, err)
	}
	s.success("Savings goal created successfully!")
	s.publish(ctx, events.EntityGoal, events.OpCreate, saved.ID)
	s.reloadGoals(ctx)
	return saved, nil
}

// Contribute adds money to a goal.
func (s *Savings) Contribute(ctx context.Context, goalID int64, amount core.Money, description string) error {
	if err := amount.Validate(); err != nil {
		return s.fail(ctx, log.OpContribute, err)
	}
	if err := s.goals.AddToGoal(ctx, goalID, amount, description); err != nil {
		return s.fail(ctx, log.OpContribute, err)
	}
	s.success("Amount added to savings goal successfully!")
	s.publish(ctx, events.EntityGoal, events.OpUpdate, goalID)
	s.reloadGoals(ctx)
	return nil
}

// CreateAndFund creates a goal and, when initial is positive, contributes
// it. A failed contribution leaves the goal in place and returns it with
// the error.
func (s *Savings) CreateAndFund(ctx context.Context, g core.SavingsGoal, initial core.Money) (core.SavingsGoal, error) {
	saved, err := s.CreateGoal(ctx, g)
	if err != nil {
		return core.SavingsGoal{}, err
	}
	if initial.Cents <= 0 {
		return saved, nil
	}
	if err := s.Contribute(ctx, saved.ID, initial, "Initial contribution"); err != nil {
		return saved, fmt.Errorf("goal %d created, initial contribution failed: %w", saved.ID, err)
	}
	if g, ok := s.Find(saved.ID); ok {
		saved = g
	}
	return saved, nil
}

func (s *Savings) UpdateGoal(ctx context.Context, g core.SavingsGoal) error {
	if err := g.Validate(); err != nil {
		return s.fail(ctx, log.OpUpdate, err)
	}
	if err := s.goals.UpdateGoal(ctx, g); err != nil {
		return s.fail(ctx, log.OpUpdate, err)
	}
	s.success("Savings goal updated successfully!")
	s.publish(ctx, events.EntityGoal, events.OpUpdate, g.ID)
	s.reloadGoals(ctx)
	return nil
}

func (s *Savings) DeleteGoal(ctx context.Context, d core.Decision, id int64) error {
	if err := d.Require(); err != nil {
		return err
	}
	if err := s.goals.DeleteGoal(ctx, id); err != nil {
		return s.fail(ctx, log.OpDelete, err)
	}
	s.success("Savings goal deleted successfully!")
	s.publish(ctx, events.EntityGoal, events.OpDelete, id)
	s.reloadGoals(ctx)
	return nil
}

func (s *Savings) Entries(ctx context.Context) ([]core.SavingsEntry, error) {
	entries, err := s.entries.ListSavings(ctx)
	if err != nil {
		return nil, s.fail(ctx, log.OpList, err)
	}
	return entries, nil
}

// Deposit records a transfer into savings. The backend books a "Savings"
// expense for it, so the ledger is re-fetched.
func (s *Savings) Deposit(ctx context.Context, e core.SavingsEntry) (core.SavingsEntry, error) {
	if err := e.Validate(); err != nil {
		return core.SavingsEntry{}, s.fail(ctx, log.OpCreate, err)
	}
	saved, err := s.entries.AddSavings(ctx, e)
	if err != nil {
		return core.SavingsEntry{}, s.fail(ctx, log.OpCreate, err)
	}
	s.success("Savings added successfully!")
	s.publish(ctx, events.EntitySavings, events.OpCreate, saved.ID)
	if s.ledger != nil {
		s.ledger.afterMutation(ctx)
	}
	return saved, nil
}

func (s *Savings) UpdateEntry(ctx context.Context, e core.SavingsEntry) (core.SavingsEntry, error) {
	if err := e.Validate(); err != nil {
		return core.SavingsEntry{}, s.fail(ctx, log.OpUpdate, err)
	}
	saved, err := s.entries.UpdateSavings(ctx, e)
	if err != nil {
		return core.SavingsEntry{}, s.fail(ctx, log.OpUpdate, err)
	}
	s.success("Savings updated successfully!")
	s.publish(ctx, events.EntitySavings, events.OpUpdate, e.ID)
	return saved, nil
}

// DeleteEntry removes a transfer record. The expense it booked stays.
func (s *Savings) DeleteEntry(ctx context.Context, d core.Decision, id int64) error {
	if err := d.Require(); err != nil {
		return err
	}
	if err := s.entries.DeleteSavings(ctx, id); err != nil {
		return s.fail(ctx, log.OpDelete, err)
	}
	s.success("Savings deleted successfully!")
	s.publish(ctx, events.EntitySavings, events.OpDelete, id)
	return nil
}

func (s *Savings) Total(ctx context.Context) (core.Money, error) {
	total, err := s.entries.TotalSavings(ctx)
	if err != nil {
		return core.Money{}, s.fail(ctx, log.OpRead, err)
	}
	return total, nil
}
