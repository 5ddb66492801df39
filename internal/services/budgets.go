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

// Budgets is the monthly budget view. Spent amounts always come from the
// ledger's expenses, never from the store.
type Budgets struct {
	base
	store  ports.BudgetStore
	ledger *Ledger

	mu          sync.RWMutex
	year, month int
	statuses    []core.BudgetStatus
}

func NewBudgets(store ports.BudgetStore, ledger *Ledger, opts ...Option) *Budgets {
	return &Budgets{
		base:   newBase(log.ComponentBudget, opts),
		store:  store,
		ledger: ledger,
	}
}

// Load fetches the budgets of one month and derives their usage.
func (b *Budgets) Load(ctx context.Context, year, month int) ([]core.BudgetStatus, error) {
	statuses, err := b.load(ctx, year, month)
	if err != nil {
		return nil, b.fail(ctx, log.OpList, err)
	}
	return statuses, nil
}

func (b *Budgets) load(ctx context.Context, year, month int) ([]core.BudgetStatus, error) {
	if month < 1 || month > 12 {
		return nil, core.ErrInvalidMonth
	}
	if !b.ledger.Loaded() {
		if err := b.ledger.load(ctx); err != nil {
			return nil, err
		}
	}
	budgets, err := b.store.ListBudgets(ctx, year, month)
	if err != nil {
		return nil, err
	}
	statuses := core.ApplySpent(budgets, b.ledger.Transactions())

	b.mu.Lock()
	b.year, b.month = year, month
	b.statuses = statuses
	b.mu.Unlock()
	return append([]core.BudgetStatus(nil), statuses...), nil
}

// Current returns the last loaded month.
func (b *Budgets) Current() (year, month int, statuses []core.BudgetStatus) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.year, b.month, append([]core.BudgetStatus(nil), b.statuses...)
}

// Totals sums budgeted and spent amounts of a month view.
func Totals(statuses []core.BudgetStatus) (budgeted, spent core.Money) {
	for _, s := range statuses {
		budgeted = budgeted.Add(s.BudgetAmount)
		spent = spent.Add(s.SpentAmount)
	}
	return budgeted, spent
}

func (b *Budgets) reload(ctx context.Context, year, month int) {
	if _, err := b.load(ctx, year, month); err != nil {
		b.staleAfterSave(ctx, "budgets", err)
	}
}

// Set creates the budget or replaces the amount of the existing one for
// the same category and month.
func (b *Budgets) Set(ctx context.Context, bud core.Budget) error {
	if err := bud.Validate(); err != nil {
		return b.fail(ctx, log.OpCreate, err)
	}
	if err := b.store.SetBudget(ctx, bud); err != nil {
		return b.fail(ctx, log.OpCreate, err)
	}
	b.success("Budget saved successfully!")
	b.publish(ctx, events.EntityBudget, events.OpCreate, 0)
	b.reload(ctx, bud.Year, bud.Month)
	return nil
}

func (b *Budgets) Update(ctx context.Context, bud core.Budget) error {
	if err := bud.Validate(); err != nil {
		return b.fail(ctx, log.OpUpdate, err)
	}
	if err := b.store.UpdateBudget(ctx, bud); err != nil {
		return b.fail(ctx, log.OpUpdate, err)
	}
	b.success("Budget updated successfully!")
	b.publish(ctx, events.EntityBudget, events.OpUpdate, bud.ID)
	b.reload(ctx, bud.Year, bud.Month)
	return nil
}

func (b *Budgets) Delete(ctx context.Context, d core.Decision, id int64) error {
	if err := d.Require(); err != nil {
		return err
	}
	if err := b.store.DeleteBudget(ctx, id); err != nil {
		return b.fail(ctx, log.OpDelete, err)
	}
	b.success("Budget deleted successfully!")
	b.publish(ctx, events.EntityBudget, events.OpDelete, id)
	year, month, _ := b.Current()
	if month != 0 {
		b.reload(ctx, year, month)
	}
	return nil
}

// ClearMonth deletes every budget of a month, one at a time, stopping at
// the first failure.
func (b *Budgets) ClearMonth(ctx context.Context, d core.Decision, year, month int) BulkResult[int64] {
	if err := d.Require(); err != nil {
		return BulkResult[int64]{Err: err}
	}
	budgets, err := b.store.ListBudgets(ctx, year, month)
	if err != nil {
		return BulkResult[int64]{Err: b.fail(ctx, log.OpList, err)}
	}
	ids := make([]int64, 0, len(budgets))
	for _, bud := range budgets {
		ids = append(ids, bud.ID)
	}
	res := bulk(ctx, ids, func(ctx context.Context, id int64) error {
		if err := b.store.DeleteBudget(ctx, id); err != nil {
			return fmt.Errorf("delete budget %d: %w", id, err)
		}
		b.publish(ctx, events.EntityBudget, events.OpDelete, id)
		return nil
	})
	if res.Err != nil {
		b.notifier.Notify(Notice{Level: LevelError, Text: res.Summary("budgets") + " " + core.UserMessage(res.Err)})
	} else {
		b.success(res.Summary("budgets"))
	}
	if len(res.Deleted) > 0 {
		b.reload(ctx, year, month)
	}
	return res
}
