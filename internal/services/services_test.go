package services

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"finboard/internal/cache"
	"finboard/internal/core"
	"finboard/internal/events"
	"finboard/internal/export"
	"finboard/internal/memory"
	"finboard/internal/session"
)

type env struct {
	mem     *memory.Store
	sess    *session.Session
	notes   *NoticeLog
	rec     *events.Recorder
	cache   *cache.LRUCache[[]core.Transaction]
	ledger  *Ledger
	budgets *Budgets
	savings *Savings
	account *Account
}

var march10 = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newEnv(t *testing.T) *env {
	t.Helper()
	clock := func() time.Time { return march10 }
	e := &env{
		mem:   memory.New(memory.WithClock(clock)),
		sess:  session.New(session.NewMemoryStore(), session.WithClock(clock)),
		notes: &NoticeLog{},
		rec:   &events.Recorder{},
		cache: cache.NewLRUCache[[]core.Transaction](16, time.Minute),
	}
	opts := []Option{WithNotifier(e.notes), WithEvents(e.rec), WithSession(e.sess)}
	e.ledger = NewLedger(e.mem, e.mem, e.cache, opts...)
	e.budgets = NewBudgets(e.mem, e.ledger, opts...)
	e.savings = NewSavings(e.mem, e.mem, e.ledger, opts...)
	e.account = NewAccount(e.mem, e.sess, e.ledger, opts...)

	if _, err := e.account.Login(context.Background(), "demo@finboard.local", "demo"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	return e
}

func tx(typ core.TxType, cents int64, cat string, y, m, d int) core.Transaction {
	return core.Transaction{Type: typ, Amount: core.Money{Cents: cents}, Category: cat, Description: cat, Date: core.NewDate(y, m, d)}
}

func (e *env) seed(t *testing.T, txs ...core.Transaction) {
	t.Helper()
	for _, x := range txs {
		if err := e.ledger.Create(context.Background(), x); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
}

func refs(txs []core.Transaction) []Ref {
	out := make([]Ref, 0, len(txs))
	for _, t := range txs {
		out = append(out, Ref{Type: t.Type, ID: t.ID})
	}
	return out
}

func TestLedgerCreateRefetches(t *testing.T) {
	e := newEnv(t)
	e.seed(t,
		tx(core.Income, 10000, "Salary", 2025, 3, 1),
		tx(core.Expense, 4000, "Food", 2025, 3, 2),
		tx(core.Expense, 1000, "Travel", 2025, 3, 3),
	)

	txs := e.ledger.Transactions()
	if len(txs) != 3 {
		t.Fatalf("ledger has %d transactions, want 3", len(txs))
	}
	if txs[0].Date.String() != "2025-03-03" {
		t.Fatalf("ledger not newest first: %v", txs[0].Date)
	}

	ov := e.ledger.Overview(2025, 3, core.DashboardPoints)
	s := ov.Summary
	if s.TotalIncome.Cents != 10000 || s.TotalExpense.Cents != 5000 || s.Net.Cents != 5000 || s.SavingsRate != 50 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if len(ov.Series) != 3 || ov.Series[2].Label != "Mar 2025" {
		t.Fatalf("unexpected series %+v", ov.Series)
	}

	if got := e.notes.Last(); got.Level != LevelSuccess || got.Text != "Expense added successfully!" {
		t.Fatalf("last notice = %+v", got)
	}
	changes := e.rec.Changes()
	if len(changes) != 3 || changes[0].UserID != 1 || changes[0].Entity != events.EntityTransaction {
		t.Fatalf("changes = %+v", changes)
	}
}

func TestLedgerCreateRejectsInvalid(t *testing.T) {
	e := newEnv(t)
	err := e.ledger.Create(context.Background(), core.Transaction{Type: core.Income, Category: "Salary", Date: core.NewDate(2025, 3, 1)})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("Create error = %v, want ErrInvalidAmount", err)
	}
	if got := e.notes.Last(); got.Level != LevelError {
		t.Fatalf("expected error notice, got %+v", got)
	}
	if len(e.rec.Changes()) != 0 {
		t.Fatal("no change should be published for a failed mutation")
	}
}

func TestFailedRefetchAfterSaveOnlyWarns(t *testing.T) {
	ctx := context.Background()
	down := errors.New("backend down")
	tests := []struct {
		name   string
		failOp string
		mutate func(e *env) error
		want   string
	}{
		{
			name:   "ledger",
			failOp: "ListTransactions",
			mutate: func(e *env) error { return e.ledger.Create(ctx, tx(core.Expense, 700, "Food", 2025, 3, 4)) },
			want:   "Saved, but the list could not be refreshed.",
		},
		{
			name:   "budgets",
			failOp: "ListBudgets",
			mutate: func(e *env) error {
				return e.budgets.Set(ctx, core.Budget{Category: "Food", BudgetAmount: core.Money{Cents: 100}, Month: 3, Year: 2025})
			},
			want: "Saved, but the budgets could not be refreshed.",
		},
		{
			name:   "goals",
			failOp: "ListGoals",
			mutate: func(e *env) error {
				_, err := e.savings.CreateGoal(ctx, core.SavingsGoal{GoalName: "Bike", TargetAmount: core.Money{Cents: 100}})
				return err
			},
			want: "Saved, but the goals could not be refreshed.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			if err := e.ledger.Load(ctx); err != nil {
				t.Fatalf("Load: %v", err)
			}
			e.mem.SetFault(func(op string, _ int64) error {
				if op == tt.failOp {
					return down
				}
				return nil
			})
			before := len(e.notes.Notices())

			if err := tt.mutate(e); err != nil {
				t.Fatalf("mutation failed: %v", err)
			}

			got := e.notes.Notices()[before:]
			if len(got) != 2 || got[0].Level != LevelSuccess || got[1].Level != LevelWarning || got[1].Text != tt.want {
				t.Fatalf("notices = %+v", got)
			}
		})
	}
}

func TestLedgerLoadUsesCache(t *testing.T) {
	e := newEnv(t)
	e.seed(t, tx(core.Income, 500, "Gift", 2025, 3, 1))

	e.mem.SetFault(func(op string, _ int64) error {
		if op == "ListTransactions" {
			return errors.New("backend down")
		}
		return nil
	})

	if err := e.ledger.Load(context.Background()); err != nil {
		t.Fatalf("Load should be served from cache: %v", err)
	}
	if err := e.ledger.Refresh(context.Background()); err == nil {
		t.Fatal("Refresh should fail while the backend is down")
	}
	if len(e.ledger.Transactions()) != 1 {
		t.Fatal("failed refresh must keep the previous list")
	}
	if got := e.notes.Last(); got.Level != LevelError || got.Text == "" {
		t.Fatalf("expected error notice, got %+v", got)
	}

	e.ledger.Reset(context.Background())
	if e.ledger.Loaded() || e.cache.Size() != 0 {
		t.Fatal("Reset should drop the list and the cached entries")
	}
}

func TestLedgerDeleteNeedsConfirmation(t *testing.T) {
	e := newEnv(t)
	e.seed(t, tx(core.Expense, 700, "Food", 2025, 3, 1))
	ref := refs(e.ledger.Transactions())[0]
	ctx := context.Background()

	var c core.Confirmation
	_ = c.Request("Delete this transaction?")
	_ = c.Cancel()
	if err := e.ledger.Delete(ctx, c.Result(), ref); !errors.Is(err, core.ErrNotConfirmed) {
		t.Fatalf("Delete cancelled = %v, want ErrNotConfirmed", err)
	}
	if len(e.ledger.Transactions()) != 1 {
		t.Fatal("cancelled delete removed the transaction")
	}

	c.Reset()
	_ = c.Request("Delete this transaction?")
	_ = c.Confirm()
	if err := e.ledger.Delete(ctx, c.Result(), ref); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(e.ledger.Transactions()) != 0 {
		t.Fatal("transaction still listed after delete")
	}
	if got := e.notes.Last(); got.Text != "Transaction deleted successfully!" {
		t.Fatalf("last notice = %+v", got)
	}
}

func TestLedgerUpdate(t *testing.T) {
	e := newEnv(t)
	e.seed(t, tx(core.Expense, 700, "Food", 2025, 3, 1))
	orig := e.ledger.Transactions()[0]

	edited := orig
	edited.Amount = core.Money{Cents: 900}
	edited.Category = "Dining"
	if err := e.ledger.Update(context.Background(), edited); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, ok := e.ledger.Find(Ref{Type: orig.Type, ID: orig.ID})
	if !ok || got.Amount.Cents != 900 || got.Category != "Dining" {
		t.Fatalf("after update = %+v, %v", got, ok)
	}
}

func TestBulkDeleteStopsAtFirstFailure(t *testing.T) {
	e := newEnv(t)
	e.seed(t,
		tx(core.Expense, 100, "A", 2025, 3, 1),
		tx(core.Expense, 200, "B", 2025, 3, 2),
		tx(core.Expense, 300, "C", 2025, 3, 3),
	)
	all := refs(e.ledger.Transactions())
	bad := all[1]
	e.mem.SetFault(func(op string, id int64) error {
		if op == "DeleteTransaction" && id == bad.ID {
			return errors.New("locked")
		}
		return nil
	})

	res := e.ledger.BulkDelete(context.Background(), core.Confirm("Delete 3?"), all)
	if res.OK() {
		t.Fatal("expected failure")
	}
	if len(res.Deleted) != 1 || res.Deleted[0] != all[0] {
		t.Fatalf("Deleted = %v", res.Deleted)
	}
	if res.Failed == nil || *res.Failed != bad || res.Skipped != 1 {
		t.Fatalf("Failed = %v Skipped = %d", res.Failed, res.Skipped)
	}
	if n := len(e.ledger.Transactions()); n != 2 {
		t.Fatalf("ledger has %d transactions after partial delete, want 2", n)
	}
	if got := e.notes.Last(); got.Level != LevelError {
		t.Fatalf("expected error notice, got %+v", got)
	}
}

func TestDeleteEverythingLeavesEmptyList(t *testing.T) {
	e := newEnv(t)
	e.seed(t,
		tx(core.Income, 100, "A", 2025, 3, 1),
		tx(core.Expense, 200, "B", 2025, 3, 2),
	)
	res := e.ledger.BulkDelete(context.Background(), core.Confirm(""), refs(e.ledger.Transactions()))
	if !res.OK() || len(res.Deleted) != 2 {
		t.Fatalf("BulkDelete = %+v", res)
	}
	if err := e.ledger.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if n := len(e.ledger.Transactions()); n != 0 {
		t.Fatalf("ledger has %d transactions, want 0", n)
	}
	if got := e.notes.Last(); got.Text != "Deleted 2 transactions." {
		t.Fatalf("last notice = %+v", got)
	}
}

func TestBulkDeleteRequiresConfirmation(t *testing.T) {
	e := newEnv(t)
	res := e.ledger.BulkDelete(context.Background(), core.Decision{State: core.Confirming}, []Ref{{core.Income, 1}})
	if !errors.Is(res.Err, core.ErrNotConfirmed) || res.Skipped != 1 {
		t.Fatalf("BulkDelete = %+v", res)
	}
}

func TestBudgetsRecomputeSpent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seed(t,
		tx(core.Expense, 3000, "Food", 2025, 3, 5),
		tx(core.Expense, 2000, "food", 2025, 2, 5),
		tx(core.Expense, 9000, "Rent", 2025, 3, 1),
	)
	if err := e.budgets.Set(ctx, core.Budget{Category: "Food", BudgetAmount: core.Money{Cents: 10000}, Month: 3, Year: 2025}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := e.budgets.Set(ctx, core.Budget{Category: "Rent", BudgetAmount: core.Money{Cents: 8000}, Month: 3, Year: 2025}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	statuses, err := e.budgets.Load(ctx, 2025, 3)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	byCat := map[string]core.BudgetStatus{}
	for _, s := range statuses {
		byCat[s.Category] = s
	}
	food := byCat["Food"]
	if food.SpentAmount.Cents != 3000 || food.Remaining.Cents != 7000 || food.Percent != 30 || food.OverBudget {
		t.Fatalf("food = %+v", food)
	}
	if !byCat["Rent"].OverBudget {
		t.Fatalf("rent should be over budget: %+v", byCat["Rent"])
	}
	budgeted, spent := Totals(statuses)
	if budgeted.Cents != 18000 || spent.Cents != 12000 {
		t.Fatalf("totals = %v / %v", budgeted, spent)
	}
}

func TestBudgetsClearMonth(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	for _, cat := range []string{"A", "B", "C"} {
		_ = e.budgets.Set(ctx, core.Budget{Category: cat, BudgetAmount: core.Money{Cents: 100}, Month: 3, Year: 2025})
	}
	res := e.budgets.ClearMonth(ctx, core.Confirm("Clear March?"), 2025, 3)
	if !res.OK() || len(res.Deleted) != 3 {
		t.Fatalf("ClearMonth = %+v", res)
	}
	if _, _, statuses := e.budgets.Current(); len(statuses) != 0 {
		t.Fatalf("budgets left after ClearMonth: %+v", statuses)
	}
}

func TestSavingsDepositBooksExpense(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_ = e.ledger.Load(ctx)

	entry, err := e.savings.Deposit(ctx, core.SavingsEntry{GoalName: "Trip", Amount: core.Money{Cents: 2500}, TargetAmount: core.Money{Cents: 100000}})
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if entry.ID == 0 {
		t.Fatal("entry id not set")
	}
	txs := e.ledger.Filtered(core.Filter{Category: core.SavingsCategory})
	if len(txs) != 1 || txs[0].Description != "Transfer to Trip" {
		t.Fatalf("savings expense = %+v", txs)
	}
	total, err := e.savings.Total(ctx)
	if err != nil || total.Cents != 2500 {
		t.Fatalf("Total = %v, %v", total, err)
	}
}

func TestSavingsCreateAndFund(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	g, err := e.savings.CreateAndFund(ctx, core.SavingsGoal{GoalName: "Bike", TargetAmount: core.Money{Cents: 50000}}, core.Money{Cents: 5000})
	if err != nil {
		t.Fatalf("CreateAndFund: %v", err)
	}
	if g.CurrentAmount.Cents != 5000 || g.Progress() != 10 {
		t.Fatalf("goal = %+v", g)
	}

	e.mem.SetFault(func(op string, _ int64) error {
		if op == "AddToGoal" {
			return errors.New("refused")
		}
		return nil
	})
	g2, err := e.savings.CreateAndFund(ctx, core.SavingsGoal{GoalName: "Car", TargetAmount: core.Money{Cents: 90000}}, core.Money{Cents: 100})
	if err == nil || g2.ID == 0 {
		t.Fatalf("expected created goal with error, got %+v, %v", g2, err)
	}
	goals, _ := e.savings.Goals(ctx)
	if len(goals) != 2 {
		t.Fatalf("goal should stay after failed contribution, have %d", len(goals))
	}
}

func TestSavingsDeleteGoal(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	g, _ := e.savings.CreateGoal(ctx, core.SavingsGoal{GoalName: "Bike", TargetAmount: core.Money{Cents: 50000}})
	if err := e.savings.DeleteGoal(ctx, core.Decision{}, g.ID); !errors.Is(err, core.ErrNotConfirmed) {
		t.Fatalf("DeleteGoal idle = %v", err)
	}
	if err := e.savings.DeleteGoal(ctx, core.Confirm(""), g.ID); err != nil {
		t.Fatalf("DeleteGoal: %v", err)
	}
	if _, ok := e.savings.Find(g.ID); ok {
		t.Fatal("deleted goal still cached")
	}
}

func TestAccountProfileFallsBackToCache(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	if err := e.account.UpdateProfile(ctx, core.Profile{FullName: "Demo User", PreferredCurrency: "EUR"}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	e.mem.SetFault(func(op string, _ int64) error {
		if op == "GetProfile" {
			return errors.New("timeout")
		}
		return nil
	})
	p, err := e.account.Profile(ctx)
	if err != nil {
		t.Fatalf("Profile should fall back to the cache: %v", err)
	}
	if p.FullName != "Demo User" || p.Username != "demo" {
		t.Fatalf("cached profile = %+v", p)
	}
	if got := e.notes.Last(); got.Level != LevelWarning {
		t.Fatalf("expected warning, got %+v", got)
	}
}

func TestAccountResetAndDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seed(t, tx(core.Income, 100, "A", 2025, 3, 1))

	if err := e.account.ResetData(ctx, core.Decision{State: core.Cancelled}); !errors.Is(err, core.ErrNotConfirmed) {
		t.Fatalf("ResetData cancelled = %v", err)
	}
	if err := e.account.ResetData(ctx, core.Confirm("Reset?")); err != nil {
		t.Fatalf("ResetData: %v", err)
	}
	if len(e.ledger.Transactions()) != 0 {
		t.Fatal("ledger not empty after reset")
	}
	if !e.sess.Active() {
		t.Fatal("reset must keep the session")
	}

	if err := e.account.DeleteAccount(ctx, core.Confirm("Delete account?")); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if e.sess.Active() {
		t.Fatal("session should end with the account")
	}
	last := e.rec.Changes()[len(e.rec.Changes())-1]
	if last.Entity != events.EntityAccount || last.Op != events.OpDelete || last.UserID != 1 {
		t.Fatalf("last change = %+v", last)
	}
	if _, err := e.account.Login(ctx, "demo@finboard.local", "demo"); err == nil {
		t.Fatal("login should fail after account deletion")
	}
}

func TestAccountLogout(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_ = e.ledger.Load(ctx)
	if err := e.account.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if e.sess.Token() != "" || e.ledger.Loaded() {
		t.Fatal("logout should clear the session and the ledger")
	}
}

func TestImport(t *testing.T) {
	e := newEnv(t)
	var buf bytes.Buffer
	src := []core.Transaction{
		tx(core.Income, 10000, "Salary", 2025, 3, 1),
		tx(core.Expense, 2550, "Food", 2025, 3, 2),
	}
	if err := export.WriteCSV(&buf, src); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	res, err := e.ledger.Import(context.Background(), &buf, export.CSV)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Read != 2 || res.Created != 2 {
		t.Fatalf("Import = %+v", res)
	}
	if len(e.ledger.Transactions()) != 2 {
		t.Fatal("imported rows not in ledger")
	}
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, events.Change) error { return errors.New("broker down") }

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	mem := memory.New()
	l := NewLedger(mem, mem, nil, WithEvents(failingPublisher{}))
	if err := l.Create(context.Background(), tx(core.Income, 100, "A", 2025, 3, 1)); err != nil {
		t.Fatalf("Create should succeed when publishing fails: %v", err)
	}
	if len(l.Transactions()) != 1 {
		t.Fatal("ledger not refreshed")
	}
}
