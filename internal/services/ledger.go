package services

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"finboard/internal/cache"
	"finboard/internal/core"
	"finboard/internal/events"
	"finboard/internal/export"
	"finboard/internal/log"
	"finboard/internal/ports"
)

// Ref identifies a transaction. IDs are only unique within a type.
type Ref struct {
	Type core.TxType
	ID   int64
}

func (r Ref) String() string { return fmt.Sprintf("%s/%d", r.Type, r.ID) }

// Ledger is the transaction list shared by every view: it fetches both
// types, caches them per user, and re-fetches after each mutation.
type Ledger struct {
	base
	source ports.TransactionSource
	writer ports.TransactionWriter
	cache  cache.Cache[[]core.Transaction]

	mu     sync.RWMutex
	txs    []core.Transaction
	loaded bool
}

// NewLedger builds a ledger. c may be nil to disable caching.
func NewLedger(src ports.TransactionSource, w ports.TransactionWriter, c cache.Cache[[]core.Transaction], opts ...Option) *Ledger {
	return &Ledger{
		base:   newBase(log.ComponentLedger, opts),
		source: src,
		writer: w,
		cache:  c,
	}
}

func (l *Ledger) cacheKey(userID int64, typ core.TxType) string {
	return l.cachePrefix(userID) + string(typ)
}

func (l *Ledger) cachePrefix(userID int64) string {
	return "ledger:" + strconv.FormatInt(userID, 10) + ":"
}

// Load uses cached lists when both are present and fetches otherwise.
func (l *Ledger) Load(ctx context.Context) error {
	if err := l.load(ctx); err != nil {
		return l.fail(ctx, log.OpRefresh, err)
	}
	return nil
}

func (l *Ledger) load(ctx context.Context) error {
	if l.cache != nil {
		uid := l.userID(ctx)
		inc, ok1 := l.cache.Get(l.cacheKey(uid, core.Income))
		exp, ok2 := l.cache.Get(l.cacheKey(uid, core.Expense))
		if ok1 && ok2 {
			l.store(inc, exp)
			return nil
		}
	}
	return l.fetch(ctx)
}

// Refresh fetches incomes and expenses concurrently and replaces the list.
// On failure the previous list is kept.
func (l *Ledger) Refresh(ctx context.Context) error {
	if err := l.fetch(ctx); err != nil {
		return l.fail(ctx, log.OpRefresh, err)
	}
	return nil
}

// fetch is Refresh without notices.
func (l *Ledger) fetch(ctx context.Context) error {
	var inc, exp []core.Transaction
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		inc, err = l.source.ListTransactions(gctx, core.Income)
		if err != nil {
			return fmt.Errorf("fetch incomes: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		exp, err = l.source.ListTransactions(gctx, core.Expense)
		if err != nil {
			return fmt.Errorf("fetch expenses: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if l.cache != nil {
		uid := l.userID(ctx)
		l.cache.Set(l.cacheKey(uid, core.Income), inc)
		l.cache.Set(l.cacheKey(uid, core.Expense), exp)
	}
	l.store(inc, exp)
	l.logger.DebugContext(ctx, "Ledger refreshed", "incomes", len(inc), "expenses", len(exp))
	return nil
}

func (l *Ledger) store(inc, exp []core.Transaction) {
	all := make([]core.Transaction, 0, len(inc)+len(exp))
	all = append(all, inc...)
	all = append(all, exp...)
	core.SortByDateDesc(all)

	l.mu.Lock()
	l.txs = all
	l.loaded = true
	l.mu.Unlock()
}

// Reset forgets the list and the signed-in user's cached entries.
func (l *Ledger) Reset(ctx context.Context) {
	l.invalidate(ctx)
	l.mu.Lock()
	l.txs = nil
	l.loaded = false
	l.mu.Unlock()
}

func (l *Ledger) invalidate(ctx context.Context) {
	if l.cache != nil {
		l.cache.DeletePrefix(l.cachePrefix(l.userID(ctx)))
	}
}

// Loaded reports whether a fetch has succeeded since the last Reset.
func (l *Ledger) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}

// Transactions returns a copy of the list, newest first.
func (l *Ledger) Transactions() []core.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]core.Transaction(nil), l.txs...)
}

// Find looks a transaction up by reference in the current list.
func (l *Ledger) Find(ref Ref) (core.Transaction, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, t := range l.txs {
		if t.Type == ref.Type && t.ID == ref.ID {
			return t, true
		}
	}
	return core.Transaction{}, false
}

func (l *Ledger) Overview(year, month, points int) core.MonthOverview {
	return core.Overview(l.Transactions(), year, month, points)
}

// Insights grades the whole list together with the given month.
func (l *Ledger) Insights(year, month int) []core.Insight {
	txs := l.Transactions()
	return core.Insights(core.Summarize(txs), core.Summarize(core.InMonth(txs, year, month)), core.ByCategory(txs))
}

// Filtered applies f to the current list, keeping newest-first order.
func (l *Ledger) Filtered(f core.Filter) []core.Transaction {
	return f.Apply(l.Transactions())
}

func (l *Ledger) Categories() []string {
	return core.AllCategories(l.Transactions())
}

// afterMutation invalidates the cache and re-fetches. A failed re-fetch is
// reported as a warning; the mutation itself already succeeded.
func (l *Ledger) afterMutation(ctx context.Context) {
	l.invalidate(ctx)
	if err := l.fetch(ctx); err != nil {
		l.staleAfterSave(ctx, "list", err)
	}
}

func (l *Ledger) Create(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return l.fail(ctx, log.OpCreate, err)
	}
	if err := l.writer.CreateTransaction(ctx, t); err != nil {
		return l.fail(ctx, log.OpCreate, err)
	}
	l.logger.InfoContext(ctx, "Transaction created",
		log.NewFields().WithTransaction(t.Type.String(), t.Category, t.Amount.Cents).ToSlice()...)
	l.success(capitalize(t.Type.String()) + " added successfully!")
	l.publish(ctx, events.EntityTransaction, events.OpCreate, 0)
	l.afterMutation(ctx)
	return nil
}

// Update sends the edited transaction. Type and ID select the record.
func (l *Ledger) Update(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return l.fail(ctx, log.OpUpdate, err)
	}
	if err := l.writer.UpdateTransaction(ctx, t); err != nil {
		return l.fail(ctx, log.OpUpdate, err)
	}
	l.success("Transaction updated successfully!")
	l.publish(ctx, events.EntityTransaction, events.OpUpdate, t.ID)
	l.afterMutation(ctx)
	return nil
}

// Delete removes one transaction after confirmation.
func (l *Ledger) Delete(ctx context.Context, d core.Decision, ref Ref) error {
	if err := d.Require(); err != nil {
		return err
	}
	if err := l.writer.DeleteTransaction(ctx, ref.Type, ref.ID); err != nil {
		return l.fail(ctx, log.OpDelete, err)
	}
	l.success("Transaction deleted successfully!")
	l.publish(ctx, events.EntityTransaction, events.OpDelete, ref.ID)
	l.afterMutation(ctx)
	return nil
}

// BulkDelete deletes refs one by one and stops at the first failure.
// Deletions before the failure are kept. The list is re-fetched when
// anything was deleted.
func (l *Ledger) BulkDelete(ctx context.Context, d core.Decision, refs []Ref) BulkResult[Ref] {
	if err := d.Require(); err != nil {
		return BulkResult[Ref]{Skipped: len(refs), Err: err}
	}
	res := bulk(ctx, refs, func(ctx context.Context, r Ref) error {
		if err := l.writer.DeleteTransaction(ctx, r.Type, r.ID); err != nil {
			return fmt.Errorf("delete %s: %w", r, err)
		}
		l.publish(ctx, events.EntityTransaction, events.OpDelete, r.ID)
		return nil
	})
	if res.Err != nil {
		l.notifier.Notify(Notice{Level: LevelError, Text: res.Summary("transactions") + " " + core.UserMessage(res.Err)})
		l.logger.ErrorContext(ctx, "Bulk delete stopped",
			log.NewFields().WithOperation(log.OpBulkDelete).WithError(res.Err).ToSlice()...)
	} else {
		l.success(res.Summary("transactions"))
	}
	if len(res.Deleted) > 0 {
		l.afterMutation(ctx)
	}
	return res
}

// ImportResult counts rows created by Import.
type ImportResult struct {
	Read    int
	Created int
	Err     error
}

// Import reads a CSV or XLSX file in the export layout and creates every
// row, stopping at the first failure.
func (l *Ledger) Import(ctx context.Context, r io.Reader, f export.Format) (ImportResult, error) {
	txs, err := export.Read(r, f)
	if err != nil {
		return ImportResult{}, l.fail(ctx, log.OpImport, err)
	}
	res := ImportResult{Read: len(txs)}
	for i, t := range txs {
		if err := l.writer.CreateTransaction(ctx, t); err != nil {
			res.Err = fmt.Errorf("row %d: %w", i+1, err)
			break
		}
		res.Created++
	}
	if res.Created > 0 {
		l.publish(ctx, events.EntityTransaction, events.OpCreate, 0)
		l.afterMutation(ctx)
	}
	if res.Err != nil {
		return res, l.fail(ctx, log.OpImport, res.Err)
	}
	l.success(fmt.Sprintf("Imported %d transactions.", res.Created))
	return res, nil
}

// ExportLocal writes the filtered list in a local format.
func (l *Ledger) ExportLocal(ctx context.Context, w io.Writer, f export.Format, filter core.Filter) (int, error) {
	txs := l.Filtered(filter)
	if err := export.Write(w, f, txs); err != nil {
		return 0, l.fail(ctx, log.OpExport, err)
	}
	return len(txs), nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
