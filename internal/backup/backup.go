// Package backup mirrors the transaction list into a Google Sheet.
package backup

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"finboard/internal/core"
	"finboard/internal/export"
	"finboard/internal/log"
	"finboard/internal/ports"
)

// Backup rewrites one sheet with every transaction, newest first, in the
// export layout.
type Backup struct {
	sheet  Sheet
	name   string
	source ports.TransactionSource
	logger *log.Logger
}

func New(sheet Sheet, name string, source ports.TransactionSource, logger *log.Logger) *Backup {
	if logger == nil {
		logger = log.Discard()
	}
	return &Backup{
		sheet:  sheet,
		name:   name,
		source: source,
		logger: logger.WithComponent(log.ComponentSheets),
	}
}

// Run fetches both transaction types and replaces the sheet contents. It
// returns the number of transactions written.
func (b *Backup) Run(ctx context.Context) (int, error) {
	var inc, exp []core.Transaction
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		inc, err = b.source.ListTransactions(gctx, core.Income)
		return err
	})
	g.Go(func() error {
		var err error
		exp, err = b.source.ListTransactions(gctx, core.Expense)
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("fetch transactions: %w", err)
	}

	txs := append(inc, exp...)
	core.SortByDateDesc(txs)

	table := export.Table(txs)
	rows := make([][]any, len(table))
	for i, r := range table {
		rows[i] = make([]any, len(r))
		for j, v := range r {
			rows[i][j] = v
		}
	}

	if err := b.sheet.Clear(ctx, b.name+"!A:E"); err != nil {
		return 0, err
	}
	if err := b.sheet.Update(ctx, b.name+"!A1", rows); err != nil {
		return 0, err
	}
	b.logger.InfoContext(ctx, "Backup written",
		append(log.NewFields().WithOperation(log.OpBackup).ToSlice(), "sheet", b.name, "transactions", len(txs))...)
	return len(txs), nil
}
