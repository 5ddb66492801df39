package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"finboard/internal/core"
)

const (
	transactionsSheet = "Transactions"
	categoriesSheet   = "Categories"
)

// WriteXLSX writes a workbook with the transactions, a totals block and a
// second sheet holding the expense breakdown by category.
func WriteXLSX(w io.Writer, txs []core.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), transactionsSheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := setRow(f, transactionsSheet, 1, toAny(Header)); err != nil {
		return err
	}
	for i, t := range txs {
		vals := []any{t.Date.String(), t.Type.String(), t.Category, t.Description, t.Amount.Float()}
		if err := setRow(f, transactionsSheet, i+2, vals); err != nil {
			return err
		}
	}
	next := len(txs) + 2
	for i, tot := range totals(txs) {
		if err := setRow(f, transactionsSheet, next+i, toAny(tot)); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(transactionsSheet, "A1", "E1", bold); err != nil {
		return err
	}

	if _, err := f.NewSheet(categoriesSheet); err != nil {
		return err
	}
	if err := setRow(f, categoriesSheet, 1, []any{"Category", "Amount", "Percent"}); err != nil {
		return err
	}
	for i, c := range core.ByCategory(txs) {
		if err := setRow(f, categoriesSheet, i+2, []any{c.Name, c.Amount.Float(), c.PercentOfExpense}); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(categoriesSheet, "A1", "C1", bold); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// ReadXLSX reads the first sheet of a workbook.
func ReadXLSX(r io.Reader) ([]core.Transaction, error) {
	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, r); err != nil {
		return nil, fmt.Errorf("copy xlsx: %w", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	rows, err := f.Rows(f.GetSheetName(0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, fmt.Errorf("xlsx empty sheet")
	}
	header, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	if len(header) == 0 || !strings.EqualFold(strings.TrimSpace(header[0]), Header[0]) {
		return nil, fmt.Errorf("xlsx header: unexpected columns %v", header)
	}

	var out []core.Transaction
	for line := 2; rows.Next(); line++ {
		cols, err := rows.Columns()
		if err != nil {
			return nil, err
		}
		t, ok, err := parseRow(cols, line)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, t)
		}
	}
	return out, rows.Error()
}

func setRow(f *excelize.File, sheet string, n int, vals []any) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &vals)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
