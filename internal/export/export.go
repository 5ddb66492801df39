// Package export writes transaction lists as CSV or XLSX and reads them back.
package export

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"finboard/internal/core"
)

// Format is a local file format.
type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// Header is the column layout shared by both formats.
var Header = []string{"Date", "Type", "Category", "Description", "Amount"}

// ParseFormat accepts csv or xlsx, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case CSV, XLSX:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", core.ErrUnsupportedFormat, s)
}

// Write renders txs in format f. A totals block follows the rows.
func Write(w io.Writer, f Format, txs []core.Transaction) error {
	switch f {
	case CSV:
		return WriteCSV(w, txs)
	case XLSX:
		return WriteXLSX(w, txs)
	}
	return fmt.Errorf("%w: %q", core.ErrUnsupportedFormat, f)
}

// Read parses a file written by Write, or any file with the same header.
func Read(r io.Reader, f Format) ([]core.Transaction, error) {
	switch f {
	case CSV:
		return ReadCSV(r)
	case XLSX:
		return ReadXLSX(r)
	}
	return nil, fmt.Errorf("%w: %q", core.ErrUnsupportedFormat, f)
}

// Table returns the header, one row per transaction and the totals block,
// as written by every format.
func Table(txs []core.Transaction) [][]string {
	out := make([][]string, 0, len(txs)+len(totalLabels)+1)
	out = append(out, Header)
	for _, t := range txs {
		out = append(out, row(t))
	}
	return append(out, totals(txs)...)
}

func row(t core.Transaction) []string {
	return []string{t.Date.String(), t.Type.String(), t.Category, t.Description, t.Amount.String()}
}

var totalLabels = []string{"Total Income", "Total Expense", "Net"}

func totals(txs []core.Transaction) [][]string {
	s := core.Summarize(txs)
	amounts := []core.Money{s.TotalIncome, s.TotalExpense, s.Net}
	out := make([][]string, len(totalLabels))
	for i, label := range totalLabels {
		out[i] = []string{"", "", "", label, amounts[i].String()}
	}
	return out
}

// isTotalsRow matches the block written by totals: date, type and category
// empty and a label in the description column.
func isTotalsRow(cols []string) bool {
	for _, c := range cols[:3] {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return slices.Contains(totalLabels, strings.TrimSpace(cols[3]))
}

// parseRow turns one data row back into a transaction. ok is false for the
// totals block and blank lines.
func parseRow(cols []string, line int) (core.Transaction, bool, error) {
	for len(cols) < len(Header) {
		cols = append(cols, "")
	}
	if isTotalsRow(cols) || strings.TrimSpace(strings.Join(cols, "")) == "" {
		return core.Transaction{}, false, nil
	}
	date, err := core.ParseDate(cols[0])
	if err != nil {
		return core.Transaction{}, false, fmt.Errorf("line %d: %w", line, err)
	}
	typ, err := core.ParseTxType(cols[1])
	if err != nil {
		return core.Transaction{}, false, fmt.Errorf("line %d: %w", line, err)
	}
	amount, err := core.ParseMoney(cols[4])
	if err != nil {
		return core.Transaction{}, false, fmt.Errorf("line %d: %w", line, err)
	}
	t := core.Transaction{
		Type:        typ,
		Amount:      amount,
		Category:    strings.TrimSpace(cols[2]),
		Description: strings.TrimSpace(cols[3]),
		Date:        date,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, false, fmt.Errorf("line %d: %w", line, err)
	}
	return t, true, nil
}
