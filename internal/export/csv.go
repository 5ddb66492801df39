package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"finboard/internal/core"
)

func WriteCSV(w io.Writer, txs []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, t := range txs {
		if err := cw.Write(row(t)); err != nil {
			return err
		}
	}
	if err := cw.WriteAll(totals(txs)); err != nil {
		return fmt.Errorf("csv totals: %w", err)
	}
	return cw.Error()
}

func ReadCSV(r io.Reader) ([]core.Transaction, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	if len(header) < len(Header) || !strings.EqualFold(strings.TrimSpace(header[0]), Header[0]) {
		return nil, fmt.Errorf("csv header: unexpected columns %v", header)
	}

	var out []core.Transaction
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv row: %w", err)
		}
		t, ok, err := parseRow(rec, line)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, t)
		}
	}
	return out, nil
}
