package backup

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"

	"finboard/internal/core"
	"finboard/internal/events"
	"finboard/internal/memory"
)

type fakeSheet struct {
	mu      sync.Mutex
	cleared []string
	ranges  []string
	rows    [][]any
	err     error
}

func (f *fakeSheet) Clear(_ context.Context, rng string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.cleared = append(f.cleared, rng)
	return nil
}

func (f *fakeSheet) Update(_ context.Context, rng string, rows [][]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ranges = append(f.ranges, rng)
	f.rows = rows
	return nil
}

func seeded(t *testing.T) *memory.Store {
	t.Helper()
	mem := memory.New()
	ctx := context.Background()
	for _, tx := range []core.Transaction{
		{Type: core.Income, Amount: core.Money{Cents: 10000}, Category: "Salary", Description: "pay", Date: core.NewDate(2025, 3, 1)},
		{Type: core.Expense, Amount: core.Money{Cents: 2500}, Category: "Food", Description: "lunch", Date: core.NewDate(2025, 3, 4)},
	} {
		require.NoError(t, mem.CreateTransaction(ctx, tx))
	}
	return mem
}

func TestBackupRun(t *testing.T) {
	sheet := &fakeSheet{}
	b := New(sheet, "Transactions", seeded(t), nil)

	n, err := b.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, []string{"Transactions!A:E"}, sheet.cleared)
	require.Equal(t, []string{"Transactions!A1"}, sheet.ranges)

	require.Len(t, sheet.rows, 6)
	require.Equal(t, []any{"Date", "Type", "Category", "Description", "Amount"}, sheet.rows[0])
	require.Equal(t, []any{"2025-03-04", "expense", "Food", "lunch", "25.00"}, sheet.rows[1])
	require.Equal(t, []any{"", "", "", "Net", "75.00"}, sheet.rows[5])
}

func TestBackupRunErrors(t *testing.T) {
	mem := seeded(t)
	mem.SetFault(func(op string, _ int64) error {
		if op == "ListTransactions" {
			return errors.New("offline")
		}
		return nil
	})
	sheet := &fakeSheet{}
	_, err := New(sheet, "Transactions", mem, nil).Run(context.Background())
	require.ErrorContains(t, err, "fetch transactions")
	require.Empty(t, sheet.cleared, "nothing may be cleared when the fetch fails")

	sheet = &fakeSheet{err: errors.New("quota")}
	_, err = New(sheet, "Transactions", seeded(t), nil).Run(context.Background())
	require.ErrorContains(t, err, "quota")
	require.Empty(t, sheet.ranges)
}

func TestGoogleSheetCalls(t *testing.T) {
	mock := httpmock.NewMockTransport()
	mock.RegisterResponder(http.MethodPost, `=~/v4/spreadsheets/sheet-1/values/.+clear`,
		httpmock.NewStringResponder(http.StatusOK, `{"spreadsheetId":"sheet-1"}`))

	var body struct {
		Values [][]any `json:"values"`
	}
	mock.RegisterResponder(http.MethodPut, `=~/v4/spreadsheets/sheet-1/values/`,
		func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "USER_ENTERED", req.URL.Query().Get("valueInputOption"))
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				return nil, err
			}
			return httpmock.NewStringResponse(http.StatusOK, `{"updatedRows":2}`), nil
		})

	ctx := context.Background()
	g, err := newGoogleSheet(ctx, "sheet-1", goption.WithHTTPClient(&http.Client{Transport: mock}))
	require.NoError(t, err)

	require.NoError(t, g.Clear(ctx, "Transactions!A:E"))
	require.NoError(t, g.Update(ctx, "Transactions!A1", [][]any{{"Date"}, {"2025-03-04"}}))
	require.Equal(t, [][]any{{"Date"}, {"2025-03-04"}}, body.Values)
	require.Equal(t, 2, mock.GetTotalCallCount())
}

func TestGoogleSheetError(t *testing.T) {
	mock := httpmock.NewMockTransport()
	mock.RegisterNoResponder(httpmock.NewStringResponder(http.StatusForbidden, `{"error":{"code":403,"message":"denied"}}`))

	ctx := context.Background()
	g, err := newGoogleSheet(ctx, "sheet-1", goption.WithHTTPClient(&http.Client{Transport: mock}))
	require.NoError(t, err)
	require.ErrorContains(t, g.Clear(ctx, "Transactions!A:E"), "clear Transactions!A:E")
}

func TestNewGoogleSheetNeedsCredentials(t *testing.T) {
	_, err := NewGoogleSheet(context.Background(), "sheet-1", "", "", nil)
	require.ErrorContains(t, err, "missing service account credentials")

	_, err = NewGoogleSheet(context.Background(), "sheet-1", "/does/not/exist.json", "", nil)
	require.ErrorContains(t, err, "read service account file")

	_, err = newGoogleSheet(context.Background(), " ")
	require.Error(t, err)
}

type countingRunner struct {
	calls atomic.Int32
}

func (c *countingRunner) Run(context.Context) (int, error) {
	c.calls.Add(1)
	return 0, nil
}

func TestWorkerDebounces(t *testing.T) {
	r := &countingRunner{}
	w := NewWorker(r, 30*time.Millisecond, 1, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	for i := 0; i < 5; i++ {
		require.NoError(t, w.Handle(ctx, events.NewChange(events.EntityTransaction, events.OpCreate, int64(i), 1)))
	}
	require.Eventually(t, func() bool { return r.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	require.EqualValues(t, 1, r.calls.Load())

	cancel()
	require.NoError(t, <-done)
}

func TestWorkerIgnoresOtherUsers(t *testing.T) {
	r := &countingRunner{}
	w := NewWorker(r, time.Millisecond, 1, nil)
	ctx := context.Background()

	require.NoError(t, w.Handle(ctx, events.NewChange(events.EntityBudget, events.OpCreate, 1, 2)))
	require.NoError(t, w.Handle(ctx, events.NewChange(events.EntityAccount, events.OpDelete, 1, 1)))
	select {
	case <-w.kick:
		t.Fatal("no backup should be scheduled")
	default:
	}

	require.NoError(t, w.Handle(ctx, events.NewChange(events.EntityBudget, events.OpCreate, 1, 1)))
	require.Len(t, w.kick, 1)
}
