package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/require"

	"finboard/internal/core"
)

const baseURL = "https://api.mock"

func newTestClient(t *testing.T, token string) (*Client, *httpmock.MockTransport) {
	t.Helper()
	mt := httpmock.NewMockTransport()
	c, err := New(baseURL, WithHTTPClient(&http.Client{Transport: mt}), WithTokenSource(StaticToken(token)))
	require.NoError(t, err)
	return c, mt
}

func decodeBody(t *testing.T, req *http.Request) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.NewDecoder(req.Body).Decode(&m))
	return m
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	for _, raw := range []string{"", "ftp://host", "::bad"} {
		if _, err := New(raw); err == nil {
			t.Fatalf("New(%q) expected error", raw)
		}
	}
}

func TestListTransactions(t *testing.T) {
	c, mt := newTestClient(t, "tok")
	mt.RegisterResponder(http.MethodGet, baseURL+"/transactions/expenses",
		func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "Bearer tok", req.Header.Get("Authorization"))
			require.NotEmpty(t, req.Header.Get("X-Request-ID"))
			return httpmock.NewStringResponse(200, `[
				{"id":1,"amount":12.5,"description":"lunch","category":"Food","transactionDate":"2025-03-04T12:30:00"},
				{"id":2,"amount":"40","description":"rent","category":"Home","date":"2025-03-01","createdAt":"2025-02-27T09:00:00"},
				{"id":3,"amount":3,"description":"tip","category":"Food","createdAt":"2025-03-05T08:00:00.123"}
			]`), nil
		})

	txs, err := c.ListTransactions(context.Background(), core.Expense)
	require.NoError(t, err)
	require.Len(t, txs, 3)

	require.Equal(t, core.Expense, txs[0].Type)
	require.Equal(t, int64(1250), txs[0].Amount.Cents)
	require.Equal(t, "2025-03-04", txs[0].Date.String())
	require.Equal(t, "2025-03-01", txs[1].Date.String())
	require.Equal(t, int64(4000), txs[1].Amount.Cents)
	require.Equal(t, "2025-03-05", txs[2].Date.String())
}

func TestListTransactionsInvalidType(t *testing.T) {
	c, mt := newTestClient(t, "")
	_, err := c.ListTransactions(context.Background(), "transfer")
	require.ErrorIs(t, err, core.ErrInvalidType)
	require.Zero(t, mt.GetTotalCallCount())
}

func TestCreateTransactionSendsNumbers(t *testing.T) {
	c, mt := newTestClient(t, "tok")
	mt.RegisterResponder(http.MethodPost, baseURL+"/transactions",
		func(req *http.Request) (*http.Response, error) {
			body := decodeBody(t, req)
			require.Equal(t, 19.99, body["amount"])
			require.Equal(t, "income", body["type"])
			require.Equal(t, "Salary", body["category"])
			require.Equal(t, "2025-03-01", body["date"])
			return httpmock.NewStringResponse(200, `{"message":"Income added successfully"}`), nil
		})

	err := c.CreateTransaction(context.Background(), core.Transaction{
		Type:     core.Income,
		Amount:   core.Money{Cents: 1999},
		Category: "Salary",
		Date:     core.NewDate(2025, 3, 1),
	})
	require.NoError(t, err)
	require.Equal(t, 1, mt.GetTotalCallCount())
}

func TestUpdateAndDeleteTransactionPaths(t *testing.T) {
	c, mt := newTestClient(t, "tok")
	mt.RegisterResponder(http.MethodPut, baseURL+"/transactions/expense/7",
		func(req *http.Request) (*http.Response, error) {
			body := decodeBody(t, req)
			require.NotContains(t, body, "date")
			require.Equal(t, "Travel", body["category"])
			return httpmock.NewStringResponse(200, `{"message":"ok"}`), nil
		})
	mt.RegisterResponder(http.MethodDelete, baseURL+"/transactions/income/9",
		httpmock.NewStringResponder(200, `{"message":"deleted"}`))

	ctx := context.Background()
	require.NoError(t, c.UpdateTransaction(ctx, core.Transaction{ID: 7, Type: core.Expense, Amount: core.Money{Cents: 500}, Category: "Travel"}))
	require.NoError(t, c.DeleteTransaction(ctx, core.Income, 9))

	info := mt.GetCallCountInfo()
	require.Equal(t, 1, info["PUT "+baseURL+"/transactions/expense/7"])
	require.Equal(t, 1, info["DELETE "+baseURL+"/transactions/income/9"])
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"message field", 400, `{"message":"Amount must be positive"}`, "Amount must be positive"},
		{"error field", 404, `{"error":"Savings not found or access denied"}`, "Savings not found or access denied"},
		{"raw body", 500, "boom", "boom"},
		{"empty 401", 401, "", "Your session has expired. Please log in again."},
		{"empty 503", 503, "", "Service Unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, mt := newTestClient(t, "tok")
			mt.RegisterResponder(http.MethodDelete, baseURL+"/budget/delete/3",
				httpmock.NewStringResponder(tt.status, tt.body))

			err := c.DeleteBudget(context.Background(), 3)
			var ae *APIError
			require.True(t, errors.As(err, &ae), "got %v", err)
			require.Equal(t, tt.status, ae.Status)
			require.Equal(t, tt.wantMsg, ae.UserMessage())
			require.Equal(t, tt.wantMsg, core.UserMessage(err))
		})
	}
}

func TestIsUnauthorized(t *testing.T) {
	c, mt := newTestClient(t, "expired")
	mt.RegisterResponder(http.MethodGet, baseURL+"/user/profile", httpmock.NewStringResponder(403, ""))

	_, err := c.GetProfile(context.Background())
	require.True(t, IsUnauthorized(err))
	require.False(t, IsStatus(err, 500))
}

func TestTransportFailure(t *testing.T) {
	c, _ := newTestClient(t, "tok")
	_, err := c.ListGoals(context.Background())
	require.Error(t, err)
	var ae *APIError
	require.False(t, errors.As(err, &ae))
}

func TestListBudgetsPathOrder(t *testing.T) {
	c, mt := newTestClient(t, "tok")
	mt.RegisterResponder(http.MethodGet, baseURL+"/budget/monthly/3/2025",
		httpmock.NewStringResponder(200, `[{"id":1,"category":"Food","budgetAmount":200,"spentAmount":999,"month":3,"year":2025}]`))

	budgets, err := c.ListBudgets(context.Background(), 2025, 3)
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	require.Equal(t, int64(20000), budgets[0].BudgetAmount.Cents)
	require.Equal(t, 3, budgets[0].Month)
}

func TestSavingsEndpoints(t *testing.T) {
	c, mt := newTestClient(t, "tok")
	mt.RegisterResponder(http.MethodPost, baseURL+"/budget/savings-goal",
		httpmock.NewStringResponder(200, `{"id":4,"goalName":"Bike","targetAmount":500,"currentAmount":0,"targetDate":"2025-12-31"}`))
	mt.RegisterResponder(http.MethodPost, baseURL+"/budget/savings-goal/4/add",
		func(req *http.Request) (*http.Response, error) {
			body := decodeBody(t, req)
			require.Equal(t, 25.0, body["amount"])
			require.Equal(t, "first", body["description"])
			return httpmock.NewStringResponse(200, `{"message":"Amount added to savings goal successfully"}`), nil
		})
	mt.RegisterResponder(http.MethodGet, baseURL+"/api/savings/total",
		httpmock.NewStringResponder(200, `{"total":125.50}`))

	ctx := context.Background()
	g, err := c.CreateGoal(ctx, core.SavingsGoal{GoalName: "Bike", TargetAmount: core.Money{Cents: 50000}})
	require.NoError(t, err)
	require.Equal(t, int64(4), g.ID)
	require.Equal(t, "2025-12-31", g.TargetDate.String())

	require.NoError(t, c.AddToGoal(ctx, g.ID, core.Money{Cents: 2500}, "first"))

	total, err := c.TotalSavings(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(12550), total.Cents)
}

func TestLoginKeepsEmail(t *testing.T) {
	c, mt := newTestClient(t, "")
	mt.RegisterResponder(http.MethodPost, baseURL+"/auth/login",
		func(req *http.Request) (*http.Response, error) {
			require.Empty(t, req.Header.Get("Authorization"))
			body := decodeBody(t, req)
			require.Equal(t, "ana@example.com", body["email"])
			return httpmock.NewJsonResponse(200, map[string]any{"token": "jwt", "username": "ana", "userId": 12})
		})

	res, err := c.Login(context.Background(), " ana@example.com ", "secret")
	require.NoError(t, err)
	require.Equal(t, core.LoginResult{Token: "jwt", Username: "ana", UserID: 12, Email: "ana@example.com"}, res)
}

func TestLoginEmptyToken(t *testing.T) {
	c, mt := newTestClient(t, "")
	mt.RegisterResponder(http.MethodPost, baseURL+"/auth/login", httpmock.NewStringResponder(200, `{}`))
	_, err := c.Login(context.Background(), "a@b.c", "x")
	require.Error(t, err)
}

func TestProfileFallsBackToPhone(t *testing.T) {
	c, mt := newTestClient(t, "tok")
	mt.RegisterResponder(http.MethodGet, baseURL+"/user/profile",
		httpmock.NewStringResponder(200, `{"username":"ana","fullName":"","phone":"555","preferredCurrency":"EUR"}`))

	p, err := c.GetProfile(context.Background())
	require.NoError(t, err)
	require.Equal(t, "555", p.Mobile)
	require.Equal(t, "ana", p.DisplayName())
}

func TestProfileImage(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n0000")
	c, mt := newTestClient(t, "tok")
	mt.RegisterResponder(http.MethodPost, baseURL+"/user/upload-image",
		func(req *http.Request) (*http.Response, error) {
			require.NoError(t, req.ParseMultipartForm(1<<20))
			f, hdr, err := req.FormFile("image")
			require.NoError(t, err)
			defer f.Close()
			require.Equal(t, "me.png", hdr.Filename)
			require.Equal(t, "image/png", hdr.Header.Get("Content-Type"))
			got, err := io.ReadAll(f)
			require.NoError(t, err)
			require.Equal(t, png, got)
			return httpmock.NewStringResponse(200, `{"message":"Image uploaded successfully"}`), nil
		})
	mt.RegisterResponder(http.MethodDelete, baseURL+"/user/delete-image",
		httpmock.NewStringResponder(200, `{"message":"Image deleted successfully"}`))

	require.NoError(t, c.UploadProfileImage(context.Background(), "/tmp/me.png", bytes.NewReader(png)))
	require.NoError(t, c.DeleteProfileImage(context.Background()))
	require.Equal(t, 2, mt.GetTotalCallCount())
}

func TestSummary(t *testing.T) {
	c, mt := newTestClient(t, "tok")
	mt.RegisterResponder(http.MethodGet, baseURL+"/analytics/summary",
		httpmock.NewStringResponder(200, `{"totalIncome":1000,"totalExpenses":400.25,"netSavings":599.75,"savingsGoalsCount":2,"topSpendingCategory":"Food"}`))

	s, err := c.Summary(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(40025), s.TotalExpenses.Cents)
	require.Equal(t, int64(59975), s.NetSavings.Cents)
	require.Equal(t, 2, s.SavingsGoalsCount)
	require.Equal(t, "Food", s.TopSpendingCategory)
}

func TestExportStreams(t *testing.T) {
	c, mt := newTestClient(t, "tok")
	mt.RegisterResponder(http.MethodGet, baseURL+"/api/export/csv",
		httpmock.NewStringResponder(200, "Date,Type\n2025-03-01,income\n"))

	var buf bytes.Buffer
	n, err := c.Export(context.Background(), core.ExportCSV, &buf)
	require.NoError(t, err)
	require.Equal(t, int64(buf.Len()), n)
	require.Equal(t, "Date,Type\n2025-03-01,income\n", buf.String())

	_, err = c.Export(context.Background(), "docx", io.Discard)
	require.ErrorIs(t, err, core.ErrUnsupportedFormat)
}

func TestAccountAdminPaths(t *testing.T) {
	c, mt := newTestClient(t, "tok")
	mt.RegisterResponder(http.MethodDelete, baseURL+"/api/user/reset-data", httpmock.NewStringResponder(200, `{"message":"ok"}`))
	mt.RegisterResponder(http.MethodDelete, baseURL+"/api/user/delete-account", httpmock.NewStringResponder(200, `{"message":"ok"}`))

	require.NoError(t, c.ResetData(context.Background()))
	require.NoError(t, c.DeleteAccount(context.Background()))
	require.Equal(t, 2, mt.GetTotalCallCount())
}

func TestForum(t *testing.T) {
	c, mt := newTestClient(t, "tok")
	mt.RegisterResponder(http.MethodGet, baseURL+"/api/forum/posts/5",
		httpmock.NewStringResponder(200, `{
			"post":{"id":5,"title":"Budgeting tips","content":"...","userName":"ana","likesCount":3,"createdAt":"2025-03-01T10:00:00"},
			"comments":[{"id":1,"userName":"bo","content":"thanks","createdAt":"2025-03-02T11:00:00"}]
		}`))
	mt.RegisterResponder(http.MethodPost, baseURL+"/api/forum/posts/5/like",
		httpmock.NewStringResponder(200, `{"message":"Post liked","likesCount":4}`))

	ctx := context.Background()
	p, err := c.GetPost(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, "ana", p.Author)
	require.Len(t, p.Comments, 1)
	require.Equal(t, "bo", p.Comments[0].Author)
	require.Equal(t, 2025, p.At.Year())

	likes, err := c.LikePost(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, 4, likes)
}

func TestChat(t *testing.T) {
	c, mt := newTestClient(t, "tok")
	mt.RegisterResponder(http.MethodPost, baseURL+"/api/ai/chat",
		httpmock.NewStringResponder(200, `{"response":"Spend less on food."}`))

	reply, err := c.Chat(context.Background(), "how am I doing?")
	require.NoError(t, err)
	require.Equal(t, "Spend less on food.", reply.Reply)

	_, err = c.Chat(context.Background(), "   ")
	require.Error(t, err)
	require.Equal(t, 1, mt.GetTotalCallCount())
}
