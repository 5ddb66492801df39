// Package ports declares the outbound interfaces the services depend on.
// The api package talks to the REST backend; memory keeps everything in
// process for tests and offline use.
package ports

import (
	"context"
	"io"

	"finboard/internal/core"
)

type (
	TransactionSource interface {
		// ListTransactions returns every transaction of the given type for the
		// signed-in user.
		ListTransactions(ctx context.Context, typ core.TxType) ([]core.Transaction, error)
	}

	TransactionWriter interface {
		CreateTransaction(ctx context.Context, t core.Transaction) error
		UpdateTransaction(ctx context.Context, t core.Transaction) error
		DeleteTransaction(ctx context.Context, typ core.TxType, id int64) error
	}

	BudgetStore interface {
		ListBudgets(ctx context.Context, year, month int) ([]core.Budget, error)
		// SetBudget creates the budget or replaces the amount of the one with
		// the same category, month and year.
		SetBudget(ctx context.Context, b core.Budget) error
		UpdateBudget(ctx context.Context, b core.Budget) error
		DeleteBudget(ctx context.Context, id int64) error
	}

	SavingsStore interface {
		ListGoals(ctx context.Context) ([]core.SavingsGoal, error)
		CreateGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error)
		UpdateGoal(ctx context.Context, g core.SavingsGoal) error
		DeleteGoal(ctx context.Context, id int64) error
		AddToGoal(ctx context.Context, id int64, amount core.Money, description string) error
	}

	// SavingsLedger manages one-off transfers into savings.
	SavingsLedger interface {
		ListSavings(ctx context.Context) ([]core.SavingsEntry, error)
		AddSavings(ctx context.Context, e core.SavingsEntry) (core.SavingsEntry, error)
		UpdateSavings(ctx context.Context, e core.SavingsEntry) (core.SavingsEntry, error)
		DeleteSavings(ctx context.Context, id int64) error
		TotalSavings(ctx context.Context) (core.Money, error)
	}

	// ProfileStore reads and edits the profile. The image is uploaded as a
	// file; the backend stores it as a data URL in Profile.ProfileImage.
	ProfileStore interface {
		GetProfile(ctx context.Context) (core.Profile, error)
		UpdateProfile(ctx context.Context, p core.Profile) error
		UploadProfileImage(ctx context.Context, filename string, r io.Reader) error
		DeleteProfileImage(ctx context.Context) error
	}

	AnalyticsSource interface {
		Summary(ctx context.Context) (core.ServerSummary, error)
	}

	AccountAdmin interface {
		ResetData(ctx context.Context) error
		DeleteAccount(ctx context.Context) error
	}

	// Exporter streams a rendered document into w and returns the bytes written.
	Exporter interface {
		Export(ctx context.Context, format core.ExportFormat, w io.Writer) (int64, error)
	}

	Authenticator interface {
		Login(ctx context.Context, email, password string) (core.LoginResult, error)
	}

	Forum interface {
		ListPosts(ctx context.Context) ([]core.ForumPost, error)
		GetPost(ctx context.Context, id int64) (core.ForumPost, error)
		CreatePost(ctx context.Context, p core.ForumPost) (core.ForumPost, error)
		UpdatePost(ctx context.Context, p core.ForumPost) (core.ForumPost, error)
		DeletePost(ctx context.Context, id int64) error
		LikePost(ctx context.Context, id int64) (likes int, err error)
		AddComment(ctx context.Context, postID int64, content string) (core.ForumComment, error)
	}

	Assistant interface {
		Chat(ctx context.Context, message string) (core.ChatReply, error)
	}

	// Backend bundles every port. Both adapters implement all of it.
	Backend interface {
		TransactionSource
		TransactionWriter
		BudgetStore
		SavingsStore
		SavingsLedger
		ProfileStore
		AnalyticsSource
		AccountAdmin
		Exporter
		Authenticator
		Forum
		Assistant
	}
)
