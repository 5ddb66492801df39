package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

type (
	TxType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID          int64
		Type        TxType
		Amount      Money
		Description string
		Category    string
		Date        Date
	}

	// Budget is a spending cap for a category within a month.
	// SpentAmount is derived from expenses, see ApplySpent.
	Budget struct {
		ID           int64
		Category     string
		BudgetAmount Money
		SpentAmount  Money
		Month        int // 1-12
		Year         int
	}

	SavingsGoal struct {
		ID            int64
		GoalName      string
		TargetAmount  Money
		CurrentAmount Money
		TargetDate    Date // optional
	}

	Profile struct {
		Username          string
		FullName          string
		Email             string
		Mobile            string
		PreferredCurrency string
		FinancialGoal     string
		ProfileImage      string
	}

	ForumComment struct {
		ID      int64
		Author  string
		Content string
		At      time.Time
	}

	ForumPost struct {
		ID       int64
		Title    string
		Content  string
		Category string
		Author   string
		AuthorID int64
		Likes    int
		Comments []ForumComment
		At       time.Time
	}

	// SavingsEntry is a one-off transfer into savings. The backend books a
	// matching "Savings" expense for each new entry.
	SavingsEntry struct {
		ID           int64
		GoalName     string
		Amount       Money
		TargetAmount Money
		Description  string
		CreatedAt    time.Time
	}

	// LoginResult is what a successful login hands to the session.
	LoginResult struct {
		Token    string
		Username string
		UserID   int64
		Email    string
	}

	// ServerSummary is the backend's own all-time and current-month summary.
	ServerSummary struct {
		TotalIncome          Money
		TotalExpenses        Money
		NetSavings           Money
		TotalSavingsGoals    Money
		TotalSavingsTarget   Money
		SavingsGoalsCount    int
		CurrentMonthIncome   Money
		CurrentMonthExpenses Money
		CurrentMonthSavings  Money
		TopSpendingCategory  string
	}

	// ExportFormat is a document format the backend can render.
	ExportFormat string

	// ChatReply is an answer from the finance assistant.
	ChatReply struct {
		Reply string
	}
)

var (
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidYear      = errors.New("invalid year")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyGoalName    = errors.New("empty goal name")
	ErrDescriptionLong  = errors.New("description too long (max 200 characters)")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyImage       = errors.New("empty image")
)

const (
	ExportPDF ExportFormat = "pdf"
	ExportCSV ExportFormat = "csv"
	ExportODF ExportFormat = "odf"
)

// ErrUnsupportedFormat is returned for export formats nobody can render.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ParseExportFormat accepts pdf, csv or odf, case-insensitively.
func ParseExportFormat(s string) (ExportFormat, error) {
	f := ExportFormat(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case ExportPDF, ExportCSV, ExportODF:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// ParseTxType accepts "income" or "expense", case-insensitively.
func ParseTxType(s string) (TxType, error) {
	switch TxType(strings.ToLower(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
}

func (t TxType) Valid() bool {
	return t == Income || t == Expense
}

func (t TxType) String() string {
	return string(t)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate accepts YYYY-MM-DD or any ISO timestamp whose first ten
// characters are a date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > 10 && strings.Contains(s, "-") {
		s = s[:10]
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// InMonth reports whether the date falls in the given year and month.
func (d Date) InMonth(year, month int) bool {
	return !d.IsZero() && d.Year() == year && d.Month() == month
}

// String formats as YYYY-MM-DD, empty for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(time.DateOnly)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(t.Description) > 200 {
		return ErrDescriptionLong
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if err := b.BudgetAmount.Validate(); err != nil {
		return err
	}
	if b.Month < 1 || b.Month > 12 {
		return ErrInvalidMonth
	}
	if b.Year < 1900 || b.Year > 9999 {
		return ErrInvalidYear
	}
	return nil
}

func (g SavingsGoal) Validate() error {
	if strings.TrimSpace(g.GoalName) == "" {
		return ErrEmptyGoalName
	}
	if err := g.TargetAmount.Validate(); err != nil {
		return err
	}
	return nil
}

func (e SavingsEntry) Validate() error {
	if strings.TrimSpace(e.GoalName) == "" {
		return ErrEmptyGoalName
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	return e.TargetAmount.Validate()
}

// TransferDescription is the description of the expense booked for e.
func (e SavingsEntry) TransferDescription() string {
	if d := strings.TrimSpace(e.Description); d != "" {
		return "Transfer to " + e.GoalName + " - " + d
	}
	return "Transfer to " + e.GoalName
}

// SavingsCategory is the expense category used for savings transfers.
const SavingsCategory = "Savings"

// Progress returns CurrentAmount as a percentage of TargetAmount.
func (g SavingsGoal) Progress() float64 {
	if g.TargetAmount.Cents <= 0 {
		return 0
	}
	return percent(g.CurrentAmount.Cents, g.TargetAmount.Cents)
}

// Remaining is the amount still needed to reach the target, never negative.
func (g SavingsGoal) Remaining() Money {
	left := g.TargetAmount.Cents - g.CurrentAmount.Cents
	if left < 0 {
		left = 0
	}
	return Money{Cents: left}
}

// DisplayName prefers the full name, then the username.
func (p Profile) DisplayName() string {
	if strings.TrimSpace(p.FullName) != "" {
		return p.FullName
	}
	if p.Username != "" {
		return p.Username
	}
	return "User"
}
