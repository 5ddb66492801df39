package api

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

// amount is a decimal that goes on the wire as a bare JSON number.
type amount struct{ decimal.Decimal }

func amountOf(m core.Money) amount { return amount{m.Decimal()} }

func (a amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

func (a *amount) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		a.Decimal = decimal.Zero
		return nil
	}
	return a.Decimal.UnmarshalJSON(b)
}

func (a amount) money() core.Money { return core.MoneyFromDecimal(a.Decimal) }

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	UserID   int64  `json:"userId"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type transactionDTO struct {
	ID              int64  `json:"id"`
	Amount          amount `json:"amount"`
	Description     string `json:"description"`
	Category        string `json:"category"`
	Type            string `json:"type,omitempty"`
	Date            string `json:"date,omitempty"`
	TransactionDate string `json:"transactionDate,omitempty"`
	CreatedAt       string `json:"createdAt,omitempty"`
}

// toCore takes the first date the backend filled in: date, transactionDate,
// then createdAt. A missing or unparsable date is left zero.
func (d transactionDTO) toCore(typ core.TxType) core.Transaction {
	t := core.Transaction{
		ID:          d.ID,
		Type:        typ,
		Amount:      d.Amount.money(),
		Description: d.Description,
		Category:    d.Category,
	}
	for _, s := range []string{d.Date, d.TransactionDate, d.CreatedAt} {
		if strings.TrimSpace(s) == "" {
			continue
		}
		if date, err := core.ParseDate(s); err == nil {
			t.Date = date
			break
		}
	}
	return t
}

type createTransactionRequest struct {
	Amount      amount `json:"amount"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Date        string `json:"date"`
}

type updateTransactionRequest struct {
	Amount      amount `json:"amount"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type budgetDTO struct {
	ID           int64  `json:"id,omitempty"`
	Category     string `json:"category"`
	BudgetAmount amount `json:"budgetAmount"`
	SpentAmount  amount `json:"spentAmount,omitempty"`
	Month        int    `json:"month"`
	Year         int    `json:"year"`
}

func (d budgetDTO) toCore() core.Budget {
	return core.Budget{
		ID:           d.ID,
		Category:     d.Category,
		BudgetAmount: d.BudgetAmount.money(),
		SpentAmount:  d.SpentAmount.money(),
		Month:        d.Month,
		Year:         d.Year,
	}
}

type budgetRequest struct {
	Category     string `json:"category"`
	BudgetAmount amount `json:"budgetAmount"`
	Month        int    `json:"month"`
	Year         int    `json:"year"`
}

type goalDTO struct {
	ID            int64  `json:"id"`
	GoalName      string `json:"goalName"`
	TargetAmount  amount `json:"targetAmount"`
	CurrentAmount amount `json:"currentAmount"`
	TargetDate    string `json:"targetDate,omitempty"`
}

func (d goalDTO) toCore() core.SavingsGoal {
	g := core.SavingsGoal{
		ID:            d.ID,
		GoalName:      d.GoalName,
		TargetAmount:  d.TargetAmount.money(),
		CurrentAmount: d.CurrentAmount.money(),
	}
	if date, err := core.ParseDate(d.TargetDate); err == nil {
		g.TargetDate = date
	}
	return g
}

type goalRequest struct {
	GoalName     string `json:"goalName"`
	TargetAmount amount `json:"targetAmount"`
	TargetDate   string `json:"targetDate,omitempty"`
}

type contributionRequest struct {
	Amount      amount `json:"amount"`
	Description string `json:"description"`
}

type savingsDTO struct {
	ID           int64  `json:"id,omitempty"`
	GoalName     string `json:"goalName"`
	Amount       amount `json:"amount"`
	TargetAmount amount `json:"targetAmount"`
	Description  string `json:"description"`
	CreatedAt    string `json:"createdAt,omitempty"`
}

func savingsFromCore(e core.SavingsEntry) savingsDTO {
	return savingsDTO{
		GoalName:     e.GoalName,
		Amount:       amountOf(e.Amount),
		TargetAmount: amountOf(e.TargetAmount),
		Description:  e.Description,
	}
}

func (d savingsDTO) toCore() core.SavingsEntry {
	return core.SavingsEntry{
		ID:           d.ID,
		GoalName:     d.GoalName,
		Amount:       d.Amount.money(),
		TargetAmount: d.TargetAmount.money(),
		Description:  d.Description,
		CreatedAt:    parseTimestamp(d.CreatedAt),
	}
}

type totalResponse struct {
	Total amount `json:"total"`
}

type profileDTO struct {
	Username          string `json:"username,omitempty"`
	FullName          string `json:"fullName"`
	Email             string `json:"email,omitempty"`
	Mobile            string `json:"mobile"`
	Phone             string `json:"phone,omitempty"`
	PreferredCurrency string `json:"preferredCurrency"`
	FinancialGoal     string `json:"financialGoal"`
	ProfileImage      string `json:"profileImage,omitempty"`
}

func (d profileDTO) toCore() core.Profile {
	mobile := d.Mobile
	if mobile == "" {
		mobile = d.Phone
	}
	return core.Profile{
		Username:          d.Username,
		FullName:          d.FullName,
		Email:             d.Email,
		Mobile:            mobile,
		PreferredCurrency: d.PreferredCurrency,
		FinancialGoal:     d.FinancialGoal,
		ProfileImage:      d.ProfileImage,
	}
}

func profileFromCore(p core.Profile) profileDTO {
	return profileDTO{
		FullName:          p.FullName,
		Mobile:            p.Mobile,
		Phone:             p.Mobile,
		PreferredCurrency: p.PreferredCurrency,
		FinancialGoal:     p.FinancialGoal,
		ProfileImage:      p.ProfileImage,
	}
}

type summaryDTO struct {
	TotalIncome          amount `json:"totalIncome"`
	TotalExpenses        amount `json:"totalExpenses"`
	NetSavings           amount `json:"netSavings"`
	TotalSavingsGoals    amount `json:"totalSavingsGoals"`
	TotalSavingsTarget   amount `json:"totalSavingsTarget"`
	SavingsGoalsCount    int    `json:"savingsGoalsCount"`
	CurrentMonthIncome   amount `json:"currentMonthIncome"`
	CurrentMonthExpenses amount `json:"currentMonthExpenses"`
	CurrentMonthSavings  amount `json:"currentMonthSavings"`
	TopSpendingCategory  string `json:"topSpendingCategory"`
}

func (d summaryDTO) toCore() core.ServerSummary {
	return core.ServerSummary{
		TotalIncome:          d.TotalIncome.money(),
		TotalExpenses:        d.TotalExpenses.money(),
		NetSavings:           d.NetSavings.money(),
		TotalSavingsGoals:    d.TotalSavingsGoals.money(),
		TotalSavingsTarget:   d.TotalSavingsTarget.money(),
		SavingsGoalsCount:    d.SavingsGoalsCount,
		CurrentMonthIncome:   d.CurrentMonthIncome.money(),
		CurrentMonthExpenses: d.CurrentMonthExpenses.money(),
		CurrentMonthSavings:  d.CurrentMonthSavings.money(),
		TopSpendingCategory:  d.TopSpendingCategory,
	}
}

type commentDTO struct {
	ID        int64  `json:"id"`
	UserName  string `json:"userName"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

type postDTO struct {
	ID         int64        `json:"id"`
	Title      string       `json:"title"`
	Content    string       `json:"content"`
	Category   string       `json:"category"`
	UserName   string       `json:"userName"`
	UserID     int64        `json:"userId"`
	LikesCount int          `json:"likesCount"`
	Comments   []commentDTO `json:"comments"`
	CreatedAt  string       `json:"createdAt"`
}

func (d commentDTO) toCore() core.ForumComment {
	return core.ForumComment{ID: d.ID, Author: d.UserName, Content: d.Content, At: parseTimestamp(d.CreatedAt)}
}

func (d postDTO) toCore() core.ForumPost {
	p := core.ForumPost{
		ID:       d.ID,
		Title:    d.Title,
		Content:  d.Content,
		Category: d.Category,
		Author:   d.UserName,
		AuthorID: d.UserID,
		Likes:    d.LikesCount,
		At:       parseTimestamp(d.CreatedAt),
	}
	for _, c := range d.Comments {
		p.Comments = append(p.Comments, c.toCore())
	}
	return p
}

type postRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category,omitempty"`
}

type commentRequest struct {
	Content string `json:"content"`
}

type likeResponse struct {
	LikesCount int `json:"likesCount"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response string `json:"response"`
}

// parseTimestamp accepts the backend's LocalDateTime output, with or
// without fractional seconds and zone. Unknown shapes yield the zero time.
func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
