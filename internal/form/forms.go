package form

import (
	"strings"
	"time"

	"finboard/internal/core"
)

type TransactionForm struct {
	Type           string `label:"Type" validate:"required,txtype"`
	Amount         string `label:"Amount" validate:"required,money"`
	Description    string `label:"Description" validate:"max=200"`
	Category       string `label:"Category" validate:"required,max=50"`
	CustomCategory string `label:"Custom category" validate:"required_if=Category Other,max=50"`
	Date           string `label:"Date" validate:"required,datetime=2006-01-02"`
}

// Parse validates the form and builds the transaction it describes. ID is
// left zero.
func (f TransactionForm) Parse(v *Validator) (core.Transaction, error) {
	if err := v.Check(f); err != nil {
		return core.Transaction{}, err
	}
	cat := category(f.Category, f.CustomCategory)
	if cat == "" {
		return core.Transaction{}, newError("Custom category is a required field")
	}
	typ, _ := core.ParseTxType(f.Type)
	date, _ := core.ParseDate(f.Date)
	return core.Transaction{
		Type:        typ,
		Amount:      mustMoney(f.Amount),
		Description: strings.TrimSpace(f.Description),
		Category:    cat,
		Date:        date,
	}, nil
}

// EditForm carries the fields an existing transaction can change.
type EditForm struct {
	Amount      string `label:"Amount" validate:"required,money"`
	Description string `label:"Description" validate:"max=200"`
	Category    string `label:"Category" validate:"required,max=50"`
}

// Apply returns t with the edited fields replaced.
func (f EditForm) Apply(v *Validator, t core.Transaction) (core.Transaction, error) {
	if err := v.Check(f); err != nil {
		return core.Transaction{}, err
	}
	t.Amount = mustMoney(f.Amount)
	t.Description = strings.TrimSpace(f.Description)
	t.Category = strings.TrimSpace(f.Category)
	return t, nil
}

type BudgetForm struct {
	Category       string `label:"Category" validate:"required,max=50"`
	CustomCategory string `label:"Custom category" validate:"required_if=Category Other,max=50"`
	Amount         string `label:"Budget amount" validate:"required,money"`
	Month          int    `label:"Month" validate:"min=1,max=12"`
	Year           int    `label:"Year" validate:"min=1900,max=9999"`
}

func (f BudgetForm) Parse(v *Validator) (core.Budget, error) {
	if err := v.Check(f); err != nil {
		return core.Budget{}, err
	}
	cat := category(f.Category, f.CustomCategory)
	if cat == "" {
		return core.Budget{}, newError("Custom category is a required field")
	}
	return core.Budget{
		Category:     cat,
		BudgetAmount: mustMoney(f.Amount),
		Month:        f.Month,
		Year:         f.Year,
	}, nil
}

type GoalForm struct {
	Name          string `label:"Goal name" validate:"required,max=100"`
	TargetAmount  string `label:"Target amount" validate:"required,money"`
	TargetDate    string `label:"Target date" validate:"omitempty,datetime=2006-01-02"`
	InitialAmount string `label:"Initial amount" validate:"omitempty,money"`
}

// Parse returns the goal and the optional initial contribution (zero when
// none was given).
func (f GoalForm) Parse(v *Validator) (core.SavingsGoal, core.Money, error) {
	if err := v.Check(f); err != nil {
		return core.SavingsGoal{}, core.Money{}, err
	}
	g := core.SavingsGoal{
		GoalName:     strings.TrimSpace(f.Name),
		TargetAmount: mustMoney(f.TargetAmount),
	}
	if f.TargetDate != "" {
		g.TargetDate, _ = core.ParseDate(f.TargetDate)
	}
	var initial core.Money
	if f.InitialAmount != "" {
		initial = mustMoney(f.InitialAmount)
	}
	return g, initial, nil
}

// Contribution is money added to an existing goal.
type Contribution struct {
	GoalID      int64
	Amount      core.Money
	Description string
}

type ContributionForm struct {
	GoalID      int64  `label:"Goal" validate:"min=1"`
	Amount      string `label:"Amount" validate:"required,money"`
	Description string `label:"Description" validate:"max=200"`
}

func (f ContributionForm) Parse(v *Validator) (Contribution, error) {
	if err := v.Check(f); err != nil {
		return Contribution{}, err
	}
	return Contribution{
		GoalID:      f.GoalID,
		Amount:      mustMoney(f.Amount),
		Description: strings.TrimSpace(f.Description),
	}, nil
}

// SavingsForm describes a one-off transfer into savings.
type SavingsForm struct {
	GoalName     string `label:"Goal name" validate:"required,max=100"`
	Amount       string `label:"Amount" validate:"required,money"`
	TargetAmount string `label:"Target amount" validate:"required,money"`
	Description  string `label:"Description" validate:"max=200"`
}

func (f SavingsForm) Parse(v *Validator) (core.SavingsEntry, error) {
	if err := v.Check(f); err != nil {
		return core.SavingsEntry{}, err
	}
	return core.SavingsEntry{
		GoalName:     strings.TrimSpace(f.GoalName),
		Amount:       mustMoney(f.Amount),
		TargetAmount: mustMoney(f.TargetAmount),
		Description:  strings.TrimSpace(f.Description),
	}, nil
}

type FilterForm struct {
	Type      string `label:"Type" validate:"omitempty,oneof=all income expense"`
	Category  string `label:"Category" validate:"max=50"`
	Search    string `label:"Search" validate:"max=100"`
	Month     int    `label:"Month" validate:"min=0,max=12"`
	Year      int    `label:"Year" validate:"omitempty,min=1900,max=9999"`
	From      string `label:"From" validate:"omitempty,datetime=2006-01-02"`
	To        string `label:"To" validate:"omitempty,datetime=2006-01-02"`
	MinAmount string `label:"Minimum amount" validate:"omitempty,money"`
	MaxAmount string `label:"Maximum amount" validate:"omitempty,money"`
	Period    string `label:"Period" validate:"omitempty,period"`
}

// Parse builds the filter. A period preset is resolved against now and
// overrides From and To where it sets a bound.
func (f FilterForm) Parse(v *Validator, now time.Time) (core.Filter, error) {
	if err := v.Check(f); err != nil {
		return core.Filter{}, err
	}
	out := core.Filter{
		Category: strings.TrimSpace(f.Category),
		Search:   f.Search,
		Month:    f.Month,
		Year:     f.Year,
	}
	if f.Type != "" && f.Type != "all" {
		out.Type, _ = core.ParseTxType(f.Type)
	}
	if f.From != "" {
		out.From, _ = core.ParseDate(f.From)
	}
	if f.To != "" {
		out.To, _ = core.ParseDate(f.To)
	}
	if f.MinAmount != "" {
		out.MinAmount = mustMoney(f.MinAmount)
	}
	if f.MaxAmount != "" {
		out.MaxAmount = mustMoney(f.MaxAmount)
	}

	var msgs []string
	if !out.From.IsZero() && !out.To.IsZero() && out.From.After(out.To.Time) {
		msgs = append(msgs, "From must be on or before To")
	}
	if out.MinAmount.Cents > 0 && out.MaxAmount.Cents > 0 && out.MinAmount.Cents > out.MaxAmount.Cents {
		msgs = append(msgs, "Minimum amount must not exceed Maximum amount")
	}
	if len(msgs) > 0 {
		return core.Filter{}, newError(msgs...)
	}

	if f.Period != "" {
		preset, _ := core.ParsePeriod(f.Period)
		r, err := core.GetPeriodResolver(preset)
		if err != nil {
			return core.Filter{}, err
		}
		out = out.WithPeriod(r.Resolve(now))
	}
	return out, nil
}

type ProfileForm struct {
	FullName          string `label:"Full name" validate:"max=100"`
	Mobile            string `label:"Mobile" validate:"omitempty,max=20"`
	PreferredCurrency string `label:"Preferred currency" validate:"omitempty,iso4217"`
	FinancialGoal     string `label:"Financial goal" validate:"max=500"`
	ProfileImage      string `label:"Profile image" validate:"omitempty,url"`
}

// Apply returns p with the form fields replaced. Username and email are
// not editable.
func (f ProfileForm) Apply(v *Validator, p core.Profile) (core.Profile, error) {
	f.PreferredCurrency = strings.ToUpper(strings.TrimSpace(f.PreferredCurrency))
	if err := v.Check(f); err != nil {
		return core.Profile{}, err
	}
	p.FullName = strings.TrimSpace(f.FullName)
	p.Mobile = strings.TrimSpace(f.Mobile)
	p.PreferredCurrency = f.PreferredCurrency
	p.FinancialGoal = strings.TrimSpace(f.FinancialGoal)
	p.ProfileImage = strings.TrimSpace(f.ProfileImage)
	return p, nil
}

type LoginForm struct {
	Email    string `label:"Email" validate:"required,email"`
	Password string `label:"Password" validate:"required"`
}

func (f LoginForm) Check(v *Validator) error {
	return v.Check(f)
}
