package core

import (
	"sort"
	"strings"
	"time"
)

// Series lengths used by the dashboard and the analytics view.
const (
	DashboardPoints = 3
	AnalyticsPoints = 6
)

// Summarize totals income and expense. An empty list yields a zero Summary.
func Summarize(txs []Transaction) Summary {
	var s Summary
	for _, t := range txs {
		switch t.Type {
		case Income:
			s.TotalIncome = s.TotalIncome.Add(t.Amount)
		case Expense:
			s.TotalExpense = s.TotalExpense.Add(t.Amount)
		default:
			continue
		}
		s.Count++
	}
	s.Net = s.TotalIncome.Sub(s.TotalExpense)
	if s.TotalIncome.Cents > 0 {
		s.SavingsRate = percent(s.Net.Cents, s.TotalIncome.Cents)
	}
	return s
}

// categoryKey is the case-insensitive identity of a category, shared by
// the breakdown, budgets and the category filter.
func categoryKey(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}

// ByCategory sums expenses per category, ignoring case. Each entry is named
// after the first spelling seen. Categories whose sum is not positive are
// left out. Sorted by amount, largest first.
func ByCategory(txs []Transaction) []CategoryAmount {
	sums := map[string]int64{}
	names := map[string]string{}
	var total int64
	for _, t := range txs {
		if t.Type != Expense {
			continue
		}
		k := categoryKey(t.Category)
		if _, ok := names[k]; !ok {
			names[k] = strings.TrimSpace(t.Category)
		}
		sums[k] += t.Amount.Cents
		total += t.Amount.Cents
	}
	out := make([]CategoryAmount, 0, len(sums))
	for k, cents := range sums {
		if cents <= 0 {
			continue
		}
		out = append(out, CategoryAmount{
			Name:             names[k],
			Amount:           Money{Cents: cents},
			PercentOfExpense: percent(cents, total),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// TopCategory returns the highest spending category, or "None".
func TopCategory(txs []Transaction) string {
	cats := ByCategory(txs)
	if len(cats) == 0 {
		return "None"
	}
	return cats[0].Name
}

// AllCategories returns the sorted set of categories used by any
// transaction, ignoring case and keeping the first spelling seen.
func AllCategories(txs []Transaction) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, t := range txs {
		c := strings.TrimSpace(t.Category)
		if c == "" {
			continue
		}
		if _, ok := seen[categoryKey(c)]; ok {
			continue
		}
		seen[categoryKey(c)] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// InMonth keeps the transactions dated in the given year and month.
func InMonth(txs []Transaction, year, month int) []Transaction {
	var out []Transaction
	for _, t := range txs {
		if t.Date.InMonth(year, month) {
			out = append(out, t)
		}
	}
	return out
}

// MonthlySeries returns points months of income/expense sums ending at
// year/month, oldest first. points is clamped to 1..12.
func MonthlySeries(txs []Transaction, year, month, points int) []MonthPoint {
	if points < 1 {
		points = 1
	}
	if points > 12 {
		points = 12
	}
	series := make([]MonthPoint, points)
	index := map[[2]int]int{}
	for i := 0; i < points; i++ {
		// time.Date normalises negative months into the previous years.
		d := time.Date(year, time.Month(month-(points-1-i)), 1, 0, 0, 0, 0, time.UTC)
		series[i] = MonthPoint{
			Year:  d.Year(),
			Month: int(d.Month()),
			Label: d.Format("Jan 2006"),
		}
		index[[2]int{d.Year(), int(d.Month())}] = i
	}
	for _, t := range txs {
		if t.Date.IsZero() {
			continue
		}
		i, ok := index[[2]int{t.Date.Year(), t.Date.Month()}]
		if !ok {
			continue
		}
		switch t.Type {
		case Income:
			series[i].Income = series[i].Income.Add(t.Amount)
		case Expense:
			series[i].Expense = series[i].Expense.Add(t.Amount)
		}
	}
	return series
}

// Overview builds the month view: summary and category breakdown of the
// selected month plus a series of points months ending at it.
func Overview(txs []Transaction, year, month, points int) MonthOverview {
	monthly := InMonth(txs, year, month)
	return MonthOverview{
		Year:       year,
		Month:      month,
		Summary:    Summarize(monthly),
		ByCategory: ByCategory(monthly),
		Series:     MonthlySeries(txs, year, month, points),
	}
}

// ApplySpent recomputes SpentAmount of every budget from the expenses of
// the same category, month and year. Stored spent values are ignored.
func ApplySpent(budgets []Budget, txs []Transaction) []BudgetStatus {
	type key struct {
		cat         string
		year, month int
	}
	spent := map[key]int64{}
	for _, t := range txs {
		if t.Type != Expense || t.Date.IsZero() {
			continue
		}
		spent[key{categoryKey(t.Category), t.Date.Year(), t.Date.Month()}] += t.Amount.Cents
	}
	out := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		b.SpentAmount = Money{Cents: spent[key{categoryKey(b.Category), b.Year, b.Month}]}
		st := BudgetStatus{
			Budget:     b,
			Remaining:  b.BudgetAmount.Sub(b.SpentAmount),
			OverBudget: b.SpentAmount.Cents > b.BudgetAmount.Cents,
			Level:      GradeBudget(b.SpentAmount, b.BudgetAmount),
		}
		if b.BudgetAmount.Cents > 0 {
			st.Percent = percent(b.SpentAmount.Cents, b.BudgetAmount.Cents)
		}
		out = append(out, st)
	}
	return out
}

// SortByDateDesc orders transactions newest first, keeping input order for ties.
func SortByDateDesc(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.After(txs[j].Date.Time)
	})
}
