package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name             string
	Amount           Money
	PercentOfExpense float64
}

// Summary holds the headline figures of a set of transactions.
type Summary struct {
	TotalIncome  Money
	TotalExpense Money
	Net          Money
	SavingsRate  float64 // percent, one decimal; 0 when there is no income
	Count        int
}

// MonthPoint is one point of an income/expense time series.
type MonthPoint struct {
	Year    int
	Month   int // 1-12
	Label   string
	Income  Money
	Expense Money
}

// MonthOverview is a compact summary for a specific year+month.
type MonthOverview struct {
	Year       int
	Month      int // 1-12
	Summary    Summary
	ByCategory []CategoryAmount
	Series     []MonthPoint
}

// BudgetLevel grades how much of a budget is used.
type BudgetLevel string

const (
	BudgetOK      BudgetLevel = "ok"
	BudgetWarning BudgetLevel = "warning" // above 70%
	BudgetDanger  BudgetLevel = "danger"  // above 90%
)

// GradeBudget compares spent with budget without rounding. Any spending
// against a zero budget is danger.
func GradeBudget(spent, budget Money) BudgetLevel {
	switch {
	case spent.Cents*10 > budget.Cents*9:
		if spent.Cents == 0 {
			return BudgetOK
		}
		return BudgetDanger
	case spent.Cents*10 > budget.Cents*7:
		return BudgetWarning
	}
	return BudgetOK
}

// BudgetStatus is a budget together with its derived usage.
type BudgetStatus struct {
	Budget
	Remaining  Money
	Percent    float64
	OverBudget bool
	Level      BudgetLevel
}
