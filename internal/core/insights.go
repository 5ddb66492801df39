package core

import (
	"fmt"
	"math"
)

// Tone grades an Insight.
type Tone string

const (
	ToneGood  Tone = "good"
	ToneTip   Tone = "tip"
	ToneAlert Tone = "alert"
)

// Insight is one rule-based remark about the user's finances.
type Insight struct {
	Tone Tone
	Text string
}

// MaxInsights caps the list returned by Insights.
const MaxInsights = 4

// highIncome is the all-time income above which a savings rate under 15%
// earns a reminder.
var highIncome = Money{Cents: 50_000_00}

// Insights derives remarks from the all-time summary, the summary of the
// current month and the all-time category breakdown, in this order:
// savings rate tier, current month spending, top category, income level.
func Insights(overall, month Summary, categories []CategoryAmount) []Insight {
	var out []Insight
	inc, net := overall.TotalIncome.Cents, overall.Net.Cents
	// rateAbove compares net/income against pct without rounding.
	rateAbove := func(pct int64) bool { return inc > 0 && net*100 > inc*pct }

	switch {
	case rateAbove(30):
		out = append(out, Insight{ToneGood, "Outstanding! Your savings rate exceeds 30%. Consider diversifying investments for wealth growth."})
	case rateAbove(20):
		out = append(out, Insight{ToneGood, "Excellent savings rate! You're on track for financial stability."})
	case rateAbove(10):
		out = append(out, Insight{ToneTip, "Good progress! Try increasing savings to 20% for better security."})
	case rateAbove(0):
		out = append(out, Insight{ToneTip, "Start small: aim to save at least 10-15% of your income monthly."})
	default:
		out = append(out, Insight{ToneAlert, "Action needed: expenses exceed income. Review your spending patterns urgently."})
	}

	mInc, mExp := month.TotalIncome.Cents, month.TotalExpense.Cents
	switch {
	case mExp > mInc:
		out = append(out, Insight{ToneAlert, "Alert: current month expenses exceed income. Consider cutting non-essential spending."})
	case mExp > 0 && mExp*10 < mInc*7:
		out = append(out, Insight{ToneGood, "Great job! Your spending is well under control this month."})
	}

	if len(categories) > 0 {
		top := categories[0]
		share := 0.0
		if overall.TotalExpense.Cents > 0 {
			share = math.Round(float64(top.Amount.Cents) * 100 / float64(overall.TotalExpense.Cents))
		}
		if share > 40 {
			out = append(out, Insight{ToneTip, fmt.Sprintf("%s accounts for %.0f%% of expenses. Consider setting a monthly budget for this category.", top.Name, share)})
		} else {
			out = append(out, Insight{ToneTip, fmt.Sprintf("Your top spending category is %s. Monitor it to maintain balanced finances.", top.Name)})
		}
	}

	if inc > highIncome.Cents && net*100 < inc*15 {
		out = append(out, Insight{ToneTip, "With your income level, aim to save at least 15-20% for future goals."})
	}

	if len(out) > MaxInsights {
		out = out[:MaxInsights]
	}
	return out
}
