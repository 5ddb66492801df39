package core

import "strings"

// Predicate reports whether a transaction passes one filter stage.
type Predicate func(Transaction) bool

// Filter describes the transaction list filters. Zero-valued fields are
// inactive, so the zero Filter keeps everything.
type Filter struct {
	Type      TxType // "" for all
	Category  string // "" or "all" for all
	Search    string // case-insensitive substring of the description
	Month     int    // 1-12, 0 for any
	Year      int    // 0 for any
	From      Date   // inclusive
	To        Date   // inclusive
	MinAmount Money  // inclusive
	MaxAmount Money  // inclusive
}

// Predicates returns the active stages in pipeline order: type, category,
// search, month/year, date range, amount range.
func (f Filter) Predicates() []Predicate {
	var preds []Predicate
	if f.Type != "" {
		typ := f.Type
		preds = append(preds, func(t Transaction) bool { return t.Type == typ })
	}
	if c := strings.TrimSpace(f.Category); c != "" && !strings.EqualFold(c, "all") {
		k := categoryKey(c)
		preds = append(preds, func(t Transaction) bool { return categoryKey(t.Category) == k })
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		preds = append(preds, func(t Transaction) bool {
			return strings.Contains(strings.ToLower(t.Description), q)
		})
	}
	if f.Month != 0 {
		m := f.Month
		preds = append(preds, func(t Transaction) bool { return !t.Date.IsZero() && t.Date.Month() == m })
	}
	if f.Year != 0 {
		y := f.Year
		preds = append(preds, func(t Transaction) bool { return !t.Date.IsZero() && t.Date.Year() == y })
	}
	if !f.From.IsZero() {
		from := f.From
		preds = append(preds, func(t Transaction) bool { return !t.Date.Before(from.Time) })
	}
	if !f.To.IsZero() {
		to := f.To
		preds = append(preds, func(t Transaction) bool { return !t.Date.IsZero() && !t.Date.After(to.Time) })
	}
	if f.MinAmount.Cents > 0 {
		lo := f.MinAmount.Cents
		preds = append(preds, func(t Transaction) bool { return t.Amount.Cents >= lo })
	}
	if f.MaxAmount.Cents > 0 {
		hi := f.MaxAmount.Cents
		preds = append(preds, func(t Transaction) bool { return t.Amount.Cents <= hi })
	}
	return preds
}

// All combines predicates with logical AND. No predicates accepts everything.
func All(preds ...Predicate) Predicate {
	return func(t Transaction) bool {
		for _, p := range preds {
			if !p(t) {
				return false
			}
		}
		return true
	}
}

// Apply returns the transactions matching every active stage, in input order.
func (f Filter) Apply(txs []Transaction) []Transaction {
	return Select(txs, f.Predicates()...)
}

// Select keeps the transactions accepted by all preds, in input order.
func Select(txs []Transaction, preds ...Predicate) []Transaction {
	keep := All(preds...)
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

// WithPeriod narrows the date range to the one covered by r. An empty
// range leaves the filter untouched.
func (f Filter) WithPeriod(r DateRange) Filter {
	if !r.From.IsZero() {
		f.From = r.From
	}
	if !r.To.IsZero() {
		f.To = r.To
	}
	return f
}
