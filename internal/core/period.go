package core

import (
	"fmt"
	"strings"
	"time"
)

// PeriodPreset names a quick date filter relative to the current day.
type PeriodPreset string

const (
	PeriodAll   PeriodPreset = "all"
	PeriodToday PeriodPreset = "today"
	PeriodWeek  PeriodPreset = "week"
	PeriodMonth PeriodPreset = "month"
)

// DateRange is an inclusive range. A zero bound is open.
type DateRange struct {
	From Date
	To   Date
}

// PeriodResolver turns a preset into a concrete range for the day now falls on.
type PeriodResolver interface {
	Resolve(now time.Time) DateRange
}

// AllTime leaves both bounds open.
type AllTime struct{}

func (AllTime) Resolve(time.Time) DateRange { return DateRange{} }

// Today covers the current calendar day only.
type Today struct{}

func (Today) Resolve(now time.Time) DateRange {
	d := DateOf(now)
	return DateRange{From: d, To: d}
}

// LastWeek covers the seven days before today onwards. The upper bound is open.
type LastWeek struct{}

func (LastWeek) Resolve(now time.Time) DateRange {
	d := DateOf(now)
	return DateRange{From: Date{Time: d.AddDate(0, 0, -7)}}
}

// ThisMonth covers the calendar month of now.
type ThisMonth struct{}

func (ThisMonth) Resolve(now time.Time) DateRange {
	first := NewDate(now.Year(), int(now.Month()), 1)
	last := Date{Time: first.AddDate(0, 1, -1)}
	return DateRange{From: first, To: last}
}

var periodResolvers = map[PeriodPreset]PeriodResolver{
	PeriodAll:   AllTime{},
	PeriodToday: Today{},
	PeriodWeek:  LastWeek{},
	PeriodMonth: ThisMonth{},
}

// ParsePeriod accepts a preset name, case-insensitively. Empty means all.
func ParsePeriod(s string) (PeriodPreset, error) {
	p := PeriodPreset(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return PeriodAll, nil
	}
	if _, ok := periodResolvers[p]; !ok {
		return "", fmt.Errorf("unknown period: %s", s)
	}
	return p, nil
}

// GetPeriodResolver returns the resolver registered for p.
func GetPeriodResolver(p PeriodPreset) (PeriodResolver, error) {
	r, ok := periodResolvers[p]
	if !ok {
		return nil, fmt.Errorf("unknown period: %s", p)
	}
	return r, nil
}

// RegisterPeriodResolver adds or replaces the resolver for p.
func RegisterPeriodResolver(p PeriodPreset, r PeriodResolver) {
	periodResolvers[p] = r
}
