// Package billing buckets time entries into calendar billing periods and
// reconciles the persisted workflow status for each closed period.
package billing

import (
	"time"

	"github.com/atelierhq/atelier/internal/types"
)

// OverageMultiplier is the premium applied to hours past the allocation.
// Fixed business rule: overage bills at 15% over the base hourly rate.
const OverageMultiplier = 1.15

// OverageRate returns the hourly rate applied to overage hours.
func OverageRate(base float64) float64 {
	return base * OverageMultiplier
}

// Period is one calendar-aligned billing bucket. End is exclusive.
type Period struct {
	Key   string    `json:"key"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Schedule derives period boundaries from a company's payment cadence.
// The anchor fixes where period boundaries fall: the weekday for weekly,
// the reference start date for biweekly, the day of month for monthly.
type Schedule struct {
	Kind   types.ScheduleKind
	Anchor time.Time
}

// ScheduleFor builds the schedule from a company's retainer configuration.
func ScheduleFor(c types.Company) Schedule {
	return Schedule{Kind: c.PaymentSchedule, Anchor: c.PeriodAnchor}
}

// PeriodAt returns the period containing t.
func (s Schedule) PeriodAt(t time.Time) Period {
	start := s.periodStart(t.UTC())
	end := s.next(start)
	return Period{Key: periodKey(start), Start: start, End: end}
}

// Closed reports whether p ended at or before now.
func (p Period) Closed(now time.Time) bool {
	return !p.End.After(now.UTC())
}

// periodKey is the canonical identifier of a period: its start date.
func periodKey(start time.Time) string {
	return start.Format("2006-01-02")
}

func (s Schedule) periodStart(t time.Time) time.Time {
	switch s.Kind {
	case types.ScheduleWeekly:
		return alignDays(s.Anchor, t, 7)
	case types.ScheduleBiweekly:
		return alignDays(s.Anchor, t, 14)
	default: // monthly
		day := s.Anchor.Day()
		start := monthStart(t.Year(), t.Month(), day)
		if t.Before(start) {
			start = monthStart(t.Year(), t.Month()-1, day)
		}
		return start
	}
}

func (s Schedule) next(start time.Time) time.Time {
	switch s.Kind {
	case types.ScheduleWeekly:
		return start.AddDate(0, 0, 7)
	case types.ScheduleBiweekly:
		return start.AddDate(0, 0, 14)
	default:
		return monthStart(start.Year(), start.Month()+1, s.Anchor.Day())
	}
}

// alignDays returns the latest anchor-aligned span boundary at or before t.
func alignDays(anchor, t time.Time, span int) time.Time {
	a := dayStart(anchor)
	days := int(dayStart(t).Sub(a).Hours() / 24)
	offset := days % span
	if offset < 0 {
		offset += span
	}
	return dayStart(t).AddDate(0, 0, -offset)
}

func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// monthStart returns the period start day in the given month, clamping the
// anchor day to the month's length (a 31st anchor falls on Feb 28/29).
func monthStart(year int, month time.Month, day int) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}
