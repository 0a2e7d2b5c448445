package services

import (
	"fmt"
	"time"

	"github.com/aerozone/backend/internal/models"
)

// ValidateRecurrence checks a recurrence configuration. Monthly recurrences
// must carry a day of month; silently defaulting one would shift runs
// unpredictably across month lengths.
func ValidateRecurrence(rec models.Recurrence) error {
	switch rec.Frequency {
	case models.FrequencyDaily, models.FrequencyCustom:
	case models.FrequencyWeekly:
		if rec.Weekday == nil || *rec.Weekday < 0 || *rec.Weekday > 6 {
			return fmt.Errorf("weekly recurrence requires a weekday between 0 (Sunday) and 6 (Saturday)")
		}
	case models.FrequencyMonthly:
		if rec.DayOfMonth == nil || *rec.DayOfMonth < 1 || *rec.DayOfMonth > 31 {
			return fmt.Errorf("monthly recurrence requires a day_of_month between 1 and 31")
		}
	default:
		return fmt.Errorf("unknown recurrence frequency %q", rec.Frequency)
	}

	if rec.Hour < 0 || rec.Hour > 23 {
		return fmt.Errorf("recurrence hour %d out of range", rec.Hour)
	}
	if rec.Minute < 0 || rec.Minute > 59 {
		return fmt.Errorf("recurrence minute %d out of range", rec.Minute)
	}
	if _, err := recurrenceLocation(rec); err != nil {
		return fmt.Errorf("invalid recurrence timezone %q", rec.Timezone)
	}
	return nil
}

// ComputeNextRun returns the earliest run timestamp satisfying rec strictly
// after from. It is pure: the only clock it sees is the from argument.
//
// The candidate is from's calendar date at the configured time of day. A
// candidate still in the future is returned as-is, so a schedule created in
// the morning for an evening run fires the same day. Otherwise the candidate
// advances by frequency: daily +1 day; weekly to the next occurrence of the
// target weekday (a full 7 days when the time already passed on that
// weekday); monthly one month forward pinned to the configured day.
//
// The custom frequency has no cron evaluator and degrades to daily. Callers
// must not assume arbitrary expressions are honored.
func ComputeNextRun(rec models.Recurrence, from time.Time) (time.Time, error) {
	if err := ValidateRecurrence(rec); err != nil {
		return time.Time{}, err
	}

	loc, _ := recurrenceLocation(rec)
	local := from.In(loc)
	candidate := time.Date(local.Year(), local.Month(), local.Day(), rec.Hour, rec.Minute, 0, 0, loc)

	if candidate.After(from) {
		return candidate, nil
	}

	switch rec.Frequency {
	case models.FrequencyWeekly:
		days := (*rec.Weekday - int(candidate.Weekday()) + 7) % 7
		if days == 0 {
			days = 7
		}
		return candidate.AddDate(0, 0, days), nil
	case models.FrequencyMonthly:
		return time.Date(candidate.Year(), candidate.Month()+1, *rec.DayOfMonth,
			rec.Hour, rec.Minute, 0, 0, loc), nil
	default: // daily, custom
		return candidate.AddDate(0, 0, 1), nil
	}
}

func recurrenceLocation(rec models.Recurrence) (*time.Location, error) {
	if rec.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(rec.Timezone)
}
