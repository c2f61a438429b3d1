package core

import (
	"fmt"
	"strings"
	"time"
)

// TrendMode selects how a monthly trend walks back from its anchor date.
type TrendMode string

const (
	// TrendCalendar steps one calendar month at a time.
	TrendCalendar TrendMode = "calendar"
	// TrendThirtyDay steps back 30 days at a time and takes the month the
	// resulting day falls in. Months can repeat or be skipped; kept for
	// compatibility with reports produced by earlier versions.
	TrendThirtyDay TrendMode = "thirty_day"
)

const TrendLabelLayout = "Jan 2006"

func ParseTrendMode(s string) (TrendMode, error) {
	switch m := TrendMode(strings.ToLower(strings.TrimSpace(s))); m {
	case TrendCalendar, TrendThirtyDay:
		return m, nil
	case "":
		return TrendCalendar, nil
	default:
		return "", fmt.Errorf("invalid trend mode %q: must be %q or %q", s, TrendCalendar, TrendThirtyDay)
	}
}

// TrendMonth returns the date that selects the month of step i, where step 0
// is the anchor month and larger steps go further back.
func TrendMonth(anchor time.Time, i int, mode TrendMode) time.Time {
	if mode == TrendThirtyDay {
		return anchor.AddDate(0, 0, -30*i)
	}
	first := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, anchor.Location())
	return first.AddDate(0, -i, 0)
}

// TrendMonths lists the month selectors of a count long trend, oldest first.
func TrendMonths(anchor time.Time, count int, mode TrendMode) []time.Time {
	if count <= 0 {
		return nil
	}
	out := make([]time.Time, 0, count)
	for i := count - 1; i >= 0; i-- {
		out = append(out, TrendMonth(anchor, i, mode))
	}
	return out
}
