package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date")

// ParseStartDate parses a YYYY-MM-DD date. An empty string means today.
func ParseStartDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return truncateDay(now), nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrInvalidDate, s, err)
	}
	return t, nil
}

type Season struct {
	Start time.Time
	End   time.Time
}

func SeasonFor(year int, p Params) Season {
	start := time.Date(year, time.Month(p.SeasonStartMonth), 1, 0, 0, 0, 0, time.UTC)
	// day 0 of the following month is the last day of the end month
	end := time.Date(year, time.Month(p.SeasonEndMonth)+1, 0, 0, 0, 0, 0, time.UTC)
	return Season{Start: start, End: end}
}

func (s Season) Contains(t time.Time) bool {
	return !t.Before(s.Start) && !t.After(s.End)
}

// NormalizeStartDate moves start into the active growing season and returns the
// effective subscription year. A start past the season end rolls over to the next
// season.
func NormalizeStartDate(start time.Time, subscriptionYear int, p Params) (time.Time, int) {
	start = truncateDay(start)
	year := subscriptionYear
	if start.Year() > year {
		year = start.Year()
	}
	season := SeasonFor(year, p)
	if start.Before(season.Start) {
		return season.Start, year
	}
	if start.After(season.End) {
		year++
		return SeasonFor(year, p).Start, year
	}
	return start, year
}

// VectorizeDates returns the treatment dates from the normalized start to season end,
// stepping cadenceDays at a time. The result is never empty.
func VectorizeDates(start time.Time, subscriptionYear, cadenceDays int, p Params) ([]time.Time, int) {
	if cadenceDays < 1 {
		cadenceDays = 1
	}
	first, year := NormalizeStartDate(start, subscriptionYear, p)
	end := SeasonFor(year, p).End
	var dates []time.Time
	for d := first; !d.After(end); d = d.AddDate(0, 0, cadenceDays) {
		dates = append(dates, d)
	}
	return dates, year
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
