package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultHorizonDays is how far out a task lands when its source text has no
// temporal phrase at all.
const DefaultHorizonDays = 3

// Resolution holds what a text fragment says about timing. Nil fields mean
// the text said nothing.
type Resolution struct {
	Date      *time.Time
	ClockTime *string
}

var (
	inDaysRx    = regexp.MustCompile(`(?i)\bin (\d+) days?\b`)
	fromNowRx   = regexp.MustCompile(`(?i)\b(\d+) days? from now\b`)
	byWeekdayRx = regexp.MustCompile(`(?i)\b(?:by |on |next )?(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	clock12Rx   = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
	clock24Rx   = regexp.MustCompile(`\b([01]?[0-9]|2[0-3]):([0-5][0-9])\b`)
)

// ResolvePhrases scans text for relative date phrases and explicit clock
// times, evaluated against the supplied now. It is deliberately a pure
// function: same text and now, same answer.
func ResolvePhrases(text string, now time.Time) Resolution {
	var res Resolution
	lower := strings.ToLower(text)
	today := truncateToDay(now)

	switch {
	case strings.Contains(lower, "tomorrow"):
		res.Date = datePtr(today.AddDate(0, 0, 1))
	case strings.Contains(lower, "today"), strings.Contains(lower, "tonight"),
		strings.Contains(lower, "this evening"), strings.Contains(lower, "this morning"),
		strings.Contains(lower, "this afternoon"):
		res.Date = datePtr(today)
	case inDaysRx.MatchString(lower):
		n, _ := strconv.Atoi(inDaysRx.FindStringSubmatch(lower)[1])
		res.Date = datePtr(today.AddDate(0, 0, n))
	case fromNowRx.MatchString(lower):
		n, _ := strconv.Atoi(fromNowRx.FindStringSubmatch(lower)[1])
		res.Date = datePtr(today.AddDate(0, 0, n))
	case strings.Contains(lower, "end of the month"), strings.Contains(lower, "end of month"):
		firstOfNext := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 1, 0)
		res.Date = datePtr(firstOfNext.AddDate(0, 0, -1))
	case strings.Contains(lower, "this weekend"):
		res.Date = datePtr(nextWeekday(today, time.Sunday))
	case strings.Contains(lower, "asap"), strings.Contains(lower, "urgent"):
		res.Date = datePtr(today.AddDate(0, 0, 1))
	case byWeekdayRx.MatchString(lower):
		m := byWeekdayRx.FindStringSubmatch(lower)
		res.Date = datePtr(nextWeekday(today, weekdayByName[m[1]]))
	}

	res.ClockTime = resolveClockTime(lower)
	// An explicit time with no date phrase means today.
	if res.Date == nil && res.ClockTime != nil {
		res.Date = datePtr(today)
	}
	return res
}

// resolveClockTime extracts an explicit wall-clock time as 24h "HH:MM".
// Vaguer phrases get conventional times; pure dates yield nil.
func resolveClockTime(lower string) *string {
	if m := clock12Rx.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if hour >= 1 && hour <= 12 && minute < 60 {
			if strings.EqualFold(m[3], "pm") && hour != 12 {
				hour += 12
			}
			if strings.EqualFold(m[3], "am") && hour == 12 {
				hour = 0
			}
			return clockPtr(hour, minute)
		}
	}
	if m := clock24Rx.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		return clockPtr(hour, minute)
	}
	switch {
	case strings.Contains(lower, "noon"):
		return clockPtr(12, 0)
	case strings.Contains(lower, "midnight"):
		return clockPtr(0, 0)
	case strings.Contains(lower, "this evening"), strings.Contains(lower, "tonight"):
		return clockPtr(19, 0)
	}
	return nil
}

var weekdayByName = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// nextWeekday returns the next occurrence of w strictly after from.
func nextWeekday(from time.Time, w time.Weekday) time.Time {
	days := (int(w) - int(from.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return from.AddDate(0, 0, days)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func datePtr(t time.Time) *time.Time { return &t }

func clockPtr(hour, minute int) *string {
	s := fmt.Sprintf("%02d:%02d", hour, minute)
	return &s
}
