package util

import (
    "fmt"
    "strconv"
    "strings"
    "time"
)

// WeekNumber returns the calendar week for a date using the dashboard's
// numbering: week 1 starts on January 1 and weeks run in fixed 7-day
// blocks. The trailing partial week of a year is folded into week 53
// instead of starting a new block.
func WeekNumber(t time.Time) int {
    year := t.Year()
    startOfYear := time.Date(year, time.January, 1, 0, 0, 0, 0, t.Location())
    dayOfYear := int(t.Sub(startOfYear).Hours()/24) + 1

    week := (dayOfYear + 6) / 7

    days := daysInYear(year)
    completeWeeks := days / 7
    if days%7 > 0 && dayOfYear > completeWeeks*7 {
        return 53
    }
    return week
}

// WeeksInYear returns the number of week buckets the year splits into:
// floor(days/7), plus week 53 when the year does not divide evenly.
func WeeksInYear(year int) int {
    days := daysInYear(year)
    weeks := days / 7
    if days%7 > 0 {
        weeks++
    }
    return weeks
}

// LastCompletedWeek returns the (year, week) immediately before the week
// containing now, rolling back into the previous year when now falls in
// week 1.
func LastCompletedWeek(now time.Time) (year, week int) {
    cw := WeekNumber(now)
    cy := now.Year()
    if cw == 1 {
        return cy - 1, WeeksInYear(cy - 1)
    }
    return cy, cw - 1
}

func daysInYear(year int) int {
    if isLeapYear(year) {
        return 366
    }
    return 365
}

func isLeapYear(year int) bool {
    return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

// DayKey formats t as the daily bucket key (YYYY-MM-DD, UTC).
func DayKey(t time.Time) string {
    return t.UTC().Format("2006-01-02")
}

// WeekKey formats t as the weekly bucket key (YYYY-Www).
func WeekKey(t time.Time) string {
    return fmt.Sprintf("%04d-W%02d", t.Year(), WeekNumber(t))
}

// MonthKey formats t as the monthly bucket key (YYYY-MM).
func MonthKey(t time.Time) string {
    return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// ParseBucketKey parses any of the three bucket key formats into a
// representative time. Week keys map to the first day of that 7-day
// block, month keys to the first of the month. Returns false for keys in
// none of the formats.
func ParseBucketKey(key string) (time.Time, bool) {
    if strings.Contains(key, "-W") {
        parts := strings.SplitN(key, "-W", 2)
        year, err1 := strconv.Atoi(parts[0])
        week, err2 := strconv.Atoi(parts[1])
        if err1 != nil || err2 != nil || week < 1 || week > 53 {
            return time.Time{}, false
        }
        start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
        return start.AddDate(0, 0, (week-1)*7), true
    }
    if t, err := time.Parse("2006-01-02", key); err == nil {
        return t, true
    }
    if t, err := time.Parse("2006-01", key); err == nil {
        return t, true
    }
    return time.Time{}, false
}

// KeyYear extracts the year from a bucket key in any supported format.
func KeyYear(key string) (int, bool) {
    if strings.Contains(key, "-W") {
        y, err := strconv.Atoi(strings.SplitN(key, "-W", 2)[0])
        if err != nil {
            return 0, false
        }
        return y, true
    }
    t, ok := ParseBucketKey(key)
    if !ok {
        return 0, false
    }
    return t.Year(), true
}

// ParseTime tries RFC3339, RFC3339Nano, plain dates, and unix seconds.
func ParseTime(s string) (time.Time, bool) {
    if s == "" {
        return time.Time{}, false
    }
    if t, err := time.Parse(time.RFC3339, s); err == nil {
        return t, true
    }
    if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
        return t, true
    }
    if t, err := time.Parse("2006-01-02", s); err == nil {
        return t, true
    }
    if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
        return time.Unix(ts, 0), true
    }
    return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
    if t, ok := ParseTime(s); ok {
        return t
    }
    return def
}

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
    if s == "" {
        return def
    }
    v, err := strconv.Atoi(s)
    if err != nil {
        return def
    }
    return v
}
