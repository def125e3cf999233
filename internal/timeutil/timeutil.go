// Package timeutil holds the pure date/time helpers of the dream journal:
// combining a calendar date with a wall-clock time, validating sleep
// intervals with overnight rollover, and presentation formatting. Nothing
// here touches I/O or shared state, so the same functions back both live
// form validation and the authoritative check at submit time.
package timeutil

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// User-facing validation messages, kept in French like the rest of the app.
const (
	MsgSleepTooLong = "Durée de sommeil trop longue (>24h)"
	MsgSleepShort   = "Durée de sommeil très courte (<1h)"
	MsgSleepLong    = "Durée de sommeil très longue (>12h)"
	MsgInvalidTimes = "Erreur dans les heures saisies"
	MsgInvalidDate  = "Date invalide"
	MsgInvalidClock = "Heure invalide"
)

// ErrMissingInput signals that a date or clock component was absent, so no
// instant can be produced.
var ErrMissingInput = errors.New("missing date or time input")

// SleepValidation is the outcome of ValidateSleepTimes. Warnings never
// block submission; Errors do.
type SleepValidation struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
	// SleepDuration is in hours, rounded to 2 decimals. Nil when no
	// computation was performed.
	SleepDuration *float64 `json:"sleepDuration"`
}

// ParseClock parses an "HH:MM" wall-clock string.
func ParseClock(clock string) (hour, minute int, err error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid clock time %q", clock)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid clock time %q", clock)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid clock time %q", clock)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("clock time %q out of range", clock)
	}
	return hour, minute, nil
}

// ParseDate parses a calendar date, accepting both plain "YYYY-MM-DD" and
// RFC 3339 timestamps (only the date part is kept).
func ParseDate(date string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", date); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", date)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// CombineDateTime sets the given "HH:MM" clock on the given calendar date
// and returns the resulting UTC instant. Missing inputs yield
// ErrMissingInput; malformed inputs yield a parse error.
func CombineDateTime(date, clock string) (time.Time, error) {
	if date == "" || clock == "" {
		return time.Time{}, ErrMissingInput
	}
	day, err := ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	hour, minute, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC), nil
}

// ValidateSleepTimes combines both clock times onto the dream's date,
// rolls the wake instant one day forward when it precedes the sleep
// instant (sleeping past midnight), and classifies the duration. An absent
// component makes the pair trivially valid.
func ValidateSleepTimes(sleepTime, wokeUpTime, dreamDate string) SleepValidation {
	if sleepTime == "" || wokeUpTime == "" || dreamDate == "" {
		return SleepValidation{IsValid: true, Errors: []string{}, Warnings: []string{}}
	}

	sleep, err := CombineDateTime(dreamDate, sleepTime)
	if err != nil {
		return SleepValidation{IsValid: false, Errors: []string{MsgInvalidTimes}, Warnings: []string{}}
	}
	wake, err := CombineDateTime(dreamDate, wokeUpTime)
	if err != nil {
		return SleepValidation{IsValid: false, Errors: []string{MsgInvalidTimes}, Warnings: []string{}}
	}

	if wake.Before(sleep) {
		wake = wake.AddDate(0, 0, 1)
	}

	duration := Round2(wake.Sub(sleep).Hours())

	errs := []string{}
	warnings := []string{}
	if duration > 24 {
		errs = append(errs, MsgSleepTooLong)
	}
	if duration < 1 {
		warnings = append(warnings, MsgSleepShort)
	}
	if duration > 12 {
		warnings = append(warnings, MsgSleepLong)
	}

	return SleepValidation{
		IsValid:       len(errs) == 0,
		Errors:        errs,
		Warnings:      warnings,
		SleepDuration: &duration,
	}
}

// CalculateSleepDuration is the date-agnostic variant: the interval between
// two wall-clock times with overnight rollover, in hours rounded to 2
// decimals.
func CalculateSleepDuration(sleepTime, wokeUpTime string) (float64, error) {
	sh, sm, err := ParseClock(sleepTime)
	if err != nil {
		return 0, err
	}
	wh, wm, err := ParseClock(wokeUpTime)
	if err != nil {
		return 0, err
	}

	minutes := (wh*60 + wm) - (sh*60 + sm)
	if minutes < 0 {
		minutes += 24 * 60
	}
	return Round2(float64(minutes) / 60), nil
}

// Round2 rounds to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatDate renders a full date+time for display, French order.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return MsgInvalidDate
	}
	return t.Format("02/01/2006 15:04")
}

// FormatDateOnly renders the calendar date for display.
func FormatDateOnly(t time.Time) string {
	if t.IsZero() {
		return MsgInvalidDate
	}
	return t.Format("02/01/2006")
}

// FormatTimeOnly renders the wall-clock part for display.
func FormatTimeOnly(t time.Time) string {
	if t.IsZero() {
		return MsgInvalidClock
	}
	return t.Format("15:04")
}

// FormatTimeForInput renders the UTC clock value as "HH:MM" for form echo.
func FormatTimeForInput(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("15:04")
}

// IsToday reports whether t falls on today's calendar date.
func IsToday(t time.Time) bool {
	now := time.Now()
	y1, m1, d1 := t.Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// DaysSince returns full days elapsed between t and now. Future dates
// report 0.
func DaysSince(t time.Time) int {
	diff := time.Since(t)
	if diff < 0 {
		return 0
	}
	return int(diff.Hours() / 24)
}
