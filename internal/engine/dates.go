package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tartampluch/go-birthday-bot/internal/config"
)

var datePattern = regexp.MustCompile(config.DatePattern)

// Date is a calendar date without time of day or timezone.
// The zero value means "not set".
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseBirthday validates a strict YYYY-MM-DD string.
// The components must round-trip through the calendar, so 2010-02-30 or 2023-04-31 are rejected.
func ParseBirthday(value string) (Date, error) {
	if !datePattern.MatchString(value) {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}

	parts := strings.Split(value, "-")
	year, _ := strconv.Atoi(parts[0])
	month, _ := strconv.Atoi(parts[1])
	day, _ := strconv.Atoi(parts[2])

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return Date{Year: year, Month: time.Month(month), Day: day}, nil
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d == Date{}
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.In(time.UTC).Format(config.DateFormatBirthday)
}

// In returns midnight of the date in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseBirthday(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// NextOccurrence returns the next anniversary of birth on or after the calendar day of now.
// A Feb 29 birthday falls on Mar 1 in non-leap years (time.Date normalization).
func NextOccurrence(now time.Time, birth Date) time.Time {
	loc := now.Location()
	currentYear := now.Year()

	candidate := time.Date(currentYear, birth.Month, birth.Day, 0, 0, 0, 0, loc)
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	if candidate.Before(todayStart) {
		candidate = time.Date(currentYear+1, birth.Month, birth.Day, 0, 0, 0, 0, loc)
	}
	return candidate
}

// DaysUntil counts calendar days from now to the next occurrence of birth.
// It returns 0 when the birthday is today.
func DaysUntil(now time.Time, birth Date) int {
	next := NextOccurrence(now, birth)

	// Compare on UTC midnights so DST shifts never produce 23h/25h days.
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}
