package content

import (
	"fmt"
	"strings"
	"time"
)

// wordsPerMinute is the assumed average reading speed.
const wordsPerMinute = 200

// ReadingTime estimates whole minutes to read plain text, never less than 1.
// The input must already have rich-text markup stripped.
func ReadingTime(plainText string) int {
	words := len(strings.Fields(plainText))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

// DurationMonths counts whole months between start and end. A nil end means
// the position is ongoing and resolves to now. The absolute value guards
// against reversed data entry.
func DurationMonths(start time.Time, end *time.Time, now time.Time) int {
	until := now
	if end != nil {
		until = *end
	}
	months := (until.Year()-start.Year())*12 + int(until.Month()) - int(start.Month())
	if months < 0 {
		return -months
	}
	return months
}

// FormatDuration renders months as "N years, M months", omitting zero
// components and pluralizing only above one. Zero months renders empty.
func FormatDuration(months int) string {
	years := months / 12
	remaining := months % 12

	var parts []string
	if years > 0 {
		parts = append(parts, pluralize(years, "year"))
	}
	if remaining > 0 {
		parts = append(parts, pluralize(remaining, "month"))
	}
	return strings.Join(parts, ", ")
}

func pluralize(n int, unit string) string {
	if n > 1 {
		return fmt.Sprintf("%d %ss", n, unit)
	}
	return fmt.Sprintf("%d %s", n, unit)
}
