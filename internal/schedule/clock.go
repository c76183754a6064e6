package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const minutesPerDay = 24 * 60

var (
	hoursRe   = regexp.MustCompile(`(?i)(\d+)\s*hours?`)
	minutesRe = regexp.MustCompile(`(?i)(\d+)\s*minutes?`)
	clock12Re = regexp.MustCompile(`(?i)^\s*(\d{1,2}):(\d{2})\s*(AM|PM)\s*$`)
)

// parseClock converts "HH:MM" (24h) into minutes since midnight.
func parseClock(hhmm string) (int, error) {
	parts := strings.Split(strings.TrimSpace(hhmm), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q", hhmm)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", hhmm)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", hhmm)
	}
	return h*60 + m, nil
}

// ValidClock reports whether s is a well formed "HH:MM" 24-hour time.
func ValidClock(s string) bool {
	_, err := parseClock(s)
	return err == nil
}

// diffMinutes returns end-start in minutes, or 0 when either side does not parse.
// Slots never wrap past midnight, so an end before the start is a negative diff.
func diffMinutes(start, end string) int {
	s, err := parseClock(start)
	if err != nil {
		return 0
	}
	e, err := parseClock(end)
	if err != nil {
		return 0
	}
	return e - s
}

// DurationDisplay renders the slot length as "Xh Ym". Non-positive lengths render empty.
func DurationDisplay(start, end string) string {
	diff := diffMinutes(start, end)
	if diff <= 0 {
		return ""
	}
	return fmt.Sprintf("%dh %dm", diff/60, diff%60)
}

// DurationVerbose renders the slot length the way the backend stores it,
// e.g. "1 hour 20 minutes" or "2 hours". Zero parts are omitted.
func DurationVerbose(start, end string) string {
	diff := diffMinutes(start, end)
	if diff <= 0 {
		return ""
	}
	h, m := diff/60, diff%60
	var parts []string
	if h > 0 {
		parts = append(parts, plural(h, "hour"))
	}
	if m > 0 {
		parts = append(parts, plural(m, "minute"))
	}
	return strings.Join(parts, " ")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// ParseVerboseDuration extracts the hour and minute counts from a verbose
// duration independently. Missing parts count as zero.
func ParseVerboseDuration(text string) int {
	total := 0
	if m := hoursRe.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		total += n * 60
	}
	if m := minutesRe.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		total += n
	}
	return total
}

// AddMinutes returns start shifted by minutes on a 24-hour clock.
func AddMinutes(start string, minutes int) (string, error) {
	s, err := parseClock(start)
	if err != nil {
		return "", err
	}
	t := ((s+minutes)%minutesPerDay + minutesPerDay) % minutesPerDay
	return fmt.Sprintf("%02d:%02d", t/60, t%60), nil
}

// EndTime returns the end of a slot that starts at start and lasts minutes.
// Unlike AddMinutes it never wraps: the slot must end by 23:59.
func EndTime(start string, minutes int) (string, error) {
	if !fitsInDay(start, minutes) {
		return "", fmt.Errorf("%w: %s plus %d minutes does not end the same day", ErrInvalidValue, start, minutes)
	}
	return AddMinutes(start, minutes)
}

// To12Hour converts "HH:MM" into "h:mm AM|PM". 00 is 12 AM and 12 is 12 PM.
func To12Hour(hhmm string) (string, error) {
	t, err := parseClock(hhmm)
	if err != nil {
		return "", err
	}
	h, m := t/60, t%60
	meridiem := "AM"
	if h >= 12 {
		meridiem = "PM"
	}
	h12 := h % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%d:%02d %s", h12, m, meridiem), nil
}

// To24Hour converts a 12-hour reading into "HH:MM".
func To24Hour(h12, minute int, meridiem string) (string, error) {
	if h12 < 1 || h12 > 12 || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid 12-hour time %d:%02d", h12, minute)
	}
	h := h12 % 12
	switch strings.ToUpper(strings.TrimSpace(meridiem)) {
	case "AM":
	case "PM":
		h += 12
	default:
		return "", fmt.Errorf("invalid meridiem %q", meridiem)
	}
	return fmt.Sprintf("%02d:%02d", h, minute), nil
}

// Parse12Hour reads "h:mm AM|PM" and returns the equivalent "HH:MM".
func Parse12Hour(text string) (string, error) {
	m := clock12Re.FindStringSubmatch(text)
	if m == nil {
		return "", fmt.Errorf("invalid 12-hour time %q", text)
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	return To24Hour(h, mm, m[3])
}
