package calendar

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseClock converts HH:MM (optionally HH:MM:SS) into minutes after midnight.
// The hour takes one or two digits, minutes and seconds exactly two; trailing
// input is rejected. 24:00 is accepted as end of day.
func ParseClock(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("time is empty")
	}
	parts := strings.Split(raw, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("time %q must be formatted as HH:MM", raw)
	}
	fields := make([]int, 3)
	for i, part := range parts {
		width := 2
		if i == 0 && len(part) == 1 {
			width = 1
		}
		n, ok := digits(part, width)
		if !ok {
			return 0, fmt.Errorf("time %q must be formatted as HH:MM", raw)
		}
		fields[i] = n
	}
	h, m, s := fields[0], fields[1], fields[2]
	if h > 24 || m > 59 || s > 59 || (h == 24 && (m > 0 || s > 0)) {
		return 0, fmt.Errorf("time %q out of range", raw)
	}
	return h*60 + m, nil
}

func digits(part string, width int) (int, bool) {
	if len(part) != width {
		return 0, false
	}
	for _, r := range part {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(part)
	return n, err == nil
}

// FormatClock renders minutes after midnight as HH:MM.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
