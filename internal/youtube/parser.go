package youtube

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var durationPattern = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// ParseDuration converts an ISO-8601 duration such as PT1H2M30S into seconds.
// Input that does not match the grammar yields 0.
func ParseDuration(duration string) int {
	m := durationPattern.FindStringSubmatch(duration)
	if m == nil {
		return 0
	}

	weights := []int{86400, 3600, 60, 1}
	total := 0
	for i, w := range weights {
		group := m[i+1]
		if group == "" {
			continue
		}
		n, err := strconv.Atoi(group)
		if err != nil || n > (1<<31)/w {
			return 0
		}
		total += n * w
	}
	if total < 0 {
		return 0
	}
	return total
}

// ParseTimestamp parses the platform's RFC 3339 timestamps (Zulu suffix) into UTC
func ParseTimestamp(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", value, err)
	}
	return t.UTC(), nil
}

// parseCount parses a decimal counter; ok is false when absent or malformed
func parseCount(value *string) (int64, bool) {
	if value == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(*value, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// optionalCount is parseCount for counters the platform may omit
func optionalCount(value *string) *int64 {
	n, ok := parseCount(value)
	if !ok {
		return nil
	}
	return &n
}
