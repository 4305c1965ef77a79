package config

import (
	"strconv"
	"strings"
	"time"
)

// ParseTimestamp parses a timestamp value (unix seconds or RFC3339).
// Empty input returns ok=false.
func ParseTimestamp(input string) (ts int64, ok bool, err error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, false, nil
	}

	if isNumeric(input) {
		val, err := strconv.ParseInt(input, 10, 64)
		if err != nil {
			return 0, false, err
		}
		return val, true, nil
	}

	tm, err := time.Parse(time.RFC3339, input)
	if err != nil {
		return 0, false, err
	}
	return tm.Unix(), true, nil
}

func isNumeric(input string) bool {
	for i, r := range input {
		if r == '-' && i == 0 && len(input) > 1 {
			continue
		}
		if r < '0' || r > '9' {
			return false
		}
	}
	return input != ""
}
