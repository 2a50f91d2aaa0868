package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseCSV splits a comma-separated string and returns trimmed non-empty values.
// Returns nil for empty/whitespace-only input.
func ParseCSV(s string) []string {
	if s == "" {
		return nil
	}

	var result []string
	for _, v := range strings.Split(s, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return nil
	}

	return result
}

// ParsePositiveInts parses a comma-separated list such as "1, 3, 5" keeping the given order.
// Zero, negative and duplicate values are rejected.
func ParsePositiveInts(s string) ([]int, error) {
	parts := ParseCSV(s)
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty list")
	}

	seen := make(map[int]bool, len(parts))
	values := make([]int, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: %w", part, err)
		}
		if v <= 0 {
			return nil, fmt.Errorf("value must be positive, got %d", v)
		}
		if seen[v] {
			return nil, fmt.Errorf("duplicate value %d", v)
		}
		seen[v] = true
		values = append(values, v)
	}

	return values, nil
}
