// Package strings provides string list helpers for configuration and query parsing.
package strings

import (
	"strings"
)

// SplitList splits each value on commas, trims every element and drops empties and
// duplicates. Order is preserved.
//
// Example:
//
//	SplitList("in_review, approved", "approved,,signed_off")
//	// Returns: []string{"in_review", "approved", "signed_off"}
func SplitList(values ...string) []string {
	return splitList(values, false)
}

// SplitListLower is like SplitList but also lowercases each element.
func SplitListLower(values ...string) []string {
	return splitList(values, true)
}

func splitList(values []string, lower bool) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{})
	var result []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if lower {
				part = strings.ToLower(part)
			}
			if part == "" {
				continue
			}
			if _, ok := seen[part]; !ok {
				seen[part] = struct{}{}
				result = append(result, part)
			}
		}
	}
	return result
}
