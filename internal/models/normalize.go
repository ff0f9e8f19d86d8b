package models

import (
	"sort"
	"strings"
)

// NormalizeNames trims every name, drops empties, and dedupes
// case-insensitively keeping the first spelling seen. When sortNames is set
// the result is additionally sorted case-insensitively (staff lists are
// stored sorted; show crews keep input order).
func NormalizeNames(names []string, sortNames bool) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		key := strings.ToLower(n)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	if sortNames {
		sort.Slice(out, func(i, j int) bool {
			return strings.ToLower(out[i]) < strings.ToLower(out[j])
		})
	}
	return out
}

// YesNo normalizes a free-form flag to the canonical "Yes"/"No" strings used
// in stored entries and the tabular export.
func YesNo(v string) string {
	if YesNoBool(v) {
		return "Yes"
	}
	return "No"
}

// YesNoBool interprets a Yes/No-style flag as a boolean.
func YesNoBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "y", "true", "1":
		return true
	}
	return false
}
