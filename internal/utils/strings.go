// Package utils holds small helpers shared by handlers, repositories and
// configuration.
package utils

import "strings"

// ParseCSV splits a list-valued setting such as CORS_ALLOWED_ORIGINS.
// Blank entries and repeats are dropped; an empty list is nil.
func ParseCSV(s string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, v := range strings.Split(s, ",") {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
