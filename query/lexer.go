package query

import "strings"

// tokenize splits a raw URL string into its top-level path components
// on '/'. A leading empty component (from a leading '/') is dropped,
// so both "/sessions" and "sessions" lex the same way.
func tokenize(raw string) []string {
	raw = strings.TrimPrefix(raw, "/")
	if raw == "" {
		return nil
	}
	return strings.Split(raw, "/")
}
