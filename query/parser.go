package query

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseError reports a malformed query URL, with the offending raw
// component for diagnosis.
type ParseError struct {
	Raw    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("query: cannot parse %q: %s", e.Raw, e.Reason)
}

// Parse parses a URL string per spec.md §4.5's grammar.
func Parse(raw string) (*URL, error) {
	parts := tokenize(raw)
	u := &URL{}

	if len(parts) > 0 && strings.HasPrefix(parts[0], "@") {
		u.Anchor = strings.TrimPrefix(parts[0], "@")
		parts = parts[1:]
	}

	for _, part := range parts {
		seg, err := parseSegment(part)
		if err != nil {
			return nil, err
		}
		u.Segments = append(u.Segments, *seg)
	}
	return u, nil
}

func parseSegment(part string) (*Segment, error) {
	seg := &Segment{}

	typeEnd := len(part)
	for i, r := range part {
		if r == '(' || r == '[' {
			typeEnd = i
			break
		}
	}
	seg.Type = part[:typeEnd]
	if seg.Type == "" {
		return nil, &ParseError{Raw: part, Reason: "missing edge/type name"}
	}
	rest := part[typeEnd:]

	if strings.HasPrefix(rest, "(") {
		close := strings.Index(rest, ")")
		if close < 0 {
			return nil, &ParseError{Raw: part, Reason: "unterminated filter"}
		}
		filters, err := parseFilters(rest[1:close])
		if err != nil {
			return nil, err
		}
		seg.Filters = filters
		rest = rest[close+1:]
	}

	if strings.HasPrefix(rest, "[") {
		close := strings.Index(rest, "]")
		if close < 0 {
			return nil, &ParseError{Raw: part, Reason: "unterminated selector"}
		}
		sel, err := parseSelector(rest[1:close])
		if err != nil {
			return nil, err
		}
		seg.Selector = sel
		rest = rest[close+1:]
	}

	if rest != "" {
		return nil, &ParseError{Raw: part, Reason: "unexpected trailing characters " + rest}
	}
	return seg, nil
}

func parseFilters(body string) ([]Filter, error) {
	var filters []Filter
	for _, clause := range strings.Split(body, ",") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		f, err := parseFilterClause(clause)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, nil
}

// operators, longest first so "!=" isn't mis-split as "=".
var operators = []struct {
	token string
	op    Op
}{
	{"!=", OpNe},
	{"<=", OpLe},
	{">=", OpGe},
	{"=", OpEq},
	{"<", OpLt},
	{">", OpGt},
}

func parseFilterClause(clause string) (Filter, error) {
	for _, candidate := range operators {
		if idx := strings.Index(clause, candidate.token); idx > 0 {
			return Filter{
				Field: strings.TrimSpace(clause[:idx]),
				Op:    candidate.op,
				Value: strings.TrimSpace(clause[idx+len(candidate.token):]),
			}, nil
		}
	}
	return Filter{}, &ParseError{Raw: clause, Reason: "missing comparison operator"}
}

func parseSelector(body string) (*Selector, error) {
	switch body {
	case "first":
		return &Selector{First: true}, nil
	case "last":
		return &Selector{Last: true}, nil
	default:
		n, err := strconv.Atoi(body)
		if err != nil {
			return nil, &ParseError{Raw: body, Reason: "selector must be an integer, 'first' or 'last'"}
		}
		return &Selector{Index: &n}, nil
	}
}
