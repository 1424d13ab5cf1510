package query

import "testing"

func TestParseSimplePath(t *testing.T) {
	u, err := Parse("/sessions(state=stopped)/threads/stacks[0]/frames[0]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(u.Segments) != 4 {
		t.Fatalf("expected 4 segments, got %d", len(u.Segments))
	}
	if u.Segments[0].Type != "sessions" {
		t.Fatalf("expected first segment type sessions, got %q", u.Segments[0].Type)
	}
	if len(u.Segments[0].Filters) != 1 || u.Segments[0].Filters[0].Field != "state" || u.Segments[0].Filters[0].Value != "stopped" {
		t.Fatalf("unexpected filter: %+v", u.Segments[0].Filters)
	}
	if u.Segments[2].Selector == nil || u.Segments[2].Selector.Index == nil || *u.Segments[2].Selector.Index != 0 {
		t.Fatalf("expected stacks[0] selector index 0, got %+v", u.Segments[2].Selector)
	}
}

func TestParseAnchor(t *testing.T) {
	u, err := Parse("@frame/scopes[0]/variables(name=counter)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Anchor != "frame" {
		t.Fatalf("expected anchor frame, got %q", u.Anchor)
	}
	if len(u.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(u.Segments))
	}
}

func TestParseFirstLastSelectors(t *testing.T) {
	u, err := Parse("sessions[first]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !u.Segments[0].Selector.First {
		t.Fatal("expected First selector")
	}

	u, err = Parse("sessions[last]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !u.Segments[0].Selector.Last {
		t.Fatal("expected Last selector")
	}
}

func TestParseMultipleFilters(t *testing.T) {
	u, err := Parse("frames(line=2,column=4)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(u.Segments[0].Filters) != 2 {
		t.Fatalf("expected 2 filters, got %d", len(u.Segments[0].Filters))
	}
}

func TestParseRejectsMissingOperator(t *testing.T) {
	_, err := Parse("sessions(state)")
	if err == nil {
		t.Fatal("expected a parse error for a filter missing its operator")
	}
}

func TestURLStringRoundTrips(t *testing.T) {
	raw := "@thread/stacks[0]/frames(line=2)[last]"
	u, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := u.String(); got != raw {
		t.Fatalf("expected round-trip %q, got %q", raw, got)
	}
}
