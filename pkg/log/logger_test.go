package log

import (
	"testing"
	"time"
)

type recorder struct {
	events []Event
}

func (r *recorder) Log(event Event) {
	r.events = append(r.events, event)
}

func TestNoopLoggerIsZeroValue(t *testing.T) {
	var logger NoopLogger
	logger.Log(Event{})
	logger.Log(Event{Category: CategoryError, Error: &ErrorEventData{Message: "boom"}})
}

func TestMultiLoggerFansOut(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	multi := NewMultiLogger(a, nil, b)

	multi.Log(Event{Timestamp: time.Now(), SessionID: "s1", Category: CategoryMerge})
	multi.Log(Event{Timestamp: time.Now(), SessionID: "s1", Category: CategoryTemplate})

	if len(a.events) != 2 || len(b.events) != 2 {
		t.Fatalf("got %d and %d events, want 2 each", len(a.events), len(b.events))
	}
	if a.events[1].Category != CategoryTemplate {
		t.Errorf("second event category = %v", a.events[1].Category)
	}
}

func TestCategoryString(t *testing.T) {
	tests := []struct {
		c    Category
		want string
	}{
		{CategoryLoad, "LOAD"},
		{CategoryLookup, "LOOKUP"},
		{CategoryReference, "REFERENCE"},
		{CategoryMerge, "MERGE"},
		{CategoryTemplate, "TEMPLATE"},
		{CategoryError, "ERROR"},
		{Category(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.c.String(); got != tt.want {
			t.Errorf("Category(%d).String() = %q, want %q", tt.c, got, tt.want)
		}
	}
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("reference")
	if err != nil || c != CategoryReference {
		t.Errorf("ParseCategory(reference) = %v, %v", c, err)
	}
	if _, err := ParseCategory("frame"); err == nil {
		t.Error("ParseCategory(frame) should fail")
	}
}

func TestEventSummary(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{"reference", Event{Reference: &ReferenceEvent{Phandle: 3, Target: "/a"}}, "<3> -> /a"},
		{"merge no link", Event{Merge: &MergeEvent{Own: 2}}, "2 own, no link"},
		{"merge", Event{Merge: &MergeEvent{Own: 2, Inherited: 1, Linked: "/b"}}, "2 own + 1 from /b"},
		{"template", Event{Template: &TemplateEvent{Template: "{a}", Result: "x"}}, `"{a}" -> "x"`},
		{"error", Event{Error: &ErrorEventData{Message: "bad", Context: "touch"}}, "touch: bad"},
		{"lookup miss", Event{Lookup: &LookupEvent{Segment: "fw", SharedPath: "/s"}}, `"fw" not in shared /s`},
		{"empty", Event{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.Summary(); got != tt.want {
				t.Errorf("Summary() = %q, want %q", got, tt.want)
			}
		})
	}
}
