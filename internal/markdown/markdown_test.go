package markdown

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestParseTaskLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Record
	}{
		{
			"plain open task",
			"- [ ] Write proposal",
			Record{Description: "Write proposal"},
		},
		{
			"all tags",
			"- [ ] Write proposal @due(2026-02-20) @urgent @effort(2h)",
			Record{Description: "Write proposal", Due: day(2026, 2, 20), Urgent: true, Effort: "2h"},
		},
		{
			"tag order is irrelevant",
			"- [ ] Write proposal @effort(2h) @urgent @due(2026-02-20)",
			Record{Description: "Write proposal", Due: day(2026, 2, 20), Urgent: true, Effort: "2h"},
		},
		{
			"tags interleaved with description",
			"- [ ] Write @urgent the proposal",
			Record{Description: "Write the proposal", Urgent: true},
		},
		{
			"whitespace runs inside the description survive",
			"- [ ] pay  the  rent @urgent",
			Record{Description: "pay  the  rent", Urgent: true},
		},
		{
			"tab inside the description survives",
			"- [ ] column a\tcolumn b @due(2026-02-20)",
			Record{Description: "column a\tcolumn b", Due: day(2026, 2, 20)},
		},
		{
			"done task",
			"- [x] Ship release @done(2026-02-14)",
			Record{Description: "Ship release", Done: true, DoneDate: day(2026, 2, 14)},
		},
		{
			"uppercase checkbox",
			"- [X] Ship release @done(2026-02-14)",
			Record{Description: "Ship release", Done: true, DoneDate: day(2026, 2, 14)},
		},
		{
			"unknown tag is dropped",
			"- [ ] Call dentist @someday",
			Record{Description: "Call dentist"},
		},
		{
			"done tag on open task is dropped",
			"- [ ] Call dentist @done(2026-02-14)",
			Record{Description: "Call dentist"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := ParseTaskLine(tt.line)
			if err != nil {
				t.Fatalf("ParseTaskLine(%q) error: %v", tt.line, err)
			}
			if !ok {
				t.Fatalf("ParseTaskLine(%q) not recognized as task line", tt.line)
			}
			if got.Description != tt.want.Description ||
				got.Done != tt.want.Done ||
				got.Urgent != tt.want.Urgent ||
				got.Effort != tt.want.Effort ||
				!sameDate(got.Due, tt.want.Due) ||
				!sameDate(got.DoneDate, tt.want.DoneDate) {
				t.Errorf("ParseTaskLine(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestParseTaskLineNonTaskLines(t *testing.T) {
	for _, line := range []string{
		"",
		"# Heading",
		"## Active",
		"some prose about the project",
		"-[ ] missing space",
		"* [ ] wrong bullet",
	} {
		_, ok, err := ParseTaskLine(line)
		if err != nil {
			t.Errorf("ParseTaskLine(%q) error: %v", line, err)
		}
		if ok {
			t.Errorf("ParseTaskLine(%q) recognized as task line", line)
		}
	}
}

func TestParseTaskLineErrors(t *testing.T) {
	tests := []struct {
		line string
		want error
	}{
		{"- [x] Ship release", ErrMissingDoneDate},
		{"- [ ] Pay rent @due(soon)", ErrBadDate},
		{"- [x] Ship @done(last week)", ErrBadDate},
		{"- [ ] @urgent @due(2026-02-20)", ErrEmptyDescription},
	}

	for _, tt := range tests {
		_, _, err := ParseTaskLine(tt.line)
		if !errors.Is(err, tt.want) {
			t.Errorf("ParseTaskLine(%q) error = %v, want %v", tt.line, err, tt.want)
		}
	}
}

func TestDecode(t *testing.T) {
	input := `# Side Projects

## Active
- [ ] Write proposal @due(2026-02-20) @urgent
- [ ] Sketch homepage

## Done
- [x] Pick a name @done(2026-02-01)
`
	doc, err := Decode(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if doc.Name != "Side Projects" {
		t.Errorf("Name = %q, want %q", doc.Name, "Side Projects")
	}
	if len(doc.Tasks) != 3 {
		t.Fatalf("got %d tasks, want 3", len(doc.Tasks))
	}
	if doc.Tasks[0].Description != "Write proposal" || !doc.Tasks[0].Urgent {
		t.Errorf("first task = %+v", doc.Tasks[0])
	}
	if !doc.Tasks[2].Done || doc.Tasks[2].DoneDate == nil {
		t.Errorf("done task = %+v", doc.Tasks[2])
	}
}

func TestDecodeFailsOnBadLine(t *testing.T) {
	input := "# P\n\n- [ ] fine\n- [x] broken, no done date\n"
	_, err := Decode(strings.NewReader(input))
	if !errors.Is(err, ErrMissingDoneDate) {
		t.Fatalf("Decode error = %v, want %v", err, ErrMissingDoneDate)
	}
	if !strings.Contains(err.Error(), "line 4") {
		t.Errorf("error %q should name the offending line", err)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	doc := &Document{
		Name: "Side Projects",
		Tasks: []Record{
			{Description: "Write proposal", Due: day(2026, 2, 20), Urgent: true, Effort: "2h"},
			{Description: "Sketch homepage"},
			{Description: "Pick a name", Done: true, DoneDate: day(2026, 2, 1)},
		},
	}

	var b strings.Builder
	if err := Encode(&b, doc); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	got, err := Decode(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if got.Name != doc.Name {
		t.Errorf("Name = %q, want %q", got.Name, doc.Name)
	}
	if len(got.Tasks) != len(doc.Tasks) {
		t.Fatalf("got %d tasks, want %d", len(got.Tasks), len(doc.Tasks))
	}
	// Encode groups active before done; build lookup by description.
	byDesc := make(map[string]Record)
	for _, r := range got.Tasks {
		byDesc[r.Description] = r
	}
	for _, want := range doc.Tasks {
		r, ok := byDesc[want.Description]
		if !ok {
			t.Fatalf("task %q lost in round trip", want.Description)
		}
		if r.Done != want.Done || r.Urgent != want.Urgent || r.Effort != want.Effort ||
			!sameDate(r.Due, want.Due) || !sameDate(r.DoneDate, want.DoneDate) {
			t.Errorf("round trip of %q = %+v, want %+v", want.Description, r, want)
		}
	}
}

func TestEncodeEmptyDocument(t *testing.T) {
	var b strings.Builder
	if err := Encode(&b, &Document{Name: "Empty"}); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	got, err := Decode(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.Name != "Empty" || len(got.Tasks) != 0 {
		t.Errorf("round trip = %+v", got)
	}
}

func TestFormatTaskLineTagOrder(t *testing.T) {
	line := FormatTaskLine(Record{
		Description: "Ship release",
		Done:        true,
		Due:         day(2026, 2, 10),
		Urgent:      true,
		Effort:      "1h",
		DoneDate:    day(2026, 2, 14),
	})
	want := "- [x] Ship release @due(2026-02-10) @urgent @effort(1h) @done(2026-02-14)"
	if line != want {
		t.Errorf("FormatTaskLine = %q, want %q", line, want)
	}
}

func sameDate(a, b *time.Time) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if a == nil {
		return true
	}
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}
