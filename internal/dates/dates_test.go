package dates

import (
	"testing"
	"time"
)

func TestParseISO(t *testing.T) {
	now := time.Date(2026, 2, 14, 15, 30, 0, 0, time.UTC)

	d, err := Parse("2026-03-01", now)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := d.Format("2006-01-02"); got != "2026-03-01" {
		t.Errorf("Parse = %s, want 2026-03-01", got)
	}
	if d.Hour() != 0 || d.Minute() != 0 {
		t.Errorf("Parse returned a non-midnight instant: %v", d)
	}
}

func TestParseNaturalLanguage(t *testing.T) {
	now := time.Date(2026, 2, 14, 15, 30, 0, 0, time.UTC) // a Saturday

	tests := []struct {
		in   string
		want string
	}{
		{"today", "2026-02-14"},
		{"tomorrow", "2026-02-15"},
	}

	for _, tt := range tests {
		d, err := Parse(tt.in, now)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", tt.in, err)
		}
		if got := d.Format("2006-01-02"); got != tt.want {
			t.Errorf("Parse(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	now := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)

	for _, in := range []string{"", "   ", "qwerty gibberish"} {
		if _, err := Parse(in, now); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", in)
		}
	}
}
