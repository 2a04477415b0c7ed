// Package dates parses user-facing due date input for the CLI and bot
// boundaries. The markdown codec does not use this package; interchange
// files carry strict ISO dates only.
package dates

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/schwesti/todo/internal/models"
)

var parser = newParser()

func newParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// Parse turns user input into a calendar date. Strict YYYY-MM-DD is tried
// first; anything else goes through natural-language parsing, so "today",
// "tomorrow", and weekday names all work.
func Parse(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	if d, err := time.Parse("2006-01-02", s); err == nil {
		return models.DateOnly(d), nil
	}

	r, err := parser.Parse(s, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date %q: %w", s, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q", s)
	}
	return models.DateOnly(r.Time), nil
}
