// Package markdown implements the interchange codec between task records
// and the human-editable plain-text backup format.
//
// One document holds one project: a "# Name" heading followed by task
// lines. A task line is a checkbox marker, a free-text description, and
// zero or more inline tags:
//
//	- [ ] Write proposal @due(2026-02-20) @urgent @effort(2h)
//	- [x] Ship release @done(2026-02-14)
//
// Tag order is irrelevant on read and fixed on write (due, urgent, effort,
// then done). Decoding the output of encoding reproduces the same set of
// (description, done, due, urgent, effort, done_date) tuples; fields with
// no markdown representation are dropped on encode and defaulted on decode.
package markdown

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/schwesti/todo/internal/models"
)

// Format errors, wrapped with the offending line number.
var (
	// ErrMissingDoneDate is returned for a checked line without a
	// @done(...) tag.
	ErrMissingDoneDate = errors.New("checked task is missing @done date")

	// ErrBadDate is returned for a tag date that is not YYYY-MM-DD.
	ErrBadDate = errors.New("malformed date")

	// ErrEmptyDescription is returned for a task line whose description
	// is empty after stripping tags.
	ErrEmptyDescription = errors.New("empty task description")
)

// dateFormat is the only date form the codec accepts and emits.
const dateFormat = "2006-01-02"

// tagRe matches one inline tag, "@urgent" or "@due(2026-02-20)", together
// with the single space before it. Tags are cut out of the line as matches,
// not rebuilt from a token split, so whitespace runs inside the description
// itself survive the round trip.
var tagRe = regexp.MustCompile(`(?:^|\s)@([a-zA-Z]+)(?:\(([^)]*)\))?`)

// Record is the markdown-representable slice of a task.
type Record struct {
	Description string
	Done        bool
	Due         *time.Time
	Urgent      bool
	Effort      string
	DoneDate    *time.Time
}

// Document is one project's worth of records.
type Document struct {
	Name  string
	Tasks []Record
}

// Decode parses a project document. Lines that are not task lines (the
// heading, subsection headings, blanks, prose) are skipped; the first
// "# " heading becomes the project name. Malformed task lines fail the
// whole decode: decoding is all-or-nothing so preview and commit modes
// see identical input.
func Decode(r io.Reader) (*Document, error) {
	doc := &Document{}
	sc := bufio.NewScanner(r)
	lineNum := 0

	for sc.Scan() {
		lineNum++
		line := strings.TrimRight(sc.Text(), " \t")

		if doc.Name == "" {
			if name, ok := strings.CutPrefix(line, "# "); ok {
				doc.Name = strings.TrimSpace(name)
				continue
			}
		}

		rec, ok, err := ParseTaskLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		if ok {
			doc.Tasks = append(doc.Tasks, rec)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	return doc, nil
}

// ParseTaskLine parses a single task line. The second return value is
// false for lines that are not task lines at all.
func ParseTaskLine(line string) (Record, bool, error) {
	rest, done, found := cutCheckbox(line)
	if !found {
		return Record{}, false, nil
	}

	rec := Record{Done: done}

	var doneDate *time.Time
	for _, m := range tagRe.FindAllStringSubmatch(rest, -1) {
		name, value := strings.ToLower(m[1]), m[2]
		switch name {
		case "due":
			d, err := parseDate(value)
			if err != nil {
				return Record{}, false, fmt.Errorf("@due(%s): %w", value, ErrBadDate)
			}
			rec.Due = &d
		case "urgent":
			rec.Urgent = true
		case "effort":
			rec.Effort = value
		case "done":
			d, err := parseDate(value)
			if err != nil {
				return Record{}, false, fmt.Errorf("@done(%s): %w", value, ErrBadDate)
			}
			doneDate = &d
		default:
			// Unknown tags have no record field; dropped.
		}
	}

	rec.Description = strings.TrimSpace(tagRe.ReplaceAllString(rest, ""))
	if rec.Description == "" {
		return Record{}, false, ErrEmptyDescription
	}

	if rec.Done {
		if doneDate == nil {
			return Record{}, false, ErrMissingDoneDate
		}
		rec.DoneDate = doneDate
	}
	// A @done tag on an unchecked line is dropped: done_date is set if
	// and only if the task is done.

	return rec, true, nil
}

// Encode writes the document: heading, then Active and Done subsections.
// Tag order is fixed: due, urgent, effort, and done for completed lines.
func Encode(w io.Writer, doc *Document) error {
	var b strings.Builder

	b.WriteString("# " + doc.Name + "\n\n")

	b.WriteString("## Active\n")
	for _, t := range doc.Tasks {
		if !t.Done {
			b.WriteString(FormatTaskLine(t) + "\n")
		}
	}

	b.WriteString("\n## Done\n")
	for _, t := range doc.Tasks {
		if t.Done {
			b.WriteString(FormatTaskLine(t) + "\n")
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}

// FormatTaskLine serializes one record back to a markdown line.
func FormatTaskLine(t Record) string {
	checkbox := "[ ]"
	if t.Done {
		checkbox = "[x]"
	}

	parts := []string{"-", checkbox, t.Description}
	if t.Due != nil {
		parts = append(parts, fmt.Sprintf("@due(%s)", t.Due.Format(dateFormat)))
	}
	if t.Urgent {
		parts = append(parts, "@urgent")
	}
	if t.Effort != "" {
		parts = append(parts, fmt.Sprintf("@effort(%s)", t.Effort))
	}
	if t.Done && t.DoneDate != nil {
		parts = append(parts, fmt.Sprintf("@done(%s)", t.DoneDate.Format(dateFormat)))
	}
	return strings.Join(parts, " ")
}

// cutCheckbox strips the leading "- [ ] " or "- [x] " marker, reporting
// the checked state and whether the line carried a marker at all.
func cutCheckbox(line string) (rest string, done, found bool) {
	if rest, ok := strings.CutPrefix(line, "- [ ] "); ok {
		return rest, false, true
	}
	for _, prefix := range []string{"- [x] ", "- [X] "} {
		if rest, ok := strings.CutPrefix(line, prefix); ok {
			return rest, true, true
		}
	}
	return "", false, false
}

// parseDate parses a strict YYYY-MM-DD calendar date.
func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(dateFormat, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return models.DateOnly(d), nil
}
