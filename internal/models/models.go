// Package models defines the record types shared by every client of the
// todo store: the CLI, the chat-bot process, and the browser board.
//
// All clients read and write the same four entity kinds. Records use flat
// fields with last-write-wins semantics: concurrent writers to the same
// record are resolved by the record's update timestamp, not by merge.
package models

import (
	"fmt"
	"regexp"
	"time"
)

// InboxSlug is the reserved slug of the default capture project.
// The inbox always exists and always sorts first.
const InboxSlug = "inbox"

// Source identifies which client created a task.
type Source string

const (
	// SourceCLI marks tasks created by the terminal client.
	SourceCLI Source = "cli"
	// SourceBot marks tasks created by the chat-bot process.
	SourceBot Source = "bot"
	// SourceBoard marks tasks created from the browser board.
	SourceBoard Source = "board"
	// SourceImport marks tasks created by a markdown import.
	SourceImport Source = "import"
)

// Action classifies one task lifecycle transition in the activity log.
type Action string

const (
	// ActionCreated is logged for every task insert.
	ActionCreated Action = "created"
	// ActionCompleted is logged when done transitions false to true.
	ActionCompleted Action = "completed"
	// ActionUpdated is logged for any other field change.
	ActionUpdated Action = "updated"
	// ActionMoved is logged when a task changes project.
	ActionMoved Action = "moved"
)

var slugRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Project is a named bucket of tasks, identified by a globally unique slug.
type Project struct {
	ID        string
	Name      string
	Slug      string
	Color     string
	Position  int
	Archived  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks that the project has a name and a url-safe slug.
func (p *Project) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("project name is required")
	}
	if p.Slug == "" {
		return fmt.Errorf("project slug is required")
	}
	if !slugRe.MatchString(p.Slug) {
		return fmt.Errorf("project slug %q is not url-safe", p.Slug)
	}
	return nil
}

// Task is a single actionable item. PriorityScore and DoneDate are derived
// by the store's write path and are never accepted as client input.
type Task struct {
	ID            string
	ProjectID     string
	Description   string
	Done          bool
	Due           *time.Time
	Urgent        bool
	Effort        string
	Position      int
	PriorityScore int
	Notes         string
	RecurringRule string // reserved, unused
	EffortMinutes *int
	ActualMinutes *int
	Source        Source
	DoneDate      *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// ProjectName and ProjectSlug are populated on reads that join the
	// projects table. They are not stored on the task row.
	ProjectName string
	ProjectSlug string
}

// Validate checks task field invariants. DoneDate must be set exactly when
// Done is true.
func (t *Task) Validate() error {
	if t.Description == "" {
		return fmt.Errorf("task description is required")
	}
	if t.ProjectID == "" {
		return fmt.Errorf("task project id is required")
	}
	if t.Done && t.DoneDate == nil {
		return fmt.Errorf("done task is missing its completion date")
	}
	if !t.Done && t.DoneDate != nil {
		return fmt.Errorf("open task must not carry a completion date")
	}
	if t.Source == "" {
		return fmt.Errorf("task source is required")
	}
	return nil
}

// DailyPlan stores one generated plan per calendar date. A later generation
// for the same date replaces the earlier one.
type DailyPlan struct {
	ID        string
	PlanDate  time.Time
	Content   string
	CreatedAt time.Time
}

// ActivityEntry is one immutable audit record of a task lifecycle
// transition. Entries are append-only and removed only when the owning
// task is deleted.
type ActivityEntry struct {
	ID        string
	TaskID    string
	Action    Action
	Context   map[string]string
	CreatedAt time.Time
}

// DateOnly truncates t to midnight in its own location. Due dates,
// completion dates, and plan dates are calendar dates, not instants.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
