// Package priority derives the discrete urgency rank stored on every task.
//
// The rank is a pure function of the task's done flag, due date, and urgent
// flag relative to the current date. It is recomputed inside every task
// write and never accepted from a client.
package priority

import (
	"time"

	"github.com/schwesti/todo/internal/models"
)

// Ranks, highest first. Overdue outranks urgent, urgent outranks due-soon.
const (
	ScoreNone    = 0
	ScoreDueSoon = 1
	ScoreUrgent  = 2
	ScoreOverdue = 3
)

// DueSoonWindowDays is how far ahead a due date still counts as "due soon".
const DueSoonWindowDays = 3

// Score returns the rank for the given fields as of today.
// Rules are checked in order and the first match wins:
//
//  1. done tasks score 0
//  2. due before today scores 3 (overdue)
//  3. urgent scores 2
//  4. due within the next 3 days (inclusive) scores 1
//  5. everything else scores 0
func Score(done bool, due *time.Time, urgent bool, today time.Time) int {
	if done {
		return ScoreNone
	}
	day := models.DateOnly(today)
	if due != nil {
		d := models.DateOnly(*due)
		if d.Before(day) {
			return ScoreOverdue
		}
	}
	if urgent {
		return ScoreUrgent
	}
	if due != nil {
		d := models.DateOnly(*due)
		if !d.After(day.AddDate(0, 0, DueSoonWindowDays)) {
			return ScoreDueSoon
		}
	}
	return ScoreNone
}
