// Package intent defines the fixed structured command set accepted across
// the chat-bot boundary.
//
// The language-model oracle that turns free text into one of these intents
// lives entirely outside this repository. By the time an Intent reaches
// Dispatch, every field is fully resolved: dates are calendar dates, the
// project is a slug, the task is an id. Dispatch performs no interpretation
// beyond validation.
package intent

import (
	"context"
	"fmt"
	"time"

	"github.com/schwesti/todo/internal/models"
	"github.com/schwesti/todo/internal/store"
)

// Kind names one of the supported intents.
type Kind string

const (
	KindAddTask      Kind = "add-task"
	KindCompleteTask Kind = "complete-task"
	KindListTasks    Kind = "list-tasks"
	KindMoveTask     Kind = "move-task"
)

// Intent is one structured command. Which fields are meaningful depends on
// the kind; unused fields are ignored.
type Intent struct {
	Kind Kind

	// add-task
	Description string
	Due         *time.Time
	Urgent      bool
	Effort      string

	// add-task, list-tasks, move-task
	ProjectSlug string

	// complete-task, move-task
	TaskID string

	// list-tasks
	UrgentOnly bool
	Search     string
}

// Result carries the outcome back to the bot for rendering.
type Result struct {
	Task  *models.Task
	Tasks []*models.Task
}

// Dispatch executes one intent against the store. Tasks created here are
// tagged with the bot source.
func Dispatch(ctx context.Context, st *store.Store, in Intent) (*Result, error) {
	switch in.Kind {
	case KindAddTask:
		task, err := st.AddTask(ctx, store.AddTaskParams{
			ProjectSlug: in.ProjectSlug,
			Description: in.Description,
			Due:         in.Due,
			Urgent:      in.Urgent,
			Effort:      in.Effort,
			Source:      models.SourceBot,
		})
		if err != nil {
			return nil, err
		}
		return &Result{Task: task}, nil

	case KindCompleteTask:
		if in.TaskID == "" {
			return nil, fmt.Errorf("%w: complete-task requires a task id", store.ErrValidation)
		}
		task, err := st.CompleteTask(ctx, in.TaskID)
		if err != nil {
			return nil, err
		}
		return &Result{Task: task}, nil

	case KindListTasks:
		open := false
		tasks, err := st.ListTasks(ctx, store.TaskFilter{
			ProjectSlug:     in.ProjectSlug,
			Done:            &open,
			UrgentOrOverdue: in.UrgentOnly,
			Search:          in.Search,
		})
		if err != nil {
			return nil, err
		}
		return &Result{Tasks: tasks}, nil

	case KindMoveTask:
		if in.TaskID == "" {
			return nil, fmt.Errorf("%w: move-task requires a task id", store.ErrValidation)
		}
		if in.ProjectSlug == "" {
			return nil, fmt.Errorf("%w: move-task requires a project slug", store.ErrValidation)
		}
		task, err := st.MoveTask(ctx, in.TaskID, in.ProjectSlug)
		if err != nil {
			return nil, err
		}
		return &Result{Task: task}, nil

	default:
		return nil, fmt.Errorf("%w: unknown intent kind %q", store.ErrValidation, in.Kind)
	}
}
