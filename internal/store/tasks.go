package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/schwesti/todo/internal/bus"
	"github.com/schwesti/todo/internal/models"
	"github.com/schwesti/todo/internal/priority"
)

// taskColumns is the joined column list shared by all task queries.
const taskColumns = `
	t.id, t.project_id, t.description, t.done, t.due, t.urgent, t.effort,
	t.position, t.priority_score, t.notes, t.recurring_rule,
	t.effort_minutes, t.actual_minutes, t.source, t.done_date,
	t.created_at, t.updated_at, p.name, p.slug`

// AddTaskParams describes a task to create.
//
// The owning project is resolved in order: ProjectID if set (must exist),
// otherwise ProjectSlug (created on the fly if unknown), otherwise the
// reserved inbox. Done and DoneDate exist for the markdown importer, which
// restores completed tasks; interactive clients create open tasks only.
type AddTaskParams struct {
	ProjectID   string
	ProjectSlug string
	Description string
	Due         *time.Time
	Urgent      bool
	Effort      string
	Notes       string
	Position    int
	Source      models.Source
	Done        bool
	DoneDate    *time.Time
}

// AddTask creates a task as one atomic step: resolve the project, compute
// the priority rank, insert the row, and append the "created" activity
// entry. On success a tasks change signal is published (plus a projects
// signal if the owning project was created on the fly).
func (s *Store) AddTask(ctx context.Context, params AddTaskParams) (*models.Task, error) {
	if strings.TrimSpace(params.Description) == "" {
		return nil, fmt.Errorf("%w: task description is empty", ErrValidation)
	}
	if params.Source == "" {
		params.Source = models.SourceCLI
	}

	// Resolve the owning project outside the task transaction; project
	// creation publishes its own signal.
	var proj *models.Project
	var err error
	switch {
	case params.ProjectID != "":
		proj, err = s.GetProject(ctx, params.ProjectID)
	case params.ProjectSlug != "":
		proj, err = s.GetOrCreateProject(ctx, humanizeSlug(params.ProjectSlug), params.ProjectSlug)
	default:
		proj, err = s.EnsureInbox(ctx)
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	t := &models.Task{
		ID:          uuid.NewString(),
		ProjectID:   proj.ID,
		Description: strings.TrimSpace(params.Description),
		Done:        params.Done,
		Due:         params.Due,
		Urgent:      params.Urgent,
		Effort:      params.Effort,
		Notes:       params.Notes,
		Position:    params.Position,
		Source:      params.Source,
		DoneDate:    params.DoneDate,
		CreatedAt:   now,
		UpdatedAt:   now,
		ProjectName: proj.Name,
		ProjectSlug: proj.Slug,
	}
	if t.Done && t.DoneDate == nil {
		day := s.today()
		t.DoneDate = &day
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	t.PriorityScore = priority.Score(t.Done, t.Due, t.Urgent, s.today())

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tasks (
			id, project_id, description, done, due, urgent, effort,
			position, priority_score, notes, recurring_rule,
			effort_minutes, actual_minutes, source, done_date,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ProjectID, t.Description, boolToInt(t.Done),
		dateToNull(t.Due), boolToInt(t.Urgent), t.Effort,
		t.Position, t.PriorityScore, t.Notes, t.RecurringRule,
		intToNull(t.EffortMinutes), intToNull(t.ActualMinutes),
		string(t.Source), dateToNull(t.DoneDate),
		now.Format(timestampFormat), now.Format(timestampFormat),
	)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY") {
			return nil, fmt.Errorf("%w: project %s is gone", ErrIntegrity, t.ProjectID)
		}
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}

	if err := s.appendActivity(ctx, tx, t.ID, models.ActionCreated, map[string]string{
		"description": t.Description,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit task: %w", err)
	}

	s.publish(bus.TableTasks)
	return t, nil
}

// GetTask retrieves a task by id with its project name and slug joined.
// Returns ErrNotFound if missing.
func (s *Store) GetTask(ctx context.Context, id string) (*models.Task, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks t JOIN projects p ON p.id = t.project_id
		WHERE t.id = ?`, id)
	return scanTask(row)
}

// likeEscaper neutralizes the LIKE wildcards in a search string so a
// literal "100%" or "snake_case" matches only itself.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// TaskFilter configures ListTasks.
type TaskFilter struct {
	// ProjectSlug restricts to one project (empty = all projects).
	ProjectSlug string
	// Done filters by done state (nil = both).
	Done *bool
	// UrgentOrOverdue restricts to tasks flagged urgent or ranked at
	// least urgent by the priority engine.
	UrgentOrOverdue bool
	// Search restricts to descriptions containing the substring,
	// case-insensitively.
	Search string
	// Limit restricts the number of results (0 = no limit).
	Limit int
}

// ListTasks returns tasks matching the filter, ordered by descending
// priority rank, then position, then creation time.
func (s *Store) ListTasks(ctx context.Context, filter TaskFilter) ([]*models.Task, error) {
	var conditions []string
	var args []any

	if filter.ProjectSlug != "" {
		conditions = append(conditions, "p.slug = ?")
		args = append(args, filter.ProjectSlug)
	}
	if filter.Done != nil {
		conditions = append(conditions, "t.done = ?")
		args = append(args, boolToInt(*filter.Done))
	}
	if filter.UrgentOrOverdue {
		conditions = append(conditions, "(t.urgent = 1 OR t.priority_score >= ?)")
		args = append(args, priority.ScoreUrgent)
	}
	if filter.Search != "" {
		conditions = append(conditions, `LOWER(t.description) LIKE '%' || ? || '%' ESCAPE '\'`)
		args = append(args, likeEscaper.Replace(strings.ToLower(filter.Search)))
	}

	query := `
		SELECT ` + taskColumns + `
		FROM tasks t JOIN projects p ON p.id = t.project_id
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY t.priority_score DESC, t.position ASC, t.created_at ASC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

// ListCompletedSince returns tasks completed on or after the given date.
func (s *Store) ListCompletedSince(ctx context.Context, since time.Time) ([]*models.Task, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks t JOIN projects p ON p.id = t.project_id
		WHERE t.done = 1 AND t.done_date >= ?
		ORDER BY t.done_date DESC, t.created_at ASC`,
		models.DateOnly(since).Format(dateFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed tasks: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

// TaskUpdate describes the fields to change on a task. Nil fields are left
// untouched. ClearDue removes an existing due date. The priority rank and
// completion date are derived by the store and cannot be set here.
type TaskUpdate struct {
	Description   *string
	Done          *bool
	Due           *time.Time
	ClearDue      bool
	Urgent        *bool
	Effort        *string
	Notes         *string
	Position      *int
	ProjectID     *string
	EffortMinutes *int
	ActualMinutes *int
}

// UpdateTask applies the update as one atomic step: load the current row,
// apply the changed fields, maintain the done/done_date coupling, recompute
// the priority rank, write the row, and append exactly one activity entry
// classified in order: completed (done false to true), moved (project
// changed), else updated.
//
// Concurrent updates to the same task are serialized by SQLite; whichever
// transaction commits last wins wholesale, and its values are the ones the
// priority engine's recomputation reflects.
func (s *Store) UpdateTask(ctx context.Context, id string, u TaskUpdate) (*models.Task, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	t, err := scanTask(tx.QueryRowContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks t JOIN projects p ON p.id = t.project_id
		WHERE t.id = ?`, id))
	if err != nil {
		return nil, err
	}

	wasDone := t.Done
	oldProject := t.ProjectID

	if u.Description != nil {
		if strings.TrimSpace(*u.Description) == "" {
			return nil, fmt.Errorf("%w: task description is empty", ErrValidation)
		}
		t.Description = strings.TrimSpace(*u.Description)
	}
	if u.Done != nil {
		t.Done = *u.Done
	}
	if u.ClearDue {
		t.Due = nil
	} else if u.Due != nil {
		due := models.DateOnly(*u.Due)
		t.Due = &due
	}
	if u.Urgent != nil {
		t.Urgent = *u.Urgent
	}
	if u.Effort != nil {
		t.Effort = *u.Effort
	}
	if u.Notes != nil {
		t.Notes = *u.Notes
	}
	if u.Position != nil {
		t.Position = *u.Position
	}
	if u.EffortMinutes != nil {
		t.EffortMinutes = u.EffortMinutes
	}
	if u.ActualMinutes != nil {
		t.ActualMinutes = u.ActualMinutes
	}
	if u.ProjectID != nil && *u.ProjectID != t.ProjectID {
		var name, slug string
		err := tx.QueryRowContext(ctx,
			`SELECT name, slug FROM projects WHERE id = ?`, *u.ProjectID).
			Scan(&name, &slug)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: project %s", ErrNotFound, *u.ProjectID)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to resolve project: %w", err)
		}
		t.ProjectID = *u.ProjectID
		t.ProjectName = name
		t.ProjectSlug = slug
	}

	// done_date is set iff done: marking done stamps today, unmarking
	// clears it.
	if t.Done && !wasDone {
		day := s.today()
		t.DoneDate = &day
	}
	if !t.Done {
		t.DoneDate = nil
	}

	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	t.PriorityScore = priority.Score(t.Done, t.Due, t.Urgent, s.today())
	t.UpdatedAt = s.now()

	_, err = tx.ExecContext(ctx, `
		UPDATE tasks SET
			project_id = ?, description = ?, done = ?, due = ?,
			urgent = ?, effort = ?, position = ?, priority_score = ?,
			notes = ?, effort_minutes = ?, actual_minutes = ?,
			done_date = ?, updated_at = ?
		WHERE id = ?`,
		t.ProjectID, t.Description, boolToInt(t.Done), dateToNull(t.Due),
		boolToInt(t.Urgent), t.Effort, t.Position, t.PriorityScore,
		t.Notes, intToNull(t.EffortMinutes), intToNull(t.ActualMinutes),
		dateToNull(t.DoneDate), t.UpdatedAt.Format(timestampFormat),
		t.ID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY") {
			return nil, fmt.Errorf("%w: project %s is gone", ErrIntegrity, t.ProjectID)
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	action := models.ActionUpdated
	context := map[string]string{"description": t.Description}
	switch {
	case t.Done && !wasDone:
		action = models.ActionCompleted
	case t.ProjectID != oldProject:
		action = models.ActionMoved
		context = map[string]string{"from": oldProject, "to": t.ProjectID}
	}
	if err := s.appendActivity(ctx, tx, t.ID, action, context); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit task update: %w", err)
	}

	s.publish(bus.TableTasks)
	return t, nil
}

// CompleteTask marks the task done.
func (s *Store) CompleteTask(ctx context.Context, id string) (*models.Task, error) {
	done := true
	return s.UpdateTask(ctx, id, TaskUpdate{Done: &done})
}

// UncompleteTask reopens a done task, clearing its completion date.
func (s *Store) UncompleteTask(ctx context.Context, id string) (*models.Task, error) {
	done := false
	return s.UpdateTask(ctx, id, TaskUpdate{Done: &done})
}

// MoveTask moves the task into the project with the given slug.
// Unlike AddTask, the target project must already exist.
func (s *Store) MoveTask(ctx context.Context, id, projectSlug string) (*models.Task, error) {
	proj, err := s.GetProjectBySlug(ctx, projectSlug)
	if err != nil {
		return nil, err
	}
	return s.UpdateTask(ctx, id, TaskUpdate{ProjectID: &proj.ID})
}

// DeleteTask removes the task and, via cascade, its activity entries.
// Returns ErrNotFound if the task doesn't exist.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: task %s", ErrNotFound, id)
	}

	s.publish(bus.TableTasks)
	return nil
}

// Counts summarizes the open task list for the board header.
type Counts struct {
	Total   int
	Overdue int
	Urgent  int
	DueSoon int
}

// GetCounts tallies open tasks by priority rank.
func (s *Store) GetCounts(ctx context.Context) (*Counts, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT priority_score, COUNT(*) FROM tasks
		WHERE done = 0 GROUP BY priority_score`)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	defer rows.Close()

	var c Counts
	for rows.Next() {
		var score, n int
		if err := rows.Scan(&score, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		c.Total += n
		switch score {
		case priority.ScoreOverdue:
			c.Overdue += n
		case priority.ScoreUrgent:
			c.Urgent += n
		case priority.ScoreDueSoon:
			c.DueSoon += n
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating counts: %w", err)
	}
	return &c, nil
}

// scanTask reads one joined task row.
func scanTask(row scanner) (*models.Task, error) {
	var t models.Task
	var done, urgent int
	var due, doneDate sql.NullString
	var effortMinutes, actualMinutes sql.NullInt64
	var source, createdAt, updatedAt string

	err := row.Scan(
		&t.ID, &t.ProjectID, &t.Description, &done, &due, &urgent,
		&t.Effort, &t.Position, &t.PriorityScore, &t.Notes,
		&t.RecurringRule, &effortMinutes, &actualMinutes, &source,
		&doneDate, &createdAt, &updatedAt, &t.ProjectName, &t.ProjectSlug,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: task", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan task: %w", err)
	}

	t.Done = done != 0
	t.Urgent = urgent != 0
	t.Due = nullToDate(due)
	t.DoneDate = nullToDate(doneDate)
	t.EffortMinutes = nullToInt(effortMinutes)
	t.ActualMinutes = nullToInt(actualMinutes)
	t.Source = models.Source(source)
	t.CreatedAt = parseTimestamp(createdAt)
	t.UpdatedAt = parseTimestamp(updatedAt)
	return &t, nil
}

// scanTasks reads all joined task rows.
func scanTasks(rows *sql.Rows) ([]*models.Task, error) {
	var tasks []*models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}
	return tasks, nil
}

// humanizeSlug derives a display name from a slug: "side-projects"
// becomes "Side Projects".
func humanizeSlug(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool {
		return r == '-' || r == '_'
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
