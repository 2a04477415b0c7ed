package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/schwesti/todo/internal/bus"
	"github.com/schwesti/todo/internal/models"
)

// projectColumns is the column list shared by all project queries.
const projectColumns = `id, name, slug, color, position, archived, created_at, updated_at`

// projectOrder places the reserved inbox first, then sorts by position.
const projectOrder = `ORDER BY CASE WHEN slug = '` + models.InboxSlug + `' THEN 0 ELSE 1 END, position ASC, name ASC`

// CreateProject creates a new project with the given name and slug.
// Position is assigned after the current last project. A duplicate slug
// fails with ErrConflict.
func (s *Store) CreateProject(ctx context.Context, name, slug string) (*models.Project, error) {
	now := s.now()
	p := &models.Project{
		ID:        uuid.NewString(),
		Name:      name,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM projects WHERE slug = ?`, slug).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check slug: %w", err)
	}
	if exists > 0 {
		return nil, fmt.Errorf("%w: project slug %q already exists", ErrConflict, slug)
	}

	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), -1) + 1 FROM projects`).Scan(&p.Position); err != nil {
		return nil, fmt.Errorf("failed to assign position: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO projects (id, name, slug, color, position, archived, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		p.ID, p.Name, p.Slug, p.Color, p.Position,
		now.Format(timestampFormat), now.Format(timestampFormat),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, fmt.Errorf("%w: project slug %q already exists", ErrConflict, slug)
		}
		return nil, fmt.Errorf("failed to insert project: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit project: %w", err)
	}

	s.publish(bus.TableProjects)
	return p, nil
}

// GetProject retrieves a project by id. Returns ErrNotFound if missing.
func (s *Store) GetProject(ctx context.Context, id string) (*models.Project, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	return scanProject(row)
}

// GetProjectBySlug retrieves a project by slug. Returns ErrNotFound if missing.
func (s *Store) GetProjectBySlug(ctx context.Context, slug string) (*models.Project, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE slug = ?`, slug)
	return scanProject(row)
}

// GetOrCreateProject returns the project with the given slug, creating it
// with the given name if it doesn't exist yet.
func (s *Store) GetOrCreateProject(ctx context.Context, name, slug string) (*models.Project, error) {
	p, err := s.GetProjectBySlug(ctx, slug)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	p, err = s.CreateProject(ctx, name, slug)
	if errors.Is(err, ErrConflict) {
		// Lost a create race with a concurrent writer; the project
		// exists now.
		return s.GetProjectBySlug(ctx, slug)
	}
	return p, err
}

// EnsureInbox guarantees the reserved inbox project exists.
func (s *Store) EnsureInbox(ctx context.Context) (*models.Project, error) {
	return s.GetOrCreateProject(ctx, "Inbox", models.InboxSlug)
}

// ListProjects returns projects with the inbox first, then by position.
// Archived projects are excluded unless includeArchived is true.
func (s *Store) ListProjects(ctx context.Context, includeArchived bool) ([]*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects `
	if !includeArchived {
		query += `WHERE archived = 0 `
	}
	query += projectOrder

	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}
	return projects, nil
}

// ProjectUpdate describes the fields to change on a project.
// Nil fields are left untouched. Slugs are immutable once created.
type ProjectUpdate struct {
	Name     *string
	Color    *string
	Position *int
	Archived *bool
}

// UpdateProject applies the update to the project with the given id.
func (s *Store) UpdateProject(ctx context.Context, id string, u ProjectUpdate) (*models.Project, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	p, err := scanProject(tx.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}

	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Color != nil {
		p.Color = *u.Color
	}
	if u.Position != nil {
		p.Position = *u.Position
	}
	if u.Archived != nil {
		p.Archived = *u.Archived
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	p.UpdatedAt = s.now()

	_, err = tx.ExecContext(ctx, `
		UPDATE projects SET name = ?, color = ?, position = ?, archived = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.Color, p.Position, boolToInt(p.Archived),
		p.UpdatedAt.Format(timestampFormat), p.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit project update: %w", err)
	}

	s.publish(bus.TableProjects)
	return p, nil
}

// DeleteProject removes the project and, via cascade, all its tasks and
// their activity entries. Returns ErrNotFound if the project doesn't exist.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: project %s", ErrNotFound, id)
	}

	s.publish(bus.TableProjects, bus.TableTasks)
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanProject reads one project row.
func scanProject(row scanner) (*models.Project, error) {
	var p models.Project
	var archived int
	var createdAt, updatedAt string

	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Color, &p.Position,
		&archived, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: project", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}

	p.Archived = archived != 0
	p.CreatedAt = parseTimestamp(createdAt)
	p.UpdatedAt = parseTimestamp(updatedAt)
	return &p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
