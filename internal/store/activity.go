package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/schwesti/todo/internal/models"
)

// appendActivity inserts one audit entry inside the caller's transaction.
// The entry commits or rolls back together with the triggering write; it
// never lands on its own.
func (s *Store) appendActivity(ctx context.Context, tx *sql.Tx, taskID string, action models.Action, context map[string]string) error {
	payload, err := json.Marshal(context)
	if err != nil {
		return fmt.Errorf("failed to marshal activity context: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO activity (id, task_id, action, context, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), taskID, string(action), string(payload),
		s.now().Format(timestampFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to append activity: %w", err)
	}
	return nil
}

// ListActivity returns the audit trail for one task, oldest first.
func (s *Store) ListActivity(ctx context.Context, taskID string) ([]*models.ActivityEntry, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, task_id, action, context, created_at
		FROM activity WHERE task_id = ?
		ORDER BY created_at ASC, id ASC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	return scanActivity(rows)
}

// ListRecentActivity returns the newest entries across all tasks, for
// rendering a timeline. Limit 0 means no limit.
func (s *Store) ListRecentActivity(ctx context.Context, limit int) ([]*models.ActivityEntry, error) {
	query := `
		SELECT id, task_id, action, context, created_at
		FROM activity
		ORDER BY created_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent activity: %w", err)
	}
	defer rows.Close()

	return scanActivity(rows)
}

// scanActivity reads all activity rows.
func scanActivity(rows *sql.Rows) ([]*models.ActivityEntry, error) {
	var entries []*models.ActivityEntry
	for rows.Next() {
		var e models.ActivityEntry
		var action, payload, createdAt string

		if err := rows.Scan(&e.ID, &e.TaskID, &action, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}

		e.Action = models.Action(action)
		e.CreatedAt = parseTimestamp(createdAt)
		if payload != "" {
			if err := json.Unmarshal([]byte(payload), &e.Context); err != nil {
				return nil, fmt.Errorf("failed to unmarshal activity context: %w", err)
			}
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity: %w", err)
	}
	return entries, nil
}
