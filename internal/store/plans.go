package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/schwesti/todo/internal/models"
)

// SaveDailyPlan stores the plan content for the given calendar date.
// At most one plan exists per date: a later save for the same date
// replaces the earlier one.
func (s *Store) SaveDailyPlan(ctx context.Context, planDate time.Time, content string) (*models.DailyPlan, error) {
	day := models.DateOnly(planDate)
	now := s.now()

	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO daily_plans (id, plan_date, content, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(plan_date) DO UPDATE SET
			content = excluded.content,
			created_at = excluded.created_at`,
		uuid.NewString(), day.Format(dateFormat), content,
		now.Format(timestampFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save daily plan: %w", err)
	}

	return s.GetDailyPlan(ctx, day)
}

// GetDailyPlan retrieves the plan for the given date.
// Returns ErrNotFound if no plan was saved for that date.
func (s *Store) GetDailyPlan(ctx context.Context, planDate time.Time) (*models.DailyPlan, error) {
	day := models.DateOnly(planDate)

	var p models.DailyPlan
	var dateStr, createdAt string
	err := s.conn.QueryRowContext(ctx, `
		SELECT id, plan_date, content, created_at
		FROM daily_plans WHERE plan_date = ?`,
		day.Format(dateFormat),
	).Scan(&p.ID, &dateStr, &p.Content, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: daily plan for %s", ErrNotFound, day.Format(dateFormat))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily plan: %w", err)
	}

	if d, err := time.Parse(dateFormat, dateStr); err == nil {
		p.PlanDate = d
	}
	p.CreatedAt = parseTimestamp(createdAt)
	return &p, nil
}
