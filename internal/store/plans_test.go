package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSaveDailyPlanReplacesSameDate(t *testing.T) {
	st, _ := openTestStore(t)
	ctx := context.Background()

	day := time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC) // time of day irrelevant

	first, err := st.SaveDailyPlan(ctx, day, "morning: inbox zero")
	if err != nil {
		t.Fatalf("SaveDailyPlan failed: %v", err)
	}
	second, err := st.SaveDailyPlan(ctx, day, "morning: taxes instead")
	if err != nil {
		t.Fatalf("second SaveDailyPlan failed: %v", err)
	}
	if second.Content != "morning: taxes instead" {
		t.Errorf("content = %q", second.Content)
	}

	got, err := st.GetDailyPlan(ctx, day)
	if err != nil {
		t.Fatalf("GetDailyPlan failed: %v", err)
	}
	if got.Content != second.Content {
		t.Errorf("stored content = %q, want the later save", got.Content)
	}
	_ = first
}

func TestDailyPlansAreKeyedByDate(t *testing.T) {
	st, _ := openTestStore(t)
	ctx := context.Background()

	if _, err := st.SaveDailyPlan(ctx, time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC), "saturday"); err != nil {
		t.Fatalf("SaveDailyPlan failed: %v", err)
	}
	if _, err := st.SaveDailyPlan(ctx, time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC), "sunday"); err != nil {
		t.Fatalf("SaveDailyPlan failed: %v", err)
	}

	got, err := st.GetDailyPlan(ctx, time.Date(2026, 2, 14, 23, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("GetDailyPlan failed: %v", err)
	}
	if got.Content != "saturday" {
		t.Errorf("content = %q, want saturday", got.Content)
	}
}

func TestGetDailyPlanNotFound(t *testing.T) {
	st, _ := openTestStore(t)

	_, err := st.GetDailyPlan(context.Background(), time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}
