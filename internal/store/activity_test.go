package store

import (
	"context"
	"testing"

	"github.com/schwesti/todo/internal/models"
)

func TestListActivityOldestFirst(t *testing.T) {
	st, _ := openTestStore(t)
	ctx := context.Background()

	task, err := st.AddTask(ctx, AddTaskParams{Description: "eventful"})
	if err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}
	if _, err := st.CompleteTask(ctx, task.ID); err != nil {
		t.Fatalf("CompleteTask failed: %v", err)
	}
	if _, err := st.UncompleteTask(ctx, task.ID); err != nil {
		t.Fatalf("UncompleteTask failed: %v", err)
	}

	entries, err := st.ListActivity(ctx, task.ID)
	if err != nil {
		t.Fatalf("ListActivity failed: %v", err)
	}

	want := []models.Action{models.ActionCreated, models.ActionCompleted, models.ActionUpdated}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d", len(entries), len(want))
	}
	for i, action := range want {
		if entries[i].Action != action {
			t.Errorf("entry %d action = %s, want %s", i, entries[i].Action, action)
		}
		if entries[i].TaskID != task.ID {
			t.Errorf("entry %d task id = %s", i, entries[i].TaskID)
		}
	}
}

func TestListRecentActivityNewestFirst(t *testing.T) {
	st, _ := openTestStore(t)
	ctx := context.Background()

	a, _ := st.AddTask(ctx, AddTaskParams{Description: "first"})
	b, _ := st.AddTask(ctx, AddTaskParams{Description: "second"})

	entries, err := st.ListRecentActivity(ctx, 1)
	if err != nil {
		t.Fatalf("ListRecentActivity failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].TaskID != b.ID {
		t.Errorf("most recent entry belongs to %s, want %s", entries[0].TaskID, b.ID)
	}
	_ = a
}
