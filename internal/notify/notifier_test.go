package notify

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/schwesti/todo/internal/bus"
	"github.com/schwesti/todo/internal/store"
)

func testConfig() *Config {
	return &Config{
		PollInterval: 50 * time.Millisecond,
		Debounce:     20 * time.Millisecond,
		Logger:       log.New(io.Discard, "", 0),
	}
}

func openStoreAt(t *testing.T, path string) *store.Store {
	t.Helper()
	st, err := store.OpenWithConfig(path, &store.Config{
		Logger: log.New(io.Discard, "", 0),
	})
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestNotifierDetectsExternalWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo.db")

	// Two independent connections to the same file, standing in for two
	// processes. The watched store never writes; only the writer does.
	watched := openStoreAt(t, path)
	writer := openStoreAt(t, path)

	b := bus.New()
	sub := b.Subscribe(bus.TableTasks)
	defer b.Unsubscribe(sub)

	n, err := NewWithConfig(watched, b, testConfig())
	if err != nil {
		t.Fatalf("NewWithConfig failed: %v", err)
	}
	if err := n.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer n.Stop()

	if _, err := writer.AddTask(context.Background(), store.AddTaskParams{
		Description: "written elsewhere",
	}); err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}

	select {
	case <-sub.C():
	case <-time.After(5 * time.Second):
		t.Fatal("external write never signaled")
	}
}

func TestNotifierPublishesPerChangedTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo.db")
	watched := openStoreAt(t, path)
	writer := openStoreAt(t, path)

	b := bus.New()
	tasksSub := b.Subscribe(bus.TableTasks)
	projectsSub := b.Subscribe(bus.TableProjects)
	defer b.Unsubscribe(tasksSub)
	defer b.Unsubscribe(projectsSub)

	n, err := NewWithConfig(watched, b, testConfig())
	if err != nil {
		t.Fatalf("NewWithConfig failed: %v", err)
	}
	if err := n.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer n.Stop()

	// A project-only write signals projects, not tasks.
	if _, err := writer.CreateProject(context.Background(), "Work", "work"); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	select {
	case <-projectsSub.C():
	case <-time.After(5 * time.Second):
		t.Fatal("project write never signaled")
	}

	select {
	case <-tasksSub.C():
		t.Fatal("project write signaled the tasks table")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestNotifierCoalescesBursts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo.db")
	watched := openStoreAt(t, path)
	writer := openStoreAt(t, path)

	b := bus.New()
	sub := b.Subscribe(bus.TableTasks)
	defer b.Unsubscribe(sub)

	n, err := NewWithConfig(watched, b, testConfig())
	if err != nil {
		t.Fatalf("NewWithConfig failed: %v", err)
	}
	if err := n.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer n.Stop()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := writer.AddTask(ctx, store.AddTaskParams{Description: "burst"}); err != nil {
			t.Fatalf("AddTask failed: %v", err)
		}
	}

	// At least one signal arrives; at-least-once delivery allows more,
	// but never zero.
	select {
	case <-sub.C():
	case <-time.After(5 * time.Second):
		t.Fatal("burst never signaled")
	}
}

func TestNotifierStartStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo.db")
	st := openStoreAt(t, path)

	n, err := NewWithConfig(st, bus.New(), testConfig())
	if err != nil {
		t.Fatalf("NewWithConfig failed: %v", err)
	}
	if err := n.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := n.Start(); err == nil {
		t.Error("second Start succeeded, want error")
	}
	if err := n.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	// Stopping twice is a no-op.
	if err := n.Stop(); err != nil {
		t.Fatalf("second Stop failed: %v", err)
	}
}
