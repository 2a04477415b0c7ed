package board

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/schwesti/todo/internal/bus"
	"github.com/schwesti/todo/internal/store"
)

func testServer(t *testing.T) (*Server, *store.Store, *bus.Bus) {
	t.Helper()

	b := bus.New()
	st, err := store.OpenWithConfig(filepath.Join(t.TempDir(), "todo.db"), &store.Config{
		Bus:    b,
		Logger: log.New(io.Discard, "", 0),
	})
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	server := NewServer(st, b, &Config{
		Port:   0, // random available port
		Logger: log.New(io.Discard, "", 0),
	})
	if err := server.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}
	t.Cleanup(func() { server.Stop() })

	time.Sleep(100 * time.Millisecond)
	return server, st, b
}

func TestServerStartStop(t *testing.T) {
	server, _, _ := testServer(t)
	if server.GetAddr() == "" {
		t.Fatal("server address is empty")
	}
}

func TestWebSocketReceivesChangeSignal(t *testing.T) {
	server, st, _ := testServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws://" + server.GetAddr() + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("failed to connect WebSocket: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	if count := server.ClientCount(); count != 1 {
		t.Errorf("ClientCount = %d, want 1", count)
	}

	// A store write publishes on the bus, which the server relays to
	// connected clients as a table_changed push.
	if _, err := st.AddTask(ctx, store.AddTaskParams{Description: "show up on the board"}); err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("failed to read push: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("failed to unmarshal message: %v", err)
	}
	if msg.Type != MessageTypeTableChanged {
		t.Errorf("message type = %s, want %s", msg.Type, MessageTypeTableChanged)
	}
	if msg.Table != bus.TableTasks {
		t.Errorf("message table = %s, want tasks", msg.Table)
	}
	if msg.Timestamp.IsZero() {
		t.Error("message timestamp is zero")
	}
}

func TestMultipleClientsAllReceiveBroadcast(t *testing.T) {
	server, _, _ := testServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws://" + server.GetAddr() + "/ws"
	numClients := 3
	conns := make([]*websocket.Conn, numClients)
	for i := range conns {
		conn, _, err := websocket.Dial(ctx, wsURL, nil)
		if err != nil {
			t.Fatalf("failed to connect client %d: %v", i, err)
		}
		defer conn.Close(websocket.StatusNormalClosure, "")
		conns[i] = conn
	}

	if count := server.ClientCount(); count != numClients {
		t.Errorf("ClientCount = %d, want %d", count, numClients)
	}

	server.Broadcast(Message{Type: MessageTypeTableChanged, Table: bus.TableProjects})

	for i, conn := range conns {
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("client %d read failed: %v", i, err)
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("client %d unmarshal failed: %v", i, err)
		}
		if msg.Table != bus.TableProjects {
			t.Errorf("client %d got table %s", i, msg.Table)
		}
	}
}

func TestTasksEndpoint(t *testing.T) {
	server, st, _ := testServer(t)
	ctx := context.Background()

	if _, err := st.AddTask(ctx, store.AddTaskParams{Description: "visible", Urgent: true}); err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}
	doneTask, err := st.AddTask(ctx, store.AddTaskParams{Description: "hidden by default"})
	if err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}
	if _, err := st.CompleteTask(ctx, doneTask.ID); err != nil {
		t.Fatalf("CompleteTask failed: %v", err)
	}

	var tasks []taskJSON
	getJSON(t, "http://"+server.GetAddr()+"/api/tasks", &tasks)
	if len(tasks) != 1 || tasks[0].Description != "visible" {
		t.Errorf("default task list = %+v", tasks)
	}

	getJSON(t, "http://"+server.GetAddr()+"/api/tasks?done=all", &tasks)
	if len(tasks) != 2 {
		t.Errorf("done=all returned %d tasks, want 2", len(tasks))
	}

	getJSON(t, "http://"+server.GetAddr()+"/api/tasks?urgent=true", &tasks)
	if len(tasks) != 1 || !tasks[0].Urgent {
		t.Errorf("urgent list = %+v", tasks)
	}
}

func TestProjectsAndCountsEndpoints(t *testing.T) {
	server, st, _ := testServer(t)
	ctx := context.Background()

	if _, err := st.CreateProject(ctx, "Work", "work"); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	if _, err := st.AddTask(ctx, store.AddTaskParams{Description: "pressing", Urgent: true}); err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}

	var projects []projectJSON
	getJSON(t, "http://"+server.GetAddr()+"/api/projects", &projects)
	if len(projects) != 2 {
		t.Fatalf("got %d projects, want inbox and work", len(projects))
	}
	if projects[0].Slug != "inbox" {
		t.Errorf("first project = %s, want inbox", projects[0].Slug)
	}

	var counts map[string]int
	getJSON(t, "http://"+server.GetAddr()+"/api/counts", &counts)
	if counts["total"] != 1 || counts["urgent"] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestHealthEndpoint(t *testing.T) {
	server, _, _ := testServer(t)

	var health map[string]any
	getJSON(t, "http://"+server.GetAddr()+"/health", &health)
	if health["status"] != "ok" {
		t.Errorf("health = %v", health)
	}
}

func getJSON(t *testing.T, url string, v any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("GET %s: %s: %s", url, resp.Status, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("GET %s: bad JSON: %v", url, err)
	}
}
