package board

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/schwesti/todo/internal/models"
	"github.com/schwesti/todo/internal/store"
)

// taskJSON is the wire shape of a task for board clients.
type taskJSON struct {
	ID            string  `json:"id"`
	ProjectID     string  `json:"project_id"`
	ProjectName   string  `json:"project_name"`
	ProjectSlug   string  `json:"project_slug"`
	Description   string  `json:"description"`
	Done          bool    `json:"done"`
	Due           *string `json:"due,omitempty"`
	Urgent        bool    `json:"urgent"`
	Effort        string  `json:"effort,omitempty"`
	Position      int     `json:"position"`
	PriorityScore int     `json:"priority_score"`
	Notes         string  `json:"notes,omitempty"`
	Source        string  `json:"source"`
	DoneDate      *string `json:"done_date,omitempty"`
}

// projectJSON is the wire shape of a project for board clients.
type projectJSON struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Color    string `json:"color,omitempty"`
	Position int    `json:"position"`
	Archived bool   `json:"archived"`
}

// handleTasks serves GET /api/tasks with optional project, done, and
// urgent filters. The board re-fetches this after a tasks change signal.
func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	filter := store.TaskFilter{
		ProjectSlug: r.URL.Query().Get("project"),
		Search:      r.URL.Query().Get("q"),
	}
	switch r.URL.Query().Get("done") {
	case "true":
		done := true
		filter.Done = &done
	case "false", "":
		done := false
		filter.Done = &done
	case "all":
	}
	if r.URL.Query().Get("urgent") == "true" {
		filter.UrgentOrOverdue = true
	}

	tasks, err := s.store.ListTasks(r.Context(), filter)
	if err != nil {
		s.serveError(w, err)
		return
	}

	out := make([]taskJSON, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTaskJSON(t))
	}
	s.serveJSON(w, out)
}

// handleProjects serves GET /api/projects.
func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	includeArchived := r.URL.Query().Get("archived") == "true"
	projects, err := s.store.ListProjects(r.Context(), includeArchived)
	if err != nil {
		s.serveError(w, err)
		return
	}

	out := make([]projectJSON, 0, len(projects))
	for _, p := range projects {
		out = append(out, projectJSON{
			ID:       p.ID,
			Name:     p.Name,
			Slug:     p.Slug,
			Color:    p.Color,
			Position: p.Position,
			Archived: p.Archived,
		})
	}
	s.serveJSON(w, out)
}

// handleCounts serves GET /api/counts for the board header.
func (s *Server) handleCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := s.store.GetCounts(r.Context())
	if err != nil {
		s.serveError(w, err)
		return
	}
	s.serveJSON(w, map[string]int{
		"total":    counts.Total,
		"overdue":  counts.Overdue,
		"urgent":   counts.Urgent,
		"due_soon": counts.DueSoon,
	})
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.serveJSON(w, map[string]any{
		"status":  "ok",
		"clients": s.ClientCount(),
	})
}

// handleRoot returns basic server information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
    <title>Task Board</title>
</head>
<body>
    <h1>Task Board Server</h1>
    <p>WebSocket endpoint: <code>ws://%s/ws</code></p>
    <p>Task list: <a href="/api/tasks">/api/tasks</a></p>
    <p>Projects: <a href="/api/projects">/api/projects</a></p>
    <p>Health check: <a href="/health">/health</a></p>
</body>
</html>`, r.Host)
}

func (s *Server) serveJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Printf("Failed to encode response: %v", err)
	}
}

func (s *Server) serveError(w http.ResponseWriter, err error) {
	s.logger.Printf("Request failed: %v", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func toTaskJSON(t *models.Task) taskJSON {
	return taskJSON{
		ID:            t.ID,
		ProjectID:     t.ProjectID,
		ProjectName:   t.ProjectName,
		ProjectSlug:   t.ProjectSlug,
		Description:   t.Description,
		Done:          t.Done,
		Due:           formatDate(t.Due),
		Urgent:        t.Urgent,
		Effort:        t.Effort,
		Position:      t.Position,
		PriorityScore: t.PriorityScore,
		Notes:         t.Notes,
		Source:        string(t.Source),
		DoneDate:      formatDate(t.DoneDate),
	}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}
