// Package importer moves whole record sets between the store and markdown
// backup files: one file per project, named after the project slug.
//
// Import supports a preview (dry-run) mode that reports every record it
// would create without committing any of them. Preview and commit compute
// identical decisions from identical input: decisions are computed for all
// files first and only then applied, so no partial state affects later
// files. Import is idempotent — a task is identified within its project by
// its (description, done) tuple, and re-importing an unchanged file
// creates nothing.
package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/schwesti/todo/internal/markdown"
	"github.com/schwesti/todo/internal/models"
	"github.com/schwesti/todo/internal/store"
)

// Actions an import decision can take for one record.
const (
	ActionCreate = "create"
	ActionSkip   = "skip"
)

// TaskDecision is the planned outcome for one decoded record.
type TaskDecision struct {
	Record markdown.Record
	Action string
}

// ProjectPlan is the planned outcome for one file.
type ProjectPlan struct {
	File          string
	Name          string
	Slug          string
	CreateProject bool
	Tasks         []TaskDecision
}

// Result summarizes an import run.
type Result struct {
	DryRun          bool
	Projects        []ProjectPlan
	ProjectsCreated int
	TasksCreated    int
	TasksSkipped    int
}

// Options configures an import run.
type Options struct {
	// DryRun computes and reports decisions without writing anything.
	DryRun bool
}

// Import reads path (a .md file or a directory of them) into the store.
// The inbox file, when present in a directory, is processed first so the
// reserved project keeps its position.
func Import(ctx context.Context, st *store.Store, path string, opts Options) (*Result, error) {
	files, err := collectFiles(path)
	if err != nil {
		return nil, err
	}

	result := &Result{DryRun: opts.DryRun}

	// Phase one: decode everything and decide, touching nothing.
	for _, file := range files {
		plan, err := planFile(ctx, st, file)
		if err != nil {
			return nil, err
		}
		result.Projects = append(result.Projects, *plan)
		for _, d := range plan.Tasks {
			if d.Action == ActionCreate {
				result.TasksCreated++
			} else {
				result.TasksSkipped++
			}
		}
		if plan.CreateProject {
			result.ProjectsCreated++
		}
	}

	if opts.DryRun {
		return result, nil
	}

	// Phase two: apply exactly the decisions from phase one.
	for _, plan := range result.Projects {
		proj, err := st.GetOrCreateProject(ctx, plan.Name, plan.Slug)
		if err != nil {
			return nil, err
		}
		for i, d := range plan.Tasks {
			if d.Action != ActionCreate {
				continue
			}
			rec := d.Record
			_, err := st.AddTask(ctx, store.AddTaskParams{
				ProjectID:   proj.ID,
				Description: rec.Description,
				Due:         rec.Due,
				Urgent:      rec.Urgent,
				Effort:      rec.Effort,
				Position:    i,
				Source:      models.SourceImport,
				Done:        rec.Done,
				DoneDate:    rec.DoneDate,
			})
			if err != nil {
				return nil, fmt.Errorf("%s: %w", plan.File, err)
			}
		}
	}

	return result, nil
}

// planFile decodes one file and decides, per record, whether it would be
// created or skipped as already present.
func planFile(ctx context.Context, st *store.Store, file string) (*ProjectPlan, error) {
	f, err := os.Open(file) // #nosec G304 - controlled path from CLI
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", file, err)
	}
	defer f.Close()

	doc, err := markdown.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(file), err)
	}

	slug := strings.TrimSuffix(filepath.Base(file), ".md")
	name := doc.Name
	if name == "" {
		name = nameFromSlug(slug)
	}

	plan := &ProjectPlan{
		File: filepath.Base(file),
		Name: name,
		Slug: slug,
	}

	// Existing (description, done) tuples in this project, if it exists.
	existing := make(map[string]bool)
	_, err = st.GetProjectBySlug(ctx, slug)
	switch {
	case errors.Is(err, store.ErrNotFound):
		plan.CreateProject = true
	case err != nil:
		return nil, err
	default:
		tasks, err := st.ListTasks(ctx, store.TaskFilter{ProjectSlug: slug})
		if err != nil {
			return nil, err
		}
		for _, t := range tasks {
			existing[taskKey(t.Description, t.Done)] = true
		}
	}

	for _, rec := range doc.Tasks {
		key := taskKey(rec.Description, rec.Done)
		action := ActionCreate
		if existing[key] {
			action = ActionSkip
		}
		existing[key] = true // duplicate lines within one file import once
		plan.Tasks = append(plan.Tasks, TaskDecision{Record: rec, Action: action})
	}

	return plan, nil
}

// Export writes one markdown file per project into dir, named after the
// project slug. Archived projects are exported too; backups are complete.
// It returns the number of files written.
//
// Export is a best-effort point-in-time view: a write that lands while the
// export walks the projects may or may not be reflected.
func Export(ctx context.Context, st *store.Store, dir string) (int, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create export directory: %w", err)
	}

	projects, err := st.ListProjects(ctx, true)
	if err != nil {
		return 0, err
	}

	written := 0
	for _, p := range projects {
		tasks, err := st.ListTasks(ctx, store.TaskFilter{ProjectSlug: p.Slug})
		if err != nil {
			return written, err
		}

		doc := &markdown.Document{Name: p.Name}
		for _, t := range tasks {
			doc.Tasks = append(doc.Tasks, markdown.Record{
				Description: t.Description,
				Done:        t.Done,
				Due:         t.Due,
				Urgent:      t.Urgent,
				Effort:      t.Effort,
				DoneDate:    t.DoneDate,
			})
		}

		var b strings.Builder
		if err := markdown.Encode(&b, doc); err != nil {
			return written, err
		}

		path := filepath.Join(dir, p.Slug+".md")
		if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written++
	}

	return written, nil
}

// collectFiles resolves path to an ordered list of markdown files.
func collectFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if !info.IsDir() {
		return []string{path}, nil
	}

	matches, err := filepath.Glob(filepath.Join(path, "*.md"))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", path, err)
	}
	sort.Strings(matches)

	// Inbox first so the reserved project keeps its position.
	ordered := make([]string, 0, len(matches))
	for _, m := range matches {
		if filepath.Base(m) == models.InboxSlug+".md" {
			ordered = append(ordered, m)
		}
	}
	for _, m := range matches {
		if filepath.Base(m) != models.InboxSlug+".md" {
			ordered = append(ordered, m)
		}
	}
	return ordered, nil
}

// taskKey is the identity of a task within its project for idempotent
// import purposes.
func taskKey(description string, done bool) string {
	return fmt.Sprintf("%s\x00%t", description, done)
}

// nameFromSlug derives a display name when the file has no heading:
// "side-projects" becomes "Side Projects".
func nameFromSlug(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool {
		return r == '-' || r == '_'
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
