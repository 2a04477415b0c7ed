package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/schwesti/todo/internal/config"
	"github.com/schwesti/todo/internal/models"
	"github.com/schwesti/todo/internal/store"
)

var flagDB string

var rootCmd = &cobra.Command{
	Use:   "todo",
	Short: "Shared task list for terminal, chat-bot, and browser board",
	Long: `todo manages a personal task list stored in a shared SQLite database.

The same database is read and written concurrently by this CLI, a chat-bot
process, and any number of browser board sessions. Changes made by one
client are pushed to the others; no client holds a lock.

Projects are named buckets identified by a url-safe slug. Tasks without a
project land in the reserved inbox. Every task carries a derived priority
rank (overdue > urgent > due soon) that drives list ordering.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "Path to the shared database file (overrides config)")
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fatal("failed to load config: %v", err)
	}
	if flagDB != "" {
		cfg.DBPath = flagDB
	}
	return cfg
}

// openStore opens the shared database from config. Callers must Close.
func openStore() (*store.Store, *config.Config) {
	cfg := loadConfig()
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		fatal("failed to open database %s: %v", cfg.DBPath, err)
	}
	return st, cfg
}

// findTask resolves a task from an id or a free-text search over open
// tasks. Fuzzy matching is a CLI convenience; the store itself only deals
// in ids.
func findTask(ctx context.Context, st *store.Store, query string, done bool) (*models.Task, error) {
	if t, err := st.GetTask(ctx, query); err == nil {
		return t, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	matches, err := st.ListTasks(ctx, store.TaskFilter{Done: &done, Search: query})
	if err != nil {
		return nil, err
	}

	switch len(matches) {
	case 0:
		state := "open"
		if done {
			state = "done"
		}
		return nil, fmt.Errorf("no %s tasks matching %q", state, query)
	case 1:
		return matches[0], nil
	default:
		var lines []string
		for i, t := range matches {
			if i >= 10 {
				break
			}
			lines = append(lines, fmt.Sprintf("  %d. %s (%s)", i+1, t.Description, t.ProjectName))
		}
		return nil, fmt.Errorf("multiple matches for %q:\n%s\nbe more specific", query, strings.Join(lines, "\n"))
	}
}

// slugify derives a url-safe slug from a project name.
func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
