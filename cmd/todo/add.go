package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/schwesti/todo/internal/dates"
	"github.com/schwesti/todo/internal/models"
	"github.com/schwesti/todo/internal/store"
)

var (
	flagAddProject string
	flagAddDue     string
	flagAddUrgent  bool
	flagAddEffort  string
	flagAddNotes   string
)

var addCmd = &cobra.Command{
	Use:   "add <description>",
	Short: "Add a task",
	Long: `Add a task to a project (or the inbox when no project is given).

Due dates accept ISO form or natural words:
  todo add "Write proposal" --due 2026-02-20
  todo add "Call dentist" --due tomorrow --urgent
  todo add "Review budget" -p work --due friday --effort 2h

An unknown project slug creates the project on the fly.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st, _ := openStore()
		defer st.Close()

		var due *time.Time
		if flagAddDue != "" {
			d, err := dates.Parse(flagAddDue, time.Now())
			if err != nil {
				fatal("%v", err)
			}
			due = &d
		}

		task, err := st.AddTask(cmd.Context(), store.AddTaskParams{
			ProjectSlug: flagAddProject,
			Description: strings.Join(args, " "),
			Due:         due,
			Urgent:      flagAddUrgent,
			Effort:      flagAddEffort,
			Notes:       flagAddNotes,
			Source:      models.SourceCLI,
		})
		if err != nil {
			fatal("%v", err)
		}

		fmt.Printf("Added to %s: %s\n", task.ProjectName, task.Description)
	},
}

func init() {
	addCmd.Flags().StringVarP(&flagAddProject, "project", "p", "", "Project slug (default: inbox)")
	addCmd.Flags().StringVarP(&flagAddDue, "due", "d", "", "Due date (2026-02-20, today, friday, ...)")
	addCmd.Flags().BoolVarP(&flagAddUrgent, "urgent", "u", false, "Flag the task urgent")
	addCmd.Flags().StringVarP(&flagAddEffort, "effort", "e", "", "Effort estimate (2h, 30m, ...)")
	addCmd.Flags().StringVar(&flagAddNotes, "notes", "", "Free-form notes")

	rootCmd.AddCommand(addCmd)
}
