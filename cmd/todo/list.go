package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/schwesti/todo/internal/models"
	"github.com/schwesti/todo/internal/priority"
	"github.com/schwesti/todo/internal/store"
)

var (
	flagListProject string
	flagListAll     bool
	flagListDone    bool
	flagListUrgent  bool
)

var (
	projectStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	overdueStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	urgentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	dueSoonStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	doneStyle    = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	metaStyle    = lipgloss.NewStyle().Faint(true)
)

var listCmd = &cobra.Command{
	Use:     "list [search terms]",
	Aliases: []string{"ls"},
	Short:   "List tasks grouped by project",
	Long: `List tasks ordered by priority rank within each project.

Open tasks are shown by default; --done shows completed tasks instead and
--all shows both. Remaining arguments filter by description substring.`,
	Run: func(cmd *cobra.Command, args []string) {
		st, _ := openStore()
		defer st.Close()

		filter := store.TaskFilter{
			ProjectSlug:     flagListProject,
			UrgentOrOverdue: flagListUrgent,
			Search:          strings.Join(args, " "),
		}
		if !flagListAll {
			done := flagListDone
			filter.Done = &done
		}

		tasks, err := st.ListTasks(cmd.Context(), filter)
		if err != nil {
			fatal("%v", err)
		}
		if len(tasks) == 0 {
			fmt.Println("No tasks.")
			return
		}

		// Group by project, projects ordered by their most pressing task.
		var order []string
		grouped := make(map[string][]*models.Task)
		for _, t := range tasks {
			if _, seen := grouped[t.ProjectName]; !seen {
				order = append(order, t.ProjectName)
			}
			grouped[t.ProjectName] = append(grouped[t.ProjectName], t)
		}

		for i, name := range order {
			if i > 0 {
				fmt.Println()
			}
			fmt.Println(projectStyle.Render(name))
			for _, t := range grouped[name] {
				fmt.Println(renderTask(t))
			}
		}
	},
}

// renderTask formats one task line with its id prefix, description, and
// inline markers, styled by priority rank.
func renderTask(t *models.Task) string {
	var meta []string
	if t.Due != nil {
		meta = append(meta, "due "+t.Due.Format("2006-01-02"))
	}
	if t.Urgent {
		meta = append(meta, "urgent")
	}
	if t.Effort != "" {
		meta = append(meta, t.Effort)
	}
	if t.Done && t.DoneDate != nil {
		meta = append(meta, "done "+t.DoneDate.Format("2006-01-02"))
	}

	desc := t.Description
	switch {
	case t.Done:
		desc = doneStyle.Render(desc)
	case t.PriorityScore == priority.ScoreOverdue:
		desc = overdueStyle.Render(desc)
	case t.PriorityScore == priority.ScoreUrgent:
		desc = urgentStyle.Render(desc)
	case t.PriorityScore == priority.ScoreDueSoon:
		desc = dueSoonStyle.Render(desc)
	}

	line := fmt.Sprintf("  %s %s", metaStyle.Render(t.ID[:8]), desc)
	if len(meta) > 0 {
		line += " " + metaStyle.Render("("+strings.Join(meta, ", ")+")")
	}
	return line
}

func init() {
	listCmd.Flags().StringVarP(&flagListProject, "project", "p", "", "Only this project slug")
	listCmd.Flags().BoolVarP(&flagListAll, "all", "a", false, "Include done tasks")
	listCmd.Flags().BoolVar(&flagListDone, "done", false, "Only done tasks")
	listCmd.Flags().BoolVarP(&flagListUrgent, "urgent", "u", false, "Only urgent or overdue tasks")

	rootCmd.AddCommand(listCmd)
}
