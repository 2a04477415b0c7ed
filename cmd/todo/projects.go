package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/schwesti/todo/internal/store"
)

var flagProjectsArchived bool

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List projects",
	Run: func(cmd *cobra.Command, args []string) {
		st, _ := openStore()
		defer st.Close()

		projects, err := st.ListProjects(cmd.Context(), flagProjectsArchived)
		if err != nil {
			fatal("%v", err)
		}

		for _, p := range projects {
			open := false
			tasks, err := st.ListTasks(cmd.Context(), store.TaskFilter{
				ProjectSlug: p.Slug,
				Done:        &open,
			})
			if err != nil {
				fatal("%v", err)
			}

			line := fmt.Sprintf("%s (%s) — %d open", p.Name, p.Slug, len(tasks))
			if p.Archived {
				line += " [archived]"
			}
			fmt.Println(line)
		}
	},
}

var projectsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st, _ := openStore()
		defer st.Close()

		p, err := st.CreateProject(cmd.Context(), args[0], slugify(args[0]))
		if err != nil {
			fatal("%v", err)
		}
		fmt.Printf("Created project %s (%s)\n", p.Name, p.Slug)
	},
}

var projectsArchiveCmd = &cobra.Command{
	Use:   "archive <slug>",
	Short: "Archive a project (its tasks are kept)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st, _ := openStore()
		defer st.Close()

		p, err := st.GetProjectBySlug(cmd.Context(), args[0])
		if err != nil {
			fatal("%v", err)
		}

		archived := true
		if _, err := st.UpdateProject(cmd.Context(), p.ID, store.ProjectUpdate{Archived: &archived}); err != nil {
			fatal("%v", err)
		}
		fmt.Printf("Archived %s\n", p.Name)
	},
}

var projectsRmCmd = &cobra.Command{
	Use:   "rm <slug>",
	Short: "Delete a project and all its tasks",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st, _ := openStore()
		defer st.Close()

		p, err := st.GetProjectBySlug(cmd.Context(), args[0])
		if err != nil {
			fatal("%v", err)
		}

		if err := st.DeleteProject(cmd.Context(), p.ID); err != nil {
			fatal("%v", err)
		}
		fmt.Printf("Deleted %s and its tasks\n", p.Name)
	},
}

func init() {
	projectsCmd.Flags().BoolVarP(&flagProjectsArchived, "archived", "a", false, "Include archived projects")

	projectsCmd.AddCommand(projectsAddCmd)
	projectsCmd.AddCommand(projectsArchiveCmd)
	projectsCmd.AddCommand(projectsRmCmd)
	rootCmd.AddCommand(projectsCmd)
}
