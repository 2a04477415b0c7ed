package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var moveCmd = &cobra.Command{
	Use:   "move <id or search> <project-slug>",
	Short: "Move a task to another project",
	Long: `Move a task into an existing project.

Unlike add, move never creates projects; moving to an unknown slug fails.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		st, _ := openStore()
		defer st.Close()

		task, err := findTask(cmd.Context(), st, args[0], false)
		if err != nil {
			fatal("%v", err)
		}

		task, err = st.MoveTask(cmd.Context(), task.ID, args[1])
		if err != nil {
			fatal("%v", err)
		}
		fmt.Printf("Moved to %s: %s\n", task.ProjectName, task.Description)
	},
}

func init() {
	rootCmd.AddCommand(moveCmd)
}
