package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var doneCmd = &cobra.Command{
	Use:   "done <id or search>",
	Short: "Mark a task done",
	Long: `Mark a task done by id or by a unique description match.

Ambiguous matches are listed instead of guessing.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st, _ := openStore()
		defer st.Close()

		task, err := findTask(cmd.Context(), st, strings.Join(args, " "), false)
		if err != nil {
			fatal("%v", err)
		}

		task, err = st.CompleteTask(cmd.Context(), task.ID)
		if err != nil {
			fatal("%v", err)
		}
		fmt.Printf("Done: %s\n", task.Description)
	},
}

var undoneCmd = &cobra.Command{
	Use:   "undone <id or search>",
	Short: "Reopen a done task",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st, _ := openStore()
		defer st.Close()

		task, err := findTask(cmd.Context(), st, strings.Join(args, " "), true)
		if err != nil {
			fatal("%v", err)
		}

		task, err = st.UncompleteTask(cmd.Context(), task.ID)
		if err != nil {
			fatal("%v", err)
		}
		fmt.Printf("Reopened: %s\n", task.Description)
	},
}

func init() {
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(undoneCmd)
}
