package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm <id or search>",
	Short: "Delete a task",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st, _ := openStore()
		defer st.Close()

		task, err := findTask(cmd.Context(), st, strings.Join(args, " "), false)
		if err != nil {
			fatal("%v", err)
		}

		if err := st.DeleteTask(cmd.Context(), task.ID); err != nil {
			fatal("%v", err)
		}
		fmt.Printf("Deleted: %s\n", task.Description)
	},
}

func init() {
	rootCmd.AddCommand(rmCmd)
}
