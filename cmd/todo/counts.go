package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var countsCmd = &cobra.Command{
	Use:   "counts",
	Short: "Show open task counts by priority",
	Run: func(cmd *cobra.Command, args []string) {
		st, _ := openStore()
		defer st.Close()

		c, err := st.GetCounts(cmd.Context())
		if err != nil {
			fatal("%v", err)
		}

		fmt.Printf("Open:     %d\n", c.Total)
		fmt.Printf("Overdue:  %d\n", c.Overdue)
		fmt.Printf("Urgent:   %d\n", c.Urgent)
		fmt.Printf("Due soon: %d\n", c.DueSoon)
	},
}

func init() {
	rootCmd.AddCommand(countsCmd)
}
