package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/schwesti/todo/internal/dates"
)

var flagPlanDate string

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the daily plan",
	Long: `Show the free-form plan for a day (default: today).

One plan exists per calendar date; saving again replaces it.`,
	Run: func(cmd *cobra.Command, args []string) {
		st, _ := openStore()
		defer st.Close()

		day := planDate()
		p, err := st.GetDailyPlan(cmd.Context(), day)
		if err != nil {
			fatal("%v", err)
		}
		fmt.Printf("Plan for %s:\n\n%s\n", p.PlanDate.Format("2006-01-02"), p.Content)
	},
}

var planSetCmd = &cobra.Command{
	Use:   "set [content]",
	Short: "Save the daily plan",
	Long: `Save the plan for a day. Content comes from the arguments, or from
stdin when no arguments are given:

  todo plan set "morning: inbox zero, afternoon: taxes"
  cat plan.txt | todo plan set --date tomorrow`,
	Run: func(cmd *cobra.Command, args []string) {
		st, _ := openStore()
		defer st.Close()

		content := strings.Join(args, " ")
		if content == "" {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				fatal("failed to read stdin: %v", err)
			}
			content = strings.TrimSpace(string(data))
		}
		if content == "" {
			fatal("plan content is empty")
		}

		day := planDate()
		p, err := st.SaveDailyPlan(cmd.Context(), day, content)
		if err != nil {
			fatal("%v", err)
		}
		fmt.Printf("Saved plan for %s\n", p.PlanDate.Format("2006-01-02"))
	},
}

// planDate resolves the --date flag, defaulting to today.
func planDate() time.Time {
	if flagPlanDate == "" {
		return time.Now()
	}
	d, err := dates.Parse(flagPlanDate, time.Now())
	if err != nil {
		fatal("%v", err)
	}
	return d
}

func init() {
	planCmd.PersistentFlags().StringVar(&flagPlanDate, "date", "", "Plan date (default: today; accepts natural language)")

	planCmd.AddCommand(planSetCmd)
	rootCmd.AddCommand(planCmd)
}
