package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/schwesti/todo/internal/importer"
)

var flagImportDryRun bool

var importCmd = &cobra.Command{
	Use:   "import <file-or-dir>",
	Short: "Import tasks from markdown files",
	Long: `Import tasks from a markdown file or a directory of them, one file
per project named after the project slug.

Import is idempotent: a task already present in its project (same
description and done state) is skipped, so re-importing an unchanged
backup creates nothing. With --dry-run every decision is reported and
nothing is written; the committing run applies exactly the same decisions.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st, _ := openStore()
		defer st.Close()

		result, err := importer.Import(cmd.Context(), st, args[0], importer.Options{
			DryRun: flagImportDryRun,
		})
		if err != nil {
			fatal("%v", err)
		}

		for _, plan := range result.Projects {
			note := ""
			if plan.CreateProject {
				note = " (new project)"
			}
			creates, skips := 0, 0
			for _, d := range plan.Tasks {
				if d.Action == importer.ActionCreate {
					creates++
				} else {
					skips++
				}
			}
			fmt.Printf("  %s → %s%s: %d to create, %d already present\n",
				plan.File, plan.Name, note, creates, skips)
		}

		if result.DryRun {
			fmt.Printf("\n[dry run] Would create %d project(s) and %d task(s). Nothing written.\n",
				result.ProjectsCreated, result.TasksCreated)
			return
		}
		fmt.Printf("\nCreated %d project(s) and %d task(s), skipped %d.\n",
			result.ProjectsCreated, result.TasksCreated, result.TasksSkipped)
	},
}

func init() {
	importCmd.Flags().BoolVar(&flagImportDryRun, "dry-run", false, "Report decisions without writing")

	rootCmd.AddCommand(importCmd)
}
