package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/schwesti/todo/internal/importer"
)

var exportCmd = &cobra.Command{
	Use:   "export [dir]",
	Short: "Export all projects to markdown files",
	Long: `Write one markdown file per project into the given directory
(default: the configured export directory).

The export is a best-effort point-in-time backup; a write landing while it
runs may or may not be included.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st, cfg := openStore()
		defer st.Close()

		dir := cfg.ExportDir
		if len(args) > 0 {
			dir = args[0]
		}

		n, err := importer.Export(cmd.Context(), st, dir)
		if err != nil {
			fatal("%v", err)
		}
		fmt.Printf("Exported %d project file(s) to %s\n", n, dir)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
