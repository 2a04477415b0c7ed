package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/schwesti/todo/internal/board"
	"github.com/schwesti/todo/internal/bus"
	"github.com/schwesti/todo/internal/notify"
	"github.com/schwesti/todo/internal/store"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Serve the browser task board",
	Long: `Start the task board server: a WebSocket endpoint that pushes
per-table change signals to connected browsers, plus the JSON API the
board re-fetches from.

Changes made by this process land on the board immediately; writes from
other processes sharing the database (the CLI, the chat-bot) are picked
up by the file watcher and pushed the same way.

Example usage:
  todo board               # serve on the configured port (default 8787)
  todo board --port 9000

Connect a WebSocket client at ws://localhost:<port>/ws.`,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetInt("port")
		cfg := loadConfig()
		if port == 0 {
			port = cfg.BoardPort
		}

		logger := log.New(os.Stderr, "[board] ", log.LstdFlags)
		if cfg.LogFile != "" {
			logger.SetOutput(&lumberjack.Logger{
				Filename:   cfg.LogFile,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     14, // days
			})
		}

		b := bus.New()
		st, err := store.OpenWithConfig(cfg.DBPath, &store.Config{Bus: b, Logger: logger})
		if err != nil {
			fatal("failed to open database %s: %v", cfg.DBPath, err)
		}
		defer st.Close()

		notifier, err := notify.NewWithConfig(st, b, &notify.Config{Logger: logger})
		if err != nil {
			fatal("failed to create notifier: %v", err)
		}
		if err := notifier.Start(); err != nil {
			fatal("failed to start notifier: %v", err)
		}
		defer notifier.Stop()

		server := board.NewServer(st, b, &board.Config{
			Port:   port,
			Logger: logger,
		})
		if err := server.Start(); err != nil {
			fatal("failed to start board server: %v", err)
		}

		fmt.Printf("Board server started on http://localhost:%d\n", port)
		fmt.Printf("WebSocket endpoint: ws://localhost:%d/ws\n", port)
		fmt.Println("\nPress Ctrl+C to stop...")

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		<-ctx.Done()

		fmt.Println("\nShutting down board server...")
		if err := server.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	boardCmd.Flags().IntP("port", "p", 0, "Port to listen on (default: configured board port)")

	rootCmd.AddCommand(boardCmd)
}
