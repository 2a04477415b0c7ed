package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/schwesti/todo/internal/bus"
	"github.com/schwesti/todo/internal/notify"
	"github.com/schwesti/todo/internal/store"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print change signals as other processes write the database",
	Long: `Watch the shared database and print a line whenever a table changes.

Signals carry table identity only; a burst of writes may coalesce into a
single line. Mostly useful for debugging the fan-out path.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		b := bus.New()
		st, err := store.OpenWithConfig(cfg.DBPath, &store.Config{Bus: b})
		if err != nil {
			fatal("failed to open database %s: %v", cfg.DBPath, err)
		}
		defer st.Close()

		notifier, err := notify.New(st, b)
		if err != nil {
			fatal("failed to create notifier: %v", err)
		}
		if err := notifier.Start(); err != nil {
			fatal("failed to start notifier: %v", err)
		}
		defer notifier.Stop()

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		for _, table := range []string{bus.TableProjects, bus.TableTasks} {
			sub := b.Subscribe(table)
			go func() {
				defer b.Unsubscribe(sub)
				for {
					select {
					case <-ctx.Done():
						return
					case <-sub.C():
						fmt.Printf("%s  %s changed\n", time.Now().Format("15:04:05"), sub.Table())
					}
				}
			}()
		}

		fmt.Printf("Watching %s (Ctrl+C to stop)\n", cfg.DBPath)
		<-ctx.Done()
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
