package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizmentor/internal/app"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Take tests in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// The TUI owns the terminal, so logs go to a file or nowhere.
		logFile, _ := cmd.Flags().GetString("log-file")
		if logFile != "" {
			f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer f.Close()
			slog.SetDefault(consoleLogger(f))
		} else {
			slog.SetDefault(slog.New(slog.DiscardHandler))
		}

		st, cfg, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		eng, err := buildEngine(ctx, st, cfg)
		if err != nil {
			return err
		}

		userID, _ := cmd.Flags().GetInt64("user")
		err = app.Run(ctx, app.Options{
			Engine: eng.controller,
			Users:  st.Users(),
			UserID: userID,
		})

		// A console run has no scheduler; give queued records one more try.
		if _, ferr := eng.controller.Outbox().Flush(ctx); ferr != nil {
			fmt.Fprintf(os.Stderr, "warning: %d test results could not be saved: %v\n",
				eng.controller.Outbox().Len(), ferr)
		}
		return err
	},
}

// consoleLogger writes to w at the level chosen with --log-level.
func consoleLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

func init() {
	consoleCmd.Flags().Int64("user", 1, "Local learner id")
	consoleCmd.Flags().String("log-file", "", "Write logs to this file")
}
