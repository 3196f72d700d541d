package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/abhisek/quizmentor/internal/config"
	"github.com/abhisek/quizmentor/internal/store"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "quizmentor",
	Short: "Adaptive assessment engine",
	Long: "QuizMentor runs short LLM-judged tests over Telegram, a JSON API or the terminal, " +
		"and turns every mistake into follow-up questions.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}
		if err := config.LoadDotEnv(files...); err != nil {
			return err
		}
		level, _ := cmd.Flags().GetString("log-level")
		return setupLogging(level)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Database DSN or SQLite file path (overrides QUIZMENTOR_DB_DSN)")
	rootCmd.PersistentFlags().String("driver", "", "Database driver: sqlite or postgres (overrides QUIZMENTOR_DB_DRIVER)")
	rootCmd.PersistentFlags().String("env-file", "", "Environment file to load (default .env)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(consoleCmd)
	rootCmd.AddCommand(topicCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// logLevel is shared by every handler the commands install.
var logLevel = new(slog.LevelVar)

func setupLogging(level string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return fmt.Errorf("invalid --log-level %q", level)
	}
	logLevel.Set(l)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
	return nil
}

// resolveDB returns the database driver and DSN. Flags win over the
// environment; a SQLite database falls back to the default XDG path.
func resolveDB(cmd *cobra.Command, cfg config.DBConfig) (driver, dsn string, err error) {
	driver, dsn = cfg.Driver, cfg.DSN
	if d, _ := cmd.Flags().GetString("driver"); d != "" {
		driver = d
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		dsn = p
	}

	if driver == "postgres" || driver == store.DriverPostgres {
		if dsn == "" {
			return "", "", fmt.Errorf("a DSN is required for the postgres driver")
		}
		return store.DriverPostgres, dsn, nil
	}
	if dsn == "" {
		dsn, err = store.DefaultDSN()
		return store.DriverSQLite, dsn, err
	}
	return store.DriverSQLite, dsn, store.EnsureDir(dsn)
}

// openStore loads the configuration and opens the database it names.
func openStore(cmd *cobra.Command) (*store.Store, config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, cfg, fmt.Errorf("load config: %w", err)
	}
	driver, dsn, err := resolveDB(cmd, cfg.DB)
	if err != nil {
		return nil, cfg, fmt.Errorf("resolve database: %w", err)
	}
	st, err := store.Open(driver, dsn)
	if err != nil {
		return nil, cfg, fmt.Errorf("open store: %w", err)
	}
	return st, cfg, nil
}
