// Package config loads application settings from the environment, with an
// optional .env file layered underneath.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/abhisek/quizmentor/internal/llm"
)

// Config holds every runtime setting of the application.
type Config struct {
	LLM      llm.Config
	DB       DBConfig
	Telegram TelegramConfig
	HTTP     HTTPConfig
	Session  SessionConfig
}

// DBConfig selects the database.
type DBConfig struct {
	Driver string // "sqlite" (default) or "postgres"
	DSN    string // Default: XDG data dir SQLite file
}

// TelegramConfig configures the bot transport.
type TelegramConfig struct {
	Token string

	// TeacherID is the Telegram user allowed to author tests and pull reports.
	TeacherID int64
}

// HTTPConfig configures the JSON API.
type HTTPConfig struct {
	Addr        string
	JWTSecret   string
	CORSOrigins []string
}

// SessionConfig tunes the assessment engine.
type SessionConfig struct {
	IdleTTL          time.Duration
	JudgeTimeout     time.Duration
	GeneratorTimeout time.Duration
	QuestionsPerTest int
	Followups        int
	Language         string
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		LLM: llm.DefaultConfig(),
		DB:  DBConfig{Driver: "sqlite"},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
		Session: SessionConfig{
			IdleTTL:          2 * time.Hour,
			JudgeTimeout:     30 * time.Second,
			GeneratorTimeout: 45 * time.Second,
			QuestionsPerTest: 5,
			Followups:        5,
			Language:         "English",
		},
	}
}

// LoadDotEnv loads the given .env files (".env" when none are named) into
// the process environment. Variables already set win; missing files are
// not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		err := godotenv.Load(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
		slog.Debug("loaded environment file", "path", f)
	}
	return nil
}

// FromEnv builds a Config from the environment. Malformed values are
// reported rather than silently replaced by defaults.
func FromEnv() (Config, error) {
	cfg := Default()
	cfg.LLM = llm.ConfigFromEnv()

	var errs []error
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		v := os.Getenv(key)
		if v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", key, v))
			return
		}
		*dst = d
	}
	num := func(key string, dst *int) {
		v := os.Getenv(key)
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			errs = append(errs, fmt.Errorf("%s: invalid positive integer %q", key, v))
			return
		}
		*dst = n
	}

	str("QUIZMENTOR_DB_DRIVER", &cfg.DB.Driver)
	str("QUIZMENTOR_DB_DSN", &cfg.DB.DSN)

	str("TELEGRAM_BOT_TOKEN", &cfg.Telegram.Token)
	if v := os.Getenv("TELEGRAM_TEACHER_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("TELEGRAM_TEACHER_ID: invalid user id %q", v))
		} else {
			cfg.Telegram.TeacherID = id
		}
	}

	str("QUIZMENTOR_HTTP_ADDR", &cfg.HTTP.Addr)
	str("QUIZMENTOR_JWT_SECRET", &cfg.HTTP.JWTSecret)
	if v := os.Getenv("QUIZMENTOR_CORS_ORIGINS"); v != "" {
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.HTTP.CORSOrigins = append(cfg.HTTP.CORSOrigins, o)
			}
		}
	}

	dur("QUIZMENTOR_SESSION_IDLE_TTL", &cfg.Session.IdleTTL)
	dur("QUIZMENTOR_JUDGE_TIMEOUT", &cfg.Session.JudgeTimeout)
	dur("QUIZMENTOR_GENERATOR_TIMEOUT", &cfg.Session.GeneratorTimeout)
	num("QUIZMENTOR_QUESTIONS_PER_TEST", &cfg.Session.QuestionsPerTest)
	num("QUIZMENTOR_FOLLOWUPS", &cfg.Session.Followups)
	str("QUIZMENTOR_LANGUAGE", &cfg.Session.Language)

	return cfg, errors.Join(errs...)
}

// ValidateTelegram checks the settings the bot needs.
func (c Config) ValidateTelegram() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if c.Telegram.TeacherID == 0 {
		return fmt.Errorf("TELEGRAM_TEACHER_ID is required")
	}
	return nil
}

// ValidateHTTP checks the settings the JSON API needs.
func (c Config) ValidateHTTP() error {
	if c.HTTP.Addr == "" {
		return fmt.Errorf("QUIZMENTOR_HTTP_ADDR is required")
	}
	if len(c.HTTP.JWTSecret) < 16 {
		return fmt.Errorf("QUIZMENTOR_JWT_SECRET must be at least 16 characters")
	}
	return nil
}
