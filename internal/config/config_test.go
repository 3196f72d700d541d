package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"QUIZMENTOR_LLM_PROVIDER", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "OPENROUTER_API_KEY",
		"QUIZMENTOR_DB_DRIVER", "QUIZMENTOR_DB_DSN", "TELEGRAM_BOT_TOKEN", "TELEGRAM_TEACHER_ID",
		"QUIZMENTOR_HTTP_ADDR", "QUIZMENTOR_JWT_SECRET", "QUIZMENTOR_CORS_ORIGINS",
		"QUIZMENTOR_SESSION_IDLE_TTL", "QUIZMENTOR_JUDGE_TIMEOUT", "QUIZMENTOR_GENERATOR_TIMEOUT",
		"QUIZMENTOR_QUESTIONS_PER_TEST", "QUIZMENTOR_FOLLOWUPS", "QUIZMENTOR_LANGUAGE",
	} {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 30*time.Second, cfg.Session.JudgeTimeout)
	assert.Equal(t, 45*time.Second, cfg.Session.GeneratorTimeout)
	assert.Equal(t, 5, cfg.Session.Followups)
	assert.Equal(t, "English", cfg.Session.Language)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("QUIZMENTOR_DB_DRIVER", "postgres")
	t.Setenv("QUIZMENTOR_DB_DSN", "postgres://quiz@localhost/quiz")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_TEACHER_ID", "42")
	t.Setenv("QUIZMENTOR_CORS_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("QUIZMENTOR_JUDGE_TIMEOUT", "5s")
	t.Setenv("QUIZMENTOR_FOLLOWUPS", "3")
	t.Setenv("QUIZMENTOR_LANGUAGE", "Russian")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, int64(42), cfg.Telegram.TeacherID)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, 5*time.Second, cfg.Session.JudgeTimeout)
	assert.Equal(t, 3, cfg.Session.Followups)
	assert.Equal(t, "Russian", cfg.Session.Language)
	assert.NoError(t, cfg.ValidateTelegram())
}

func TestFromEnv_Malformed(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TEACHER_ID", "teacher")
	t.Setenv("QUIZMENTOR_SESSION_IDLE_TTL", "forever")
	t.Setenv("QUIZMENTOR_FOLLOWUPS", "-2")

	_, err := FromEnv()
	require.Error(t, err)
	for _, key := range []string{"TELEGRAM_TEACHER_ID", "QUIZMENTOR_SESSION_IDLE_TTL", "QUIZMENTOR_FOLLOWUPS"} {
		assert.ErrorContains(t, err, key)
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("QUIZMENTOR_LANGUAGE=German\nQUIZMENTOR_HTTP_ADDR=:9090\n"), 0o600))
	t.Setenv("QUIZMENTOR_HTTP_ADDR", ":7070")
	// godotenv never overrides a variable that is set, even to "".
	os.Unsetenv("QUIZMENTOR_LANGUAGE")

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")))

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "German", cfg.Session.Language)
	assert.Equal(t, ":7070", cfg.HTTP.Addr)
}

func TestValidateHTTP(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.ValidateHTTP())
	cfg.HTTP.JWTSecret = "0123456789abcdef"
	assert.NoError(t, cfg.ValidateHTTP())
}
