package types

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("README_SOURCE_DIR", "/data/in")
	t.Setenv("MONITORING_TIME", "15")
	t.Setenv("CHUNK_MAX_TOKENS", "256")
	t.Setenv("README_LOG_LEVEL", "debug")
	t.Setenv("PG_PORT", "6543")
	t.Setenv("LLM_URL", "http://localhost:11434/api/generate")

	cfg, err := LoadConfig(noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, "/data/in", cfg.SourceDir)
	assert.Equal(t, 15*time.Second, cfg.MonitoringTime)
	assert.Equal(t, 256, cfg.ChunkMaxTokens)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 6543, cfg.Postgres.Port)
	assert.Contains(t, cfg.Postgres.ConnString(), "port=6543")
	assert.Equal(t, "http://localhost:11434/api/generate", cfg.LLM.URL)
}

func TestLoadConfig_EnvFile(t *testing.T) {
	t.Setenv("README_BAD_DIR", "")
	require.NoError(t, os.Unsetenv("README_BAD_DIR"))

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("README_BAD_DIR=/data/bad\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/bad", cfg.BadDir)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{"bad port", "PG_PORT", "abc", "PG_PORT"},
		{"bad duration", "MONITORING_TIME", "soon", "MONITORING_TIME"},
		{"bad level", "README_LOG_LEVEL", "loud", "README_LOG_LEVEL"},
		{"too few tokens", "CHUNK_MAX_TOKENS", "8", "ChunkMaxTokens"},
		{"bad url", "OLLAMA_EMBEDDING_URL", "not a url", "URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := LoadConfig(noEnvFile(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestEnvDuration(t *testing.T) {
	t.Setenv("MONITORING_TIME", "2m")
	d, err := envDuration("MONITORING_TIME", time.Second)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, d)

	d, err = envDuration("UNSET_DURATION_FOR_TEST", time.Second)
	require.NoError(t, err)
	assert.Equal(t, time.Second, d)
}

func TestParamsValidate(t *testing.T) {
	assert.Empty(t, (&QueryParams{Prompt: "how to install?"}).Validate())
	assert.Contains(t, (&QueryParams{}).Validate(), "Prompt")
	assert.Contains(t, (&QueryParams{Prompt: "x", Limit: 100}).Validate(), "Limit")

	assert.Empty(t, (&ParseParams{FileName: "README.md", Content: "# x"}).Validate())
	errs := (&ParseParams{FileName: "README.txt"}).Validate()
	assert.Equal(t, "failed on 'endswith' tag", errs["FileName"])
	assert.Equal(t, "failed on 'required' tag", errs["Content"])

	assert.Contains(t, Validate(&ChunkListParams{}), "Source")
}

func TestDocumentID(t *testing.T) {
	assert.Equal(t, DocumentID("README.md"), DocumentID("README.md"))
	assert.NotEqual(t, DocumentID("README.md"), DocumentID("OTHER.md"))
}
