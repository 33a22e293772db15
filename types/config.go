package types

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type PostgresConfig struct {
	Host     string `validate:"required"`
	Port     int    `validate:"min=1,max=65535"`
	User     string `validate:"required"`
	Password string
	DBName   string `validate:"required"`
}

func (c PostgresConfig) ConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.DBName)
}

type EmbeddingConfig struct {
	URL   string `validate:"omitempty,url"`
	Model string
}

type LLMConfig struct {
	URL   string `validate:"omitempty,url"`
	Model string
}

// Config is the runtime configuration of the loader and the API server.
type Config struct {
	SourceDir      string        `validate:"required"`
	ArchiveDir     string        `validate:"required"`
	BadDir         string        `validate:"required"`
	OutputFile     string        `validate:"required"`
	MonitoringTime time.Duration `validate:"gt=0"`
	ChunkMaxTokens int           `validate:"min=32"`
	ServerAddr     string
	LogLevel       slog.Level

	Postgres  PostgresConfig
	Embedding EmbeddingConfig
	LLM       LLMConfig
}

func DefaultConfig() Config {
	return Config{
		SourceDir:      "readmes",
		ArchiveDir:     "readmes/archive",
		BadDir:         "readmes/bad",
		OutputFile:     "enhanced_README.md",
		MonitoringTime: 10 * time.Second,
		ChunkMaxTokens: 512,
		ServerAddr:     ":3000",
		LogLevel:       slog.LevelInfo,
		Postgres: PostgresConfig{
			Host:   "localhost",
			Port:   5432,
			User:   "postgres",
			DBName: "readmekb",
		},
	}
}

// LoadConfig reads the given .env files (or ./.env when none are given) and
// then the process environment on top of DefaultConfig. A missing .env file
// is not an error.
func LoadConfig(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	cfg := DefaultConfig()
	var errs []error

	cfg.SourceDir = envString("README_SOURCE_DIR", cfg.SourceDir)
	cfg.ArchiveDir = envString("README_ARCHIVE_DIR", cfg.ArchiveDir)
	cfg.BadDir = envString("README_BAD_DIR", cfg.BadDir)
	cfg.OutputFile = envString("README_OUTPUT_FILE", cfg.OutputFile)
	cfg.ServerAddr = envString("SERVER_ADDR", cfg.ServerAddr)

	var err error
	if cfg.MonitoringTime, err = envDuration("MONITORING_TIME", cfg.MonitoringTime); err != nil {
		errs = append(errs, err)
	}
	if cfg.ChunkMaxTokens, err = envInt("CHUNK_MAX_TOKENS", cfg.ChunkMaxTokens); err != nil {
		errs = append(errs, err)
	}
	if v := os.Getenv("README_LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			errs = append(errs, fmt.Errorf("README_LOG_LEVEL: %w", err))
		}
	}

	cfg.Postgres.Host = envString("PG_HOST", cfg.Postgres.Host)
	cfg.Postgres.User = envString("PG_USER", cfg.Postgres.User)
	cfg.Postgres.Password = envString("PG_PASS", cfg.Postgres.Password)
	cfg.Postgres.DBName = envString("PG_DB_NAME", cfg.Postgres.DBName)
	if cfg.Postgres.Port, err = envInt("PG_PORT", cfg.Postgres.Port); err != nil {
		errs = append(errs, err)
	}

	cfg.Embedding.URL = envString("OLLAMA_EMBEDDING_URL", cfg.Embedding.URL)
	cfg.Embedding.Model = envString("OLLAMA_EMBEDDING_MODEL", cfg.Embedding.Model)
	cfg.LLM.URL = envString("LLM_URL", cfg.LLM.URL)
	cfg.LLM.Model = envString("LLM_MODEL", cfg.LLM.Model)

	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	if verrs := cfg.Validate(); len(verrs) > 0 {
		return Config{}, fmt.Errorf("invalid config: %s", formatErrors(verrs))
	}
	return cfg, nil
}

func (c *Config) Validate() map[string]string {
	return validateStruct(c)
}

func formatErrors(errs map[string]string) string {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + " " + errs[k]
	}
	return strings.Join(parts, "; ")
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// envDuration accepts a Go duration ("90s") or a bare number of seconds.
func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
