package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"readmekb/enhancer"
	"readmekb/loader/internal"
	"readmekb/model"
	"readmekb/parser"
	"readmekb/qa"
	"readmekb/store"
	"readmekb/types"
)

var (
	envFile string
	workers int
	cfg     types.Config
)

var rootCmd = &cobra.Command{
	Use:           "readmekb",
	Short:         "Parse, enhance and load README files into a knowledge base",
	Long:          "readmekb parses markdown README files into a section hierarchy, renders an enhanced knowledge base with an FAQ and loads the result into Postgres for retrieval.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}
		loaded, err := types.LoadConfig(files...)
		if err != nil {
			return err
		}
		cfg = loaded
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "Path to a .env file (default ./.env when present)")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "Number of files parsed concurrently (default from parser config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newParser() (*parser.Parser, error) {
	pcfg := parser.DefaultConfig()
	if workers > 0 {
		pcfg.Workers = workers
	}
	return parser.New(pcfg)
}

func newLoader(p *parser.Parser) (*internal.MDLoader, error) {
	chunker := internal.NewChunker(
		cfg.ChunkMaxTokens,
		internal.NewTokenCounter(),
		enhancer.New(enhancer.DefaultConfig()),
		qa.New(qa.DefaultConfig()),
	)
	return internal.NewMDLoader(cfg, p, chunker, model.NewEmbedder(cfg.Embedding))
}

// openStore connects to Postgres and makes sure the schema exists.
func openStore(ctx context.Context) (*store.PostgresStore, error) {
	pool, err := store.NewPostgresStore(ctx, cfg.Postgres.ConnString())
	if err != nil {
		return nil, fmt.Errorf("error to connect to Postgres database: %w", err)
	}
	if err := pool.Init(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error to create tables: %w", err)
	}
	return pool, nil
}
