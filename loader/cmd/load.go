package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"readmekb/loader/service"
	"readmekb/store"
)

var loadCmd = &cobra.Command{
	Use:   "load [directory]",
	Short: "Load README files into the knowledge store once",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLoad,
}

var loadDryRun bool

func init() {
	loadCmd.Flags().BoolVar(&loadDryRun, "dry-run", false, "Build chunks in memory without connecting to Postgres")
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dir := cfg.SourceDir
	if len(args) == 1 {
		dir = args[0]
	}

	p, err := newParser()
	if err != nil {
		return err
	}
	loader, err := newLoader(p)
	if err != nil {
		return err
	}

	var ks store.KnowledgeStore
	if loadDryRun {
		ks = store.NewMemoryStore()
	} else {
		pool, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()
		ks = pool
	}

	saved, err := service.New(ks, loader).LoadDir(ctx, p, dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Loaded %d files from %s\n", saved, dir)
	return nil
}
