package main

import (
	"log"

	"github.com/spf13/cobra"

	"readmekb/loader/service"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the source directory and load new README files until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	pool, err := openStore(ctx)
	if err != nil {
		return err
	}

	p, err := newParser()
	if err != nil {
		pool.Close()
		return err
	}
	loader, err := newLoader(p)
	if err != nil {
		pool.Close()
		return err
	}

	service.New(pool, loader).Run(ctx)

	log.Println("Closing database connection pool...")
	if err := pool.Close(); err != nil {
		log.Printf("error closing pool: %v\n", err)
	} else {
		log.Println("Database connection pool closed successfully")
	}
	return nil
}
