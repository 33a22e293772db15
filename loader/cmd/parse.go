package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file or directory]",
	Short: "Parse README files and print the result as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runParse,
}

var parseOutputFile string

func init() {
	parseCmd.Flags().StringVarP(&parseOutputFile, "out", "o", "", "Write JSON to this file instead of stdout")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	target := cfg.SourceDir
	if len(args) == 1 {
		target = args[0]
	}

	p, err := newParser()
	if err != nil {
		return err
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", target, err)
	}

	var result any
	if info.IsDir() {
		docs, err := p.ParseAll(cmd.Context(), target)
		if err != nil {
			return err
		}
		result = docs
	} else {
		doc, err := p.ParseFile(target)
		if err != nil {
			return err
		}
		result = doc
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	data = append(data, '\n')

	if parseOutputFile == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(parseOutputFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Parsed result written to %s\n", parseOutputFile)
	return nil
}
