package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"readmekb/enhancer"
	"readmekb/qa"
)

var generateCmd = &cobra.Command{
	Use:   "generate [directory]",
	Short: "Write an enhanced knowledge base README with an FAQ",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runGenerate,
}

var (
	generateOutputFile string
	generateTitle      string
	generateFAQStyle   string
	generateNoFAQ      bool
)

func init() {
	generateCmd.Flags().StringVarP(&generateOutputFile, "out", "o", "", "Output file (default README_OUTPUT_FILE)")
	generateCmd.Flags().StringVar(&generateTitle, "title", "Knowledge Base", "Title of the generated document")
	generateCmd.Flags().StringVar(&generateFAQStyle, "faq-style", string(qa.StyleCollapsible), "FAQ style: simple, collapsible or numbered")
	generateCmd.Flags().BoolVar(&generateNoFAQ, "no-faq", false, "Do not append the FAQ section")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	dir := cfg.SourceDir
	if len(args) == 1 {
		dir = args[0]
	}
	out := generateOutputFile
	if out == "" {
		out = cfg.OutputFile
	}
	style, err := qa.ParseStyle(generateFAQStyle)
	if err != nil {
		return err
	}

	p, err := newParser()
	if err != nil {
		return err
	}
	docs, err := p.ParseAll(cmd.Context(), dir)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no README files found in %s", dir)
	}

	faq := ""
	pairs := 0
	if !generateNoFAQ {
		generated := qa.New(qa.DefaultConfig()).Generate(docs)
		pairs = len(generated)
		faq = qa.Format(generated, style)
	}

	content := enhancer.New(enhancer.DefaultConfig()).Render(generateTitle, docs, faq)
	if err := os.WriteFile(out, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Generated %s from %d files with %d questions\n", out, len(docs), pairs)
	return nil
}
