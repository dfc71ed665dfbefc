package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/pagegest/internal/parser"
)

var (
	rootVerbose    bool
	rootMacroRules string
)

var rootCmd = &cobra.Command{
	Use:   "pagegest",
	Short: "Structural parsing and chunking for wiki pages",
	Long: `pagegest decomposes wiki-style HTML pages into structured parts and splits
them into bounded-size chunks ready for embedding.

Other formats (markdown, text, CSV, DOCX, PDF) are converted to page markup first.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&rootMacroRules, "macro-rules", os.Getenv("MACRO_RULES_FILE"), "YAML file with macro recognition rules")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if rootVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newParser(log *slog.Logger) (*parser.Parser, error) {
	opts := []parser.Option{parser.WithLogger(log)}
	if rootMacroRules != "" {
		rules, err := parser.LoadMacroRules(rootMacroRules)
		if err != nil {
			return nil, err
		}
		opts = append(opts, parser.WithMacroClassifier(rules))
	}
	return parser.New(opts...), nil
}
