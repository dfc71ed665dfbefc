package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgallion1/pagegest/internal/source"
)

var parsePretty bool

var parseCmd = &cobra.Command{
	Use:   "parse FILE",
	Short: "Print the structural decomposition of a page as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger()
		p, err := newParser(log)
		if err != nil {
			return err
		}

		doc, err := convertFile(args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		if parsePretty {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(p.Parse(doc.Markup))
	},
}

func init() {
	parseCmd.Flags().BoolVar(&parsePretty, "pretty", false, "Indent the JSON output")
	rootCmd.AddCommand(parseCmd)
}

func convertFile(path string) (*source.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return source.Convert(f, filepath.Base(path), source.Options{PDFFallback: true})
}
