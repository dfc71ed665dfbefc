package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/pagegest/internal/chunker"
	"github.com/dgallion1/pagegest/internal/doctree"
)

var (
	chunkMeta     doctree.DocMeta
	chunkMaxChars int
	chunkBaseURL  string
	chunkPretty   bool
)

var chunkCmd = &cobra.Command{
	Use:   "chunk FILE",
	Short: "Split a page into vector chunks and print them as JSON",
	Long: `Split a page into section chunks plus a trailing metadata chunk.

Flags override whatever metadata the file carries (markdown front matter,
the HTML <title>). Without --id the id is derived from the content hash.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := convertFile(args[0])
		if err != nil {
			return err
		}

		meta := mergeMeta(doc.Meta, chunkMeta)
		c := chunker.New(chunker.Config{MaxChars: chunkMaxChars, BaseURL: chunkBaseURL}, newLogger())

		enc := json.NewEncoder(cmd.OutOrStdout())
		if chunkPretty {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(c.Chunk(doc.ChunkSource(), meta))
	},
}

func init() {
	f := chunkCmd.Flags()
	f.StringVar(&chunkMeta.ID, "id", "", "Document id")
	f.StringVar(&chunkMeta.Title, "title", "", "Document title")
	f.StringVar(&chunkMeta.ContainerKey, "container", "", "Container (space) key")
	f.StringVar(&chunkMeta.Author, "author", "", "Author")
	f.StringVar(&chunkMeta.LastUpdated, "updated", "", "Last-updated timestamp")
	f.StringVar(&chunkMeta.URL, "url", "", "Canonical page URL")
	f.IntVar(&chunkMaxChars, "max-chars", chunker.DefaultConfig().MaxChars, "Flush threshold in characters")
	f.StringVar(&chunkBaseURL, "base-url", os.Getenv("PAGE_BASE_URL"), "Base URL for derived page links")
	f.BoolVar(&chunkPretty, "pretty", false, "Indent the JSON output")
	rootCmd.AddCommand(chunkCmd)
}

// mergeMeta lays non-empty override fields over base.
func mergeMeta(base, over doctree.DocMeta) doctree.DocMeta {
	if over.ID != "" {
		base.ID = over.ID
	}
	if over.Title != "" {
		base.Title = over.Title
	}
	if over.ContainerKey != "" {
		base.ContainerKey = over.ContainerKey
	}
	if over.Author != "" {
		base.Author = over.Author
	}
	if over.LastUpdated != "" {
		base.LastUpdated = over.LastUpdated
	}
	if over.URL != "" {
		base.URL = over.URL
	}
	return base
}
