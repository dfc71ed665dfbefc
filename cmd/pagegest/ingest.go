package main

import (
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/pagegest/internal/chunker"
	"github.com/dgallion1/pagegest/internal/doctree"
	"github.com/dgallion1/pagegest/internal/pipeline"
	"github.com/dgallion1/pagegest/internal/source"
	"github.com/dgallion1/pagegest/internal/store"
)

var (
	ingestDB          string
	ingestOut         string
	ingestConcurrency int
	ingestForce       bool
	ingestContainer   string
	ingestMaxChars    int
	ingestBaseURL     string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest PATH...",
	Short: "Parse, chunk and store files or directories of files",
	Long: `Run every supported file under the given paths through the pipeline and
write the results to a SQLite database (--db), a JSON directory (--out), or both.

Content already stored under another id is skipped unless --force is set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		log := newLogger()

		files, err := collectFiles(args)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("no supported files under %v", args)
		}

		var sinks []pipeline.Sink
		if ingestDB != "" {
			st, err := store.NewStore(ingestDB)
			if err != nil {
				return err
			}
			defer st.Close()
			sinks = append(sinks, st)
		}
		if ingestOut != "" {
			fw, err := store.NewFileWriter(ingestOut)
			if err != nil {
				return err
			}
			sinks = append(sinks, fw)
		}
		if len(sinks) == 0 {
			log.Warn("no --db or --out given, results are discarded")
		}

		p, err := newParser(log)
		if err != nil {
			return err
		}
		c := chunker.New(chunker.Config{MaxChars: ingestMaxChars, BaseURL: ingestBaseURL}, log)
		w := pipeline.NewWorker(sinks, p, c, source.Options{PDFFallback: true}, nil, log)

		jobs := make([]*pipeline.Job, 0, len(files))
		for _, path := range files {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			jobs = append(jobs, pipeline.NewJob(filepath.Base(path), data, doctree.DocMeta{ContainerKey: ingestContainer}, ingestForce))
		}

		start := time.Now()
		snaps := pipeline.RunBatch(ctx, w, jobs, ingestConcurrency)
		printSummary(cmd.OutOrStdout(), snaps, w.Stats().Snapshot(), time.Since(start))

		for _, s := range snaps {
			if s.Status == pipeline.StatusFailed {
				return fmt.Errorf("one or more files failed")
			}
		}
		return ctx.Err()
	},
}

func init() {
	f := ingestCmd.Flags()
	f.StringVar(&ingestDB, "db", "", "SQLite database to store documents in")
	f.StringVar(&ingestOut, "out", "", "Directory to write document and chunk JSON to")
	f.IntVarP(&ingestConcurrency, "concurrency", "j", 4, "Files processed in parallel")
	f.BoolVar(&ingestForce, "force", false, "Store content even if it was ingested before")
	f.StringVar(&ingestContainer, "container", "", "Container (space) key for every file")
	f.IntVar(&ingestMaxChars, "max-chars", chunker.DefaultConfig().MaxChars, "Flush threshold in characters")
	f.StringVar(&ingestBaseURL, "base-url", os.Getenv("PAGE_BASE_URL"), "Base URL for derived page links")
	rootCmd.AddCommand(ingestCmd)
}

// collectFiles expands directories into the supported files they contain.
func collectFiles(paths []string) ([]string, error) {
	var out []string
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && source.IsSupportedExtension(path) {
				out = append(out, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
