package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/pagegest/internal/api"
	"github.com/dgallion1/pagegest/internal/chunker"
	"github.com/dgallion1/pagegest/internal/config"
	"github.com/dgallion1/pagegest/internal/parser"
	"github.com/dgallion1/pagegest/internal/pathstore"
	"github.com/dgallion1/pagegest/internal/pipeline"
	"github.com/dgallion1/pagegest/internal/source"
	"github.com/dgallion1/pagegest/internal/store"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Sinks.
	st, err := store.NewStore(cfg.StorePath)
	if err != nil {
		log.Error("open store", "path", cfg.StorePath, "error", err)
		os.Exit(1)
	}
	sinks := []pipeline.Sink{st}

	if cfg.OutputDir != "" {
		fw, err := store.NewFileWriter(cfg.OutputDir)
		if err != nil {
			log.Error("open output dir", "path", cfg.OutputDir, "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, fw)
	}

	deps := api.Deps{Documents: st}
	var ps *pathstore.Client
	if cfg.PathstoreURL != "" {
		ps = pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey, cfg.PathstoreRPS)
		remote := pathstore.NewSink(ps, cfg.MaxConcurrentStore)
		sinks = append(sinks, remote)
		deps.Remote = remote
	}

	// Parsing and chunking.
	parserOpts := []parser.Option{parser.WithLogger(log)}
	if cfg.MacroRulesFile != "" {
		rules, err := parser.LoadMacroRules(cfg.MacroRulesFile)
		if err != nil {
			log.Error("load macro rules", "path", cfg.MacroRulesFile, "error", err)
			os.Exit(1)
		}
		parserOpts = append(parserOpts, parser.WithMacroClassifier(rules))
	}
	deps.Parser = parser.New(parserOpts...)
	deps.Chunker = chunker.New(chunker.Config{MaxChars: cfg.ChunkMaxChars, BaseURL: cfg.PageBaseURL}, log)

	// Initialize pipeline.
	worker := pipeline.NewWorker(sinks, deps.Parser, deps.Chunker,
		source.Options{PDFFallback: cfg.PDFFallbackPdftotext}, pipeline.NewStats(pipeline.DefaultStatsWindow), log)
	orch := pipeline.NewOrchestrator(cfg, worker, log)
	orch.Start(ctx)
	deps.Orchestrator = orch

	// Initialize HTTP server.
	srv := api.NewServer(deps, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
		if ps != nil {
			ps.Close()
		}
		st.Close()
	}()

	log.Info("starting pagegest", "port", cfg.Port, "sinks", len(sinks), "workers", cfg.WorkerCount)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
}
