// Command nicec classifies goods and services descriptions against the Nice
// Classification, backed by per-source term stores and a reasoning model.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nicemagician/nice-classification/internal/adapters/corpus"
	"github.com/nicemagician/nice-classification/internal/adapters/embedding"
	"github.com/nicemagician/nice-classification/internal/adapters/filewatcher"
	"github.com/nicemagician/nice-classification/internal/adapters/oracle"
	"github.com/nicemagician/nice-classification/internal/adapters/vectordb"
	"github.com/nicemagician/nice-classification/internal/domain/entities"
	"github.com/nicemagician/nice-classification/internal/domain/ports"
	"github.com/nicemagician/nice-classification/internal/domain/usecases"
	"github.com/nicemagician/nice-classification/internal/infrastructure/config"
	httpserver "github.com/nicemagician/nice-classification/internal/infrastructure/http"
)

var (
	configPath string
	verbose    bool
	topK       int
)

func main() {
	root := &cobra.Command{
		Use:   "nicec",
		Short: "Nice Classification retrieval and disambiguation service",
		Long: `nicec embeds a goods/services description, retrieves similar curated
terms from every configured knowledge source, and asks a reasoning model for
the Nice class or a problem assessment (too vague, linguistic error,
incomprehensible).`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config (default: nice.yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	root.PersistentFlags().IntVarP(&topK, "top-k", "k", 0, "results per knowledge source, overrides config")

	root.AddCommand(serveCmd(), classifyCmd(), ingestCmd(), watchCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the classification HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			server := httpserver.NewServer(app.classifier, app.cfg.Server.Addr, app.log)
			return server.Start(ctx)
		},
	}
}

func classifyCmd() *cobra.Command {
	var language string

	cmd := &cobra.Command{
		Use:   "classify <description>",
		Short: "Classify a single goods/services description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			answer, err := app.classifier.Classify(ctx, entities.Query{
				Text:     strings.Join(args, " "),
				Language: language,
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(answer)
		},
	}

	cmd.Flags().StringVarP(&language, "language", "l", "", "language hint (en, fr, es)")
	return cmd
}

func ingestCmd() *cobra.Command {
	var sourceOverride string

	cmd := &cobra.Command{
		Use:   "ingest <file.csv> [file.csv...]",
		Short: "Ingest corpus CSV files into their knowledge stores",
		Long: `Each file is matched to a knowledge source by filename prefix
(alphabetical_*, ipos_*, uspto_*, mgs_note_*) unless --source is given.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.Close()

			for _, path := range args {
				if err := app.ingestFile(cmd.Context(), path, sourceOverride); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&sourceOverride, "source", "s", "", "knowledge source name, overrides filename detection")
	return cmd
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dir]",
		Short: "Watch a corpus directory and re-ingest changed CSV files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.Close()

			dir := app.cfg.Storage.CorpusDir
			if len(args) > 0 {
				dir = args[0]
			}

			watcher, err := filewatcher.NewFSNotifyWatcher(nil)
			if err != nil {
				return fmt.Errorf("creating watcher: %w", err)
			}
			defer watcher.Stop()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			events, err := watcher.Watch(ctx, dir)
			if err != nil {
				return fmt.Errorf("watching %s: %w", dir, err)
			}

			app.log.Info("watching corpus directory", zap.String("dir", dir))

			for event := range events {
				if event.Operation == ports.FileDeleted {
					continue
				}
				if err := app.ingestFile(ctx, event.Path, ""); err != nil {
					app.log.Warn("re-ingest failed",
						zap.String("path", event.Path),
						zap.Error(err))
				}
			}
			return nil
		},
	}
}

// app holds the wired dependency graph for one command invocation.
type app struct {
	cfg        *config.Config
	log        *zap.Logger
	classifier *usecases.Classifier
	ingester   *usecases.IngestUseCase
	loader     *corpus.MultiLoader
	stores     []*vectordb.SQLiteStore
}

func buildApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if topK > 0 {
		cfg.Retrieval.TopK = topK
	}

	log, err := buildLogger()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.Storage.DataPath, 0755); err != nil {
		return nil, fmt.Errorf("creating data path: %w", err)
	}

	var (
		stores   []*vectordb.SQLiteStore
		sources  []ports.KnowledgeSource
		storeMap = make(map[string]ports.KnowledgeStore, len(cfg.Sources))
	)
	for _, name := range cfg.Sources {
		store, err := vectordb.NewSQLiteStore(cfg.Storage.DataPath, name)
		if err != nil {
			return nil, fmt.Errorf("opening store %s: %w", name, err)
		}
		stores = append(stores, store)
		sources = append(sources, store)
		storeMap[name] = store
	}

	embedder := embedding.NewOpenAIAdapter(cfg.Embedding.BaseURL, cfg.Embedding.Model, cfg.Embedding.APIKey)
	reasoner := oracle.NewOpenAIAdapter(cfg.Oracle.BaseURL, cfg.Oracle.Model, cfg.Oracle.APIKey)

	ruleCfg := usecases.DefaultRuleConfig()
	ruleCfg.RelevanceThreshold = cfg.Retrieval.RelevanceThreshold
	ruleCfg.DominanceMargin = cfg.Retrieval.DominanceMargin

	classifier := usecases.NewClassifier(embedder, sources, reasoner,
		usecases.NewRuleEngine(ruleCfg), cfg.Retrieval.TopK, log)
	ingester := usecases.NewIngestUseCase(embedder, storeMap, 0, log)

	return &app{
		cfg:        cfg,
		log:        log,
		classifier: classifier,
		ingester:   ingester,
		loader:     corpus.NewMultiLoader(),
		stores:     stores,
	}, nil
}

func (a *app) ingestFile(ctx context.Context, path, sourceOverride string) error {
	source := sourceOverride
	if source == "" {
		source = corpus.DetectSource(path)
	}
	if source == "" {
		return fmt.Errorf("cannot detect knowledge source for %s; use --source", path)
	}

	terms, err := a.loader.Load(ctx, source, path)
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	count, err := a.ingester.Ingest(ctx, source, terms)
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", path, err)
	}

	a.log.Info("ingested corpus file",
		zap.String("path", path),
		zap.String("source", source),
		zap.Int("terms", count))
	return nil
}

func (a *app) Close() {
	for _, store := range a.stores {
		store.Close()
	}
	a.log.Sync()
}

func buildLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
