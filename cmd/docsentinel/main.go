package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/raaihank/doc-sentinel/internal/cache"
	"github.com/raaihank/doc-sentinel/internal/config"
	"github.com/raaihank/doc-sentinel/internal/logger"
	"github.com/raaihank/doc-sentinel/internal/ner"
	"github.com/raaihank/doc-sentinel/internal/ocr"
	"github.com/raaihank/doc-sentinel/internal/privacy"
	"github.com/raaihank/doc-sentinel/internal/report"
	"github.com/raaihank/doc-sentinel/internal/store"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to configuration file")
		inputDir    = flag.String("input", "", "Directory of document images (overrides config)")
		outputDir   = flag.String("output", "", "Directory for reports (overrides config)")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("doc-sentinel %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *inputDir != "" {
		cfg.Input.Dir = *inputDir
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}

	loggerConfig := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}
	if cfg.Logging.File.Enabled {
		loggerConfig.File = &logger.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		}
	}

	log, err := logger.New(loggerConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting doc-sentinel comparison run",
		zap.String("version", version),
		zap.String("input_dir", cfg.Input.Dir),
		zap.String("output_dir", cfg.Output.Dir),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, cancelling run...")
		cancel()
	}()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("Comparison run failed", zap.Error(err))
	}
	log.Info("Comparison run completed successfully")
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	paths, err := discoverImages(cfg.Input.Dir, cfg.Input.Extensions)
	if err != nil {
		return err
	}
	if len(paths) < 2 {
		return fmt.Errorf("need at least two document images in %s, found %d", cfg.Input.Dir, len(paths))
	}
	log.Info("Discovered document images", zap.Int("count", len(paths)))

	engine := ocr.NewTesseractEngine(cfg.OCR.Languages, cfg.OCR.Timeout)
	docs := extractDocuments(ctx, engine, paths, log)
	if len(docs) < 2 {
		return fmt.Errorf("need at least two readable documents, got %d", len(docs))
	}

	masker, closeMasker, err := buildMasker(cfg, log)
	if err != nil {
		return err
	}
	defer closeMasker()

	assembler := report.NewAssembler(masker, log.WithComponent("report"),
		report.WithWorkers(cfg.Compare.Workers))

	rep, err := assembler.Assemble(ctx, docs)
	if err != nil {
		return fmt.Errorf("comparison failed: %w", err)
	}

	writer, err := report.NewWriter(cfg.Output.Dir)
	if err != nil {
		return err
	}
	plainPath, maskedPath, err := writer.WriteReports(rep)
	if err != nil {
		return err
	}
	log.Info("Reports written",
		zap.String("report", plainPath),
		zap.String("masked_report", maskedPath),
		zap.Int("sections", len(rep.Sections)),
	)

	if cfg.Output.SaveMaskedDocuments {
		paths, err := writer.WriteMaskedDocuments(ctx, assembler, rep, docs)
		if err != nil {
			return err
		}
		log.Info("Masked documents written", zap.Int("count", len(paths)))
	}

	if cfg.Store.Enabled {
		archive, err := store.NewArchive(cfg.Store, log.WithComponent("store").Logger)
		if err != nil {
			return fmt.Errorf("failed to open report archive: %w", err)
		}
		defer archive.Close()

		runID, err := archive.SaveRun(ctx, rep, len(docs))
		if err != nil {
			return fmt.Errorf("failed to archive run: %w", err)
		}
		log.Info("Run archived", zap.Int64("run_id", runID))
	}

	if rep.HasMaskFallback() {
		log.Warn("One or more sections fell back to unmasked content")
	}
	return nil
}

// buildMasker wires the masking engine with its optional collaborators.
func buildMasker(cfg *config.Config, log *logger.Logger) (*privacy.Engine, func(), error) {
	var opts []privacy.Option
	cleanup := func() {}

	statistical, err := ner.NewRecognizer(cfg.NER, log.WithComponent("ner"))
	if err != nil {
		return nil, cleanup, fmt.Errorf("failed to create statistical recognizer: %w", err)
	}
	if statistical != nil {
		opts = append(opts, privacy.WithStatisticalRecognizer(statistical))
	}

	if cfg.Cache.Enabled {
		maskCache, err := cache.NewMaskCache(cfg.Cache, log.WithComponent("cache").Logger)
		if err != nil {
			return nil, cleanup, fmt.Errorf("failed to create mask cache: %w", err)
		}
		cleanup = func() { maskCache.Close() }
		opts = append(opts, privacy.WithCache(maskCache))
	}

	engine, err := privacy.NewEngine(cfg.Privacy, log.WithComponent("privacy"), opts...)
	if err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("failed to create masking engine: %w", err)
	}
	return engine, cleanup, nil
}

// discoverImages lists document images under dir matching the configured
// extensions, sorted by name.
func discoverImages(dir string, extensions []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input dir %s: %w", dir, err)
	}

	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(ext)] = true
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if allowed[strings.ToLower(filepath.Ext(entry.Name()))] {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// extractDocuments runs OCR on each image. Extraction failures skip the
// document with a warning instead of aborting the run.
func extractDocuments(ctx context.Context, engine ocr.Engine, paths []string, log *logger.Logger) []report.Document {
	docs := make([]report.Document, 0, len(paths))
	for _, path := range paths {
		text, err := engine.Extract(ctx, path)
		if err != nil {
			log.Warn("OCR extraction failed, skipping document",
				zap.String("path", path),
				zap.Error(err))
			continue
		}
		name := filepath.Base(path)
		docs = append(docs, report.NewDocument(name, text))
		log.Info("Document extracted",
			zap.String("name", name),
			zap.Int("chars", len(text)))
	}
	return docs
}
