package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/raaihank/doc-sentinel/internal/cache"
	"github.com/raaihank/doc-sentinel/internal/config"
	"github.com/raaihank/doc-sentinel/internal/etl"
	"github.com/raaihank/doc-sentinel/internal/logger"
	"github.com/raaihank/doc-sentinel/internal/ner"
	"github.com/raaihank/doc-sentinel/internal/privacy"
)

func main() {
	var (
		configPath = flag.String("config", "", "Configuration file path")
		inputFile  = flag.String("input", "", "Input dataset file (CSV, Parquet, or JSON lines)")
		outputFile = flag.String("output", "", "Output file for the masked dataset (defaults to <input>_masked.<ext>)")
		batchSize  = flag.Int("batch-size", 1000, "Batch size for processing")
		workers    = flag.Int("workers", 4, "Number of worker goroutines")
		skipCache  = flag.Bool("skip-cache", false, "Skip the Redis mask cache even if configured")
	)
	flag.Parse()

	if *inputFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --input dataset.csv --batch-size 500\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --input records.parquet --workers 8\n", os.Args[0])
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting doc-sentinel ETL pipeline",
		zap.String("version", "0.1.0"),
		zap.String("input", *inputFile))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, cancelling operations...")
		cancel()
	}()

	var opts []privacy.Option

	statistical, err := ner.NewRecognizer(cfg.NER, log.WithComponent("ner"))
	if err != nil {
		log.Fatal("Failed to create statistical recognizer", zap.Error(err))
	}
	if statistical != nil {
		opts = append(opts, privacy.WithStatisticalRecognizer(statistical))
	}

	if cfg.Cache.Enabled && !*skipCache {
		maskCache, err := cache.NewMaskCache(cfg.Cache, log.WithComponent("cache").Logger)
		if err != nil {
			log.Fatal("Failed to create mask cache", zap.Error(err))
		}
		defer maskCache.Close()
		opts = append(opts, privacy.WithCache(maskCache))
	}

	engine, err := privacy.NewEngine(cfg.Privacy, log.WithComponent("privacy"), opts...)
	if err != nil {
		log.Fatal("Failed to create masking engine", zap.Error(err))
	}

	etlConfig := etl.DefaultConfig()
	etlConfig.BatchSize = *batchSize
	etlConfig.WorkerCount = *workers

	output := *outputFile
	if output == "" {
		output = defaultOutputPath(*inputFile)
	}

	pipeline := etl.NewPipeline(engine, etlConfig, log.WithComponent("etl").Logger)
	result, err := pipeline.ProcessFile(ctx, *inputFile, output)
	if err != nil {
		log.Fatal("ETL processing failed", zap.Error(err))
	}

	log.Info("ETL pipeline completed successfully",
		zap.String("output", output),
		zap.Int64("total_records", result.TotalRecords),
		zap.Int64("processed_ok", result.ProcessedOK),
		zap.Int64("processed_failed", result.ProcessedFailed),
		zap.Int64("total_findings", result.TotalFindings),
		zap.Duration("duration", result.Duration))
}

// defaultOutputPath derives <name>_masked.<ext> next to the input file.
func defaultOutputPath(input string) string {
	if dot := strings.LastIndex(input, "."); dot > 0 {
		return input[:dot] + "_masked" + input[dot:]
	}
	return input + "_masked"
}
