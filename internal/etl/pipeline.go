// Package etl runs bulk masking over text datasets in CSV, Parquet, or JSON
// lines format, producing a masked dataset in the same format.
package etl

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/parquet-go"
	"go.uber.org/zap"

	"github.com/raaihank/doc-sentinel/internal/privacy"
)

// Masker produces a privacy-masked rendition of text.
type Masker interface {
	Mask(ctx context.Context, text string) (*privacy.MaskResult, error)
}

// Pipeline masks dataset records in batches.
type Pipeline struct {
	masker Masker
	config *Config
	logger *zap.Logger
}

// NewPipeline creates a new ETL pipeline
func NewPipeline(masker Masker, config *Config, logger *zap.Logger) *Pipeline {
	if config == nil {
		config = DefaultConfig()
	}
	return &Pipeline{
		masker: masker,
		config: config,
		logger: logger,
	}
}

// ProcessFile masks every record of inputPath and writes the masked dataset
// to outputPath. The output format follows the output file's extension.
func (p *Pipeline) ProcessFile(ctx context.Context, inputPath, outputPath string) (*ProcessingResult, error) {
	p.logger.Info("Starting ETL pipeline",
		zap.String("input", inputPath),
		zap.String("output", outputPath),
		zap.Int("batch_size", p.config.BatchSize),
		zap.Int("workers", p.config.WorkerCount))

	start := time.Now()
	result := &ProcessingResult{FindingsByType: make(map[string]int)}

	inFormat := DetectFileFormat(inputPath)
	readBatch, closeReader, err := p.openReader(inputPath, inFormat)
	if err != nil {
		return result, err
	}
	defer closeReader()

	outFormat := DetectFileFormat(outputPath)
	writeRecord, closeWriter, err := p.openWriter(outputPath, outFormat)
	if err != nil {
		return result, err
	}

	p.logger.Info("Detected file formats",
		zap.String("input_format", string(inFormat)),
		zap.String("output_format", string(outFormat)))

	for {
		select {
		case <-ctx.Done():
			closeWriter()
			return result, ctx.Err()
		default:
		}

		batch, err := readBatch()
		if err != nil {
			closeWriter()
			return result, fmt.Errorf("failed to read batch: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		maskStart := time.Now()
		masked := p.maskBatch(ctx, batch, result)
		result.MaskingTime += time.Since(maskStart)

		for _, rec := range masked {
			if err := writeRecord(rec); err != nil {
				closeWriter()
				return result, fmt.Errorf("failed to write record: %w", err)
			}
		}

		result.TotalRecords += int64(len(batch))
		if p.config.ProgressReport > 0 && result.TotalRecords%int64(p.config.ProgressReport) == 0 {
			p.reportProgress(result, start)
		}
	}

	if err := closeWriter(); err != nil {
		return result, fmt.Errorf("failed to finalize output: %w", err)
	}

	result.Duration = time.Since(start)
	p.logger.Info("ETL pipeline completed",
		zap.Int64("total_records", result.TotalRecords),
		zap.Int64("processed_ok", result.ProcessedOK),
		zap.Int64("processed_failed", result.ProcessedFailed),
		zap.Int64("total_findings", result.TotalFindings),
		zap.Duration("total_duration", result.Duration),
		zap.Duration("masking_time", result.MaskingTime))

	return result, nil
}

// maskBatch masks one batch with the configured worker count, preserving
// record order. Per-record masking errors fail that record only.
func (p *Pipeline) maskBatch(ctx context.Context, batch []*DataRecord, result *ProcessingResult) []*MaskedRecord {
	masked := make([]*MaskedRecord, len(batch))
	findings := make([][]privacy.Finding, len(batch))
	errs := make([]error, len(batch))

	workers := p.config.WorkerCount
	if workers < 1 {
		workers = 1
	}
	if workers > len(batch) {
		workers = len(batch)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res, err := p.masker.Mask(ctx, batch[i].Text)
				if err != nil {
					errs[i] = err
					continue
				}
				total := 0
				for _, f := range res.Findings {
					total += f.Count
				}
				masked[i] = &MaskedRecord{
					ID:         batch[i].ID,
					MaskedText: res.MaskedText,
					Findings:   total,
				}
				findings[i] = res.Findings
			}
		}()
	}
	for i := range batch {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	out := make([]*MaskedRecord, 0, len(batch))
	for i := range batch {
		if errs[i] != nil {
			p.logger.Warn("Failed to mask record",
				zap.String("id", batch[i].ID),
				zap.Error(errs[i]))
			result.ProcessedFailed++
			result.Errors = append(result.Errors, errs[i].Error())
			continue
		}
		result.ProcessedOK++
		result.TotalFindings += int64(masked[i].Findings)
		for _, f := range findings[i] {
			result.FindingsByType[f.EntityType] += f.Count
		}
		out = append(out, masked[i])
	}
	return out
}

// openReader returns a batch-reading function for the input file.
func (p *Pipeline) openReader(path string, format FileFormat) (func() ([]*DataRecord, error), func() error, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input file: %w", err)
	}

	switch format {
	case FormatCSV:
		reader := csv.NewReader(file)
		reader.FieldsPerRecord = -1

		// Header row: id,text
		header, err := reader.Read()
		if err != nil {
			file.Close()
			return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
		}
		p.logger.Info("CSV header detected", zap.Strings("columns", header))

		readBatch := func() ([]*DataRecord, error) {
			var batch []*DataRecord
			for len(batch) < p.config.BatchSize {
				row, err := reader.Read()
				if err == io.EOF {
					break
				}
				if err != nil {
					p.logger.Warn("Failed to read CSV record", zap.Error(err))
					continue
				}
				if len(row) < 2 {
					p.logger.Warn("Invalid CSV record length", zap.Int("length", len(row)))
					continue
				}
				rec := &DataRecord{ID: strings.TrimSpace(row[0]), Text: row[1]}
				if p.validateRecord(rec) {
					batch = append(batch, rec)
				}
			}
			return batch, nil
		}
		return readBatch, file.Close, nil

	case FormatParquet:
		reader := parquet.NewReader(file)
		readBatch := func() ([]*DataRecord, error) {
			var batch []*DataRecord
			for len(batch) < p.config.BatchSize {
				var rec DataRecord
				err := reader.Read(&rec)
				if err == io.EOF {
					break
				}
				if err != nil {
					p.logger.Warn("Failed to read Parquet record", zap.Error(err))
					continue
				}
				r := rec
				if p.validateRecord(&r) {
					batch = append(batch, &r)
				}
			}
			return batch, nil
		}
		closeAll := func() error {
			reader.Close()
			return file.Close()
		}
		return readBatch, closeAll, nil

	case FormatJSON:
		decoder := json.NewDecoder(file)
		readBatch := func() ([]*DataRecord, error) {
			var batch []*DataRecord
			for len(batch) < p.config.BatchSize {
				var rec DataRecord
				err := decoder.Decode(&rec)
				if err == io.EOF {
					break
				}
				if err != nil {
					p.logger.Warn("Failed to read JSON record", zap.Error(err))
					continue
				}
				r := rec
				if p.validateRecord(&r) {
					batch = append(batch, &r)
				}
			}
			return batch, nil
		}
		return readBatch, file.Close, nil
	}

	file.Close()
	return nil, nil, fmt.Errorf("unsupported file format: %s", format)
}

// openWriter returns a record-writing function for the output file. The
// returned close function flushes and must be checked.
func (p *Pipeline) openWriter(path string, format FileFormat) (func(*MaskedRecord) error, func() error, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}

	switch format {
	case FormatCSV:
		writer := csv.NewWriter(file)
		if err := writer.Write([]string{"id", "masked_text", "findings"}); err != nil {
			file.Close()
			return nil, nil, fmt.Errorf("failed to write CSV header: %w", err)
		}
		write := func(rec *MaskedRecord) error {
			return writer.Write([]string{rec.ID, rec.MaskedText, strconv.Itoa(rec.Findings)})
		}
		closeAll := func() error {
			writer.Flush()
			if err := writer.Error(); err != nil {
				file.Close()
				return err
			}
			return file.Close()
		}
		return write, closeAll, nil

	case FormatParquet:
		writer := parquet.NewWriter(file)
		write := func(rec *MaskedRecord) error {
			return writer.Write(rec)
		}
		closeAll := func() error {
			if err := writer.Close(); err != nil {
				file.Close()
				return err
			}
			return file.Close()
		}
		return write, closeAll, nil

	case FormatJSON:
		encoder := json.NewEncoder(file)
		write := func(rec *MaskedRecord) error {
			return encoder.Encode(rec)
		}
		return write, file.Close, nil
	}

	file.Close()
	return nil, nil, fmt.Errorf("unsupported file format: %s", format)
}

// validateRecord validates a data record
func (p *Pipeline) validateRecord(record *DataRecord) bool {
	if !p.config.ValidateData {
		return true
	}
	if strings.TrimSpace(record.Text) == "" {
		p.logger.Debug("Invalid record: empty text", zap.String("id", record.ID))
		return false
	}
	if p.config.MaxTextLength > 0 && len(record.Text) > p.config.MaxTextLength {
		p.logger.Debug("Invalid record: text too long",
			zap.String("id", record.ID),
			zap.Int("length", len(record.Text)))
		return false
	}
	return true
}

// reportProgress reports current processing progress
func (p *Pipeline) reportProgress(result *ProcessingResult, start time.Time) {
	elapsed := time.Since(start)
	rate := float64(result.TotalRecords) / elapsed.Seconds()

	p.logger.Info("Processing progress",
		zap.Int64("records_processed", result.TotalRecords),
		zap.Int64("records_ok", result.ProcessedOK),
		zap.Int64("records_failed", result.ProcessedFailed),
		zap.Int64("total_findings", result.TotalFindings),
		zap.Float64("rate_per_sec", rate),
		zap.Duration("elapsed", elapsed))
}
