package etl

import (
	"strings"
	"time"
)

// DataRecord is a single text record from the input dataset.
type DataRecord struct {
	ID   string `csv:"id" parquet:"id" json:"id"`
	Text string `csv:"text" parquet:"text" json:"text"`
}

// MaskedRecord is the output shape written for each processed record.
type MaskedRecord struct {
	ID         string `csv:"id" parquet:"id" json:"id"`
	MaskedText string `csv:"masked_text" parquet:"masked_text" json:"masked_text"`
	Findings   int    `csv:"findings" parquet:"findings" json:"findings"`
}

// ProcessingResult summarizes one dataset run.
type ProcessingResult struct {
	TotalRecords    int64          `json:"total_records"`
	ProcessedOK     int64          `json:"processed_ok"`
	ProcessedFailed int64          `json:"processed_failed"`
	TotalFindings   int64          `json:"total_findings"`
	FindingsByType  map[string]int `json:"findings_by_type,omitempty"`
	Duration        time.Duration  `json:"duration"`
	MaskingTime     time.Duration  `json:"masking_time"`
	Errors          []string       `json:"errors,omitempty"`
}

// Config contains ETL pipeline configuration
type Config struct {
	BatchSize      int  `yaml:"batch_size" mapstructure:"batch_size"`           // 1000
	WorkerCount    int  `yaml:"worker_count" mapstructure:"worker_count"`       // 4
	ValidateData   bool `yaml:"validate_data" mapstructure:"validate_data"`     // true
	ProgressReport int  `yaml:"progress_report" mapstructure:"progress_report"` // 1000
	MaxTextLength  int  `yaml:"max_text_length" mapstructure:"max_text_length"` // 10000
}

// DefaultConfig returns the pipeline defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      1000,
		WorkerCount:    4,
		ValidateData:   true,
		ProgressReport: 1000,
		MaxTextLength:  10000,
	}
}

// FileFormat represents supported file formats
type FileFormat string

const (
	FormatCSV     FileFormat = "csv"
	FormatParquet FileFormat = "parquet"
	FormatJSON    FileFormat = "json"
)

// DetectFileFormat detects file format from extension
func DetectFileFormat(filename string) FileFormat {
	switch {
	case strings.HasSuffix(filename, ".parquet"):
		return FormatParquet
	case strings.HasSuffix(filename, ".json") || strings.HasSuffix(filename, ".jsonl"):
		return FormatJSON
	default:
		return FormatCSV
	}
}
