package ner

import (
	"fmt"

	"github.com/raaihank/doc-sentinel/internal/config"
	"github.com/raaihank/doc-sentinel/internal/logger"
	"github.com/raaihank/doc-sentinel/internal/privacy"
)

// NewRecognizer builds the statistical recognizer selected by config.
// Mode "off" returns nil without error; callers then run pattern-only.
func NewRecognizer(cfg config.NERConfig, log *logger.Logger) (privacy.Recognizer, error) {
	switch cfg.Mode {
	case "", "off":
		return nil, nil
	case "service":
		if cfg.ServiceURL == "" {
			return nil, fmt.Errorf("ner mode 'service' requires service_url")
		}
		return NewServiceRecognizer(cfg.ServiceURL, cfg.Timeout), nil
	case "model":
		rec, err := NewModelRecognizer(ModelConfig{
			ModelPath:  cfg.ModelPath,
			VocabPath:  cfg.VocabPath,
			LabelsPath: cfg.LabelsPath,
			MaxLength:  cfg.MaxLength,
		}, log.Logger)
		if err != nil {
			return nil, err
		}
		return rec, nil
	default:
		return nil, fmt.Errorf("unknown ner mode: %s", cfg.Mode)
	}
}
