package privacy

import (
	"context"
	"fmt"
	"sort"

	"github.com/raaihank/doc-sentinel/internal/config"
	"github.com/raaihank/doc-sentinel/internal/logger"
	"go.uber.org/zap"
)

// Engine drives the full masking pipeline: pattern detection, statistical
// analysis, span resolution, and anonymization. Immutable after
// construction; safe for concurrent use.
type Engine struct {
	set         *RecognizerSet
	statistical Recognizer
	anonymizer  *Anonymizer
	threshold   float64
	enabled     bool
	cache       MaskCache
	logger      *logger.Logger
}

// Option customizes engine construction.
type Option func(*Engine)

// WithStatisticalRecognizer attaches the statistical model collaborator.
func WithStatisticalRecognizer(rec Recognizer) Option {
	return func(e *Engine) { e.statistical = rec }
}

// WithCache attaches a mask-result cache.
func WithCache(cache MaskCache) Option {
	return func(e *Engine) { e.cache = cache }
}

// NewEngine creates a masking engine from configuration. Pattern compilation
// failure is fatal here, at startup, not at first use.
func NewEngine(cfg config.PrivacyConfig, log *logger.Logger, opts ...Option) (*Engine, error) {
	set, err := NewRecognizerSet(cfg.Patterns, cfg.ContextWindow, cfg.ContextBoost)
	if err != nil {
		return nil, fmt.Errorf("failed to build recognizer set: %w", err)
	}

	engine := &Engine{
		set:        set,
		anonymizer: NewAnonymizer(cfg.Replacements),
		threshold:  cfg.ScoreThreshold,
		enabled:    cfg.Enabled,
		logger:     log,
	}
	for _, opt := range opts {
		opt(engine)
	}

	log.Info("Masking engine initialized",
		zap.Strings("entity_types", set.EntityTypes()),
		zap.Float64("score_threshold", cfg.ScoreThreshold),
		zap.Bool("statistical", engine.statistical != nil),
		zap.Bool("cache", engine.cache != nil),
	)

	return engine, nil
}

// EntityTypes lists the entity types the pattern recognizers cover.
func (e *Engine) EntityTypes() []string {
	return e.set.EntityTypes()
}

// Analyze runs detection and resolution without rewriting the text.
func (e *Engine) Analyze(ctx context.Context, text string) []EntitySpan {
	spans := e.set.DetectAll(text)

	if e.statistical != nil {
		modelSpans, err := e.statistical.Analyze(ctx, text)
		if err != nil {
			// Degraded, not fatal: pattern spans alone still yield a usable
			// (if less complete) masking.
			e.logger.Warn("Statistical recognizer failed, continuing with pattern spans only",
				zap.String("recognizer", e.statistical.Name()),
				zap.Error(err),
			)
		} else {
			for i := range modelSpans {
				modelSpans[i].Source = SourceStatistical
			}
			spans = append(spans, modelSpans...)
		}
	}

	return Resolve(spans, e.threshold)
}

// Mask anonymizes all resolved PII spans in the text. On anonymization
// failure it fails open: the returned result carries the original text
// unmodified and the error tells the caller that no masking happened.
func (e *Engine) Mask(ctx context.Context, text string) (*MaskResult, error) {
	if !e.enabled {
		return &MaskResult{MaskedText: text, Findings: []Finding{}, Original: text}, nil
	}

	if e.cache != nil {
		if cached, ok := e.cache.Get(ctx, text); ok {
			cached.FromCache = true
			cached.Original = text
			return cached, nil
		}
	}

	resolved := e.Analyze(ctx, text)

	masked, err := e.anonymizer.Apply(text, resolved)
	if err != nil {
		e.logger.Error("Anonymization failed, returning text unmasked", zap.Error(err))
		return &MaskResult{MaskedText: text, Findings: []Finding{}, Original: text},
			fmt.Errorf("anonymization failed: %w", err)
	}

	result := &MaskResult{
		MaskedText: masked,
		Findings:   e.findings(resolved),
		Spans:      resolved,
		Original:   text,
	}

	if len(resolved) > 0 {
		e.logger.Debug("PII detected and masked",
			zap.Int("span_count", len(resolved)),
			zap.Int("entity_types", len(result.Findings)),
		)
	}

	if e.cache != nil {
		if err := e.cache.Store(ctx, text, result); err != nil {
			e.logger.Warn("Failed to store mask result in cache", zap.Error(err))
		}
	}

	return result, nil
}

// findings aggregates resolved spans into per-entity-type counts.
func (e *Engine) findings(spans []EntitySpan) []Finding {
	counts := make(map[string]int)
	for _, span := range spans {
		counts[span.EntityType]++
	}

	types := make([]string, 0, len(counts))
	for entityType := range counts {
		types = append(types, entityType)
	}
	sort.Strings(types)

	findings := make([]Finding, 0, len(types))
	for _, entityType := range types {
		findings = append(findings, Finding{
			EntityType: entityType,
			Masked:     e.anonymizer.Placeholder(entityType),
			Count:      counts[entityType],
		})
	}
	return findings
}
