package privacy

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/raaihank/doc-sentinel/internal/config"
	"github.com/raaihank/doc-sentinel/internal/logger"
	"go.uber.org/zap"
)

func nopLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

// stubRecognizer returns fixed spans or an error.
type stubRecognizer struct {
	spans []EntitySpan
	err   error
}

func (s *stubRecognizer) Name() string { return "stub" }

func (s *stubRecognizer) Analyze(ctx context.Context, text string) ([]EntitySpan, error) {
	return s.spans, s.err
}

func testPrivacyConfig() config.PrivacyConfig {
	return config.PrivacyConfig{
		Enabled:        true,
		ScoreThreshold: 0.6,
		ContextWindow:  40,
		ContextBoost:   0.35,
	}
}

func TestEngine(t *testing.T) {
	t.Run("MasksSSN", func(t *testing.T) {
		engine, err := NewEngine(testPrivacyConfig(), nopLogger())
		if err != nil {
			t.Fatalf("failed to create engine: %v", err)
		}

		result, err := engine.Mask(context.Background(), "SSN: 123-45-6789")
		if err != nil {
			t.Fatalf("mask failed: %v", err)
		}
		if result.MaskedText != "SSN: <SSN>" {
			t.Errorf("masked text = %q, want %q", result.MaskedText, "SSN: <SSN>")
		}
		if len(result.Findings) != 1 || result.Findings[0].EntityType != "SSN" || result.Findings[0].Count != 1 {
			t.Errorf("unexpected findings: %+v", result.Findings)
		}
	})

	t.Run("StatisticalSpansMerged", func(t *testing.T) {
		stub := &stubRecognizer{spans: []EntitySpan{
			{EntityType: "LOCATION", Start: 9, End: 16, Score: 0.85},
		}}
		engine, err := NewEngine(testPrivacyConfig(), nopLogger(), WithStatisticalRecognizer(stub))
		if err != nil {
			t.Fatalf("failed to create engine: %v", err)
		}

		result, err := engine.Mask(context.Background(), "Sent to: Seattle")
		if err != nil {
			t.Fatalf("mask failed: %v", err)
		}
		if result.MaskedText != "Sent to: <LOCATION>" {
			t.Errorf("masked text = %q, want %q", result.MaskedText, "Sent to: <LOCATION>")
		}
		if len(result.Spans) != 1 || result.Spans[0].Source != SourceStatistical {
			t.Errorf("merged span should be tagged statistical: %+v", result.Spans)
		}
	})

	t.Run("StatisticalFailureDegrades", func(t *testing.T) {
		stub := &stubRecognizer{err: errors.New("model unavailable")}
		engine, err := NewEngine(testPrivacyConfig(), nopLogger(), WithStatisticalRecognizer(stub))
		if err != nil {
			t.Fatalf("failed to create engine: %v", err)
		}

		result, err := engine.Mask(context.Background(), "SSN: 123-45-6789")
		if err != nil {
			t.Fatalf("statistical failure must not fail the mask: %v", err)
		}
		if !strings.Contains(result.MaskedText, "<SSN>") {
			t.Errorf("pattern masking should still apply, got %q", result.MaskedText)
		}
	})

	t.Run("DisabledReturnsOriginal", func(t *testing.T) {
		cfg := testPrivacyConfig()
		cfg.Enabled = false
		engine, err := NewEngine(cfg, nopLogger())
		if err != nil {
			t.Fatalf("failed to create engine: %v", err)
		}

		text := "SSN: 123-45-6789"
		result, err := engine.Mask(context.Background(), text)
		if err != nil {
			t.Fatalf("mask failed: %v", err)
		}
		if result.MaskedText != text {
			t.Errorf("disabled engine must pass text through, got %q", result.MaskedText)
		}
	})

	t.Run("FailOpenOnBadStatisticalSpans", func(t *testing.T) {
		// Spans past the end of the text survive resolution but must be
		// rejected by the anonymizer, surfacing a recoverable error with the
		// original text intact.
		stub := &stubRecognizer{spans: []EntitySpan{
			{EntityType: "PERSON", Start: 2, End: 9999, Score: 0.9},
		}}
		engine, err := NewEngine(testPrivacyConfig(), nopLogger(), WithStatisticalRecognizer(stub))
		if err != nil {
			t.Fatalf("failed to create engine: %v", err)
		}

		text := "tiny"
		result, err := engine.Mask(context.Background(), text)
		if err == nil {
			t.Fatal("expected recoverable error for invalid span")
		}
		if result.MaskedText != text {
			t.Errorf("fail-open must return original text, got %q", result.MaskedText)
		}
	})

	t.Run("EndToEndScenario", func(t *testing.T) {
		engine, err := NewEngine(testPrivacyConfig(), nopLogger())
		if err != nil {
			t.Fatalf("failed to create engine: %v", err)
		}

		text := "Name: Alice Smith\nPhone: 555-123-4567"
		result, err := engine.Mask(context.Background(), text)
		if err != nil {
			t.Fatalf("mask failed: %v", err)
		}
		want := "Name: <PERSON>\nPhone: <PHONE_NUMBER>"
		if result.MaskedText != want {
			t.Errorf("masked text = %q, want %q", result.MaskedText, want)
		}
	})
}
