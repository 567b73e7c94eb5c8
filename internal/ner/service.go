// Package ner supplies statistical entity recognizers to the masking engine.
// Two implementations exist: an HTTP client for an external NER sidecar and
// a local ONNX token-classification model (build tag 'onnx'). Both are
// consumed through the privacy.Recognizer interface; the engine does not
// manage the model's lifecycle beyond Close.
package ner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/raaihank/doc-sentinel/internal/privacy"
)

// maxServiceResponse bounds how much of a sidecar response is read.
const maxServiceResponse = 10 << 20 // 10 MB

// ServiceRecognizer calls an external NER service over HTTP.
type ServiceRecognizer struct {
	baseURL string
	client  *http.Client
}

// NewServiceRecognizer creates a recognizer backed by an NER sidecar.
func NewServiceRecognizer(baseURL string, timeout time.Duration) *ServiceRecognizer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ServiceRecognizer{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Name identifies this recognizer in logs.
func (r *ServiceRecognizer) Name() string { return "ner-service" }

// Analyze sends the text to the sidecar and converts its entities into
// spans. Entities with invalid offsets are dropped rather than propagated:
// a bad span from the model must not poison anonymization downstream.
func (r *ServiceRecognizer) Analyze(ctx context.Context, text string) ([]privacy.EntitySpan, error) {
	if text == "" {
		return nil, nil
	}

	body, err := json.Marshal(analyzeRequest{Text: text, Language: "en"})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling NER service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("NER service returned status %d", resp.StatusCode)
	}

	var parsed analyzeResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxServiceResponse)).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	spans := make([]privacy.EntitySpan, 0, len(parsed.Entities))
	for _, entity := range parsed.Entities {
		if entity.Start < 0 || entity.End > len(text) || entity.Start >= entity.End {
			continue
		}
		spans = append(spans, privacy.EntitySpan{
			EntityType: canonicalLabel(entity.Label),
			Start:      entity.Start,
			End:        entity.End,
			Score:      entity.Confidence,
			Source:     privacy.SourceStatistical,
		})
	}
	return spans, nil
}
