package ner

import "context"

// ModelBackend runs token-classification inference for a single tokenized
// sequence and returns one logit vector per token (length == number of
// labels). Implementations are build-tagged: backend_onnx.go provides the
// ONNX Runtime backend, backend_stub.go the no-CGO default.
type ModelBackend interface {
	// Predict returns per-token label logits for the sequence.
	Predict(ctx context.Context, inputIDs, attentionMask []int64) ([][]float32, error)
	// IsReady returns whether the backend is initialized.
	IsReady() bool
	// Close releases any native resources.
	Close() error
}
