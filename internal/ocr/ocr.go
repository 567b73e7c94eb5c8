// Package ocr extracts text from document images for comparison and masking.
package ocr

import "context"

// Engine converts a document image into plain text.
type Engine interface {
	// Name identifies the engine in logs.
	Name() string
	// Extract reads the image at path and returns its recognized text.
	Extract(ctx context.Context, path string) (string, error)
}
