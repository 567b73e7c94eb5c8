package ocr

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine implements Engine using the gosseract client.
type TesseractEngine struct {
	clientFactory func() *gosseract.Client
	languages     []string
	timeout       time.Duration
}

// NewTesseractEngine constructs a Tesseract-backed OCR engine. A zero
// timeout disables the per-image deadline.
func NewTesseractEngine(languages []string, timeout time.Duration) *TesseractEngine {
	return &TesseractEngine{
		clientFactory: gosseract.NewClient,
		languages:     languages,
		timeout:       timeout,
	}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

// Extract performs OCR on the image file at path. A fresh client is used per
// call; gosseract clients are not safe for concurrent reuse.
func (e *TesseractEngine) Extract(ctx context.Context, path string) (string, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image %s: %w", path, err)
	}

	type textResult struct {
		text string
		err  error
	}
	done := make(chan textResult, 1)

	// The client is owned by this goroutine so an abandoned recognition
	// cannot race with Close after a timeout.
	go func() {
		c := e.clientFactory()
		defer c.Close()

		if err := c.SetImageFromBytes(data); err != nil {
			done <- textResult{err: fmt.Errorf("set image: %w", err)}
			return
		}
		if len(e.languages) > 0 {
			if err := c.SetLanguage(e.languages...); err != nil {
				done <- textResult{err: fmt.Errorf("set languages: %w", err)}
				return
			}
		}
		text, err := c.Text()
		done <- textResult{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		if res.err != nil {
			return "", fmt.Errorf("recognize text: %w", res.err)
		}
		return strings.TrimSpace(res.text), nil
	}
}
