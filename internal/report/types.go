// Package report assembles pairwise document comparison reports and their
// privacy-masked counterparts.
package report

import (
	"time"

	"github.com/raaihank/doc-sentinel/internal/diff"
)

// Document is one named text document prepared for comparison.
type Document struct {
	Name  string
	Text  string
	Lines []string
}

// NewDocument builds a Document, splitting text into comparison lines.
// Empty text is valid and yields no lines.
func NewDocument(name, text string) Document {
	return Document{
		Name:  name,
		Text:  text,
		Lines: diff.SplitLines(text),
	}
}

// ComparisonSection holds the rendered result of one document pair.
type ComparisonSection struct {
	NameA        string
	NameB        string
	HasDiff      bool
	DiffText     string
	MaskedText   string
	MaskFallback bool
}

// Report is a complete comparison run over a document set.
type Report struct {
	GeneratedAt time.Time
	Sections    []ComparisonSection
}

// HasMaskFallback reports whether any section fell back to unmasked text.
func (r *Report) HasMaskFallback() bool {
	for _, s := range r.Sections {
		if s.MaskFallback {
			return true
		}
	}
	return false
}
