package report

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/raaihank/doc-sentinel/internal/diff"
	"github.com/raaihank/doc-sentinel/internal/logger"
	"github.com/raaihank/doc-sentinel/internal/privacy"
)

// maskFallbackNotice is prepended to a section whose masking failed, so the
// fallback to unmasked content is visible in the masked report.
const maskFallbackNotice = "[MASKING FAILED - UNMASKED CONTENT]"

// Masker produces a privacy-masked rendition of text.
type Masker interface {
	Mask(ctx context.Context, text string) (*privacy.MaskResult, error)
}

// PairObserver is notified after each document pair is compared.
type PairObserver func(section ComparisonSection)

// Assembler compares every unordered pair of documents and renders both the
// plain and masked report sections.
type Assembler struct {
	masker   Masker
	workers  int
	logger   *logger.Logger
	observer PairObserver
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithWorkers sets how many pairs are compared concurrently. Values below 1
// fall back to sequential comparison.
func WithWorkers(n int) Option {
	return func(a *Assembler) {
		if n > 1 {
			a.workers = n
		}
	}
}

// WithPairObserver registers a callback invoked once per compared pair, in
// completion order.
func WithPairObserver(fn PairObserver) Option {
	return func(a *Assembler) { a.observer = fn }
}

// NewAssembler creates an Assembler. The masker may be nil, in which case
// masked sections mirror the plain sections verbatim.
func NewAssembler(masker Masker, log *logger.Logger, opts ...Option) *Assembler {
	a := &Assembler{masker: masker, workers: 1, logger: log}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble compares all unordered pairs of docs in lexicographic name order
// and returns the finished report. Section order is deterministic regardless
// of worker count.
func (a *Assembler) Assemble(ctx context.Context, docs []Document) (*Report, error) {
	sorted := make([]Document, len(docs))
	copy(sorted, docs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	type pair struct{ i, j int }
	var pairs []pair
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			pairs = append(pairs, pair{i, j})
		}
	}

	report := &Report{
		GeneratedAt: time.Now(),
		Sections:    make([]ComparisonSection, len(pairs)),
	}
	if len(pairs) == 0 {
		return report, nil
	}

	workers := a.workers
	if workers > len(pairs) {
		workers = len(pairs)
	}

	if workers <= 1 {
		for idx, p := range pairs {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
			report.Sections[idx] = a.buildSection(ctx, sorted[p.i], sorted[p.j])
			if a.observer != nil {
				a.observer(report.Sections[idx])
			}
		}
		return report, nil
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	var obsMu sync.Mutex
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				p := pairs[idx]
				section := a.buildSection(ctx, sorted[p.i], sorted[p.j])
				report.Sections[idx] = section
				if a.observer != nil {
					obsMu.Lock()
					a.observer(section)
					obsMu.Unlock()
				}
			}
		}()
	}

	var ctxErr error
dispatch:
	for idx := range pairs {
		select {
		case <-ctx.Done():
			ctxErr = ctx.Err()
			break dispatch
		case jobs <- idx:
		}
	}
	close(jobs)
	wg.Wait()
	if ctxErr != nil {
		return nil, ctxErr
	}
	return report, nil
}

// buildSection diffs one pair and produces its plain and masked bodies.
// Masking failure falls back to the unmasked body with a visible notice.
func (a *Assembler) buildSection(ctx context.Context, docA, docB Document) ComparisonSection {
	section := ComparisonSection{NameA: docA.Name, NameB: docB.Name}

	lines := diff.Unified(docA.Lines, docB.Lines, docA.Name, docB.Name)
	if len(lines) == 0 {
		section.DiffText = "No Differences Found\n"
	} else {
		section.HasDiff = true
		section.DiffText = "Differences Found:\n" + strings.Join(lines, "\n") + "\n"
	}

	if a.masker == nil {
		section.MaskedText = section.DiffText
		return section
	}

	result, err := a.masker.Mask(ctx, section.DiffText)
	if err != nil {
		if a.logger != nil {
			a.logger.Warn("Masking failed, falling back to unmasked section",
				zap.String("pair", docA.Name+" vs "+docB.Name),
				zap.Error(err))
		}
		section.MaskFallback = true
		section.MaskedText = maskFallbackNotice + "\n" + section.DiffText
		return section
	}
	section.MaskedText = result.MaskedText
	return section
}

// MaskDocument masks one document's full text for per-document masked output.
// On failure the original text is returned with a visible notice.
func (a *Assembler) MaskDocument(ctx context.Context, doc Document) (string, bool) {
	if a.masker == nil {
		return doc.Text, false
	}
	result, err := a.masker.Mask(ctx, doc.Text)
	if err != nil {
		if a.logger != nil {
			a.logger.Warn("Document masking failed, keeping original text",
				zap.String("document", doc.Name),
				zap.Error(err))
		}
		return maskFallbackNotice + "\n" + doc.Text, true
	}
	return result.MaskedText, false
}
