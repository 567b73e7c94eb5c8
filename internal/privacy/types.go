package privacy

import "context"

// SpanSource identifies which layer produced an entity span.
type SpanSource string

const (
	// SourcePattern marks spans produced by regex recognizers.
	SourcePattern SpanSource = "pattern"
	// SourceStatistical marks spans supplied by the statistical model.
	SourceStatistical SpanSource = "statistical"
)

// EntitySpan is a typed, scored offset range in a specific text buffer
// believed to contain a PII instance. Offsets are byte offsets with
// [Start,End) semantics.
type EntitySpan struct {
	EntityType string     `json:"entityType"`
	Start      int        `json:"start"`
	End        int        `json:"end"`
	Score      float64    `json:"score"`
	Source     SpanSource `json:"source"`
}

// Recognizer scans text and emits entity spans. The statistical model
// collaborator implements this interface; the engine owns its pattern
// recognizers directly.
type Recognizer interface {
	Name() string
	Analyze(ctx context.Context, text string) ([]EntitySpan, error)
}

// Finding summarizes the masked occurrences of one entity type.
type Finding struct {
	EntityType string `json:"entityType"`
	Masked     string `json:"masked"`
	Count      int    `json:"count"`
}

// MaskResult contains the result of masking a text buffer.
type MaskResult struct {
	MaskedText string       `json:"maskedText"`
	Findings   []Finding    `json:"findings"`
	Spans      []EntitySpan `json:"spans,omitempty"`
	FromCache  bool         `json:"-"`
	Original   string       `json:"-"` // Never serialize original text
}

// MaskCache caches mask results keyed by input text. Implemented by the
// Redis-backed cache; the engine only sees this interface.
type MaskCache interface {
	Get(ctx context.Context, text string) (*MaskResult, bool)
	Store(ctx context.Context, text string, result *MaskResult) error
}
