package privacy

import (
	"fmt"
	"sort"
	"strings"
)

// Anonymizer rewrites text given a resolved span list and a per-entity-type
// replacement policy. Entity types without an explicit policy entry get the
// default "<ENTITY_TYPE>" placeholder; that format is a downstream contract
// and must not change.
type Anonymizer struct {
	policy map[string]string
}

// NewAnonymizer creates an anonymizer with the given replacement policy.
// A nil policy is valid and selects the default placeholder for every type.
func NewAnonymizer(policy map[string]string) *Anonymizer {
	copied := make(map[string]string, len(policy))
	for k, v := range policy {
		copied[k] = v
	}
	return &Anonymizer{policy: copied}
}

// Placeholder returns the replacement text for an entity type.
func (a *Anonymizer) Placeholder(entityType string) string {
	if repl, ok := a.policy[entityType]; ok {
		return repl
	}
	return "<" + strings.ToUpper(entityType) + ">"
}

// Apply replaces each span's substring with its placeholder. Spans are
// validated first and processed in descending start order so that earlier
// offsets stay valid while later spans are rewritten. On any validation
// failure the original text is returned untouched along with the error:
// a partial rewrite must never escape.
func (a *Anonymizer) Apply(text string, spans []EntitySpan) (string, error) {
	if len(spans) == 0 {
		return text, nil
	}

	ordered := make([]EntitySpan, len(spans))
	copy(ordered, spans)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Start > ordered[j].Start
	})

	// Validate before touching anything.
	for i, span := range ordered {
		if span.Start < 0 || span.End > len(text) || span.Start >= span.End {
			return text, fmt.Errorf("span %s [%d,%d) out of range for %d-byte text",
				span.EntityType, span.Start, span.End, len(text))
		}
		if i > 0 && span.End > ordered[i-1].Start {
			return text, fmt.Errorf("overlapping spans %s [%d,%d) and %s [%d,%d)",
				span.EntityType, span.Start, span.End,
				ordered[i-1].EntityType, ordered[i-1].Start, ordered[i-1].End)
		}
	}

	result := text
	for _, span := range ordered {
		result = result[:span.Start] + a.Placeholder(span.EntityType) + result[span.End:]
	}
	return result, nil
}
