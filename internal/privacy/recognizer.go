package privacy

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/raaihank/doc-sentinel/internal/config"
)

// pattern is a compiled pattern definition owned by a recognizer.
type pattern struct {
	re        *regexp.Regexp
	baseScore float64
}

// PatternRecognizer owns one entity type and one or more compiled patterns
// plus the context keywords that boost their score.
type PatternRecognizer struct {
	entityType string
	patterns   []pattern
	context    []string
}

// RecognizerSet evaluates all pattern recognizers against a text buffer.
// Immutable after construction; safe for concurrent use.
type RecognizerSet struct {
	recognizers   []*PatternRecognizer
	contextWindow int
	contextBoost  float64
}

// NewRecognizerSet compiles the given pattern definitions into a recognizer
// set. A malformed regex is a construction error: the engine cannot run
// meaningfully with a partial pattern set.
func NewRecognizerSet(defs []config.PatternConfig, contextWindow int, contextBoost float64) (*RecognizerSet, error) {
	if len(defs) == 0 {
		defs = DefaultPatterns()
	}

	byEntity := make(map[string]*PatternRecognizer)
	var order []string
	for _, def := range defs {
		if def.Entity == "" {
			return nil, fmt.Errorf("pattern with empty entity type")
		}
		if def.Score < 0 || def.Score > 1 {
			return nil, fmt.Errorf("pattern %s: score %g out of range [0,1]", def.Entity, def.Score)
		}
		re, err := regexp.Compile(def.Regex)
		if err != nil {
			return nil, fmt.Errorf("pattern %s: %w", def.Entity, err)
		}

		rec, ok := byEntity[def.Entity]
		if !ok {
			rec = &PatternRecognizer{entityType: def.Entity}
			byEntity[def.Entity] = rec
			order = append(order, def.Entity)
		}
		rec.patterns = append(rec.patterns, pattern{re: re, baseScore: def.Score})
		rec.context = appendUnique(rec.context, def.Context)
	}

	set := &RecognizerSet{
		contextWindow: contextWindow,
		contextBoost:  contextBoost,
	}
	for _, entity := range order {
		set.recognizers = append(set.recognizers, byEntity[entity])
	}
	return set, nil
}

// Detect runs one recognizer's patterns over the text. Matches of a pattern
// with a capturing group span the group; plain patterns span the full match.
func (s *RecognizerSet) detect(rec *PatternRecognizer, text string) []EntitySpan {
	var spans []EntitySpan
	for _, p := range rec.patterns {
		for _, loc := range p.re.FindAllStringSubmatchIndex(text, -1) {
			start, end := loc[0], loc[1]
			if len(loc) >= 4 && loc[2] >= 0 {
				start, end = loc[2], loc[3]
			}
			if start >= end {
				continue
			}
			score := p.baseScore
			if s.hasContext(rec.context, text, loc[0], loc[1]) {
				score += s.contextBoost
				if score > 1.0 {
					score = 1.0
				}
			}
			spans = append(spans, EntitySpan{
				EntityType: rec.entityType,
				Start:      start,
				End:        end,
				Score:      score,
				Source:     SourcePattern,
			})
		}
	}
	return spans
}

// DetectAll returns the union of all recognizers' spans, unfiltered and
// possibly overlapping, including across entity types.
func (s *RecognizerSet) DetectAll(text string) []EntitySpan {
	var spans []EntitySpan
	for _, rec := range s.recognizers {
		spans = append(spans, s.detect(rec, text)...)
	}
	return spans
}

// EntityTypes returns the entity types this set can emit, in registration order.
func (s *RecognizerSet) EntityTypes() []string {
	types := make([]string, 0, len(s.recognizers))
	for _, rec := range s.recognizers {
		types = append(types, rec.entityType)
	}
	return types
}

// hasContext reports whether any context keyword appears within the
// proximity window around the match. The comparison is case-insensitive.
func (s *RecognizerSet) hasContext(keywords []string, text string, start, end int) bool {
	if len(keywords) == 0 || s.contextWindow <= 0 {
		return false
	}
	lo := start - s.contextWindow
	if lo < 0 {
		lo = 0
	}
	hi := end + s.contextWindow
	if hi > len(text) {
		hi = len(text)
	}
	window := strings.ToLower(text[lo:hi])
	for _, kw := range keywords {
		if strings.Contains(window, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func appendUnique(dst []string, add []string) []string {
	for _, s := range add {
		found := false
		for _, existing := range dst {
			if existing == s {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, s)
		}
	}
	return dst
}
