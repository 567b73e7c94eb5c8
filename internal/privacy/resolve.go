package privacy

import "sort"

// Resolve reduces the union of pattern and statistical spans to a single
// non-overlapping span list. Spans below the score threshold are dropped;
// overlapping survivors are grouped regardless of entity type and each group
// keeps exactly one winner. The result is sorted by ascending start.
func Resolve(spans []EntitySpan, scoreThreshold float64) []EntitySpan {
	var kept []EntitySpan
	for _, span := range spans {
		if span.Score >= scoreThreshold {
			kept = append(kept, span)
		}
	}
	if len(kept) == 0 {
		return nil
	}

	sort.Slice(kept, func(i, j int) bool {
		if kept[i].Start != kept[j].Start {
			return kept[i].Start < kept[j].Start
		}
		return kept[i].End < kept[j].End
	})

	// Sweep by start offset: spans that intersect the running group extend
	// it, the first gap closes it.
	var resolved []EntitySpan
	group := []EntitySpan{kept[0]}
	groupEnd := kept[0].End
	for _, span := range kept[1:] {
		if span.Start < groupEnd {
			group = append(group, span)
			if span.End > groupEnd {
				groupEnd = span.End
			}
			continue
		}
		resolved = append(resolved, pickWinner(group))
		group = []EntitySpan{span}
		groupEnd = span.End
	}
	resolved = append(resolved, pickWinner(group))

	return resolved
}

// pickWinner selects one span from an overlap group: highest score wins,
// ties prefer pattern-sourced spans over statistical ones, then the earliest
// start, then the longer span. Hand-authored patterns are more precise for
// structured identifiers than a general statistical model, so specificity
// outranks generality at equal score.
func pickWinner(group []EntitySpan) EntitySpan {
	winner := group[0]
	for _, candidate := range group[1:] {
		if better(candidate, winner) {
			winner = candidate
		}
	}
	return winner
}

func better(a, b EntitySpan) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Source != b.Source {
		return a.Source == SourcePattern
	}
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	return a.End-a.Start > b.End-b.Start
}
