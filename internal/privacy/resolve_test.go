package privacy

import "testing"

func TestResolve(t *testing.T) {
	t.Run("ThresholdFiltering", func(t *testing.T) {
		spans := []EntitySpan{
			{EntityType: "SSN", Start: 0, End: 11, Score: 0.5, Source: SourcePattern},
		}

		if got := Resolve(spans, 0.6); len(got) != 0 {
			t.Errorf("score 0.5 should be dropped at threshold 0.6, got %d spans", len(got))
		}
		if got := Resolve(spans, 0.4); len(got) != 1 {
			t.Errorf("score 0.5 should survive threshold 0.4, got %d spans", len(got))
		}
	})

	t.Run("PatternBeatsStatisticalAtEqualScore", func(t *testing.T) {
		spans := []EntitySpan{
			{EntityType: "LOCATION", Start: 0, End: 11, Score: 0.9, Source: SourceStatistical},
			{EntityType: "PHONE_NUMBER", Start: 0, End: 11, Score: 0.9, Source: SourcePattern},
		}

		resolved := Resolve(spans, 0.6)
		if len(resolved) != 1 {
			t.Fatalf("expected 1 resolved span, got %d", len(resolved))
		}
		if resolved[0].EntityType != "PHONE_NUMBER" {
			t.Errorf("winner = %s, want PHONE_NUMBER", resolved[0].EntityType)
		}
	})

	t.Run("HigherScoreWinsAcrossSources", func(t *testing.T) {
		spans := []EntitySpan{
			{EntityType: "PHONE_NUMBER", Start: 0, End: 11, Score: 0.7, Source: SourcePattern},
			{EntityType: "LOCATION", Start: 2, End: 9, Score: 0.95, Source: SourceStatistical},
		}

		resolved := Resolve(spans, 0.6)
		if len(resolved) != 1 || resolved[0].EntityType != "LOCATION" {
			t.Fatalf("expected statistical LOCATION span to win on score, got %+v", resolved)
		}
	})

	t.Run("TransitiveOverlapFormsOneGroup", func(t *testing.T) {
		// a overlaps b, b overlaps c, a does not overlap c: still one group.
		spans := []EntitySpan{
			{EntityType: "A", Start: 0, End: 5, Score: 0.7, Source: SourceStatistical},
			{EntityType: "B", Start: 4, End: 10, Score: 0.8, Source: SourceStatistical},
			{EntityType: "C", Start: 9, End: 14, Score: 0.75, Source: SourceStatistical},
		}

		resolved := Resolve(spans, 0.6)
		if len(resolved) != 1 {
			t.Fatalf("expected 1 span from transitive overlap group, got %d", len(resolved))
		}
		if resolved[0].EntityType != "B" {
			t.Errorf("winner = %s, want B", resolved[0].EntityType)
		}
	})

	t.Run("DisjointSpansAllKeptSorted", func(t *testing.T) {
		spans := []EntitySpan{
			{EntityType: "B", Start: 20, End: 30, Score: 0.9, Source: SourcePattern},
			{EntityType: "A", Start: 0, End: 10, Score: 0.9, Source: SourcePattern},
		}

		resolved := Resolve(spans, 0.6)
		if len(resolved) != 2 {
			t.Fatalf("expected 2 spans, got %d", len(resolved))
		}
		if resolved[0].EntityType != "A" || resolved[1].EntityType != "B" {
			t.Errorf("spans not sorted by start: %+v", resolved)
		}
		for i := 1; i < len(resolved); i++ {
			if resolved[i].Start < resolved[i-1].End {
				t.Errorf("resolved spans overlap: %+v", resolved)
			}
		}
	})

	t.Run("AdjacentSpansDoNotOverlap", func(t *testing.T) {
		// [0,5) and [5,10) share no offset; both survive.
		spans := []EntitySpan{
			{EntityType: "A", Start: 0, End: 5, Score: 0.9, Source: SourcePattern},
			{EntityType: "B", Start: 5, End: 10, Score: 0.9, Source: SourcePattern},
		}

		if resolved := Resolve(spans, 0.6); len(resolved) != 2 {
			t.Fatalf("adjacent spans should both survive, got %d", len(resolved))
		}
	})

	t.Run("EmptyInput", func(t *testing.T) {
		if resolved := Resolve(nil, 0.6); resolved != nil {
			t.Errorf("expected nil for empty input, got %+v", resolved)
		}
	})
}
