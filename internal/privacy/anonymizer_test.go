package privacy

import (
	"strings"
	"testing"
)

func TestAnonymizer(t *testing.T) {
	t.Run("ReplacesAtKnownOffsets", func(t *testing.T) {
		text := "Call 555-123-4567 or email bob@example.com today"
		spans := []EntitySpan{
			{EntityType: "PHONE_NUMBER", Start: 5, End: 17, Score: 0.95, Source: SourcePattern},
			{EntityType: "EMAIL_ADDRESS", Start: 27, End: 42, Score: 0.8, Source: SourcePattern},
		}

		anon := NewAnonymizer(nil)
		masked, err := anon.Apply(text, spans)
		if err != nil {
			t.Fatalf("apply failed: %v", err)
		}
		if masked != "Call <PHONE_NUMBER> or email <EMAIL_ADDRESS> today" {
			t.Errorf("unexpected masked text: %q", masked)
		}
	})

	t.Run("PlaceholderLengthChangeKeepsOtherSpansIntact", func(t *testing.T) {
		// Two spans where the first replacement is much longer than the
		// matched text; descending-start processing must leave the earlier
		// span's offsets valid.
		text := "aa BBBB cc DDDD ee"
		spans := []EntitySpan{
			{EntityType: "FIRST", Start: 3, End: 7, Score: 1, Source: SourcePattern},
			{EntityType: "SECOND", Start: 11, End: 15, Score: 1, Source: SourcePattern},
		}

		anon := NewAnonymizer(nil)
		masked, err := anon.Apply(text, spans)
		if err != nil {
			t.Fatalf("apply failed: %v", err)
		}
		if masked != "aa <FIRST> cc <SECOND> ee" {
			t.Errorf("unexpected masked text: %q", masked)
		}
	})

	t.Run("ExplicitPolicyEntry", func(t *testing.T) {
		anon := NewAnonymizer(map[string]string{"PERSON": "[REDACTED NAME]"})
		masked, err := anon.Apply("Alice", []EntitySpan{
			{EntityType: "PERSON", Start: 0, End: 5, Score: 1, Source: SourcePattern},
		})
		if err != nil {
			t.Fatalf("apply failed: %v", err)
		}
		if masked != "[REDACTED NAME]" {
			t.Errorf("unexpected masked text: %q", masked)
		}
	})

	t.Run("DefaultPlaceholderUppercases", func(t *testing.T) {
		anon := NewAnonymizer(nil)
		if got := anon.Placeholder("credit_card"); got != "<CREDIT_CARD>" {
			t.Errorf("placeholder = %q, want <CREDIT_CARD>", got)
		}
	})

	t.Run("OutOfRangeSpanFailsOpen", func(t *testing.T) {
		anon := NewAnonymizer(nil)
		text := "short"
		masked, err := anon.Apply(text, []EntitySpan{
			{EntityType: "SSN", Start: 2, End: 50, Score: 1, Source: SourcePattern},
		})
		if err == nil {
			t.Fatal("expected error for out-of-range span")
		}
		if masked != text {
			t.Errorf("fail-open must return original text, got %q", masked)
		}
	})

	t.Run("OverlappingSpansFailOpen", func(t *testing.T) {
		anon := NewAnonymizer(nil)
		text := strings.Repeat("x", 20)
		masked, err := anon.Apply(text, []EntitySpan{
			{EntityType: "A", Start: 0, End: 10, Score: 1, Source: SourcePattern},
			{EntityType: "B", Start: 5, End: 15, Score: 1, Source: SourcePattern},
		})
		if err == nil {
			t.Fatal("expected error for overlapping spans")
		}
		if masked != text {
			t.Errorf("fail-open must return original text, got %q", masked)
		}
	})

	t.Run("NoSpansIsIdentity", func(t *testing.T) {
		anon := NewAnonymizer(nil)
		masked, err := anon.Apply("untouched", nil)
		if err != nil || masked != "untouched" {
			t.Errorf("identity failed: %q, %v", masked, err)
		}
	})
}
