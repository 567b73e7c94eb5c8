package ner

import (
	"math"
	"testing"
)

func TestTokenize(t *testing.T) {
	t.Run("OffsetsMatchSource", func(t *testing.T) {
		text := "Name: Alice Smith\nPhone: 555-123-4567"
		for _, tok := range tokenize(text) {
			if text[tok.start:tok.end] != tok.text {
				t.Errorf("token %q offsets [%d,%d) slice to %q",
					tok.text, tok.start, tok.end, text[tok.start:tok.end])
			}
		}
	})

	t.Run("SplitsWordsAndPunctuation", func(t *testing.T) {
		tokens := tokenize("Alice, meet Bob.")
		var words []string
		for _, tok := range tokens {
			words = append(words, tok.text)
		}
		want := []string{"Alice", ",", "meet", "Bob", "."}
		if len(words) != len(want) {
			t.Fatalf("got tokens %v, want %v", words, want)
		}
		for i := range want {
			if words[i] != want[i] {
				t.Errorf("token %d = %q, want %q", i, words[i], want[i])
			}
		}
	})

	t.Run("EmptyAndWhitespace", func(t *testing.T) {
		if got := tokenize(""); got != nil {
			t.Errorf("empty text produced tokens %v", got)
		}
		if got := tokenize("  \n\t "); got != nil {
			t.Errorf("whitespace produced tokens %v", got)
		}
	})
}

func TestArgmaxSoftmax(t *testing.T) {
	idx, prob := argmaxSoftmax([]float32{1.0, 3.0, 2.0})
	if idx != 1 {
		t.Errorf("argmax = %d, want 1", idx)
	}
	// softmax([1,3,2])[1] = e^0 / (e^-2 + e^0 + e^-1)
	want := 1.0 / (math.Exp(-2) + 1 + math.Exp(-1))
	if math.Abs(prob-want) > 1e-9 {
		t.Errorf("prob = %v, want %v", prob, want)
	}

	if idx, _ := argmaxSoftmax(nil); idx != -1 {
		t.Errorf("empty logits argmax = %d, want -1", idx)
	}
}
