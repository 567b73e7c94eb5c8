package ner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/raaihank/doc-sentinel/internal/privacy"
)

func TestServiceRecognizer(t *testing.T) {
	t.Run("ConvertsEntitiesToSpans", func(t *testing.T) {
		text := "Shipped to Seattle by Alice"
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/analyze" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			var req analyzeRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("decoding request: %v", err)
			}
			if req.Text != text {
				t.Errorf("request text = %q, want %q", req.Text, text)
			}
			json.NewEncoder(w).Encode(analyzeResponse{Entities: []serviceEntity{
				{Label: "LOC", Text: "Seattle", Start: 11, End: 18, Confidence: 0.92},
				{Label: "B-PER", Text: "Alice", Start: 22, End: 27, Confidence: 0.88},
			}})
		}))
		defer server.Close()

		rec := NewServiceRecognizer(server.URL, 5*time.Second)
		spans, err := rec.Analyze(context.Background(), text)
		if err != nil {
			t.Fatalf("Analyze failed: %v", err)
		}
		if len(spans) != 2 {
			t.Fatalf("got %d spans, want 2", len(spans))
		}
		if spans[0].EntityType != "LOCATION" || spans[0].Start != 11 || spans[0].End != 18 {
			t.Errorf("unexpected first span: %+v", spans[0])
		}
		if spans[1].EntityType != "PERSON" {
			t.Errorf("BIO prefix not normalized: %+v", spans[1])
		}
		if spans[1].Source != privacy.SourceStatistical {
			t.Errorf("span source = %v, want statistical", spans[1].Source)
		}
	})

	t.Run("DropsInvalidOffsets", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(analyzeResponse{Entities: []serviceEntity{
				{Label: "PER", Start: -1, End: 5, Confidence: 0.9},
				{Label: "PER", Start: 0, End: 9999, Confidence: 0.9},
				{Label: "PER", Start: 5, End: 5, Confidence: 0.9},
			}})
		}))
		defer server.Close()

		rec := NewServiceRecognizer(server.URL, 5*time.Second)
		spans, err := rec.Analyze(context.Background(), "short text")
		if err != nil {
			t.Fatalf("Analyze failed: %v", err)
		}
		if len(spans) != 0 {
			t.Errorf("invalid entities should be dropped, got %+v", spans)
		}
	})

	t.Run("ServerErrorPropagates", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer server.Close()

		rec := NewServiceRecognizer(server.URL, 5*time.Second)
		if _, err := rec.Analyze(context.Background(), "some text"); err == nil {
			t.Error("expected error for 500 response")
		}
	})

	t.Run("EmptyTextSkipsCall", func(t *testing.T) {
		rec := NewServiceRecognizer("http://127.0.0.1:1", time.Second)
		spans, err := rec.Analyze(context.Background(), "")
		if err != nil || spans != nil {
			t.Errorf("empty text should short-circuit, got spans=%v err=%v", spans, err)
		}
	})
}

func TestCanonicalLabel(t *testing.T) {
	cases := map[string]string{
		"PER":      "PERSON",
		"B-PER":    "PERSON",
		"I-LOC":    "LOCATION",
		"GPE":      "LOCATION",
		"org":      "ORGANIZATION",
		"MISC":     "MISC",
		"DATE":     "DATE",
		"B-PERSON": "PERSON",
	}
	for in, want := range cases {
		if got := canonicalLabel(in); got != want {
			t.Errorf("canonicalLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
