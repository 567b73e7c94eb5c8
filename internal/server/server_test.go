package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/raaihank/doc-sentinel/internal/config"
	"github.com/raaihank/doc-sentinel/internal/logger"
	"github.com/raaihank/doc-sentinel/internal/privacy"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.GetDefaults()
	cfg.Events.Enabled = false
	if mutate != nil {
		mutate(cfg)
	}
	log := &logger.Logger{Logger: zap.NewNop()}
	engine, err := privacy.NewEngine(cfg.Privacy, log)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return New(cfg, log, engine, nil)
}

func postJSON(t *testing.T, handler http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshaling request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"healthy"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestMaskEndpoint(t *testing.T) {
	t.Run("MasksPII", func(t *testing.T) {
		s := newTestServer(t, nil)
		rec := postJSON(t, s.Handler(), "/v1/mask", maskRequest{Text: "SSN: 123-45-6789"})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
		var resp maskResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if resp.MaskedText != "SSN: <SSN>" {
			t.Errorf("masked_text = %q", resp.MaskedText)
		}
		if len(resp.Findings) != 1 || resp.Findings[0].EntityType != "SSN" {
			t.Errorf("findings = %+v", resp.Findings)
		}
	})

	t.Run("InvalidBody", func(t *testing.T) {
		s := newTestServer(t, nil)
		req := httptest.NewRequest(http.MethodPost, "/v1/mask", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("BodyTooLarge", func(t *testing.T) {
		s := newTestServer(t, func(cfg *config.Config) {
			cfg.Server.MaxBodyBytes = 64
		})
		rec := postJSON(t, s.Handler(), "/v1/mask", maskRequest{Text: strings.Repeat("x", 1024)})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestCompareEndpoint(t *testing.T) {
	t.Run("TwoDocuments", func(t *testing.T) {
		s := newTestServer(t, nil)
		rec := postJSON(t, s.Handler(), "/v1/compare", compareRequest{Documents: []compareDocument{
			{Name: "a.txt", Text: "shared\nPhone: 555-123-4567\n"},
			{Name: "b.txt", Text: "shared\nPhone: 555-999-0000\n"},
		}})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		var resp compareResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if len(resp.Sections) != 1 {
			t.Fatalf("got %d sections, want 1", len(resp.Sections))
		}
		sec := resp.Sections[0]
		if !sec.HasDiff {
			t.Error("differing documents not flagged")
		}
		if !strings.Contains(sec.Diff, "-Phone: 555-123-4567") {
			t.Errorf("diff missing removed line: %q", sec.Diff)
		}
		if strings.Contains(sec.MaskedDiff, "555-123-4567") {
			t.Errorf("masked diff leaks phone number: %q", sec.MaskedDiff)
		}
		if !strings.Contains(sec.MaskedDiff, "<PHONE_NUMBER>") {
			t.Errorf("masked diff missing placeholder: %q", sec.MaskedDiff)
		}
	})

	t.Run("RejectsSingleDocument", func(t *testing.T) {
		s := newTestServer(t, nil)
		rec := postJSON(t, s.Handler(), "/v1/compare", compareRequest{Documents: []compareDocument{
			{Name: "only.txt", Text: "text"},
		}})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("RejectsDuplicateNames", func(t *testing.T) {
		s := newTestServer(t, nil)
		rec := postJSON(t, s.Handler(), "/v1/compare", compareRequest{Documents: []compareDocument{
			{Name: "same.txt", Text: "a"},
			{Name: "same.txt", Text: "b"},
		}})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestRateLimiting(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.Server.RateLimit.Enabled = true
		cfg.Server.RateLimit.RequestsPerMin = 60
		cfg.Server.RateLimit.Burst = 2
	})

	var lastCode int
	for i := 0; i < 5; i++ {
		rec := postJSON(t, s.Handler(), "/v1/mask", maskRequest{Text: "hello"})
		lastCode = rec.Code
	}
	if lastCode != http.StatusTooManyRequests {
		t.Errorf("fifth request status = %d, want 429", lastCode)
	}
}
