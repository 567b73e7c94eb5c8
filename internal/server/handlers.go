package server

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/raaihank/doc-sentinel/internal/events"
	"github.com/raaihank/doc-sentinel/internal/privacy"
	"github.com/raaihank/doc-sentinel/internal/report"
)

// defaultMaxBodyBytes bounds request bodies when no limit is configured.
const defaultMaxBodyBytes = 10 << 20 // 10 MB

type maskRequest struct {
	Text string `json:"text"`
}

type maskResponse struct {
	MaskedText string            `json:"masked_text"`
	Findings   []privacy.Finding `json:"findings,omitempty"`
	FromCache  bool              `json:"from_cache"`
	Fallback   bool              `json:"fallback,omitempty"`
}

type compareDocument struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

type compareRequest struct {
	Documents []compareDocument `json:"documents"`
}

type compareSection struct {
	NameA        string `json:"name_a"`
	NameB        string `json:"name_b"`
	HasDiff      bool   `json:"has_diff"`
	Diff         string `json:"diff"`
	MaskedDiff   string `json:"masked_diff"`
	MaskFallback bool   `json:"mask_fallback,omitempty"`
}

type compareResponse struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Sections    []compareSection `json:"sections"`
}

// handleMask masks a single text.
func (s *Server) handleMask(w http.ResponseWriter, r *http.Request) {
	log := s.logger.WithRequestID(getRequestID(r.Context()))

	var req maskRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	start := time.Now()
	result, err := s.engine.Mask(r.Context(), req.Text)
	resp := maskResponse{}
	if err != nil {
		// Fail open: the anonymizer returned the original text. The caller
		// decides whether to use it; the response says masking did not hold.
		log.Warn("Masking failed, returning unmasked text", zap.Error(err))
		resp.MaskedText = req.Text
		resp.Fallback = true
	} else {
		resp.MaskedText = result.MaskedText
		resp.Findings = result.Findings
		resp.FromCache = result.FromCache
	}

	if s.hub != nil && err == nil {
		counts := make(map[string]int, len(result.Findings))
		for _, f := range result.Findings {
			counts[f.EntityType] = f.Count
		}
		s.hub.Broadcast(events.Event{
			Type:      events.EventTypeMasking,
			Timestamp: time.Now(),
			Data: events.MaskingEvent{
				EntityCounts: counts,
				FromCache:    result.FromCache,
				DurationMs:   float64(time.Since(start).Nanoseconds()) / 1e6,
			},
		})
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// handleCompare diffs and masks every pair of submitted documents.
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	log := s.logger.WithRequestID(getRequestID(r.Context()))

	var req compareRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if len(req.Documents) < 2 {
		http.Error(w, "at least two documents are required", http.StatusBadRequest)
		return
	}

	docs := make([]report.Document, 0, len(req.Documents))
	seen := make(map[string]bool, len(req.Documents))
	for _, d := range req.Documents {
		if d.Name == "" {
			http.Error(w, "every document needs a name", http.StatusBadRequest)
			return
		}
		if seen[d.Name] {
			http.Error(w, "duplicate document name: "+d.Name, http.StatusBadRequest)
			return
		}
		seen[d.Name] = true
		docs = append(docs, report.NewDocument(d.Name, d.Text))
	}

	if s.hub != nil {
		s.hub.Broadcast(events.Event{
			Type:      events.EventTypeRunStarted,
			Timestamp: time.Now(),
			Data:      events.RunEvent{DocumentCount: len(docs)},
		})
	}

	rep, err := s.assembler.Assemble(r.Context(), docs)
	if err != nil {
		log.Error("Comparison failed", zap.Error(err))
		http.Error(w, "comparison failed", http.StatusInternalServerError)
		return
	}

	resp := compareResponse{GeneratedAt: rep.GeneratedAt}
	for _, sec := range rep.Sections {
		resp.Sections = append(resp.Sections, compareSection{
			NameA:        sec.NameA,
			NameB:        sec.NameB,
			HasDiff:      sec.HasDiff,
			Diff:         sec.DiffText,
			MaskedDiff:   sec.MaskedText,
			MaskFallback: sec.MaskFallback,
		})
	}

	if s.hub != nil {
		s.hub.Broadcast(events.Event{
			Type:      events.EventTypeRunCompleted,
			Timestamp: time.Now(),
			Data: events.RunEvent{
				DocumentCount: len(docs),
				SectionCount:  len(rep.Sections),
				MaskFallback:  rep.HasMaskFallback(),
			},
		})
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// decodeBody reads and decodes a JSON request body, enforcing the configured
// size limit. Writes the error response itself and returns false on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	maxBytes := s.config.Server.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBodyBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}
