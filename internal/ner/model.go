package ner

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"os"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/raaihank/doc-sentinel/internal/privacy"
)

// ModelRecognizer runs a local token-classification model to find named
// entities. Whitespace/punctuation tokenization keeps byte offsets exact so
// spans map back onto the source text without re-alignment.
type ModelRecognizer struct {
	backend   ModelBackend
	vocab     map[string]int64
	labels    []string
	maxLength int
	unkID     int64
	padID     int64
	logger    *zap.Logger
}

// ModelConfig carries the file paths and limits for a local model.
type ModelConfig struct {
	ModelPath  string
	VocabPath  string
	LabelsPath string
	MaxLength  int
}

// NewModelRecognizer loads vocab and label files and binds the backend.
// The backend is nil when the binary was built without the onnx tag.
func NewModelRecognizer(cfg ModelConfig, logger *zap.Logger) (*ModelRecognizer, error) {
	backend := NewModelBackend(logger, cfg.ModelPath)
	if backend == nil {
		return nil, fmt.Errorf("model backend unavailable: rebuild with -tags onnx and set ONNXRUNTIME_SHARED_LIB")
	}

	vocab, err := loadVocab(cfg.VocabPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load vocab: %w", err)
	}
	labels, err := loadLabels(cfg.LabelsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load labels: %w", err)
	}

	maxLength := cfg.MaxLength
	if maxLength <= 0 {
		maxLength = 512
	}

	unkID := int64(0)
	if id, ok := vocab["[UNK]"]; ok {
		unkID = id
	}
	padID := int64(0)
	if id, ok := vocab["[PAD]"]; ok {
		padID = id
	}

	logger.Info("Model recognizer loaded",
		zap.Int("vocab_size", len(vocab)),
		zap.Int("labels", len(labels)),
		zap.Int("max_length", maxLength))

	return &ModelRecognizer{
		backend:   backend,
		vocab:     vocab,
		labels:    labels,
		maxLength: maxLength,
		unkID:     unkID,
		padID:     padID,
		logger:    logger,
	}, nil
}

// Name identifies the recognizer in logs.
func (m *ModelRecognizer) Name() string { return "ner-model" }

// Close releases backend resources.
func (m *ModelRecognizer) Close() error {
	if m.backend != nil {
		return m.backend.Close()
	}
	return nil
}

type token struct {
	text  string
	start int
	end   int
}

// tokenize splits text into word and punctuation tokens, recording byte
// offsets for each.
func tokenize(text string) []token {
	var tokens []token
	i := 0
	for i < len(text) {
		c := rune(text[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case isWordByte(text[i]):
			start := i
			for i < len(text) && isWordByte(text[i]) {
				i++
			}
			tokens = append(tokens, token{text: text[start:i], start: start, end: i})
		default:
			tokens = append(tokens, token{text: string(text[i]), start: i, end: i + 1})
			i++
		}
	}
	return tokens
}

func isWordByte(b byte) bool {
	return b == '_' || b == '\'' ||
		(b >= '0' && b <= '9') ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		b >= 0x80
}

func (m *ModelRecognizer) lookupID(word string) int64 {
	if id, ok := m.vocab[word]; ok {
		return id
	}
	if id, ok := m.vocab[strings.ToLower(word)]; ok {
		return id
	}
	return m.unkID
}

// Analyze tokenizes the text, runs inference and decodes BIO label runs into
// entity spans. Each span's score is the mean softmax probability of its
// tokens.
func (m *ModelRecognizer) Analyze(ctx context.Context, text string) ([]privacy.EntitySpan, error) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil, nil
	}
	if len(tokens) > m.maxLength {
		tokens = tokens[:m.maxLength]
	}

	inputIDs := make([]int64, len(tokens))
	attentionMask := make([]int64, len(tokens))
	for i, tok := range tokens {
		inputIDs[i] = m.lookupID(tok.text)
		attentionMask[i] = 1
	}

	logits, err := m.backend.Predict(ctx, inputIDs, attentionMask)
	if err != nil {
		return nil, fmt.Errorf("model inference failed: %w", err)
	}
	if len(logits) != len(tokens) {
		return nil, fmt.Errorf("logits length %d does not match token count %d", len(logits), len(tokens))
	}

	type prediction struct {
		label string
		prob  float64
	}
	preds := make([]prediction, len(tokens))
	for i, row := range logits {
		idx, prob := argmaxSoftmax(row)
		label := "O"
		if idx >= 0 && idx < len(m.labels) {
			label = m.labels[idx]
		}
		preds[i] = prediction{label: label, prob: prob}
	}

	// Decode BIO runs. A B- tag always opens a span; an I- tag continues a
	// span of the same entity or opens one if the model skipped the B.
	var spans []privacy.EntitySpan
	var curType string
	var curStart, curEnd int
	var curProbs []float64

	flush := func() {
		if curType == "" {
			return
		}
		sum := 0.0
		for _, p := range curProbs {
			sum += p
		}
		spans = append(spans, privacy.EntitySpan{
			EntityType: curType,
			Start:      curStart,
			End:        curEnd,
			Score:      sum / float64(len(curProbs)),
			Source:     privacy.SourceStatistical,
		})
		curType = ""
		curProbs = nil
	}

	for i, p := range preds {
		entity := canonicalLabel(p.label)
		switch {
		case p.label == "O" || entity == "":
			flush()
		case strings.HasPrefix(p.label, "I-") && entity == curType:
			curEnd = tokens[i].end
			curProbs = append(curProbs, p.prob)
		default:
			flush()
			curType = entity
			curStart = tokens[i].start
			curEnd = tokens[i].end
			curProbs = []float64{p.prob}
		}
	}
	flush()

	return spans, nil
}

func argmaxSoftmax(logits []float32) (int, float64) {
	if len(logits) == 0 {
		return -1, 0
	}
	maxIdx := 0
	maxVal := logits[0]
	for i, v := range logits {
		if v > maxVal {
			maxVal = v
			maxIdx = i
		}
	}
	// softmax with max subtraction for stability
	var sum float64
	for _, v := range logits {
		sum += math.Exp(float64(v - maxVal))
	}
	return maxIdx, 1.0 / sum
}

func loadVocab(path string) (map[string]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	vocab := make(map[string]int64)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var id int64
	for scanner.Scan() {
		tok := strings.TrimRight(scanner.Text(), "\r\n")
		if tok != "" {
			vocab[tok] = id
		}
		id++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(vocab) == 0 {
		return nil, fmt.Errorf("vocab file %s is empty", path)
	}
	return vocab, nil
}

func loadLabels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var labels []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		label := strings.TrimSpace(scanner.Text())
		if label != "" {
			labels = append(labels, label)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("labels file %s is empty", path)
	}
	return labels, nil
}
