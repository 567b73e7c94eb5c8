package ner

import "strings"

// serviceEntity is the wire shape of one entity returned by the NER sidecar.
type serviceEntity struct {
	Label      string  `json:"label"`
	Text       string  `json:"text,omitempty"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
}

// analyzeRequest is the request body sent to the NER sidecar.
type analyzeRequest struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

// analyzeResponse is the response body returned by the NER sidecar.
type analyzeResponse struct {
	Entities []serviceEntity `json:"entities"`
}

// canonicalLabel normalizes model label vocabularies (CoNLL/spaCy style,
// with or without BIO prefixes) to the entity types used by the masking
// engine's placeholders.
func canonicalLabel(label string) string {
	label = strings.ToUpper(label)
	label = strings.TrimPrefix(label, "B-")
	label = strings.TrimPrefix(label, "I-")

	switch label {
	case "PER", "PERSON":
		return "PERSON"
	case "LOC", "GPE", "LOCATION":
		return "LOCATION"
	case "ORG", "ORGANIZATION":
		return "ORGANIZATION"
	case "MISC":
		return "MISC"
	default:
		return label
	}
}
