package privacy

import "github.com/raaihank/doc-sentinel/internal/config"

// DefaultPatterns returns the built-in pattern set, used when the
// configuration does not supply its own. Patterns with a capturing group
// emit a span covering the group only, so field labels such as "Name:" stay
// readable in masked output.
func DefaultPatterns() []config.PatternConfig {
	return []config.PatternConfig{
		{
			Entity:  "SSN",
			Regex:   `\b\d{3}-\d{2}-\d{4}\b`,
			Score:   0.9,
			Context: []string{"SSN", "Social Security", "ID"},
		},
		{
			Entity:  "PHONE_NUMBER",
			Regex:   `\(?\d{3}\)?[\s-]?\d{3}-\d{4}\b`,
			Score:   0.95,
			Context: []string{"Phone", "Contact", "Emergency", "Telephone"},
		},
		{
			Entity:  "EMAIL_ADDRESS",
			Regex:   `\b[\w.-]+[@\s@][\w.-]+\.\w+\b`,
			Score:   0.8,
			Context: []string{"email", "e-mail", "mailto"},
		},
		{
			// OCR output sometimes wraps addresses in brackets or a mailto
			// prefix; the capture group isolates the address itself.
			Entity:  "EMAIL_ADDRESS",
			Regex:   `[\[(](?:mailto:)?\s*([\w.-]+@[\w.-]+\.\w+)\s*[\])]`,
			Score:   1.0,
			Context: []string{"email", "e-mail", "mailto"},
		},
		{
			Entity:  "PERSON",
			Regex:   `(?m)Name:\s*([A-Za-z .]+?)\s*$`,
			Score:   1.0,
			Context: []string{"Name", "Patient"},
		},
		{
			Entity:  "POLICY_NUMBER",
			Regex:   `Insurance Policy Number:\s*(IN-\d{8})\b`,
			Score:   1.0,
			Context: []string{"Insurance", "Policy"},
		},
	}
}
