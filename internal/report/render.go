package report

import "strings"

const separatorWidth = 80

// timestampLayout is the layout used in report headers and file names.
const timestampLayout = "20060102_150405"

// Render produces the plain-text report body.
func Render(r *Report) string {
	return render(r, false)
}

// RenderMasked produces the masked report body. Section count and order
// mirror the plain report exactly.
func RenderMasked(r *Report) string {
	return render(r, true)
}

func render(r *Report, masked bool) string {
	var b strings.Builder
	b.WriteString("Document Comparison Report\n")
	b.WriteString("Generated: " + r.GeneratedAt.Format("2006-01-02 15:04:05") + "\n\n")

	separator := strings.Repeat("=", separatorWidth)
	for _, s := range r.Sections {
		b.WriteString("Comparison: " + s.NameA + " vs " + s.NameB + "\n")
		b.WriteString(separator + "\n")
		if masked {
			b.WriteString(s.MaskedText)
		} else {
			b.WriteString(s.DiffText)
		}
		b.WriteString("\n")
		b.WriteString(separator + "\n\n")
	}
	return b.String()
}
