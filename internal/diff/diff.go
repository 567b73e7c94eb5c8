// Package diff computes line-level differences between two document
// revisions. The comparison is a pure function: identical inputs always
// produce identical hunks, and no call path can fail.
package diff

import "strings"

// Op classifies a hunk.
type Op string

const (
	OpEqual   Op = "equal"
	OpInsert  Op = "insert"
	OpDelete  Op = "delete"
	OpReplace Op = "replace"
)

// Hunk is a maximal contiguous region of agreement or disagreement between
// two line sequences. Concatenating SourceLines across all hunks of a
// comparison reconstructs the source input; TargetLines reconstructs the
// target input.
type Hunk struct {
	Op          Op
	SourceLines []string
	TargetLines []string
}

// SplitLines splits extracted document text into lines, tolerating CRLF
// endings. Empty text yields no lines.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	normalized = strings.TrimSuffix(normalized, "\n")
	return strings.Split(normalized, "\n")
}

// Compare computes the hunk sequence between two line slices using a
// longest-common-subsequence alignment. Ties in the alignment are broken by
// consuming source lines first, which keeps the output deterministic and
// places deletions before insertions inside replace hunks.
func Compare(a, b []string) []Hunk {
	n, m := len(a), len(b)
	if n == 0 && m == 0 {
		return []Hunk{{Op: OpEqual}}
	}

	// lcs[i][j] holds the LCS length of a[i:] and b[j:].
	lcs := make([][]int, n+1)
	for i := range lcs {
		lcs[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if a[i] == b[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else if lcs[i+1][j] >= lcs[i][j+1] {
				lcs[i][j] = lcs[i+1][j]
			} else {
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}

	var (
		hunks    []Hunk
		equal    []string
		deleted  []string
		inserted []string
	)

	flushEqual := func() {
		if len(equal) > 0 {
			hunks = append(hunks, Hunk{Op: OpEqual, SourceLines: equal, TargetLines: equal})
			equal = nil
		}
	}
	flushChange := func() {
		switch {
		case len(deleted) > 0 && len(inserted) > 0:
			hunks = append(hunks, Hunk{Op: OpReplace, SourceLines: deleted, TargetLines: inserted})
		case len(deleted) > 0:
			hunks = append(hunks, Hunk{Op: OpDelete, SourceLines: deleted})
		case len(inserted) > 0:
			hunks = append(hunks, Hunk{Op: OpInsert, TargetLines: inserted})
		}
		deleted, inserted = nil, nil
	}

	i, j := 0, 0
	for i < n && j < m {
		switch {
		case a[i] == b[j]:
			flushChange()
			equal = append(equal, a[i])
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			flushEqual()
			deleted = append(deleted, a[i])
			i++
		default:
			flushEqual()
			inserted = append(inserted, b[j])
			j++
		}
	}
	if i < n || j < m {
		flushEqual()
		deleted = append(deleted, a[i:]...)
		inserted = append(inserted, b[j:]...)
	}
	flushChange()
	flushEqual()

	return hunks
}

// Equal reports whether the two inputs of a comparison were identical.
func Equal(hunks []Hunk) bool {
	for _, h := range hunks {
		if h.Op != OpEqual {
			return false
		}
	}
	return true
}
