package diff

import "fmt"

// contextLines is the number of unchanged lines shown around each change
// group in the unified rendering.
const contextLines = 3

// opcode mirrors a hunk with absolute line ranges into both inputs.
type opcode struct {
	op             Op
	i1, i2, j1, j2 int
}

// Unified renders the comparison of a and b as unified diff lines, matching
// the layout downstream report parsers expect: two file headers, then one
// "@@" section per change group with up to three context lines on each side.
// Identical inputs render to no lines at all.
func Unified(a, b []string, nameA, nameB string) []string {
	groups := groupedOpcodes(toOpcodes(Compare(a, b)))
	if len(groups) == 0 {
		return nil
	}

	out := []string{"--- " + nameA, "+++ " + nameB}
	for _, group := range groups {
		first, last := group[0], group[len(group)-1]
		out = append(out, fmt.Sprintf("@@ -%s +%s @@",
			formatRange(first.i1, last.i2), formatRange(first.j1, last.j2)))
		for _, c := range group {
			if c.op == OpEqual {
				for _, line := range a[c.i1:c.i2] {
					out = append(out, " "+line)
				}
				continue
			}
			for _, line := range a[c.i1:c.i2] {
				out = append(out, "-"+line)
			}
			for _, line := range b[c.j1:c.j2] {
				out = append(out, "+"+line)
			}
		}
	}
	return out
}

// toOpcodes converts hunks into absolute ranges.
func toOpcodes(hunks []Hunk) []opcode {
	var codes []opcode
	i, j := 0, 0
	for _, h := range hunks {
		c := opcode{op: h.Op, i1: i, j1: j}
		i += len(h.SourceLines)
		j += len(h.TargetLines)
		c.i2, c.j2 = i, j
		if c.i2 > c.i1 || c.j2 > c.j1 {
			codes = append(codes, c)
		}
	}
	return codes
}

// groupedOpcodes splits opcodes into change groups with at most contextLines
// of surrounding equal lines, dropping groups that contain no changes.
func groupedOpcodes(codes []opcode) [][]opcode {
	if len(codes) == 0 {
		return nil
	}

	// Trim leading and trailing context down to the window size.
	if c := codes[0]; c.op == OpEqual {
		codes[0] = opcode{c.op, max(c.i1, c.i2-contextLines), c.i2, max(c.j1, c.j2-contextLines), c.j2}
	}
	if c := codes[len(codes)-1]; c.op == OpEqual {
		codes[len(codes)-1] = opcode{c.op, c.i1, min(c.i2, c.i1+contextLines), c.j1, min(c.j2, c.j1+contextLines)}
	}

	var groups [][]opcode
	var group []opcode
	for _, c := range codes {
		// A long equal run ends the current group and starts the next.
		if c.op == OpEqual && c.i2-c.i1 > 2*contextLines {
			group = append(group, opcode{c.op, c.i1, min(c.i2, c.i1+contextLines), c.j1, min(c.j2, c.j1+contextLines)})
			groups = append(groups, group)
			group = []opcode{{c.op, max(c.i1, c.i2-contextLines), c.i2, max(c.j1, c.j2-contextLines), c.j2}}
			continue
		}
		group = append(group, c)
	}
	if len(group) > 0 && !(len(group) == 1 && group[0].op == OpEqual) {
		groups = append(groups, group)
	}
	return groups
}

// formatRange renders a line range in unified hunk-header notation.
func formatRange(start, stop int) string {
	beginning := start + 1
	length := stop - start
	if length == 1 {
		return fmt.Sprintf("%d", beginning)
	}
	if length == 0 {
		beginning--
	}
	return fmt.Sprintf("%d,%d", beginning, length)
}
