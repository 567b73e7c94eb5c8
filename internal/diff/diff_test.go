package diff

import (
	"reflect"
	"strings"
	"testing"
)

func reconstruct(hunks []Hunk) (source, target []string) {
	for _, h := range hunks {
		source = append(source, h.SourceLines...)
		target = append(target, h.TargetLines...)
	}
	return source, target
}

func TestCompare(t *testing.T) {
	t.Run("IdenticalInputsSingleEqualHunk", func(t *testing.T) {
		lines := []string{"alpha", "beta", "gamma"}
		hunks := Compare(lines, lines)
		if len(hunks) != 1 || hunks[0].Op != OpEqual {
			t.Fatalf("expected single equal hunk, got %+v", hunks)
		}
		if !Equal(hunks) {
			t.Error("Equal should report true for identical inputs")
		}
	})

	t.Run("BothEmpty", func(t *testing.T) {
		hunks := Compare(nil, nil)
		if len(hunks) != 1 || hunks[0].Op != OpEqual {
			t.Fatalf("expected single equal hunk for empty inputs, got %+v", hunks)
		}
	})

	t.Run("InsertOnly", func(t *testing.T) {
		hunks := Compare(nil, []string{"new line"})
		if len(hunks) != 1 || hunks[0].Op != OpInsert {
			t.Fatalf("expected single insert hunk, got %+v", hunks)
		}
	})

	t.Run("DeleteOnly", func(t *testing.T) {
		hunks := Compare([]string{"old line"}, nil)
		if len(hunks) != 1 || hunks[0].Op != OpDelete {
			t.Fatalf("expected single delete hunk, got %+v", hunks)
		}
	})

	t.Run("ReplaceClassification", func(t *testing.T) {
		a := []string{"Name: Alice Smith", "Phone: 555-123-4567"}
		b := []string{"Name: Alice Smith", "Phone: 555-999-0000"}

		hunks := Compare(a, b)
		if len(hunks) != 2 {
			t.Fatalf("expected equal+replace hunks, got %+v", hunks)
		}
		if hunks[0].Op != OpEqual {
			t.Errorf("first hunk = %s, want equal", hunks[0].Op)
		}
		if hunks[1].Op != OpReplace {
			t.Errorf("second hunk = %s, want replace", hunks[1].Op)
		}
		if !reflect.DeepEqual(hunks[1].SourceLines, []string{"Phone: 555-123-4567"}) {
			t.Errorf("replace source lines = %v", hunks[1].SourceLines)
		}
		if !reflect.DeepEqual(hunks[1].TargetLines, []string{"Phone: 555-999-0000"}) {
			t.Errorf("replace target lines = %v", hunks[1].TargetLines)
		}
	})

	t.Run("Reconstruction", func(t *testing.T) {
		cases := []struct {
			name string
			a, b []string
		}{
			{"interleaved", []string{"a", "b", "c", "d", "e"}, []string{"a", "x", "c", "y", "e", "f"}},
			{"disjoint", []string{"1", "2", "3"}, []string{"4", "5"}},
			{"prefix", []string{"a", "b"}, []string{"a", "b", "c", "d"}},
			{"suffix", []string{"x", "a", "b"}, []string{"a", "b"}},
			{"repeated lines", []string{"x", "x", "y", "x"}, []string{"x", "y", "x", "x"}},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				hunks := Compare(tc.a, tc.b)
				source, target := reconstruct(hunks)
				if !reflect.DeepEqual(source, tc.a) {
					t.Errorf("source reconstruction = %v, want %v", source, tc.a)
				}
				if !reflect.DeepEqual(target, tc.b) {
					t.Errorf("target reconstruction = %v, want %v", target, tc.b)
				}
			})
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		a := []string{"a", "b", "a", "b"}
		b := []string{"b", "a", "b", "a"}
		first := Compare(a, b)
		for i := 0; i < 5; i++ {
			if !reflect.DeepEqual(Compare(a, b), first) {
				t.Fatal("repeated comparisons differ")
			}
		}
	})
}

func TestSplitLines(t *testing.T) {
	cases := []struct {
		text string
		want []string
	}{
		{"", nil},
		{"one line", []string{"one line"}},
		{"a\nb\n", []string{"a", "b"}},
		{"a\r\nb", []string{"a", "b"}},
	}
	for _, tc := range cases {
		if got := SplitLines(tc.text); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("SplitLines(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestUnified(t *testing.T) {
	t.Run("NoDifferencesNoOutput", func(t *testing.T) {
		lines := []string{"same", "same again"}
		if out := Unified(lines, lines, "a.png", "b.png"); len(out) != 0 {
			t.Errorf("expected no output for identical inputs, got %v", out)
		}
	})

	t.Run("HeadersAndMarkers", func(t *testing.T) {
		a := []string{"Name: Alice Smith", "Phone: 555-123-4567"}
		b := []string{"Name: Alice Smith", "Phone: 555-999-0000"}

		out := Unified(a, b, "v1.png", "v2.png")
		want := []string{
			"--- v1.png",
			"+++ v2.png",
			"@@ -1,2 +1,2 @@",
			" Name: Alice Smith",
			"-Phone: 555-123-4567",
			"+Phone: 555-999-0000",
		}
		if !reflect.DeepEqual(out, want) {
			t.Errorf("unified output:\n%s\nwant:\n%s",
				strings.Join(out, "\n"), strings.Join(want, "\n"))
		}
	})

	t.Run("DistantChangesSplitIntoGroups", func(t *testing.T) {
		var a, b []string
		for i := 0; i < 20; i++ {
			a = append(a, "ctx")
			b = append(b, "ctx")
		}
		a[0], b[0] = "old start", "new start"
		a[19], b[19] = "old end", "new end"

		out := Unified(a, b, "a", "b")
		headers := 0
		for _, line := range out {
			if strings.HasPrefix(line, "@@") {
				headers++
			}
		}
		if headers != 2 {
			t.Errorf("expected 2 change groups, got %d:\n%s", headers, strings.Join(out, "\n"))
		}
	})

	t.Run("InsertionRange", func(t *testing.T) {
		a := []string{"a"}
		b := []string{"a", "b"}
		out := Unified(a, b, "x", "y")
		want := []string{
			"--- x",
			"+++ y",
			"@@ -1 +1,2 @@",
			" a",
			"+b",
		}
		if !reflect.DeepEqual(out, want) {
			t.Errorf("unified output = %v, want %v", out, want)
		}
	})
}
