package match

import (
	"context"
	"strings"
	"testing"
)

// FuzzMatchAll checks row shape and match values for arbitrary texts.
func FuzzMatchAll(f *testing.F) {
	m, err := Compile([]string{`\w+`, `\d{2,}`, `^$`, `[^\x00-\x7f]`})
	if err != nil {
		f.Fatalf("Compile failed: %v", err)
	}

	f.Add("hello world")
	f.Add("")
	f.Add("12345")
	f.Add(string([]byte{0xff, 0xfe, 0xfd}))
	f.Add("café �")
	f.Add(strings.Repeat("a", 4096))

	ctx := context.Background()

	f.Fuzz(func(t *testing.T, text string) {
		texts := []string{text, text + "x", "x" + text}
		rows, err := m.MatchAll(ctx, texts)
		if err != nil {
			t.Fatalf("MatchAll returned unexpected error: %v", err)
		}
		if len(rows) != len(texts) {
			t.Fatalf("len(rows) = %d, want %d", len(rows), len(texts))
		}
		for i, row := range rows {
			if len(row) != 4 {
				t.Fatalf("len(rows[%d]) = %d, want 4", i, len(row))
			}
			for j, res := range row {
				if !res.Matched && res.Value != "" {
					t.Errorf("rows[%d][%d] absent but has value %q", i, j, res.Value)
				}
				if res.Matched && !strings.Contains(texts[i], res.Value) {
					t.Errorf("rows[%d][%d] = %q is not a substring of %q", i, j, res.Value, texts[i])
				}
			}
		}
	})
}
