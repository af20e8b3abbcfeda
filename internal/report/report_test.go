package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"fillscan/types"
)

func sampleMatches() []types.Match {
	q := types.Query{Term: "Summer Picnic"}
	return []types.Match{
		{
			Query: q,
			Video: types.Video{
				ID:         "abc123",
				Title:      "Summer Picnic (Fill)",
				Uploader:   "FillChannel",
				UploadedAt: time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC),
			},
			Similarity: 95,
		},
		{
			Query:      q,
			Video:      types.Video{ID: "def456", Title: "summer picnic script reading", Uploader: "OtherChannel"},
			Similarity: 72,
		},
	}
}

func TestRenderContainsRows(t *testing.T) {
	out := Render(sampleMatches(), false)

	for _, want := range []string{
		"SCORE", "UPLOADED", "TERM",
		"095", "2023-05-01", "https://youtu.be/abc123", "Summer Picnic (Fill)", "FillChannel",
		"072", "https://youtu.be/def456",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Rendered table missing %q:\n%s", want, out)
		}
	}
}

func TestRenderZeroDateDash(t *testing.T) {
	out := Render(sampleMatches(), false)
	if !strings.Contains(out, "-") {
		t.Errorf("Expected '-' for unknown upload date:\n%s", out)
	}
}

func TestWritePlain(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePlain(&buf, sampleMatches()); err != nil {
		t.Fatalf("WritePlain failed: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "2023-05-01 | 095 | https://youtu.be/abc123") {
		t.Errorf("Unexpected first line: %s", lines[0])
	}
	if !strings.Contains(lines[1], "- | 072 |") {
		t.Errorf("Expected dash for zero date in: %s", lines[1])
	}
}

func TestScoreCellBands(t *testing.T) {
	tests := []struct {
		name       string
		similarity int
		fragment   string
	}{
		{name: "Low is red", similarity: 20, fragment: "\x1b[31m"},
		{name: "Mid is yellow", similarity: 65, fragment: "\x1b[33m"},
		{name: "High is green", similarity: 90, fragment: "\x1b[32m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoreCell(tt.similarity, true)
			if !strings.Contains(got, tt.fragment) {
				t.Errorf("scoreCell(%d, true) = %q, want color %q", tt.similarity, got, tt.fragment)
			}
		})
	}
}

func TestScoreCellNoColor(t *testing.T) {
	if got := scoreCell(90, false); got != "090" {
		t.Errorf("Expected plain zero-padded score, got %q", got)
	}
}
