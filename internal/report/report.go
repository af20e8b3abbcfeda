// Package report renders scan results: a ranked table for humans on stdout
// and an optional plain file for later runs of grep.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"fillscan/types"
)

const dateLayout = "2006-01-02"

// ColorEnabled reports whether w is a terminal that should get colored scores.
func ColorEnabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Render formats matches as a rounded table, highest similarity first
// (callers pass matches already ranked).
func Render(matches []types.Match, color bool) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	tw.AppendHeader(table.Row{"SCORE", "UPLOADED", "URL", "TITLE", "UPLOADER", "TERM"})
	for _, m := range matches {
		tw.AppendRow(table.Row{
			scoreCell(m.Similarity, color),
			uploadedCell(m.Video),
			m.Video.URL(),
			m.Video.Title,
			m.Video.Uploader,
			m.Query.Term,
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

// WritePlain writes one uncolored pipe-separated line per match.
func WritePlain(w io.Writer, matches []types.Match) error {
	for _, m := range matches {
		_, err := fmt.Fprintf(w, "%s | %03d | %s | %s | %s | %s\n",
			uploadedCell(m.Video), m.Similarity, m.Video.URL(), m.Video.Title, m.Video.Uploader, m.Query.Term)
		if err != nil {
			return err
		}
	}
	return nil
}

// scoreCell colors the similarity by band: red below 50, yellow below 80,
// green from 80 up.
func scoreCell(similarity int, color bool) string {
	s := fmt.Sprintf("%03d", similarity)
	if !color {
		return s
	}
	var c text.Colors
	switch {
	case similarity < 50:
		c = text.Colors{text.FgRed}
	case similarity < 80:
		c = text.Colors{text.FgYellow}
	default:
		c = text.Colors{text.FgGreen}
	}
	return c.Sprint(s)
}

func uploadedCell(v types.Video) string {
	if v.UploadedAt.IsZero() {
		return "-"
	}
	return v.UploadedAt.Format(dateLayout)
}
