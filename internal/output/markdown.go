package output

import (
	"fmt"
	"io"

	"github.com/dshills/promptscore/internal/evaluation"
)

// MarkdownWriter outputs the PR-comment-friendly markdown report.
type MarkdownWriter struct {
	Renderer *Renderer
}

func (m *MarkdownWriter) Write(w io.Writer, report *evaluation.Report) error {
	r := m.Renderer
	if r == nil {
		r = NewRenderer()
	}
	if _, err := io.WriteString(w, r.RenderReport(report.Results, report.Mode)); err != nil {
		return fmt.Errorf("writing markdown: %w", err)
	}
	return nil
}
