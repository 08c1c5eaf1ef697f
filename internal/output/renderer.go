package output

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/chainguard-dev/clog"

	"github.com/dshills/promptscore/internal/evaluation"
	"github.com/dshills/promptscore/internal/excerpt"
	"github.com/dshills/promptscore/internal/sanitize"
)

const (
	// DefaultMaxLength keeps a rendered report under GitHub's comment limit.
	DefaultMaxLength = 65000

	// ReportMarker is the hidden comment used to find an existing report
	// comment on a pull request before deciding to create or update.
	ReportMarker = "<!-- promptscore-report -->"

	// DefaultTitle heads every multi-file report.
	DefaultTitle = "## 🔍 Prompt Evaluation Report"

	// TruncationNotice is appended to every report cut to fit the ceiling.
	TruncationNotice = "\n\n---\n\n> ⚠️ **Report truncated.** The full report is available in the workflow run summary.\n"
)

// Logger is the logging capability the renderer needs.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Renderer turns evaluation results into markdown. It performs no I/O
// and is safe for concurrent use.
type Renderer struct {
	log       Logger
	maxLength int
	marker    string
	title     string
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithLogger sets the logger used for truncation warnings.
func WithLogger(l Logger) RendererOption {
	return func(r *Renderer) { r.log = l }
}

// WithMaxLength sets the report size ceiling in bytes. Values smaller than
// the truncation notice are ignored.
func WithMaxLength(n int) RendererOption {
	return func(r *Renderer) {
		if n > len(TruncationNotice) {
			r.maxLength = n
		}
	}
}

// WithMarker overrides the hidden marker comment.
func WithMarker(m string) RendererOption {
	return func(r *Renderer) { r.marker = m }
}

// WithTitle overrides the report title line.
func WithTitle(t string) RendererOption {
	return func(r *Renderer) { r.title = t }
}

// NewRenderer returns a Renderer with the given options applied.
func NewRenderer(opts ...RendererOption) *Renderer {
	r := &Renderer{
		maxLength: DefaultMaxLength,
		marker:    ReportMarker,
		title:     DefaultTitle,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = clog.FromContext(context.Background())
	}
	return r
}

// RenderReport assembles the sections for all results into one document,
// truncating it to the configured ceiling.
func (r *Renderer) RenderReport(results []evaluation.ComparisonResult, mode evaluation.Mode) string {
	var b strings.Builder
	if r.marker != "" {
		b.WriteString(r.marker)
		b.WriteString("\n")
	}
	b.WriteString(r.title)
	b.WriteString("\n\n")

	if len(results) == 0 {
		b.WriteString("No prompt files were evaluated.\n")
		return r.truncate(b.String())
	}

	fmt.Fprintf(&b, "Evaluated **%d** prompt %s", len(results), plural(len(results), "file", "files"))
	if mode.IsPullRequest() && mode.BaseRef != "" && mode.HeadRef != "" {
		fmt.Fprintf(&b, " (`%s`...`%s`)", shortSHA(mode.BaseRef), shortSHA(mode.HeadRef))
	}
	b.WriteString(".\n\n")

	for i, res := range results {
		if i > 0 {
			b.WriteString("\n\n---\n\n")
		}
		b.WriteString(strings.TrimRight(r.RenderFile(res, mode), "\n"))
	}
	b.WriteString("\n")

	return r.truncate(b.String())
}

// RenderFile renders the section for one reviewed file: header, evaluation
// table, verdict and considerations. Findings are reconciled against the
// factor results first.
func (r *Renderer) RenderFile(result evaluation.ComparisonResult, mode evaluation.Mode) string {
	insights := evaluation.Reconcile(result)

	var b strings.Builder
	writeFileHeader(&b, result)
	writeTable(&b, result, insights, mode)
	if v, ok := evaluation.ComputeVerdict(mode, insights); ok {
		b.WriteString(v.Markdown())
		b.WriteString("\n\n")
	}
	writeConsiderations(&b, result.PromptFile, insights, mode)
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func (r *Renderer) truncate(s string) string {
	if len(s) <= r.maxLength {
		return s
	}
	cut := r.maxLength - len(TruncationNotice)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	r.log.Warn("report truncated", "length", len(s), "max", r.maxLength)
	return s[:cut] + TruncationNotice
}

func writeFileHeader(b *strings.Builder, result evaluation.ComparisonResult) {
	fmt.Fprintf(b, "### 📄 `%s`", result.PromptFile)
	if result.IsNewFile {
		b.WriteString(" (new file)")
	}
	b.WriteString("\n\n")
	fmt.Fprintf(b, "**Overall score: %.1f/10**\n\n", result.Synthesis.OverallScore)
	if summary := sanitize.HeaderLine(result.Synthesis.Summary); summary != "" {
		fmt.Fprintf(b, "> %s\n\n", summary)
	}
}

func writeTable(b *strings.Builder, result evaluation.ComparisonResult, insights []evaluation.FactorInsight, mode evaluation.Mode) {
	if len(result.FactorResults) == 0 {
		return
	}
	pr := mode.IsPullRequest()
	if pr {
		b.WriteString("| Factor | Score | Impact | Rationale |\n")
		b.WriteString("|--------|-------|--------|-----------|\n")
	} else {
		b.WriteString("| Factor | Score | Rationale |\n")
		b.WriteString("|--------|-------|-----------|\n")
	}

	for _, f := range result.FactorResults {
		insight, _ := evaluation.InsightFor(insights, f.FactorID)
		rationale := sanitize.EscapeTableCell(f.TableRationale)
		if pr && insight.ChangeRationale != "" {
			rationale = sanitize.EscapeTableCell(insight.ChangeRationale) + "<br>" + rationale
		}
		score := fmt.Sprintf("%s %d", evaluation.BandFor(f.Score).Emoji(), f.Score)
		name := "**" + sanitize.EscapeTableCell(f.FactorName) + "**"
		if pr {
			fmt.Fprintf(b, "| %s | %s | %s | %s |\n", name, score, impactEmoji(insight.ChangeDirection), rationale)
		} else {
			fmt.Fprintf(b, "| %s | %s | %s |\n", name, score, rationale)
		}
	}
	b.WriteString("\n")
}

func impactEmoji(d evaluation.ChangeDirection) string {
	switch d {
	case evaluation.DirectionImproved:
		return "✅"
	case evaluation.DirectionWorse:
		return "⚠️"
	case evaluation.DirectionMixed:
		return "🔄"
	case evaluation.DirectionNoChange:
		return "➖"
	default:
		return ""
	}
}

func writeConsiderations(b *strings.Builder, file string, insights []evaluation.FactorInsight, mode evaluation.Mode) {
	groups := []struct {
		heading string
		band    evaluation.Band
	}{
		{"#### 🔴 Major Gaps", evaluation.BandCritical},
		{"#### 🟡 Opportunities to Improve", evaluation.BandNeedsWork},
	}

	for _, g := range groups {
		var listed []evaluation.FactorInsight
		for _, in := range insights {
			if evaluation.BandFor(in.Score) != g.band {
				continue
			}
			if len(in.Findings) == 0 && !(mode.IsPullRequest() && len(in.ChangeDetails) > 0) {
				continue
			}
			listed = append(listed, in)
		}
		if len(listed) == 0 {
			continue
		}

		b.WriteString(g.heading)
		b.WriteString("\n\n")
		for _, in := range listed {
			writeFactorDetails(b, file, in, mode)
		}
	}
}

func writeFactorDetails(b *strings.Builder, file string, in evaluation.FactorInsight, mode evaluation.Mode) {
	fmt.Fprintf(b, "<details>\n<summary><b>%s</b> (%s)</summary>\n\n", sanitize.HeaderLine(in.FactorName), countLabel(in, mode))

	if mode.IsPullRequest() {
		b.WriteString("**Changes in this PR**\n\n")
		if len(in.ChangeDetails) == 0 {
			b.WriteString("_No observed changes in this PR._\n\n")
		} else {
			for _, d := range in.ChangeDetails {
				fmt.Fprintf(b, "- %s\n", sanitize.HeaderLine(sanitize.EscapeFences(d)))
			}
			b.WriteString("\n")
		}
		b.WriteString("---\n\n")
	}

	for i, f := range in.Findings {
		writeFinding(b, file, i, f)
	}

	b.WriteString("</details>\n\n")
}

func countLabel(in evaluation.FactorInsight, mode evaluation.Mode) string {
	n := len(in.Findings)
	if mode.IsPullRequest() && len(in.ChangeDetails) > 0 {
		if n == 0 {
			return "PR changes only"
		}
		return fmt.Sprintf("%d %s + PR changes", n, plural(n, "improvement", "improvements"))
	}
	return fmt.Sprintf("%d %s", n, plural(n, "finding", "findings"))
}

func writeFinding(b *strings.Builder, file string, idx int, f evaluation.Finding) {
	num := f.FindingNumber
	if num <= 0 {
		num = idx + 1
	}
	title := f.Description
	if f.CodeSnippet != nil && strings.TrimSpace(f.CodeSnippet.Issue) != "" {
		title = f.CodeSnippet.Issue
	}
	fmt.Fprintf(b, "##### %d. %s\n\n", num, sanitize.HeaderLine(title))

	b.WriteString("**Assessment observation:** ")
	b.WriteString(sanitize.EscapeFences(strings.TrimSpace(f.Description)))
	if loc := location(file, f.CodeSnippet); loc != "" {
		fmt.Fprintf(b, " (`%s`)", loc)
	}
	b.WriteString("\n\n")

	if f.CodeSnippet != nil && strings.TrimSpace(f.CodeSnippet.Code) != "" {
		writeCodeBlock(b, excerpt.Clean(f.CodeSnippet.Code))
	}

	if f.Consideration != "" {
		fmt.Fprintf(b, "**Consideration:** %s\n\n", sanitize.EscapeFences(strings.TrimSpace(f.Consideration)))
	}

	if strings.TrimSpace(f.RewrittenCode) != "" {
		b.WriteString("**Proposed prompt edit:**\n\n")
		writeCodeBlock(b, f.RewrittenCode)
	}
}

func location(file string, s *evaluation.CodeSnippet) string {
	if s == nil || s.StartLine <= 0 {
		return ""
	}
	if s.EndLine <= s.StartLine {
		return fmt.Sprintf("%s:%d", file, s.StartLine)
	}
	return fmt.Sprintf("%s:%d-%d", file, s.StartLine, s.EndLine)
}

func plural(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}

func shortSHA(ref string) string {
	if len(ref) == 40 {
		return ref[:7]
	}
	return ref
}
