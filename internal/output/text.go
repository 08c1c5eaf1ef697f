package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/dshills/promptscore/internal/evaluation"
)

var (
	bold   = color.New(color.Bold).SprintFunc()
	red    = color.New(color.FgHiRed).SprintFunc()
	yellow = color.New(color.FgHiYellow).SprintFunc()
	green  = color.New(color.FgHiGreen).SprintFunc()
)

// TextWriter outputs a human-readable terminal report.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, report *evaluation.Report) error {
	ew := &errWriter{w: w}

	ew.printf("%s - %s mode\n", bold("Prompt Evaluation"), report.Mode)
	if report.Repository != "" {
		ew.printf("Repository: %s", report.Repository)
		if report.PRNumber > 0 {
			ew.printf(" (PR #%d)", report.PRNumber)
		}
		ew.println("")
	}
	ew.println(strings.Repeat("─", 60))

	if len(report.Results) == 0 {
		ew.println("\nNo prompt files were evaluated.")
		return ew.err
	}

	for _, res := range report.Results {
		if ew.err != nil {
			return ew.err
		}
		insights := evaluation.Reconcile(res)

		ew.printf("\n%s", bold(res.PromptFile))
		if res.IsNewFile {
			ew.printf(" (new file)")
		}
		ew.printf("  overall %s\n", colorScore(res.Synthesis.OverallScore))
		if res.Synthesis.Summary != "" {
			for _, line := range wrapText(res.Synthesis.Summary, 70) {
				ew.printf("  %s\n", line)
			}
		}
		ew.println("")

		if ew.err == nil {
			ew.err = writeScoreTable(w, res, insights, report.Mode)
		}

		if v, ok := evaluation.ComputeVerdict(report.Mode, insights); ok {
			decision := green(string(v.Decision))
			if v.Decision == evaluation.DecisionReject {
				decision = red(string(v.Decision))
			}
			ew.printf("\nVerdict: %s\n", decision)
			for _, line := range wrapText(v.Rationale, 70) {
				ew.printf("  %s\n", line)
			}
		}

		for _, in := range insights {
			if evaluation.BandFor(in.Score) == evaluation.BandGood || len(in.Findings) == 0 {
				continue
			}
			ew.printf("\n  %s (%d)\n", in.FactorName, len(in.Findings))
			for _, f := range in.Findings {
				title := f.Description
				if f.CodeSnippet != nil && f.CodeSnippet.Issue != "" {
					title = f.CodeSnippet.Issue
				}
				loc := location(res.PromptFile, f.CodeSnippet)
				if loc != "" {
					loc = "  " + loc
				}
				ew.printf("    %d. %s%s\n", f.FindingNumber, strings.Join(wrapText(title, 70), " "), loc)
			}
		}
	}

	ew.printf("\n%s\n", strings.Repeat("─", 60))
	return ew.err
}

func writeScoreTable(w io.Writer, res evaluation.ComparisonResult, insights []evaluation.FactorInsight, mode evaluation.Mode) error {
	headers := []string{"Factor", "Score", "Band"}
	if mode.IsPullRequest() {
		headers = append(headers, "Change")
	}
	table := tablewriter.NewTable(w,
		tablewriter.WithHeader(headers),
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		}),
		tablewriter.WithPadding(tw.Padding{Left: "  ", Right: "  "}),
	)
	for _, f := range res.FactorResults {
		row := []string{f.FactorName, fmt.Sprintf("%d/10", f.Score), f.Label()}
		if mode.IsPullRequest() {
			in, _ := evaluation.InsightFor(insights, f.FactorID)
			row = append(row, string(in.ChangeDirection))
		}
		if err := table.Append(row); err != nil {
			return fmt.Errorf("building score table: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering score table: %w", err)
	}
	return nil
}

func colorScore(score float64) string {
	s := fmt.Sprintf("%.1f/10", score)
	switch evaluation.BandFor(int(score)) {
	case evaluation.BandCritical:
		return red(s)
	case evaluation.BandNeedsWork:
		return yellow(s)
	default:
		return green(s)
	}
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	words := strings.Fields(text)
	var current strings.Builder
	for _, word := range words {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
