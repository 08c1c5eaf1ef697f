package actions

import (
	"crypto/rand"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dshills/promptscore/internal/evaluation"
)

// Output names written to $GITHUB_OUTPUT.
const (
	OutputOverallScore  = "overall_score"
	OutputReviewSummary = "review_summary"
	OutputVerdict       = "verdict"
)

// Output is one step output.
type Output struct {
	Name  string
	Value string
}

// SetOutputs appends outputs to the file named by $GITHUB_OUTPUT. Every
// value is written as a heredoc block so multi-line values survive.
func SetOutputs(path string, outputs []Output) error {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening step output file: %w", err)
	}
	defer f.Close()
	return writeOutputs(f, outputs, newDelimiter)
}

func writeOutputs(w io.Writer, outputs []Output, delim func() string) error {
	var b strings.Builder
	for _, o := range outputs {
		if o.Name == "" || strings.ContainsAny(o.Name, "\r\n=") {
			return fmt.Errorf("invalid output name %q", o.Name)
		}
		d := delim()
		for strings.Contains(o.Value, d) || strings.Contains(o.Name, d) {
			d = delim()
		}
		fmt.Fprintf(&b, "%s<<%s\n%s\n%s\n", o.Name, d, o.Value, d)
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("writing step outputs: %w", err)
	}
	return nil
}

func newDelimiter() string {
	return "ghadelimiter_" + ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// AppendSummary appends markdown to the file named by $GITHUB_STEP_SUMMARY.
func AppendSummary(path, markdown string) error {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening step summary file: %w", err)
	}
	defer f.Close()
	if !strings.HasSuffix(markdown, "\n") {
		markdown += "\n"
	}
	if _, err := io.WriteString(f, markdown); err != nil {
		return fmt.Errorf("writing step summary: %w", err)
	}
	return nil
}

// Summary holds the scalar step outputs derived from a run.
type Summary struct {
	OverallScore  string
	ReviewSummary string
	Verdict       string
}

// Summarize derives step outputs from the evaluated files. OverallScore is
// the mean of the per-file overall scores to one decimal. Verdict is REJECT
// when any file is rejected, APPROVE when all files are approved, and empty
// outside PR mode.
func Summarize(results []evaluation.ComparisonResult, mode evaluation.Mode) Summary {
	if len(results) == 0 {
		return Summary{OverallScore: "0.0", ReviewSummary: "No prompt files were evaluated."}
	}
	var (
		total    float64
		lines    []string
		rejected bool
		verdicts int
	)
	for _, r := range results {
		total += r.Synthesis.OverallScore
		line := fmt.Sprintf("%s: %.1f/10", r.PromptFile, r.Synthesis.OverallScore)
		if v, ok := evaluation.ComputeVerdict(mode, evaluation.Reconcile(r)); ok {
			verdicts++
			line += " " + string(v.Decision)
			if v.Decision == evaluation.DecisionReject {
				rejected = true
			}
		}
		if r.HasCriticalIssue {
			line += " (critical issue)"
		}
		lines = append(lines, line)
	}
	s := Summary{
		OverallScore:  fmt.Sprintf("%.1f", math.Round(total/float64(len(results))*10)/10),
		ReviewSummary: strings.Join(lines, "\n"),
	}
	if verdicts > 0 {
		s.Verdict = string(evaluation.DecisionApprove)
		if rejected {
			s.Verdict = string(evaluation.DecisionReject)
		}
	}
	return s
}

// Outputs returns s as step outputs. The verdict is omitted when empty.
func (s Summary) Outputs() []Output {
	out := []Output{
		{Name: OutputOverallScore, Value: s.OverallScore},
		{Name: OutputReviewSummary, Value: s.ReviewSummary},
	}
	if s.Verdict != "" {
		out = append(out, Output{Name: OutputVerdict, Value: s.Verdict})
	}
	return out
}
