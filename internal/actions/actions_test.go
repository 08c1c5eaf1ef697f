package actions

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/promptscore/internal/evaluation"
)

func TestWriteOutputs_Heredoc(t *testing.T) {
	var b strings.Builder
	calls := 0
	delim := func() string {
		calls++
		if calls == 1 {
			return "EOF"
		}
		return "EOF2"
	}
	err := writeOutputs(&b, []Output{{Name: "review_summary", Value: "line one\nEOF inside"}}, delim)
	require.NoError(t, err)
	assert.Equal(t, "review_summary<<EOF2\nline one\nEOF inside\nEOF2\n", b.String())
}

func TestWriteOutputs_InvalidName(t *testing.T) {
	var b strings.Builder
	err := writeOutputs(&b, []Output{{Name: "bad=name", Value: "x"}}, newDelimiter)
	assert.Error(t, err)
}

func TestSetOutputs_AppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output")
	require.NoError(t, os.WriteFile(path, []byte("existing=1\n"), 0o644))

	require.NoError(t, SetOutputs(path, []Output{{Name: "overall_score", Value: "7.5"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	s := string(data)
	assert.True(t, strings.HasPrefix(s, "existing=1\noverall_score<<ghadelimiter_"), s)
	assert.Contains(t, s, "\n7.5\nghadelimiter_")
}

func TestSetOutputs_NoPath(t *testing.T) {
	assert.NoError(t, SetOutputs("", []Output{{Name: "x", Value: "y"}}))
	assert.NoError(t, AppendSummary("", "# report"))
}

func TestAppendSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.md")
	require.NoError(t, AppendSummary(path, "# first"))
	require.NoError(t, AppendSummary(path, "# second\n"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# first\n# second\n", string(data))
}

func result(file string, score float64, dirs ...evaluation.ChangeDirection) evaluation.ComparisonResult {
	r := evaluation.ComparisonResult{PromptFile: file, Synthesis: evaluation.Synthesis{OverallScore: score}}
	for i, d := range dirs {
		id := string(rune('a' + i))
		r.FactorResults = append(r.FactorResults, evaluation.Factor{FactorID: id, FactorName: id, Score: 8})
		r.Synthesis.FactorInsights = append(r.Synthesis.FactorInsights, evaluation.FactorInsight{
			FactorID: id, FactorName: id, Score: 8, ChangeDirection: d,
		})
	}
	return r
}

func TestSummarize_PullRequest(t *testing.T) {
	results := []evaluation.ComparisonResult{
		result("prompts/a.md", 7.0, evaluation.DirectionImproved),
		result("prompts/b.md", 8.25, evaluation.DirectionWorse),
	}
	results[1].HasCriticalIssue = true

	s := Summarize(results, evaluation.PullRequest("base", "head"))
	assert.Equal(t, "7.6", s.OverallScore)
	assert.Equal(t, "REJECT", s.Verdict)
	assert.Equal(t, "prompts/a.md: 7.0/10 APPROVE\nprompts/b.md: 8.2/10 REJECT (critical issue)", s.ReviewSummary)

	outs := s.Outputs()
	require.Len(t, outs, 3)
	assert.Equal(t, OutputVerdict, outs[2].Name)
}

func TestSummarize_AllApproved(t *testing.T) {
	s := Summarize([]evaluation.ComparisonResult{result("a.md", 9, evaluation.DirectionNoChange)}, evaluation.PullRequest("b", "h"))
	assert.Equal(t, "APPROVE", s.Verdict)
}

func TestSummarize_OnDemand(t *testing.T) {
	s := Summarize([]evaluation.ComparisonResult{result("a.md", 6.5, "")}, evaluation.OnDemand())
	assert.Equal(t, "6.5", s.OverallScore)
	assert.Empty(t, s.Verdict)
	assert.Equal(t, "a.md: 6.5/10", s.ReviewSummary)
	assert.Len(t, s.Outputs(), 2)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, evaluation.OnDemand())
	assert.Equal(t, "0.0", s.OverallScore)
	assert.Empty(t, s.Verdict)
}
