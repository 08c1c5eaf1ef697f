package evaluation

import (
	"encoding/json"
	"time"
)

// ChangeDirection describes how a factor moved between the base and head
// versions of a prompt file. It is empty when no prior version exists.
type ChangeDirection string

const (
	DirectionImproved ChangeDirection = "improved"
	DirectionNoChange ChangeDirection = "no-change"
	DirectionWorse    ChangeDirection = "worse"
	DirectionMixed    ChangeDirection = "mixed"
)

// CodeSnippet locates a finding inside the evaluated file.
type CodeSnippet struct {
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine"`
	Issue     string `json:"issue,omitempty"`
	Code      string `json:"code,omitempty"`
}

// Finding is one concrete issue within a factor.
type Finding struct {
	FindingNumber int          `json:"findingNumber"`
	Description   string       `json:"description"`
	CodeSnippet   *CodeSnippet `json:"codeSnippet,omitempty"`
	Consideration string       `json:"consideration,omitempty"`
	RewrittenCode string       `json:"rewrittenCode,omitempty"`
}

// Factor is one scored dimension of prompt quality.
type Factor struct {
	FactorID       string    `json:"factorId"`
	FactorName     string    `json:"factorName"`
	Score          int       `json:"score"`
	ScoreLabel     string    `json:"scoreLabel,omitempty"`
	TableRationale string    `json:"tableRationale,omitempty"`
	Findings       []Finding `json:"findings,omitempty"`
}

// Label returns the score label, deriving it from the score band when the
// evaluator omitted it.
func (f Factor) Label() string {
	if f.ScoreLabel != "" {
		return f.ScoreLabel
	}
	return BandFor(f.Score).Label()
}

// FactorInsight is a factor viewed for synthesis. ChangeDirection,
// ChangeRationale and ChangeDetails are only set when a prior version exists.
type FactorInsight struct {
	FactorID        string          `json:"factorId"`
	FactorName      string          `json:"factorName"`
	Score           int             `json:"score"`
	ChangeDirection ChangeDirection `json:"changeDirection,omitempty"`
	ChangeRationale string          `json:"changeRationale,omitempty"`
	ChangeDetails   []string        `json:"changeDetails,omitempty"`
	Findings        []Finding       `json:"findings,omitempty"`
}

// Synthesis is the aggregated view of all factors for one file.
type Synthesis struct {
	OverallScore   float64         `json:"overallScore"`
	Summary        string          `json:"summary,omitempty"`
	FactorInsights []FactorInsight `json:"factorInsights"`
}

// ComparisonResult is the full evaluation bundle for one reviewed file.
// FactorResults is the source of truth for findings; see [Reconcile].
type ComparisonResult struct {
	PromptFile       string          `json:"promptFile"`
	IsNewFile        bool            `json:"isNewFile"`
	Synthesis        Synthesis       `json:"synthesis"`
	FactorResults    []Factor        `json:"factorResults"`
	HasCriticalIssue bool            `json:"hasCriticalIssue"`
	Comparison       json.RawMessage `json:"comparison,omitempty"`
}

// HasCriticalIssue reports whether any factor in r scores in the critical band.
func HasCriticalIssue(r ComparisonResult) bool {
	for _, f := range r.FactorResults {
		if BandFor(f.Score) == BandCritical {
			return true
		}
	}
	return false
}

// Report is the top-level structure consumed by output writers.
type Report struct {
	Tool        string             `json:"tool"`
	Version     string             `json:"version"`
	RunID       string             `json:"runId"`
	Mode        Mode               `json:"mode"`
	Repository  string             `json:"repository,omitempty"`
	PRNumber    int                `json:"prNumber,omitempty"`
	GeneratedAt time.Time          `json:"generatedAt"`
	Results     []ComparisonResult `json:"results"`
}
