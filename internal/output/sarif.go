package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dshills/promptscore/internal/evaluation"
)

// SARIFWriter outputs findings in SARIF v2.1.0 format.
type SARIFWriter struct{}

func (s *SARIFWriter) Write(w io.Writer, report *evaluation.Report) error {
	sarif := buildSARIF(report)
	data, err := json.MarshalIndent(sarif, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling SARIF: %w", err)
	}
	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("writing SARIF: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}

// SARIF schema types (v2.1.0)

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	ShortDescription sarifMessage       `json:"shortDescription"`
	DefaultConfig    sarifDefaultConfig `json:"defaultConfiguration"`
}

type sarifDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
	Fixes     []sarifFix      `json:"fixes,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
	EndLine   int `json:"endLine"`
}

type sarifFix struct {
	Description sarifMessage `json:"description"`
}

// buildSARIF emits one result per finding of every factor below the good
// band. Each factor becomes one rule.
func buildSARIF(report *evaluation.Report) sarifLog {
	var rules []sarifRule
	seen := make(map[string]bool)
	results := []sarifResult{}

	for _, res := range report.Results {
		for _, f := range res.FactorResults {
			band := evaluation.BandFor(f.Score)
			if band == evaluation.BandGood {
				continue
			}
			ruleID := ruleIDFor(f)
			if !seen[ruleID] {
				seen[ruleID] = true
				rules = append(rules, sarifRule{
					ID:               ruleID,
					Name:             f.FactorName,
					ShortDescription: sarifMessage{Text: f.FactorName},
					DefaultConfig:    sarifDefaultConfig{Level: bandToLevel(band)},
				})
			}

			for _, fd := range f.Findings {
				result := sarifResult{
					RuleID:  ruleID,
					Level:   bandToLevel(band),
					Message: sarifMessage{Text: fd.Description},
				}
				loc := sarifLocation{PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{URI: res.PromptFile},
				}}
				if s := fd.CodeSnippet; s != nil && s.StartLine > 0 {
					end := max(s.EndLine, s.StartLine)
					loc.PhysicalLocation.Region = &sarifRegion{StartLine: s.StartLine, EndLine: end}
				}
				result.Locations = append(result.Locations, loc)
				if fd.Consideration != "" {
					result.Fixes = append(result.Fixes, sarifFix{
						Description: sarifMessage{Text: fd.Consideration},
					})
				}
				results = append(results, result)
			}
		}
	}

	return sarifLog{
		Version: "2.1.0",
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json",
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:           "promptscore",
						Version:        report.Version,
						InformationURI: "https://github.com/dshills/promptscore",
						Rules:          rules,
					},
				},
				Results: results,
			},
		},
	}
}

// bandToLevel maps a score band to a SARIF level.
func bandToLevel(b evaluation.Band) string {
	switch b {
	case evaluation.BandCritical:
		return "error"
	case evaluation.BandNeedsWork:
		return "warning"
	default:
		return "note"
	}
}

func ruleIDFor(f evaluation.Factor) string {
	id := f.FactorID
	if id == "" {
		id = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(f.FactorName), " ", "-"))
	}
	return "promptscore/" + id
}
