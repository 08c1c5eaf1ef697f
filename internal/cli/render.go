package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/promptscore/internal/evaluation"
)

var (
	flagRenderMode string
	flagRenderBase string
	flagRenderHead string
)

var renderCmd = &cobra.Command{
	Use:   "render <file.json>",
	Short: "Render a saved evaluation response or report",
	Long: "Re-render a saved service response, or a report written with --format json, in any output " +
		"format. With --mode auto the mode is inferred from the presence of change directions.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fail(cmd, err)
			return nil
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			fail(cmd, &usageError{err: err})
			return nil
		}
		report, err := parseSaved(data)
		if err != nil {
			fail(cmd, err)
			return nil
		}
		mode, err := renderMode(flagRenderMode, report)
		if err != nil {
			fail(cmd, err)
			return nil
		}
		report.Mode = mode
		if err := writeReport(cmd, cfg, report); err != nil {
			fail(cmd, err)
			return nil
		}
		applyFailOn(cmd, cfg, report)
		return nil
	},
}

// parseSaved accepts either a promptscore JSON report or a raw service
// response.
func parseSaved(data []byte) (*evaluation.Report, error) {
	var probe struct {
		Tool string `json:"tool"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parsing saved file: %w", err)
	}
	if probe.Tool != "" {
		var report evaluation.Report
		if err := json.Unmarshal(data, &report); err != nil {
			return nil, fmt.Errorf("parsing report: %w", err)
		}
		return &report, nil
	}

	var resp evaluation.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if err := resp.Validate(); err != nil {
		return nil, err
	}
	return &evaluation.Report{
		Tool:        "promptscore",
		Version:     version,
		GeneratedAt: time.Now().UTC(),
		Results:     resp.ComparisonResults(nil),
	}, nil
}

func renderMode(flag string, report *evaluation.Report) (evaluation.Mode, error) {
	if flag == "auto" {
		if report.Mode.Kind != "" && flagRenderBase == "" && flagRenderHead == "" {
			return report.Mode, nil
		}
		var insights []evaluation.FactorInsight
		for _, r := range report.Results {
			insights = append(insights, r.Synthesis.FactorInsights...)
		}
		mode := evaluation.InferMode(insights)
		if mode.IsPullRequest() {
			mode = evaluation.PullRequest(flagRenderBase, flagRenderHead)
		}
		return mode, nil
	}
	kind, err := evaluation.ParseModeKind(flag)
	if err != nil {
		return evaluation.Mode{}, &usageError{err: err}
	}
	if kind == evaluation.ModePullRequest {
		return evaluation.PullRequest(flagRenderBase, flagRenderHead), nil
	}
	return evaluation.OnDemand(), nil
}

func init() {
	renderCmd.Flags().StringVar(&flagRenderMode, "mode", "auto", "Rendering mode (pr, on-demand, auto)")
	renderCmd.Flags().StringVar(&flagRenderBase, "base", "", "Base ref shown in pull request mode")
	renderCmd.Flags().StringVar(&flagRenderHead, "head", "", "Head ref shown in pull request mode")
	renderCmd.Flags().StringVar(&flagFailOn, "fail-on", "", "Exit 1 when results meet the threshold (none, critical, reject)")
	renderCmd.Flags().Int("max-report-length", 0, "Maximum markdown report length in bytes")
}

