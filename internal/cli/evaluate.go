package cli

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/dshills/promptscore/internal/cache"
	"github.com/dshills/promptscore/internal/config"
	"github.com/dshills/promptscore/internal/evalclient"
	"github.com/dshills/promptscore/internal/evaluation"
	"github.com/dshills/promptscore/internal/gitctx"
	"github.com/dshills/promptscore/internal/output"
	"github.com/dshills/promptscore/internal/redact"
)

// Shared evaluation flags
var (
	flagAPIURL             string
	flagExclude            string
	flagFailOn             string
	flagSystemOverviewFile string
	flagNoRedact           bool
	flagNoCache            bool
	flagStaged             bool
)

// overrideFlags maps flag names to config keys for buildOverrides.
var overrideFlags = map[string]string{
	"api-url":              "apiUrl",
	"exclude":              "exclude",
	"fail-on":              "failOn",
	"format":               "format",
	"system-overview-file": "systemOverviewFile",
	"post-comment":         "postComment",
	"submit-review":        "submitReview",
	"max-report-length":    "maxReportLength",
}

func addEvaluationFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagAPIURL, "api-url", "", "Evaluation service URL")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "Exclude path prefixes or globs (comma-separated)")
	cmd.Flags().StringVar(&flagFailOn, "fail-on", "", "Exit 1 when results meet the threshold (none, critical, reject)")
	cmd.Flags().StringVar(&flagSystemOverviewFile, "system-overview-file", "", "File describing the system the prompts belong to")
	cmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
	cmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "Bypass the response cache")
}

// buildOverrides collects explicitly set flags as config overrides.
func buildOverrides(cmd *cobra.Command) map[string]string {
	m := make(map[string]string)
	for name, key := range overrideFlags {
		if !cmd.Flags().Changed(name) {
			continue
		}
		m[key] = cmd.Flags().Lookup(name).Value.String()
	}
	if flagNoRedact {
		m["privacy.redactSecrets"] = "false"
	}
	if flagNoCache {
		m["cache.enabled"] = "false"
	}
	return m
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(cmd.Context(), flagConfig, buildOverrides(cmd))
	if err != nil {
		return config.Config{}, &usageError{err: err}
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, &usageError{err: fmt.Errorf("invalid configuration: %w", err)}
	}
	return cfg, nil
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [paths...]",
	Short: "Evaluate prompt files on demand",
	Long: "Evaluate prompt files without a prior version. Paths default to the promptPaths setting; " +
		"directories are walked. With --staged, the staged prompt files are compared against HEAD.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig(cmd)
		if err != nil {
			fail(cmd, err)
			return nil
		}

		var (
			files []evaluation.FileInput
			mode  evaluation.Mode
		)
		if flagStaged {
			files, err = stagedFiles(cfg)
			mode = evaluation.PullRequest("HEAD", "index")
		} else {
			files, err = localFiles(cfg, args)
			mode = evaluation.OnDemand()
		}
		if err != nil {
			fail(cmd, err)
			return nil
		}
		if len(files) == 0 {
			clog.InfoContextf(ctx, "No prompt files to evaluate")
			return nil
		}

		report, err := runEvaluation(ctx, cfg, files, mode, nil)
		if err != nil {
			fail(cmd, err)
			return nil
		}
		if err := writeReport(cmd, cfg, report); err != nil {
			fail(cmd, err)
			return nil
		}
		applyFailOn(cmd, cfg, report)
		return nil
	},
}

func localFiles(cfg config.Config, args []string) ([]evaluation.FileInput, error) {
	paths := args
	if len(paths) == 0 {
		paths = cfg.PromptPaths
	}
	expanded, err := gitctx.ExpandPaths(paths, cfg.Exclude)
	if err != nil {
		return nil, &usageError{err: err}
	}
	return gitctx.ReadLocal(expanded)
}

func stagedFiles(cfg config.Config) ([]evaluation.FileInput, error) {
	repo, err := gitctx.Open(".")
	if err != nil {
		return nil, &usageError{err: err}
	}
	changes, err := repo.StagedFiles()
	if err != nil {
		return nil, err
	}
	return repo.StagedVersions(gitctx.SelectFiles(changes, cfg.PromptPaths, cfg.Exclude))
}

// runEvaluation redacts files, consults the cache, calls the evaluation
// service and assembles the report.
func runEvaluation(ctx context.Context, cfg config.Config, files []evaluation.FileInput, mode evaluation.Mode, meta *evaluation.Metadata) (*evaluation.Report, error) {
	log := clog.FromContext(ctx)
	if cfg.APIURL == "" {
		return nil, usagef("apiUrl is not set (use --api-url, PROMPTSCORE_API_URL or the config file)")
	}
	if cfg.APIKey == "" {
		return nil, usagef("apiKey is not set (use PROMPTSCORE_API_KEY or the api-key action input)")
	}

	policy := redact.Policy{Secrets: cfg.Privacy.RedactSecrets, Paths: cfg.Privacy.RedactPaths}
	if !cfg.Privacy.RedactSecrets {
		log.Warn("secret redaction is disabled")
	}
	files, rep := policy.Files(files)
	if n := rep.Total(); n > 0 {
		log.Info("redacted content before sending", "count", n)
	}

	overview, err := cfg.Overview()
	if err != nil {
		return nil, err
	}
	kind := evaluation.ModeOnDemand
	if mode.IsPullRequest() {
		kind = evaluation.ModePullRequest
	}
	req := evaluation.Request{
		APIKey:         cfg.APIKey,
		Mode:           kind,
		SystemOverview: overview,
		Files:          files,
		Metadata:       meta,
	}

	resp, err := evaluateCached(ctx, cfg, req)
	if err != nil {
		return nil, err
	}

	report := &evaluation.Report{
		Tool:        "promptscore",
		Version:     version,
		RunID:       ulid.MustNew(ulid.Now(), rand.Reader).String(),
		Mode:        mode,
		GeneratedAt: time.Now().UTC(),
		Results:     resp.ComparisonResults(files),
	}
	if meta != nil {
		report.Repository = meta.Repository
		report.PRNumber = meta.PRNumber
	}
	return report, nil
}

func evaluateCached(ctx context.Context, cfg config.Config, req evaluation.Request) (*evaluation.Response, error) {
	log := clog.FromContext(ctx)
	c, err := cache.New(cfg.Cache.Enabled, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	key, err := cache.RequestKey(cfg.APIURL, req)
	if err != nil {
		return nil, err
	}
	if data, ok := c.Get(key); ok {
		var resp evaluation.Response
		if err := json.Unmarshal(data, &resp); err == nil && resp.Validate() == nil {
			log.Info("using cached evaluation", "files", len(req.Files))
			return &resp, nil
		}
	}

	clog.InfoContextf(ctx, "Evaluating %d prompt file(s) in %s mode", len(req.Files), req.Mode)
	client := evalclient.New(cfg.APIURL,
		evalclient.WithTimeout(cfg.Timeout()),
		evalclient.WithUserAgent("promptscore/"+version),
	)
	resp, err := client.Evaluate(ctx, req)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(resp); err == nil {
		if err := c.Put(key, data); err != nil {
			log.Warn("caching evaluation failed", "error", err)
		}
	}
	return resp, nil
}

func newRenderer(ctx context.Context, cfg config.Config) *output.Renderer {
	return output.NewRenderer(
		output.WithLogger(clog.FromContext(ctx)),
		output.WithMaxLength(cfg.MaxReportLength),
	)
}

func writeReport(cmd *cobra.Command, cfg config.Config, report *evaluation.Report) error {
	r := newRenderer(cmd.Context(), cfg)
	if flagOut != "" {
		return output.WriteReport(report, cfg.Format, flagOut, r)
	}
	w, err := output.GetWriter(cfg.Format, r)
	if err != nil {
		return err
	}
	return w.Write(cmd.OutOrStdout(), report)
}

// applyFailOn sets ExitFindings when the report meets the failOn threshold.
func applyFailOn(cmd *cobra.Command, cfg config.Config, report *evaluation.Report) {
	if reason := failOnReason(cfg.FailOn, report); reason != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "promptscore: %s\n", reason)
		exitCode = ExitFindings
	}
}

func failOnReason(failOn string, report *evaluation.Report) string {
	for _, r := range report.Results {
		switch failOn {
		case config.FailOnCritical:
			if r.HasCriticalIssue {
				return fmt.Sprintf("%s has a critical issue", r.PromptFile)
			}
		case config.FailOnReject:
			if v, ok := evaluation.ComputeVerdict(report.Mode, evaluation.Reconcile(r)); ok && v.Decision == evaluation.DecisionReject {
				return fmt.Sprintf("%s was rejected: %s", r.PromptFile, v.Rationale)
			}
		}
	}
	return ""
}

func init() {
	addEvaluationFlags(evaluateCmd)
	evaluateCmd.Flags().BoolVar(&flagStaged, "staged", false, "Evaluate staged prompt files against HEAD")
}
