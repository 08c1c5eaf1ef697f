package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"

	"github.com/dshills/promptscore/internal/actions"
	"github.com/dshills/promptscore/internal/config"
	"github.com/dshills/promptscore/internal/evaluation"
	"github.com/dshills/promptscore/internal/gitctx"
	"github.com/dshills/promptscore/internal/github"
	"github.com/dshills/promptscore/internal/output"
)

// summaryMaxLength caps the job summary; GitHub rejects summaries over 1MiB.
const summaryMaxLength = 1 << 20

var (
	flagPRNumber int
	flagBaseRef  string
	flagHeadRef  string
	flagRepo     string
	flagDryRun   bool
)

var prCmd = &cobra.Command{
	Use:   "pr",
	Short: "Evaluate the prompt files changed by a pull request",
	Long: "Compare each changed prompt file between the base and head commits, post the report as a " +
		"pull request comment and write GitHub Actions outputs. Pull request details default to the " +
		"Actions runner environment.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig(cmd)
		if err != nil {
			fail(cmd, err)
			return nil
		}
		ghEnv, err := config.LoadGitHubEnv(ctx)
		if err != nil {
			fail(cmd, err)
			return nil
		}
		target, err := resolvePR(ghEnv)
		if err != nil {
			fail(cmd, err)
			return nil
		}
		if err := runPR(cmd, cfg, ghEnv, target); err != nil {
			fail(cmd, err)
		}
		return nil
	},
}

// prTarget identifies the pull request under evaluation.
type prTarget struct {
	Owner, Repo string
	Number      int
	Base, Head  string
}

func resolvePR(env config.GitHubEnv) (prTarget, error) {
	var t prTarget
	var err error

	switch {
	case flagRepo != "":
		t.Owner, t.Repo, err = github.ParseRepository(flagRepo)
	case env.Repository != "":
		t.Owner, t.Repo, err = github.ParseRepository(env.Repository)
	default:
		t.Owner, t.Repo, err = github.DetectRepo(".")
	}
	if err != nil {
		return prTarget{}, &usageError{err: fmt.Errorf("%w; use --repo owner/repo", err)}
	}

	number, base, head, err := env.PullRequest()
	if err != nil {
		return prTarget{}, err
	}
	t.Number, t.Base, t.Head = number, base, head
	if flagPRNumber > 0 {
		t.Number = flagPRNumber
	}
	if flagBaseRef != "" {
		t.Base = flagBaseRef
	}
	if flagHeadRef != "" {
		t.Head = flagHeadRef
	}
	if t.Number == 0 {
		return prTarget{}, usagef("no pull request found; use --pr")
	}
	if t.Base == "" || t.Head == "" {
		return prTarget{}, usagef("base and head refs are required; use --base and --head")
	}
	return t, nil
}

func runPR(cmd *cobra.Command, cfg config.Config, env config.GitHubEnv, t prTarget) error {
	ctx := cmd.Context()
	gh, err := github.NewClient(ctx, env.Token, env.APIURL)
	if err != nil {
		return &usageError{err: err}
	}

	changes, err := gh.ListPRFiles(ctx, t.Owner, t.Repo, t.Number)
	if err != nil {
		return err
	}
	selected := gitctx.SelectFiles(changes, cfg.PromptPaths, cfg.Exclude)
	mode := evaluation.PullRequest(t.Base, t.Head)
	if len(selected) == 0 {
		clog.InfoContextf(ctx, "PR #%d changes no prompt files under %s", t.Number, strings.Join(cfg.PromptPaths, ", "))
		return publish(ctx, cfg, env, gh, t, &evaluation.Report{Mode: mode})
	}

	repo, err := gitctx.Open(".")
	if err != nil {
		return err
	}
	files, err := repo.Versions(ctx, t.Base, t.Head, selected)
	if err != nil {
		return fmt.Errorf("reading file versions: %w", err)
	}

	meta := &evaluation.Metadata{Repository: t.Owner + "/" + t.Repo, PRNumber: t.Number}
	report, err := runEvaluation(ctx, cfg, files, mode, meta)
	if err != nil {
		return err
	}
	if err := writeReport(cmd, cfg, report); err != nil {
		return err
	}
	if err := publish(ctx, cfg, env, gh, t, report); err != nil {
		return err
	}
	applyFailOn(cmd, cfg, report)
	return nil
}

// publish writes Actions outputs and the job summary, then updates the pull
// request comment and review as configured.
func publish(ctx context.Context, cfg config.Config, env config.GitHubEnv, gh *github.Client, t prTarget, report *evaluation.Report) error {
	log := clog.FromContext(ctx)
	summary := actions.Summarize(report.Results, report.Mode)
	if err := actions.SetOutputs(env.Output, summary.Outputs()); err != nil {
		return err
	}

	full := output.NewRenderer(output.WithLogger(log), output.WithMaxLength(summaryMaxLength)).
		RenderReport(report.Results, report.Mode)
	if err := actions.AppendSummary(env.StepSummary, full); err != nil {
		return err
	}

	if flagDryRun {
		log.Info("dry run: not posting to the pull request", "pr", t.Number)
		return nil
	}
	if cfg.PostComment && len(report.Results) > 0 {
		body := newRenderer(ctx, cfg).RenderReport(report.Results, report.Mode)
		created, err := gh.UpsertComment(ctx, t.Owner, t.Repo, t.Number, output.ReportMarker, body)
		if err != nil {
			return err
		}
		log.Info("report comment posted", "pr", t.Number, "created", created)
	}
	if cfg.SubmitReview && summary.Verdict != "" {
		event, body := reviewFor(report)
		if err := gh.SubmitReview(ctx, t.Owner, t.Repo, t.Number, event, body, t.Head); err != nil {
			return err
		}
		log.Info("review submitted", "pr", t.Number, "event", event)
	}
	return nil
}

// reviewFor builds the review event and body from per-file verdicts. Any
// rejected file requests changes.
func reviewFor(report *evaluation.Report) (event, body string) {
	event = "APPROVE"
	var b strings.Builder
	for _, r := range report.Results {
		v, ok := evaluation.ComputeVerdict(report.Mode, evaluation.Reconcile(r))
		if !ok {
			continue
		}
		if v.ReviewEvent() != "APPROVE" {
			event = v.ReviewEvent()
		}
		fmt.Fprintf(&b, "`%s`: %s\n\n", r.PromptFile, v.Markdown())
	}
	return event, strings.TrimSpace(b.String())
}

func init() {
	addEvaluationFlags(prCmd)
	prCmd.Flags().IntVar(&flagPRNumber, "pr", 0, "Pull request number (default: from the Actions event)")
	prCmd.Flags().StringVar(&flagBaseRef, "base", "", "Base commit (default: from the Actions event)")
	prCmd.Flags().StringVar(&flagHeadRef, "head", "", "Head commit (default: from the Actions event)")
	prCmd.Flags().StringVar(&flagRepo, "repo", "", "Repository as owner/repo (default: GITHUB_REPOSITORY or origin remote)")
	prCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Do not post a comment or review")
	prCmd.Flags().Bool("post-comment", true, "Post or update the report comment")
	prCmd.Flags().Bool("submit-review", false, "Submit the verdict as a pull request review")
	prCmd.Flags().Int("max-report-length", 0, "Maximum comment length in bytes")
}
