package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

// Prefixes searched for settings, in order. GitHub Actions exposes action
// inputs as INPUT_<NAME>.
const (
	ActionInputPrefix = "INPUT_"
	EnvPrefix         = "PROMPTSCORE_"
)

// envConfig mirrors Config for the environment layer. Pointer fields stay
// nil when the variable is unset so they never clobber file values.
type envConfig struct {
	APIURL             *string  `env:"API_URL, noinit"`
	APIKey             *string  `env:"API_KEY, noinit"`
	TimeoutSeconds     *int     `env:"TIMEOUT_SECONDS, noinit"`
	PromptPaths        []string `env:"PROMPT_PATHS"`
	Exclude            []string `env:"EXCLUDE"`
	SystemOverview     *string  `env:"SYSTEM_OVERVIEW, noinit"`
	SystemOverviewFile *string  `env:"SYSTEM_OVERVIEW_FILE, noinit"`
	Format             *string  `env:"FORMAT, noinit"`
	FailOn             *string  `env:"FAIL_ON, noinit"`
	PostComment        *bool    `env:"POST_COMMENT, noinit"`
	SubmitReview       *bool    `env:"SUBMIT_REVIEW, noinit"`
	MaxReportLength    *int     `env:"MAX_REPORT_LENGTH, noinit"`
	CacheEnabled       *bool    `env:"CACHE_ENABLED, noinit"`
	CacheDir           *string  `env:"CACHE_DIR, noinit"`
	CacheTTLSeconds    *int     `env:"CACHE_TTL_SECONDS, noinit"`
	RedactSecrets      *bool    `env:"REDACT_SECRETS, noinit"`
}

// envLookuper searches the Action input prefix, then the tool prefix.
func envLookuper(base envconfig.Lookuper) envconfig.Lookuper {
	return envconfig.MultiLookuper(
		nonEmpty{envconfig.PrefixLookuper(ActionInputPrefix, base)},
		nonEmpty{envconfig.PrefixLookuper(EnvPrefix, base)},
	)
}

// nonEmpty treats empty values as unset. The Actions runner exports every
// declared input, including ones the workflow left blank.
type nonEmpty struct {
	envconfig.Lookuper
}

func (n nonEmpty) Lookup(key string) (string, bool) {
	v, ok := n.Lookuper.Lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

func mergeEnv(ctx context.Context, cfg *Config, lu envconfig.Lookuper) error {
	var env envConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &env,
		Lookuper: lu,
	}); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}

	setString(&cfg.APIURL, env.APIURL)
	setString(&cfg.APIKey, env.APIKey)
	setInt(&cfg.TimeoutSeconds, env.TimeoutSeconds)
	if len(env.PromptPaths) > 0 {
		cfg.PromptPaths = trimAll(env.PromptPaths)
	}
	if len(env.Exclude) > 0 {
		cfg.Exclude = trimAll(env.Exclude)
	}
	setString(&cfg.SystemOverview, env.SystemOverview)
	setString(&cfg.SystemOverviewFile, env.SystemOverviewFile)
	setString(&cfg.Format, env.Format)
	setString(&cfg.FailOn, env.FailOn)
	setBool(&cfg.PostComment, env.PostComment)
	setBool(&cfg.SubmitReview, env.SubmitReview)
	setInt(&cfg.MaxReportLength, env.MaxReportLength)
	setBool(&cfg.Cache.Enabled, env.CacheEnabled)
	setString(&cfg.Cache.Dir, env.CacheDir)
	setInt(&cfg.Cache.TTLSeconds, env.CacheTTLSeconds)
	setBool(&cfg.Privacy.RedactSecrets, env.RedactSecrets)
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// GitHubEnv is the subset of the GitHub Actions runner environment the
// pr command reads.
type GitHubEnv struct {
	Token       string `env:"GITHUB_TOKEN"`
	Repository  string `env:"GITHUB_REPOSITORY"`
	EventName   string `env:"GITHUB_EVENT_NAME"`
	EventPath   string `env:"GITHUB_EVENT_PATH"`
	BaseRef     string `env:"GITHUB_BASE_REF"`
	HeadRef     string `env:"GITHUB_HEAD_REF"`
	SHA         string `env:"GITHUB_SHA"`
	Ref         string `env:"GITHUB_REF"`
	Output      string `env:"GITHUB_OUTPUT"`
	StepSummary string `env:"GITHUB_STEP_SUMMARY"`
	APIURL      string `env:"GITHUB_API_URL, default=https://api.github.com"`
}

// InActions reports whether the process runs inside a GitHub Actions job.
func (g GitHubEnv) InActions() bool {
	return g.Output != "" || g.StepSummary != ""
}

// LoadGitHubEnv reads the runner environment.
func LoadGitHubEnv(ctx context.Context) (GitHubEnv, error) {
	return loadGitHubEnv(ctx, envconfig.OsLookuper())
}

func loadGitHubEnv(ctx context.Context, lu envconfig.Lookuper) (GitHubEnv, error) {
	var g GitHubEnv
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &g, Lookuper: lu}); err != nil {
		return GitHubEnv{}, fmt.Errorf("reading GitHub environment: %w", err)
	}
	return g, nil
}

// PullRequest returns the pull request number and base/head SHAs from the
// event payload, falling back to the ref for the number. Zero values mean
// the job was not triggered by a pull request.
func (g GitHubEnv) PullRequest() (number int, baseSHA, headSHA string, err error) {
	if g.EventPath != "" {
		data, rerr := os.ReadFile(g.EventPath)
		if rerr != nil {
			return 0, "", "", fmt.Errorf("reading event payload: %w", rerr)
		}
		var event struct {
			PullRequest struct {
				Number int `json:"number"`
				Base   struct {
					SHA string `json:"sha"`
				} `json:"base"`
				Head struct {
					SHA string `json:"sha"`
				} `json:"head"`
			} `json:"pull_request"`
		}
		if err := json.Unmarshal(data, &event); err != nil {
			return 0, "", "", fmt.Errorf("parsing event payload: %w", err)
		}
		number = event.PullRequest.Number
		baseSHA = event.PullRequest.Base.SHA
		headSHA = event.PullRequest.Head.SHA
	}
	if number == 0 {
		number = PRNumberFromRef(g.Ref)
	}
	return number, baseSHA, headSHA, nil
}

// PRNumberFromRef extracts the pull request number from a ref such as
// "refs/pull/42/merge". It returns 0 when ref is not a pull request ref.
func PRNumberFromRef(ref string) int {
	parts := strings.Split(ref, "/")
	if len(parts) == 4 && parts[0] == "refs" && parts[1] == "pull" {
		if n, err := strconv.Atoi(parts[2]); err == nil {
			return n
		}
	}
	return 0
}
