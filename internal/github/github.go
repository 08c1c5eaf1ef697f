package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5"
	gh "github.com/google/go-github/v84/github"
	"golang.org/x/oauth2"

	"github.com/dshills/promptscore/internal/evaluation"
	"github.com/dshills/promptscore/internal/gitctx"
)

// DefaultAPIURL is the public GitHub REST endpoint.
const DefaultAPIURL = "https://api.github.com"

const perPage = 100

// Client wraps the GitHub REST API calls promptscore needs.
type Client struct {
	gh *gh.Client
}

// NewClient creates a client authenticated with token. apiURL may point at a
// GitHub Enterprise server; empty means DefaultAPIURL.
func NewClient(ctx context.Context, token, apiURL string) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("GITHUB_TOKEN is not set")
	}
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	return newClient(httpClient, apiURL)
}

func newClient(httpClient *http.Client, apiURL string) (*Client, error) {
	c := gh.NewClient(httpClient)
	if apiURL != "" && strings.TrimRight(apiURL, "/") != DefaultAPIURL {
		u, err := url.Parse(strings.TrimRight(apiURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parsing GitHub API URL: %w", err)
		}
		c.BaseURL = u
	}
	return &Client{gh: c}, nil
}

// ListPRFiles returns the files changed by a pull request, following
// pagination. Removed and unchanged files are left out.
func (c *Client) ListPRFiles(ctx context.Context, owner, repo string, number int) ([]gitctx.Change, error) {
	var changes []gitctx.Change
	opts := &gh.ListOptions{PerPage: perPage}
	for {
		files, resp, err := c.gh.PullRequests.ListFiles(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("listing files for PR #%d: %w", number, err)
		}
		for _, f := range files {
			status, ok := changeStatus(f.GetStatus())
			if !ok {
				continue
			}
			changes = append(changes, gitctx.Change{
				Path:         f.GetFilename(),
				PreviousPath: f.GetPreviousFilename(),
				Status:       status,
			})
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return changes, nil
}

func changeStatus(s string) (evaluation.FileStatus, bool) {
	switch s {
	case "added", "copied":
		return evaluation.StatusAdded, true
	case "modified", "changed":
		return evaluation.StatusModified, true
	case "renamed":
		return evaluation.StatusRenamed, true
	default:
		return "", false
	}
}

// UpsertComment updates the first pull request comment containing marker,
// or creates a new comment when none does. It reports whether a comment
// was created.
func (c *Client) UpsertComment(ctx context.Context, owner, repo string, number int, marker, body string) (bool, error) {
	existing, err := c.findComment(ctx, owner, repo, number, marker)
	if err != nil {
		return false, err
	}
	comment := &gh.IssueComment{Body: gh.Ptr(body)}
	if existing != nil {
		if _, _, err := c.gh.Issues.EditComment(ctx, owner, repo, existing.GetID(), comment); err != nil {
			return false, fmt.Errorf("updating comment %d: %w", existing.GetID(), err)
		}
		return false, nil
	}
	if _, _, err := c.gh.Issues.CreateComment(ctx, owner, repo, number, comment); err != nil {
		return false, fmt.Errorf("creating comment on PR #%d: %w", number, err)
	}
	return true, nil
}

func (c *Client) findComment(ctx context.Context, owner, repo string, number int, marker string) (*gh.IssueComment, error) {
	opts := &gh.IssueListCommentsOptions{ListOptions: gh.ListOptions{PerPage: perPage}}
	for {
		comments, resp, err := c.gh.Issues.ListComments(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("listing comments on PR #%d: %w", number, err)
		}
		for _, cm := range comments {
			if strings.Contains(cm.GetBody(), marker) {
				return cm, nil
			}
		}
		if resp == nil || resp.NextPage == 0 {
			return nil, nil
		}
		opts.Page = resp.NextPage
	}
}

// SubmitReview posts a pull request review. event is APPROVE,
// REQUEST_CHANGES or COMMENT. commitID may be empty.
func (c *Client) SubmitReview(ctx context.Context, owner, repo string, number int, event, body, commitID string) error {
	req := &gh.PullRequestReviewRequest{
		Body:  gh.Ptr(body),
		Event: gh.Ptr(event),
	}
	if commitID != "" {
		req.CommitID = gh.Ptr(commitID)
	}
	if _, _, err := c.gh.PullRequests.CreateReview(ctx, owner, repo, number, req); err != nil {
		return fmt.Errorf("submitting %s review on PR #%d: %w", event, number, err)
	}
	return nil
}

// IsAuthError reports whether err is a GitHub 401 or 403 response.
func IsAuthError(err error) bool {
	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		code := respErr.Response.StatusCode
		return code == http.StatusUnauthorized || code == http.StatusForbidden
	}
	return false
}

var (
	httpsRemoteRe = regexp.MustCompile(`https?://[^/]+/([^/]+)/([^/.\s]+)`)
	sshRemoteRe   = regexp.MustCompile(`[^@]+@[^:]+:([^/]+)/([^/.\s]+)`)
)

// DetectRepo parses owner/repo from the origin remote of the repository
// containing dir.
func DetectRepo(dir string) (owner, repo string, err error) {
	r, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", "", fmt.Errorf("cannot detect repo: %w", err)
	}
	remote, err := r.Remote("origin")
	if err != nil {
		return "", "", fmt.Errorf("cannot detect repo: %w", err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", "", fmt.Errorf("cannot detect repo: origin has no URL")
	}
	return ParseRemoteURL(urls[0])
}

// ParseRemoteURL extracts owner/repo from a git remote URL.
func ParseRemoteURL(url string) (owner, repo string, err error) {
	url = strings.TrimSuffix(url, ".git")

	if m := httpsRemoteRe.FindStringSubmatch(url); len(m) == 3 {
		return m[1], m[2], nil
	}
	if m := sshRemoteRe.FindStringSubmatch(url); len(m) == 3 {
		return m[1], m[2], nil
	}
	return "", "", fmt.Errorf("cannot parse owner/repo from remote URL: %s", url)
}

// ParseRepository splits "owner/repo" as found in GITHUB_REPOSITORY.
func ParseRepository(s string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(s, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("repository must be owner/repo, got %q", s)
	}
	return owner, repo, nil
}
