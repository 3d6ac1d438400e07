package parser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v53/github"
	"golang.org/x/oauth2"

	"GTMEngine/internal/config"
	"GTMEngine/internal/domain"
	"GTMEngine/internal/ports"
)

const githubPageSize = 20

// ErrMissingGitHubToken is returned when the connector runs without credentials.
var ErrMissingGitHubToken = errors.New("GITHUB_TOKEN is required for the github connector")

// GitHubConnector turns recently merged pull requests into pending signals.
type GitHubConnector struct {
	token      string
	apiURL     string
	httpClient *http.Client
	now        func() time.Time
}

var _ ports.Connector = (*GitHubConnector)(nil)

// NewGitHubConnector builds a connector from configuration. httpClient may be nil.
func NewGitHubConnector(cfg config.GitHubConfig, httpClient *http.Client) *GitHubConnector {
	return &GitHubConnector{
		token:      cfg.Token,
		apiURL:     cfg.APIURL,
		httpClient: httpClient,
		now:        time.Now,
	}
}

// Name identifies the connector inside the registry.
func (c *GitHubConnector) Name() string {
	return "github"
}

// Ingest lists the most recently updated closed pull requests of owner/repo and keeps the merged ones.
func (c *GitHubConnector) Ingest(ctx context.Context, input string) (domain.ConnectorResult, error) {
	owner, repo, ok := splitRepo(input)
	if !ok {
		return domain.ConnectorResult{}, fmt.Errorf("invalid repo format %q, use owner/repo (e.g., facebook/react)", input)
	}

	client, err := c.client(ctx)
	if err != nil {
		return domain.ConnectorResult{}, err
	}

	pulls, _, err := client.PullRequests.List(ctx, owner, repo, &github.PullRequestListOptions{
		State:       "closed",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: githubPageSize},
	})
	if err != nil {
		return domain.ConnectorResult{}, fmt.Errorf("list pull requests %s/%s: %w", owner, repo, err)
	}

	signals := make([]domain.Signal, 0, len(pulls))
	for _, pr := range pulls {
		if pr.MergedAt == nil {
			continue
		}
		signals = append(signals, pullToSignal(pr))
	}

	return domain.ConnectorResult{
		Signals: signals,
		Meta: domain.ConnectorMeta{
			Source:    fmt.Sprintf("github:%s/%s", owner, repo),
			FetchedAt: c.now().UTC(),
			ItemCount: len(signals),
		},
	}, nil
}

func (c *GitHubConnector) client(ctx context.Context) (*github.Client, error) {
	if c == nil {
		return nil, fmt.Errorf("github connector is nil")
	}
	if c.token == "" {
		return nil, ErrMissingGitHubToken
	}

	if c.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.token})
	client := github.NewClient(oauth2.NewClient(ctx, ts))

	if c.apiURL != "" {
		base, err := url.Parse(strings.TrimSuffix(c.apiURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parse github api url: %w", err)
		}
		client.BaseURL = base
	}
	return client, nil
}

func pullToSignal(pr *github.PullRequest) domain.Signal {
	excerpt := fmt.Sprintf("[PR #%d] %s", pr.GetNumber(), pr.GetTitle())
	if pr.User != nil {
		excerpt += " by @" + pr.User.GetLogin()
	}

	return domain.Signal{
		Source:     pr.GetHTMLURL(),
		Excerpt:    domain.TruncateExcerpt(excerpt),
		Status:     domain.SignalPending,
		CapturedAt: pr.GetMergedAt().Time.UTC(),
	}
}

func splitRepo(input string) (string, string, bool) {
	parts := strings.Split(input, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
