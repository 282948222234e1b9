package github

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	gogithub "github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"github.com/blackwell-systems/gitpilot/internal/repo"
)

const perPage = 100

// API is the Host backed by the GitHub REST API.
type API struct {
	client *gogithub.Client
	owner  string
	name   string
}

// NewAPI creates an API host for the repository at remote, authenticating
// with token.
func NewAPI(ctx context.Context, token, remote string) (*API, error) {
	owner, name := repo.OwnerRepo(remote)
	if owner == "" || name == "" {
		return nil, fmt.Errorf("failed to extract owner/repo from remote %q", remote)
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	return &API{client: gogithub.NewClient(tc), owner: owner, name: name}, nil
}

// WithBaseURL points the client at a different API root, such as a GitHub
// Enterprise server or a test server.
func (a *API) WithBaseURL(base string) (*API, error) {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parsing API base URL: %w", err)
	}
	a.client.BaseURL = u
	return a, nil
}

// ViewPR fetches pull request metadata.
func (a *API) ViewPR(ctx context.Context, number int) (PullRequest, error) {
	pr, _, err := a.client.PullRequests.Get(ctx, a.owner, a.name, number)
	if err != nil {
		return PullRequest{}, fmt.Errorf("failed to get PR #%d: %w", number, err)
	}
	return fromAPI(pr), nil
}

// IssueComments fetches the conversation comments on a pull request.
func (a *API) IssueComments(ctx context.Context, number int) ([]Comment, error) {
	opts := &gogithub.IssueListCommentsOptions{ListOptions: gogithub.ListOptions{PerPage: perPage}}
	var comments []Comment
	for {
		page, resp, err := a.client.Issues.ListComments(ctx, a.owner, a.name, number, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list comments on PR #%d: %w", number, err)
		}
		for _, c := range page {
			comments = append(comments, Comment{Author: c.GetUser().GetLogin(), Body: c.GetBody()})
		}
		if resp.NextPage == 0 {
			return comments, nil
		}
		opts.Page = resp.NextPage
	}
}

// ReviewComments fetches inline review comments.
func (a *API) ReviewComments(ctx context.Context, number int) ([]Comment, error) {
	opts := &gogithub.PullRequestListCommentsOptions{ListOptions: gogithub.ListOptions{PerPage: perPage}}
	var comments []Comment
	for {
		page, resp, err := a.client.PullRequests.ListComments(ctx, a.owner, a.name, number, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list review comments on PR #%d: %w", number, err)
		}
		for _, c := range page {
			comments = append(comments, Comment{Author: c.GetUser().GetLogin(), Body: c.GetBody(), Path: c.GetPath()})
		}
		if resp.NextPage == 0 {
			return comments, nil
		}
		opts.Page = resp.NextPage
	}
}

// PRDiff returns the unified diff of a pull request.
func (a *API) PRDiff(ctx context.Context, number int) (string, error) {
	diff, _, err := a.client.PullRequests.GetRaw(ctx, a.owner, a.name, number, gogithub.RawOptions{Type: gogithub.Diff})
	if err != nil {
		return "", fmt.Errorf("failed to get diff of PR #%d: %w", number, err)
	}
	return diff, nil
}

// CreatePR opens a pull request.
func (a *API) CreatePR(ctx context.Context, pr NewPullRequest) (PullRequest, error) {
	created, _, err := a.client.PullRequests.Create(ctx, a.owner, a.name, &gogithub.NewPullRequest{
		Title: &pr.Title,
		Body:  &pr.Body,
		Head:  &pr.Head,
		Base:  &pr.Base,
	})
	if err != nil {
		return PullRequest{}, fmt.Errorf("failed to create PR: %w", err)
	}
	return fromAPI(created), nil
}

// DefaultBranch asks the host for the repository's default branch.
func (a *API) DefaultBranch(ctx context.Context) (string, error) {
	r, _, err := a.client.Repositories.Get(ctx, a.owner, a.name)
	if err != nil {
		return "", fmt.Errorf("failed to get repository %s/%s: %w", a.owner, a.name, err)
	}
	if r.GetDefaultBranch() == "" {
		return "", fmt.Errorf("repository %s/%s has no default branch", a.owner, a.name)
	}
	return r.GetDefaultBranch(), nil
}

func fromAPI(pr *gogithub.PullRequest) PullRequest {
	return PullRequest{
		Number:     pr.GetNumber(),
		Title:      pr.GetTitle(),
		Body:       pr.GetBody(),
		Author:     pr.GetUser().GetLogin(),
		URL:        pr.GetHTMLURL(),
		HeadBranch: pr.GetHead().GetRef(),
		BaseBranch: pr.GetBase().GetRef(),
	}
}
