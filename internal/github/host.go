// Package github talks to the code-hosting service: pull request metadata,
// comments, diffs and creation. Two backends implement Host: the GitHub CLI
// (default) and the REST API through go-github.
package github

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/blackwell-systems/gitpilot/internal/config"
	"github.com/blackwell-systems/gitpilot/internal/shell"
)

// PullRequest is the subset of pull request metadata the workflows use.
type PullRequest struct {
	Number     int
	Title      string
	Body       string
	Author     string
	URL        string
	HeadBranch string
	BaseBranch string
}

// Comment is a pull request conversation or review comment.
type Comment struct {
	Author string
	Body   string
	Path   string
}

// NewPullRequest describes a pull request to open.
type NewPullRequest struct {
	Title string
	Body  string
	Head  string
	Base  string
}

// Host is the code-hosting collaborator.
type Host interface {
	ViewPR(ctx context.Context, number int) (PullRequest, error)
	IssueComments(ctx context.Context, number int) ([]Comment, error)
	ReviewComments(ctx context.Context, number int) ([]Comment, error)
	PRDiff(ctx context.Context, number int) (string, error)
	CreatePR(ctx context.Context, pr NewPullRequest) (PullRequest, error)
	DefaultBranch(ctx context.Context) (string, error)
}

// New builds the Host selected by cfg.Backend. remote is the origin URL,
// needed by the API backend to address the repository.
func New(ctx context.Context, cfg config.Host, exec shell.Executor, dir, remote string) (Host, error) {
	switch cfg.Backend {
	case "", "gh":
		return NewCLI(exec, cfg.Command, dir), nil
	case "api":
		token := os.Getenv(cfg.TokenEnv)
		if token == "" {
			return nil, fmt.Errorf("host backend api needs a token in $%s", cfg.TokenEnv)
		}
		return NewAPI(ctx, token, remote)
	default:
		return nil, fmt.Errorf("unknown host backend %q (want gh or api)", cfg.Backend)
	}
}

// numberFromURL returns the trailing number of a pull request URL such as
// https://github.com/acme/widgets/pull/17.
func numberFromURL(url string) int {
	url = strings.TrimRight(strings.TrimSpace(url), "/")
	i := strings.LastIndex(url, "/")
	n, err := strconv.Atoi(url[i+1:])
	if err != nil {
		return 0
	}
	return n
}

// Unavailable stands in for a host whose backend could not be configured.
// Every call returns Err.
type Unavailable struct {
	Err error
}

func (u Unavailable) ViewPR(context.Context, int) (PullRequest, error) {
	return PullRequest{}, u.Err
}

func (u Unavailable) IssueComments(context.Context, int) ([]Comment, error) {
	return nil, u.Err
}

func (u Unavailable) ReviewComments(context.Context, int) ([]Comment, error) {
	return nil, u.Err
}

func (u Unavailable) PRDiff(context.Context, int) (string, error) {
	return "", u.Err
}

func (u Unavailable) CreatePR(context.Context, NewPullRequest) (PullRequest, error) {
	return PullRequest{}, u.Err
}

func (u Unavailable) DefaultBranch(context.Context) (string, error) {
	return "", u.Err
}
