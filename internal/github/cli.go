package github

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/blackwell-systems/gitpilot/internal/shell"
)

// CLI is the Host backed by the gh command line tool. gh handles
// authentication and resolves the repository from the working directory.
type CLI struct {
	exec    shell.Executor
	command string
	dir     string
}

// NewCLI creates a gh-backed Host. An empty command means "gh".
func NewCLI(exec shell.Executor, command, dir string) *CLI {
	if exec == nil {
		exec = shell.Run
	}
	if command == "" {
		command = "gh"
	}
	return &CLI{exec: exec, command: command, dir: dir}
}

func (c *CLI) run(ctx context.Context, args ...string) ([]byte, error) {
	return c.exec(ctx, shell.Cmd{Name: c.command, Args: args, Dir: c.dir})
}

// runJSON runs gh and decodes its JSON output into v.
func (c *CLI) runJSON(ctx context.Context, v any, args ...string) error {
	out, err := c.run(ctx, args...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(out, v); err != nil {
		return fmt.Errorf("%s %s: decoding output: %w", c.command, args[0], err)
	}
	return nil
}

type ghUser struct {
	Login string `json:"login"`
}

type ghPullRequest struct {
	Number      int    `json:"number"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	Author      ghUser `json:"author"`
	URL         string `json:"url"`
	HeadRefName string `json:"headRefName"`
	BaseRefName string `json:"baseRefName"`
}

const prViewFields = "number,title,body,author,url,headRefName,baseRefName"

// ViewPR fetches pull request metadata.
func (c *CLI) ViewPR(ctx context.Context, number int) (PullRequest, error) {
	var pr ghPullRequest
	if err := c.runJSON(ctx, &pr, "pr", "view", strconv.Itoa(number), "--json", prViewFields); err != nil {
		return PullRequest{}, err
	}
	return PullRequest{
		Number:     pr.Number,
		Title:      pr.Title,
		Body:       pr.Body,
		Author:     pr.Author.Login,
		URL:        pr.URL,
		HeadBranch: pr.HeadRefName,
		BaseBranch: pr.BaseRefName,
	}, nil
}

// IssueComments fetches the conversation comments on a pull request.
func (c *CLI) IssueComments(ctx context.Context, number int) ([]Comment, error) {
	var resp struct {
		Comments []struct {
			Author ghUser `json:"author"`
			Body   string `json:"body"`
		} `json:"comments"`
	}
	if err := c.runJSON(ctx, &resp, "pr", "view", strconv.Itoa(number), "--json", "comments"); err != nil {
		return nil, err
	}
	comments := make([]Comment, 0, len(resp.Comments))
	for _, cm := range resp.Comments {
		comments = append(comments, Comment{Author: cm.Author.Login, Body: cm.Body})
	}
	return comments, nil
}

// ReviewComments fetches inline review comments. gh fills in {owner} and
// {repo} from the current repository.
func (c *CLI) ReviewComments(ctx context.Context, number int) ([]Comment, error) {
	var resp []struct {
		User ghUser `json:"user"`
		Body string `json:"body"`
		Path string `json:"path"`
	}
	endpoint := fmt.Sprintf("repos/{owner}/{repo}/pulls/%d/comments?per_page=100", number)
	if err := c.runJSON(ctx, &resp, "api", endpoint); err != nil {
		return nil, err
	}
	comments := make([]Comment, 0, len(resp))
	for _, cm := range resp {
		comments = append(comments, Comment{Author: cm.User.Login, Body: cm.Body, Path: cm.Path})
	}
	return comments, nil
}

// PRDiff returns the unified diff of a pull request.
func (c *CLI) PRDiff(ctx context.Context, number int) (string, error) {
	out, err := c.run(ctx, "pr", "diff", strconv.Itoa(number))
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// CreatePR opens a pull request. gh prints the new URL on success.
func (c *CLI) CreatePR(ctx context.Context, pr NewPullRequest) (PullRequest, error) {
	args := []string{"pr", "create", "--title", pr.Title, "--body", pr.Body}
	if pr.Base != "" {
		args = append(args, "--base", pr.Base)
	}
	if pr.Head != "" {
		args = append(args, "--head", pr.Head)
	}
	out, err := c.run(ctx, args...)
	if err != nil {
		return PullRequest{}, err
	}

	url := lastLine(string(out))
	return PullRequest{
		Number:     numberFromURL(url),
		Title:      pr.Title,
		Body:       pr.Body,
		URL:        url,
		HeadBranch: pr.Head,
		BaseBranch: pr.Base,
	}, nil
}

// DefaultBranch asks the host for the repository's default branch.
func (c *CLI) DefaultBranch(ctx context.Context) (string, error) {
	var resp struct {
		DefaultBranchRef struct {
			Name string `json:"name"`
		} `json:"defaultBranchRef"`
	}
	if err := c.runJSON(ctx, &resp, "repo", "view", "--json", "defaultBranchRef"); err != nil {
		return "", err
	}
	if resp.DefaultBranchRef.Name == "" {
		return "", fmt.Errorf("%s repo view: no default branch reported", c.command)
	}
	return resp.DefaultBranchRef.Name, nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
