// Package git wraps the git command line for the workflows. Every method is a
// single git invocation (or a short read-only sequence); nothing here
// reimplements git behavior.
package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blackwell-systems/gitpilot/internal/shell"
)

// Client runs git in a working directory.
type Client struct {
	exec shell.Executor
	dir  string
}

// New creates a Client. A nil executor runs real git processes; an empty dir
// means the process working directory.
func New(exec shell.Executor, dir string) *Client {
	if exec == nil {
		exec = shell.Run
	}
	return &Client{exec: exec, dir: dir}
}

func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	out, err := c.exec(ctx, shell.Cmd{Name: "git", Args: args, Dir: c.dir})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// output runs git and returns trimmed stdout.
func (c *Client) output(ctx context.Context, args ...string) (string, error) {
	out, err := c.run(ctx, args...)
	return strings.TrimSpace(out), err
}

// lines runs git and returns the non-empty lines of stdout.
func (c *Client) lines(ctx context.Context, args ...string) ([]string, error) {
	out, err := c.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// StagedFiles lists paths with staged changes.
func (c *Client) StagedFiles(ctx context.Context) ([]string, error) {
	return c.lines(ctx, "diff", "--cached", "--name-only")
}

// UnstagedFiles lists tracked paths with unstaged changes.
func (c *Client) UnstagedFiles(ctx context.Context) ([]string, error) {
	return c.lines(ctx, "diff", "--name-only")
}

// StagedDiff returns the diff of the index against HEAD.
func (c *Client) StagedDiff(ctx context.Context) (string, error) {
	return c.run(ctx, "diff", "--cached")
}

// UnstagedDiff returns the diff of the working tree against the index.
func (c *Client) UnstagedDiff(ctx context.Context) (string, error) {
	return c.run(ctx, "diff")
}

// BranchDiff returns the changes on HEAD since it diverged from base.
func (c *Client) BranchDiff(ctx context.Context, base string) (string, error) {
	return c.run(ctx, "diff", base+"...HEAD")
}

// BranchFiles lists paths changed on HEAD since it diverged from base.
func (c *Client) BranchFiles(ctx context.Context, base string) ([]string, error) {
	return c.lines(ctx, "diff", "--name-only", base+"...HEAD")
}

// CurrentBranch returns the checked-out branch, or "" on a detached HEAD.
func (c *Client) CurrentBranch(ctx context.Context) (string, error) {
	out, err := c.output(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	if out == "HEAD" {
		return "", nil
	}
	return out, nil
}

// DefaultBranch detects the repository's primary branch from the remote's
// HEAD, then from well-known local branch names. It returns fallback when
// neither works.
func (c *Client) DefaultBranch(ctx context.Context, fallback string) string {
	if ref, err := c.output(ctx, "symbolic-ref", "--short", "refs/remotes/origin/HEAD"); err == nil && ref != "" {
		return strings.TrimPrefix(ref, "origin/")
	}
	for _, name := range []string{"main", "master"} {
		if _, err := c.output(ctx, "rev-parse", "--verify", "--quiet", "refs/heads/"+name); err == nil {
			return name
		}
	}
	return fallback
}

// CreateBranch creates and checks out a new branch.
func (c *Client) CreateBranch(ctx context.Context, name string) error {
	_, err := c.run(ctx, "checkout", "-b", name)
	return err
}

// Commit records a commit with message. With all set, tracked modified files
// are staged first (git commit -a).
func (c *Client) Commit(ctx context.Context, message string, all bool) error {
	args := []string{"commit"}
	if all {
		args = append(args, "-a")
	}
	args = append(args, "-m", message)
	_, err := c.run(ctx, args...)
	return err
}

// HeadCommit returns the full hash of HEAD.
func (c *Client) HeadCommit(ctx context.Context) (string, error) {
	return c.output(ctx, "rev-parse", "HEAD")
}

// HasUpstream reports whether the current branch tracks a remote branch.
func (c *Client) HasUpstream(ctx context.Context) bool {
	_, err := c.output(ctx, "rev-parse", "--abbrev-ref", "--symbolic-full-name", "@{u}")
	return err == nil
}

// UnpushedCommits counts commits on HEAD that are not on its upstream.
func (c *Client) UnpushedCommits(ctx context.Context) (int, error) {
	lines, err := c.lines(ctx, "log", "--oneline", "@{u}..HEAD")
	if err != nil {
		return 0, err
	}
	return len(lines), nil
}

// Push pushes branch to origin, setting upstream when requested.
func (c *Client) Push(ctx context.Context, branch string, setUpstream bool) error {
	args := []string{"push"}
	if setUpstream {
		args = append(args, "-u")
	}
	args = append(args, "origin", branch)
	_, err := c.run(ctx, args...)
	return err
}

// CommitSubjects returns the subjects of commits on HEAD that are not on base,
// newest first.
func (c *Client) CommitSubjects(ctx context.Context, base string) ([]string, error) {
	return c.lines(ctx, "log", "--pretty=format:%s", base+"..HEAD")
}

// LocalBranches lists local branch names.
func (c *Client) LocalBranches(ctx context.Context) ([]string, error) {
	return c.lines(ctx, "for-each-ref", "--format=%(refname:short)", "refs/heads")
}

// MergedBranches lists local branches already merged into base.
func (c *Client) MergedBranches(ctx context.Context, base string) ([]string, error) {
	return c.lines(ctx, "branch", "--merged", base, "--format=%(refname:short)")
}

// GoneBranches lists local branches whose upstream no longer exists on the
// remote. Run after a fetch with --prune for current results.
func (c *Client) GoneBranches(ctx context.Context) ([]string, error) {
	lines, err := c.lines(ctx, "for-each-ref", "--format=%(refname:short)|%(upstream:track)", "refs/heads")
	if err != nil {
		return nil, err
	}
	var gone []string
	for _, line := range lines {
		name, track, ok := strings.Cut(line, "|")
		if ok && strings.Contains(track, "gone") {
			gone = append(gone, name)
		}
	}
	return gone, nil
}

// FetchPrune refreshes remote-tracking refs and drops deleted ones.
func (c *Client) FetchPrune(ctx context.Context) error {
	_, err := c.run(ctx, "fetch", "--prune")
	return err
}

// DeleteBranch deletes a local branch. Force uses -D, which also removes
// branches git does not consider merged.
func (c *Client) DeleteBranch(ctx context.Context, name string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	_, err := c.run(ctx, "branch", flag, name)
	return err
}

// IsRepository reports whether the working directory is inside a git work tree.
func (c *Client) IsRepository(ctx context.Context) bool {
	out, err := c.output(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// ErrNoUpstream is returned by helpers that need a tracking branch.
var ErrNoUpstream = errors.New("current branch has no upstream")

// PendingPush reports whether HEAD needs pushing: either there is no upstream
// or the upstream is behind.
func (c *Client) PendingPush(ctx context.Context) (bool, error) {
	if !c.HasUpstream(ctx) {
		return true, ErrNoUpstream
	}
	n, err := c.UnpushedCommits(ctx)
	if err != nil {
		return false, fmt.Errorf("counting unpushed commits: %w", err)
	}
	return n > 0, nil
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
