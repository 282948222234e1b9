// Package repo derives the git context (repository name, remote, branch and
// working directory) that is attached to every activity record.
package repo

import (
	"context"
	"os"
	"strings"

	"github.com/blackwell-systems/gitpilot/internal/shell"
)

// Context describes where a command was invoked. WorkingDirectory is always
// populated; the other fields are empty when they cannot be resolved.
type Context struct {
	RepoName         string `json:"repo_name,omitempty"`
	RepoRemote       string `json:"repo_remote,omitempty"`
	Branch           string `json:"branch,omitempty"`
	WorkingDirectory string `json:"working_directory"`
}

// Reader resolves a Context using git.
type Reader struct {
	exec shell.Executor
	dir  string
}

// NewReader creates a Reader. An empty dir means the process working directory.
func NewReader(exec shell.Executor, dir string) *Reader {
	if exec == nil {
		exec = shell.Run
	}
	return &Reader{exec: exec, dir: dir}
}

// Resolve reads the current repository context. It never fails: anything that
// cannot be determined is left empty.
func (r *Reader) Resolve(ctx context.Context) Context {
	c := Context{WorkingDirectory: r.workingDirectory()}

	if out, err := r.git(ctx, "remote", "get-url", "origin"); err == nil && out != "" {
		c.RepoRemote = out
		c.RepoName = NameFromRemote(out)
	}

	if out, err := r.git(ctx, "rev-parse", "--abbrev-ref", "HEAD"); err == nil && out != "HEAD" {
		c.Branch = out
	}

	return c
}

func (r *Reader) workingDirectory() string {
	if r.dir != "" {
		return r.dir
	}
	wd, err := os.Getwd()
	if err != nil {
		// Getwd only fails when the directory was removed underneath us.
		return "."
	}
	return wd
}

func (r *Reader) git(ctx context.Context, args ...string) (string, error) {
	out, err := r.exec(ctx, shell.Cmd{Name: "git", Args: args, Dir: r.dir})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// NameFromRemote returns the final path segment of a remote URL with any
// trailing ".git" removed. It returns "" when no segment can be found.
//
//	https://github.com/acme/widgets.git -> widgets
//	git@github.com:acme/widgets.git     -> widgets
func NameFromRemote(remote string) string {
	remote = strings.TrimSpace(remote)
	remote = strings.TrimSuffix(remote, "/")
	if remote == "" {
		return ""
	}

	idx := strings.LastIndexAny(remote, "/:")
	if idx < 0 || idx == len(remote)-1 {
		return ""
	}

	name := strings.TrimSuffix(remote[idx+1:], ".git")
	if name == "" {
		return ""
	}
	return name
}

// OwnerRepo extracts the owner and repository name from a GitHub-style
// remote URL. Both are empty when the URL has fewer than two path segments.
func OwnerRepo(remote string) (string, string) {
	remote = strings.TrimSpace(remote)
	remote = strings.TrimSuffix(remote, "/")
	remote = strings.TrimSuffix(remote, ".git")

	// scp-style remotes separate host and path with a colon.
	if i := strings.Index(remote, "://"); i < 0 {
		if j := strings.Index(remote, ":"); j >= 0 {
			remote = remote[j+1:]
		}
	} else {
		remote = remote[i+3:]
	}

	parts := strings.Split(remote, "/")
	if len(parts) < 2 {
		return "", ""
	}
	owner, name := parts[len(parts)-2], parts[len(parts)-1]
	if owner == "" || name == "" {
		return "", ""
	}
	return owner, name
}
