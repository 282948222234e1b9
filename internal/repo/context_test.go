package repo

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/blackwell-systems/gitpilot/internal/shell"
)

// scripted returns an Executor that answers git invocations from a map keyed
// by the joined argument list. Unknown commands fail.
func scripted(responses map[string]string) shell.Executor {
	return func(_ context.Context, c shell.Cmd) ([]byte, error) {
		key := strings.Join(c.Args, " ")
		if out, ok := responses[key]; ok {
			return []byte(out), nil
		}
		return nil, &shell.Error{Cmd: c, ExitCode: 128, Stderr: "fatal: not a git repository", Err: errors.New("exit status 128")}
	}
}

func TestResolve_FullContext(t *testing.T) {
	r := NewReader(scripted(map[string]string{
		"remote get-url origin":      "git@github.com:acme/widgets.git\n",
		"rev-parse --abbrev-ref HEAD": "feature/login\n",
	}), "/work/widgets")

	got := r.Resolve(context.Background())

	assert.Equal(t, Context{
		RepoName:         "widgets",
		RepoRemote:       "git@github.com:acme/widgets.git",
		Branch:           "feature/login",
		WorkingDirectory: "/work/widgets",
	}, got)
}

func TestResolve_NotARepository(t *testing.T) {
	r := NewReader(scripted(nil), "/tmp/elsewhere")

	got := r.Resolve(context.Background())

	assert.Equal(t, Context{WorkingDirectory: "/tmp/elsewhere"}, got)
}

func TestResolve_DetachedHeadNoRemote(t *testing.T) {
	r := NewReader(scripted(map[string]string{
		"rev-parse --abbrev-ref HEAD": "HEAD\n",
	}), "/work/x")

	got := r.Resolve(context.Background())

	assert.Empty(t, got.Branch)
	assert.Empty(t, got.RepoRemote)
	assert.Empty(t, got.RepoName)
	assert.Equal(t, "/work/x", got.WorkingDirectory)
}

func TestResolve_DefaultsToProcessDirectory(t *testing.T) {
	r := NewReader(scripted(nil), "")
	assert.NotEmpty(t, r.Resolve(context.Background()).WorkingDirectory)
}

func TestNameFromRemote(t *testing.T) {
	tests := []struct {
		remote string
		want   string
	}{
		{"https://github.com/acme/widgets.git", "widgets"},
		{"https://github.com/acme/widgets", "widgets"},
		{"https://github.com/acme/widgets/", "widgets"},
		{"git@github.com:acme/widgets.git", "widgets"},
		{"ssh://git@example.com:2222/team/api.git", "api"},
		{"/srv/git/local-repo.git", "local-repo"},
		{"", ""},
		{"nonsense", ""},
		{"https://github.com/acme/.git", ""},
	}

	for _, tc := range tests {
		t.Run(tc.remote, func(t *testing.T) {
			assert.Equal(t, tc.want, NameFromRemote(tc.remote))
		})
	}
}

func TestOwnerRepo(t *testing.T) {
	tests := []struct {
		remote    string
		wantOwner string
		wantName  string
	}{
		{"https://github.com/acme/widgets.git", "acme", "widgets"},
		{"git@github.com:acme/widgets.git", "acme", "widgets"},
		{"ssh://git@github.com/acme/widgets", "acme", "widgets"},
		{"widgets", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.remote, func(t *testing.T) {
			owner, name := OwnerRepo(tc.remote)
			assert.Equal(t, tc.wantOwner, owner)
			assert.Equal(t, tc.wantName, name)
		})
	}
}
