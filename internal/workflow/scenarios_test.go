package workflow

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/gitpilot/internal/repo"
	"github.com/blackwell-systems/gitpilot/internal/store"
)

type fixedContext repo.Context

func (f fixedContext) Resolve(context.Context) repo.Context { return repo.Context(f) }

// withStore swaps the in-memory recorder for a SQLite file in a temp dir
// and returns a function listing what was persisted.
func withStore(t *testing.T, h *harness) func() []store.Record {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "gitpilot", "activity.db"), fixedContext{
		RepoName:         "widgets",
		Branch:           "main",
		WorkingDirectory: "/work/widgets",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	h.runner.Store = s

	return func() []store.Record {
		records, err := s.List(context.Background(), store.Filter{})
		require.NoError(t, err)
		return records
	}
}

func TestScenario_BranchCommitWithoutStagedFiles(t *testing.T) {
	h := newHarness(t)
	records := withStore(t, h)

	code := h.runner.Run(context.Background(), store.CommandBranchCommit, nil)

	assert.Equal(t, 1, code)
	got := records()
	require.Len(t, got, 1)
	assert.Equal(t, store.CommandBranchCommit, got[0].Command)
	require.NotNil(t, got[0].Success)
	assert.False(t, *got[0].Success)
	assert.Equal(t, MsgNoStagedChanges, got[0].ErrorMessage)
	assert.Equal(t, "widgets", got[0].RepoName)
	assert.Contains(t, h.out.String(), "✗ "+MsgNoStagedChanges)
}

func TestScenario_ManualSmartCommit(t *testing.T) {
	h := newHarness(t)
	h.git.staged = []string{"login.go"}
	records := withStore(t, h)

	code := h.runner.Run(context.Background(), store.CommandSmartCommit, []string{"feat", "add login"})

	assert.Equal(t, 0, code)
	assert.Equal(t, []string{"feat: add login"}, h.git.commits)
	assert.Empty(t, h.ai.prompts, "assistant must not be called")

	got := records()
	require.Len(t, got, 1)
	assert.True(t, *got[0].Success)
	assert.Equal(t, "feat: add login", got[0].CommitMessage)
	assert.Equal(t, false, got[0].UserInput["aiGenerated"])
}

func TestScenario_PRSecurityEmptyDiff(t *testing.T) {
	h := newHarness(t)
	h.host.diff = ""
	records := withStore(t, h)

	code := h.runner.Run(context.Background(), store.CommandPRSecurity, []string{"42"})

	assert.Equal(t, 0, code)
	assert.Empty(t, h.ai.prompts, "assistant must not be called")
	assert.Contains(t, strings.ToLower(h.out.String()), "no changes found")

	got := records()
	require.Len(t, got, 1)
	assert.True(t, *got[0].Success)
	assert.Equal(t, 42, got[0].PRNumber)
	require.NotNil(t, got[0].IssuesFound)
	assert.Equal(t, 0, *got[0].IssuesFound)
}

func TestScenario_CleanBranchesDeclined(t *testing.T) {
	h := newHarness(t)
	h.git.local = []string{"main", "feature/a", "feature/b", "fix/c"}
	h.git.merged = []string{"main", "feature/a", "feature/b", "fix/c"}
	h.prompt.confirms = []bool{false}
	records := withStore(t, h)

	code := h.runner.Run(context.Background(), store.CommandCleanBranches, nil)

	assert.Equal(t, 0, code)
	require.Len(t, h.prompt.multiOptions, 1)
	for _, o := range h.prompt.multiOptions[0] {
		assert.True(t, o.Checked, "%s should be pre-selected", o.Label)
	}
	assert.Len(t, h.prompt.multiOptions[0], 3)
	assert.Empty(t, h.git.deleted)

	got := records()
	require.Len(t, got, 1)
	assert.False(t, *got[0].Success)
	assert.Equal(t, CancelledMessage, got[0].ErrorMessage)
	require.NotNil(t, got[0].BranchesDeleted)
	assert.Equal(t, 0, *got[0].BranchesDeleted)
}

func TestScenario_InterruptStillRecords(t *testing.T) {
	h := newHarness(t)
	records := withStore(t, h)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	code := h.runner.Execute(ctx, store.CommandReview, func(ctx context.Context, e *store.Entry) error {
		cancel()
		return &AssistantError{Op: "review", Err: errors.New("signal: killed")}
	})

	assert.Equal(t, 0, code)
	assert.NotContains(t, h.out.String(), AssistantHint)

	got := records()
	require.Len(t, got, 1)
	assert.Equal(t, store.CommandReview, got[0].Command)
	assert.False(t, *got[0].Success)
	assert.Equal(t, CancelledMessage, got[0].ErrorMessage)
}

func TestScenario_CanceledContextErrorStillRecords(t *testing.T) {
	h := newHarness(t)
	records := withStore(t, h)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	code := h.runner.Execute(ctx, store.CommandCreatePR, func(ctx context.Context, e *store.Entry) error {
		cancel()
		return fmt.Errorf("listing commits: %w", ctx.Err())
	})

	assert.Equal(t, 0, code)
	got := records()
	require.Len(t, got, 1)
	assert.Equal(t, CancelledMessage, got[0].ErrorMessage)
}
