package workflow

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/gitpilot/internal/parse"
	"github.com/blackwell-systems/gitpilot/internal/prompt"
	"github.com/blackwell-systems/gitpilot/internal/store"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, 0},
		{"cancelled", ErrCancelled, 0},
		{"wrapped cancel", fmt.Errorf("confirm: %w", ErrCancelled), 0},
		{"precondition", precondition("nope"), 1},
		{"tool", toolError("push", errors.New("rejected")), 1},
		{"assistant", &AssistantError{Op: "ask", Err: errors.New("down")}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, MsgNoStagedChanges, precondition(MsgNoStagedChanges).Error())
	assert.Equal(t, "git push: rejected", toolError("git push", errors.New("rejected")).Error())

	pe := &parse.Error{Label: "BRANCH"}
	err := &AssistantError{Op: "reading reply", Err: pe}
	var target *parse.Error
	assert.True(t, errors.As(err, &target))
}

func TestBadPattern_OnlyFailsPRTodos(t *testing.T) {
	cfg := testConfig()
	cfg.ActionItemPatterns = []string{"TODO", "("}

	h := newHarness(t)
	h.runner.Config = cfg
	code, e := h.run(t, store.CommandPRTodos, "42")
	assert.Equal(t, 1, code)
	assert.False(t, *e.Success)
	assert.Contains(t, e.ErrorMessage, `invalid action item pattern "("`)
	assert.Empty(t, h.host.created)

	h = newHarness(t)
	h.runner.Config = cfg
	h.git.staged = []string{"a.go"}
	h.git.stagedDiff = "+x"
	h.ai.reply = "BRANCH: feature/x\nCOMMIT: feat: x"
	code, e = h.run(t, store.CommandBranchCommit)
	assert.Equal(t, 0, code)
	assert.True(t, *e.Success)
}

func TestNew_RequiresDeps(t *testing.T) {
	_, err := New(Deps{})
	assert.Error(t, err)
}

func TestExecute_Success(t *testing.T) {
	h := newHarness(t)
	times := []time.Time{time.Unix(100, 0), time.Unix(100, 0).Add(250 * time.Millisecond)}
	h.runner.now = func() time.Time {
		next := times[0]
		times = times[1:]
		return next
	}

	code := h.runner.Execute(context.Background(), store.CommandReview, func(_ context.Context, e *store.Entry) error {
		e.IssuesFound = store.Int(3)
		return nil
	})

	assert.Equal(t, 0, code)
	require.Len(t, h.rec.entries, 1)
	e := h.rec.entries[0]
	assert.Equal(t, store.CommandReview, e.Command)
	assert.True(t, *e.Success)
	assert.Empty(t, e.ErrorMessage)
	assert.Equal(t, int64(250), *e.DurationMs)
	assert.Equal(t, 3, *e.IssuesFound)
}

func TestExecute_Failure(t *testing.T) {
	h := newHarness(t)

	code := h.runner.Execute(context.Background(), store.CommandCreatePR, func(context.Context, *store.Entry) error {
		return toolError("pushing feature/x", errors.New("git: remote rejected"))
	})

	assert.Equal(t, 1, code)
	e := h.rec.entries[0]
	assert.False(t, *e.Success)
	assert.Equal(t, "pushing feature/x: git: remote rejected", e.ErrorMessage)
	assert.Contains(t, h.out.String(), "✗ pushing feature/x: git: remote rejected")
}

func TestExecute_AssistantFailurePrintsHint(t *testing.T) {
	h := newHarness(t)

	code := h.runner.Execute(context.Background(), store.CommandReview, func(context.Context, *store.Entry) error {
		return &AssistantError{Op: "reviewing changes", Err: errors.New("claude: not found")}
	})

	assert.Equal(t, 1, code)
	assert.Contains(t, h.out.String(), AssistantHint)
}

func TestExecute_Cancelled(t *testing.T) {
	h := newHarness(t)

	code := h.runner.Execute(context.Background(), store.CommandBranchCommit, func(context.Context, *store.Entry) error {
		return ErrCancelled
	})

	assert.Equal(t, 0, code)
	e := h.rec.entries[0]
	assert.False(t, *e.Success)
	assert.Equal(t, CancelledMessage, e.ErrorMessage)
}

func TestExecute_StoreFailureKeepsOutcome(t *testing.T) {
	h := newHarness(t)
	h.rec.err = &store.WriteError{Op: "insert", Err: errors.New("disk full")}

	code := h.runner.Execute(context.Background(), store.CommandReview, func(context.Context, *store.Entry) error {
		return nil
	})
	assert.Equal(t, 0, code)
}

func TestRun_UnknownCommand(t *testing.T) {
	h := newHarness(t)

	code, e := h.run(t, store.Command("bogus"))
	assert.Equal(t, 1, code)
	assert.Contains(t, e.ErrorMessage, "unknown command")
}

func TestPRNumber(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	n, err := h.runner.prNumber(ctx, []string{"#42"})
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	h.prompt.inputs = []string{" 7 "}
	n, err = h.runner.prNumber(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	_, err = h.runner.prNumber(ctx, []string{"abc"})
	var pe *PreconditionError
	assert.ErrorAs(t, err, &pe)

	_, err = h.runner.prNumber(ctx, []string{"0"})
	assert.ErrorAs(t, err, &pe)

	h.prompt.err = prompt.ErrAborted
	_, err = h.runner.prNumber(ctx, nil)
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestDefaultBranch_Order(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	assert.Equal(t, "main", h.runner.defaultBranch(ctx), "config fallback")

	h.git.defaultBranch = "master"
	assert.Equal(t, "master", h.runner.defaultBranch(ctx), "local git")

	h.host.defaultBranch = "trunk"
	assert.Equal(t, "trunk", h.runner.defaultBranch(ctx), "host wins")
}

func TestConfirm(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.prompt.confirms = []bool{true, false}
	assert.NoError(t, h.runner.confirm(ctx, "ok?", true))
	assert.ErrorIs(t, h.runner.confirm(ctx, "ok?", true), ErrCancelled)

	h.prompt.err = prompt.ErrAborted
	assert.ErrorIs(t, h.runner.confirm(ctx, "ok?", true), ErrCancelled)
}
