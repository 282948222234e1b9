package workflow

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/gitpilot/internal/github"
	"github.com/blackwell-systems/gitpilot/internal/prompt"
	"github.com/blackwell-systems/gitpilot/internal/store"
)

func TestReview_SingleScopeSkipsSelection(t *testing.T) {
	h := newHarness(t)
	h.git.stagedDiff = "+x := 1"
	h.ai.reply = "- x is unused\n- add a test"

	code, e := h.run(t, store.CommandReview)

	require.Equal(t, 0, code)
	assert.Empty(t, h.prompt.questions)
	assert.Equal(t, 2, *e.IssuesFound)
	assert.Equal(t, ScopeStaged, e.UserInput["scope"])
	assert.Contains(t, h.out.String(), "- x is unused")
	assert.Contains(t, h.ai.prompts[0], "staged changes")
}

func TestReview_SelectsAmongScopes(t *testing.T) {
	h := newHarness(t)
	h.git.current = "feature/login"
	h.git.stagedDiff = "+staged"
	h.git.unstagedDiff = "+unstaged"
	h.git.branchDiff = "+branch"
	h.ai.reply = "No issues found."
	h.prompt.selects = []int{2}

	code, e := h.run(t, store.CommandReview)

	require.Equal(t, 0, code)
	assert.Equal(t, []string{"What should be reviewed?"}, h.prompt.questions)
	assert.Equal(t, ScopeBranch, e.UserInput["scope"])
	assert.Contains(t, h.ai.prompts[0], "+branch")
	assert.Equal(t, 0, *e.IssuesFound)
	assert.Contains(t, h.out.String(), "No issues found")
}

func TestReview_BranchScopeOnlyOffFeatureBranch(t *testing.T) {
	h := newHarness(t)
	h.git.branchDiff = "+branch"

	scopes, err := h.runner.reviewScopes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, scopes, "on main there is no branch scope")
}

func TestReview_NothingToReview(t *testing.T) {
	h := newHarness(t)

	code, e := h.run(t, store.CommandReview)

	assert.Equal(t, 1, code)
	assert.Equal(t, "no changes found to review", e.ErrorMessage)
}

func TestReview_SelectionAborted(t *testing.T) {
	h := newHarness(t)
	h.git.stagedDiff = "+a"
	h.git.unstagedDiff = "+b"
	h.prompt.err = prompt.ErrAborted

	code, e := h.run(t, store.CommandReview)

	assert.Equal(t, 0, code)
	assert.Equal(t, CancelledMessage, e.ErrorMessage)
	assert.Empty(t, h.ai.prompts)
}

const securityReply = `SUMMARY: One serious problem.

CRITICAL:
- SQL built from user input

HIGH:
- None

MEDIUM:
- token logged at debug
- missing rate limit

LOW:
- None

INFO:
- consider CSP headers`

func TestPRSecurity_Report(t *testing.T) {
	h := newHarness(t)
	h.host.pr = github.PullRequest{Title: "Add search", Author: "octocat"}
	h.host.diff = "+db.Query(\"SELECT * FROM t WHERE q=\" + q)"
	h.ai.reply = securityReply

	code, e := h.run(t, store.CommandPRSecurity, "42")

	require.Equal(t, 0, code)
	assert.Equal(t, 42, e.PRNumber)
	assert.Equal(t, 4, *e.IssuesFound)
	assert.Equal(t, map[store.Severity]int{
		store.SeverityCritical: 1,
		store.SeverityHigh:     0,
		store.SeverityMedium:   2,
		store.SeverityLow:      0,
		store.SeverityInfo:     1,
	}, e.IssueSeverity)

	out := h.out.String()
	for _, heading := range []string{"Critical (1)", "High (0)", "Medium (2)", "Low (0)", "Info (1)"} {
		assert.Contains(t, out, heading)
	}
	assert.Contains(t, out, "One serious problem.")
	assert.Less(t, strings.Index(out, "Critical"), strings.Index(out, "Info (1)"))
}

func TestPRSecurity_UnlabelledReplyStillSucceeds(t *testing.T) {
	h := newHarness(t)
	h.host.diff = "+x"
	h.ai.reply = "Looks fine to me."

	code, e := h.run(t, store.CommandPRSecurity, "5")

	require.Equal(t, 0, code)
	assert.Equal(t, 0, *e.IssuesFound)
	assert.Contains(t, h.out.String(), "Security review completed.")
}
