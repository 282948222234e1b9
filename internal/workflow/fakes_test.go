package workflow

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/gitpilot/internal/config"
	"github.com/blackwell-systems/gitpilot/internal/git"
	"github.com/blackwell-systems/gitpilot/internal/github"
	"github.com/blackwell-systems/gitpilot/internal/logging"
	"github.com/blackwell-systems/gitpilot/internal/output"
	"github.com/blackwell-systems/gitpilot/internal/prompt"
	"github.com/blackwell-systems/gitpilot/internal/store"
	"github.com/blackwell-systems/gitpilot/internal/tasks"
)

func init() {
	output.SetNoColor(true)
}

// fakeGit is an in-memory repository.
type fakeGit struct {
	staged, unstaged         []string
	stagedDiff, unstagedDiff string
	branchDiff               string
	branchFiles              []string
	current                  string
	defaultBranch            string
	head                     string
	upstream                 bool
	pending                  bool
	subjects                 []string
	local, merged, gone      []string

	failOn map[string]error

	createdBranches []string
	commits         []string
	commitAll       []bool
	pushes          []string
	setUpstream     []bool
	deleted         []string
	forced          []bool
	fetches         int
}

func (g *fakeGit) fail(op string) error {
	if g.failOn == nil {
		return nil
	}
	return g.failOn[op]
}

func (g *fakeGit) StagedFiles(context.Context) ([]string, error) {
	return g.staged, g.fail("StagedFiles")
}

func (g *fakeGit) UnstagedFiles(context.Context) ([]string, error) {
	return g.unstaged, g.fail("UnstagedFiles")
}

func (g *fakeGit) StagedDiff(context.Context) (string, error) {
	return g.stagedDiff, g.fail("StagedDiff")
}

func (g *fakeGit) UnstagedDiff(context.Context) (string, error) {
	return g.unstagedDiff, g.fail("UnstagedDiff")
}

func (g *fakeGit) BranchDiff(context.Context, string) (string, error) {
	return g.branchDiff, g.fail("BranchDiff")
}

func (g *fakeGit) BranchFiles(context.Context, string) ([]string, error) {
	return g.branchFiles, g.fail("BranchFiles")
}

func (g *fakeGit) CurrentBranch(context.Context) (string, error) {
	return g.current, g.fail("CurrentBranch")
}

func (g *fakeGit) DefaultBranch(_ context.Context, fallback string) string {
	if g.defaultBranch == "" {
		return fallback
	}
	return g.defaultBranch
}

func (g *fakeGit) CreateBranch(_ context.Context, name string) error {
	if err := g.fail("CreateBranch"); err != nil {
		return err
	}
	g.createdBranches = append(g.createdBranches, name)
	g.current = name
	return nil
}

func (g *fakeGit) Commit(_ context.Context, message string, all bool) error {
	if err := g.fail("Commit"); err != nil {
		return err
	}
	g.commits = append(g.commits, message)
	g.commitAll = append(g.commitAll, all)
	g.head = "abcdef1234567890"
	return nil
}

func (g *fakeGit) HeadCommit(context.Context) (string, error) {
	return g.head, g.fail("HeadCommit")
}

func (g *fakeGit) PendingPush(context.Context) (bool, error) {
	if !g.upstream {
		return true, git.ErrNoUpstream
	}
	return g.pending, g.fail("PendingPush")
}

func (g *fakeGit) Push(_ context.Context, branch string, setUpstream bool) error {
	if err := g.fail("Push"); err != nil {
		return err
	}
	g.pushes = append(g.pushes, branch)
	g.setUpstream = append(g.setUpstream, setUpstream)
	return nil
}

func (g *fakeGit) CommitSubjects(context.Context, string) ([]string, error) {
	return g.subjects, g.fail("CommitSubjects")
}

func (g *fakeGit) LocalBranches(context.Context) ([]string, error) {
	return g.local, g.fail("LocalBranches")
}

func (g *fakeGit) MergedBranches(context.Context, string) ([]string, error) {
	return g.merged, g.fail("MergedBranches")
}

func (g *fakeGit) GoneBranches(context.Context) ([]string, error) {
	return g.gone, g.fail("GoneBranches")
}

func (g *fakeGit) FetchPrune(context.Context) error {
	g.fetches++
	return g.fail("FetchPrune")
}

func (g *fakeGit) DeleteBranch(_ context.Context, name string, force bool) error {
	if err := g.fail("DeleteBranch:" + name); err != nil {
		return err
	}
	g.deleted = append(g.deleted, name)
	g.forced = append(g.forced, force)
	return nil
}

// fakeHost serves canned pull request data.
type fakeHost struct {
	pr            github.PullRequest
	issue, review []github.Comment
	diff          string
	defaultBranch string
	err           error

	created []github.NewPullRequest
}

func (h *fakeHost) ViewPR(_ context.Context, number int) (github.PullRequest, error) {
	if h.err != nil {
		return github.PullRequest{}, h.err
	}
	pr := h.pr
	pr.Number = number
	return pr, nil
}

func (h *fakeHost) IssueComments(context.Context, int) ([]github.Comment, error) {
	return h.issue, h.err
}

func (h *fakeHost) ReviewComments(context.Context, int) ([]github.Comment, error) {
	return h.review, h.err
}

func (h *fakeHost) PRDiff(context.Context, int) (string, error) {
	return h.diff, h.err
}

func (h *fakeHost) CreatePR(_ context.Context, pr github.NewPullRequest) (github.PullRequest, error) {
	if h.err != nil {
		return github.PullRequest{}, h.err
	}
	h.created = append(h.created, pr)
	return github.PullRequest{Number: 17, Title: pr.Title, URL: "https://github.com/acme/widgets/pull/17"}, nil
}

func (h *fakeHost) DefaultBranch(context.Context) (string, error) {
	if h.defaultBranch == "" {
		return "", errors.New("no default branch")
	}
	return h.defaultBranch, nil
}

// fakeAssistant returns a fixed reply and counts calls.
type fakeAssistant struct {
	reply   string
	err     error
	prompts []string
}

func (a *fakeAssistant) Ask(_ context.Context, p string) (string, error) {
	a.prompts = append(a.prompts, p)
	return a.reply, a.err
}

// fakeTasks records created tasks.
type fakeTasks struct {
	mu      sync.Mutex
	created []tasks.Task
	failAt  map[int]error
}

func (f *fakeTasks) Create(_ context.Context, t tasks.Task) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failAt[len(f.created)]; err != nil {
		f.failAt[len(f.created)] = nil
		return "", err
	}
	f.created = append(f.created, t)
	return "task-" + t.Title, nil
}

// scriptedPrompt answers from queues and records what it was shown.
type scriptedPrompt struct {
	confirms []bool
	selects  []int
	multis   [][]int
	inputs   []string
	err      error

	questions    []string
	confirmDefs  []bool
	multiOptions [][]prompt.Option
}

func (p *scriptedPrompt) Confirm(_ context.Context, q string, defaultYes bool) (bool, error) {
	p.questions = append(p.questions, q)
	p.confirmDefs = append(p.confirmDefs, defaultYes)
	if p.err != nil {
		return false, p.err
	}
	if len(p.confirms) == 0 {
		return defaultYes, nil
	}
	ok := p.confirms[0]
	p.confirms = p.confirms[1:]
	return ok, nil
}

func (p *scriptedPrompt) Select(_ context.Context, q string, _ []prompt.Option) (int, error) {
	p.questions = append(p.questions, q)
	if p.err != nil {
		return 0, p.err
	}
	if len(p.selects) == 0 {
		return 0, nil
	}
	i := p.selects[0]
	p.selects = p.selects[1:]
	return i, nil
}

func (p *scriptedPrompt) MultiSelect(_ context.Context, q string, options []prompt.Option) ([]int, error) {
	p.questions = append(p.questions, q)
	p.multiOptions = append(p.multiOptions, options)
	if p.err != nil {
		return nil, p.err
	}
	if len(p.multis) == 0 {
		var idx []int
		for i, o := range options {
			if o.Checked {
				idx = append(idx, i)
			}
		}
		return idx, nil
	}
	idx := p.multis[0]
	p.multis = p.multis[1:]
	return idx, nil
}

func (p *scriptedPrompt) Input(_ context.Context, q, initial string) (string, error) {
	p.questions = append(p.questions, q)
	if p.err != nil {
		return "", p.err
	}
	if len(p.inputs) == 0 {
		return initial, nil
	}
	s := p.inputs[0]
	p.inputs = p.inputs[1:]
	return s, nil
}

// memRecorder keeps entries in memory.
type memRecorder struct {
	entries []store.Entry
	err     error
}

func (m *memRecorder) Record(_ context.Context, e store.Entry) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.entries = append(m.entries, e)
	return int64(len(m.entries)), nil
}

// harness bundles a Runner with its fakes.
type harness struct {
	runner *Runner
	git    *fakeGit
	host   *fakeHost
	ai     *fakeAssistant
	tasks  *fakeTasks
	prompt *scriptedPrompt
	rec    *memRecorder
	out    *bytes.Buffer
}

func testConfig() *config.Config {
	return &config.Config{
		BranchPrefix:       config.DefaultBranchPrefix,
		DefaultBranch:      config.DefaultBranch,
		MaxDiffBytes:       config.DefaultMaxDiffBytes,
		ActionItemPatterns: config.DefaultActionItemPatterns,
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		git:    &fakeGit{current: "main", head: "0000000"},
		host:   &fakeHost{},
		ai:     &fakeAssistant{},
		tasks:  &fakeTasks{failAt: map[int]error{}},
		prompt: &scriptedPrompt{},
		rec:    &memRecorder{},
		out:    &bytes.Buffer{},
	}
	r, err := New(Deps{
		Config:    testConfig(),
		Git:       h.git,
		Host:      h.host,
		Assistant: h.ai,
		Tasks:     h.tasks,
		Prompt:    h.prompt,
		Store:     h.rec,
		Out:       output.NewPrinter(h.out),
		Log:       logging.Discard(),
		RepoName:  "widgets",
	})
	require.NoError(t, err)
	h.runner = r
	return h
}

// run executes cmd and returns the exit code and the single recorded entry.
func (h *harness) run(t *testing.T, cmd store.Command, args ...string) (int, store.Entry) {
	t.Helper()

	code := h.runner.Run(context.Background(), cmd, args)
	require.Len(t, h.rec.entries, 1, "exactly one activity record per run")
	return code, h.rec.entries[0]
}
