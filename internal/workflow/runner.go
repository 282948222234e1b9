// Package workflow implements gitpilot's commands. Each workflow fills in a
// store.Entry as it goes and returns its terminal error; Runner.Execute turns
// that into user-visible output, one activity record and an exit code.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blackwell-systems/gitpilot/internal/assistant"
	"github.com/blackwell-systems/gitpilot/internal/config"
	"github.com/blackwell-systems/gitpilot/internal/github"
	"github.com/blackwell-systems/gitpilot/internal/output"
	"github.com/blackwell-systems/gitpilot/internal/prompt"
	"github.com/blackwell-systems/gitpilot/internal/store"
	"github.com/blackwell-systems/gitpilot/internal/tasks"
)

// Git is the version-control surface the workflows use. *git.Client
// implements it.
type Git interface {
	StagedFiles(ctx context.Context) ([]string, error)
	UnstagedFiles(ctx context.Context) ([]string, error)
	StagedDiff(ctx context.Context) (string, error)
	UnstagedDiff(ctx context.Context) (string, error)
	BranchDiff(ctx context.Context, base string) (string, error)
	BranchFiles(ctx context.Context, base string) ([]string, error)
	CurrentBranch(ctx context.Context) (string, error)
	DefaultBranch(ctx context.Context, fallback string) string
	CreateBranch(ctx context.Context, name string) error
	Commit(ctx context.Context, message string, all bool) error
	HeadCommit(ctx context.Context) (string, error)
	PendingPush(ctx context.Context) (bool, error)
	Push(ctx context.Context, branch string, setUpstream bool) error
	CommitSubjects(ctx context.Context, base string) ([]string, error)
	LocalBranches(ctx context.Context) ([]string, error)
	MergedBranches(ctx context.Context, base string) ([]string, error)
	GoneBranches(ctx context.Context) ([]string, error)
	FetchPrune(ctx context.Context) error
	DeleteBranch(ctx context.Context, name string, force bool) error
}

// Recorder persists activity records. *store.Store implements it.
type Recorder interface {
	Record(ctx context.Context, e store.Entry) (int64, error)
}

// Deps are the collaborators a Runner drives.
type Deps struct {
	Config    *config.Config
	Git       Git
	Host      github.Host
	Assistant assistant.Assistant
	Tasks     tasks.Tracker
	Prompt    prompt.Prompter
	Store     Recorder
	Out       *output.Printer
	Log       *logrus.Logger
	// RepoName is the default task project for pr-todos.
	RepoName string
}

// Runner executes workflows.
type Runner struct {
	Deps
	now func() time.Time
}

// New checks that every dependency is set.
func New(d Deps) (*Runner, error) {
	if d.Config == nil || d.Git == nil || d.Host == nil || d.Assistant == nil ||
		d.Tasks == nil || d.Prompt == nil || d.Store == nil || d.Out == nil || d.Log == nil {
		return nil, errors.New("workflow: every dependency must be set")
	}

	return &Runner{Deps: d, now: time.Now}, nil
}

// Workflow is one command body. It records outcome details in e and returns
// its terminal error.
type Workflow func(ctx context.Context, e *store.Entry) error

// Run dispatches cmd with its positional arguments and returns the exit code.
func (r *Runner) Run(ctx context.Context, cmd store.Command, args []string) int {
	return r.Execute(ctx, cmd, func(ctx context.Context, e *store.Entry) error {
		switch cmd {
		case store.CommandBranchCommit:
			return r.BranchCommit(ctx, e)
		case store.CommandSmartCommit:
			return r.SmartCommit(ctx, e, args)
		case store.CommandPRTodos:
			return r.PRTodos(ctx, e, args)
		case store.CommandCreatePR:
			return r.CreatePR(ctx, e)
		case store.CommandReview:
			return r.Review(ctx, e)
		case store.CommandPRSecurity:
			return r.PRSecurity(ctx, e, args)
		case store.CommandCleanBranches:
			return r.CleanBranches(ctx, e)
		default:
			return fmt.Errorf("unknown command %q", cmd)
		}
	})
}

// Execute runs fn, reports its outcome and writes exactly one activity
// record. A store failure is logged and never changes the exit code.
func (r *Runner) Execute(ctx context.Context, cmd store.Command, fn Workflow) int {
	start := r.now()
	e := &store.Entry{Command: cmd}
	log := r.Log.WithField("command", string(cmd))
	log.Debug("workflow started")

	err := fn(ctx, e)
	e.DurationMs = store.Int64(r.now().Sub(start).Milliseconds())
	if err != nil && !errors.Is(err, ErrCancelled) && errors.Is(ctx.Err(), context.Canceled) {
		log.WithError(err).Debug("interrupted")
		err = ErrCancelled
	}

	switch {
	case err == nil:
		e.Success = store.Bool(true)
	case errors.Is(err, ErrCancelled):
		e.Success = store.Bool(false)
		e.ErrorMessage = CancelledMessage
		r.Out.Warn("cancelled; nothing further was changed")
	default:
		e.Success = store.Bool(false)
		e.ErrorMessage = err.Error()
		r.Out.Failure("%s", err)
		var ae *AssistantError
		if errors.As(err, &ae) {
			r.Out.Info(AssistantHint)
		}
	}

	fields := logrus.Fields{"success": *e.Success, "duration_ms": *e.DurationMs}
	if err != nil {
		fields["error"] = err.Error()
	}
	log.WithFields(fields).Info("workflow finished")

	// An interrupt cancels ctx; the record is still written.
	if id, werr := r.Store.Record(context.WithoutCancel(ctx), *e); werr != nil {
		log.WithError(werr).Warn("failed to record activity")
	} else {
		log.WithField("id", id).Debug("activity recorded")
	}

	return ExitCode(err)
}

// confirm asks a yes/no question; declining or aborting is ErrCancelled.
func (r *Runner) confirm(ctx context.Context, question string, defaultYes bool) error {
	ok, err := r.Prompt.Confirm(ctx, question, defaultYes)
	if errors.Is(err, prompt.ErrAborted) {
		return ErrCancelled
	}
	if err != nil {
		return err
	}
	if !ok {
		return ErrCancelled
	}
	return nil
}

// ask sends a prompt and wraps every failure as an AssistantError.
func (r *Runner) ask(ctx context.Context, op, text string) (string, error) {
	r.Log.WithField("prompt_bytes", len(text)).Debug("asking assistant")
	reply, err := r.Assistant.Ask(ctx, text)
	if err != nil {
		return "", &AssistantError{Op: op, Err: err}
	}
	r.Log.WithField("reply_bytes", len(reply)).Debug("assistant replied")
	return reply, nil
}

func (r *Runner) truncate(diff string) string {
	return assistant.Truncate(diff, r.Config.MaxDiffBytes)
}

// defaultBranch asks the host first, then local git, then falls back to the
// configured name.
func (r *Runner) defaultBranch(ctx context.Context) string {
	if name, err := r.Host.DefaultBranch(ctx); err == nil && name != "" {
		return name
	} else if err != nil {
		r.Log.WithError(err).Debug("host could not report the default branch")
	}
	return r.Git.DefaultBranch(ctx, r.Config.DefaultBranch)
}

// prNumber takes the PR number from args or asks for it.
func (r *Runner) prNumber(ctx context.Context, args []string) (int, error) {
	var raw string
	if len(args) > 0 {
		raw = args[0]
	} else {
		var err error
		raw, err = r.Prompt.Input(ctx, "Pull request number", "")
		if errors.Is(err, prompt.ErrAborted) {
			return 0, ErrCancelled
		}
		if err != nil {
			return 0, err
		}
	}
	n, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(raw), "#"))
	if err != nil || n <= 0 {
		return 0, precondition("invalid pull request number %q", raw)
	}
	return n, nil
}

func shortHash(h string) string {
	if len(h) > 7 {
		return h[:7]
	}
	return h
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
