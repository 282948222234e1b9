package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/blackwell-systems/gitpilot/internal/assistant"
	"github.com/blackwell-systems/gitpilot/internal/config"
	"github.com/blackwell-systems/gitpilot/internal/git"
	"github.com/blackwell-systems/gitpilot/internal/github"
	"github.com/blackwell-systems/gitpilot/internal/logging"
	"github.com/blackwell-systems/gitpilot/internal/output"
	"github.com/blackwell-systems/gitpilot/internal/prompt"
	"github.com/blackwell-systems/gitpilot/internal/repo"
	"github.com/blackwell-systems/gitpilot/internal/shell"
	"github.com/blackwell-systems/gitpilot/internal/store"
	"github.com/blackwell-systems/gitpilot/internal/tasks"
	"github.com/blackwell-systems/gitpilot/internal/workflow"
)

// env holds everything a workflow command needs for one invocation.
type env struct {
	cfg    *config.Config
	log    *logrus.Logger
	git    *git.Client
	store  *store.Store
	prompt prompt.Prompter
	runner *workflow.Runner

	closeLog func() error
}

// loadConfig reads the config file and applies color preferences.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if flagNoColor || !cfg.Output.Color {
		output.SetNoColor(true)
	} else {
		output.AutoColor()
	}
	return cfg, nil
}

// newEnv wires the collaborators for the current directory. Host, assistant
// and tracker configuration errors are deferred: the workflow fails only if
// it actually needs the broken collaborator.
func newEnv(ctx context.Context) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, closeLog := openLog(cfg, flagVerbose, os.Stderr)
	log.WithField("version", appVersion).Debug("gitpilot starting")

	exec := shell.Run
	reader := repo.NewReader(exec, "")
	rc := reader.Resolve(ctx)

	st, err := store.Open(cfg.DBPath(), reader)
	if err != nil {
		_ = closeLog()
		return nil, err
	}

	host, err := github.New(ctx, cfg.Host, exec, "", rc.RepoRemote)
	if err != nil {
		log.WithError(err).Warn("host backend unavailable")
		host = github.Unavailable{Err: err}
	}
	ai, err := assistant.New(cfg.Assistant, exec)
	if err != nil {
		log.WithError(err).Warn("assistant backend unavailable")
		ai = assistant.Unavailable{Err: err}
	}
	tracker, err := tasks.New(cfg.Tasks, exec)
	if err != nil {
		log.WithError(err).Warn("task tracker unavailable")
		tracker = tasks.Unavailable{Err: err}
	}

	e := &env{
		cfg:      cfg,
		log:      log,
		git:      git.New(exec, ""),
		store:    st,
		prompt:   prompt.New(os.Stdin, os.Stdout, flagYes),
		closeLog: closeLog,
	}
	e.runner, err = workflow.New(workflow.Deps{
		Config:    cfg,
		Git:       e.git,
		Host:      host,
		Assistant: ai,
		Tasks:     tracker,
		Prompt:    e.prompt,
		Store:     st,
		Out:       output.NewPrinter(os.Stdout),
		Log:       log,
		RepoName:  rc.RepoName,
	})
	if err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

// openLog builds the diagnostics log. A broken log setup is reported on
// stderr and never stops a workflow.
func openLog(cfg *config.Config, verbose bool, stderr io.Writer) (*logrus.Logger, func() error) {
	log, closeLog, err := logging.New(logging.Options{
		Path:    cfg.LogPath(),
		Level:   cfg.Log.Level,
		Verbose: verbose,
		Stderr:  stderr,
	})
	if err != nil {
		fmt.Fprintf(stderr, "%s diagnostics log disabled: %v\n", output.StyleWarning.Render("!"), err)
		return logging.Discard(), func() error { return nil }
	}
	return log, closeLog
}

// run executes a workflow. Outside a repository it records a precondition
// failure without starting the workflow.
func (e *env) run(ctx context.Context, c store.Command, args []string) int {
	if !e.git.IsRepository(ctx) {
		return e.runner.Execute(ctx, c, func(context.Context, *store.Entry) error {
			return &workflow.PreconditionError{Msg: "not inside a git repository"}
		})
	}
	return e.runner.Run(ctx, c, args)
}

// Close releases the store and the log file.
func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		e.log.WithError(err).Warn("closing activity store")
	}
	_ = e.closeLog()
}
