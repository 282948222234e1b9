package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blackwell-systems/gitpilot/internal/assistant"
	"github.com/blackwell-systems/gitpilot/internal/parse"
	"github.com/blackwell-systems/gitpilot/internal/prompt"
	"github.com/blackwell-systems/gitpilot/internal/store"
)

// BranchCommit creates a new branch and one commit from the staged changes,
// both named by the assistant.
func (r *Runner) BranchCommit(ctx context.Context, e *store.Entry) error {
	files, err := r.Git.StagedFiles(ctx)
	if err != nil {
		return toolError("listing staged files", err)
	}
	if len(files) == 0 {
		return precondition(MsgNoStagedChanges)
	}
	e.FilesChanged = store.Int(len(files))

	diff, err := r.Git.StagedDiff(ctx)
	if err != nil {
		return toolError("reading staged diff", err)
	}

	r.Out.Step("Generating branch name and commit message for %s", plural(len(files), "file"))
	text, err := assistant.BranchCommitPrompt(r.truncate(diff), files)
	if err != nil {
		return err
	}
	reply, err := r.ask(ctx, "generating branch and commit", text)
	if err != nil {
		return err
	}
	bc, err := parse.BranchAndCommit(reply)
	if err != nil {
		return &AssistantError{Op: "reading branch and commit", Err: err}
	}

	branch := r.prefixBranch(bc.BranchName)
	e.BranchName = branch
	e.CommitMessage = bc.CommitMessage

	r.Out.Blank()
	r.Out.Detail("Branch", branch)
	r.Out.Detail("Commit", bc.CommitMessage)
	r.Out.Detail("Files", fmt.Sprint(len(files)))
	r.Out.Blank()
	if err := r.confirm(ctx, "Create branch and commit?", true); err != nil {
		return err
	}

	if err := r.Git.CreateBranch(ctx, branch); err != nil {
		return toolError("creating branch "+branch, err)
	}
	r.Out.Success("Created branch %s", branch)

	if err := r.Git.Commit(ctx, bc.CommitMessage, false); err != nil {
		return toolError("committing", err)
	}
	hash, err := r.Git.HeadCommit(ctx)
	if err != nil {
		r.Log.WithError(err).Warn("could not read head commit")
	}
	e.CommitHash = hash
	r.Out.Success("Committed %s %s", shortHash(hash), bc.CommitMessage)
	return nil
}

// prefixBranch applies the configured prefix unless name already has it.
func (r *Runner) prefixBranch(name string) string {
	prefix := r.Config.BranchPrefix
	name = strings.TrimSpace(name)
	if prefix == "" || strings.HasPrefix(name, prefix) {
		return name
	}
	return prefix + name
}

// Choices offered after a commit message is generated.
const (
	choiceAccept = iota
	choiceEdit
	choiceCancel
)

// SmartCommit commits with a conventional message. With a type and a
// message in args it commits directly; otherwise the assistant writes the
// message from the staged diff, or from the unstaged diff when nothing is
// staged.
func (r *Runner) SmartCommit(ctx context.Context, e *store.Entry, args []string) error {
	if len(args) >= 2 {
		return r.manualCommit(ctx, e, args[0], strings.Join(args[1:], " "))
	}

	var commitType string
	if len(args) == 1 {
		commitType = strings.TrimSpace(args[0])
	}

	scope := "staged"
	all := false
	files, err := r.Git.StagedFiles(ctx)
	if err != nil {
		return toolError("listing staged files", err)
	}
	if len(files) == 0 {
		scope, all = "unstaged", true
		files, err = r.Git.UnstagedFiles(ctx)
		if err != nil {
			return toolError("listing unstaged files", err)
		}
	}
	if len(files) == 0 {
		return precondition("no changes found to commit")
	}
	e.FilesChanged = store.Int(len(files))
	e.SetUserInput("scope", scope)
	if commitType != "" {
		e.SetUserInput("type", commitType)
	}

	var diff string
	if all {
		diff, err = r.Git.UnstagedDiff(ctx)
	} else {
		diff, err = r.Git.StagedDiff(ctx)
	}
	if err != nil {
		return toolError("reading "+scope+" diff", err)
	}

	r.Out.Step("Generating commit message for %s %s", plural(len(files), "file"), scope)
	text, err := assistant.SmartCommitPrompt(r.truncate(diff), files, commitType)
	if err != nil {
		return err
	}
	reply, err := r.ask(ctx, "generating commit message", text)
	if err != nil {
		return err
	}
	message, err := parse.CommitMessage(reply)
	if err != nil {
		return &AssistantError{Op: "reading commit message", Err: err}
	}

	r.Out.Blank()
	r.Out.Detail("Commit", message)
	r.Out.Blank()
	choice, err := r.Prompt.Select(ctx, "Use this commit message?", []prompt.Option{
		choiceAccept: {Label: "Accept"},
		choiceEdit:   {Label: "Edit"},
		choiceCancel: {Label: "Cancel"},
	})
	if errors.Is(err, prompt.ErrAborted) {
		return ErrCancelled
	}
	if err != nil {
		return err
	}

	edited := false
	switch choice {
	case choiceCancel:
		return ErrCancelled
	case choiceEdit:
		revised, err := r.Prompt.Input(ctx, "Commit message", message)
		if errors.Is(err, prompt.ErrAborted) {
			return ErrCancelled
		}
		if err != nil {
			return err
		}
		revised = strings.TrimSpace(revised)
		if revised == "" {
			return precondition("commit message must not be empty")
		}
		edited = revised != message
		message = revised
	}
	e.SetUserInput("aiGenerated", true)
	e.SetUserInput("edited", edited)
	e.CommitMessage = message

	if err := r.Git.Commit(ctx, message, all); err != nil {
		return toolError("committing", err)
	}
	return r.recordCommit(ctx, e, message)
}

func (r *Runner) manualCommit(ctx context.Context, e *store.Entry, commitType, summary string) error {
	commitType = strings.TrimSpace(commitType)
	summary = strings.TrimSpace(summary)
	if commitType == "" || summary == "" {
		return precondition("commit type and message must not be empty")
	}

	files, err := r.Git.StagedFiles(ctx)
	if err != nil {
		return toolError("listing staged files", err)
	}
	if len(files) == 0 {
		return precondition(MsgNoStagedChanges)
	}

	message := commitType + ": " + summary
	e.FilesChanged = store.Int(len(files))
	e.CommitMessage = message
	e.SetUserInput("type", commitType)
	e.SetUserInput("message", summary)
	e.SetUserInput("aiGenerated", false)

	if err := r.Git.Commit(ctx, message, false); err != nil {
		return toolError("committing", err)
	}
	return r.recordCommit(ctx, e, message)
}

func (r *Runner) recordCommit(ctx context.Context, e *store.Entry, message string) error {
	hash, err := r.Git.HeadCommit(ctx)
	if err != nil {
		r.Log.WithError(err).Warn("could not read head commit")
	}
	e.CommitHash = hash
	if branch, err := r.Git.CurrentBranch(ctx); err == nil {
		e.BranchName = branch
	}
	r.Out.Success("Committed %s %s", shortHash(hash), message)
	return nil
}
