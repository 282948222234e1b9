package workflow

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/gitpilot/internal/assistant"
	"github.com/blackwell-systems/gitpilot/internal/git"
	"github.com/blackwell-systems/gitpilot/internal/github"
	"github.com/blackwell-systems/gitpilot/internal/parse"
	"github.com/blackwell-systems/gitpilot/internal/store"
	"github.com/blackwell-systems/gitpilot/internal/tasks"
)

// maxTaskTitle caps a task title derived from a comment's first line.
const maxTaskTitle = 80

// ActionItem is a pull request comment that asks for follow-up.
type ActionItem struct {
	Comment github.Comment
	Kind    string
}

// PRTodos turns action items in a pull request's comments into tasks.
func (r *Runner) PRTodos(ctx context.Context, e *store.Entry, args []string) error {
	patterns, err := compilePatterns(r.Config.ActionItemPatterns)
	if err != nil {
		return err
	}

	number, err := r.prNumber(ctx, args)
	if err != nil {
		return err
	}
	e.PRNumber = number

	pr, err := r.Host.ViewPR(ctx, number)
	if err != nil {
		return toolError(fmt.Sprintf("viewing pull request #%d", number), err)
	}
	recordPR(e, pr)
	r.Out.Step("Fetching comments on #%d %s", pr.Number, pr.Title)

	var issue, review []github.Comment
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		issue, err = r.Host.IssueComments(gctx, number)
		if err != nil {
			return toolError("fetching conversation comments", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		review, err = r.Host.ReviewComments(gctx, number)
		if err != nil {
			return toolError("fetching review comments", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	items := actionItems(patterns, issue, "comment")
	items = append(items, actionItems(patterns, review, "review")...)
	e.IssuesFound = store.Int(len(items))
	e.SetMetadata("comments", len(issue)+len(review))

	if len(items) == 0 {
		e.TasksCreated = store.Int(0)
		r.Out.Success("No action items found in %s", plural(len(issue)+len(review), "comment"))
		return nil
	}

	project := r.Config.Tasks.Project
	if project == "" {
		project = r.RepoName
	}
	e.SetUserInput("project", project)

	r.Out.Section(fmt.Sprintf("Action items (%d)", len(items)))
	summaries := make([]string, 0, len(items))
	for _, it := range items {
		summaries = append(summaries, fmt.Sprintf("%s: %s", it.Comment.Author, taskTitle(it.Comment.Body)))
	}
	r.Out.Bullets(summaries)
	r.Out.Blank()

	if err := r.confirm(ctx, fmt.Sprintf("Create %s in %s?", plural(len(items), "task"), project), true); err != nil {
		e.TasksCreated = store.Int(0)
		return err
	}

	created := 0
	var failed []string
	for _, it := range items {
		id, err := r.Tasks.Create(ctx, taskFor(pr, it, project))
		if err != nil {
			r.Log.WithError(err).Warn("task creation failed")
			failed = append(failed, err.Error())
			continue
		}
		created++
		r.Out.Success("Created task %s", id)
	}
	e.TasksCreated = store.Int(created)

	if len(failed) > 0 {
		return toolError(fmt.Sprintf("creating tasks (%d of %d failed)", len(failed), len(items)), errors.New(failed[0]))
	}
	r.Out.Success("Created %s from #%d", plural(created, "task"), pr.Number)
	return nil
}

// compilePatterns compiles action item patterns case-insensitively.
func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("invalid action item pattern %q in action_item_patterns: %w", p, err)
		}
		res = append(res, re)
	}
	return res, nil
}

// actionItems returns the comments matching any of patterns.
func actionItems(patterns []*regexp.Regexp, comments []github.Comment, kind string) []ActionItem {
	var items []ActionItem
	for _, c := range comments {
		for _, re := range patterns {
			if re.MatchString(c.Body) {
				items = append(items, ActionItem{Comment: c, Kind: kind})
				break
			}
		}
	}
	return items
}

func taskFor(pr github.PullRequest, it ActionItem, project string) tasks.Task {
	var desc strings.Builder
	fmt.Fprintf(&desc, "From %s by %s on #%d %s\n", it.Kind, it.Comment.Author, pr.Number, pr.Title)
	if it.Comment.Path != "" {
		fmt.Fprintf(&desc, "File: %s\n", it.Comment.Path)
	}
	if pr.URL != "" {
		fmt.Fprintf(&desc, "%s\n", pr.URL)
	}
	desc.WriteString("\n")
	desc.WriteString(strings.TrimSpace(it.Comment.Body))
	return tasks.Task{
		Title:       taskTitle(it.Comment.Body),
		Description: desc.String(),
		Project:     project,
	}
}

// taskTitle is the first non-empty line of body, shortened.
func taskTitle(body string) string {
	title := ""
	for _, line := range strings.Split(body, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			title = line
			break
		}
	}
	if r := []rune(title); len(r) > maxTaskTitle {
		title = string(r[:maxTaskTitle-3]) + "..."
	}
	return title
}

func recordPR(e *store.Entry, pr github.PullRequest) {
	e.PRNumber = pr.Number
	e.PRTitle = pr.Title
	e.PRAuthor = pr.Author
	e.PRURL = pr.URL
	if pr.HeadBranch != "" {
		e.BranchName = pr.HeadBranch
	}
}

// CreatePR pushes the current branch if needed and opens a pull request
// described by the assistant.
func (r *Runner) CreatePR(ctx context.Context, e *store.Entry) error {
	branch, err := r.Git.CurrentBranch(ctx)
	if err != nil {
		return toolError("reading current branch", err)
	}
	if branch == "" {
		return precondition("HEAD is detached; check out a feature branch first")
	}
	e.BranchName = branch

	base := r.defaultBranch(ctx)
	e.SetMetadata("base", base)
	if branch == base {
		return precondition("you are on the default branch %s; create a feature branch first", base)
	}

	commits, err := r.Git.CommitSubjects(ctx, base)
	if err != nil {
		return toolError("listing commits against "+base, err)
	}
	if len(commits) == 0 {
		return precondition("no commits between %s and %s", base, branch)
	}
	files, err := r.Git.BranchFiles(ctx, base)
	if err != nil {
		return toolError("listing changed files", err)
	}
	e.FilesChanged = store.Int(len(files))
	diff, err := r.Git.BranchDiff(ctx, base)
	if err != nil {
		return toolError("reading branch diff", err)
	}

	r.Out.Step("Generating pull request for %s (%s against %s)", branch, plural(len(commits), "commit"), base)
	text, err := assistant.PRPrompt(branch, base, commits, files, r.truncate(diff))
	if err != nil {
		return err
	}
	reply, err := r.ask(ctx, "generating pull request", text)
	if err != nil {
		return err
	}
	desc, err := parse.PRDescription(reply)
	if err != nil {
		return &AssistantError{Op: "reading pull request description", Err: err}
	}
	e.PRTitle = desc.Title

	r.Out.Blank()
	r.Out.Detail("Title", desc.Title)
	r.Out.Detail("Base", base)
	r.Out.Block(desc.Description)
	r.Out.Blank()
	if err := r.confirm(ctx, "Create this pull request?", true); err != nil {
		return err
	}

	pending, err := r.Git.PendingPush(ctx)
	switch {
	case errors.Is(err, git.ErrNoUpstream):
		if err := r.Git.Push(ctx, branch, true); err != nil {
			return toolError("pushing "+branch, err)
		}
		r.Out.Success("Pushed %s and set upstream", branch)
	case err != nil:
		return toolError("checking for unpushed commits", err)
	case pending:
		if err := r.Git.Push(ctx, branch, false); err != nil {
			return toolError("pushing "+branch, err)
		}
		r.Out.Success("Pushed %s", branch)
	}

	pr, err := r.Host.CreatePR(ctx, github.NewPullRequest{
		Title: desc.Title,
		Body:  desc.Description,
		Head:  branch,
		Base:  base,
	})
	if err != nil {
		return toolError("creating pull request", err)
	}
	e.PRNumber = pr.Number
	e.PRURL = pr.URL
	r.Out.Success("Created pull request #%d %s", pr.Number, pr.URL)
	return nil
}
