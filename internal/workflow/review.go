package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blackwell-systems/gitpilot/internal/assistant"
	"github.com/blackwell-systems/gitpilot/internal/output"
	"github.com/blackwell-systems/gitpilot/internal/parse"
	"github.com/blackwell-systems/gitpilot/internal/prompt"
	"github.com/blackwell-systems/gitpilot/internal/store"
)

// Review scopes.
const (
	ScopeStaged   = "staged"
	ScopeUnstaged = "unstaged"
	ScopeBranch   = "branch"
)

type reviewScope struct {
	name  string
	label string
	diff  string
}

// Review prints assistant review comments for the staged, unstaged or
// branch changes.
func (r *Runner) Review(ctx context.Context, e *store.Entry) error {
	scopes, err := r.reviewScopes(ctx)
	if err != nil {
		return err
	}
	if len(scopes) == 0 {
		return precondition("no changes found to review")
	}

	scope := scopes[0]
	if len(scopes) > 1 {
		options := make([]prompt.Option, len(scopes))
		for i, s := range scopes {
			options[i] = prompt.Option{Label: s.label}
		}
		i, err := r.Prompt.Select(ctx, "What should be reviewed?", options)
		if errors.Is(err, prompt.ErrAborted) {
			return ErrCancelled
		}
		if err != nil {
			return err
		}
		scope = scopes[i]
	}
	e.SetUserInput("scope", scope.name)

	r.Out.Step("Reviewing %s", scope.label)
	text, err := assistant.ReviewPrompt(scope.name, r.truncate(scope.diff))
	if err != nil {
		return err
	}
	reply, err := r.ask(ctx, "reviewing changes", text)
	if err != nil {
		return err
	}
	comments := parse.ReviewComments(reply)
	e.IssuesFound = store.Int(len(comments))

	if len(comments) == 0 {
		r.Out.Success("No issues found")
		return nil
	}
	r.Out.Section(fmt.Sprintf("Review comments (%d)", len(comments)))
	r.Out.Bullets(comments)
	r.Out.Blank()
	r.Out.Success("Review complete: %s", plural(len(comments), "comment"))
	return nil
}

// reviewScopes returns the scopes that have changes, in menu order.
func (r *Runner) reviewScopes(ctx context.Context) ([]reviewScope, error) {
	var scopes []reviewScope

	staged, err := r.Git.StagedDiff(ctx)
	if err != nil {
		return nil, toolError("reading staged diff", err)
	}
	if strings.TrimSpace(staged) != "" {
		scopes = append(scopes, reviewScope{ScopeStaged, "Staged changes", staged})
	}

	unstaged, err := r.Git.UnstagedDiff(ctx)
	if err != nil {
		return nil, toolError("reading unstaged diff", err)
	}
	if strings.TrimSpace(unstaged) != "" {
		scopes = append(scopes, reviewScope{ScopeUnstaged, "Unstaged changes", unstaged})
	}

	branch, err := r.Git.CurrentBranch(ctx)
	if err != nil {
		return nil, toolError("reading current branch", err)
	}
	if branch != "" {
		base := r.Git.DefaultBranch(ctx, r.Config.DefaultBranch)
		if branch != base {
			diff, err := r.Git.BranchDiff(ctx, base)
			if err != nil {
				r.Log.WithError(err).Debug("branch diff unavailable")
			} else if strings.TrimSpace(diff) != "" {
				scopes = append(scopes, reviewScope{ScopeBranch, fmt.Sprintf("Branch changes against %s", base), diff})
			}
		}
	}
	return scopes, nil
}

// PRSecurity prints a five-tier security report for a pull request diff.
func (r *Runner) PRSecurity(ctx context.Context, e *store.Entry, args []string) error {
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

	diff, err := r.Host.PRDiff(ctx, number)
	if err != nil {
		return toolError(fmt.Sprintf("fetching diff for #%d", number), err)
	}
	if strings.TrimSpace(diff) == "" {
		e.IssuesFound = store.Int(0)
		r.Out.Success("No changes found in #%d", number)
		return nil
	}

	r.Out.Step("Reviewing #%d %s for security issues", pr.Number, pr.Title)
	text, err := assistant.SecurityPrompt(r.truncate(diff))
	if err != nil {
		return err
	}
	reply, err := r.ask(ctx, "running security review", text)
	if err != nil {
		return err
	}
	report := parse.SecurityReview(reply)

	counts := map[store.Severity]int{}
	tiers := []struct {
		severity store.Severity
		title    string
		items    []string
	}{
		{store.SeverityCritical, "Critical", report.Critical},
		{store.SeverityHigh, "High", report.High},
		{store.SeverityMedium, "Medium", report.Medium},
		{store.SeverityLow, "Low", report.Low},
		{store.SeverityInfo, "Info", report.Info},
	}
	e.IssuesFound = store.Int(report.Total())

	r.Out.Blank()
	r.Out.Detail("Summary", report.Summary)
	for _, tier := range tiers {
		counts[tier.severity] = len(tier.items)
		style := output.SeverityStyle(string(tier.severity))
		fmt.Fprintf(r.Out.Writer(), "\n %s\n", style(fmt.Sprintf("%s (%d)", tier.title, len(tier.items))))
		if len(tier.items) == 0 {
			r.Out.Info("none")
			continue
		}
		r.Out.Bullets(tier.items)
	}
	e.IssueSeverity = counts
	r.Out.Blank()

	if report.Total() == 0 {
		r.Out.Success("No security issues found in #%d", number)
	} else {
		r.Out.Success("Security review complete: %s", plural(report.Total(), "finding"))
	}
	return nil
}
