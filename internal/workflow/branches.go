package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blackwell-systems/gitpilot/internal/prompt"
	"github.com/blackwell-systems/gitpilot/internal/store"
)

// GoneCaveat is printed before branch selection. A gone upstream is
// treated as merged even though the remote branch may have been deleted
// without merging.
const GoneCaveat = "branches whose upstream is gone are pre-selected as merged; the remote may have been deleted without a merge"

// BranchCandidate is a local branch offered for deletion.
type BranchCandidate struct {
	Name   string
	Merged bool
	Gone   bool
}

// Label describes the candidate in the selection list.
func (c BranchCandidate) Label() string {
	var tags []string
	if c.Merged {
		tags = append(tags, "merged")
	}
	if c.Gone {
		tags = append(tags, "upstream gone")
	}
	if len(tags) == 0 {
		return c.Name
	}
	return fmt.Sprintf("%s (%s)", c.Name, strings.Join(tags, ", "))
}

// CleanBranches deletes local branches the user selects. Branches merged
// into the default branch or whose upstream is gone start selected.
func (r *Runner) CleanBranches(ctx context.Context, e *store.Entry) error {
	current, err := r.Git.CurrentBranch(ctx)
	if err != nil {
		return toolError("reading current branch", err)
	}
	base := r.defaultBranch(ctx)
	e.SetMetadata("base", base)

	if r.Config.CleanBranches.FetchPrune {
		r.Out.Step("Pruning remote-tracking branches")
		if err := r.Git.FetchPrune(ctx); err != nil {
			r.Log.WithError(err).Warn("fetch --prune failed; upstream status may be stale")
		}
	}

	candidates, err := r.branchCandidates(ctx, current, base)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		e.BranchesDeleted = store.Int(0)
		r.Out.Success("No branches to clean up besides %s", base)
		return nil
	}

	options := make([]prompt.Option, len(candidates))
	for i, c := range candidates {
		options[i] = prompt.Option{Label: c.Label(), Checked: c.Merged || c.Gone}
	}
	e.SetMetadata("candidates", len(candidates))

	r.Out.Warn(GoneCaveat)
	picked, err := r.Prompt.MultiSelect(ctx, "Select branches to delete", options)
	if errors.Is(err, prompt.ErrAborted) {
		e.BranchesDeleted = store.Int(0)
		return ErrCancelled
	}
	if err != nil {
		return err
	}
	if len(picked) == 0 {
		e.BranchesDeleted = store.Int(0)
		return ErrCancelled
	}

	selected := make([]BranchCandidate, 0, len(picked))
	names := make([]string, 0, len(picked))
	for _, i := range picked {
		selected = append(selected, candidates[i])
		names = append(names, candidates[i].Name)
	}
	e.SetUserInput("selected", names)

	r.Out.Blank()
	r.Out.Bullets(names)
	r.Out.Blank()
	if err := r.confirm(ctx, fmt.Sprintf("Delete %s?", plural(len(selected), "branch")), false); err != nil {
		e.BranchesDeleted = store.Int(0)
		return err
	}

	deleted := 0
	var failed []string
	for _, c := range selected {
		if err := r.Git.DeleteBranch(ctx, c.Name, !c.Merged); err != nil {
			r.Log.WithError(err).WithField("branch", c.Name).Warn("branch deletion failed")
			r.Out.Failure("Could not delete %s: %v", c.Name, err)
			failed = append(failed, c.Name)
			continue
		}
		deleted++
		r.Out.Success("Deleted %s", c.Name)
	}
	e.BranchesDeleted = store.Int(deleted)

	if len(failed) > 0 {
		return toolError("deleting branches", fmt.Errorf("%d of %d failed: %s", len(failed), len(selected), strings.Join(failed, ", ")))
	}
	r.Out.Success("Deleted %s", plural(deleted, "branch"))
	return nil
}

// branchCandidates lists local branches other than current and base,
// marked with merge and upstream status.
func (r *Runner) branchCandidates(ctx context.Context, current, base string) ([]BranchCandidate, error) {
	local, err := r.Git.LocalBranches(ctx)
	if err != nil {
		return nil, toolError("listing local branches", err)
	}
	merged, err := r.Git.MergedBranches(ctx, base)
	if err != nil {
		return nil, toolError("listing branches merged into "+base, err)
	}
	gone, err := r.Git.GoneBranches(ctx)
	if err != nil {
		return nil, toolError("listing branches with a gone upstream", err)
	}

	mergedSet := toSet(merged)
	goneSet := toSet(gone)

	var out []BranchCandidate
	for _, name := range local {
		if name == current || name == base {
			continue
		}
		out = append(out, BranchCandidate{
			Name:   name,
			Merged: mergedSet[name],
			Gone:   goneSet[name],
		})
	}
	return out, nil
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, s := range items {
		set[s] = true
	}
	return set
}
