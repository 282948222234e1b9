package app

import (
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/gitpilot/internal/store"
)

var branchCommitCmd = &cobra.Command{
	Use:   "branch-commit",
	Short: "Create a branch and commit from staged changes",
	Long: `Ask the assistant for a branch name and a conventional commit message
for the staged changes, then create the branch (under the configured prefix,
feature/ by default) and commit to it after confirmation.`,
	Args: cobra.NoArgs,
	RunE: runWorkflow(store.CommandBranchCommit),
}

var smartCommitCmd = &cobra.Command{
	Use:   "smart-commit [type] [message]",
	Short: "Commit with a conventional commit message",
	Long: `With a type and a message, commit the staged changes as "<type>: <message>"
without asking the assistant. Otherwise generate a conventional commit
message from the staged changes (or all unstaged changes when nothing is
staged) and accept, edit or cancel it.

Examples:
  gitpilot smart-commit
  gitpilot smart-commit fix
  gitpilot smart-commit feat "add login"`,
	Args: cobra.ArbitraryArgs,
	RunE: runWorkflow(store.CommandSmartCommit),
}

var prTodosCmd = &cobra.Command{
	Use:   "pr-todos [pr-number]",
	Short: "Turn pull request comments into tasks",
	Long: `Fetch the conversation and review comments of a pull request, pick out the
ones that ask for follow-up (matched by action_item_patterns) and create one
task per comment in the configured tracker.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWorkflow(store.CommandPRTodos),
}

var createPRCmd = &cobra.Command{
	Use:   "create-pr",
	Short: "Push the current branch and open a pull request",
	Long: `Generate a pull request title and description from the commits and diff
against the default branch, push the branch if it has unpushed commits and
open the pull request.`,
	Args: cobra.NoArgs,
	RunE: runWorkflow(store.CommandCreatePR),
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review staged, unstaged or branch changes",
	Long: `Ask the assistant to review local changes. When more than one of the staged,
unstaged and branch diffs has changes you choose which one to review.`,
	Args: cobra.NoArgs,
	RunE: runWorkflow(store.CommandReview),
}

var prSecurityCmd = &cobra.Command{
	Use:   "pr-security [pr-number]",
	Short: "Security review of a pull request",
	Long: `Fetch a pull request diff and print a security report with findings
grouped as critical, high, medium, low and info.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWorkflow(store.CommandPRSecurity),
}

var cleanBranchesCmd = &cobra.Command{
	Use:   "clean-branches",
	Short: "Delete merged local branches",
	Long: `List local branches other than the current and default branch. Branches
merged into the default branch, or whose upstream branch is gone, start
selected. A gone upstream does not prove the branch was merged, so review
the selection before confirming.`,
	Args: cobra.NoArgs,
	RunE: runWorkflow(store.CommandCleanBranches),
}

func init() {
	rootCmd.AddCommand(
		branchCommitCmd,
		smartCommitCmd,
		prTodosCmd,
		createPRCmd,
		reviewCmd,
		prSecurityCmd,
		cleanBranchesCmd,
	)
}
