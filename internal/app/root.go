// Package app contains the Cobra command tree for gitpilot.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/gitpilot/internal/output"
	"github.com/blackwell-systems/gitpilot/internal/prompt"
	"github.com/blackwell-systems/gitpilot/internal/store"
)

var appVersion = "dev"

// SetVersion sets the application version (called from main with ldflags value).
func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

var (
	flagNoColor bool
	flagVerbose bool
	flagYes     bool
	flagConfig  string
)

// exitCode is the outcome of the workflow that ran, if any.
var exitCode int

var rootCmd = &cobra.Command{
	Use:   "gitpilot",
	Short: "AI-assisted git workflows",
	Long: `gitpilot wraps git, the GitHub CLI and an AI assistant into a handful of
everyday workflows: naming branches and commits, writing pull requests,
reviewing changes, turning review comments into tasks and cleaning up
merged branches. Every run is recorded in a local activity log.

Run 'gitpilot' with no arguments to pick a workflow from a menu.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runMenu,
}

// Execute is the entry point called from main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, output.StyleError.Render("✗"), err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/gitpilot/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log debug output to stderr as well as the log file")
	rootCmd.PersistentFlags().BoolVarP(&flagYes, "yes", "y", false, "Answer yes to confirmations (selections are still asked)")
}

// menuEntries pairs each workflow with its menu description.
var menuEntries = []struct {
	command store.Command
	summary string
}{
	{store.CommandBranchCommit, "Create a branch and commit from staged changes"},
	{store.CommandSmartCommit, "Commit with a generated conventional message"},
	{store.CommandPRTodos, "Turn pull request comments into tasks"},
	{store.CommandCreatePR, "Push the current branch and open a pull request"},
	{store.CommandReview, "Review staged, unstaged or branch changes"},
	{store.CommandPRSecurity, "Security review of a pull request"},
	{store.CommandCleanBranches, "Delete merged local branches"},
}

func runMenu(cmd *cobra.Command, _ []string) error {
	env, err := newEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()

	options := make([]prompt.Option, len(menuEntries))
	for i, m := range menuEntries {
		options[i] = prompt.Option{Label: fmt.Sprintf("%-15s %s", m.command, m.summary)}
	}
	i, err := env.prompt.Select(cmd.Context(), "What would you like to do?", options)
	if errors.Is(err, prompt.ErrAborted) {
		return nil
	}
	if err != nil {
		return err
	}

	exitCode = env.run(cmd.Context(), menuEntries[i].command, nil)
	return nil
}

// runWorkflow is the RunE body shared by every workflow command.
func runWorkflow(c store.Command) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		env, err := newEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		exitCode = env.run(cmd.Context(), c, args)
		return nil
	}
}

