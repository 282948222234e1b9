package app

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/gitpilot/internal/output"
	"github.com/blackwell-systems/gitpilot/internal/store"
	"github.com/blackwell-systems/gitpilot/internal/workflow"
)

var (
	historyCommand string
	historyRepo    string
	historyFailed  bool
	historyLimit   int
	historyJSON    bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent activity",
	Long: `List recent gitpilot runs from the activity log, newest first.

Examples:
  gitpilot history
  gitpilot history --command create-pr --limit 5
  gitpilot history --repo widgets --failed
  gitpilot history --json`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyCommand, "command", "", "Only show this workflow")
	historyCmd.Flags().StringVar(&historyRepo, "repo", "", "Only show this repository")
	historyCmd.Flags().BoolVar(&historyFailed, "failed", false, "Only show failed or cancelled runs")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs (0 for all)")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	filter := store.Filter{
		Command:  store.Command(historyCommand),
		RepoName: historyRepo,
		Limit:    historyLimit,
	}
	if filter.Command != "" && !filter.Command.Valid() {
		return fmt.Errorf("unknown command %q", historyCommand)
	}
	if historyFailed {
		filter.Success = store.Bool(false)
	}

	st, err := store.Open(cfg.DBPath(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	records, err := st.List(cmd.Context(), filter)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if historyJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
	renderHistory(w, records)
	return nil
}

func renderHistory(w io.Writer, records []store.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No activity recorded yet. Run a workflow such as 'gitpilot smart-commit' to start.")
		return
	}

	fmt.Fprintln(w, output.Section("Activity"))
	fmt.Fprintln(w)

	tbl := output.NewTable("ID", "Time", "Command", "Repo", "Result", "Took", "Details")
	for _, r := range records {
		tbl.AddRow(
			fmt.Sprint(r.ID),
			r.Timestamp.Local().Format("2006-01-02 15:04"),
			string(r.Command),
			r.RepoName,
			result(r.Entry),
			took(r.DurationMs),
			details(r.Entry),
		)
	}
	tbl.Print(w)
	fmt.Fprintln(w)
	fmt.Fprintf(w, " %s\n\n", output.StyleMuted.Render(plural(tbl.Len(), "run")))
}

func result(e store.Entry) string {
	switch {
	case e.Success != nil && *e.Success:
		return output.StyleSuccess.Render("ok")
	case e.ErrorMessage == workflow.CancelledMessage:
		return output.StyleMuted.Render("cancelled")
	default:
		return output.StyleError.Render("failed")
	}
}

func took(ms *int64) string {
	if ms == nil {
		return ""
	}
	d := time.Duration(*ms) * time.Millisecond
	if d < time.Second {
		return fmt.Sprintf("%dms", *ms)
	}
	return d.Round(100 * time.Millisecond).String()
}

// details summarizes what a run did, or why it failed.
func details(e store.Entry) string {
	if e.Success != nil && !*e.Success && e.ErrorMessage != workflow.CancelledMessage {
		return clip(e.ErrorMessage, 60)
	}

	var parts []string
	switch e.Command {
	case store.CommandBranchCommit, store.CommandSmartCommit:
		if e.BranchName != "" && e.Command == store.CommandBranchCommit {
			parts = append(parts, e.BranchName)
		}
		if e.CommitMessage != "" {
			parts = append(parts, clip(e.CommitMessage, 50))
		}
	case store.CommandCreatePR:
		if e.PRURL != "" {
			parts = append(parts, e.PRURL)
		}
	case store.CommandPRTodos:
		if e.PRNumber != 0 {
			parts = append(parts, fmt.Sprintf("#%d", e.PRNumber))
		}
		if e.TasksCreated != nil {
			parts = append(parts, fmt.Sprintf("%d tasks", *e.TasksCreated))
		}
	case store.CommandReview:
		if e.IssuesFound != nil {
			parts = append(parts, fmt.Sprintf("%d comments", *e.IssuesFound))
		}
	case store.CommandPRSecurity:
		if e.PRNumber != 0 {
			parts = append(parts, fmt.Sprintf("#%d", e.PRNumber))
		}
		if e.IssuesFound != nil {
			parts = append(parts, fmt.Sprintf("%d findings", *e.IssuesFound))
		}
		for _, sev := range store.Severities {
			if n := e.IssueSeverity[sev]; n > 0 {
				parts = append(parts, fmt.Sprintf("%d %s", n, sev))
				break
			}
		}
	case store.CommandCleanBranches:
		if e.BranchesDeleted != nil {
			parts = append(parts, fmt.Sprintf("%d deleted", *e.BranchesDeleted))
		}
	}
	return strings.Join(parts, ", ")
}

func clip(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n-3]) + "..."
	}
	return s
}
