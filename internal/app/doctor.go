package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/gitpilot/internal/config"
	"github.com/blackwell-systems/gitpilot/internal/git"
	"github.com/blackwell-systems/gitpilot/internal/output"
	"github.com/blackwell-systems/gitpilot/internal/shell"
	"github.com/blackwell-systems/gitpilot/internal/store"
	"github.com/blackwell-systems/gitpilot/internal/tasks"
)

var doctorJSON bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check whether the gitpilot setup is healthy",
	Long: `Run a series of health checks against the tools gitpilot drives and its
local data. Prints a pass/fail line for each check and a summary of how
many checks passed.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(doctorCmd)
}

// doctorCheck holds the result of a single health check.
type doctorCheck struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// doctorOutput is the JSON-serializable result of the doctor command.
type doctorOutput struct {
	Checks      []doctorCheck `json:"checks"`
	PassedCount int           `json:"passed"`
	TotalCount  int           `json:"total"`
}

// doctorEnv is what the checks inspect.
type doctorEnv struct {
	cfg        *config.Config
	configFile string
	available  func(name string) bool
	exec       shell.Executor
	getenv     func(string) string
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	checks := runChecks(cmd.Context(), doctorEnv{
		cfg:        cfg,
		configFile: config.Path(flagConfig),
		available:  shell.Available,
		exec:       shell.Run,
		getenv:     os.Getenv,
	})

	passed := 0
	for _, c := range checks {
		if c.Passed {
			passed++
		}
	}

	w := cmd.OutOrStdout()
	if doctorJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doctorOutput{Checks: checks, PassedCount: passed, TotalCount: len(checks)})
	}

	fmt.Fprintln(w, output.Section("Doctor"))
	fmt.Fprintln(w)
	for _, c := range checks {
		renderDoctorCheck(w, c)
	}
	fmt.Fprintln(w)
	summary := fmt.Sprintf("%d/%d checks passed", passed, len(checks))
	if passed == len(checks) {
		fmt.Fprintf(w, " %s\n\n", output.StyleSuccess.Render(summary))
	} else {
		fmt.Fprintf(w, " %s\n\n", output.StyleWarning.Render(summary))
	}
	return nil
}

func runChecks(ctx context.Context, d doctorEnv) []doctorCheck {
	checks := []doctorCheck{
		checkConfigFile(d),
		checkBinary(d, "git", "git"),
		checkRepository(ctx, d),
	}

	switch d.cfg.Host.Backend {
	case "api":
		checks = append(checks, checkEnv(d, "GitHub token", d.cfg.Host.TokenEnv))
	default:
		checks = append(checks, checkBinary(d, "GitHub CLI", orDefault(d.cfg.Host.Command, "gh")))
	}

	switch d.cfg.Assistant.Backend {
	case "api":
		checks = append(checks, checkEnv(d, "Assistant API key", d.cfg.Assistant.APIKeyEnv))
	default:
		checks = append(checks, checkBinary(d, "Assistant CLI", orDefault(d.cfg.Assistant.Command, config.DefaultAssistant.Command)))
	}

	checks = append(checks, checkTasks(d), checkDatabase(ctx, d.cfg))
	return checks
}

// renderDoctorCheck prints a single check result line.
func renderDoctorCheck(w io.Writer, c doctorCheck) {
	var indicator string
	if c.Passed {
		indicator = output.StyleSuccess.Render("✓")
	} else {
		indicator = output.StyleWarning.Render("✗")
	}
	label := output.StyleBold.Render(c.Name)
	detail := output.StyleMuted.Render(c.Message)
	fmt.Fprintf(w, "  %s  %-30s %s\n", indicator, label, detail)
}

// checkConfigFile passes either way: a missing file means defaults apply.
func checkConfigFile(d doctorEnv) doctorCheck {
	if _, err := os.Stat(d.configFile); err != nil {
		return doctorCheck{Name: "Config file", Passed: true, Message: fmt.Sprintf("%s not found, using defaults", d.configFile)}
	}
	return doctorCheck{Name: "Config file", Passed: true, Message: d.configFile}
}

func checkBinary(d doctorEnv, name, binary string) doctorCheck {
	if !d.available(binary) {
		return doctorCheck{Name: name, Message: fmt.Sprintf("%s not found on PATH", binary)}
	}
	return doctorCheck{Name: name, Passed: true, Message: binary}
}

func checkRepository(ctx context.Context, d doctorEnv) doctorCheck {
	if !git.New(d.exec, "").IsRepository(ctx) {
		return doctorCheck{Name: "Git repository", Message: "current directory is not inside a git repository"}
	}
	return doctorCheck{Name: "Git repository", Passed: true, Message: "inside a work tree"}
}

func checkEnv(d doctorEnv, name, key string) doctorCheck {
	val := d.getenv(key)
	if val == "" {
		return doctorCheck{Name: name, Message: fmt.Sprintf("%s is not set", key)}
	}
	masked := val[:min(8, len(val))] + "..."
	return doctorCheck{Name: name, Passed: true, Message: fmt.Sprintf("%s set (%s)", key, masked)}
}

func checkTasks(d doctorEnv) doctorCheck {
	tracker, err := tasks.New(d.cfg.Tasks, d.exec)
	if err != nil {
		return doctorCheck{Name: "Task tracker", Message: err.Error()}
	}
	f, ok := tracker.(*tasks.File)
	if !ok {
		return checkBinary(d, "Task tracker", d.cfg.Tasks.Command)
	}
	entries, err := f.List()
	if err != nil {
		return doctorCheck{Name: "Task tracker", Message: err.Error()}
	}
	return doctorCheck{Name: "Task tracker", Passed: true, Message: fmt.Sprintf("%s (%s)", d.cfg.Tasks.File, plural(len(entries), "task"))}
}

// checkDatabase creates the schema if needed, which also proves the data
// directory is writable.
func checkDatabase(ctx context.Context, cfg *config.Config) doctorCheck {
	st, err := store.Open(cfg.DBPath(), nil)
	if err != nil {
		return doctorCheck{Name: "Activity database", Message: err.Error()}
	}
	defer func() { _ = st.Close() }()

	if err := st.EnsureSchema(ctx); err != nil {
		return doctorCheck{Name: "Activity database", Message: err.Error()}
	}
	return doctorCheck{Name: "Activity database", Passed: true, Message: cfg.DBPath()}
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
