// Package config provides configuration loading and defaults for gitpilot.
package config

// DefaultConfigDir is the default location for gitpilot configuration.
const DefaultConfigDir = "~/.config/gitpilot"

// DefaultDataDir is the default directory holding the activity database,
// the diagnostics log and the local task file.
const DefaultDataDir = "~/.gitpilot"

// DefaultDBName is the filename for the SQLite activity database.
const DefaultDBName = "activity.db"

// DefaultLogName is the filename for the diagnostics log.
const DefaultLogName = "gitpilot.log"

// DefaultConfigFile is the filename for the YAML config.
const DefaultConfigFile = "config.yaml"

// DefaultBranchPrefix is prepended to branch names proposed by the assistant.
const DefaultBranchPrefix = "feature/"

// DefaultBranch is used when the repository's default branch cannot be
// detected from the remote or from local refs.
const DefaultBranch = "main"

// DefaultMaxDiffBytes caps the diff text sent to the assistant.
const DefaultMaxDiffBytes = 50000

// DefaultAssistant holds the default assistant backend settings.
var DefaultAssistant = Assistant{
	Backend:   "cli",
	Command:   "claude",
	Args:      []string{"--print"},
	Model:     "claude-sonnet-4-20250514",
	APIKeyEnv: "ANTHROPIC_API_KEY",
}

// DefaultHost holds the default code-hosting backend settings.
var DefaultHost = Host{
	Backend:  "gh",
	Command:  "gh",
	TokenEnv: "GITHUB_TOKEN",
}

// DefaultTasks holds the default task tracker settings.
var DefaultTasks = Tasks{
	Backend: "file",
	File:    "tasks.yaml",
}

// DefaultCleanBranches leaves remote-tracking refs alone unless asked.
var DefaultCleanBranches = CleanBranches{
	FetchPrune: false,
}

// DefaultLog holds the default diagnostics logging settings.
var DefaultLog = Log{
	Level: "info",
}

// DefaultOutput holds the default output preferences.
var DefaultOutput = Output{
	Color: true,
}

// DefaultActionItemPatterns classify a PR comment as requiring follow-up.
// Matching is case-insensitive.
var DefaultActionItemPatterns = []string{
	`\btodo\b`,
	`\bfixme\b`,
	`\bplease\b`,
	`\bshould\b`,
	`\bmust\b`,
	`\bneeds? to\b`,
	`\bconsider\b`,
	`\bnit\b`,
	`\bcan you\b`,
	`\bcould you\b`,
	`\bwhy\b.*\?`,
	`\bmissing\b`,
	`\bdon'?t forget\b`,
}
