// Package store provides the SQLite activity log that gitpilot writes one row
// to per command invocation.
package store

import (
	"time"

	"github.com/blackwell-systems/gitpilot/internal/repo"
)

// Command names a workflow.
type Command string

// The fixed set of workflows that write activity records.
const (
	CommandBranchCommit  Command = "branch-commit"
	CommandSmartCommit   Command = "smart-commit"
	CommandPRTodos       Command = "pr-todos"
	CommandCreatePR      Command = "create-pr"
	CommandReview        Command = "review"
	CommandPRSecurity    Command = "pr-security"
	CommandCleanBranches Command = "clean-branches"
)

// Commands lists every workflow in menu order.
var Commands = []Command{
	CommandBranchCommit,
	CommandSmartCommit,
	CommandPRTodos,
	CommandCreatePR,
	CommandReview,
	CommandPRSecurity,
	CommandCleanBranches,
}

// Valid reports whether c is one of the known workflows.
func (c Command) Valid() bool {
	for _, known := range Commands {
		if c == known {
			return true
		}
	}
	return false
}

// Severity is a security-review finding tier.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Severities lists the tiers from most to least severe.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo}

// Fields is an open, JSON-like mapping. Values are limited to what
// encoding/json produces: nil, bool, float64/int, string, []any and
// map[string]any.
type Fields map[string]any

// Entry is the outcome of one workflow invocation as reported by the
// workflow. Empty strings and nil pointers mean "not set" and are stored
// as NULL.
type Entry struct {
	Command      Command `json:"command"`
	Success      *bool   `json:"success,omitempty"`
	ErrorMessage string  `json:"error_message,omitempty"`
	DurationMs   *int64  `json:"duration_ms,omitempty"`

	// Command-specific identifiers.
	PRNumber      int    `json:"pr_number,omitempty"`
	CommitMessage string `json:"commit_message,omitempty"`
	BranchName    string `json:"branch_name,omitempty"`
	CommitHash    string `json:"commit_hash,omitempty"`
	PRURL         string `json:"pr_url,omitempty"`
	PRTitle       string `json:"pr_title,omitempty"`
	PRAuthor      string `json:"pr_author,omitempty"`

	// Outcome summaries.
	FilesChanged    *int             `json:"files_changed,omitempty"`
	IssuesFound     *int             `json:"issues_found,omitempty"`
	IssueSeverity   map[Severity]int `json:"issue_severity,omitempty"`
	TasksCreated    *int             `json:"tasks_created,omitempty"`
	BranchesDeleted *int             `json:"branches_deleted,omitempty"`

	UserInput Fields `json:"user_input,omitempty"`
	Metadata  Fields `json:"metadata,omitempty"`
}

// SetUserInput records a key in UserInput, allocating the map on first use.
func (e *Entry) SetUserInput(key string, value any) {
	if e.UserInput == nil {
		e.UserInput = Fields{}
	}
	e.UserInput[key] = value
}

// SetMetadata records a key in Metadata, allocating the map on first use.
func (e *Entry) SetMetadata(key string, value any) {
	if e.Metadata == nil {
		e.Metadata = Fields{}
	}
	e.Metadata[key] = value
}

// Record is a persisted activity row.
type Record struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	repo.Context
	Entry
}

// Filter narrows List results. Zero values mean "no filter".
type Filter struct {
	Command  Command
	RepoName string
	Success  *bool
	Limit    int
}

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

// Int returns a pointer to n.
func Int(n int) *int { return &n }

// Int64 returns a pointer to n.
func Int64(n int64) *int64 { return &n }
