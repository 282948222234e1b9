package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/blackwell-systems/gitpilot/internal/repo"
)

// activityRow mirrors the activity_log columns.
type activityRow struct {
	ID               int64          `db:"id"`
	Timestamp        string         `db:"timestamp"`
	Command          string         `db:"command"`
	RepoName         sql.NullString `db:"repo_name"`
	RepoRemote       sql.NullString `db:"repo_remote"`
	Branch           sql.NullString `db:"branch"`
	WorkingDirectory string         `db:"working_directory"`
	Success          sql.NullBool   `db:"success"`
	ErrorMessage     sql.NullString `db:"error_message"`
	DurationMs       sql.NullInt64  `db:"duration_ms"`
	PRNumber         sql.NullInt64  `db:"pr_number"`
	CommitMessage    sql.NullString `db:"commit_message"`
	BranchName       sql.NullString `db:"branch_name"`
	CommitHash       sql.NullString `db:"commit_hash"`
	PRURL            sql.NullString `db:"pr_url"`
	PRTitle          sql.NullString `db:"pr_title"`
	PRAuthor         sql.NullString `db:"pr_author"`
	FilesChanged     sql.NullInt64  `db:"files_changed"`
	IssuesFound      sql.NullInt64  `db:"issues_found"`
	IssueSeverity    sql.NullString `db:"issue_severity"`
	TasksCreated     sql.NullInt64  `db:"tasks_created"`
	BranchesDeleted  sql.NullInt64  `db:"branches_deleted"`
	UserInput        sql.NullString `db:"user_input"`
	Metadata         sql.NullString `db:"metadata"`
}

const insertActivity = `
	INSERT INTO activity_log (
		command, repo_name, repo_remote, branch, working_directory,
		success, error_message, duration_ms,
		pr_number, commit_message, branch_name, commit_hash, pr_url, pr_title, pr_author,
		files_changed, issues_found, issue_severity, tasks_created, branches_deleted,
		user_input, metadata
	) VALUES (
		:command, :repo_name, :repo_remote, :branch, :working_directory,
		:success, :error_message, :duration_ms,
		:pr_number, :commit_message, :branch_name, :commit_hash, :pr_url, :pr_title, :pr_author,
		:files_changed, :issues_found, :issue_severity, :tasks_created, :branches_deleted,
		:user_input, :metadata
	)`

const selectActivity = `
	SELECT id, timestamp, command, repo_name, repo_remote, branch, working_directory,
		success, error_message, duration_ms,
		pr_number, commit_message, branch_name, commit_hash, pr_url, pr_title, pr_author,
		files_changed, issues_found, issue_severity, tasks_created, branches_deleted,
		user_input, metadata
	FROM activity_log`

// Record persists one activity entry and returns its id. It ensures the
// schema exists, resolves the repository context and inserts a single row;
// the insert is atomic with respect to concurrent writers. All failures are
// returned as *WriteError.
func (s *Store) Record(ctx context.Context, e Entry) (int64, error) {
	if e.Command == "" {
		return 0, &WriteError{Op: "validate", Err: fmt.Errorf("command is required")}
	}
	if !e.Command.Valid() {
		return 0, &WriteError{Op: "validate", Err: fmt.Errorf("unknown command %q", e.Command)}
	}

	if err := s.EnsureSchema(ctx); err != nil {
		return 0, &WriteError{Op: "schema", Err: err}
	}

	row, err := toRow(s.resolver.Resolve(ctx), e)
	if err != nil {
		return 0, &WriteError{Op: "encode", Err: err}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, &WriteError{Op: "begin", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.NamedExecContext(ctx, insertActivity, row)
	if err != nil {
		return 0, &WriteError{Op: "insert", Err: err}
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, &WriteError{Op: "insert", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return 0, &WriteError{Op: "commit", Err: err}
	}
	return id, nil
}

// List returns records matching f, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]Record, error) {
	if err := s.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	query := selectActivity
	var conditions []string
	var args []any

	if f.Command != "" {
		conditions = append(conditions, "command = ?")
		args = append(args, string(f.Command))
	}
	if f.RepoName != "" {
		conditions = append(conditions, "repo_name = ?")
		args = append(args, f.RepoName)
	}
	if f.Success != nil {
		conditions = append(conditions, "success = ?")
		args = append(args, *f.Success)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	var rows []activityRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}

	records := make([]Record, 0, len(rows))
	for _, r := range rows {
		rec, err := fromRow(r)
		if err != nil {
			return nil, fmt.Errorf("decoding activity %d: %w", r.ID, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func toRow(rc repo.Context, e Entry) (activityRow, error) {
	row := activityRow{
		Command:          string(e.Command),
		RepoName:         nullString(rc.RepoName),
		RepoRemote:       nullString(rc.RepoRemote),
		Branch:           nullString(rc.Branch),
		WorkingDirectory: rc.WorkingDirectory,
		ErrorMessage:     nullString(e.ErrorMessage),
		CommitMessage:    nullString(e.CommitMessage),
		BranchName:       nullString(e.BranchName),
		CommitHash:       nullString(e.CommitHash),
		PRURL:            nullString(e.PRURL),
		PRTitle:          nullString(e.PRTitle),
		PRAuthor:         nullString(e.PRAuthor),
		FilesChanged:     nullInt(e.FilesChanged),
		IssuesFound:      nullInt(e.IssuesFound),
		TasksCreated:     nullInt(e.TasksCreated),
		BranchesDeleted:  nullInt(e.BranchesDeleted),
	}

	if e.Success != nil {
		row.Success = sql.NullBool{Bool: *e.Success, Valid: true}
	}
	if e.DurationMs != nil {
		row.DurationMs = sql.NullInt64{Int64: *e.DurationMs, Valid: true}
	}
	if e.PRNumber > 0 {
		row.PRNumber = sql.NullInt64{Int64: int64(e.PRNumber), Valid: true}
	}

	var err error
	if e.IssueSeverity != nil {
		if row.IssueSeverity, err = encodeJSON(e.IssueSeverity); err != nil {
			return row, fmt.Errorf("issue_severity: %w", err)
		}
	}
	if e.UserInput != nil {
		if row.UserInput, err = encodeJSON(e.UserInput); err != nil {
			return row, fmt.Errorf("user_input: %w", err)
		}
	}
	if e.Metadata != nil {
		if row.Metadata, err = encodeJSON(e.Metadata); err != nil {
			return row, fmt.Errorf("metadata: %w", err)
		}
	}

	return row, nil
}

func fromRow(r activityRow) (Record, error) {
	rec := Record{
		ID: r.ID,
		Context: repo.Context{
			RepoName:         r.RepoName.String,
			RepoRemote:       r.RepoRemote.String,
			Branch:           r.Branch.String,
			WorkingDirectory: r.WorkingDirectory,
		},
		Entry: Entry{
			Command:         Command(r.Command),
			ErrorMessage:    r.ErrorMessage.String,
			PRNumber:        int(r.PRNumber.Int64),
			CommitMessage:   r.CommitMessage.String,
			BranchName:      r.BranchName.String,
			CommitHash:      r.CommitHash.String,
			PRURL:           r.PRURL.String,
			PRTitle:         r.PRTitle.String,
			PRAuthor:        r.PRAuthor.String,
			FilesChanged:    intPtr(r.FilesChanged),
			IssuesFound:     intPtr(r.IssuesFound),
			TasksCreated:    intPtr(r.TasksCreated),
			BranchesDeleted: intPtr(r.BranchesDeleted),
		},
	}

	if t, err := time.Parse(time.RFC3339Nano, r.Timestamp); err == nil {
		rec.Timestamp = t
	}
	if r.Success.Valid {
		rec.Success = Bool(r.Success.Bool)
	}
	if r.DurationMs.Valid {
		rec.DurationMs = Int64(r.DurationMs.Int64)
	}

	if r.IssueSeverity.Valid {
		if err := json.Unmarshal([]byte(r.IssueSeverity.String), &rec.IssueSeverity); err != nil {
			return rec, err
		}
	}
	if r.UserInput.Valid {
		if err := json.Unmarshal([]byte(r.UserInput.String), &rec.UserInput); err != nil {
			return rec, err
		}
	}
	if r.Metadata.Valid {
		if err := json.Unmarshal([]byte(r.Metadata.String), &rec.Metadata); err != nil {
			return rec, err
		}
	}

	return rec, nil
}

func encodeJSON(v any) (sql.NullString, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	return Int(int(n.Int64))
}
