// Package tasks hands action items to a task tracker. The file backend keeps
// a local YAML task list; the command backend shells out to any tracker CLI.
package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/blackwell-systems/gitpilot/internal/config"
	"github.com/blackwell-systems/gitpilot/internal/shell"
)

// Task is one item to create in the tracker.
type Task struct {
	Title       string
	Description string
	Project     string
}

// Tracker creates tasks and returns the tracker's id for each.
type Tracker interface {
	Create(ctx context.Context, t Task) (string, error)
}

// New builds the Tracker selected by cfg.Backend.
func New(cfg config.Tasks, exec shell.Executor) (Tracker, error) {
	switch cfg.Backend {
	case "", "file":
		if cfg.File == "" {
			return nil, fmt.Errorf("tasks backend file needs tasks.file")
		}
		return NewFile(cfg.File), nil
	case "command":
		if cfg.Command == "" {
			return nil, fmt.Errorf("tasks backend command needs tasks.command")
		}
		return NewCommand(exec, cfg.Command, cfg.Args), nil
	default:
		return nil, fmt.Errorf("unknown tasks backend %q (want file or command)", cfg.Backend)
	}
}

// Entry is a task as stored in the YAML task list.
type Entry struct {
	ID          string    `yaml:"id"`
	Title       string    `yaml:"title"`
	Description string    `yaml:"description,omitempty"`
	Project     string    `yaml:"project,omitempty"`
	Status      string    `yaml:"status"`
	CreatedAt   time.Time `yaml:"created_at"`
}

type document struct {
	Tasks []Entry `yaml:"tasks"`
}

// File appends tasks to a YAML document on disk.
type File struct {
	path string
	now  func() time.Time
}

// NewFile creates a File tracker writing to path.
func NewFile(path string) *File {
	return &File{path: path, now: time.Now}
}

// Create appends t with a fresh id and status "open".
func (f *File) Create(_ context.Context, t Task) (string, error) {
	doc, err := f.read()
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	doc.Tasks = append(doc.Tasks, Entry{
		ID:          id,
		Title:       t.Title,
		Description: t.Description,
		Project:     t.Project,
		Status:      "open",
		CreatedAt:   f.now().UTC(),
	})

	if err := f.write(doc); err != nil {
		return "", err
	}
	return id, nil
}

// List returns every stored task, oldest first.
func (f *File) List() ([]Entry, error) {
	doc, err := f.read()
	if err != nil {
		return nil, err
	}
	return doc.Tasks, nil
}

func (f *File) read() (document, error) {
	var doc document
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("reading task file: %w", err)
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("parsing task file %s: %w", f.path, err)
	}
	return doc, nil
}

// write replaces the task file through a temp file and rename.
func (f *File) write(doc document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding task file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("creating task directory: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing task file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("writing task file: %w", err)
	}
	return nil
}

// Command runs an external tracker CLI once per task. The placeholders
// {title}, {description} and {project} in args are replaced with the task
// fields; the trimmed first line of output is taken as the task id.
type Command struct {
	exec    shell.Executor
	command string
	args    []string
}

// NewCommand creates a Command tracker.
func NewCommand(exec shell.Executor, command string, args []string) *Command {
	if exec == nil {
		exec = shell.Run
	}
	return &Command{exec: exec, command: command, args: args}
}

// Create runs the tracker command for t.
func (c *Command) Create(ctx context.Context, t Task) (string, error) {
	r := strings.NewReplacer(
		"{title}", t.Title,
		"{description}", t.Description,
		"{project}", t.Project,
	)
	args := make([]string, len(c.args))
	for i, a := range c.args {
		args[i] = r.Replace(a)
	}

	out, err := c.exec(ctx, shell.Cmd{Name: c.command, Args: args})
	if err != nil {
		return "", fmt.Errorf("creating task %q: %w", t.Title, err)
	}
	id, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(id), nil
}

// Unavailable stands in for a tracker whose backend could not be
// configured. Every Create returns Err.
type Unavailable struct {
	Err error
}

// Create returns the configuration error.
func (u Unavailable) Create(context.Context, Task) (string, error) {
	return "", u.Err
}
