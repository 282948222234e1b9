// Package shell runs external tools (git, gh, the assistant CLI) on behalf of
// gitpilot. Callers depend on the Executor function type so tests can swap in
// scripted output instead of spawning processes.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Cmd describes one external tool invocation.
type Cmd struct {
	Name  string
	Args  []string
	Stdin string
	Dir   string
}

// String renders the command line for diagnostics.
func (c Cmd) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Executor runs a command and returns its standard output.
type Executor func(ctx context.Context, c Cmd) ([]byte, error)

// Error is returned when an external tool cannot be started or exits non-zero.
type Error struct {
	Cmd      Cmd
	ExitCode int
	Stderr   string
	Err      error
}

func (e *Error) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Cmd.Name, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Run is the default Executor. It waits for the tool to exit; no timeout is
// imposed beyond ctx.
func Run(ctx context.Context, c Cmd) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if c.Stdin != "" {
		cmd.Stdin = strings.NewReader(c.Stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return stdout.Bytes(), &Error{Cmd: c, ExitCode: code, Stderr: stderr.String(), Err: err}
	}
	return stdout.Bytes(), nil
}

// Available reports whether the named binary is on PATH.
func Available(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
