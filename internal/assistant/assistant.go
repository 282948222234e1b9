// Package assistant sends single prompts to an AI model and returns the text
// reply. There is no session state: every Ask is independent.
package assistant

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/blackwell-systems/gitpilot/internal/config"
	"github.com/blackwell-systems/gitpilot/internal/shell"
)

// Assistant answers one prompt with one reply.
type Assistant interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

// New builds the Assistant selected by cfg.Backend.
func New(cfg config.Assistant, exec shell.Executor) (Assistant, error) {
	switch cfg.Backend {
	case "", "cli":
		return NewCLI(exec, cfg.Command, cfg.Args), nil
	case "api":
		key := os.Getenv(cfg.APIKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("assistant backend api needs a key in $%s", cfg.APIKeyEnv)
		}
		return NewAPI(key, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown assistant backend %q (want cli or api)", cfg.Backend)
	}
}

// CLI runs an assistant command line tool in one-shot mode, writing the
// prompt to its stdin and reading the reply from stdout.
type CLI struct {
	exec    shell.Executor
	command string
	args    []string
}

// NewCLI creates a CLI assistant. An empty command means "claude --print".
func NewCLI(exec shell.Executor, command string, args []string) *CLI {
	if exec == nil {
		exec = shell.Run
	}
	if command == "" {
		command = config.DefaultAssistant.Command
		if args == nil {
			args = config.DefaultAssistant.Args
		}
	}
	return &CLI{exec: exec, command: command, args: args}
}

// Ask runs the tool and returns its trimmed output.
func (c *CLI) Ask(ctx context.Context, prompt string) (string, error) {
	out, err := c.exec(ctx, shell.Cmd{Name: c.command, Args: c.args, Stdin: prompt})
	if err != nil {
		return "", fmt.Errorf("%s command failed: %w", c.command, err)
	}
	reply := strings.TrimSpace(string(out))
	if reply == "" {
		return "", fmt.Errorf("%s returned an empty reply", c.command)
	}
	return reply, nil
}

// Unavailable stands in for an assistant whose backend could not be
// configured. Every Ask returns Err.
type Unavailable struct {
	Err error
}

// Ask returns the configuration error.
func (u Unavailable) Ask(context.Context, string) (string, error) {
	return "", u.Err
}
