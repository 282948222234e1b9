// Package prompt asks the user questions: confirmations, single and multiple
// choice, and free text. On a terminal it runs small bubbletea programs;
// otherwise it reads answers line by line.
package prompt

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// ErrAborted is returned when the user escapes out of a prompt or input ends.
var ErrAborted = errors.New("prompt aborted")

// Option is one choice in a Select or MultiSelect prompt.
type Option struct {
	Label string
	// Checked pre-selects the option in a MultiSelect.
	Checked bool
}

// Prompter asks the user questions.
type Prompter interface {
	Confirm(ctx context.Context, question string, defaultYes bool) (bool, error)
	// Select returns the index of the chosen option.
	Select(ctx context.Context, question string, options []Option) (int, error)
	// MultiSelect returns the indexes of the chosen options in order.
	MultiSelect(ctx context.Context, question string, options []Option) ([]int, error)
	// Input returns a line of text, or initial when the user submits nothing.
	Input(ctx context.Context, question, initial string) (string, error)
}

// New returns a terminal Prompter when in is a TTY and a line-reading one
// otherwise. With assumeYes, confirmations are answered yes without asking;
// selections and input are still asked.
func New(in *os.File, out io.Writer, assumeYes bool) Prompter {
	var p Prompter
	if isatty.IsTerminal(in.Fd()) || isatty.IsCygwinTerminal(in.Fd()) {
		p = NewTerminal(in, out)
	} else {
		p = NewLines(in, out)
	}
	if assumeYes {
		p = AssumeYes{Prompter: p}
	}
	return p
}

// AssumeYes answers every confirmation with yes.
type AssumeYes struct {
	Prompter
}

// Confirm returns true without prompting.
func (AssumeYes) Confirm(context.Context, string, bool) (bool, error) {
	return true, nil
}

// checked returns the indexes of pre-checked options.
func checked(options []Option) []int {
	idx := []int{}
	for i, o := range options {
		if o.Checked {
			idx = append(idx, i)
		}
	}
	return idx
}
