package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

const maxAttempts = 3

// Lines reads answers one line at a time. It serves pipes, scripts and
// terminals where a full-screen program is not wanted.
type Lines struct {
	r *bufio.Reader
	w io.Writer
}

// NewLines creates a line-based Prompter.
func NewLines(in io.Reader, out io.Writer) *Lines {
	return &Lines{r: bufio.NewReader(in), w: out}
}

func (l *Lines) readLine() (string, error) {
	line, err := l.r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", ErrAborted
	}
	return strings.TrimSpace(line), nil
}

// Confirm asks a yes/no question. An empty answer takes the default.
func (l *Lines) Confirm(_ context.Context, question string, defaultYes bool) (bool, error) {
	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		fmt.Fprintf(l.w, "? %s %s ", question, hint)
		answer, err := l.readLine()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "":
			return defaultYes, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(l.w, "  please answer y or n")
	}
	return false, ErrAborted
}

// Select lists numbered options and reads one number. An empty answer picks
// the first option.
func (l *Lines) Select(_ context.Context, question string, options []Option) (int, error) {
	if len(options) == 0 {
		return 0, fmt.Errorf("select %q: no options", question)
	}
	fmt.Fprintf(l.w, "? %s\n", question)
	for i, o := range options {
		fmt.Fprintf(l.w, "  %d) %s\n", i+1, o.Label)
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		fmt.Fprintf(l.w, "  choice [1-%d]: ", len(options))
		answer, err := l.readLine()
		if err != nil {
			return 0, err
		}
		if answer == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		fmt.Fprintf(l.w, "  enter a number between 1 and %d\n", len(options))
	}
	return 0, ErrAborted
}

// MultiSelect lists numbered options with their pre-checked state. The
// answer is a list of numbers separated by commas or spaces, "all", "none",
// or empty to keep the pre-checked selection.
func (l *Lines) MultiSelect(_ context.Context, question string, options []Option) ([]int, error) {
	fmt.Fprintf(l.w, "? %s\n", question)
	for i, o := range options {
		mark := " "
		if o.Checked {
			mark = "x"
		}
		fmt.Fprintf(l.w, "  [%s] %d) %s\n", mark, i+1, o.Label)
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		fmt.Fprint(l.w, "  numbers, all, none, or enter to keep: ")
		answer, err := l.readLine()
		if err != nil {
			return nil, err
		}
		if idx, ok := parseSelection(answer, options); ok {
			return idx, nil
		}
		fmt.Fprintf(l.w, "  enter numbers between 1 and %d\n", len(options))
	}
	return nil, ErrAborted
}

func parseSelection(answer string, options []Option) ([]int, bool) {
	switch strings.ToLower(answer) {
	case "":
		return checked(options), true
	case "none":
		return []int{}, true
	case "all":
		idx := make([]int, len(options))
		for i := range options {
			idx[i] = i
		}
		return idx, true
	}

	seen := map[int]bool{}
	idx := []int{}
	for _, field := range strings.FieldsFunc(answer, func(r rune) bool { return r == ',' || r == ' ' }) {
		n, err := strconv.Atoi(field)
		if err != nil || n < 1 || n > len(options) {
			return nil, false
		}
		if !seen[n-1] {
			seen[n-1] = true
			idx = append(idx, n-1)
		}
	}
	sort.Ints(idx)
	return idx, true
}

// Input reads one line of text.
func (l *Lines) Input(_ context.Context, question, initial string) (string, error) {
	if initial != "" {
		fmt.Fprintf(l.w, "? %s [%s]: ", question, initial)
	} else {
		fmt.Fprintf(l.w, "? %s: ", question)
	}
	answer, err := l.readLine()
	if err != nil {
		return "", err
	}
	if answer == "" {
		return initial, nil
	}
	return answer, nil
}
