package prompt

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/blackwell-systems/gitpilot/internal/output"
)

// Terminal runs an inline bubbletea program per question.
type Terminal struct {
	in  io.Reader
	out io.Writer
}

// NewTerminal creates a Terminal prompter.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: in, out: out}
}

func (t *Terminal) run(ctx context.Context, m tea.Model) (tea.Model, error) {
	p := tea.NewProgram(m, tea.WithInput(t.in), tea.WithOutput(t.out), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("running prompt: %w", err)
	}
	return final, nil
}

// Confirm asks a yes/no question.
func (t *Terminal) Confirm(ctx context.Context, question string, defaultYes bool) (bool, error) {
	final, err := t.run(ctx, confirmModel{question: question, answer: defaultYes})
	if err != nil {
		return false, err
	}
	m := final.(confirmModel)
	if m.aborted {
		return false, ErrAborted
	}
	return m.answer, nil
}

// Select asks for one option.
func (t *Terminal) Select(ctx context.Context, question string, options []Option) (int, error) {
	if len(options) == 0 {
		return 0, fmt.Errorf("select %q: no options", question)
	}
	final, err := t.run(ctx, selectModel{question: question, options: options})
	if err != nil {
		return 0, err
	}
	m := final.(selectModel)
	if m.aborted {
		return 0, ErrAborted
	}
	return m.cursor, nil
}

// MultiSelect asks for any number of options, starting from the pre-checked
// ones.
func (t *Terminal) MultiSelect(ctx context.Context, question string, options []Option) ([]int, error) {
	final, err := t.run(ctx, newMultiSelectModel(question, options))
	if err != nil {
		return nil, err
	}
	m := final.(multiSelectModel)
	if m.aborted {
		return nil, ErrAborted
	}
	return m.selected(), nil
}

// Input asks for a line of text, pre-filled with initial.
func (t *Terminal) Input(ctx context.Context, question, initial string) (string, error) {
	final, err := t.run(ctx, newInputModel(question, initial))
	if err != nil {
		return "", err
	}
	m := final.(inputModel)
	if m.aborted {
		return "", ErrAborted
	}
	value := strings.TrimSpace(m.input.Value())
	if value == "" {
		return initial, nil
	}
	return value, nil
}

func questionLine(q string) string {
	return output.StyleHeader.Render("?") + " " + output.StyleBold.Render(q)
}

// confirmModel answers y/n; enter keeps the current answer.
type confirmModel struct {
	question string
	answer   bool
	done     bool
	aborted  bool
}

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "y", "Y":
		m.answer, m.done = true, true
	case "n", "N":
		m.answer, m.done = false, true
	case "enter":
		m.done = true
	case "left", "right", "tab":
		m.answer = !m.answer
	case "esc", "ctrl+c":
		m.aborted = true
	default:
		return m, nil
	}
	if m.done || m.aborted {
		return m, tea.Quit
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.done || m.aborted {
		answer := "no"
		if m.answer && !m.aborted {
			answer = "yes"
		}
		return questionLine(m.question) + " " + output.StyleMuted.Render(answer) + "\n"
	}
	hint := "y/N"
	if m.answer {
		hint = "Y/n"
	}
	return questionLine(m.question) + " " + output.StyleMuted.Render("("+hint+")") + "\n"
}

// selectModel moves a cursor over options.
type selectModel struct {
	question string
	options  []Option
	cursor   int
	done     bool
	aborted  bool
}

func (m selectModel) Init() tea.Cmd { return nil }

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
	case "enter":
		m.done = true
		return m, tea.Quit
	case "esc", "ctrl+c", "q":
		m.aborted = true
		return m, tea.Quit
	}
	return m, nil
}

func (m selectModel) View() string {
	var sb strings.Builder
	sb.WriteString(questionLine(m.question))
	if m.done {
		sb.WriteString(" " + output.StyleMuted.Render(m.options[m.cursor].Label) + "\n")
		return sb.String()
	}
	sb.WriteString("\n")
	for i, o := range m.options {
		if i == m.cursor {
			sb.WriteString(output.StyleSuccess.Render("  ❯ "+o.Label) + "\n")
		} else {
			sb.WriteString("    " + o.Label + "\n")
		}
	}
	sb.WriteString(output.StyleMuted.Render("  ↑/↓ move, enter select, esc cancel") + "\n")
	return sb.String()
}

// multiSelectModel toggles options with space.
type multiSelectModel struct {
	question string
	options  []Option
	picked   []bool
	cursor   int
	done     bool
	aborted  bool
}

func newMultiSelectModel(question string, options []Option) multiSelectModel {
	picked := make([]bool, len(options))
	for i, o := range options {
		picked[i] = o.Checked
	}
	return multiSelectModel{question: question, options: options, picked: picked}
}

func (m multiSelectModel) selected() []int {
	idx := []int{}
	for i, p := range m.picked {
		if p {
			idx = append(idx, i)
		}
	}
	return idx
}

func (m multiSelectModel) Init() tea.Cmd { return nil }

func (m multiSelectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
	case " ", "x":
		if len(m.picked) > 0 {
			m.picked[m.cursor] = !m.picked[m.cursor]
		}
	case "a":
		all := len(m.selected()) < len(m.picked)
		for i := range m.picked {
			m.picked[i] = all
		}
	case "enter":
		m.done = true
		return m, tea.Quit
	case "esc", "ctrl+c", "q":
		m.aborted = true
		return m, tea.Quit
	}
	return m, nil
}

func (m multiSelectModel) View() string {
	var sb strings.Builder
	sb.WriteString(questionLine(m.question))
	if m.done {
		sb.WriteString(" " + output.StyleMuted.Render(fmt.Sprintf("%d selected", len(m.selected()))) + "\n")
		return sb.String()
	}
	sb.WriteString("\n")
	for i, o := range m.options {
		box := "[ ]"
		if m.picked[i] {
			box = output.StyleSuccess.Render("[x]")
		}
		cursor := "  "
		if i == m.cursor {
			cursor = "❯ "
		}
		sb.WriteString("  " + cursor + box + " " + o.Label + "\n")
	}
	sb.WriteString(output.StyleMuted.Render("  space toggle, a all/none, enter confirm, esc cancel") + "\n")
	return sb.String()
}

// inputModel wraps a bubbles text input.
type inputModel struct {
	question string
	input    textinput.Model
	done     bool
	aborted  bool
}

func newInputModel(question, initial string) inputModel {
	ti := textinput.New()
	ti.SetValue(initial)
	ti.CharLimit = 200
	ti.Width = 72
	ti.Focus()
	return inputModel{question: question, input: ti}
}

func (m inputModel) Init() tea.Cmd { return textinput.Blink }

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeyEsc, tea.KeyCtrlC:
			m.aborted = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m inputModel) View() string {
	if m.done || m.aborted {
		return questionLine(m.question) + " " + output.StyleMuted.Render(m.input.Value()) + "\n"
	}
	return questionLine(m.question) + "\n  " + m.input.View() + "\n"
}
