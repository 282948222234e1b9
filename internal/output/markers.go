package output

import (
	"fmt"
	"io"
	"strings"
)

// Printer writes user-facing progress lines. Every workflow step reports
// through one of the marker methods so success and failure lines are
// visually distinct.
type Printer struct {
	w io.Writer
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Writer returns the underlying writer.
func (p *Printer) Writer() io.Writer {
	return p.w
}

// Success prints a completed mutation or check.
func (p *Printer) Success(format string, args ...any) {
	p.mark(StyleSuccess.Render("✓"), format, args...)
}

// Failure prints a one-line failure diagnostic.
func (p *Printer) Failure(format string, args ...any) {
	p.mark(StyleError.Render("✗"), format, args...)
}

// Warn prints a caution the user should read before confirming.
func (p *Printer) Warn(format string, args ...any) {
	p.mark(StyleWarning.Render("!"), format, args...)
}

// Step prints an in-progress step.
func (p *Printer) Step(format string, args ...any) {
	p.mark(StyleMuted.Render("→"), format, args...)
}

// Info prints neutral information.
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintf(p.w, "  %s\n", fmt.Sprintf(format, args...))
}

// Detail prints a labeled value, such as a proposed branch name.
func (p *Printer) Detail(label, value string) {
	fmt.Fprintf(p.w, "  %s %s\n", StyleLabel.Render(label+":"), StyleBold.Render(value))
}

// Bullets prints items as an indented list.
func (p *Printer) Bullets(items []string) {
	for _, item := range items {
		fmt.Fprintf(p.w, "    - %s\n", item)
	}
}

// Block prints multi-line text indented under the previous line.
func (p *Printer) Block(text string) {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		fmt.Fprintf(p.w, "    %s\n", line)
	}
}

// Section prints a styled section header with a horizontal rule.
func (p *Printer) Section(title string) {
	fmt.Fprintln(p.w, Section(title))
}

// Blank prints an empty line.
func (p *Printer) Blank() {
	fmt.Fprintln(p.w)
}

func (p *Printer) mark(marker, format string, args ...any) {
	fmt.Fprintf(p.w, "%s %s\n", marker, fmt.Sprintf(format, args...))
}

// Section returns a styled section header with a horizontal rule.
func Section(title string) string {
	header := StyleHeader.Render(title)
	rule := StyleMuted.Render(strings.Repeat("─", 66))
	return fmt.Sprintf("\n %s\n %s", header, rule)
}

// SeverityStyle returns the heading renderer for a security severity tier.
func SeverityStyle(tier string) func(...string) string {
	switch tier {
	case "critical":
		return StyleError.Render
	case "high":
		return StyleHigh.Render
	case "medium":
		return StyleWarning.Render
	case "low":
		return StyleHeader.Render
	default:
		return StyleMuted.Render
	}
}
