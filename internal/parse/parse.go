// Package parse extracts labeled sections from assistant replies.
//
// Replies follow a small fixed grammar: a label line ("TITLE: ...",
// "CRITICAL:") followed by a body that runs until a blank line, the next
// known label, or the end of input. BranchAndCommit and PRDescription need
// every label and fail with *Error when one is missing; ReviewComments and
// SecurityReview degrade to empty results instead.
package parse

import (
	"fmt"
	"strings"
)

// Error reports a reply that lacks a required label.
type Error struct {
	Label string
	Input string
}

func (e *Error) Error() string {
	return fmt.Sprintf("assistant reply has no %s section (reply was: %.200q)", e.Label, e.Input)
}

// BranchCommit is the reply to a branch-and-commit request.
type BranchCommit struct {
	BranchName    string
	CommitMessage string
}

// PullRequest is the reply to a pull request description request.
type PullRequest struct {
	Title       string
	Description string
}

// SecurityReport is the reply to a security review request.
type SecurityReport struct {
	Summary  string
	Critical []string
	High     []string
	Medium   []string
	Low      []string
	Info     []string
}

// Total returns the number of findings across all tiers.
func (r SecurityReport) Total() int {
	return len(r.Critical) + len(r.High) + len(r.Medium) + len(r.Low) + len(r.Info)
}

// DefaultSummary is used when a security review reply has no SUMMARY line.
const DefaultSummary = "Security review completed."

const (
	labelBranch      = "BRANCH:"
	labelCommit      = "COMMIT:"
	labelTitle       = "TITLE:"
	labelDescription = "DESCRIPTION:"
	labelSummary     = "SUMMARY:"
	labelCritical    = "CRITICAL:"
	labelHigh        = "HIGH:"
	labelMedium      = "MEDIUM:"
	labelLow         = "LOW:"
	labelInfo        = "INFO:"

	bulletPrefix = "- "
	noneSentinel = "none"
)

// securityLabels terminate each other's sections.
var securityLabels = []string{labelSummary, labelCritical, labelHigh, labelMedium, labelLow, labelInfo}

// BranchAndCommit reads the first "BRANCH:" and "COMMIT:" lines.
func BranchAndCommit(text string) (BranchCommit, error) {
	s := newScanner(text)

	branch, ok := s.value(labelBranch)
	if !ok {
		return BranchCommit{}, &Error{Label: "BRANCH", Input: text}
	}
	commit, ok := s.value(labelCommit)
	if !ok {
		return BranchCommit{}, &Error{Label: "COMMIT", Input: text}
	}
	return BranchCommit{BranchName: branch, CommitMessage: commit}, nil
}

// CommitMessage reads the first "COMMIT:" line.
func CommitMessage(text string) (string, error) {
	commit, ok := newScanner(text).value(labelCommit)
	if !ok {
		return "", &Error{Label: "COMMIT", Input: text}
	}
	return commit, nil
}

// PRDescription reads the first "TITLE:" line and everything after the
// first "DESCRIPTION:" label up to end of input.
func PRDescription(text string) (PullRequest, error) {
	s := newScanner(text)

	title, ok := s.value(labelTitle)
	if !ok {
		return PullRequest{}, &Error{Label: "TITLE", Input: text}
	}
	desc, ok := s.rest(labelDescription)
	if !ok {
		return PullRequest{}, &Error{Label: "DESCRIPTION", Input: text}
	}
	return PullRequest{Title: title, Description: desc}, nil
}

// ReviewComments returns every "- " bullet in order with the prefix
// stripped. No bullets is a valid, empty result.
func ReviewComments(text string) []string {
	comments := []string{}
	for _, line := range newScanner(text).lines {
		if item, ok := bullet(line); ok {
			comments = append(comments, item)
		}
	}
	return comments
}

// SecurityReview reads the SUMMARY line and the five severity sections.
// It never fails: missing sections are empty and a missing summary becomes
// DefaultSummary. Bullets reading "None" (any case) are dropped.
func SecurityReview(text string) SecurityReport {
	s := newScanner(text)

	report := SecurityReport{Summary: DefaultSummary}
	if summary, ok := s.value(labelSummary); ok {
		report.Summary = summary
	}

	report.Critical = s.section(labelCritical)
	report.High = s.section(labelHigh)
	report.Medium = s.section(labelMedium)
	report.Low = s.section(labelLow)
	report.Info = s.section(labelInfo)
	return report
}

// scanner walks the reply line by line.
type scanner struct {
	lines []string
}

func newScanner(text string) *scanner {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return &scanner{lines: strings.Split(text, "\n")}
}

// find returns the index of the first line starting with label (after
// leading whitespace) and the text following the label.
func (s *scanner) find(label string) (int, string, bool) {
	for i, line := range s.lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, label) {
			return i, strings.TrimSpace(trimmed[len(label):]), true
		}
	}
	return -1, "", false
}

// value returns the non-empty text on the first label line.
func (s *scanner) value(label string) (string, bool) {
	_, v, ok := s.find(label)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// rest returns the text after the label through end of input.
func (s *scanner) rest(label string) (string, bool) {
	i, first, ok := s.find(label)
	if !ok {
		return "", false
	}
	body := strings.TrimSpace(first + "\n" + strings.Join(s.lines[i+1:], "\n"))
	if body == "" {
		return "", false
	}
	return body, true
}

// section collects bullets under label until a blank line, another
// security label, or end of input. Blank lines directly after the label
// are skipped.
func (s *scanner) section(label string) []string {
	items := []string{}

	i, inline, ok := s.find(label)
	if !ok {
		return items
	}
	add := func(line string) {
		if item, ok := bullet(line); ok && !strings.EqualFold(item, noneSentinel) {
			items = append(items, item)
		}
	}
	add(inline)

	started := inline != ""
	for _, line := range s.lines[i+1:] {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if started {
				break
			}
			continue
		}
		if isSecurityLabel(trimmed) {
			break
		}
		started = true
		add(trimmed)
	}
	return items
}

func isSecurityLabel(line string) bool {
	for _, l := range securityLabels {
		if strings.HasPrefix(line, l) {
			return true
		}
	}
	return false
}

// bullet strips the "- " prefix from a trimmed line.
func bullet(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, bulletPrefix) {
		return "", false
	}
	item := strings.TrimSpace(trimmed[len(bulletPrefix):])
	if item == "" {
		return "", false
	}
	return item, true
}
