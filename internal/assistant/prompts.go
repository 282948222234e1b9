package assistant

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"unicode/utf8"
)

// truncatedMarker is appended to diffs cut down to the configured size.
const truncatedMarker = "\n\n... (diff truncated due to size)"

// Truncate caps diff at max bytes without splitting a UTF-8 sequence. A max
// of zero or less disables the cap.
func Truncate(diff string, max int) string {
	if max <= 0 || len(diff) <= max {
		return diff
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(diff[cut]) {
		cut--
	}
	return diff[:cut] + truncatedMarker
}

// PromptData is available to every prompt template.
type PromptData struct {
	Diff    string
	Files   []string
	Branch  string
	Base    string
	Commits []string
	Scope   string
	Type    string
}

const branchCommitTemplate = `Suggest a git branch name and a commit message for the staged changes below.

Files changed:
{{range .Files}}- {{.}}
{{end}}
Diff:
{{.Diff}}

Rules:
- The branch name is short, lowercase and hyphenated, with no prefix such as "feature/".
- The commit message follows the conventional commit format ("feat: ...", "fix: ...").

Respond with exactly two lines and nothing else:
BRANCH: <branch-name>
COMMIT: <commit message>`

const smartCommitTemplate = `Write a conventional commit message for the changes below.

Files changed:
{{range .Files}}- {{.}}
{{end}}
Diff:
{{.Diff}}

Use the form "<type>: <summary>" where type is one of feat, fix, docs, style, refactor, test or chore.
{{- if .Type}}
The type must be "{{.Type}}".
{{- end}}
Keep the summary under 72 characters.

Respond with exactly one line and nothing else:
COMMIT: <commit message>`

const prTemplate = `Write a pull request for branch {{.Branch}} targeting {{.Base}}.

Commits:
{{range .Commits}}- {{.}}
{{end}}
Files changed:
{{range .Files}}- {{.}}
{{end}}
Diff:
{{.Diff}}

The title follows the conventional commit format and stays under 72 characters.
The description has a short summary followed by the key changes as "- " bullets.

Respond in exactly this format:
TITLE: <title>
DESCRIPTION:
<description>`

const reviewTemplate = `Review the following {{.Scope}} changes as an experienced code reviewer.

Diff:
{{.Diff}}

List each problem you find (bugs, unclear code, missing error handling, missing tests) as one line starting with "- ".
If there are no problems, reply "No issues found." and do not use any "- " lines.`

const securityTemplate = `Perform a security review of the following pull request diff.

Diff:
{{.Diff}}

Respond in exactly this format, keeping every section. Under a section with no findings write "- None".

SUMMARY: <one sentence overall assessment>

CRITICAL:
- <finding>

HIGH:
- <finding>

MEDIUM:
- <finding>

LOW:
- <finding>

INFO:
- <finding>`

var templates = template.Must(template.New("prompts").Parse(""))

func init() {
	for name, text := range map[string]string{
		"branch-commit": branchCommitTemplate,
		"smart-commit":  smartCommitTemplate,
		"create-pr":     prTemplate,
		"review":        reviewTemplate,
		"pr-security":   securityTemplate,
	} {
		template.Must(templates.New(name).Parse(text))
	}
}

func render(name string, data PromptData) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// BranchCommitPrompt asks for a BRANCH/COMMIT pair.
func BranchCommitPrompt(diff string, files []string) (string, error) {
	return render("branch-commit", PromptData{Diff: diff, Files: files})
}

// SmartCommitPrompt asks for a single conventional commit message. A
// non-empty commitType pins the conventional commit type.
func SmartCommitPrompt(diff string, files []string, commitType string) (string, error) {
	return render("smart-commit", PromptData{Diff: diff, Files: files, Type: commitType})
}

// PRPrompt asks for a TITLE/DESCRIPTION pair.
func PRPrompt(branch, base string, commits, files []string, diff string) (string, error) {
	return render("create-pr", PromptData{Branch: branch, Base: base, Commits: commits, Files: files, Diff: diff})
}

// ReviewPrompt asks for "- " bulleted review comments on a diff of the
// given scope (staged, unstaged or branch).
func ReviewPrompt(scope, diff string) (string, error) {
	return render("review", PromptData{Scope: scope, Diff: diff})
}

// SecurityPrompt asks for a five-tier security report.
func SecurityPrompt(diff string) (string, error) {
	return render("pr-security", PromptData{Diff: diff})
}
