// Package prompt renders prompt templates and extracts structured values
// from model replies.
package prompt

import (
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"github.com/nkovalenko/tutorchat/internal/storage"
)

// Dialogue turn labels used when flattening a conversation into a prompt.
const (
	studentLabel = "Student"
	tutorLabel   = "Tutor"
)

// Render executes a template against the given variables. Template text
// uses standard {{.name}} syntax; missing variables render as empty.
func Render(text string, vars map[string]string) (string, error) {
	tmpl, err := template.New("prompt").Option("missingkey=zero").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parsing prompt template: %w", err)
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, vars); err != nil {
		return "", fmt.Errorf("rendering prompt template: %w", err)
	}
	return b.String(), nil
}

// FormatDialogueTurns flattens a conversation into labeled turns separated
// by blank lines, the shape prompt templates expect in .dialogue_turns.
func FormatDialogueTurns(messages []storage.Message) string {
	formatted := make([]string, 0, len(messages))
	for _, msg := range messages {
		label := tutorLabel
		if msg.Role == "user" {
			label = studentLabel
		}
		formatted = append(formatted, label+": "+msg.Content)
	}
	return strings.Join(formatted, "\n\n")
}

// scorePattern matches "score: 85", "Score - 4.5", "score B" and similar.
var scorePattern = regexp.MustCompile(`(?i)score\s*[:\-]?\s*([\w.]+)`)

// ExtractScore pulls the first score value out of a model reply. Returns
// an empty string when the reply carries no score line.
func ExtractScore(text string) string {
	match := scorePattern.FindStringSubmatch(text)
	if match == nil {
		return ""
	}
	return match[1]
}
