// Package classify inspects the text captured from one harness invocation
// and reduces it to a structured verdict: the run either does not exist,
// did not execute, failed to compile, failed at runtime, or succeeded with
// declared result metadata.
package classify

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Scheme is the uniform three-level severity vocabulary every surfaced
// diagnostic is relabeled into, decoupling our reports from the harness's
// own tag conventions.
type Scheme struct {
	Info    string
	Warning string
	Error   string
}

var (
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// DefaultScheme renders warning and error tags in color for terminals.
func DefaultScheme() Scheme {
	return Scheme{
		Info:    "[emixa-info]",
		Warning: "[" + warningStyle.Render("emixa-warning") + "]",
		Error:   "[" + errorStyle.Render("emixa-error") + "]",
	}
}

// PlainScheme renders tags without styling; used in logs and tests.
func PlainScheme() Scheme {
	return Scheme{
		Info:    "[emixa-info]",
		Warning: "[emixa-warning]",
		Error:   "[emixa-error]",
	}
}

var severityTag = regexp.MustCompile(`\[(info|warn(?:ing)?|error)\]`)

// Relabel rewrites the harness's own severity tags into the scheme's
// vocabulary. It is a pure function of its inputs.
func Relabel(s string, scheme Scheme) string {
	return severityTag.ReplaceAllStringFunc(s, func(tag string) string {
		switch {
		case strings.HasPrefix(tag, "[info"):
			return scheme.Info
		case strings.HasPrefix(tag, "[warn"):
			return scheme.Warning
		default:
			return scheme.Error
		}
	})
}
