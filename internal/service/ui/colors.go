// Package ui holds terminal styles for the kurt CLI.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Plain ANSI colors so the palette follows the user's terminal theme.
	TitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true).MarginBottom(1)
	UsageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	DescStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	FlagStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))

	KeyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	SecretStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// HighlightEnv colors the keys of KEY=VALUE lines and marks masked values.
func HighlightEnv(content, mask string) string {
	var b strings.Builder
	for _, line := range strings.Split(strings.TrimSuffix(content, "\n"), "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			b.WriteString(line)
			b.WriteByte('\n')
			continue
		}
		if value == mask {
			value = SecretStyle.Render(value)
		}
		b.WriteString(KeyStyle.Render(key))
		b.WriteByte('=')
		b.WriteString(value)
		b.WriteByte('\n')
	}
	return b.String()
}
