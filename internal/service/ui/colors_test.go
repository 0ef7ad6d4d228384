package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestHighlightEnv(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	got := HighlightEnv("LLM_MODEL=gpt-4o\nLLM_API_KEY=********\ncomment\n", "********")

	assert.Equal(t, "LLM_MODEL=gpt-4o\nLLM_API_KEY=********\ncomment\n", got)
}
