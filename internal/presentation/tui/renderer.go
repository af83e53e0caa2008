package tui

import (
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown for the terminal.
// With plain set, or when no renderer can be built, markdown is returned as is.
func NewRenderer(plain bool) func(string) (string, error) {
	identity := func(markdown string) (string, error) { return markdown, nil }
	if plain {
		return identity
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return identity
	}
	return r.Render
}
