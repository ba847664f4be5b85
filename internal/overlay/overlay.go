// Package overlay renders the score line and repaints note accuracy
// coloring.
package overlay

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ojansen/encore/internal/model"
	"github.com/ojansen/encore/internal/score"
)

var (
	neutralStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	restStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#5A5A5A"))
	unknownStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	excellentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	goodStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#95DE64"))
	fairStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FADB14"))
	poorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FA8C16"))
	veryPoorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

const restGlyph = "·"

// Render paints the score line for the given cursor position and
// accuracy map. Notes up to and including the current index take their
// classification's color; later notes stay neutral. Rests and grace
// annotations are never colored. The repaint is a pure function of its
// inputs, so repeated calls with unchanged inputs render identically.
func Render(tokens []score.Token, accuracy map[int]model.Accuracy, current int, showCursor bool, width int) string {
	styled := buildStyledTokens(tokens, accuracy, current, showCursor)
	if width <= 0 {
		return renderStyledTokens(styled)
	}
	return wrapStyledTokens(styled, width)
}

func buildStyledTokens(tokens []score.Token, accuracy map[int]model.Accuracy, current int, showCursor bool) []styledToken {
	out := make([]styledToken, 0, len(tokens)*2)
	for i, tok := range tokens {
		if i > 0 {
			out = append(out, spaceToken())
		}
		style := styleFor(i, current, tok, accuracy)
		if showCursor && i == current {
			style = style.Underline(true)
		}
		out = append(out, newStyledToken(displayText(tok), style))
	}
	return out
}

func styleFor(i, current int, tok score.Token, accuracy map[int]model.Accuracy) lipgloss.Style {
	if tok.IsRest() || tok.Grace {
		return restStyle
	}
	if i > current {
		return neutralStyle
	}
	level, ok := accuracy[i]
	if !ok {
		return neutralStyle
	}
	return accuracyStyle(level)
}

func accuracyStyle(level model.Accuracy) lipgloss.Style {
	switch level {
	case model.AccuracyExcellent:
		return excellentStyle
	case model.AccuracyGood:
		return goodStyle
	case model.AccuracyFair:
		return fairStyle
	case model.AccuracyPoor:
		return poorStyle
	case model.AccuracyVeryPoor:
		return veryPoorStyle
	default:
		return unknownStyle
	}
}

func displayText(tok score.Token) string {
	if tok.IsRest() {
		return restGlyph
	}
	if tok.Grace {
		return "(" + tok.Pitch + ")"
	}
	return tok.Pitch
}
