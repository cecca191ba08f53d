package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// BgStyle paints every segment of a line on one background color. Rendering
// styled segments back to back leaves the gaps between them unpainted, since
// each segment ends with an ANSI reset; BgStyle paints the gaps too.
type BgStyle struct {
	fill  lipgloss.Style
	space string
}

// NewBgStyle returns a BgStyle for the given background color.
func NewBgStyle(bgColor string) BgStyle {
	fill := lipgloss.NewStyle().Background(lipgloss.Color(bgColor))
	return BgStyle{fill: fill, space: fill.Render(" ")}
}

// Render applies style on the background to text. Runs of spaces inside text
// are painted individually so they keep the background.
func (b BgStyle) Render(text string, style lipgloss.Style) string {
	if text == "" {
		return ""
	}
	styled := style.Inherit(b.fill)

	var out strings.Builder
	for i, word := range strings.Split(text, " ") {
		if i > 0 {
			out.WriteString(b.space)
		}
		if word != "" {
			out.WriteString(styled.Render(word))
		}
	}
	return out.String()
}

// Space returns one painted space.
func (b BgStyle) Space() string {
	return b.space
}

// Spaces returns n painted spaces.
func (b BgStyle) Spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return b.fill.Render(strings.Repeat(" ", n))
}

// Pair renders "label value" with both halves and the gap on the background.
func (b BgStyle) Pair(label string, labelStyle lipgloss.Style, value string, valueStyle lipgloss.Style) string {
	return b.Render(label, labelStyle) + b.space + b.Render(value, valueStyle)
}

// Join concatenates rendered parts with sep, usually from Spaces.
func (b BgStyle) Join(parts []string, sep string) string {
	return strings.Join(parts, sep)
}

// FillLine pads rendered content to width with the background color.
func (b BgStyle) FillLine(content string, width int) string {
	return b.fill.Width(width).Render(content)
}
