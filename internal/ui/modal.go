package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// confirmModal asks a yes/no question and runs onConfirm on yes.
type confirmModal struct {
	title     string
	body      string
	onConfirm tea.Cmd
}

func newConfirmModal(title, body string, onConfirm tea.Cmd) confirmModal {
	return confirmModal{title: title, body: body, onConfirm: onConfirm}
}

func (c confirmModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil, false
	}
	switch {
	case key.Matches(km, keys.Confirm):
		return nil, c.onConfirm, true
	case key.Matches(km, keys.Cancel):
		return nil, nil, true
	}
	return c, nil, false
}

func (c confirmModal) View(theme Theme, width, height int) string {
	styles := theme.Styles().WithBackground(theme.SurfaceAlt)
	bg := NewBgStyle(theme.SurfaceAlt)

	boxWidth := clamp(width/2, 30, 60)
	inner := boxWidth - 4

	var b strings.Builder
	b.WriteString(bg.FillLine(bg.Render(c.title, styles.DangerText), inner))
	b.WriteString("\n")
	b.WriteString(bg.FillLine("", inner))
	b.WriteString("\n")
	b.WriteString(bg.FillLine(bg.Render(truncate(c.body, inner), styles.Text), inner))
	b.WriteString("\n")
	b.WriteString(bg.FillLine("", inner))
	b.WriteString("\n")
	b.WriteString(bg.FillLine(
		bg.Render("y", styles.WarningText)+bg.Space()+bg.Render("confirm", styles.MutedText)+bg.Spaces(3)+
			bg.Render("n/esc", styles.WarningText)+bg.Space()+bg.Render("cancel", styles.MutedText),
		inner))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Danger)).
		BorderBackground(lipgloss.Color(theme.Background)).
		Background(lipgloss.Color(theme.SurfaceAlt)).
		Padding(0, 1).
		Render(b.String())

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box,
		lipgloss.WithWhitespaceBackground(lipgloss.Color(theme.Background)))
}
