package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mariner3d/marinerctl/internal/alert"
	"github.com/mariner3d/marinerctl/internal/style"
	"github.com/mariner3d/marinerctl/internal/util"
)

// Button renders a labelled button. Disabled buttons are dimmed.
func Button(label string, enabled bool) string {
	if !enabled {
		return style.DisabledButton.Render(label)
	}
	return style.ActiveButton.Render(label)
}

// ButtonRow lays buttons out left to right.
func ButtonRow(buttons ...string) string {
	spaced := make([]string, 0, len(buttons)*2)
	for i, b := range buttons {
		if i > 0 {
			spaced = append(spaced, " ")
		}
		spaced = append(spaced, b)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, spaced...)
}

// Dialog is a bordered box with a title, a body and a row of buttons.
type Dialog struct {
	Title   string
	Body    string
	Buttons []string
	// Alert draws the border in the error color.
	Alert bool
	Width int
}

func (d Dialog) View() string {
	var b strings.Builder
	if d.Title != "" {
		b.WriteString(style.TitleStyle.Render(d.Title))
		b.WriteString("\n\n")
	}
	b.WriteString(d.Body)
	if len(d.Buttons) > 0 {
		b.WriteString("\n\n")
		b.WriteString(ButtonRow(d.Buttons...))
	}

	box := style.DialogStyle
	if d.Alert {
		box = style.AlertDialogStyle
	}
	if d.Width > 0 {
		box = box.Width(d.Width)
	}
	return box.Render(b.String())
}

// AlertDialog renders the alert at the head of the queue. pending includes
// the visible alert.
func AlertDialog(opts alert.Options, pending int) string {
	body := opts.Description
	if opts.Traceback != "" {
		body += "\n\n" + style.TracebackStyle.Render(opts.Traceback)
	}
	if pending > 1 {
		body += "\n\n" + style.FaintStyle.Render(fmt.Sprintf("%d more waiting", pending-1))
	}
	return Dialog{
		Title:   opts.Title,
		Body:    body,
		Buttons: []string{Button("OK", true)},
		Alert:   true,
		Width:   60,
	}.View()
}

// Confirm renders a yes/no question.
func Confirm(question string) string {
	return Dialog{
		Body:    question,
		Buttons: []string{Button("y Yes", true), Button("n No", true)},
	}.View()
}

// KeyValueTable renders rows as a two column table with aligned labels.
func KeyValueTable(rows [][2]string) string {
	width := 0
	for _, r := range rows {
		width = max(width, lipgloss.Width(r[0]))
	}
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, style.HeaderStyle.Render(util.PadRight(r[0], width))+"  "+r[1])
	}
	return strings.Join(lines, "\n")
}
