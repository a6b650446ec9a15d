package style

import (
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// --- Reusable Colors ---
var (
	colorPink      = lipgloss.Color("205")
	colorDarkGray  = lipgloss.Color("240")
	colorLightGray = lipgloss.Color("229")
	colorBlue      = lipgloss.Color("57")
	colorCyan      = lipgloss.Color("212")
	colorPurple    = lipgloss.Color("99")
	colorRed       = lipgloss.Color("196")
	colorGreen     = lipgloss.Color("42")
	colorYellow    = lipgloss.Color("214")
)

// --- General Purpose Styles ---
var (
	ErrorStyle    = lipgloss.NewStyle().Foreground(colorRed)
	SuccessStyle  = lipgloss.NewStyle().Foreground(colorGreen)
	DisabledStyle = lipgloss.NewStyle().Foreground(colorDarkGray)
	FaintStyle    = lipgloss.NewStyle().Faint(true)
)

// --- Layout ---
var (
	BaseStyle          = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderForeground(colorDarkGray)
	HighlightFontStyle = lipgloss.NewStyle().Foreground(colorCyan)
	DocStyle           = lipgloss.NewStyle().Margin(1, 2)
	TitleStyle         = lipgloss.NewStyle().Bold(true).Foreground(colorPink)
	HelpStyle          = lipgloss.NewStyle().Faint(true)
	HeaderStyle        = lipgloss.NewStyle().Bold(true).Padding(0, 1)

	TabStyle       = lipgloss.NewStyle().Padding(0, 2).Foreground(colorDarkGray)
	ActiveTabStyle = lipgloss.NewStyle().Padding(0, 2).Bold(true).Foreground(colorLightGray).Background(colorBlue)
)

// --- File Tree Styles ---
var (
	CursorStyle   = lipgloss.NewStyle().Foreground(colorCyan).SetString("> ")
	NoCursorStyle = lipgloss.NewStyle().SetString("  ")
	DirStyle      = lipgloss.NewStyle().Foreground(colorPurple)
	FileStyle     = lipgloss.NewStyle().Foreground(colorLightGray)
)

// --- Dialogs ---
var (
	DialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPurple).
			Padding(1, 2)
	AlertDialogStyle = DialogStyle.BorderForeground(colorRed)
	ButtonStyle      = lipgloss.NewStyle().Padding(0, 2).Foreground(colorLightGray).Background(colorDarkGray)
	ActiveButton     = ButtonStyle.Background(colorBlue).Bold(true)
	DisabledButton   = ButtonStyle.Foreground(colorDarkGray).Background(lipgloss.Color("236"))
	TracebackStyle   = lipgloss.NewStyle().Foreground(colorDarkGray).PaddingLeft(2)
)

// StateStyle colors a printer state label.
func StateStyle(state string) lipgloss.Style {
	switch state {
	case "PRINTING":
		return lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	case "PAUSED":
		return lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
	case "STARTING_PRINT":
		return lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	default:
		return lipgloss.NewStyle().Bold(true).Foreground(colorLightGray)
	}
}

// --- Common Components ---

// NewSpinner creates a spinner with a consistent style.
func NewSpinner() spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorPink)
	return s
}

// NewTableStyles returns the default styles for tables, with our custom selection style.
func NewTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Selected = styles.Selected.Foreground(colorLightGray).Background(colorBlue).Bold(false)
	return styles
}

// NewProgress creates a progress bar in the palette colors.
func NewProgress(width int) progress.Model {
	p := progress.New(progress.WithGradient(string(colorPurple), string(colorPink)))
	p.Width = width
	return p
}
