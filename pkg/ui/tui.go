package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mariner3d/marinerctl/internal/alert"
	appevents "github.com/mariner3d/marinerctl/internal/app_events"
	"github.com/mariner3d/marinerctl/internal/style"
	"github.com/mariner3d/marinerctl/pkg/ui/components"
)

// AppController is the part of the app the TUI drives.
type AppController interface {
	Run(ctx context.Context) error
	UIMessages() <-chan tea.Msg
	AppEvents() chan<- appevents.AppEvent
	Extensions() []string
}

type tab int

const (
	statusTab tab = iota
	filesTab
)

type model struct {
	appController AppController
	ctx           context.Context
	cancel        context.CancelFunc
	keys          KeyMap
	help          help.Model
	tab           tab
	width         int
	height        int

	alert         *alert.Options
	alertID       alert.ID
	dismissed     alert.ID // last alert acknowledged here; later repeats of it are stale
	pendingAlerts int
	lastErr       error

	status statusModel
	files  filesModel
}

// InitialModel creates the root model. The app is started by Init and
// stopped when the program quits.
func InitialModel(app AppController) model {
	ctx, cancel := context.WithCancel(context.Background())
	return model{
		appController: app,
		ctx:           ctx,
		cancel:        cancel,
		keys:          DefaultKeyMap,
		help:          help.New(),
		status:        initStatusModel(),
		files:         initFilesModel(),
	}
}

// listenForAppMessages is a command that listens for messages from the app controller.
func (m model) listenForAppMessages() tea.Cmd {
	return func() tea.Msg {
		return <-m.appController.UIMessages()
	}
}

func (m model) Init() tea.Cmd {
	go func() {
		if err := m.appController.Run(m.ctx); err != nil {
			slog.Error("App stopped", "error", err)
		}
	}()
	return tea.Batch(m.status.spinner.Tick, m.files.spinner.Tick, m.listenForAppMessages())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(appevents.AppUIMessage); ok {
		m.handleAppMessage(msg)
		return m, m.listenForAppMessages()
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		barWidth := max(10, min(msg.Width-10, 60))
		m.status.progress.Width = barWidth
		m.files.progress.Width = barWidth
		m.files.table.SetHeight(max(3, msg.Height-10))
		if m.files.picking {
			return m, m.updatePicker(msg)
		}
		return m, nil

	case spinner.TickMsg:
		var statusCmd, filesCmd tea.Cmd
		m.status.spinner, statusCmd = m.status.spinner.Update(msg)
		m.files.spinner, filesCmd = m.files.spinner.Update(msg)
		return m, tea.Batch(statusCmd, filesCmd)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Picker results and other internal messages.
	if m.tab == filesTab {
		return m, m.updateFiles(msg)
	}
	return m, nil
}

func (m *model) handleAppMessage(msg tea.Msg) {
	switch msg := msg.(type) {
	case appevents.AlertMsg:
		if msg.Alert != nil && msg.ID <= m.dismissed {
			return
		}
		m.alert = msg.Alert
		m.alertID = msg.ID
		m.pendingAlerts = msg.Pending
		return
	case appevents.AppErrorMsg:
		m.lastErr = msg.Err
		return
	}
	if m.handleStatusMsg(msg) || m.handleFilesMsg(msg) {
		return
	}
	slog.Warn("Unhandled UI message", "type", fmt.Sprintf("%T", msg))
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m.quit()
	}

	// The alert is modal: it only accepts its OK key.
	if m.alert != nil {
		if key.Matches(msg, m.keys.Dismiss) {
			m.appController.AppEvents() <- appevents.DismissAlertEvent{ID: m.alertID}
			m.dismissed = m.alertID
			m.alert = nil
		}
		return m, nil
	}
	m.lastErr = nil

	// Text entry and dialogs own the keyboard until closed.
	if m.tab == filesTab && (m.files.picking || m.files.details != nil) {
		return m, m.updateFiles(msg)
	}
	if m.tab == statusTab && m.status.confirm != "" {
		return m, m.updateStatusKeys(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.NextTab):
		m.tab = (m.tab + 1) % 2
		return m, nil
	case key.Matches(msg, m.keys.StatusTab):
		m.tab = statusTab
		return m, nil
	case key.Matches(msg, m.keys.FilesTab):
		m.tab = filesTab
		return m, nil
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	if m.tab == statusTab {
		return m, m.updateStatusKeys(msg)
	}
	return m, m.updateFiles(msg)
}

func (m model) quit() (tea.Model, tea.Cmd) {
	m.cancel()
	return m, tea.Quit
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(m.headerView() + "\n\n")

	if m.alert != nil {
		b.WriteString(components.AlertDialog(*m.alert, m.pendingAlerts))
		b.WriteString("\n\n" + m.help.View(helpKeys{m.keys.Dismiss}))
		return m.place(b.String())
	}

	var keys helpKeys
	switch m.tab {
	case statusTab:
		b.WriteString(m.statusView())
		keys = m.statusHelp()
	case filesTab:
		b.WriteString(m.filesView())
		keys = m.filesHelp()
	}

	if m.lastErr != nil {
		b.WriteString("\n\n" + style.ErrorStyle.Render(m.lastErr.Error()))
	}
	if !m.files.picking {
		keys = append(keys, m.keys.NextTab, m.keys.Quit)
		b.WriteString("\n\n" + m.help.View(keys))
	}
	return m.place(b.String())
}

func (m model) headerView() string {
	tabs := []string{"Home", "Files"}
	rendered := make([]string, len(tabs))
	for i, t := range tabs {
		if tab(i) == m.tab {
			rendered[i] = style.ActiveTabStyle.Render(t)
		} else {
			rendered[i] = style.TabStyle.Render(t)
		}
	}
	title := style.TitleStyle.Render("mariner3d")
	return lipgloss.JoinHorizontal(lipgloss.Center, append([]string{title, "  "}, rendered...)...)
}

func (m model) place(content string) string {
	return style.DocStyle.Render(content)
}
