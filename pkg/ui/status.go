package ui

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mariner3d/marinerctl/api"
	"github.com/mariner3d/marinerctl/internal/app_events/printer"
	"github.com/mariner3d/marinerctl/internal/style"
	"github.com/mariner3d/marinerctl/internal/util"
	"github.com/mariner3d/marinerctl/pkg/poller"
	"github.com/mariner3d/marinerctl/pkg/ui/components"
)

const defaultProgressWidth = 40

type statusModel struct {
	spinner     spinner.Model
	progress    progress.Model
	printerName string
	result      poller.Result
	loaded      bool
	fatal       error
	confirm     printer.Command // awaiting y/n when set
	inFlight    printer.Command // sent, not yet acknowledged
}

func initStatusModel() statusModel {
	return statusModel{
		spinner:  style.NewSpinner(),
		progress: style.NewProgress(defaultProgressWidth),
	}
}

// controls returns the print controls offered for the last snapshot.
func (s statusModel) controls() poller.Controls {
	if s.fatal != nil || s.result.Status == nil {
		return poller.Controls{}
	}
	return poller.ControlsFor(s.result.Status.State)
}

func (s statusModel) idle() bool {
	return s.fatal == nil && s.result.Status != nil && s.result.Status.State == api.StateIdle
}

func (m *model) handleStatusMsg(msg tea.Msg) bool {
	switch msg := msg.(type) {
	case printer.StatusMsg:
		// A new snapshot fully replaces the previous one.
		m.status.loaded = true
		m.status.result = msg.Result
		if msg.Result.Err != nil {
			slog.Debug("Status poll failed", "error", msg.Result.Err)
		}
		return true
	case printer.PollerStoppedMsg:
		m.status.fatal = msg.Err
		m.status.confirm = ""
		return true
	case printer.CommandDoneMsg:
		if m.status.inFlight == msg.Command {
			m.status.inFlight = ""
		}
		return true
	case printer.MetadataMsg:
		m.status.printerName = msg.Metadata.PrinterDisplayName
		return true
	}
	return false
}

func (m *model) updateStatusKeys(msg tea.KeyMsg) tea.Cmd {
	s := &m.status
	if s.confirm != "" {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			m.sendCommand(s.confirm)
			s.confirm = ""
		case key.Matches(msg, m.keys.Deny):
			s.confirm = ""
		}
		return nil
	}

	if key.Matches(msg, m.keys.RefreshStatus) {
		m.appController.AppEvents() <- printer.RefreshStatusEvent{}
		return nil
	}
	if s.fatal != nil || s.inFlight != "" {
		return nil
	}

	c := s.controls()
	switch {
	case key.Matches(msg, m.keys.BrowseFiles) && s.idle():
		m.tab = filesTab
	case key.Matches(msg, m.keys.Pause) && c.Pause:
		m.sendCommand(printer.CommandPause)
	case key.Matches(msg, m.keys.Resume) && c.Resume:
		m.sendCommand(printer.CommandResume)
	case key.Matches(msg, m.keys.Stop) && c.Stop:
		s.confirm = printer.CommandCancel
	case key.Matches(msg, m.keys.Reboot) && s.result.Status != nil:
		s.confirm = printer.CommandReboot
	}
	return nil
}

func (m *model) sendCommand(cmd printer.Command) {
	m.status.inFlight = cmd
	m.appController.AppEvents() <- printer.CommandEvent{Command: cmd}
}

func (m *model) statusHelp() helpKeys {
	s := m.status
	if s.confirm != "" {
		return helpKeys{m.keys.Confirm, m.keys.Deny}
	}
	if s.idle() {
		return helpKeys{m.keys.BrowseFiles, m.keys.Reboot, m.keys.RefreshStatus}
	}
	keys := helpKeys{}
	c := s.controls()
	if c.Resume {
		keys = append(keys, m.keys.Resume)
	}
	if c.Pause {
		keys = append(keys, m.keys.Pause)
	}
	if c.Stop {
		keys = append(keys, m.keys.Stop)
	}
	return append(keys, m.keys.RefreshStatus)
}

func (m *model) statusView() string {
	s := m.status
	if s.fatal != nil {
		msg := "Status polling stopped: " + s.fatal.Error()
		if errors.Is(s.fatal, api.ErrUnknownState) {
			msg += "\n\nThe server reported a printer state this client does not understand."
		}
		return style.ErrorStyle.Render(msg)
	}
	if !s.loaded {
		return fmt.Sprintf("\n%s Loading print status...", s.spinner.View())
	}

	var b strings.Builder
	if s.printerName != "" {
		b.WriteString(style.TitleStyle.Render(s.printerName) + "\n")
	}
	if s.result.Err != nil {
		b.WriteString(style.ErrorStyle.Render("Failed to fetch print status: "+s.result.Err.Error()) + "\n")
		b.WriteString(style.FaintStyle.Render(fmt.Sprintf("Last attempt at %s.", s.result.FetchedAt.Format("15:04:05"))))
		return b.String()
	}

	st := s.result.Status
	b.WriteString(style.StateStyle(string(st.State)).Render(st.State.String()) + "\n\n")

	if st.State == api.StateIdle {
		b.WriteString("Nothing is printing right now.\n\n")
		b.WriteString(components.Button("Browse files", true))
		return b.String() + m.confirmView()
	}

	if st.SelectedFile != "" {
		b.WriteString(style.HighlightFontStyle.Render(st.SelectedFile) + "\n")
	}
	b.WriteString(s.progress.ViewAs(st.Progress/100) + "\n")
	b.WriteString(strings.Join(progressDetails(st), "   ") + "\n\n")

	c := s.controls()
	b.WriteString(components.ButtonRow(
		components.Button("Resume", c.Resume && s.inFlight == ""),
		components.Button("Pause", c.Pause && s.inFlight == ""),
		components.Button("Stop", c.Stop && s.inFlight == ""),
	))
	if s.inFlight != "" {
		b.WriteString(fmt.Sprintf("\n\n%s Sending %s...", s.spinner.View(), s.inFlight))
	}
	return b.String() + m.confirmView()
}

func (m *model) confirmView() string {
	switch m.status.confirm {
	case printer.CommandCancel:
		return "\n\n" + components.Confirm("Stop the current print?")
	case printer.CommandReboot:
		return "\n\n" + components.Confirm("Reboot the printer?")
	}
	return ""
}

// progressDetails renders "<pct>%", "<time> left" and "<current>/<count> layers".
// Fields the server did not send are omitted.
func progressDetails(st *api.PrintStatus) []string {
	parts := []string{fmt.Sprintf("%d%%", int(math.Round(st.Progress)))}
	if st.TimeLeftSecs != nil {
		parts = append(parts, util.FormatDuration(*st.TimeLeftSecs)+" left")
	}
	if st.CurrentLayer != nil && st.LayerCount != nil {
		parts = append(parts, fmt.Sprintf("%d/%d layers", *st.CurrentLayer, *st.LayerCount))
	}
	return parts
}
