package printer

import (
	"github.com/mariner3d/marinerctl/api"
	appevents "github.com/mariner3d/marinerctl/internal/app_events"
	"github.com/mariner3d/marinerctl/pkg/poller"
)

// Command names a printer command issued from the status view.
type Command string

const (
	CommandPause  Command = "pause"
	CommandResume Command = "resume"
	CommandCancel Command = "cancel"
	CommandReboot Command = "reboot"
)

// --- App Events (from TUI to App) ---

// CommandEvent asks the app to send a printer command.
type CommandEvent struct {
	appevents.Event
	Command Command
}

// RefreshStatusEvent asks for an out of schedule status fetch.
type RefreshStatusEvent struct {
	appevents.Event
}

var (
	_ appevents.AppEvent = CommandEvent{}
	_ appevents.AppEvent = RefreshStatusEvent{}
)

// --- UI Messages (from App to TUI) ---

// StatusMsg carries a fresh poll result.
type StatusMsg struct {
	appevents.UIMessage
	Result poller.Result
}

// CommandDoneMsg reports the outcome of a CommandEvent.
type CommandDoneMsg struct {
	appevents.UIMessage
	Command Command
	Err     error
}

// MetadataMsg carries the configuration scraped from the server's index page.
type MetadataMsg struct {
	appevents.UIMessage
	Metadata api.Metadata
}

// PollerStoppedMsg is sent when polling has ended for good.
type PollerStoppedMsg struct {
	appevents.UIMessage
	Err error
}
