package files

import (
	"github.com/mariner3d/marinerctl/api"
	appevents "github.com/mariner3d/marinerctl/internal/app_events"
	"github.com/mariner3d/marinerctl/pkg/browser"
)

// --- App Events (from TUI to App) ---

// RefreshEvent re-lists the current directory.
type RefreshEvent struct {
	appevents.Event
}

// EnterDirEvent descends into a sub-directory of the current path.
type EnterDirEvent struct {
	appevents.Event
	Dirname string
}

// UpEvent moves to the parent directory.
type UpEvent struct {
	appevents.Event
}

// DetailsEvent asks for the details of a file.
type DetailsEvent struct {
	appevents.Event
	File api.File
}

type DeleteEvent struct {
	appevents.Event
	Path string
}

type PrintEvent struct {
	appevents.Event
	Path string
}

// UploadEvent uploads a local file into the printer's files directory.
type UploadEvent struct {
	appevents.Event
	LocalPath string
}

var (
	_ appevents.AppEvent = RefreshEvent{}
	_ appevents.AppEvent = EnterDirEvent{}
	_ appevents.AppEvent = UpEvent{}
	_ appevents.AppEvent = DetailsEvent{}
	_ appevents.AppEvent = DeleteEvent{}
	_ appevents.AppEvent = PrintEvent{}
	_ appevents.AppEvent = UploadEvent{}
)

// --- UI Messages (from App to TUI) ---

// ListingMsg carries the browser state. It is sent when a listing starts
// and when it completes.
type ListingMsg struct {
	appevents.UIMessage
	View browser.View
}

// DetailsMsg carries the result of a DetailsEvent.
type DetailsMsg struct {
	appevents.UIMessage
	File       api.File
	Details    *api.FileDetails
	PreviewURL string
	Err        error
}

type DeletedMsg struct {
	appevents.UIMessage
	Path string
	Err  error
}

// PrintStartedMsg tells the UI to switch to the status view.
type PrintStartedMsg struct {
	appevents.UIMessage
	Path string
}

type PrintFailedMsg struct {
	appevents.UIMessage
	Path string
	Err  error
}

type UploadStartedMsg struct {
	appevents.UIMessage
	Name  string
	Total int64
}

// UploadProgressMsg reports bytes sent so far. Loaded never decreases.
type UploadProgressMsg struct {
	appevents.UIMessage
	Loaded int64
	Total  int64
}

type UploadDoneMsg struct {
	appevents.UIMessage
	Name string
	Err  error
}
