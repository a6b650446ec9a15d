package appevents

import "github.com/mariner3d/marinerctl/internal/alert"

// AppEvent is a marker interface for events sent from the TUI to the App's logic controller.
// It uses an unexported method to ensure that only types from this package (by embedding Event)
// can satisfy the interface, providing compile-time safety.
type AppEvent interface {
	isAppEvent()
}

// Event is a struct that can be embedded in other event types to satisfy the AppEvent interface.
type Event struct{}

// isAppEvent is the marker method that makes a struct an AppEvent.
func (Event) isAppEvent() {}

// AppUIMessage is a marker interface for messages sent from the App's logic controller to the TUI.
type AppUIMessage interface {
	isUIMessage()
}

// UIMessage is a base struct that can be embedded in other types to implement the AppUIMessage interface.
type UIMessage struct{}

func (UIMessage) isUIMessage() {}

// --- App Events (from TUI to App) ---

// DismissAlertEvent acknowledges the alert with the given ID.
type DismissAlertEvent struct {
	Event
	ID alert.ID
}

// --- UI Messages (from App to TUI) ---

// AppErrorMsg reports a failure that was not shown as an alert.
type AppErrorMsg struct {
	UIMessage
	Err error
}

// AlertMsg carries the alert to display. Alert is nil when the queue is empty.
type AlertMsg struct {
	UIMessage
	ID      alert.ID
	Alert   *alert.Options
	Pending int
}

var (
	_ AppEvent     = DismissAlertEvent{}
	_ AppUIMessage = AppErrorMsg{}
	_ AppUIMessage = AlertMsg{}
)
