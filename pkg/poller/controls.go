package poller

import "github.com/mariner3d/marinerctl/api"

// Controls says which print controls the status view offers.
type Controls struct {
	Visible bool
	Resume  bool
	Pause   bool
	Stop    bool
}

// ControlsFor maps a printer state to its enabled controls. The controls
// are hidden while the printer is idle.
func ControlsFor(state api.PrinterState) Controls {
	switch state {
	case api.StateStartingPrint:
		return Controls{Visible: true, Stop: true}
	case api.StatePrinting:
		return Controls{Visible: true, Pause: true, Stop: true}
	case api.StatePaused:
		return Controls{Visible: true, Resume: true, Stop: true}
	default:
		return Controls{}
	}
}
