package api

import (
	"errors"
	"fmt"
)

// PrinterState is the state reported by the print_status endpoint.
type PrinterState string

const (
	StateIdle          PrinterState = "IDLE"
	StateStartingPrint PrinterState = "STARTING_PRINT"
	StatePrinting      PrinterState = "PRINTING"
	StatePaused        PrinterState = "PAUSED"
)

// ErrUnknownState is returned when the server reports a state this client
// does not know about.
var ErrUnknownState = errors.New("unknown printer state")

// ParsePrinterState validates a state string received from the server.
func ParsePrinterState(s string) (PrinterState, error) {
	switch state := PrinterState(s); state {
	case StateIdle, StateStartingPrint, StatePrinting, StatePaused:
		return state, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownState, s)
	}
}

// String returns a human readable label for the state.
func (s PrinterState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateStartingPrint:
		return "Starting print"
	case StatePrinting:
		return "Printing"
	case StatePaused:
		return "Paused"
	default:
		return string(s)
	}
}

// CommandResponse is the acknowledgement returned by every POST endpoint.
type CommandResponse struct {
	Success bool `json:"success"`
}

// PrintStatus is a snapshot of the printer. Layer and time fields are only
// present while a print is active.
type PrintStatus struct {
	State         PrinterState `json:"state"`
	SelectedFile  string       `json:"selected_file"`
	Progress      float64      `json:"progress"`
	CurrentLayer  *int         `json:"current_layer,omitempty"`
	LayerCount    *int         `json:"layer_count,omitempty"`
	PrintTimeSecs *int         `json:"print_time_secs,omitempty"`
	TimeLeftSecs  *int         `json:"time_left_secs,omitempty"`
}

// Directory is a sub-directory entry of a listing.
type Directory struct {
	Dirname string `json:"dirname"`
}

// File is a file entry of a listing. Path is relative to the printer's
// files directory.
type File struct {
	Filename      string `json:"filename"`
	Path          string `json:"path"`
	PrintTimeSecs *int   `json:"print_time_secs,omitempty"`
	CanBePrinted  bool   `json:"can_be_printed"`
}

// FileList is the result of listing one directory.
type FileList struct {
	Directories []Directory `json:"directories"`
	Files       []File      `json:"files"`
}

// FileDetails describes a sliced model file.
type FileDetails struct {
	Filename      string     `json:"filename"`
	Path          string     `json:"path"`
	BedSizeMM     [3]float64 `json:"bed_size_mm"`
	HeightMM      float64    `json:"height_mm"`
	LayerCount    int        `json:"layer_count"`
	LayerHeightMM float64    `json:"layer_height_mm"`
	Resolution    [2]int     `json:"resolution"`
	PrintTimeSecs int        `json:"print_time_secs"`
}

// Preview holds a rendered preview image.
type Preview struct {
	Data     []byte
	MimeType string
	Ext      string
}

// ProgressFunc receives upload progress. loaded never decreases.
type ProgressFunc func(loaded, total int64)
