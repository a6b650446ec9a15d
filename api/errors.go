package api

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mariner3d/marinerctl/internal/alert"
)

// ErrorKind classifies a failed API call.
type ErrorKind int

const (
	// KindTransport means no response was received.
	KindTransport ErrorKind = iota
	// KindServer means the server replied with a structured error body.
	KindServer
	// KindStatus means the server replied with a non-2xx status and no usable body.
	KindStatus
	// KindContract means the response violated the client/server contract.
	KindContract
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindServer:
		return "server"
	case KindStatus:
		return "status"
	case KindContract:
		return "contract"
	default:
		return "unknown"
	}
}

const defaultErrorTitle = "Something went wrong"

// ErrReported wraps errors that have already been shown to the user through
// the registered Notifier.
var ErrReported = errors.New("error reported to user")

// Error is a normalized API failure.
type Error struct {
	Kind        ErrorKind
	Op          string
	StatusCode  int
	Title       string
	Description string
	Traceback   string
	Err         error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindServer:
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Title, e.Description)
	case KindStatus:
		return fmt.Sprintf("%s: server replied with HTTP %d", e.Op, e.StatusCode)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AlertOptions converts the failure into the shape shown in the alert dialog.
func (e *Error) AlertOptions() alert.Options {
	switch e.Kind {
	case KindServer:
		return alert.Options{Title: e.Title, Description: e.Description, Traceback: e.Traceback}
	case KindStatus:
		return alert.Options{
			Title:       defaultErrorTitle,
			Description: fmt.Sprintf("The server replied with a %d HTTP status code.", e.StatusCode),
		}
	default:
		return alert.Options{
			Title:       defaultErrorTitle,
			Description: "Sorry, I don't know what happened.",
		}
	}
}

// serverErrorBody is the JSON body the server sends with error responses.
type serverErrorBody struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Traceback   string `json:"traceback,omitempty"`
}

// newResponseError builds an Error from a non-2xx response body.
func newResponseError(op string, statusCode int, body []byte) *Error {
	var parsed map[string]json.RawMessage
	if err := json.Unmarshal(body, &parsed); err == nil && parsed != nil {
		var se serverErrorBody
		_ = json.Unmarshal(body, &se)
		return &Error{
			Kind:        KindServer,
			Op:          op,
			StatusCode:  statusCode,
			Title:       se.Title,
			Description: se.Description,
			Traceback:   se.Traceback,
		}
	}
	return &Error{
		Kind:       KindStatus,
		Op:         op,
		StatusCode: statusCode,
		Err:        fmt.Errorf("unexpected HTTP status %d", statusCode),
	}
}
