package api

import (
	"context"
	"net/url"
)

const (
	pathStartPrint  = "api/printer/command/start_print"
	pathCancelPrint = "api/printer/command/cancel_print"
	pathPausePrint  = "api/printer/command/pause_print"
	pathResumePrint = "api/printer/command/resume_print"
	pathReboot      = "api/printer/command/reboot"
	pathDeleteFile  = "api/delete_file"
)

// StartPrint asks the printer to print the file at filename, a path
// relative to the files directory.
func (c *Client) StartPrint(ctx context.Context, filename string) (*CommandResponse, error) {
	resp, err := c.post(ctx, "start print", pathStartPrint, url.Values{"filename": {filename}})
	return resp, c.handleError(ctx, err)
}

// CancelPrint stops the current print.
func (c *Client) CancelPrint(ctx context.Context) (*CommandResponse, error) {
	resp, err := c.post(ctx, "cancel print", pathCancelPrint, nil)
	return resp, c.handleError(ctx, err)
}

// PausePrint pauses the current print.
func (c *Client) PausePrint(ctx context.Context) (*CommandResponse, error) {
	resp, err := c.post(ctx, "pause print", pathPausePrint, nil)
	return resp, c.handleError(ctx, err)
}

// ResumePrint resumes a paused print.
func (c *Client) ResumePrint(ctx context.Context) (*CommandResponse, error) {
	resp, err := c.post(ctx, "resume print", pathResumePrint, nil)
	return resp, c.handleError(ctx, err)
}

// RebootPrinter reboots the printer's controller board.
func (c *Client) RebootPrinter(ctx context.Context) (*CommandResponse, error) {
	resp, err := c.post(ctx, "reboot printer", pathReboot, nil)
	return resp, c.handleError(ctx, err)
}

// DeleteFile permanently removes the file at path.
func (c *Client) DeleteFile(ctx context.Context, path string) (*CommandResponse, error) {
	resp, err := c.post(ctx, "delete file", pathDeleteFile, url.Values{"filename": {path}})
	return resp, c.handleError(ctx, err)
}
