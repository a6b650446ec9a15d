package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/gabriel-vasile/mimetype"
)

const (
	pathPrintStatus = "api/print_status"
	pathListFiles   = "api/list_files"
	pathFileDetails = "api/file_details"
	pathFilePreview = "api/file_preview"

	maxPreviewSize = 16 << 20
)

// PrintStatus fetches a fresh status snapshot. An unrecognized state is a
// contract violation and fails with ErrUnknownState.
func (c *Client) PrintStatus(ctx context.Context) (*PrintStatus, error) {
	const op = "print status"
	var status PrintStatus
	if err := c.getJSON(ctx, op, pathPrintStatus, nil, &status); err != nil {
		return nil, c.handleError(ctx, err)
	}
	state, err := ParsePrinterState(string(status.State))
	if err != nil {
		return nil, &Error{Kind: KindContract, Op: op, StatusCode: http.StatusOK, Err: err}
	}
	status.State = state
	return &status, nil
}

// ListFiles lists the directory at path. The root is "".
func (c *Client) ListFiles(ctx context.Context, path string) (*FileList, error) {
	var list FileList
	if err := c.getJSON(ctx, "list files", pathListFiles, url.Values{"path": {path}}, &list); err != nil {
		return nil, c.handleError(ctx, err)
	}
	if list.Directories == nil {
		list.Directories = []Directory{}
	}
	if list.Files == nil {
		list.Files = []File{}
	}
	return &list, nil
}

// FileDetails fetches the slicing parameters of the file at path.
func (c *Client) FileDetails(ctx context.Context, path string) (*FileDetails, error) {
	var details FileDetails
	if err := c.getJSON(ctx, "file details", pathFileDetails, url.Values{"filename": {path}}, &details); err != nil {
		return nil, c.handleError(ctx, err)
	}
	return &details, nil
}

// PreviewURL returns the absolute URL of the preview image for path.
func (c *Client) PreviewURL(path string) string {
	return c.endpoint(pathFilePreview, url.Values{"filename": {path}})
}

// FilePreview downloads the preview image of the file at path.
func (c *Client) FilePreview(ctx context.Context, path string) (*Preview, error) {
	preview, err := c.filePreview(ctx, path)
	return preview, c.handleError(ctx, err)
}

func (c *Client) filePreview(ctx context.Context, path string) (*Preview, error) {
	const op = "file preview"
	req, err := c.newRequest(ctx, op, http.MethodGet, pathFilePreview, url.Values{"filename": {path}}, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "image/*")

	resp, err := c.HttpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPreviewSize))
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: op, Err: fmt.Errorf("failed to read preview: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newResponseError(op, resp.StatusCode, body)
	}

	mtype := mimetype.Detect(body)
	return &Preview{Data: body, MimeType: mtype.String(), Ext: mtype.Extension()}, nil
}
