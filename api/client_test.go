package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/mariner3d/marinerctl/internal/alert"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
}

// fakePrinter is an httptest server that records every request it receives.
type fakePrinter struct {
	*httptest.Server
	mu       sync.Mutex
	requests []recordedRequest
}

func newFakePrinter(t *testing.T, mux *http.ServeMux) *fakePrinter {
	t.Helper()
	fp := &fakePrinter{}
	fp.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fp.mu.Lock()
		fp.requests = append(fp.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
		})
		fp.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(fp.Close)
	return fp
}

func (fp *fakePrinter) Requests() []recordedRequest {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return append([]recordedRequest(nil), fp.requests...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func successHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// fakeNotifier records alerts and acknowledges them immediately.
type fakeNotifier struct {
	mu     sync.Mutex
	alerts []alert.Options
}

func (n *fakeNotifier) Open(_ context.Context, opts alert.Options) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, opts)
	return nil
}

func (n *fakeNotifier) Alerts() []alert.Options {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]alert.Options(nil), n.alerts...)
}

func newTestClient(t *testing.T, url string, opts ...Option) *Client {
	t.Helper()
	c, err := NewClient(url, opts...)
	require.NoError(t, err)
	return c
}

func TestNewClient_RejectsInvalidURL(t *testing.T) {
	_, err := NewClient("ftp://printer.local")
	assert.Error(t, err)

	_, err = NewClient("://bad")
	assert.Error(t, err)

	c, err := NewClient("http://printer.local:5050")
	require.NoError(t, err)
	assert.Equal(t, "http://printer.local:5050/", c.BaseURL())
	assert.NotEmpty(t, c.ClientID())
}

func TestCommands_IssueExactlyOnePost(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		query  url.Values
		invoke func(ctx context.Context, c *Client) (*CommandResponse, error)
	}{
		{"start print", "/api/printer/command/start_print", url.Values{"filename": {"monster.ctb"}},
			func(ctx context.Context, c *Client) (*CommandResponse, error) { return c.StartPrint(ctx, "monster.ctb") }},
		{"cancel print", "/api/printer/command/cancel_print", url.Values{},
			func(ctx context.Context, c *Client) (*CommandResponse, error) { return c.CancelPrint(ctx) }},
		{"pause print", "/api/printer/command/pause_print", url.Values{},
			func(ctx context.Context, c *Client) (*CommandResponse, error) { return c.PausePrint(ctx) }},
		{"resume print", "/api/printer/command/resume_print", url.Values{},
			func(ctx context.Context, c *Client) (*CommandResponse, error) { return c.ResumePrint(ctx) }},
		{"reboot", "/api/printer/command/reboot", url.Values{},
			func(ctx context.Context, c *Client) (*CommandResponse, error) { return c.RebootPrinter(ctx) }},
		{"delete file", "/api/delete_file", url.Values{"filename": {"figures/dragon.ctb"}},
			func(ctx context.Context, c *Client) (*CommandResponse, error) { return c.DeleteFile(ctx, "figures/dragon.ctb") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("POST /api/", successHandler)
			fp := newFakePrinter(t, mux)
			c := newTestClient(t, fp.URL)

			resp, err := tt.invoke(context.Background(), c)
			require.NoError(t, err)
			assert.True(t, resp.Success)

			reqs := fp.Requests()
			require.Len(t, reqs, 1, "exactly one request should be issued")
			assert.Equal(t, http.MethodPost, reqs[0].Method)
			assert.Equal(t, tt.path, reqs[0].Path)
			assert.Equal(t, tt.query, reqs[0].Query)
		})
	}
}

func TestRequests_CarryClientHeaders(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/printer/command/pause_print", successHandler)
	fp := newFakePrinter(t, mux)
	c := newTestClient(t, fp.URL, WithCSRFToken("token-123"))

	_, err := c.PausePrint(context.Background())
	require.NoError(t, err)

	reqs := fp.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, c.ClientID(), reqs[0].Header.Get(clientIDHeader))
	assert.Equal(t, "token-123", reqs[0].Header.Get(csrfHeader))
}

func TestPrintStatus_DecodesSnapshot(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/print_status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"state":          "PAUSED",
			"progress":       20,
			"selected_file":  "lattice.ctb",
			"current_layer":  120,
			"layer_count":    600,
			"time_left_secs": 3840,
		})
	})
	fp := newFakePrinter(t, mux)
	c := newTestClient(t, fp.URL)

	status, err := c.PrintStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatePaused, status.State)
	assert.Equal(t, "lattice.ctb", status.SelectedFile)
	assert.InDelta(t, 20.0, status.Progress, 0.001)
	require.NotNil(t, status.CurrentLayer)
	assert.Equal(t, 120, *status.CurrentLayer)
	require.NotNil(t, status.LayerCount)
	assert.Equal(t, 600, *status.LayerCount)
	require.NotNil(t, status.TimeLeftSecs)
	assert.Equal(t, 3840, *status.TimeLeftSecs)
	assert.Nil(t, status.PrintTimeSecs)
}

func TestPrintStatus_UnknownStateFailsHard(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/print_status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"state": "FOOBAR", "selected_file": "", "progress": 0})
	})
	fp := newFakePrinter(t, mux)
	notifier := &fakeNotifier{}
	c := newTestClient(t, fp.URL, WithNotifier(notifier))

	status, err := c.PrintStatus(context.Background())
	assert.Nil(t, status)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownState)
	assert.NotErrorIs(t, err, ErrReported)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindContract, apiErr.Kind)
	assert.Empty(t, notifier.Alerts(), "contract violations must not be routed to the alert channel")
}

func TestListFiles_SendsPathParameter(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/list_files", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"directories": []map[string]string{{"dirname": "dragons"}},
			"files": []map[string]any{
				{"filename": "knight.ctb", "path": "figures/knight.ctb", "print_time_secs": 7200, "can_be_printed": true},
				{"filename": "notes.txt", "path": "figures/notes.txt", "can_be_printed": false},
			},
		})
	})
	fp := newFakePrinter(t, mux)
	c := newTestClient(t, fp.URL)

	list, err := c.ListFiles(context.Background(), "figures/")
	require.NoError(t, err)

	reqs := fp.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "figures/", reqs[0].Query.Get("path"))

	require.Len(t, list.Directories, 1)
	assert.Equal(t, "dragons", list.Directories[0].Dirname)
	require.Len(t, list.Files, 2)
	assert.True(t, list.Files[0].CanBePrinted)
	require.NotNil(t, list.Files[0].PrintTimeSecs)
	assert.Equal(t, 7200, *list.Files[0].PrintTimeSecs)
	assert.False(t, list.Files[1].CanBePrinted)
	assert.Nil(t, list.Files[1].PrintTimeSecs)
}

func TestListFiles_EmptyListingHasNonNilSlices(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/list_files", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{})
	})
	fp := newFakePrinter(t, mux)
	c := newTestClient(t, fp.URL)

	list, err := c.ListFiles(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, list.Directories)
	assert.NotNil(t, list.Files)
}

func TestFileDetails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/file_details", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"filename":        "knight.ctb",
			"path":            r.URL.Query().Get("filename"),
			"bed_size_mm":     []float64{68.04, 120.96, 150},
			"height_mm":       20.5,
			"layer_count":     410,
			"layer_height_mm": 0.05,
			"resolution":      []int{1440, 2560},
			"print_time_secs": 9840,
		})
	})
	fp := newFakePrinter(t, mux)
	c := newTestClient(t, fp.URL)

	details, err := c.FileDetails(context.Background(), "figures/knight.ctb")
	require.NoError(t, err)
	assert.Equal(t, "figures/knight.ctb", details.Path)
	assert.Equal(t, [3]float64{68.04, 120.96, 150}, details.BedSizeMM)
	assert.Equal(t, [2]int{1440, 2560}, details.Resolution)
	assert.Equal(t, 410, details.LayerCount)
	assert.Equal(t, 9840, details.PrintTimeSecs)
}

func TestFilePreview_DetectsImageType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/file_preview", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	})
	fp := newFakePrinter(t, mux)
	c := newTestClient(t, fp.URL)

	preview, err := c.FilePreview(context.Background(), "knight.ctb")
	require.NoError(t, err)
	assert.Equal(t, png, preview.Data)
	assert.Equal(t, "image/png", preview.MimeType)
	assert.Equal(t, ".png", preview.Ext)
	assert.Contains(t, c.PreviewURL("knight.ctb"), "api/file_preview?filename=knight.ctb")
}

func TestErrors_StructuredServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/printer/command/start_print", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"title":       "Unexpected Printer Response",
			"description": "The printer returned an unexpected response.",
			"traceback":   "Traceback (most recent call last): ...",
		})
	})
	fp := newFakePrinter(t, mux)
	c := newTestClient(t, fp.URL)

	_, err := c.StartPrint(context.Background(), "monster.ctb")
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindServer, apiErr.Kind)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)

	opts := apiErr.AlertOptions()
	assert.Equal(t, "Unexpected Printer Response", opts.Title)
	assert.Equal(t, "The printer returned an unexpected response.", opts.Description)
	assert.Equal(t, "Traceback (most recent call last): ...", opts.Traceback)
}

func TestErrors_UnstructuredStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/printer/command/reboot", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})
	fp := newFakePrinter(t, mux)
	c := newTestClient(t, fp.URL)

	_, err := c.RebootPrinter(context.Background())
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindStatus, apiErr.Kind)
	assert.Equal(t, alert.Options{
		Title:       "Something went wrong",
		Description: "The server replied with a 502 HTTP status code.",
	}, apiErr.AlertOptions())
}

func TestErrors_Transport(t *testing.T) {
	fp := newFakePrinter(t, http.NewServeMux())
	addr := fp.URL
	fp.Close()
	c := newTestClient(t, addr)

	_, err := c.CancelPrint(context.Background())
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindTransport, apiErr.Kind)
	assert.Equal(t, "Sorry, I don't know what happened.", apiErr.AlertOptions().Description)
}

func TestErrors_ReportedThroughNotifier(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/delete_file", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"title": "Bad Request", "description": "No such file."})
	})
	fp := newFakePrinter(t, mux)
	notifier := &fakeNotifier{}
	c := newTestClient(t, fp.URL, WithNotifier(notifier))

	_, err := c.DeleteFile(context.Background(), "missing.ctb")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReported)

	alerts := notifier.Alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, "Bad Request", alerts[0].Title)
	assert.Equal(t, "No such file.", alerts[0].Description)
}

func TestErrors_CancelledRequestIsNotReported(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/list_files", func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	fp := newFakePrinter(t, mux)
	notifier := &fakeNotifier{}
	c := newTestClient(t, fp.URL, WithNotifier(notifier))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.ListFiles(ctx, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, notifier.Alerts())
}

func TestUploadFile_StreamsMultipartWithProgress(t *testing.T) {
	content := strings.Repeat("layer-data ", 20000)
	localPath := filepath.Join(t.TempDir(), "lattice.ctb")
	require.NoError(t, os.WriteFile(localPath, []byte(content), 0644))

	var gotName, gotContent string
	var gotLength int64
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/upload_file", func(w http.ResponseWriter, r *http.Request) {
		gotLength = r.ContentLength
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		gotName = header.Filename
		gotContent = string(data)
		successHandler(w, r)
	})
	fp := newFakePrinter(t, mux)
	c := newTestClient(t, fp.URL)

	var mu sync.Mutex
	var loadedSeen []int64
	var totalSeen int64
	resp, err := c.UploadFile(context.Background(), localPath, func(loaded, total int64) {
		mu.Lock()
		defer mu.Unlock()
		loadedSeen = append(loadedSeen, loaded)
		totalSeen = total
	})
	require.NoError(t, err)
	mu.Lock()
	defer mu.Unlock()
	assert.True(t, resp.Success)

	assert.Equal(t, "lattice.ctb", gotName)
	assert.Equal(t, content, gotContent)
	assert.Greater(t, gotLength, int64(len(content)), "content length should cover the multipart framing")

	require.NotEmpty(t, loadedSeen)
	assert.Equal(t, int64(len(content)), totalSeen)
	for i := 1; i < len(loadedSeen); i++ {
		assert.GreaterOrEqual(t, loadedSeen[i], loadedSeen[i-1], "progress must never decrease")
	}
	assert.Equal(t, int64(len(content)), loadedSeen[len(loadedSeen)-1])
}

func TestUploadFile_MissingLocalFile(t *testing.T) {
	fp := newFakePrinter(t, http.NewServeMux())
	c := newTestClient(t, fp.URL)

	_, err := c.UploadFile(context.Background(), filepath.Join(t.TempDir(), "missing.ctb"), nil)
	assert.Error(t, err)
	assert.Empty(t, fp.Requests())
}
