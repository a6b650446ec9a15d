package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mariner3d/marinerctl/api"
	"github.com/mariner3d/marinerctl/internal/alert"
	appevents "github.com/mariner3d/marinerctl/internal/app_events"
	"github.com/mariner3d/marinerctl/internal/app_events/files"
	"github.com/mariner3d/marinerctl/internal/app_events/printer"
	"github.com/mariner3d/marinerctl/internal/config"
	"github.com/mariner3d/marinerctl/pkg/browser"
	"github.com/mariner3d/marinerctl/pkg/poller"
	"golang.org/x/sync/errgroup"
)

const progressInterval = 100 * time.Millisecond

// Client is the printer API the app drives.
type Client interface {
	browser.Service
	poller.Fetcher
	FetchMetadata(ctx context.Context) (*api.Metadata, error)
	FileDetails(ctx context.Context, path string) (*api.FileDetails, error)
	PreviewURL(path string) string
	PausePrint(ctx context.Context) (*api.CommandResponse, error)
	ResumePrint(ctx context.Context) (*api.CommandResponse, error)
	CancelPrint(ctx context.Context) (*api.CommandResponse, error)
	RebootPrinter(ctx context.Context) (*api.CommandResponse, error)
}

// App is the main application logic controller behind the TUI.
type App struct {
	cfg        *config.Config
	client     Client
	alerts     *alert.Service
	poller     *poller.Poller
	browser    *browser.Browser
	uiMessages chan tea.Msg            // App -> TUI
	appEvents  chan appevents.AppEvent // TUI -> App
	tasks      sync.WaitGroup          // Track command goroutines

	// ctx is the lifetime of Run, used by browser change notifications.
	ctxMu sync.RWMutex
	ctx   context.Context
}

// NewApp creates an app talking to the server configured in cfg. Request
// failures are reported through the app's alert queue.
func NewApp(cfg *config.Config) (*App, error) {
	alerts := alert.NewService()
	client, err := api.NewClient(cfg.Server.URL,
		api.WithNotifier(alerts),
		api.WithTimeout(cfg.Server.Timeout),
		api.WithCSRFToken(cfg.Server.CSRFToken),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	return New(client, alerts, cfg), nil
}

// New creates an app from its parts. alerts should be the notifier
// registered on client.
func New(client Client, alerts *alert.Service, cfg *config.Config) *App {
	a := &App{
		cfg:        cfg,
		client:     client,
		alerts:     alerts,
		uiMessages: make(chan tea.Msg, 32),
		appEvents:  make(chan appevents.AppEvent, 8),
		ctx:        context.Background(),
	}
	a.poller = poller.New(client, poller.Config{
		Interval:    cfg.Poll.Interval,
		SettleDelay: cfg.Poll.SettleDelay,
	})
	a.browser = browser.New(client, browser.Options{
		ShowHidden: cfg.Browser.ShowHidden,
		Extensions: cfg.Printer.UploadExtensions,
		OnChange:   a.onListingChange,
	})
	return a
}

// UIMessages returns the channel for the UI to listen on for updates.
func (a *App) UIMessages() <-chan tea.Msg {
	return a.uiMessages
}

// AppEvents returns a write-only channel for the TUI to send events to the app.
func (a *App) AppEvents() chan<- appevents.AppEvent {
	return a.appEvents
}

// Extensions returns the file types accepted for upload.
func (a *App) Extensions() []string {
	return a.browser.Extensions()
}

// Run starts polling, performs the initial listing and serves events until
// ctx is done.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	a.ctxMu.Lock()
	a.ctx = ctx
	a.ctxMu.Unlock()

	g.Go(func() error {
		a.bootstrap(ctx)
		return nil
	})

	g.Go(func() error {
		if _, err := a.browser.SetPath(ctx, a.cfg.Browser.StartPath); err != nil {
			a.reportError(ctx, "Failed to list files", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := a.poller.Run(ctx); err != nil {
			slog.Error("Status polling stopped", "error", err)
			a.send(ctx, printer.PollerStoppedMsg{Err: err})
		}
		return nil
	})

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case r := <-a.poller.Results():
				a.send(ctx, printer.StatusMsg{Result: r})
			}
		}
	})

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-a.alerts.Changes():
				a.send(ctx, a.alertMsg())
			}
		}
	})

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				// Wait for in-flight commands; their requests share ctx.
				a.tasks.Wait()
				return nil
			case event := <-a.appEvents:
				a.handleEvent(ctx, event)
			}
		}
	})
	return g.Wait()
}

// bootstrap applies the configuration embedded in the server's index page.
func (a *App) bootstrap(ctx context.Context) {
	meta, err := a.client.FetchMetadata(ctx)
	if err != nil {
		slog.Warn("Failed to fetch server metadata, using config defaults", "error", err)
		return
	}
	if len(meta.SupportedExtensions) > 0 {
		a.browser.SetExtensions(meta.SupportedExtensions)
	}
	if meta.PrinterDisplayName == "" {
		meta.PrinterDisplayName = a.cfg.Printer.DisplayName
	}
	slog.Info("Fetched server metadata", "printer", meta.PrinterDisplayName, "extensions", meta.SupportedExtensions)
	a.send(ctx, printer.MetadataMsg{Metadata: *meta})
}

func (a *App) handleEvent(ctx context.Context, event appevents.AppEvent) {
	switch e := event.(type) {
	case appevents.DismissAlertEvent:
		a.alerts.Dismiss(e.ID)
	case printer.RefreshStatusEvent:
		a.poller.Refresh()
	case printer.CommandEvent:
		a.spawn(func() { a.runCommand(ctx, e.Command) })
	case files.RefreshEvent:
		a.spawn(func() { a.list(ctx, a.browser.Refresh) })
	case files.EnterDirEvent:
		a.spawn(func() {
			a.list(ctx, func(ctx context.Context) (browser.View, error) { return a.browser.Enter(ctx, e.Dirname) })
		})
	case files.UpEvent:
		a.spawn(func() { a.list(ctx, a.browser.Up) })
	case files.DetailsEvent:
		a.spawn(func() { a.details(ctx, e.File) })
	case files.DeleteEvent:
		a.spawn(func() { a.deleteFile(ctx, e.Path) })
	case files.PrintEvent:
		a.spawn(func() { a.startPrint(ctx, e.Path) })
	case files.UploadEvent:
		a.spawn(func() { a.upload(ctx, e.LocalPath) })
	default:
		slog.Warn("Unhandled app event", "event", fmt.Sprintf("%T", event))
	}
}

// spawn runs a command off the event loop so a blocking alert cannot stall it.
func (a *App) spawn(fn func()) {
	a.tasks.Add(1)
	go func() {
		defer a.tasks.Done()
		fn()
	}()
}

func (a *App) runCommand(ctx context.Context, cmd printer.Command) {
	var err error
	switch cmd {
	case printer.CommandPause:
		_, err = a.client.PausePrint(ctx)
	case printer.CommandResume:
		_, err = a.client.ResumePrint(ctx)
	case printer.CommandCancel:
		_, err = a.client.CancelPrint(ctx)
	case printer.CommandReboot:
		_, err = a.client.RebootPrinter(ctx)
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}
	// The server applies commands asynchronously; re-read its state either way.
	a.poller.Refresh()

	if err != nil {
		a.reportError(ctx, fmt.Sprintf("Failed to %s", cmd), err)
	} else {
		slog.Info("Printer command sent", "command", cmd)
	}
	a.send(ctx, printer.CommandDoneMsg{Command: cmd, Err: err})
}

func (a *App) list(ctx context.Context, fn func(context.Context) (browser.View, error)) {
	if _, err := fn(ctx); err != nil {
		a.reportError(ctx, "Failed to list files", err)
	}
}

func (a *App) onListingChange(v browser.View) {
	a.ctxMu.RLock()
	ctx := a.ctx
	a.ctxMu.RUnlock()
	a.send(ctx, files.ListingMsg{View: v})
}

func (a *App) details(ctx context.Context, file api.File) {
	details, err := a.client.FileDetails(ctx, file.Path)
	if err != nil {
		a.reportError(ctx, "Failed to load file details", err)
	}
	a.send(ctx, files.DetailsMsg{
		File:       file,
		Details:    details,
		PreviewURL: a.client.PreviewURL(file.Path),
		Err:        err,
	})
}

func (a *App) deleteFile(ctx context.Context, path string) {
	err := a.browser.Delete(ctx, path)
	if err != nil {
		a.reportError(ctx, "Failed to delete file", err)
	}
	a.send(ctx, files.DeletedMsg{Path: path, Err: err})
}

func (a *App) startPrint(ctx context.Context, path string) {
	if err := a.browser.Print(ctx, path); err != nil {
		a.reportError(ctx, "Failed to start print", err)
		a.send(ctx, files.PrintFailedMsg{Path: path, Err: err})
		return
	}
	a.poller.Refresh()
	a.send(ctx, files.PrintStartedMsg{Path: path})
}

func (a *App) upload(ctx context.Context, localPath string) {
	name := filepath.Base(localPath)
	var total int64
	if info, err := os.Stat(localPath); err == nil {
		total = info.Size()
	}
	a.send(ctx, files.UploadStartedMsg{Name: name, Total: total})

	var last time.Time
	onProgress := func(loaded, total int64) {
		// Intermediate updates are throttled and may be dropped; the final
		// one is always delivered.
		if loaded == total {
			a.send(ctx, files.UploadProgressMsg{Loaded: loaded, Total: total})
			return
		}
		if now := time.Now(); now.Sub(last) >= progressInterval {
			last = now
			a.trySend(files.UploadProgressMsg{Loaded: loaded, Total: total})
		}
	}

	err := a.browser.Upload(ctx, localPath, onProgress)
	if err != nil {
		a.reportError(ctx, "Upload failed", err)
	}
	a.send(ctx, files.UploadDoneMsg{Name: name, Err: err})
}

// reportError logs err and forwards it to the UI unless the user has
// already seen it as an alert.
func (a *App) reportError(ctx context.Context, baseMessage string, err error) {
	switch {
	case errors.Is(err, browser.ErrStale), ctx.Err() != nil:
		return
	case errors.Is(err, api.ErrReported):
		slog.Info(baseMessage, "error", err)
		return
	}
	slog.Error(baseMessage, "error", err)
	a.send(ctx, appevents.AppErrorMsg{Err: fmt.Errorf("%s: %w", baseMessage, err)})
}

func (a *App) alertMsg() appevents.AlertMsg {
	shown, ok := a.alerts.Current()
	if !ok {
		return appevents.AlertMsg{}
	}
	return appevents.AlertMsg{ID: shown.ID, Alert: &shown.Options, Pending: a.alerts.Pending()}
}

func (a *App) send(ctx context.Context, msg tea.Msg) {
	select {
	case a.uiMessages <- msg:
	case <-ctx.Done():
	}
}

func (a *App) trySend(msg tea.Msg) {
	select {
	case a.uiMessages <- msg:
	default:
	}
}
