package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mariner3d/marinerctl/api"
	"github.com/mariner3d/marinerctl/internal/util"
	"github.com/mariner3d/marinerctl/pkg/concurrency"
)

// DefaultExtensions are the file types the printer can slice-print.
var DefaultExtensions = []string{".ctb", ".cbddlp", ".fdg", ".photon"}

var (
	// ErrStale is returned by a listing that was superseded by a newer one.
	// Its result has not been applied.
	ErrStale = errors.New("listing superseded by a newer request")

	ErrUnsupportedFile = errors.New("unsupported file type")
)

// Service is the part of the API client the browser needs.
type Service interface {
	ListFiles(ctx context.Context, path string) (*api.FileList, error)
	DeleteFile(ctx context.Context, path string) (*api.CommandResponse, error)
	StartPrint(ctx context.Context, filename string) (*api.CommandResponse, error)
	UploadFile(ctx context.Context, localPath string, onProgress api.ProgressFunc) (*api.CommandResponse, error)
}

type Options struct {
	ShowHidden bool
	// Extensions accepted for upload. Defaults to DefaultExtensions.
	Extensions []string
	// OnChange is called with the new state when a listing starts and when
	// it is applied. It is never called for stale listings.
	OnChange func(View)
}

// View is a snapshot of the browser for rendering. Generation increases
// with every listing; a consumer should drop views older than the newest
// one it has seen.
type View struct {
	Generation  uint64
	Path        string
	Loading     bool
	Directories []api.Directory
	Files       []api.File
	Err         error
}

// Empty reports whether the current listing has no visible entries.
func (v View) Empty() bool {
	return len(v.Directories) == 0 && len(v.Files) == 0
}

// Actions says which actions the details view offers for a file.
type Actions struct {
	Print  bool
	Delete bool
}

// ActionsFor disables printing for files the printer cannot print. Such
// files stay visible and deletable.
func ActionsFor(f api.File) Actions {
	return Actions{Print: f.CanBePrinted, Delete: true}
}

// Browser navigates the printer's files directory. Only the newest listing
// is ever applied.
type Browser struct {
	svc   Service
	guard *concurrency.ConcurrencyGuard

	mu         sync.Mutex
	view       View
	generation uint64
	cancel     context.CancelFunc
	showHidden bool
	extensions []string
	onChange   func(View)
}

func New(svc Service, opts Options) *Browser {
	b := &Browser{
		svc:        svc,
		guard:      concurrency.NewConcurrencyGuard(),
		showHidden: opts.ShowHidden,
		onChange:   opts.OnChange,
		view:       View{Loading: true, Directories: []api.Directory{}, Files: []api.File{}},
	}
	b.SetExtensions(opts.Extensions)
	return b
}

// Path returns the current directory. The root is "".
func (b *Browser) Path() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.view.Path
}

// View returns a copy of the current state.
func (b *Browser) View() View {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshot()
}

// SetShowHidden toggles dotfile filtering. It applies from the next listing.
func (b *Browser) SetShowHidden(show bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.showHidden = show
}

// SetExtensions replaces the upload whitelist. An empty list restores the
// defaults.
func (b *Browser) SetExtensions(exts []string) {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	normalized := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		normalized = append(normalized, e)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.extensions = normalized
}

func (b *Browser) Extensions() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.extensions...)
}

// Uploading reports whether an upload is in progress.
func (b *Browser) Uploading() bool {
	return b.guard.Busy()
}

// Refresh re-lists the current directory.
func (b *Browser) Refresh(ctx context.Context) (View, error) {
	return b.list(ctx, b.Path())
}

// Enter descends into dirname.
func (b *Browser) Enter(ctx context.Context, dirname string) (View, error) {
	return b.list(ctx, util.JoinDir(b.Path(), dirname))
}

// Up moves to the parent directory. At the root it re-lists the root.
func (b *Browser) Up(ctx context.Context) (View, error) {
	return b.list(ctx, util.ParentDir(b.Path()))
}

// SetPath jumps to path.
func (b *Browser) SetPath(ctx context.Context, path string) (View, error) {
	return b.list(ctx, util.NormalizeDir(path))
}

// Delete removes the file at path and re-lists on success.
func (b *Browser) Delete(ctx context.Context, path string) error {
	if _, err := b.svc.DeleteFile(ctx, path); err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	slog.Info("Deleted file", "path", path)
	return b.relist(ctx)
}

// Print starts printing the file at path.
func (b *Browser) Print(ctx context.Context, path string) error {
	if _, err := b.svc.StartPrint(ctx, path); err != nil {
		return fmt.Errorf("failed to start print of %s: %w", path, err)
	}
	slog.Info("Started print", "path", path)
	return nil
}

// Upload sends a local file to the printer. Only one upload runs at a time;
// a second one fails with concurrency.ErrBusy. The listing is refreshed once
// the upload has succeeded.
func (b *Browser) Upload(ctx context.Context, localPath string, onProgress api.ProgressFunc) error {
	exts := b.Extensions()
	if !util.HasExtension(localPath, exts) {
		return fmt.Errorf("%w: %s (supported: %s)", ErrUnsupportedFile, filepath.Base(localPath), strings.Join(exts, ", "))
	}

	err := b.guard.ExecuteWithContext(ctx, func(ctx context.Context) error {
		_, err := b.svc.UploadFile(ctx, localPath, onProgress)
		return err
	})
	if err != nil {
		if errors.Is(err, concurrency.ErrBusy) {
			return err
		}
		return fmt.Errorf("failed to upload %s: %w", filepath.Base(localPath), err)
	}
	slog.Info("Uploaded file", "path", localPath)
	return b.relist(ctx)
}

// relist refreshes after a mutation. A newer listing already in flight
// makes this one redundant.
func (b *Browser) relist(ctx context.Context) error {
	if _, err := b.Refresh(ctx); err != nil && !errors.Is(err, ErrStale) {
		return err
	}
	return nil
}

func (b *Browser) list(ctx context.Context, path string) (View, error) {
	b.mu.Lock()
	if b.cancel != nil {
		b.cancel()
	}
	b.generation++
	gen := b.generation
	listCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel

	if path != b.view.Path {
		b.view.Directories = []api.Directory{}
		b.view.Files = []api.File{}
	}
	b.view.Generation = gen
	b.view.Path = path
	b.view.Loading = true
	b.view.Err = nil
	started := b.snapshot()
	b.mu.Unlock()
	defer cancel()
	b.notify(started)

	list, err := b.svc.ListFiles(listCtx, path)

	b.mu.Lock()
	if gen != b.generation {
		b.mu.Unlock()
		slog.Debug("Discarding stale listing", "path", path)
		return View{}, ErrStale
	}
	b.cancel = nil
	b.view.Loading = false
	if err != nil {
		b.view.Err = err
	} else {
		b.view.Directories = make([]api.Directory, 0, len(list.Directories))
		for _, d := range list.Directories {
			if b.showHidden || !util.IsHidden(d.Dirname) {
				b.view.Directories = append(b.view.Directories, d)
			}
		}
		b.view.Files = make([]api.File, 0, len(list.Files))
		for _, f := range list.Files {
			if b.showHidden || !util.IsHidden(f.Filename) {
				b.view.Files = append(b.view.Files, f)
			}
		}
	}
	done := b.snapshot()
	b.mu.Unlock()
	b.notify(done)

	if err != nil {
		return done, fmt.Errorf("failed to list %q: %w", path, err)
	}
	return done, nil
}

func (b *Browser) notify(v View) {
	if b.onChange != nil {
		b.onChange(v)
	}
}

func (b *Browser) snapshot() View {
	v := b.view
	v.Directories = append([]api.Directory{}, b.view.Directories...)
	v.Files = append([]api.File{}, b.view.Files...)
	return v
}
