package ui

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mariner3d/marinerctl/api"
	filesEvent "github.com/mariner3d/marinerctl/internal/app_events/files"
	"github.com/mariner3d/marinerctl/internal/style"
	"github.com/mariner3d/marinerctl/internal/util"
	"github.com/mariner3d/marinerctl/pkg/browser"
	"github.com/mariner3d/marinerctl/pkg/filepicker"
	"github.com/mariner3d/marinerctl/pkg/ui/components"
)

var fileColumns = []table.Column{
	{Title: "Name", Width: 40},
	{Title: "Print Time", Width: 12},
}

type detailsDialog struct {
	file          api.File
	loading       bool
	details       *api.FileDetails
	previewURL    string
	err           error
	confirmDelete bool
}

type uploadState struct {
	name   string
	loaded int64
	total  int64
}

type filesModel struct {
	spinner    spinner.Model
	table      table.Model
	progress   progress.Model
	view       browser.View
	generation uint64 // newest listing applied
	details    *detailsDialog
	picking    bool
	picker     filepicker.Model
	upload     *uploadState
	notice     string
}

func initFilesModel() filesModel {
	t := table.New(
		table.WithColumns(fileColumns),
		table.WithRows([]table.Row{}),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(style.NewTableStyles())

	return filesModel{
		spinner:  style.NewSpinner(),
		table:    t,
		progress: style.NewProgress(defaultProgressWidth),
		view:     browser.View{Loading: true},
	}
}

// applyListing renders a browser snapshot. Snapshots older than the newest
// one applied are dropped.
func (f *filesModel) applyListing(v browser.View) {
	if v.Generation < f.generation {
		slog.Debug("Ignoring out of order listing", "generation", v.Generation, "newest", f.generation)
		return
	}
	pathChanged := v.Path != f.view.Path
	f.generation = v.Generation
	f.view = v

	rows := make([]table.Row, 0, len(v.Directories)+len(v.Files))
	for _, d := range v.Directories {
		rows = append(rows, table.Row{d.Dirname + "/", ""})
	}
	for _, file := range v.Files {
		printTime := "-"
		if file.PrintTimeSecs != nil {
			printTime = util.FormatDuration(*file.PrintTimeSecs)
		}
		rows = append(rows, table.Row{file.Filename, printTime})
	}
	f.table.SetRows(rows)
	if pathChanged || f.table.Cursor() >= len(rows) {
		f.table.SetCursor(0)
	}
}

// selected returns the entry under the cursor. Exactly one of the results
// is non-nil when the listing is not empty.
func (f *filesModel) selected() (*api.Directory, *api.File) {
	i := f.table.Cursor()
	if i < 0 {
		return nil, nil
	}
	if i < len(f.view.Directories) {
		return &f.view.Directories[i], nil
	}
	i -= len(f.view.Directories)
	if i < len(f.view.Files) {
		return nil, &f.view.Files[i]
	}
	return nil, nil
}

func (m *model) handleFilesMsg(msg tea.Msg) bool {
	f := &m.files
	switch msg := msg.(type) {
	case filesEvent.ListingMsg:
		f.applyListing(msg.View)
		return true
	case filesEvent.DetailsMsg:
		if f.details != nil && f.details.file.Path == msg.File.Path {
			f.details.loading = false
			f.details.details = msg.Details
			f.details.previewURL = msg.PreviewURL
			f.details.err = msg.Err
		}
		return true
	case filesEvent.DeletedMsg:
		if msg.Err == nil {
			f.notice = "Deleted " + msg.Path
		}
		return true
	case filesEvent.PrintStartedMsg:
		m.tab = statusTab
		return true
	case filesEvent.PrintFailedMsg:
		return true
	case filesEvent.UploadStartedMsg:
		f.notice = ""
		f.upload = &uploadState{name: msg.Name, total: msg.Total}
		return true
	case filesEvent.UploadProgressMsg:
		if f.upload != nil && msg.Loaded >= f.upload.loaded {
			f.upload.loaded = msg.Loaded
			f.upload.total = msg.Total
		}
		return true
	case filesEvent.UploadDoneMsg:
		f.upload = nil
		if msg.Err == nil {
			f.notice = "Uploaded " + msg.Name
		}
		return true
	}
	return false
}

func (m *model) updateFiles(msg tea.Msg) tea.Cmd {
	f := &m.files
	if f.picking {
		return m.updatePicker(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	if f.details != nil {
		m.updateDetailsKeys(keyMsg)
		return nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Open):
		dir, file := f.selected()
		switch {
		case dir != nil:
			m.appController.AppEvents() <- filesEvent.EnterDirEvent{Dirname: dir.Dirname}
		case file != nil:
			m.openDetails(*file)
		}
		return nil
	case key.Matches(keyMsg, m.keys.Back):
		m.appController.AppEvents() <- filesEvent.UpEvent{}
		return nil
	case key.Matches(keyMsg, m.keys.Refresh):
		m.appController.AppEvents() <- filesEvent.RefreshEvent{}
		return nil
	case key.Matches(keyMsg, m.keys.Upload):
		if f.upload != nil {
			f.notice = "An upload is already in progress."
			return nil
		}
		f.picker = filepicker.New(m.appController.Extensions())
		f.picking = true
		return f.picker.Init()
	}

	var cmd tea.Cmd
	f.table, cmd = f.table.Update(msg)
	return cmd
}

// openDetails shows the details dialog. Details are only fetched for files
// the printer can print.
func (m *model) openDetails(file api.File) {
	d := &detailsDialog{file: file}
	if browser.ActionsFor(file).Print {
		d.loading = true
		m.appController.AppEvents() <- filesEvent.DetailsEvent{File: file}
	}
	m.files.details = d
}

func (m *model) updateDetailsKeys(msg tea.KeyMsg) {
	f := &m.files
	d := f.details
	actions := browser.ActionsFor(d.file)

	if d.confirmDelete {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			m.appController.AppEvents() <- filesEvent.DeleteEvent{Path: d.file.Path}
			f.details = nil
		case key.Matches(msg, m.keys.Deny):
			d.confirmDelete = false
		}
		return
	}

	switch {
	case key.Matches(msg, m.keys.Close):
		f.details = nil
	case key.Matches(msg, m.keys.Print) && actions.Print:
		m.appController.AppEvents() <- filesEvent.PrintEvent{Path: d.file.Path}
		f.details = nil
	case key.Matches(msg, m.keys.Delete) && actions.Delete:
		d.confirmDelete = true
	}
}

func (m *model) updatePicker(msg tea.Msg) tea.Cmd {
	f := &m.files
	switch msg := msg.(type) {
	case filepicker.SelectedFileMsg:
		f.picking = false
		m.appController.AppEvents() <- filesEvent.UploadEvent{LocalPath: msg.File.Path}
		return nil
	case filepicker.CancelledMsg:
		f.picking = false
		return nil
	}
	newPicker, cmd := f.picker.Update(msg)
	f.picker = newPicker.(filepicker.Model)
	return cmd
}

func (m *model) filesHelp() helpKeys {
	f := m.files
	switch {
	case f.picking:
		return helpKeys{}
	case f.details != nil && f.details.confirmDelete:
		return helpKeys{m.keys.Confirm, m.keys.Deny}
	case f.details != nil:
		keys := helpKeys{}
		if browser.ActionsFor(f.details.file).Print {
			keys = append(keys, m.keys.Print)
		}
		return append(keys, m.keys.Delete, m.keys.Close)
	}
	return helpKeys{m.keys.Open, m.keys.Back, m.keys.Upload, m.keys.Refresh}
}

func (m *model) filesView() string {
	f := m.files
	if f.picking {
		return f.picker.View()
	}
	if f.details != nil {
		return m.detailsView()
	}

	var b strings.Builder
	b.WriteString(style.HeaderStyle.Render("/"+f.view.Path) + "\n")

	switch {
	case f.view.Err != nil:
		b.WriteString(style.ErrorStyle.Render("Failed to list files: " + f.view.Err.Error()))
	case f.view.Loading && f.view.Empty():
		b.WriteString(fmt.Sprintf("\n%s Loading files...", f.spinner.View()))
	case f.view.Empty():
		b.WriteString(style.FaintStyle.Render("This directory is empty."))
	default:
		b.WriteString(style.BaseStyle.Render(f.table.View()))
		if f.view.Loading {
			b.WriteString("\n" + f.spinner.View() + " Refreshing...")
		}
	}

	if f.upload != nil {
		ratio := 0.0
		if f.upload.total > 0 {
			ratio = float64(f.upload.loaded) / float64(f.upload.total)
		}
		b.WriteString(fmt.Sprintf("\n\nUploading %s\n%s %s / %s",
			style.HighlightFontStyle.Render(f.upload.name),
			f.progress.ViewAs(ratio),
			util.FormatSize(f.upload.loaded), util.FormatSize(f.upload.total)))
	}
	if f.notice != "" {
		b.WriteString("\n\n" + style.SuccessStyle.Render(f.notice))
	}
	return b.String()
}

func (m *model) detailsView() string {
	d := m.files.details
	actions := browser.ActionsFor(d.file)

	var body string
	switch {
	case !actions.Print:
		body = "This file cannot be printed."
	case d.loading:
		body = m.files.spinner.View() + " Loading details..."
	case d.err != nil:
		body = style.ErrorStyle.Render("Failed to load details.")
	default:
		body = components.KeyValueTable(detailRows(d.details))
		if d.previewURL != "" {
			body += "\n\n" + style.FaintStyle.Render("Preview: "+d.previewURL)
		}
	}

	dialog := components.Dialog{
		Title: d.file.Filename,
		Body:  body,
		Buttons: []string{
			components.Button("esc Cancel", true),
			components.Button("p Print", actions.Print),
			components.Button("d Delete", actions.Delete),
		},
	}.View()

	if d.confirmDelete {
		dialog += "\n" + components.Confirm(fmt.Sprintf("Are you sure you want to permanently delete the file %s?", d.file.Filename))
	}
	return dialog
}

func detailRows(d *api.FileDetails) [][2]string {
	if d == nil {
		return nil
	}
	return [][2]string{
		{"Print Time", util.FormatDuration(d.PrintTimeSecs)},
		{"Height", util.FormatMillimetres(d.HeightMM)},
		{"Layer Count", strconv.Itoa(d.LayerCount)},
		{"Layer Height", util.FormatMillimetres(d.LayerHeightMM)},
		{"Resolution", util.JoinValues(d.Resolution[:], strconv.Itoa)},
		{"Bed Size", util.JoinValues(d.BedSizeMM[:], util.FormatMillimetres)},
	}
}
