package filepicker

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gabriel-vasile/mimetype"
	"github.com/mariner3d/marinerctl/internal/style"
	"github.com/mariner3d/marinerctl/internal/util"
	"github.com/mariner3d/marinerctl/pkg/fileInfo"
)

type mode int

const (
	modeBrowse mode = iota
	modeInput
)

// SelectedFileMsg is emitted when the user picks a file.
type SelectedFileMsg struct {
	File fileInfo.FileNode
}

// CancelledMsg is emitted when the user leaves the picker without a choice.
type CancelledMsg struct{}

// --- Key Map ---
type KeyMap struct {
	Up           key.Binding
	Down         key.Binding
	Left         key.Binding // Page up
	Right        key.Binding // Page down
	Open         key.Binding
	Back         key.Binding
	ToggleInput  key.Binding
	ToggleHidden key.Binding
	Cancel       key.Binding
}

var DefaultKeyMap = KeyMap{
	Up:           key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "move up")),
	Down:         key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "move down")),
	Left:         key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "page up")),
	Right:        key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "page down")),
	Open:         key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open/upload")),
	Back:         key.NewBinding(key.WithKeys("backspace"), key.WithHelp("backspace", "parent dir")),
	ToggleInput:  key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "input path")),
	ToggleHidden: key.NewBinding(key.WithKeys("."), key.WithHelp(".", "show hidden")),
	Cancel:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
}

type entry struct {
	name     string
	isDir    bool
	size     int64
	modTime  time.Time
	mimeType string
}

// Model is a local file picker that only offers uploadable files.
type Model struct {
	path       string
	items      []entry
	extensions []string
	showHidden bool
	cursor     int
	keys       KeyMap
	mode       mode
	input      textinput.Model
	inputErr   error
	height     int // For viewport height
	offset     int // For scrolling
}

// New creates a picker rooted at the working directory that offers files
// with one of extensions.
func New(extensions []string) Model {
	ti := textinput.New()
	ti.Placeholder = "/path/to/models"
	ti.CharLimit = 256
	ti.Width = 80
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))

	m := Model{
		extensions: extensions,
		keys:       DefaultKeyMap,
		mode:       modeBrowse,
		input:      ti,
	}
	wd, err := os.Getwd()
	if err != nil {
		slog.Warn("Could not get working directory", "error", err)
		m.mode = modeInput
		m.input.Focus()
		return m
	}
	if err := m.SetPath(wd); err != nil {
		m.inputErr = err
		m.mode = modeInput
		m.input.Focus()
	}
	return m
}

// Path returns the directory being browsed.
func (m Model) Path() string {
	return m.path
}

// SetExtensions replaces the accepted file types and reloads the directory.
func (m *Model) SetExtensions(exts []string) {
	m.extensions = exts
	if m.path != "" {
		if err := m.SetPath(m.path); err != nil {
			m.inputErr = err
		}
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Cancel) {
			if m.mode == modeInput && m.path != "" {
				m.mode = modeBrowse
				m.input.Blur()
				m.input.Reset()
				m.inputErr = nil
				return m, nil
			}
			return m, func() tea.Msg { return CancelledMsg{} }
		}

		switch m.mode {
		case modeBrowse:
			return m.updateBrowse(msg)
		case modeInput:
			return m.updateInput(msg)
		}
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	visibleItems := m.visibleItems()

	switch {
	case key.Matches(msg, m.keys.ToggleInput):
		m.mode = modeInput
		m.input.SetValue(m.path)
		m.input.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.ToggleHidden):
		m.showHidden = !m.showHidden
		if err := m.SetPath(m.path); err != nil {
			m.inputErr = err
		}

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
			if m.cursor < m.offset {
				m.offset--
			}
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
			if m.cursor >= m.offset+visibleItems {
				m.offset++
			}
		}

	case key.Matches(msg, m.keys.Right): // Page down
		m.cursor = min(m.cursor+visibleItems, len(m.items)-1)
		m.offset = max(0, min(m.offset+visibleItems, len(m.items)-visibleItems))
		if m.cursor >= m.offset+visibleItems {
			m.offset = m.cursor - visibleItems + 1
		}
		m.cursor = max(m.cursor, 0)

	case key.Matches(msg, m.keys.Left): // Page up
		m.cursor = max(m.cursor-visibleItems, 0)
		m.offset = max(m.offset-visibleItems, 0)
		if m.cursor < m.offset {
			m.offset = m.cursor
		}

	case key.Matches(msg, m.keys.Back):
		parent := filepath.Dir(m.path)
		if parent != m.path {
			if err := m.SetPath(parent); err != nil {
				m.inputErr = err
			}
		}

	case key.Matches(msg, m.keys.Open):
		if len(m.items) == 0 {
			return m, nil
		}
		item := m.items[m.cursor]
		path := filepath.Join(m.path, item.name)
		if item.isDir {
			if err := m.SetPath(path); err != nil {
				m.inputErr = err
			}
			return m, nil
		}
		node, err := fileInfo.CreateNode(path)
		if err != nil {
			m.inputErr = fmt.Errorf("could not read file: %w", err)
			return m, nil
		}
		return m, func() tea.Msg { return SelectedFileMsg{File: node} }
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Open) {
		path := m.input.Value()
		if !filepath.IsAbs(path) && m.path != "" {
			path = filepath.Join(m.path, path)
		}
		if err := m.SetPath(path); err != nil {
			m.inputErr = err
			return m, nil
		}
		m.input.Blur()
		m.input.Reset()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// SetPath loads the directory at path.
func (m *Model) SetPath(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	exists, isDir, err := util.CheckDirectory(absPath)
	if err != nil {
		return fmt.Errorf("could not stat %s: %w", absPath, err)
	}
	if !exists {
		return fmt.Errorf("path does not exist: %s", absPath)
	}
	if !isDir {
		return fmt.Errorf("path is not a directory: %s", absPath)
	}
	dirEntries, err := os.ReadDir(absPath)
	if err != nil {
		return fmt.Errorf("could not read directory: %w", err)
	}

	items := make([]entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if !m.showHidden && util.IsHidden(de.Name()) {
			continue
		}
		if !de.IsDir() && !util.HasExtension(de.Name(), m.extensions) {
			continue
		}
		e := entry{name: de.Name(), isDir: de.IsDir()}
		if info, err := de.Info(); err == nil {
			e.size = info.Size()
			e.modTime = info.ModTime()
		}
		if !e.isDir {
			if mtype, err := mimetype.DetectFile(filepath.Join(absPath, de.Name())); err == nil {
				e.mimeType = mtype.String()
			}
		}
		items = append(items, e)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].isDir != items[j].isDir {
			return items[i].isDir
		}
		return items[i].name < items[j].name
	})

	m.path = absPath
	m.items = items
	m.cursor = 0
	m.offset = 0
	m.inputErr = nil
	m.mode = modeBrowse
	return nil
}

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(style.TitleStyle.Render("Upload a file") + "  " + m.helpView() + "\n\n")
	if m.mode == modeInput {
		s.WriteString(m.input.View() + "\n")
	}
	if m.inputErr != nil {
		s.WriteString(style.ErrorStyle.Render(m.inputErr.Error()) + "\n")
	}
	if m.path == "" {
		return s.String()
	}

	s.WriteString(fmt.Sprintf("Browsing: %s  %s\n\n", m.path,
		style.FaintStyle.Render("("+strings.Join(m.extensions, " ")+")")))

	nameWidth := 36
	timeWidth := 20
	sizeWidth := 12
	typeWidth := 28

	s.WriteString(
		style.HeaderStyle.Render(util.PadRight("", 1)) + " " +
			style.HeaderStyle.Render(util.PadRight("Name", nameWidth)) + " " +
			style.HeaderStyle.Render(util.PadRight("Last Modified", timeWidth)) + " " +
			style.HeaderStyle.Render(util.PadRight("Size", sizeWidth)) + " " +
			style.HeaderStyle.Render(util.PadRight("Type", typeWidth)) + "\n",
	)

	if len(m.items) == 0 {
		s.WriteString(style.FaintStyle.Render("  No uploadable files here.") + "\n")
		return s.String()
	}

	visibleItems := m.visibleItems()
	start := max(m.offset, 0)
	end := min(start+visibleItems, len(m.items))

	for i := start; i < end; i++ {
		item := m.items[i]
		if m.cursor == i {
			s.WriteString(style.CursorStyle.String())
		} else {
			s.WriteString(style.NoCursorStyle.String())
		}

		name := item.name
		size := util.FormatSize(item.size)
		if item.isDir {
			name += "/"
			size = "<DIR>"
		}
		modTime := ""
		if !item.modTime.IsZero() {
			modTime = item.modTime.Format("2006-01-02 15:04:05")
		}

		nameCell := util.PadRight(name, nameWidth)
		if item.isDir {
			nameCell = style.DirStyle.Render(nameCell)
		} else {
			nameCell = style.FileStyle.Render(nameCell)
		}
		s.WriteString(nameCell + " " +
			util.PadRight(modTime, timeWidth) + " " +
			util.PadRight(size, sizeWidth) + " " +
			util.PadRight(item.mimeType, typeWidth) + "\n")
	}

	if len(m.items) > visibleItems {
		s.WriteString(fmt.Sprintf("\n... %d/%d ...\n", m.cursor+1, len(m.items)))
	}
	return s.String()
}

func (m Model) helpView() string {
	return style.HelpStyle.Render(
		fmt.Sprintf("'%s' open, '%s' parent, '%s' path, '%s' hidden, '%s' back",
			m.keys.Open.Help().Key, m.keys.Back.Help().Key, m.keys.ToggleInput.Help().Key,
			m.keys.ToggleHidden.Help().Key, m.keys.Cancel.Help().Key),
	)
}

func (m Model) visibleItems() int {
	headerHeight := 10
	if m.inputErr != nil {
		headerHeight++
	}
	visible := m.height - headerHeight
	if visible < 1 {
		visible = 10
	}
	return visible
}
