// Package tui implements an interactive session browser: a filterable
// list of discovered sessions on the left, a transcript preview on the
// right.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/quarryhill/cclens/internal/conversation"
	"github.com/quarryhill/cclens/internal/discover"
	"github.com/quarryhill/cclens/internal/export"
	"github.com/quarryhill/cclens/internal/parser"
)

// message types

type previewMsg struct {
	path    string
	thread  export.Thread
	content string
	err     error
}

// model

type model struct {
	home       string
	parserOpts parser.Options

	sessions []discover.SessionFile
	filtered []discover.SessionFile
	filter   textinput.Model
	cursor   int
	offset   int

	thread     export.Thread
	preview    viewport.Model
	previewKey string

	width    int
	height   int
	ready    bool
	quitting bool
}

func initialModel(home string, sessions []discover.SessionFile, opts parser.Options) model {
	ti := textinput.New()
	ti.Placeholder = "Filter..."
	ti.Focus()
	ti.Prompt = "> "
	ti.PromptStyle = styleInputPrompt
	ti.TextStyle = styleInput
	ti.CharLimit = 128

	return model{
		home:       home,
		parserOpts: opts,
		sessions:   sessions,
		filtered:   sessions,
		filter:     ti,
		thread:     export.ThreadMain,
		preview:    viewport.New(0, 0),
	}
}

// Run starts the session browser and blocks until it exits.
func Run(home string, opts parser.Options) error {
	sessions, err := discover.ListSessions(home)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}

	m := initialModel(home, sessions, opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// Init loads the first preview.
func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadCurrentPreview())
}

// Update handles messages.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.preview = viewport.New(m.previewWidth(), m.panelHeight())
		m.previewKey = ""
		cmds = append(cmds, m.loadCurrentPreview())
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
				m.adjustScroll()
				cmds = append(cmds, m.loadCurrentPreview())
			}
			return m, tea.Batch(cmds...)

		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.filtered)-1 {
				m.cursor++
				m.adjustScroll()
				cmds = append(cmds, m.loadCurrentPreview())
			}
			return m, tea.Batch(cmds...)

		case key.Matches(msg, keys.Thread):
			if m.thread == export.ThreadMain {
				m.thread = export.ThreadAll
			} else {
				m.thread = export.ThreadMain
			}
			m.previewKey = ""
			cmds = append(cmds, m.loadCurrentPreview())
			return m, tea.Batch(cmds...)

		case key.Matches(msg, keys.PreviewUp):
			m.preview.LineUp(m.panelHeight() / 2)
			return m, nil

		case key.Matches(msg, keys.PreviewDn):
			m.preview.LineDown(m.panelHeight() / 2)
			return m, nil
		}

		var tiCmd tea.Cmd
		m.filter, tiCmd = m.filter.Update(msg)
		cmds = append(cmds, tiCmd)

		m.applyFilter(m.filter.Value())
		cmds = append(cmds, m.loadCurrentPreview())
		return m, tea.Batch(cmds...)

	case previewMsg:
		if msg.path != m.currentPath() || msg.thread != m.thread {
			return m, nil // stale preview
		}
		if msg.err != nil {
			m.preview.SetContent("Preview error: " + msg.err.Error())
		} else {
			m.preview.SetContent(msg.content)
			m.preview.GotoTop()
		}
		m.previewKey = previewCacheKey(msg.path, msg.thread)
		return m, nil
	}

	return m, tea.Batch(cmds...)
}

// View renders the full browser.
func (m model) View() string {
	if m.quitting || !m.ready {
		return ""
	}

	listW := m.listWidth()
	previewW := m.previewWidth()
	panelH := m.panelHeight()

	inputRow := m.filter.View()

	listPanel := stylePanelBorder.
		Width(listW).
		Height(panelH).
		Render(m.renderList(listW, panelH))

	m.preview.Width = previewW
	m.preview.Height = panelH
	previewPanel := styleActiveBorder.
		Width(previewW).
		Height(panelH).
		Render(m.preview.View())

	panels := lipgloss.JoinHorizontal(lipgloss.Top, listPanel, previewPanel)

	return lipgloss.JoinVertical(lipgloss.Left, inputRow, panels, m.statusBar())
}

func (m model) renderList(width, height int) string {
	if len(m.filtered) == 0 {
		return styleListNormal.Render("no sessions")
	}

	var sb strings.Builder
	end := m.offset + height
	if end > len(m.filtered) {
		end = len(m.filtered)
	}
	for i := m.offset; i < end; i++ {
		s := m.filtered[i]
		line := fmt.Sprintf("%-10s %s", s.ModTime.Format("Jan 02 15:04"), shortID(s.SessionID))
		if len(line) > width {
			line = line[:width]
		}
		switch {
		case i == m.cursor:
			sb.WriteString(styleListSelected.Render("▸ " + line))
		case s.Activity != parser.Inactive:
			sb.WriteString(styleListActive.Render("  " + line))
		default:
			sb.WriteString(styleListNormal.Render("  " + line))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (m model) statusBar() string {
	parts := []string{
		fmt.Sprintf("%d sessions", len(m.filtered)),
		fmt.Sprintf("thread: %s", m.thread),
		"tab toggle thread",
		"C-u/C-d preview",
		"esc quit",
	}
	return styleStatusBar.Render(strings.Join(parts, " | "))
}

// helper methods

func (m *model) applyFilter(q string) {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		m.filtered = m.sessions
	} else {
		var out []discover.SessionFile
		for _, s := range m.sessions {
			if strings.Contains(strings.ToLower(s.SessionID), q) ||
				strings.Contains(strings.ToLower(s.ProjectHash), q) {
				out = append(out, s)
			}
		}
		m.filtered = out
	}
	if m.cursor >= len(m.filtered) {
		m.cursor = 0
		m.offset = 0
	}
}

func (m *model) adjustScroll() {
	h := m.panelHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
}

func (m model) currentPath() string {
	if len(m.filtered) == 0 || m.cursor >= len(m.filtered) {
		return ""
	}
	return m.filtered[m.cursor].Path
}

func (m model) loadCurrentPreview() tea.Cmd {
	path := m.currentPath()
	if path == "" {
		return nil
	}
	if previewCacheKey(path, m.thread) == m.previewKey {
		return nil // already showing this preview
	}

	opts := m.parserOpts
	thread := m.thread
	return func() tea.Msg {
		records, _, err := parser.ReadFile(path, opts)
		if err != nil {
			return previewMsg{path: path, thread: thread, err: err}
		}
		conv := conversation.Build(records)
		var sb strings.Builder
		err = export.WriteMarkdown(&sb, conv, export.MarkdownOptions{
			Thread:     thread,
			Timestamps: true,
		})
		return previewMsg{path: path, thread: thread, content: sb.String(), err: err}
	}
}

func previewCacheKey(path string, thread export.Thread) string {
	return path + ":" + string(thread)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (m model) listWidth() int {
	if m.width <= 0 {
		return 40
	}
	w := m.width*40/100 - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m model) previewWidth() int {
	if m.width <= 0 {
		return 60
	}
	w := m.width*60/100 - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m model) panelHeight() int {
	if m.height <= 0 {
		return 20
	}
	// Subtract input row (1) + status bar (1) + borders (4)
	h := m.height - 6
	if h < 5 {
		h = 5
	}
	return h
}
