// internal/tui/viewer.go
// Package tui provides the interactive viewer that switches between render
// modes of one annotated answer.
package tui

import (
	"fmt"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/ghollingworth/pichat/internal/citations"
)

const (
	headerHeight = 2
	footerHeight = 2
	minSidebar   = 24
)

// keyMap defines the viewer's key bindings.
type keyMap struct {
	Next     key.Binding
	Prev     key.Binding
	Sidebar  key.Binding
	Quit     key.Binding
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next mode")),
		Prev:     key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev mode")),
		Sidebar:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "citations")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "page down")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Up, k.Down, k.Sidebar, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Next, k.Prev, k.Sidebar}, {k.Up, k.Down, k.PageUp, k.PageDown, k.Quit}}
}

// model is the Bubble Tea model of the viewer.
type model struct {
	source      string
	modes       []citations.Mode
	results     map[citations.Mode]citations.Result
	active      int
	showSidebar bool
	viewport    viewport.Model
	help        help.Model
	keys        keyMap
	width       int
	height      int
}

// initialModel builds the viewer over already rendered results. Modes without
// a result are dropped.
func initialModel(source string, modes []citations.Mode, results map[citations.Mode]citations.Result) *model {
	available := make([]citations.Mode, 0, len(modes))
	for _, mode := range modes {
		if _, ok := results[mode]; ok {
			available = append(available, mode)
		}
	}
	return &model{
		source:      source,
		modes:       available,
		results:     results,
		showSidebar: true,
		viewport:    viewport.New(80, 20),
		help:        help.New(),
		keys:        defaultKeyMap(),
	}
}

func (m *model) Init() tea.Cmd {
	return nil
}

// Update handles key presses and resizes.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Next):
			m.cycle(1)
			return m, nil
		case key.Matches(msg, m.keys.Prev):
			m.cycle(-1)
			return m, nil
		case key.Matches(msg, m.keys.Sidebar):
			m.showSidebar = !m.showSidebar
			m.layout()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.layout()
		return m, nil
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *model) cycle(step int) {
	if len(m.modes) == 0 {
		return
	}
	m.active = (m.active + step + len(m.modes)) % len(m.modes)
	m.refresh()
	m.viewport.GotoTop()
}

// layout sizes the viewport for the window and sidebar state.
func (m *model) layout() {
	if m.width == 0 {
		return
	}
	m.viewport.Width = m.mainWidth()
	m.viewport.Height = max(m.height-headerHeight-footerHeight, 1)
	m.refresh()
}

func (m *model) mainWidth() int {
	if !m.sidebarVisible() {
		return m.width
	}
	return m.width - m.sidebarWidth()
}

func (m *model) sidebarWidth() int {
	return max(m.width/3, minSidebar)
}

func (m *model) sidebarVisible() bool {
	return m.showSidebar && m.width >= 2*minSidebar
}

func (m *model) activeMode() (citations.Mode, bool) {
	if len(m.modes) == 0 {
		return "", false
	}
	return m.modes[m.active], true
}

// refresh re-renders the body of the active mode into the viewport.
func (m *model) refresh() {
	mode, ok := m.activeMode()
	if !ok {
		m.viewport.SetContent("Nothing to display.")
		return
	}
	m.viewport.SetContent(renderBody(m.results[mode], m.viewport.Width))
}

// renderBody formats a result for the terminal. The markdown mode goes
// through glamour; the others are shown as produced.
func renderBody(result citations.Result, width int) string {
	switch result.Mode {
	case citations.ModeMarkdown:
		out, err := renderMarkdown(result.MarkdownFormatted, width)
		if err != nil {
			log.Printf("[TUI] glamour render failed: %v", err)
			return wrap(result.MarkdownFormatted, width)
		}
		return out
	case citations.ModeRaw:
		body := result.Raw
		if result.RawCitations != "" {
			body = strings.TrimRight(body, "\n") + "\n\nCitations:\n" + result.RawCitations
		}
		return wrap(body, width)
	default:
		return wrap(result.Primary(), width)
	}
}

func renderMarkdown(text string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(max(width-2, 10)),
	)
	if err != nil {
		return "", err
	}
	return r.Render(text)
}

func wrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}

// View renders the header tabs, the body with the optional citation sidebar
// and the help footer.
func (m *model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var builder strings.Builder
	builder.WriteString(m.headerView())
	builder.WriteString("\n")

	body := m.viewport.View()
	if m.sidebarVisible() {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, m.sidebarView())
	}
	builder.WriteString(body)
	builder.WriteString("\n")
	builder.WriteString(m.help.View(m.keys))
	return builder.String()
}

func (m *model) headerView() string {
	titleStyle := lipgloss.NewStyle().Background(lipgloss.Color("62")).Foreground(lipgloss.Color("230")).Padding(0, 1)
	activeTab := lipgloss.NewStyle().Background(lipgloss.Color("255")).Foreground(lipgloss.Color("0")).Padding(0, 1).MarginLeft(1)
	tab := lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Padding(0, 1).MarginLeft(1)

	parts := []string{titleStyle.Render(fmt.Sprintf("Source: %s", m.sourceName()))}
	for i, mode := range m.modes {
		if i == m.active {
			parts = append(parts, activeTab.Render(string(mode)))
		} else {
			parts = append(parts, tab.Render(string(mode)))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *model) sourceName() string {
	if strings.TrimSpace(m.source) == "" || m.source == "-" {
		return "stdin"
	}
	return m.source
}

func (m *model) sidebarView() string {
	width := m.sidebarWidth()
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1).
		Width(width - 4).
		Height(max(m.viewport.Height-2, 1))
	numberStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
	urlStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

	var b strings.Builder
	b.WriteString("Citations\n")
	mode, _ := m.activeMode()
	ordered := m.results[mode].Chunks.Ordered()
	if len(ordered) == 0 {
		b.WriteString(urlStyle.Render("none"))
	}
	for _, c := range ordered {
		title := c.Title
		if title == "" {
			title = c.URL
		}
		b.WriteString(numberStyle.Render(fmt.Sprintf("[%d]", c.Number)))
		b.WriteString(" " + title + "\n")
		if c.URL != "" && c.URL != title {
			b.WriteString(urlStyle.Render("    "+c.URL) + "\n")
		}
	}
	return style.Render(strings.TrimRight(b.String(), "\n"))
}

// Run starts the viewer and blocks until the user quits.
func Run(source string, modes []citations.Mode, results map[citations.Mode]citations.Result) error {
	m := initialModel(source, modes, results)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run viewer: %w", err)
	}
	return nil
}
