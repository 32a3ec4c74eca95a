// Package tui renders the chat widget in the terminal using Bubble Tea:
// a collapsed launcher bubble that expands into a bordered chat panel,
// with an optional maximized full-screen mode.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/floatworksco/chatdock/pkg/widget"
)

const (
	panelWidth  = 48
	panelHeight = 18

	launcherLabel = "💬  Chat with us"
	headerTitle   = "Support Chat"

	// Header glyphs: maximize toggle and close
	glyphMaximize = "▢"
	glyphRestore  = "❐"
	glyphClose    = "✕"
)

// Typing indicator frames, cycled while an exchange is in flight.
var loadingFrames = []string{"·", "··", "···"}

var (
	launcherStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 2)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63"))

	headerStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("63")).
			Foreground(lipgloss.Color("231")).
			Bold(true).
			Padding(0, 1)

	userStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	botStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true)
	hintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// refreshMsg asks the update loop to repaint from the transcript.
type refreshMsg struct{}

// sendDoneMsg signals that a Send call returned.
type sendDoneMsg struct{}

// tickMsg advances the typing indicator animation.
type tickMsg time.Time

// Model is the Bubble Tea model wrapping a chat widget.
type Model struct {
	widget     *widget.Widget
	transcript *Transcript

	viewport viewport.Model
	input    textinput.Model

	width     int
	height    int
	open      bool
	maximized bool
	frame     int
	inFlight  int
}

// NewModel creates the TUI model. Call Attach with the running program so
// widget mutations repaint the screen.
func NewModel(w *widget.Widget, transcript *Transcript) Model {
	input := textinput.New()
	input.Placeholder = "Enter a message..."
	input.CharLimit = 500

	vp := viewport.New(panelWidth-2, panelHeight-4)

	return Model{
		widget:     w,
		transcript: transcript,
		viewport:   vp,
		input:      input,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.repaint()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case refreshMsg:
		m.consume()
		return m, nil

	case sendDoneMsg:
		m.inFlight--
		m.consume()
		return m, nil

	case tickMsg:
		m.frame++
		m.repaint()
		if m.inFlight > 0 {
			return m, tick()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "ctrl+t":
		m.widget.Toggle()
		m.consume()
		return m, nil
	}

	if !m.open {
		switch msg.String() {
		case "enter", "o", " ":
			m.widget.Open()
			m.consume()
			return m, nil
		case "q", "esc":
			return m, tea.Quit
		}
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.widget.Close()
		m.consume()
		return m, nil
	case "ctrl+f":
		m.widget.ToggleMaximize()
		m.consume()
		return m, nil
	case "enter":
		text := m.input.Value()
		if strings.TrimSpace(text) == "" {
			return m, nil
		}
		m.inFlight++
		return m, tea.Batch(m.sendCmd(text), tick())
	case "up", "down", "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// sendCmd runs the exchange off the update loop; the widget drives the
// transcript (placeholder in, placeholder out, reply or apology) while
// it works.
func (m Model) sendCmd(text string) tea.Cmd {
	w := m.widget
	return func() tea.Msg {
		w.Send(context.Background(), text)
		return sendDoneMsg{}
	}
}

func tick() tea.Cmd {
	return tea.Tick(300*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// consume pulls widget-driven state out of the transcript and applies the
// pending UI effects.
func (m *Model) consume() {
	entries, open, maximized, clear, focus, scroll := m.transcript.snapshot()

	m.open = open
	if m.maximized != maximized {
		m.maximized = maximized
		m.resize()
	}
	if clear {
		m.input.Reset()
	}
	if focus {
		m.input.Focus()
	}

	m.viewport.SetContent(m.renderEntries(entries))
	if scroll {
		m.viewport.GotoBottom()
	}
}

// repaint re-renders the transcript without consuming pending effects.
func (m *Model) repaint() {
	m.viewport.SetContent(m.renderEntries(m.transcript.Entries()))
}

func (m *Model) resize() {
	w, h := m.panelSize()
	m.viewport.Width = w - 2
	m.viewport.Height = h - 4
	m.input.Width = w - 6
}

func (m Model) panelSize() (int, int) {
	w, h := panelWidth, panelHeight
	if m.maximized {
		w, h = m.width-2, m.height-2
	}
	if m.width > 0 && w > m.width-2 {
		w = m.width - 2
	}
	if m.height > 0 && h > m.height-2 {
		h = m.height - 2
	}
	if w < 20 {
		w = 20
	}
	if h < 8 {
		h = 8
	}
	return w, h
}

func (m Model) renderEntries(entries []widget.Entry) string {
	var b strings.Builder
	for i, entry := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		switch {
		case entry.Loading:
			b.WriteString(botStyle.Render("Bot "))
			b.WriteString(loadingFrames[m.frame%len(loadingFrames)])
		case entry.Sender == widget.SenderUser:
			b.WriteString(userStyle.Render("You "))
			b.WriteString(entry.Text)
		case entry.Markup:
			b.WriteString(botStyle.Render("Bot "))
			b.WriteString(RenderMarkup(entry.Text))
		default:
			b.WriteString(botStyle.Render("Bot "))
			b.WriteString(entry.Text)
		}
	}
	return b.String()
}

func (m Model) View() string {
	if !m.open {
		launcher := launcherStyle.Render(launcherLabel)
		hint := hintStyle.Render("enter to open · q to quit")
		return lipgloss.JoinVertical(lipgloss.Left, launcher, hint)
	}

	w, _ := m.panelSize()

	glyph := glyphMaximize
	if m.maximized {
		glyph = glyphRestore
	}
	controls := glyph + " " + glyphClose
	title := headerTitle
	pad := w - lipgloss.Width(title) - lipgloss.Width(controls) - 2
	if pad < 1 {
		pad = 1
	}
	header := headerStyle.Width(w).Render(title + strings.Repeat(" ", pad) + controls)

	hint := hintStyle.Render("enter send · ctrl+f size · esc close")

	body := lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		m.input.View(),
		hint,
	)
	return panelStyle.Render(body)
}
