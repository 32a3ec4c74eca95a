package tui

import (
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/floatworksco/chatdock/pkg/client"
	"github.com/floatworksco/chatdock/pkg/widget"
)

// Run starts the chat TUI against a chatdock server and blocks until the
// user quits.
func Run(serverURL string, logger *zap.Logger) error {
	var program atomic.Pointer[tea.Program]

	transcript := NewTranscript(func() {
		if p := program.Load(); p != nil {
			p.Send(refreshMsg{})
		}
	})

	exchanger := client.New(client.Config{BaseURL: serverURL})
	w := widget.New(transcript, exchanger, logger)

	p := tea.NewProgram(NewModel(w, transcript), tea.WithAltScreen())
	program.Store(p)

	_, err := p.Run()
	return err
}
