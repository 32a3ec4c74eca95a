package widget

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/floatworksco/chatdock/pkg/chat"
	"github.com/floatworksco/chatdock/pkg/markdown"
)

// Apology is the fixed text rendered when an exchange fails. The widget
// surfaces no detail and makes no distinction between failure kinds.
const Apology = "Sorry, I'm having trouble connecting right now. Please try again."

// State is a snapshot of the widget's flags. Pending counts in-flight
// exchanges; the controller permits overlap, and a surface wanting a
// stricter policy (disable send, queue) can gate on it without changing
// the contract.
type State struct {
	Open      bool
	Maximized bool
	Pending   int
}

// Widget is the chat panel controller. All state lives on the instance
// so multiple widgets and test doubles can coexist.
type Widget struct {
	mu        sync.Mutex
	surface   Surface
	exchanger Exchanger
	logger    *zap.Logger

	history   chat.History
	open      bool
	maximized bool
	pending   int
	nextID    EntryID
}

// New creates a widget bound to a surface and an exchanger.
func New(surface Surface, exchanger Exchanger, logger *zap.Logger) *Widget {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Widget{
		surface:   surface,
		exchanger: exchanger,
		logger:    logger,
	}
}

// Open shows the panel, focuses the input, and scrolls the transcript to
// its newest entry. Opening an open panel is a no-op.
func (w *Widget) Open() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.open {
		return
	}
	w.open = true
	w.surface.SetOpen(true)
	w.surface.FocusInput()
	w.surface.ScrollToEnd()
}

// Close hides the panel. History and pending exchanges are untouched.
// Closing a closed panel is a no-op.
func (w *Widget) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.open {
		return
	}
	w.open = false
	w.surface.SetOpen(false)
}

// Toggle flips the panel between open and closed.
func (w *Widget) Toggle() {
	w.mu.Lock()
	open := w.open
	w.mu.Unlock()
	if open {
		w.Close()
	} else {
		w.Open()
	}
}

// ToggleMaximize flips the layout flag. It is independent of Open and
// is not gated on it.
func (w *Widget) ToggleMaximize() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.maximized = !w.maximized
	w.surface.SetMaximized(w.maximized)
}

// Send submits the input text as one exchange. Whitespace-only input is
// a silent no-op. Send blocks until the exchange resolves; surfaces run
// it from their own goroutine or command loop, and overlapping sends
// each complete independently.
func (w *Widget) Send(ctx context.Context, input string) {
	text := strings.TrimSpace(input)
	if text == "" {
		return
	}

	w.mu.Lock()
	w.surface.Append(Entry{ID: w.issueID(), Sender: SenderUser, Text: text})
	w.surface.ClearInput()
	w.history = append(w.history, chat.UserTurn(text))
	loadingID := w.issueID()
	w.surface.Append(Entry{ID: loadingID, Sender: SenderBot, Loading: true})
	snapshot := w.history.Clone()
	w.pending++
	w.mu.Unlock()

	reply, err := w.exchanger.Exchange(ctx, text, snapshot)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending--
	w.surface.Remove(loadingID)
	if err != nil {
		// No model turn is recorded for a failed attempt; the user turn
		// stays in history without a matching reply.
		w.logger.Error("chat exchange failed", zap.Error(err))
		w.surface.Append(Entry{ID: w.issueID(), Sender: SenderBot, Text: Apology})
		return
	}
	w.history = append(w.history, chat.ModelTurn(reply))
	w.surface.Append(Entry{ID: w.issueID(), Sender: SenderBot, Text: markdown.Format(reply), Markup: true})
}

// History returns a copy of the conversation so far.
func (w *Widget) History() chat.History {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.history.Clone()
}

// State returns a snapshot of the widget's flags.
func (w *Widget) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return State{Open: w.open, Maximized: w.maximized, Pending: w.pending}
}

// issueID hands out the next entry ID. Caller holds the lock.
func (w *Widget) issueID() EntryID {
	w.nextID++
	return w.nextID
}
