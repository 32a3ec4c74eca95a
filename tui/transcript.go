package tui

import (
	"sync"

	"github.com/floatworksco/chatdock/pkg/widget"
)

// Transcript is the terminal rendering surface for the chat widget. The
// widget mutates it from whichever goroutine runs an exchange, so all
// state is mutex-protected; mutations notify the UI loop to repaint.
type Transcript struct {
	mu        sync.Mutex
	entries   []widget.Entry
	open      bool
	maximized bool

	// UI effects pending consumption by the update loop
	pendClear  bool
	pendFocus  bool
	pendScroll bool

	notify func()
}

var _ widget.Surface = (*Transcript)(nil)

// NewTranscript creates a Transcript. notify is called after every
// mutation and may be nil.
func NewTranscript(notify func()) *Transcript {
	return &Transcript{notify: notify}
}

func (t *Transcript) Append(entry widget.Entry) {
	t.mu.Lock()
	t.entries = append(t.entries, entry)
	t.pendScroll = true
	t.mu.Unlock()
	t.changed()
}

func (t *Transcript) Remove(id widget.EntryID) {
	t.mu.Lock()
	for i, entry := range t.entries {
		if entry.ID == id {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			break
		}
	}
	t.mu.Unlock()
	t.changed()
}

func (t *Transcript) ClearInput() {
	t.mu.Lock()
	t.pendClear = true
	t.mu.Unlock()
	t.changed()
}

func (t *Transcript) FocusInput() {
	t.mu.Lock()
	t.pendFocus = true
	t.mu.Unlock()
	t.changed()
}

func (t *Transcript) ScrollToEnd() {
	t.mu.Lock()
	t.pendScroll = true
	t.mu.Unlock()
	t.changed()
}

func (t *Transcript) SetOpen(open bool) {
	t.mu.Lock()
	t.open = open
	t.mu.Unlock()
	t.changed()
}

func (t *Transcript) SetMaximized(maximized bool) {
	t.mu.Lock()
	t.maximized = maximized
	t.mu.Unlock()
	t.changed()
}

// Entries returns a copy of the current transcript.
func (t *Transcript) Entries() []widget.Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]widget.Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// snapshot returns the current state and consumes the pending UI effects.
func (t *Transcript) snapshot() (entries []widget.Entry, open, maximized, clear, focus, scroll bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries = make([]widget.Entry, len(t.entries))
	copy(entries, t.entries)
	open = t.open
	maximized = t.maximized
	clear, focus, scroll = t.pendClear, t.pendFocus, t.pendScroll
	t.pendClear, t.pendFocus, t.pendScroll = false, false, false
	return
}

func (t *Transcript) changed() {
	if t.notify != nil {
		t.notify()
	}
}
