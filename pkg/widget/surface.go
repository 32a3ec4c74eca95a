// Package widget implements the chat panel controller: visibility and
// layout state, the conversation history, transcript entries, and the
// single request/response exchange per send.
//
// The controller is decoupled from any particular rendering toolkit
// through the Surface capability interface; tui.Model is the terminal
// implementation.
package widget

import (
	"context"

	"github.com/floatworksco/chatdock/pkg/chat"
)

// EntryID identifies a transcript entry. IDs are issued from a
// per-widget monotonic counter, so overlapping sends always get
// distinct placeholder IDs.
type EntryID int64

// Sender tags a transcript entry with its author side.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Entry is one rendered transcript item.
type Entry struct {
	ID     EntryID
	Sender Sender
	Text   string

	// Markup marks Text as trusted markup produced by the markdown-lite
	// formatter. When false the surface must render Text literally.
	Markup bool

	// Loading marks the transient typing placeholder shown while an
	// exchange is outstanding.
	Loading bool
}

// Surface is the capability set the controller needs from a rendering
// toolkit: a transcript that accepts appends and removals by ID, a
// clearable, focusable input, a scrollable container, and the two
// layout flags.
type Surface interface {
	// Append renders a new transcript entry and scrolls to the newest.
	Append(Entry)

	// Remove deletes an entry by ID. Removing an unknown ID is a no-op.
	Remove(EntryID)

	ClearInput()
	FocusInput()
	ScrollToEnd()

	SetOpen(bool)
	SetMaximized(bool)
}

// Exchanger performs the remote exchange for one send. The history
// passed in already includes the turn for message itself.
type Exchanger interface {
	Exchange(ctx context.Context, message string, history chat.History) (string, error)
}
