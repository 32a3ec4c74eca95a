package widget

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floatworksco/chatdock/pkg/chat"
)

// fakeSurface records every capability call so tests can assert on the
// transcript the controller produced.
type fakeSurface struct {
	mu        sync.Mutex
	entries   []Entry
	removed   []EntryID
	cleared   int
	focused   int
	scrolled  int
	open      bool
	maximized bool
}

func (s *fakeSurface) Append(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	s.scrolled++
}

func (s *fakeSurface) Remove(id EntryID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			break
		}
	}
	s.removed = append(s.removed, id)
}

func (s *fakeSurface) ClearInput()        { s.mu.Lock(); s.cleared++; s.mu.Unlock() }
func (s *fakeSurface) FocusInput()        { s.mu.Lock(); s.focused++; s.mu.Unlock() }
func (s *fakeSurface) ScrollToEnd()       { s.mu.Lock(); s.scrolled++; s.mu.Unlock() }
func (s *fakeSurface) SetOpen(v bool)     { s.mu.Lock(); s.open = v; s.mu.Unlock() }
func (s *fakeSurface) SetMaximized(v bool) { s.mu.Lock(); s.maximized = v; s.mu.Unlock() }

func (s *fakeSurface) snapshot() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *fakeSurface) last() Entry {
	entries := s.snapshot()
	return entries[len(entries)-1]
}

// fakeExchanger resolves with a canned reply or error, and captures the
// history it was handed.
type fakeExchanger struct {
	mu        sync.Mutex
	reply     string
	err       error
	histories []chat.History

	// release, when set, blocks Exchange until closed.
	release chan struct{}
}

func (e *fakeExchanger) Exchange(_ context.Context, _ string, history chat.History) (string, error) {
	e.mu.Lock()
	e.histories = append(e.histories, history)
	reply, err, release := e.reply, e.err, e.release
	e.mu.Unlock()
	if release != nil {
		<-release
	}
	return reply, err
}

func newTestWidget(reply string, err error) (*Widget, *fakeSurface, *fakeExchanger) {
	surface := &fakeSurface{}
	exchanger := &fakeExchanger{reply: reply, err: err}
	return New(surface, exchanger, nil), surface, exchanger
}

func TestSendAppendsUserTurnBeforeExchange(t *testing.T) {
	w, _, ex := newTestWidget("hi", nil)

	w.Send(context.Background(), "hello there")

	require.Len(t, ex.histories, 1)
	sent := ex.histories[0]
	require.NotEmpty(t, sent)
	assert.Equal(t, chat.RoleUser, sent[len(sent)-1].Role)
	assert.Equal(t, "hello there", sent[len(sent)-1].Text())
}

func TestSendTrimsInput(t *testing.T) {
	w, surface, ex := newTestWidget("hi", nil)

	w.Send(context.Background(), "  spaced out  \n")

	require.Len(t, ex.histories, 1)
	assert.Equal(t, "spaced out", ex.histories[0][0].Text())
	assert.Equal(t, "spaced out", surface.snapshot()[0].Text)
}

func TestSendEmptyInputIsSilentNoop(t *testing.T) {
	w, surface, ex := newTestWidget("hi", nil)

	w.Send(context.Background(), "")
	w.Send(context.Background(), "   \t\n ")

	assert.Empty(t, surface.snapshot())
	assert.Empty(t, ex.histories)
	assert.Zero(t, surface.cleared)
	assert.Empty(t, w.History())
}

func TestSendSuccessAppendsModelTurn(t *testing.T) {
	w, surface, _ := newTestWidget("hi", nil)

	w.Send(context.Background(), "hello")

	history := w.History()
	require.Len(t, history, 2)
	assert.Equal(t, chat.UserTurn("hello"), history[0])
	assert.Equal(t, chat.ModelTurn("hi"), history[1])

	// Loading placeholder is gone; reply is rendered as markup.
	entries := surface.snapshot()
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.False(t, e.Loading)
	}
	assert.Equal(t, SenderBot, entries[1].Sender)
	assert.True(t, entries[1].Markup)
	assert.Equal(t, "hi", entries[1].Text)
}

func TestSendFormatsReply(t *testing.T) {
	w, surface, _ := newTestWidget("**bold** move", nil)

	w.Send(context.Background(), "hello")

	assert.Equal(t, "<strong>bold</strong> move", surface.last().Text)
	// History keeps the raw response text, not the markup.
	assert.Equal(t, "**bold** move", w.History()[1].Text())
}

func TestSendFailureLeavesHistoryAndShowsApology(t *testing.T) {
	w, surface, _ := newTestWidget("", errors.New("connection refused"))

	w.Send(context.Background(), "hello")

	history := w.History()
	require.Len(t, history, 1)
	assert.Equal(t, chat.RoleUser, history[0].Role)

	last := surface.last()
	assert.Equal(t, SenderBot, last.Sender)
	assert.Equal(t, Apology, last.Text)
	assert.False(t, last.Markup, "apology renders as plain text")
	assert.False(t, last.Loading)
	require.Len(t, surface.removed, 1)
}

func TestSendShowsLoadingPlaceholderDuringExchange(t *testing.T) {
	surface := &fakeSurface{}
	release := make(chan struct{})
	ex := &fakeExchanger{reply: "done", release: release}
	w := New(surface, ex, nil)

	finished := make(chan struct{})
	go func() {
		w.Send(context.Background(), "hello")
		close(finished)
	}()

	require.Eventually(t, func() bool { return w.State().Pending == 1 }, time.Second, time.Millisecond)
	entries := surface.snapshot()
	require.Len(t, entries, 2)
	assert.True(t, entries[1].Loading)

	close(release)
	<-finished
	assert.Zero(t, w.State().Pending)
	for _, e := range surface.snapshot() {
		assert.False(t, e.Loading)
	}
}

func TestOverlappingSendsKeepDistinctPlaceholders(t *testing.T) {
	surface := &fakeSurface{}
	release := make(chan struct{})
	ex := &fakeExchanger{reply: "reply", release: release}
	w := New(surface, ex, nil)

	var wg sync.WaitGroup
	for _, msg := range []string{"first", "second"} {
		wg.Add(1)
		go func(msg string) {
			defer wg.Done()
			w.Send(context.Background(), msg)
		}(msg)
	}

	require.Eventually(t, func() bool { return w.State().Pending == 2 }, time.Second, time.Millisecond)
	loading := map[EntryID]bool{}
	for _, e := range surface.snapshot() {
		if e.Loading {
			loading[e.ID] = true
		}
	}
	assert.Len(t, loading, 2, "placeholder IDs must not collide")

	close(release)
	wg.Wait()

	// Both exchanges resolved independently: no placeholders remain, two
	// user turns and two model turns in history.
	for _, e := range surface.snapshot() {
		assert.False(t, e.Loading)
	}
	assert.Len(t, w.History(), 4)
	assert.Zero(t, w.State().Pending)
}

func TestOpenFocusesAndScrolls(t *testing.T) {
	w, surface, _ := newTestWidget("", nil)

	w.Open()
	assert.True(t, w.State().Open)
	assert.True(t, surface.open)
	assert.Equal(t, 1, surface.focused)
	assert.Equal(t, 1, surface.scrolled)

	// Repeated open leaves state unchanged.
	w.Open()
	assert.Equal(t, 1, surface.focused)
}

func TestToggleIdempotence(t *testing.T) {
	w, surface, _ := newTestWidget("", nil)

	w.Toggle()
	w.Toggle()
	assert.False(t, w.State().Open)
	assert.False(t, surface.open)
}

func TestCloseKeepsHistory(t *testing.T) {
	w, _, _ := newTestWidget("hi", nil)

	w.Send(context.Background(), "hello")
	w.Open()
	w.Close()

	assert.Len(t, w.History(), 2)
	assert.False(t, w.State().Open)
}

func TestToggleMaximizeRoundTrip(t *testing.T) {
	w, surface, _ := newTestWidget("", nil)

	w.ToggleMaximize()
	assert.True(t, w.State().Maximized)
	assert.True(t, surface.maximized)

	w.ToggleMaximize()
	assert.False(t, w.State().Maximized)
	assert.False(t, surface.maximized)
}

func TestMaximizeNotGatedOnOpen(t *testing.T) {
	w, _, _ := newTestWidget("", nil)

	require.False(t, w.State().Open)
	w.ToggleMaximize()
	assert.True(t, w.State().Maximized)
}
