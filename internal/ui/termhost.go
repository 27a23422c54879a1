package ui

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/Rudranshhhhh/Cybercoach/internal/guard"
)

// Terminal control sequences. The alternate screen buffer stands in for
// fullscreen: entering it takes over the whole terminal and leaving it
// restores whatever the user had before.
const (
	altScreenEnter = "\x1b[?1049h\x1b[H"
	altScreenLeave = "\x1b[?1049l"
	cursorHide     = "\x1b[?25l"
	cursorShow     = "\x1b[?25h"
)

// TermHost adapts a terminal to the guard.Host surface. Back gestures and
// unload signals are injected by the input loop via Fire*.
type TermHost struct {
	out *os.File
	log zerolog.Logger

	mu         sync.Mutex
	nextID     int
	fsSubs     map[int]func(bool)
	backSubs   map[int]func()
	unloadSubs map[int]func() string
	fsActive   bool

	nav chan string
}

var _ guard.Host = (*TermHost)(nil)

// NewTermHost creates a host writing to out (normally stdout).
func NewTermHost(out *os.File, log zerolog.Logger) *TermHost {
	return &TermHost{
		out:        out,
		log:        log.With().Str("component", "term_host").Logger(),
		fsSubs:     make(map[int]func(bool)),
		backSubs:   make(map[int]func()),
		unloadSubs: make(map[int]func() string),
		nav:        make(chan string, 1),
	}
}

// RequestFullscreen enters the alternate screen buffer.
func (h *TermHost) RequestFullscreen(_ context.Context) error {
	if !term.IsTerminal(int(h.out.Fd())) {
		return errors.New("output is not a terminal")
	}
	if _, err := h.out.WriteString(altScreenEnter + cursorHide); err != nil {
		return err
	}
	h.setFullscreen(true)
	return nil
}

// ExitFullscreen leaves the alternate screen buffer.
func (h *TermHost) ExitFullscreen() {
	_, _ = h.out.WriteString(cursorShow + altScreenLeave)
	h.setFullscreen(false)
}

// OnFullscreenChange implements guard.Host.
func (h *TermHost) OnFullscreenChange(fn func(active bool)) (remove func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.fsSubs[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.fsSubs, id)
	}
}

// OnBack implements guard.Host.
func (h *TermHost) OnBack(fn func()) (remove func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.backSubs[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.backSubs, id)
	}
}

// OnUnload implements guard.Host.
func (h *TermHost) OnUnload(fn func() string) (remove func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.unloadSubs[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.unloadSubs, id)
	}
}

// ReassertHistory is a no-op: a terminal has no history stack to pin.
func (h *TermHost) ReassertHistory() {
	h.log.Debug().Msg("history reasserted")
}

// Navigate signals the app loop to leave the exam screen.
func (h *TermHost) Navigate(path string) {
	select {
	case h.nav <- path:
	default:
	}
}

// Navigations yields the paths passed to Navigate.
func (h *TermHost) Navigations() <-chan string {
	return h.nav
}

// FireBack injects a back gesture (Esc / left-arrow key).
func (h *TermHost) FireBack() {
	h.mu.Lock()
	subs := make([]func(), 0, len(h.backSubs))
	for _, fn := range h.backSubs {
		subs = append(subs, fn)
	}
	h.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// FireUnload injects an unload signal (Ctrl+C / SIGTERM). It returns the
// first confirmation message any subscriber asks to show, empty when the
// teardown may proceed silently.
func (h *TermHost) FireUnload() string {
	h.mu.Lock()
	subs := make([]func() string, 0, len(h.unloadSubs))
	for _, fn := range h.unloadSubs {
		subs = append(subs, fn)
	}
	h.mu.Unlock()

	message := ""
	for _, fn := range subs {
		if msg := fn(); msg != "" && message == "" {
			message = msg
		}
	}
	return message
}

// WindowSize returns the terminal dimensions, with a sane fallback.
func (h *TermHost) WindowSize() (width, height int) {
	w, ht, err := term.GetSize(int(h.out.Fd()))
	if err != nil || w <= 0 {
		return 80, 24
	}
	return w, ht
}

func (h *TermHost) setFullscreen(active bool) {
	h.mu.Lock()
	if h.fsActive == active {
		h.mu.Unlock()
		return
	}
	h.fsActive = active
	subs := make([]func(bool), 0, len(h.fsSubs))
	for _, fn := range h.fsSubs {
		subs = append(subs, fn)
	}
	h.mu.Unlock()

	for _, fn := range subs {
		fn(active)
	}
}
