// Package guard enforces the exam lockdown: mandatory fullscreen, no
// back-navigation, no silent close. It owns a single cancellation
// trigger that fires exactly once no matter how many lockdown breaches
// race to report it.
package guard

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// State is the guard's lockdown state.
type State int

const (
	// StateEntering is the initial state while the fullscreen request is
	// pending.
	StateEntering State = iota
	// StateLocked means the lockdown is in force.
	StateLocked
	// StateExitConfirmPending means the user asked to leave and the
	// confirmation dialog is up.
	StateExitConfirmPending
	// StateCanceled is terminal. No transition leaves it.
	StateCanceled
)

func (s State) String() string {
	switch s {
	case StateEntering:
		return "ENTERING"
	case StateLocked:
		return "LOCKED"
	case StateExitConfirmPending:
		return "EXIT_CONFIRM_PENDING"
	case StateCanceled:
		return "CANCELED"
	default:
		return "UNKNOWN"
	}
}

// CancelReason identifies which trigger broke the lockdown.
type CancelReason string

const (
	ReasonExitConfirmed  CancelReason = "exit_confirmed"
	ReasonFullscreenLost CancelReason = "fullscreen_lost"
	ReasonBackNavigation CancelReason = "back_navigation"
	ReasonUnload         CancelReason = "unload"
)

// UnloadWarning is the message shown by the host's native leave prompt.
const UnloadWarning = "Your exam will be canceled if you leave this page."

// Guard is the integrity guard state machine. Host events may arrive on
// any goroutine, including while a network call is in flight elsewhere,
// so all state is mutex-guarded and cancellation is idempotent.
type Guard struct {
	host          Host
	log           zerolog.Logger
	returnPath    string
	navigateDelay time.Duration

	mu           sync.Mutex
	state        State
	fullscreen   bool // guard's belief that fullscreen is in force
	completed    bool // session finished normally; triggers disarmed
	removers     []func()
	onCancel     []func(CancelReason)
	navScheduled bool
}

// New creates a Guard. returnPath is where the user is sent after a
// cancellation; navigateDelay gives the canceled view time to be seen.
func New(host Host, returnPath string, navigateDelay time.Duration, log zerolog.Logger) *Guard {
	return &Guard{
		host:          host,
		log:           log.With().Str("component", "guard").Logger(),
		returnPath:    returnPath,
		navigateDelay: navigateDelay,
		state:         StateEntering,
	}
}

// Engage installs all event subscriptions, traps the back gesture and
// requests fullscreen. A failed fullscreen request is logged but not
// fatal: entry failure must not lock out environments without fullscreen
// support, unlike a later involuntary exit.
func (g *Guard) Engage(ctx context.Context) {
	g.mu.Lock()
	g.removers = append(g.removers,
		g.host.OnFullscreenChange(g.handleFullscreenChange),
		g.host.OnBack(g.handleBack),
		g.host.OnUnload(g.handleUnload),
	)
	g.mu.Unlock()

	g.host.ReassertHistory()

	err := g.host.RequestFullscreen(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateEntering {
		// Canceled while the request was pending.
		return
	}
	if err != nil {
		g.log.Warn().Err(err).Msg("fullscreen request failed, continuing without lockdown")
	} else {
		g.fullscreen = true
	}
	g.state = StateLocked
}

// Dispose releases every host subscription installed by Engage.
func (g *Guard) Dispose() {
	g.mu.Lock()
	removers := g.removers
	g.removers = nil
	g.mu.Unlock()

	for _, remove := range removers {
		remove()
	}
}

// OnCancel registers a callback fired exactly once when the guard
// cancels. Callbacks run on the goroutine of whichever trigger fired.
func (g *Guard) OnCancel(fn func(CancelReason)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onCancel = append(g.onCancel, fn)
}

// State returns the current lockdown state.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Canceled reports whether the guard has reached its terminal state.
// Callers must consult this at every transition boundary rather than
// caching the result.
func (g *Guard) Canceled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state == StateCanceled
}

// ExitPending reports whether the exit confirmation dialog is up.
func (g *Guard) ExitPending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state == StateExitConfirmPending
}

// MarkCompleted disarms the lockdown triggers once the session has
// finished normally. Completed and canceled are mutually exclusive: a
// guard that already canceled stays canceled.
func (g *Guard) MarkCompleted() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == StateCanceled {
		return
	}
	g.completed = true
}

// RequestExit is the user-initiated exit intent. It only raises the
// confirmation dialog; nothing is canceled yet.
func (g *Guard) RequestExit() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateLocked {
		return
	}
	g.state = StateExitConfirmPending
}

// DeclineExit dismisses the confirmation dialog, leaving the session
// untouched.
func (g *Guard) DeclineExit() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateExitConfirmPending {
		return
	}
	g.state = StateLocked
}

// ConfirmExit confirms the voluntary exit and cancels the exam.
func (g *Guard) ConfirmExit() {
	g.cancel(ReasonExitConfirmed, true)
}

func (g *Guard) handleFullscreenChange(active bool) {
	g.mu.Lock()
	wasFullscreen := g.fullscreen
	g.fullscreen = active
	shouldCancel := !active && wasFullscreen && g.state != StateCanceled && !g.completed
	g.mu.Unlock()

	if shouldCancel {
		g.cancel(ReasonFullscreenLost, true)
	}
}

func (g *Guard) handleBack() {
	// Keep the history depth stable from the user's point of view: they
	// stay on the canceled screen instead of actually moving back.
	g.host.ReassertHistory()

	g.mu.Lock()
	shouldCancel := g.state != StateCanceled && !g.completed
	g.mu.Unlock()

	if shouldCancel {
		g.cancel(ReasonBackNavigation, true)
	}
}

// handleUnload runs inside the host's unload window, where asynchronous
// work is not guaranteed to complete. Cancellation is synchronous and
// best-effort; the delayed navigation is skipped since the process is
// going away anyway.
func (g *Guard) handleUnload() string {
	g.mu.Lock()
	active := g.state != StateCanceled && !g.completed
	g.mu.Unlock()

	if !active {
		return ""
	}
	g.cancel(ReasonUnload, false)
	return UnloadWarning
}

// cancel performs the one-time cancellation sequence: leave fullscreen if
// still active, notify subscribers, and schedule the delayed navigation
// back to the pre-exam screen. Concurrent triggers collapse into a single
// effect.
func (g *Guard) cancel(reason CancelReason, scheduleNav bool) {
	g.mu.Lock()
	if g.state == StateCanceled {
		g.mu.Unlock()
		return
	}
	g.state = StateCanceled
	wasFullscreen := g.fullscreen
	g.fullscreen = false
	callbacks := make([]func(CancelReason), len(g.onCancel))
	copy(callbacks, g.onCancel)
	g.mu.Unlock()

	g.log.Warn().Str("reason", string(reason)).Msg("exam canceled")

	if wasFullscreen {
		g.host.ExitFullscreen()
	}
	for _, fn := range callbacks {
		fn(reason)
	}

	if !scheduleNav {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.navScheduled {
		return
	}
	g.navScheduled = true
	time.AfterFunc(g.navigateDelay, func() {
		g.host.Navigate(g.returnPath)
	})
}
