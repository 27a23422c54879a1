package ui

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/Rudranshhhhh/Cybercoach/internal/guard"
	"github.com/Rudranshhhhh/Cybercoach/internal/model"
	"github.com/Rudranshhhhh/Cybercoach/internal/session"
)

// App runs the interactive exam: it owns the terminal, feeds key presses to
// the controller and the guard, and repaints on every state change.
type App struct {
	ctrl   *session.Controller
	grd    *guard.Guard
	host   *TermHost
	render *Renderer
	in     *os.File
	log    zerolog.Logger
}

func NewApp(ctrl *session.Controller, grd *guard.Guard, host *TermHost, in *os.File, log zerolog.Logger) *App {
	width, _ := host.WindowSize()
	return &App{
		ctrl:   ctrl,
		grd:    grd,
		host:   host,
		render: NewRenderer(host.out, width),
		in:     in,
		log:    log.With().Str("component", "app").Logger(),
	}
}

// Run drives the exam until completion, cancellation, or a quit key. It puts
// stdin into raw mode for the duration and always restores it.
func (a *App) Run(ctx context.Context) error {
	fd := int(a.in.Fd())
	oldState, err := makeRaw(fd)
	if err != nil {
		return err
	}
	defer restore(fd, oldState)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.ctrl.OnChange(func(st session.State) {
		a.render.Render(st, a.grd.ExitPending())
	})

	a.grd.Engage(ctx)
	defer a.grd.Dispose()
	// Leave the alternate screen on every exit path; after a normal
	// completion nobody else restores the terminal.
	defer a.host.ExitFullscreen()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	keys := a.readKeys(ctx)

	go a.ctrl.Begin(ctx)
	a.repaint()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case path := <-a.host.Navigations():
			a.log.Info().Str("path", path).Msg("navigating away")
			return nil
		case <-sigs:
			if a.teardown() {
				return nil
			}
		case key, ok := <-keys:
			if !ok {
				if a.teardown() {
					return nil
				}
				continue
			}
			if done := a.handleKey(ctx, key); done {
				return nil
			}
		}
	}
}

func (a *App) handleKey(ctx context.Context, key byte) (done bool) {
	if a.grd.ExitPending() {
		if key == 'y' || key == 'Y' {
			a.grd.ConfirmExit()
		} else {
			a.grd.DeclineExit()
			a.repaint()
		}
		return false
	}

	switch key {
	case 0x03: // Ctrl+C arrives as a byte in raw mode
		return a.teardown()
	case 0x1b: // Esc acts as the back gesture
		a.host.FireBack()
	case 'p', 'P':
		a.ctrl.Submit(ctx, model.AnswerPhishing)
	case 's', 'S':
		a.ctrl.Submit(ctx, model.AnswerSafe)
	case 'n', 'N', '\r', ' ':
		a.ctrl.Next(ctx)
	case 'r', 'R':
		a.ctrl.Retry(ctx)
	case 'q', 'Q':
		st := a.ctrl.Snapshot()
		if st.Phase == session.PhaseCompleted || st.Phase == session.PhaseCanceled {
			return true
		}
		a.grd.RequestExit()
		a.repaint()
	case 'f', 'F':
		if a.ctrl.Snapshot().Phase == session.PhaseCompleted {
			return true
		}
	}
	return false
}

// teardown handles Ctrl+C and termination signals. The first one fires the
// unload path, which cancels the exam and shows the warning; a later one
// quits immediately.
func (a *App) teardown() (quit bool) {
	if a.grd.Canceled() || a.ctrl.Snapshot().Phase == session.PhaseCompleted {
		return true
	}
	if msg := a.host.FireUnload(); msg != "" {
		a.repaint()
		a.render.Message(msg + " Press Ctrl+C again to quit now.")
		return false
	}
	return true
}

func (a *App) repaint() {
	a.render.Render(a.ctrl.Snapshot(), a.grd.ExitPending())
}

// readKeys pumps single bytes from stdin into a channel so the main loop can
// also watch signals and navigation.
func (a *App) readKeys(ctx context.Context) <-chan byte {
	keys := make(chan byte)
	go func() {
		defer close(keys)
		buf := make([]byte, 1)
		for {
			n, err := a.in.Read(buf)
			if err != nil {
				return
			}
			if n == 0 {
				continue
			}
			select {
			case keys <- buf[0]:
			case <-ctx.Done():
				return
			}
		}
	}()
	return keys
}
