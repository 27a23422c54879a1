package guard

import "context"

// Host abstracts the environment surface the guard controls: fullscreen,
// history navigation and the unload prompt. In a browser these map to the
// fullscreen API, popstate and beforeunload; the terminal host maps them
// to the alternate screen, key gestures and process signals.
//
// Every On* registration returns a remove function. The guard keeps all
// removers and releases them together through Dispose, so repeated
// engage/dispose cycles cannot leak listeners.
type Host interface {
	// RequestFullscreen asks the environment to enter fullscreen. The
	// call may suspend (browser permission prompt); honor ctx.
	RequestFullscreen(ctx context.Context) error
	// ExitFullscreen leaves fullscreen if active. Best-effort.
	ExitFullscreen()

	// OnFullscreenChange fires with the new fullscreen state whenever it
	// changes, regardless of who changed it.
	OnFullscreenChange(fn func(active bool)) (remove func())
	// OnBack fires on a back-navigation gesture.
	OnBack(fn func()) (remove func())
	// OnUnload fires when the environment is about to tear the process
	// down. A non-empty returned message asks the host to show its
	// native leave confirmation; empty lets the unload proceed silently.
	OnUnload(fn func() (message string)) (remove func())

	// ReassertHistory re-pushes the current history entry so a back
	// gesture does not actually move the user.
	ReassertHistory()
	// Navigate moves the user to the given path.
	Navigate(path string)
}
