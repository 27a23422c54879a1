package ui

import "golang.org/x/term"

// makeRaw switches fd to raw mode. A non-terminal stdin (piped input) is
// left alone so the app still works under scripts.
func makeRaw(fd int) (*term.State, error) {
	if !term.IsTerminal(fd) {
		return nil, nil
	}
	return term.MakeRaw(fd)
}

func restore(fd int, st *term.State) {
	if st != nil {
		_ = term.Restore(fd, st)
	}
}
