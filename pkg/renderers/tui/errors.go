package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrNoSession is returned when Edit is called without a session.
	ErrNoSession = errors.New("tui: session is required")

	errNoSelection = errors.New("tui: nothing selected")
)
