package capture

import "errors"

var (
	// ErrInterfaceNotFound is returned by Bind when no interface carries the requested name.
	ErrInterfaceNotFound = errors.New("interface not found")
	// ErrNoDefaultInterface is returned by BindDefault when no interface is up,
	// non-loopback and addressed.
	ErrNoDefaultInterface = errors.New("no suitable default interface")
	// ErrChannelUnavailable is returned by Start when the capture handle cannot be opened.
	ErrChannelUnavailable = errors.New("capture channel unavailable")
	// ErrReadFailure marks a fatal error of the background read loop. It is surfaced
	// through CompletedSession.Err, not by aborting the process.
	ErrReadFailure = errors.New("packet read failed")
	// ErrAlreadyStarted is returned by Start and StartLive when the session was
	// started before, including after it has been stopped.
	ErrAlreadyStarted = errors.New("session already started")
	// ErrAlreadyStopped is returned by Stop when the session was stopped before.
	ErrAlreadyStopped = errors.New("session already stopped")
)
