package session

import "errors"

var (
	// ErrAlreadyMounted is returned by a second Mount.
	ErrAlreadyMounted = errors.New("session already mounted")
	// ErrLeft is returned once the controller has been unmounted.
	ErrLeft = errors.New("session left")
	// ErrNotJoined is returned when a command needs a mounted session.
	ErrNotJoined = errors.New("session not joined")
	// ErrEmptyCommand is returned when submitting blank input.
	ErrEmptyCommand = errors.New("empty command")
	// ErrMissingID is returned when a controller is built without a session id.
	ErrMissingID = errors.New("missing session id")
)
