package app

import "errors"

// Sentinel errors for the service lifecycle.
var (
	ErrAlreadyStarted = errors.New("service already started")
	ErrNotStarted     = errors.New("service not started")
	ErrNoHandler      = errors.New("no public handler configured")
	ErrListen         = errors.New("listen failed")
)
