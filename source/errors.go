package source

import "errors"

// ErrAlreadyStarted is returned by Start when called more than once.
var ErrAlreadyStarted = errors.New("source: already started")

// ErrNotStarted is returned by Stop when called before Start.
var ErrNotStarted = errors.New("source: not started")
