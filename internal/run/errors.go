package run

import "errors"

var (
	ErrAuthorizationDenied   = errors.New("location access denied")
	ErrAuthorizationPending  = errors.New("location authorization not determined")
	ErrDirectionsUnavailable = errors.New("directions unavailable")
	ErrComposeUnavailable    = errors.New("cannot compose message")
	ErrRouteUnavailable      = errors.New("run route unavailable")
	ErrInvalidTransition     = errors.New("invalid run state transition")
	ErrNotRunning            = errors.New("run is not in progress")
)
