package analysis

import "errors"

var (
	// ErrMalformedStream is returned when debuff events do not pair up.
	ErrMalformedStream = errors.New("malformed debuff stream")
	// ErrUnclosedInterval is returned when an interval has no end.
	ErrUnclosedInterval = errors.New("debuff interval left open")
)
