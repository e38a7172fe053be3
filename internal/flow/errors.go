package flow

import "errors"

var (
	// ErrMalformedNodeLabel is returned when a node descriptor does not have
	// the "(head,code)" shape, or a counted statement carries no counter id.
	ErrMalformedNodeLabel = errors.New("malformed node label")

	// ErrInvalidDOT is returned when a method's flow graph cannot be decoded.
	ErrInvalidDOT = errors.New("invalid DOT flow graph")
)
