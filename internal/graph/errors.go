package graph

import "errors"

// Sentinel errors for program graph operations.
var (
	// ErrGraphFrozen is returned when modifying a graph after Freeze.
	ErrGraphFrozen = errors.New("graph is frozen and cannot be modified")

	// ErrNodeNotFound is returned when an edge references a node that was
	// never added. Both endpoints must exist before an edge is created.
	ErrNodeNotFound = errors.New("node not found")

	// ErrInvalidPair is returned when a method pair is not a Method entry
	// and a MethodReturn exit.
	ErrInvalidPair = errors.New("invalid method entry/exit pair")
)
