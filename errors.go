package sim

import "errors"

var (
	// ErrCapacityExceeded means no free slot remained. Creation is refused
	// with no partial state left behind.
	ErrCapacityExceeded = errors.New("actor capacity exceeded")
	// ErrConstructionFailed means the construction collaborator rejected the
	// spawn; the actor is discarded without retry.
	ErrConstructionFailed = errors.New("actor construction failed")
	// ErrAmbiguousRegion means a region lookup matched more than one actor.
	ErrAmbiguousRegion = errors.New("region matches more than one actor")
	// ErrStreamMismatch means a remote registration referenced an asset this
	// instance does not have.
	ErrStreamMismatch = errors.New("remote stream references a missing asset")
)
