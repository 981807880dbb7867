package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrPreconditionViolation is returned when Refine starts on a sector
	// that does not classify as matching.
	ErrPreconditionViolation = errors.New("engine: refine must start on a matching sector")
	// ErrNoEdgeFound is matched by *EdgeError.
	ErrNoEdgeFound = errors.New("engine: no edge found")
	// ErrDegenerateRegion is returned when refinement yields start >= end.
	ErrDegenerateRegion = errors.New("engine: degenerate region")
	// ErrInvalidMinSize is returned for a non-positive minimum region size.
	ErrInvalidMinSize = errors.New("engine: minimum region size must be positive")
	// ErrInvalidRange is returned for a negative start offset or an end
	// offset before the start.
	ErrInvalidRange = errors.New("engine: invalid byte range")
)

// EdgeError reports a refinement that reached the opposite side of its
// bracket while still matching, which only happens when classification is
// not monotonic between the two sides.
type EdgeError struct {
	MatchSide    int64
	OppositeSide int64
	Probe        int64
}

func (e *EdgeError) Error() string {
	return fmt.Sprintf("engine: no edge between sectors %d and %d (sector %d still matches)", e.MatchSide, e.OppositeSide, e.Probe)
}

func (e *EdgeError) Is(target error) bool { return target == ErrNoEdgeFound }
