package iter

import (
	"github.com/kittclouds/qcore/pkg/attribute"
	"github.com/kittclouds/qcore/pkg/seg"
)

// NewSamePositionIterator conjoins termIters on doc id, then requires that
// every one of them has an occurrence at one common position (§4.4). The
// convergence loop is find_same_position, carried over unchanged from the
// original implementation: seek every stream to a monotonically increasing
// target, restart whenever a stream lands past it, fail when any stream
// exhausts.
func NewSamePositionIterator(termIters []DocIterator, agg Aggregator, numScorers int) DocIterator {
	if len(termIters) == 0 {
		return Empty()
	}
	base := NewConjunction(termIters, agg, numScorers)
	if len(termIters) == 1 {
		return base
	}

	verify := func() bool {
		positions := make([]seg.PositionIterator, len(termIters))
		for i, t := range termIters {
			raw, ok := t.Attributes().Get(attribute.KindPosition)
			if !ok {
				return false
			}
			p, ok := raw.(seg.PositionIterator)
			if !ok {
				return false
			}
			positions[i] = p
		}
		return findSamePosition(positions)
	}
	return NewVerified(base, verify)
}

func findSamePosition(positions []seg.PositionIterator) bool {
	target := seg.PosMin
	for i := 0; i < len(positions); {
		got := positions[i].Seek(target)
		if got == seg.PosEOF {
			return false
		}
		if got != target {
			target = got
			i = 0
			continue
		}
		i++
	}
	return true
}
