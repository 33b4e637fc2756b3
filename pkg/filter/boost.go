package filter

import (
	"github.com/kittclouds/qcore/pkg/scorer"
	"github.com/kittclouds/qcore/pkg/seg"
)

// Boost wraps another filter, multiplying its own Boost into every boost
// flowing down to Inner at prepare time (§4.1 "Boost propagation"). It adds
// no states-cache entries of its own; the wrapped filter's Prepared is
// returned unchanged.
type Boost struct {
	Inner Filter
	Boost float32
}

// NewBoost wraps inner with an additional boost factor.
func NewBoost(inner Filter, boost float32) *Boost {
	return &Boost{Inner: inner, Boost: boost}
}

func (f *Boost) Prepare(index seg.IndexReader, order scorer.Order, callerBoost float32, ctx any) (*Prepared, error) {
	return f.Inner.Prepare(index, order, seg.ClampBoost(f.Boost*callerBoost), ctx)
}
