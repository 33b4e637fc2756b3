package filter

import (
	"bytes"

	"github.com/kittclouds/qcore/pkg/iter"
	"github.com/kittclouds/qcore/pkg/scorer"
	"github.com/kittclouds/qcore/pkg/seg"
)

// Range matches every document carrying a term that falls within
// [Lower, Upper] (bounds optional, inclusivity configurable) in sort order
// (§3, §4.1 "range-ordered for Range").
type Range struct {
	Field string
	Boost float32
	Merge iter.MergeType

	Lower          []byte // nil means unbounded below
	LowerInclusive bool
	Upper          []byte // nil means unbounded above
	UpperInclusive bool
}

// NewRange builds a Range filter with the neutral boost and Sum merge.
func NewRange(field string) *Range {
	return &Range{Field: field, Boost: seg.NoBoost, LowerInclusive: true, UpperInclusive: true}
}

func (f *Range) inBounds(term []byte) bool {
	if f.Lower != nil {
		c := bytes.Compare(term, f.Lower)
		if c < 0 || (c == 0 && !f.LowerInclusive) {
			return false
		}
	}
	if f.Upper != nil {
		c := bytes.Compare(term, f.Upper)
		if c > 0 || (c == 0 && !f.UpperInclusive) {
			return false
		}
	}
	return true
}

func (f *Range) pastUpper(term []byte) bool {
	if f.Upper == nil {
		return false
	}
	c := bytes.Compare(term, f.Upper)
	return c > 0 || (c == 0 && !f.UpperInclusive)
}

func (f *Range) Prepare(index seg.IndexReader, order scorer.Order, callerBoost float32, _ any) (*Prepared, error) {
	boost := seg.ClampBoost(f.Boost * callerBoost)
	required := seg.FeatureDocs | order.Features()

	states := prepareDynamicTermSet(index, order, f.Field, required, boost, func(field seg.TermReader, collect func(int, seg.TermIterator)) []matchedTerm {
		return walkTerms(field, f.Lower, seg.NoBoost, f.inBounds, f.pastUpper, collect)
	})
	if len(states) == 0 {
		return emptyPrepared(), nil
	}

	merge := iter.Resolve(f.Merge)
	build := func(segment seg.SubReader, raw segmentState, ord scorer.Order) iter.DocIterator {
		return buildDynamicSetIterator(segment, raw, ord, boost, merge, 1)
	}
	return newPrepared(boost, order, states, nil, build), nil
}
