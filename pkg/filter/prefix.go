package filter

import (
	"bytes"

	"github.com/kittclouds/qcore/pkg/iter"
	"github.com/kittclouds/qcore/pkg/scorer"
	"github.com/kittclouds/qcore/pkg/seg"
)

// Prefix matches every document carrying a term that starts with Text in
// Field — a disjunction over all terms sharing the prefix (§3, §4.1 "all
// terms under a prefix").
type Prefix struct {
	Field string
	Text  string
	Boost float32
	Merge iter.MergeType
}

// NewPrefix builds a Prefix filter with the neutral boost and Sum merge.
func NewPrefix(field, text string) *Prefix {
	return &Prefix{Field: field, Text: text, Boost: seg.NoBoost}
}

func (f *Prefix) Prepare(index seg.IndexReader, order scorer.Order, callerBoost float32, _ any) (*Prepared, error) {
	if f.Text == "" {
		return emptyPrepared(), nil
	}
	boost := seg.ClampBoost(f.Boost * callerBoost)
	required := seg.FeatureDocs | order.Features()
	prefix := []byte(f.Text)

	states := prepareDynamicTermSet(index, order, f.Field, required, boost, func(field seg.TermReader, collect func(int, seg.TermIterator)) []matchedTerm {
		return walkTerms(field, prefix, seg.NoBoost,
			func(term []byte) bool { return bytes.HasPrefix(term, prefix) },
			func(term []byte) bool { return !bytes.HasPrefix(term, prefix) },
			collect,
		)
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
