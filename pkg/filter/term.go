package filter

import (
	"github.com/kittclouds/qcore/pkg/iter"
	"github.com/kittclouds/qcore/pkg/scorer"
	"github.com/kittclouds/qcore/pkg/seg"
)

// Term matches documents carrying one exact token in one field (§3, §4.1).
type Term struct {
	Field string
	Text  string
	Boost float32
}

// NewTerm builds a Term filter with the default (neutral) boost.
func NewTerm(field, text string) *Term {
	return &Term{Field: field, Text: text, Boost: seg.NoBoost}
}

type termState struct {
	field seg.TermReader
	mt    matchedTerm
}

func (f *Term) Prepare(index seg.IndexReader, order scorer.Order, callerBoost float32, _ any) (*Prepared, error) {
	if f.Text == "" {
		return emptyPrepared(), nil
	}
	boost := seg.ClampBoost(f.Boost * callerBoost)
	literal := []byte(f.Text)
	required := seg.FeatureDocs | order.Features()

	fields := newFieldCollectors(order)
	collectors := newTermSlotCollectors(order, fields)
	states := make(map[seg.SubReader]segmentState)

	for i := 0; i < index.Size(); i++ {
		segment := index.Segment(i)
		field, ok := resolveField(segment, f.Field, required)
		if !ok {
			continue
		}
		mt, found := seekExact(field, literal, func(it seg.TermIterator) {
			collectors.collectTerm(segment, field, 0, it)
		})
		if !found {
			continue
		}
		fields.collect(segment, field)
		states[segment] = termState{field: field, mt: mt}
	}
	if len(states) == 0 {
		return emptyPrepared(), nil
	}

	statsPerScorer := collectors.finish(0, index)
	build := func(segment seg.SubReader, raw segmentState, ord scorer.Order) iter.DocIterator {
		st := raw.(termState)
		features := seg.FeatureDocs | ord.Features()
		docIters := buildTermIterators(st.field, []matchedTerm{st.mt}, features, segment.LiveDocs())
		it := docIters[0].(*iter.TermDocIterator)
		attachScoresFromStats(it, ord, segment, st.field, statsPerScorer, boost)
		return it
	}
	return newPrepared(boost, order, states, nil, build), nil
}
