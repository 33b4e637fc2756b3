package filter

import (
	"github.com/kittclouds/qcore/pkg/iter"
	"github.com/kittclouds/qcore/pkg/scorer"
	"github.com/kittclouds/qcore/pkg/seg"
)

// Terms matches documents carrying at least MinMatch of the listed literal
// tokens in one field — a disjunction of exact terms (§3 "Terms (disjunction
// of terms)").
type Terms struct {
	Field    string
	Texts    []string
	Boost    float32
	MinMatch int // 0 or 1 means plain OR
	Merge    iter.MergeType
}

// NewTerms builds a Terms filter with plain-OR semantics and the neutral
// boost.
func NewTerms(field string, texts ...string) *Terms {
	return &Terms{Field: field, Texts: texts, Boost: seg.NoBoost, MinMatch: 1}
}

type termsState struct {
	field  seg.TermReader
	slots  []matchedTerm // index-aligned with the original Texts, entries may be zero-value when unmatched
	active []int         // indices into slots that actually matched
}

func (f *Terms) Prepare(index seg.IndexReader, order scorer.Order, callerBoost float32, _ any) (*Prepared, error) {
	if len(f.Texts) == 0 {
		return emptyPrepared(), nil
	}
	boost := seg.ClampBoost(f.Boost * callerBoost)
	required := seg.FeatureDocs | order.Features()

	// One fieldCollectors set shared by every text slot, since they all
	// search the same field: field_collectors.collect must run at most once
	// per segment for this filter, not once per matched slot (§4.1 step 4).
	fields := newFieldCollectors(order)
	collectorsPerSlot := make([]*termSlotCollectors, len(f.Texts))
	for i := range f.Texts {
		collectorsPerSlot[i] = newTermSlotCollectors(order, fields)
	}

	states := make(map[seg.SubReader]segmentState)
	for i := 0; i < index.Size(); i++ {
		segment := index.Segment(i)
		field, ok := resolveField(segment, f.Field, required)
		if !ok {
			continue
		}
		st := termsState{field: field, slots: make([]matchedTerm, len(f.Texts))}
		matchedAny := false
		for slot, text := range f.Texts {
			mt, found := seekExact(field, []byte(text), func(it seg.TermIterator) {
				collectorsPerSlot[slot].collectTerm(segment, field, slot, it)
			})
			if !found {
				continue
			}
			st.slots[slot] = mt
			st.active = append(st.active, slot)
			matchedAny = true
		}
		if !matchedAny {
			continue
		}
		fields.collect(segment, field)
		states[segment] = st
	}
	if len(states) == 0 {
		return emptyPrepared(), nil
	}

	statsPerSlot := make([][][]byte, len(f.Texts))
	for slot, c := range collectorsPerSlot {
		statsPerSlot[slot] = c.finish(slot, index)
	}

	minMatch := f.MinMatch
	if minMatch < 1 {
		minMatch = 1
	}
	merge := iter.Resolve(f.Merge)

	build := func(segment seg.SubReader, raw segmentState, ord scorer.Order) iter.DocIterator {
		st := raw.(termsState)
		features := seg.FeatureDocs | ord.Features()
		subs := make([]iter.DocIterator, 0, len(st.active))
		for _, slot := range st.active {
			docIters := buildTermIterators(st.field, []matchedTerm{st.slots[slot]}, features, segment.LiveDocs())
			termIt := docIters[0].(*iter.TermDocIterator)
			attachScoresFromStats(termIt, ord, segment, st.field, statsPerSlot[slot], boost)
			subs = append(subs, termIt)
		}
		return iter.NewDisjunction(subs, merge, ord.Len(), minMatch)
	}
	return newPrepared(boost, order, states, nil, build), nil
}
