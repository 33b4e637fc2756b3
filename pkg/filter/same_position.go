package filter

import (
	"github.com/kittclouds/qcore/pkg/iter"
	"github.com/kittclouds/qcore/pkg/scorer"
	"github.com/kittclouds/qcore/pkg/seg"
)

// SamePositionTerm is one (field, term) pair in a same-position filter's
// option list (§4.4 "an ordered list of (field, term_bytes) pairs").
type SamePositionTerm struct {
	Field string
	Text  string
}

// SamePosition matches documents where every listed (field, term) pair has
// an occurrence at one shared position (§4.4).
type SamePosition struct {
	Terms []SamePositionTerm
	Boost float32
	Merge iter.MergeType
}

// NewSamePosition builds a SamePosition filter with the neutral boost.
func NewSamePosition(terms ...SamePositionTerm) *SamePosition {
	return &SamePosition{Terms: terms, Boost: seg.NoBoost}
}

type samePositionSlotState struct {
	field seg.TermReader
	mt    matchedTerm
}

type samePositionState struct {
	slots        []samePositionSlotState // index-aligned with Terms
	statsPerSlot [][][]byte
}

func (f *SamePosition) Prepare(index seg.IndexReader, order scorer.Order, callerBoost float32, _ any) (*Prepared, error) {
	if len(f.Terms) == 0 {
		return emptyPrepared(), nil
	}
	boost := seg.ClampBoost(f.Boost * callerBoost)
	required := seg.FeatureFreq | seg.FeaturePos | order.Features()

	// Open Question 2: field statistics must be aggregated with one field
	// collector per distinct field in the term set, not a single collector
	// shared across heterogeneous fields (the source flags the latter as
	// "completely wrong"). distinctFieldCollectors maps a field name to the
	// fieldCollectors set that every slot on that field shares.
	distinctFieldCollectors := make(map[string]*fieldCollectors)
	for _, t := range f.Terms {
		if _, ok := distinctFieldCollectors[t.Field]; ok {
			continue
		}
		distinctFieldCollectors[t.Field] = newFieldCollectors(order)
	}
	termCollectorsPerSlot := make([]*termSlotCollectors, len(f.Terms))
	for i, t := range f.Terms {
		termCollectorsPerSlot[i] = newTermSlotCollectors(order, distinctFieldCollectors[t.Field])
	}

	states := make(map[seg.SubReader]segmentState)
	for i := 0; i < index.Size(); i++ {
		segment := index.Segment(i)
		slots := make([]samePositionSlotState, len(f.Terms))
		matchedCount := 0
		fieldMatched := make(map[string]bool)
		for slotIdx, t := range f.Terms {
			field, ok := resolveField(segment, t.Field, required)
			if !ok {
				continue
			}
			mt, found := seekExact(field, []byte(t.Text), func(it seg.TermIterator) {
				termCollectorsPerSlot[slotIdx].collectTerm(segment, field, slotIdx, it)
			})
			if !found {
				continue
			}
			slots[slotIdx] = samePositionSlotState{field: field, mt: mt}
			matchedCount++
			fieldMatched[t.Field] = true
		}
		if matchedCount == 0 {
			continue
		}
		for fieldName, matched := range fieldMatched {
			if !matched {
				continue
			}
			field, _ := resolveField(segment, fieldName, required)
			distinctFieldCollectors[fieldName].collect(segment, field)
		}
		if matchedCount != len(f.Terms) {
			continue
		}
		states[segment] = samePositionState{slots: slots}
	}
	if len(states) == 0 {
		return emptyPrepared(), nil
	}

	statsPerSlot := make([][][]byte, len(f.Terms))
	for slotIdx, c := range termCollectorsPerSlot {
		statsPerSlot[slotIdx] = c.finish(slotIdx, index)
	}
	for segment, raw := range states {
		st := raw.(samePositionState)
		st.statsPerSlot = statsPerSlot
		states[segment] = st
	}

	merge := iter.Resolve(f.Merge)
	build := func(segment seg.SubReader, raw segmentState, ord scorer.Order) iter.DocIterator {
		st := raw.(samePositionState)
		features := seg.FeatureFreq | seg.FeaturePos | ord.Features()
		docIters := make([]iter.DocIterator, len(st.slots))
		for i, slot := range st.slots {
			built := buildTermIterators(slot.field, []matchedTerm{slot.mt}, features, segment.LiveDocs())
			termIt := built[0].(*iter.TermDocIterator)
			attachScoresFromStats(termIt, ord, segment, slot.field, st.statsPerSlot[i], boost)
			docIters[i] = termIt
		}
		return iter.NewSamePositionIterator(docIters, merge, ord.Len())
	}
	return newPrepared(boost, order, states, nil, build), nil
}
