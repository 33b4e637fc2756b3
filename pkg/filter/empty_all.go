package filter

import (
	"github.com/kittclouds/qcore/pkg/attribute"
	"github.com/kittclouds/qcore/pkg/iter"
	"github.com/kittclouds/qcore/pkg/scorer"
	"github.com/kittclouds/qcore/pkg/seg"
)

// Empty always prepares to the shared empty-iterator singleton regardless
// of index or scorers (§3 "The empty filter ... prepare to a shared
// empty-iterator singleton").
type Empty struct{}

func (Empty) Prepare(seg.IndexReader, scorer.Order, float32, any) (*Prepared, error) {
	return emptyPrepared(), nil
}

// allState caches a segment's id range; every live document in it matches.
type allState struct {
	maxDoc seg.DocId
}

// All matches every live document in every segment — the universal filter,
// useful as a neutral base for wrapping with Boost or combining in a larger
// tree where "everything" is a legitimate leaf.
type All struct {
	Boost float32
}

// NewAll builds an All filter with the neutral boost.
func NewAll() *All { return &All{Boost: seg.NoBoost} }

func (f *All) Prepare(index seg.IndexReader, order scorer.Order, callerBoost float32, _ any) (*Prepared, error) {
	boost := seg.ClampBoost(f.Boost * callerBoost)
	states := make(map[seg.SubReader]segmentState)
	for i := 0; i < index.Size(); i++ {
		segment := index.Segment(i)
		if segment.NumDocs() == 0 {
			continue
		}
		states[segment] = allState{maxDoc: segment.MaxDoc()}
	}
	if len(states) == 0 {
		return emptyPrepared(), nil
	}
	build := func(segment seg.SubReader, raw segmentState, _ scorer.Order) iter.DocIterator {
		st := raw.(allState)
		return newAllIterator(segment.LiveDocs(), st.maxDoc, boost)
	}
	return newPrepared(boost, order, states, nil, build), nil
}

// allIterator walks every document id from seg.DocMin up to maxDoc,
// skipping any id excluded by live.
type allIterator struct {
	live   seg.DocSet
	maxDoc seg.DocId
	doc    seg.DocId
	bag    *attribute.Bag
}

func newAllIterator(live seg.DocSet, maxDoc seg.DocId, boost float32) *allIterator {
	bag := attribute.NewBag()
	it := &allIterator{live: live, maxDoc: maxDoc, doc: seg.DocInvalid, bag: bag}
	bag.Set(attribute.KindDocument, &it.doc)
	bag.Set(attribute.KindCost, uint64(maxDoc))
	bag.Set(attribute.KindScore, attribute.Score(func(dst []float32) {
		for i := range dst {
			dst[i] = boost
		}
	}))
	return it
}

func (a *allIterator) isLive(d seg.DocId) bool { return a.live == nil || a.live.Contains(d) }

func (a *allIterator) Next() bool {
	if a.doc == seg.DocEOF {
		return false
	}
	for d := a.doc + 1; d <= a.maxDoc; d++ {
		if a.isLive(d) {
			a.doc = d
			return true
		}
	}
	a.doc = seg.DocEOF
	return false
}

func (a *allIterator) Seek(target seg.DocId) seg.DocId {
	if a.doc == seg.DocEOF {
		return seg.DocEOF
	}
	if target == seg.DocEOF {
		a.doc = seg.DocEOF
		return seg.DocEOF
	}
	if target <= a.doc && a.doc != seg.DocInvalid {
		return a.doc
	}
	for d := target; d <= a.maxDoc; d++ {
		if a.isLive(d) {
			a.doc = d
			return d
		}
	}
	a.doc = seg.DocEOF
	return seg.DocEOF
}

func (a *allIterator) Value() seg.DocId { return a.doc }

func (a *allIterator) Attributes() *attribute.Bag { return a.bag }
