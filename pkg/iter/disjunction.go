package iter

import (
	"container/heap"

	"github.com/kittclouds/qcore/pkg/attribute"
	"github.com/kittclouds/qcore/pkg/seg"
)

// docHeap is a min-heap of DocIterators ordered by current Value().
type docHeap []DocIterator

func (h docHeap) Len() int            { return len(h) }
func (h docHeap) Less(i, j int) bool  { return h[i].Value() < h[j].Value() }
func (h docHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *docHeap) Push(x any)         { *h = append(*h, x.(DocIterator)) }
func (h *docHeap) Pop() any {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// Disjunction is the boolean-OR combinator (§4.2): a min-heap of
// sub-iterators keyed by doc id. next pops every sub-iterator currently at
// the minimum doc, advances them, and re-inserts the ones still live;
// scores aggregate over every sub-iterator that matched the winning doc.
// An optional minMatch threshold drops documents matched by fewer than
// minMatch sub-iterators.
type Disjunction struct {
	h          docHeap
	doc        seg.DocId
	minMatch   int
	matchedSet []DocIterator // scratch, reused per doc
	bag        *attribute.Bag
}

// NewDisjunction combines subs with the given minMatch threshold (1 means
// plain OR). agg aggregates score components across every sub-iterator
// that matched the winning document.
func NewDisjunction(subs []DocIterator, agg Aggregator, numScorers int, minMatch int) DocIterator {
	if len(subs) == 1 && minMatch <= 1 {
		return subs[0]
	}
	live := make([]DocIterator, 0, len(subs))
	for _, s := range subs {
		if s.Next() {
			live = append(live, s)
		}
	}
	if len(live) == 0 {
		return Empty()
	}
	return newDisjunction(live, agg, numScorers, minMatch)
}

// NewSlotDisjunction is NewDisjunction without the single-sub
// shortcut: a variadic phrase slot always needs a real *Disjunction so its
// position stream can be rebuilt from MatchedSubs per document, even when
// only one of the slot's accepted terms is present in a given segment.
func NewSlotDisjunction(subs []DocIterator, agg Aggregator, numScorers int) *Disjunction {
	live := make([]DocIterator, 0, len(subs))
	for _, s := range subs {
		if s.Next() {
			live = append(live, s)
		}
	}
	if len(live) == 0 {
		live = []DocIterator{Empty()}
	}
	return newDisjunction(live, agg, numScorers, 1)
}

func newDisjunction(live []DocIterator, agg Aggregator, numScorers int, minMatch int) *Disjunction {
	if minMatch < 1 {
		minMatch = 1
	}

	d := &Disjunction{
		h:        docHeap(live),
		doc:      seg.DocInvalid,
		minMatch: minMatch,
		bag:      attribute.NewBag(),
	}
	heap.Init(&d.h)

	var totalCost uint64
	for _, s := range live {
		totalCost += costOf(s)
	}
	d.bag.Set(attribute.KindCost, totalCost)
	d.bag.Set(attribute.KindDocument, &d.doc)
	if numScorers > 0 {
		d.bag.Set(attribute.KindScore, attribute.Score(func(dst []float32) {
			tmp := make([]float32, numScorers)
			for _, s := range d.matchedSet {
				if raw, ok := s.Attributes().Get(attribute.KindScore); ok {
					if fn, ok := raw.(attribute.Score); ok {
						fn(tmp)
						agg(dst, tmp)
						for i := range tmp {
							tmp[i] = 0
						}
					}
				}
			}
		}))
	}

	return d
}

// advance pops the heap's minimum-doc group, re-inserting live sub-
// iterators, and repeats until a group meets minMatch or the heap empties.
func (d *Disjunction) advance() {
	d.matchedSet = d.matchedSet[:0]
	for d.h.Len() > 0 {
		d.matchedSet = d.matchedSet[:0]
		target := d.h[0].Value()
		for d.h.Len() > 0 && d.h[0].Value() == target {
			sub := heap.Pop(&d.h).(DocIterator)
			d.matchedSet = append(d.matchedSet, sub)
		}
		if len(d.matchedSet) >= d.minMatch {
			d.doc = target
			for _, sub := range d.matchedSet {
				if sub.Next() {
					heap.Push(&d.h, sub)
				}
			}
			return
		}
		for _, sub := range d.matchedSet {
			if sub.Next() {
				heap.Push(&d.h, sub)
			}
		}
	}
	d.doc = seg.DocEOF
}

func (d *Disjunction) Next() bool {
	if d.doc == seg.DocEOF {
		return false
	}
	d.advance()
	return d.doc != seg.DocEOF
}

func (d *Disjunction) Seek(target seg.DocId) seg.DocId {
	if d.doc == seg.DocEOF {
		return seg.DocEOF
	}
	if target == seg.DocEOF {
		d.doc = seg.DocEOF
		return seg.DocEOF
	}
	if d.doc >= target && d.doc != seg.DocInvalid {
		return d.doc
	}
	for d.h.Len() > 0 && d.h[0].Value() < target {
		sub := heap.Pop(&d.h).(DocIterator)
		if sub.Seek(target) != seg.DocEOF {
			heap.Push(&d.h, sub)
		}
	}
	d.advance()
	return d.doc
}

func (d *Disjunction) Value() seg.DocId { return d.doc }

func (d *Disjunction) Attributes() *attribute.Bag { return d.bag }

// MatchedSubs returns the sub-iterators that matched the current document,
// used by variadic phrase slots to build a merged position stream.
func (d *Disjunction) MatchedSubs() []DocIterator { return d.matchedSet }
