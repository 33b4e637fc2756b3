package iter

import (
	"github.com/kittclouds/qcore/pkg/attribute"
	"github.com/kittclouds/qcore/pkg/seg"
)

// TermDocIterator adapts a single term's seg.PostingsIterator into a
// DocIterator, publishing document/frequency/position/cost attributes and
// an optional score function supplied by the caller (the prepared
// scorer's ScoreFunction, compiled once at execute time).
type TermDocIterator struct {
	postings seg.PostingsIterator
	live     seg.DocSet
	bag      *attribute.Bag
	doc      seg.DocId
	boost    attribute.FilterBoost
}

// NewTermDocIterator wraps postings with cost as its upper-bound estimate
// (the term's document frequency) and boost as its static per-term boost.
// live, when non-nil, is the segment's live-docs set; documents outside it
// are skipped transparently.
func NewTermDocIterator(postings seg.PostingsIterator, cost uint64, boost float32, live seg.DocSet) *TermDocIterator {
	bag := attribute.NewBag()
	bag.Set(attribute.KindCost, cost)
	bag.Set(attribute.KindFilterBoost, attribute.FilterBoost(boost))
	it := &TermDocIterator{postings: postings, live: live, bag: bag, doc: seg.DocInvalid, boost: attribute.FilterBoost(boost)}
	bag.Set(attribute.KindDocument, &it.doc)
	return it
}

func (it *TermDocIterator) Attributes() *attribute.Bag { return it.bag }

func (it *TermDocIterator) Value() seg.DocId { return it.doc }

func (it *TermDocIterator) advancePastDeleted(ok bool) bool {
	for ok {
		d := it.postings.Value()
		if it.live == nil || it.live.Contains(d) {
			it.doc = d
			it.syncAttributes()
			return true
		}
		ok = it.postings.Next()
	}
	it.doc = seg.DocEOF
	return false
}

func (it *TermDocIterator) Next() bool {
	if it.doc == seg.DocEOF {
		return false
	}
	return it.advancePastDeleted(it.postings.Next())
}

func (it *TermDocIterator) Seek(target seg.DocId) seg.DocId {
	if it.doc == seg.DocEOF {
		return seg.DocEOF
	}
	if target == seg.DocEOF {
		it.doc = seg.DocEOF
		return seg.DocEOF
	}
	d := it.postings.Seek(target)
	if d == seg.DocEOF {
		it.doc = seg.DocEOF
		return seg.DocEOF
	}
	it.doc = d
	it.syncAttributes()
	if it.live != nil && !it.live.Contains(it.doc) {
		if it.Next() {
			return it.doc
		}
		return seg.DocEOF
	}
	return it.doc
}

func (it *TermDocIterator) syncAttributes() {
	it.bag.Set(attribute.KindFrequency, it.postings.Freq())
	if pos := it.postings.Positions(); pos != nil {
		it.bag.Set(attribute.KindPosition, pos)
	}
}

// SetScore attaches a score attribute computed from the iterator's current
// frequency/position state; scorers call this once at prepare_scorer time.
func (it *TermDocIterator) SetScore(fn attribute.Score) { it.bag.Set(attribute.KindScore, fn) }
