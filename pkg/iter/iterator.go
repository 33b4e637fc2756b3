// Package iter implements the composable document iterators the query-
// evaluation core builds at execute time: term postings wrapped in an
// attribute bag, the Conjunction/Disjunction combinators, score
// aggregators, and the positional verifiers phrase and same-position
// filters layer on top of Conjunction (§4.2, §4.3, §4.4).
package iter

import (
	"github.com/kittclouds/qcore/pkg/attribute"
	"github.com/kittclouds/qcore/pkg/seg"
)

// DocIterator is the execution-time face of every filter: it advances
// through a segment's matching documents in strictly ascending order and
// exposes whatever optional attributes it carries through its Bag.
type DocIterator interface {
	// Next advances to the next matching document, returning false once
	// exhausted. Once false, every subsequent call must also return false.
	Next() bool
	// Seek advances to the smallest matching document >= target, or
	// seg.DocEOF. Seeking to seg.DocEOF always returns seg.DocEOF. Seeking
	// on an exhausted iterator returns seg.DocEOF and leaves it exhausted.
	Seek(target seg.DocId) seg.DocId
	// Value returns the current document id without advancing.
	Value() seg.DocId
	// Attributes returns the iterator's attribute bag (document, cost,
	// score, frequency, position, payload, offset, filter_boost as
	// applicable).
	Attributes() *attribute.Bag
}

// emptyIterator is the shared singleton every degenerate filter (empty
// field, empty term set, missing states-cache entry) prepares to.
type emptyIterator struct {
	bag *attribute.Bag
}

var sharedEmpty = &emptyIterator{bag: attribute.NewBag()}

// Empty returns the shared empty-iterator singleton: EOF immediately, no-op
// score, safe to call Next/Seek on repeatedly.
func Empty() DocIterator { return sharedEmpty }

func (e *emptyIterator) Next() bool                     { return false }
func (e *emptyIterator) Seek(seg.DocId) seg.DocId       { return seg.DocEOF }
func (e *emptyIterator) Value() seg.DocId               { return seg.DocEOF }
func (e *emptyIterator) Attributes() *attribute.Bag     { return e.bag }
