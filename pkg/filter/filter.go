// Package filter implements the user-facing filter tree: the immutable
// Filter variants of §3/§4.1, their two-phase prepare/execute pipeline, the
// per-segment states cache, and the boost-propagation rules. Filters are
// compiled once per query via Prepare and then executed once per segment,
// mirroring how AleutianFOSS's trace index resolves a query plan before
// iterating it.
package filter

import (
	"fmt"

	"github.com/kittclouds/qcore/pkg/attribute"
	"github.com/kittclouds/qcore/pkg/iter"
	"github.com/kittclouds/qcore/pkg/scorer"
	"github.com/kittclouds/qcore/pkg/seg"
)

// PrepareError reports a configuration error surfaced at Prepare time: an
// unknown scorer, a malformed filter option, or an explicitly unsupported
// combination (§7 "Configuration errors ... returned as a failure from
// prepare").
type PrepareError struct {
	Kind    string
	Message string
}

func (e *PrepareError) Error() string { return fmt.Sprintf("filter prepare: %s: %s", e.Kind, e.Message) }

func prepareErrorf(kind, format string, args ...any) error {
	return &PrepareError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Filter is the sum type every concrete query node implements (§3 "Filter
// tree"): Term, Prefix, Wildcard, EditDistance, Range, Terms, Phrase,
// SamePosition, Boost, Empty, All.
type Filter interface {
	// Prepare compiles the filter against index using order's scorers,
	// folding callerBoost into the filter's own boost. ctx is reserved for
	// future cancellation/tracing and may be nil.
	Prepare(index seg.IndexReader, order scorer.Order, callerBoost float32, ctx any) (*Prepared, error)
}

// segmentState is the opaque per-segment payload a Prepared filter caches
// during prepare. Each filter variant stores whatever shape it needs behind
// this interface; execute only ever reads its own variant's state back out
// of the states cache.
type segmentState interface{}

// Prepared is the product of a Filter and an IndexReader (§3 "Prepared").
// It owns the boost, the finalized scorer stats blob, and a states cache
// keyed by segment identity. A Prepared outlives none of its iterators'
// callers' expectations in reverse: iterators must not outlive it, but it
// owns no reference back to the filter tree that produced it.
type Prepared struct {
	boost   float32
	order   scorer.Order
	states  map[seg.SubReader]segmentState
	build   func(seg.SubReader, segmentState, scorer.Order) iter.DocIterator
	stats   []byte
}

// newPrepared assembles a Prepared from a finished states map and a
// per-variant execute closure.
func newPrepared(boost float32, order scorer.Order, states map[seg.SubReader]segmentState, stats []byte, build func(seg.SubReader, segmentState, scorer.Order) iter.DocIterator) *Prepared {
	return &Prepared{boost: boost, order: order, states: states, build: build, stats: stats}
}

// emptyPrepared is the Prepared every degenerate filter (empty field, empty
// term set, empty phrase slot map) resolves to: its states cache is always
// empty, so execute always returns the shared empty iterator (§3 "The empty
// filter ... prepare to a shared empty-iterator singleton").
func emptyPrepared() *Prepared {
	return &Prepared{states: map[seg.SubReader]segmentState{}}
}

// Boost returns the Prepared's resolved boost (product of every ancestor
// boost and the node's own, clamped to >= 0).
func (p *Prepared) Boost() float32 { return p.boost }

// Execute builds the DocIterator for segment. A segment with no entry in
// the states cache yields the shared empty iterator, never an error (§3
// "If the states cache has no entry for a segment, execute returns the
// empty iterator — not an error").
func (p *Prepared) Execute(segment seg.SubReader) iter.DocIterator {
	state, ok := p.states[segment]
	if !ok || p.build == nil {
		return iter.Empty()
	}
	return p.build(segment, state, p.order)
}

// --- shared term-matching machinery ---------------------------------------

// matchedTerm is one term-dictionary entry a filter accepted while walking
// a field during prepare, paired with its resolved per-term boost.
type matchedTerm struct {
	cookie seg.SeekCookie
	boost  float32
	docFreq int
}

// resolveField looks up fieldName on segment and verifies its indexed
// features are a superset of required, implementing §4.1 steps 1-2. ok is
// false when the segment should be silently skipped.
func resolveField(segment seg.SubReader, fieldName string, required seg.IndexFeatures) (seg.TermReader, bool) {
	field, ok := segment.Field(fieldName)
	if !ok {
		return nil, false
	}
	if !field.Meta().IndexFeatures.Has(required) {
		return nil, false
	}
	return field, true
}

// walkTerms walks field's term dictionary starting at floor (or from the
// very first term when floor is nil), collecting one matchedTerm for every
// visited term that accept reports true for. If stop reports true for a
// term, the walk ends before that term is visited — used by Prefix and
// Range to avoid scanning terms past their contiguous sorted bucket. collect
// is invoked once per accepted term, at the term index within this segment's
// walk (§4.1 step 3's term_collectors.collect, run inline during the walk
// since a seek_term_iterator is only valid at its current position).
func walkTerms(field seg.TermReader, floor []byte, boost float32, accept func(term []byte) bool, stop func(term []byte) bool, collect func(termIndex int, it seg.TermIterator)) []matchedTerm {
	it := field.Iterator()
	if floor != nil {
		it.Seek(floor)
	} else {
		it.Next()
	}
	var out []matchedTerm
	for {
		term := it.Value()
		if term == nil {
			break
		}
		if stop != nil && stop(term) {
			break
		}
		if accept(term) {
			if collect != nil {
				collect(len(out), it)
			}
			out = append(out, matchedTerm{cookie: it.Cookie(), boost: boost, docFreq: it.DocFreq()})
		}
		if !it.Next() {
			break
		}
	}
	return out
}

// seekExact looks up literal in field's dictionary, returning its cookie
// only on an exact match (§4.1's by_term walk). collect, when non-nil, is
// invoked with the positioned iterator before the cookie is captured.
func seekExact(field seg.TermReader, literal []byte, collect func(it seg.TermIterator)) (matchedTerm, bool) {
	it := field.Iterator()
	if !it.Seek(literal) {
		return matchedTerm{}, false
	}
	if collect != nil {
		collect(it)
	}
	return matchedTerm{cookie: it.Cookie(), boost: seg.NoBoost, docFreq: it.DocFreq()}, true
}

// fieldCollectors bundles every active scorer's field_collector for one
// field. It is shared by every term slot that searches that same field, and
// must be Collect-ed at most once per segment regardless of how many of
// those slots matched there (§4.1 step 4: "call field_collectors.collect
// ... exactly once per segment that contributed >= 1 term" — a cardinality
// rule stated per filter-field, not per matched slot).
type fieldCollectors struct {
	fields []scorer.FieldCollector
}

func newFieldCollectors(order scorer.Order) *fieldCollectors {
	buckets := order.Buckets()
	fc := &fieldCollectors{fields: make([]scorer.FieldCollector, len(buckets))}
	for i, ps := range buckets {
		fc.fields[i] = ps.FieldCollector()
	}
	return fc
}

func (fc *fieldCollectors) collect(segment seg.SubReader, field seg.TermReader) {
	for _, f := range fc.fields {
		f.Collect(segment, field)
	}
}

// termSlotCollectors bundles, for one term-dictionary slot, every active
// scorer's term_collector, scored against a (possibly slot-shared)
// fieldCollectors. A slot's term_collectors are shared across every segment
// the slot matched in and finalized exactly once after the whole index has
// been walked (§4.1: "collect ... then finish produces the final per-term
// stats blob").
type termSlotCollectors struct {
	order  scorer.Order
	fields *fieldCollectors
	terms  []scorer.TermCollector
}

func newTermSlotCollectors(order scorer.Order, fields *fieldCollectors) *termSlotCollectors {
	buckets := order.Buckets()
	c := &termSlotCollectors{
		order:  order,
		fields: fields,
		terms:  make([]scorer.TermCollector, len(buckets)),
	}
	for i, ps := range buckets {
		c.terms[i] = ps.TermCollector()
	}
	return c
}

func (c *termSlotCollectors) collectTerm(segment seg.SubReader, field seg.TermReader, slotIndex int, it seg.TermIterator) {
	for _, tc := range c.terms {
		tc.Collect(segment, field, slotIndex, it)
	}
}

// finish finalizes every scorer's stats for slotIndex, returning one blob
// per scorer in order.Buckets() order.
func (c *termSlotCollectors) finish(slotIndex int, index seg.IndexReader) [][]byte {
	buckets := c.order.Buckets()
	out := make([][]byte, len(buckets))
	for i, ps := range buckets {
		buf := make([]byte, ps.StatsSize())
		c.terms[i].Finish(buf, slotIndex, c.fields.fields[i], index)
		out[i] = buf
	}
	return out
}

// attachScoresFromStats wires every prepared scorer's ScoreFunction, built
// from statsPerScorer, onto it's attribute bag.
func attachScoresFromStats(it *iter.TermDocIterator, order scorer.Order, segment seg.SubReader, field seg.TermReader, statsPerScorer [][]byte, boost float32) {
	if order.Empty() {
		return
	}
	buckets := order.Buckets()
	fns := make([]attribute.Score, len(buckets))
	for i, ps := range buckets {
		fns[i] = ps.PrepareScorer(segment, field, statsPerScorer[i], it.Attributes(), boost).AsAttribute()
	}
	it.SetScore(func(dst []float32) {
		for i, fn := range fns {
			fn(dst[i : i+1])
		}
	})
}

// buildTermIterators opens one seg.PostingsIterator per matchedTerm (via
// its cookie) wrapped as an iter.TermDocIterator, requesting features.
func buildTermIterators(field seg.TermReader, terms []matchedTerm, features seg.IndexFeatures, live seg.DocSet) []iter.DocIterator {
	out := make([]iter.DocIterator, len(terms))
	for i, mt := range terms {
		postings := field.Postings(mt.cookie, features)
		out[i] = iter.NewTermDocIterator(postings, uint64(mt.docFreq), mt.boost, live)
	}
	return out
}

// dynamicSetState is the per-segment cache entry shared by Prefix, Range,
// Wildcard and EditDistance: these filters accept a data-dependent number of
// terms per segment, so — unlike Term/Terms/Phrase/SamePosition, whose slot
// count is fixed by the query — each segment gets its own term_collector
// instances, finalized right after that segment's walk rather than once
// globally. There is no stable cross-segment term-slot identity for a
// dynamically expanding disjunction against the minimal seg.TermReader
// contract (§6), so per-segment stats are the closest faithful rendering.
type dynamicSetState struct {
	field          seg.TermReader
	terms          []matchedTerm
	statsPerTerm   [][][]byte // [termIndex][scorerIndex]
}

// prepareDynamicTermSet implements §4.1's walk for Prefix/Wildcard/
// EditDistance/Range: walk finds every accepted term in field and returns
// its matchedTerm list, feeding each accepted term through collect into a
// fresh per-segment collector set.
func prepareDynamicTermSet(index seg.IndexReader, order scorer.Order, fieldName string, required seg.IndexFeatures, boost float32, walk func(field seg.TermReader, collect func(termIndex int, it seg.TermIterator)) []matchedTerm) map[seg.SubReader]segmentState {
	states := make(map[seg.SubReader]segmentState)
	for i := 0; i < index.Size(); i++ {
		segment := index.Segment(i)
		field, ok := resolveField(segment, fieldName, required)
		if !ok {
			continue
		}
		fields := newFieldCollectors(order)
		collectors := newTermSlotCollectors(order, fields)
		terms := walk(field, func(termIndex int, it seg.TermIterator) {
			collectors.collectTerm(segment, field, termIndex, it)
		})
		if len(terms) == 0 {
			continue
		}
		fields.collect(segment, field)
		statsPerTerm := make([][][]byte, len(terms))
		for i := range terms {
			statsPerTerm[i] = collectors.finish(i, index)
		}
		states[segment] = dynamicSetState{field: field, terms: terms, statsPerTerm: statsPerTerm}
	}
	return states
}

// buildDynamicSetIterator realizes a dynamicSetState into a score-attached
// Disjunction over every matched term, the execute half of
// prepareDynamicTermSet.
func buildDynamicSetIterator(segment seg.SubReader, raw segmentState, order scorer.Order, boost float32, merge iter.Aggregator, minMatch int) iter.DocIterator {
	st := raw.(dynamicSetState)
	features := seg.FeatureDocs | order.Features()
	docIters := buildTermIterators(st.field, st.terms, features, segment.LiveDocs())
	for i, di := range docIters {
		attachScoresFromStats(di.(*iter.TermDocIterator), order, segment, st.field, st.statsPerTerm[i], boost)
	}
	return iter.NewDisjunction(docIters, merge, order.Len(), minMatch)
}

