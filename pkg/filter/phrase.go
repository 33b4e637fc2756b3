package filter

import (
	"bytes"

	"github.com/kittclouds/qcore/pkg/iter"
	"github.com/kittclouds/qcore/pkg/scorer"
	"github.com/kittclouds/qcore/pkg/seg"
)

// PhraseSlotKind selects which single-term filter shape a phrase slot's
// options expand to (§4.3 "Every slot is one of: by_term, by_prefix,
// by_wildcard, by_edit_distance, by_terms, by_range").
type PhraseSlotKind int

const (
	SlotTerm PhraseSlotKind = iota
	SlotPrefix
	SlotWildcard
	SlotEditDistance
	SlotRange
	SlotTerms // by_terms: variadic expansion unimplemented, see Open Question 3
)

// PhraseSlotOptions configures one phrase slot's matching criterion.
type PhraseSlotOptions struct {
	Kind     PhraseSlotKind
	Text     string // by_term, by_prefix, by_wildcard, by_edit_distance
	MaxEdits int    // by_edit_distance

	Lower, Upper                   []byte // by_range
	LowerInclusive, UpperInclusive bool
}

// PhraseSlotSpec is one entry of the phrase's ordered slot map (§3 "Phrase
// filter is an ordered map slot_offset -> slot_options"). Offset is the
// slot's declared token position; slots need not be contiguous (a gap
// models an unconstrained token between two matched slots).
type PhraseSlotSpec struct {
	Offset  int
	Options PhraseSlotOptions
}

// Phrase matches documents where every slot has a term occurrence at the
// slot's declared relative offset from a common base position (§4.3).
type Phrase struct {
	Field string
	Slots []PhraseSlotSpec
	Boost float32
	Merge iter.MergeType
}

// NewPhrase builds a Phrase filter with the neutral boost and Sum merge.
func NewPhrase(field string, slots ...PhraseSlotSpec) *Phrase {
	return &Phrase{Field: field, Slots: slots, Boost: seg.NoBoost}
}

// slotMatcher translates one slot's options into the (floor, accept, stop)
// triple walkTerms needs, the same shape Prefix/Wildcard/EditDistance/Range
// use standalone (§4.1 step 3's per-variant term walk).
func slotMatcher(opts PhraseSlotOptions) (floor []byte, accept func([]byte) bool, stop func([]byte) bool, err error) {
	switch opts.Kind {
	case SlotTerm:
		lit := []byte(opts.Text)
		return lit, func(t []byte) bool { return bytes.Equal(t, lit) }, func(t []byte) bool { return bytes.Compare(t, lit) > 0 }, nil
	case SlotPrefix:
		p := []byte(opts.Text)
		return p, func(t []byte) bool { return bytes.HasPrefix(t, p) }, func(t []byte) bool { return !bytes.HasPrefix(t, p) }, nil
	case SlotWildcard:
		re, compileErr := compileWildcard(opts.Text)
		if compileErr != nil {
			return nil, nil, nil, prepareErrorf("phrase", "invalid wildcard slot pattern %q: %v", opts.Text, compileErr)
		}
		return nil, func(t []byte) bool { return re.Match(t) }, nil, nil
	case SlotEditDistance:
		target := []byte(opts.Text)
		maxEdits := opts.MaxEdits
		if maxEdits < 0 {
			maxEdits = 0
		}
		return nil, func(t []byte) bool { return levenshtein(target, t, maxEdits) <= maxEdits }, nil, nil
	case SlotRange:
		r := &Range{Lower: opts.Lower, LowerInclusive: opts.LowerInclusive, Upper: opts.Upper, UpperInclusive: opts.UpperInclusive}
		return opts.Lower, r.inBounds, r.pastUpper, nil
	case SlotTerms:
		return nil, nil, nil, prepareErrorf("phrase", "by_terms variadic slots are unimplemented (prepare fails rather than silently dropping the slot)")
	default:
		return nil, nil, nil, prepareErrorf("phrase", "unknown slot kind %d", opts.Kind)
	}
}

// --- Fixed phrase (every slot is by_term), §4.3.1 -------------------------

type fixedPhraseState struct {
	field        seg.TermReader
	terms        []matchedTerm // index-aligned with Slots
	statsPerSlot [][][]byte
}

func prepareFixedPhrase(f *Phrase, index seg.IndexReader, order scorer.Order, boost float32) (*Prepared, error) {
	required := seg.FeatureFreq | seg.FeaturePos | order.Features()
	// Every slot of a fixed phrase searches the same field, so one
	// fieldCollectors set is shared across all of them: field_collectors
	// must run at most once per segment for this filter, not once per
	// matched slot (§4.1 step 4).
	fields := newFieldCollectors(order)
	collectorsPerSlot := make([]*termSlotCollectors, len(f.Slots))
	for i := range f.Slots {
		collectorsPerSlot[i] = newTermSlotCollectors(order, fields)
	}

	states := make(map[seg.SubReader]segmentState)
	for i := 0; i < index.Size(); i++ {
		segment := index.Segment(i)
		field, ok := resolveField(segment, f.Field, required)
		if !ok {
			continue
		}
		terms := make([]matchedTerm, len(f.Slots))
		matchedCount := 0
		for slotIdx, slot := range f.Slots {
			mt, found := seekExact(field, []byte(slot.Options.Text), func(it seg.TermIterator) {
				collectorsPerSlot[slotIdx].collectTerm(segment, field, slotIdx, it)
			})
			if !found {
				continue
			}
			terms[slotIdx] = mt
			matchedCount++
		}
		if matchedCount == 0 {
			continue
		}
		fields.collect(segment, field)
		// §4.3.1: a segment only contributes results when every slot matched;
		// partial matches still fed the collectors above for global stats.
		if matchedCount != len(f.Slots) {
			continue
		}
		states[segment] = fixedPhraseState{field: field, terms: terms}
	}
	if len(states) == 0 {
		return emptyPrepared(), nil
	}

	statsPerSlot := make([][][]byte, len(f.Slots))
	for slotIdx, c := range collectorsPerSlot {
		statsPerSlot[slotIdx] = c.finish(slotIdx, index)
	}
	for segment, raw := range states {
		st := raw.(fixedPhraseState)
		st.statsPerSlot = statsPerSlot
		states[segment] = st
	}

	merge := iter.Resolve(f.Merge)
	baseOffset := 0
	if len(f.Slots) > 0 {
		baseOffset = f.Slots[0].Offset
	}
	build := func(segment seg.SubReader, raw segmentState, ord scorer.Order) iter.DocIterator {
		st := raw.(fixedPhraseState)
		features := seg.FeatureFreq | seg.FeaturePos | ord.Features()
		docIters := buildTermIterators(st.field, st.terms, features, segment.LiveDocs())
		slots := make([]iter.PhraseSlot, len(docIters))
		for i, di := range docIters {
			termIt := di.(*iter.TermDocIterator)
			attachScoresFromStats(termIt, ord, segment, st.field, st.statsPerSlot[i], boost)
			slots[i] = iter.FixedSlot(termIt, f.Slots[i].Offset-baseOffset)
		}
		return iter.NewPhraseIterator(slots, merge, ord.Len())
	}
	return newPrepared(boost, order, states, nil, build), nil
}

// --- Variadic phrase (>= 1 slot is not by_term), §4.3.2 -------------------

type variadicSlotData struct {
	field        seg.TermReader
	terms        []matchedTerm
	statsPerTerm [][][]byte
}

type variadicPhraseState struct {
	perSlot []variadicSlotData // index-aligned with Slots
}

func prepareVariadicPhrase(f *Phrase, index seg.IndexReader, order scorer.Order, boost float32) (*Prepared, error) {
	required := seg.FeatureFreq | seg.FeaturePos | order.Features()
	matchers := make([]struct {
		floor  []byte
		accept func([]byte) bool
		stop   func([]byte) bool
	}, len(f.Slots))
	for i, slot := range f.Slots {
		floor, accept, stop, err := slotMatcher(slot.Options)
		if err != nil {
			return nil, err
		}
		matchers[i].floor, matchers[i].accept, matchers[i].stop = floor, accept, stop
	}

	states := make(map[seg.SubReader]segmentState)
	for i := 0; i < index.Size(); i++ {
		segment := index.Segment(i)
		field, ok := resolveField(segment, f.Field, required)
		if !ok {
			continue
		}
		perSlot := make([]variadicSlotData, len(f.Slots))
		slotCollectors := make([]*termSlotCollectors, len(f.Slots))
		matchedAny := false
		// One fieldCollectors set per segment, shared by every slot (they
		// all search f.Field): field_collectors.collect must run at most
		// once per segment for this filter, not once per matched slot
		// (§4.1 step 4). Fresh per segment, not global across the index,
		// since a variadic slot's term set is data-dependent per segment —
		// the same reasoning prepareDynamicTermSet applies to Prefix/
		// Wildcard/EditDistance/Range.
		fields := newFieldCollectors(order)
		for slotIdx := range f.Slots {
			collectors := newTermSlotCollectors(order, fields)
			terms := walkTerms(field, matchers[slotIdx].floor, seg.NoBoost, matchers[slotIdx].accept, matchers[slotIdx].stop,
				func(termIndex int, it seg.TermIterator) { collectors.collectTerm(segment, field, termIndex, it) })
			if len(terms) == 0 {
				continue
			}
			slotCollectors[slotIdx] = collectors
			perSlot[slotIdx] = variadicSlotData{field: field, terms: terms}
			matchedAny = true
		}
		if !matchedAny {
			continue
		}
		// field_collectors.collect runs once, after every slot's term walk
		// and before any slot's finish, so every slot's finish sees this
		// segment's contribution to the shared field stats (§4.1 step 4).
		fields.collect(segment, field)
		for slotIdx, collectors := range slotCollectors {
			if collectors == nil {
				continue
			}
			terms := perSlot[slotIdx].terms
			statsPerTerm := make([][][]byte, len(terms))
			for t := range terms {
				statsPerTerm[t] = collectors.finish(t, index)
			}
			perSlot[slotIdx].statsPerTerm = statsPerTerm
		}
		// every slot must have at least one accepted term for the phrase to
		// possibly match in this segment (§4.3.1's slot-count rule applies to
		// the variadic case too: a slot with zero accepted terms can never
		// align).
		complete := true
		for _, sd := range perSlot {
			if len(sd.terms) == 0 {
				complete = false
				break
			}
		}
		if !complete {
			continue
		}
		states[segment] = variadicPhraseState{perSlot: perSlot}
	}
	if len(states) == 0 {
		return emptyPrepared(), nil
	}

	merge := iter.Resolve(f.Merge)
	baseOffset := 0
	if len(f.Slots) > 0 {
		baseOffset = f.Slots[0].Offset
	}
	build := func(segment seg.SubReader, raw segmentState, ord scorer.Order) iter.DocIterator {
		st := raw.(variadicPhraseState)
		features := seg.FeatureFreq | seg.FeaturePos | ord.Features()
		slots := make([]iter.PhraseSlot, len(st.perSlot))
		for i, sd := range st.perSlot {
			docIters := buildTermIterators(sd.field, sd.terms, features, segment.LiveDocs())
			for t, di := range docIters {
				attachScoresFromStats(di.(*iter.TermDocIterator), ord, segment, sd.field, sd.statsPerTerm[t], boost)
			}
			disjunction := iter.NewSlotDisjunction(docIters, merge, ord.Len())
			slots[i] = iter.VariadicSlot(disjunction, f.Slots[i].Offset-baseOffset)
		}
		return iter.NewPhraseIterator(slots, merge, ord.Len())
	}
	return newPrepared(boost, order, states, nil, build), nil
}

func (f *Phrase) Prepare(index seg.IndexReader, order scorer.Order, callerBoost float32, _ any) (*Prepared, error) {
	if f.Field == "" || len(f.Slots) == 0 {
		return emptyPrepared(), nil
	}
	for _, slot := range f.Slots {
		if slot.Options.Kind == SlotTerms {
			return nil, prepareErrorf("phrase", "by_terms variadic slots are unimplemented (prepare fails rather than silently dropping the slot)")
		}
	}
	boost := seg.ClampBoost(f.Boost * callerBoost)

	if len(f.Slots) == 1 {
		return dispatchSingleSlot(f.Field, f.Slots[0].Options, f.Merge).Prepare(index, order, boost, nil)
	}

	allTerm := true
	for _, slot := range f.Slots {
		if slot.Options.Kind != SlotTerm {
			allTerm = false
			break
		}
	}
	if allTerm {
		return prepareFixedPhrase(f, index, order, boost)
	}
	return prepareVariadicPhrase(f, index, order, boost)
}

// dispatchSingleSlot builds the degenerate single-term filter a one-slot
// phrase reduces to (§4.3 "Exactly one slot -> dispatch to the underlying
// single-term filter with the full slot options").
func dispatchSingleSlot(field string, opts PhraseSlotOptions, merge iter.MergeType) Filter {
	switch opts.Kind {
	case SlotTerm:
		return NewTerm(field, opts.Text)
	case SlotPrefix:
		pf := NewPrefix(field, opts.Text)
		pf.Merge = merge
		return pf
	case SlotWildcard:
		wf := NewWildcard(field, opts.Text)
		wf.Merge = merge
		return wf
	case SlotEditDistance:
		ef := NewEditDistance(field, opts.Text, opts.MaxEdits)
		ef.Merge = merge
		return ef
	case SlotRange:
		rf := NewRange(field)
		rf.Lower, rf.LowerInclusive = opts.Lower, opts.LowerInclusive
		rf.Upper, rf.UpperInclusive = opts.Upper, opts.UpperInclusive
		rf.Merge = merge
		return rf
	default:
		return Empty{}
	}
}
