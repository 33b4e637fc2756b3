package iter

import (
	"github.com/kittclouds/qcore/pkg/attribute"
	"github.com/kittclouds/qcore/pkg/seg"
)

// PhraseSlot is one position in a phrase filter's slot map. Doc is whatever
// DocIterator participates in the base conjunction for this slot — a single
// term's TermDocIterator for a fixed (by_term) slot, or a Disjunction over
// the slot's accepted terms for a variadic slot. Positions returns a fresh
// position stream for the slot at the current document each time the
// verifier needs one (§4.3).
type PhraseSlot struct {
	Doc       DocIterator
	RelOffset int // slot_offset_k - slot_offset_0
	Positions func() seg.PositionIterator
}

// NewPhraseIterator conjoins slots on doc id, then layers the relative-
// offset positional verifier described in §4.3.1/§4.3.2 on top: once the
// conjunction lands on a candidate document, every slot's position stream
// must contain an occurrence at base+RelOffset for a common base.
func NewPhraseIterator(slots []PhraseSlot, agg Aggregator, numScorers int) DocIterator {
	if len(slots) == 0 {
		return Empty()
	}
	docIters := make([]DocIterator, len(slots))
	offsets := make([]int, len(slots))
	for i, s := range slots {
		docIters[i] = s.Doc
		offsets[i] = s.RelOffset
	}
	base := NewConjunction(docIters, agg, numScorers)
	if len(slots) == 1 {
		return base
	}

	verify := func() bool {
		positions := make([]seg.PositionIterator, len(slots))
		for i, s := range slots {
			p := s.Positions()
			if p == nil {
				return false
			}
			positions[i] = p
		}
		return alignPhrase(positions, offsets)
	}
	return NewVerified(base, verify)
}

// alignPhrase is find_same_position generalized with a per-stream relative
// offset: it looks for a common base position such that stream k has an
// occurrence at base+offsets[k] for every k, restarting whenever a seek
// lands past the running base (§4.3.1's verifier description).
func alignPhrase(positions []seg.PositionIterator, offsets []int) bool {
	base := positions[0].Next()
	if base == seg.PosEOF {
		return false
	}
	for {
		matched := true
		for k := 1; k < len(positions); k++ {
			target := seg.Pos(int(base) + offsets[k])
			got := positions[k].Seek(target)
			if got == seg.PosEOF {
				return false
			}
			if got != target {
				base = seg.Pos(int(got) - offsets[k])
				matched = false
				break
			}
		}
		if matched {
			return true
		}
		got0 := positions[0].Seek(base)
		if got0 == seg.PosEOF {
			return false
		}
		base = got0
	}
}

// positionOf is a convenience Positions() implementation for a single
// term's TermDocIterator slot.
func positionOf(it DocIterator) func() seg.PositionIterator {
	return func() seg.PositionIterator {
		raw, ok := it.Attributes().Get(attribute.KindPosition)
		if !ok {
			return nil
		}
		p, ok := raw.(seg.PositionIterator)
		if !ok {
			return nil
		}
		return p
	}
}

// FixedSlot builds a PhraseSlot for a by_term slot backed by a single
// term's DocIterator.
func FixedSlot(it DocIterator, relOffset int) PhraseSlot {
	return PhraseSlot{Doc: it, RelOffset: relOffset, Positions: positionOf(it)}
}

// VariadicSlot builds a PhraseSlot whose position stream is the merge of
// every accepted term's position stream at the slot's disjunction, §4.3.2's
// "disjunction over accepted terms... exposes a merged position stream".
func VariadicSlot(disjunction *Disjunction, relOffset int) PhraseSlot {
	return PhraseSlot{
		Doc:       disjunction,
		RelOffset: relOffset,
		Positions: func() seg.PositionIterator {
			subs := disjunction.MatchedSubs()
			if len(subs) == 0 {
				return nil
			}
			merged := make([]seg.PositionIterator, 0, len(subs))
			for _, s := range subs {
				raw, ok := s.Attributes().Get(attribute.KindPosition)
				if !ok {
					continue
				}
				if p, ok := raw.(seg.PositionIterator); ok {
					merged = append(merged, p)
				}
			}
			if len(merged) == 0 {
				return nil
			}
			return newMergedPositions(merged)
		},
	}
}

// mergedPositions is a sorted, deduplicating merge of several position
// streams into one logical stream, used by variadic phrase slots (§4.3.2:
// "union of positions, min-selected").
type mergedPositions struct {
	subs    []seg.PositionIterator
	cur     []seg.Pos
	started bool
}

func newMergedPositions(subs []seg.PositionIterator) *mergedPositions {
	return &mergedPositions{subs: subs, cur: make([]seg.Pos, len(subs))}
}

func (m *mergedPositions) ensureStarted() {
	if m.started {
		return
	}
	for i, s := range m.subs {
		m.cur[i] = s.Next()
	}
	m.started = true
}

func (m *mergedPositions) minIdx() int {
	idx, min := -1, seg.PosEOF
	for i, v := range m.cur {
		if v != seg.PosEOF && v < min {
			min, idx = v, i
		}
	}
	return idx
}

func (m *mergedPositions) Next() seg.Pos {
	m.ensureStarted()
	idx := m.minIdx()
	if idx == -1 {
		return seg.PosEOF
	}
	min := m.cur[idx]
	for i, v := range m.cur {
		if v == min {
			m.cur[i] = m.subs[i].Next()
		}
	}
	return min
}

func (m *mergedPositions) Seek(target seg.Pos) seg.Pos {
	m.ensureStarted()
	for i, v := range m.cur {
		if v != seg.PosEOF && v < target {
			m.cur[i] = m.subs[i].Seek(target)
		}
	}
	idx := m.minIdx()
	if idx == -1 {
		return seg.PosEOF
	}
	return m.cur[idx]
}

func (m *mergedPositions) Value() seg.Pos {
	idx := m.minIdx()
	if idx == -1 {
		return seg.PosEOF
	}
	return m.cur[idx]
}
