package iter

import (
	"sort"

	"github.com/kittclouds/qcore/pkg/attribute"
	"github.com/kittclouds/qcore/pkg/seg"
)

func costOf(it DocIterator) uint64 {
	v, ok, err := attribute.GetTyped[uint64](it.Attributes(), attribute.KindCost)
	if err != nil || !ok {
		return ^uint64(0) // unknown cost sorts last, never drives as lead
	}
	return v
}

// Conjunction is the boolean-AND combinator (§4.2). Sub-iterators are
// reordered ascending by cost; the lowest-cost one (the lead) drives
// advancement, the rest are seeked to the lead's value and alignment
// restarts whenever a seek lands past the current target.
type Conjunction struct {
	subs []DocIterator
	doc  seg.DocId
	bag  *attribute.Bag
}

// NewConjunction combines subs. Fewer than 2 inputs degenerate to Empty or
// the sole sub-iterator, matching the boost/term simplification rules
// elsewhere in the filter tree.
func NewConjunction(subs []DocIterator, agg Aggregator, numScorers int) DocIterator {
	if len(subs) == 0 {
		return Empty()
	}
	if len(subs) == 1 {
		return subs[0]
	}

	ordered := make([]DocIterator, len(subs))
	copy(ordered, subs)
	sort.Slice(ordered, func(i, j int) bool { return costOf(ordered[i]) < costOf(ordered[j]) })

	c := &Conjunction{subs: ordered, doc: seg.DocInvalid, bag: attribute.NewBag()}
	c.bag.Set(attribute.KindCost, costOf(ordered[0]))
	c.bag.Set(attribute.KindDocument, &c.doc)
	if numScorers > 0 {
		c.bag.Set(attribute.KindScore, attribute.Score(func(dst []float32) {
			tmp := make([]float32, numScorers)
			for _, s := range c.subs {
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
	return c
}

// align seeks every non-lead sub-iterator to the lead's current value,
// restarting from the first sub-iterator whenever a seek lands past the
// running target — the algorithm §4.2 describes verbatim.
func (c *Conjunction) align() bool {
	target := c.subs[0].Value()
	if target == seg.DocEOF {
		c.doc = seg.DocEOF
		return false
	}
	for {
		matched := true
		for i := 1; i < len(c.subs); i++ {
			d := c.subs[i].Seek(target)
			if d == seg.DocEOF {
				c.doc = seg.DocEOF
				return false
			}
			if d > target {
				target = d
				d0 := c.subs[0].Seek(target)
				if d0 == seg.DocEOF {
					c.doc = seg.DocEOF
					return false
				}
				target = d0
				matched = false
				break
			}
		}
		if matched {
			c.doc = target
			return true
		}
	}
}

func (c *Conjunction) Next() bool {
	if c.doc == seg.DocEOF {
		return false
	}
	if !c.subs[0].Next() {
		c.doc = seg.DocEOF
		return false
	}
	return c.align()
}

func (c *Conjunction) Seek(target seg.DocId) seg.DocId {
	if c.doc == seg.DocEOF {
		return seg.DocEOF
	}
	if c.subs[0].Seek(target) == seg.DocEOF {
		c.doc = seg.DocEOF
		return seg.DocEOF
	}
	if !c.align() {
		return seg.DocEOF
	}
	return c.doc
}

func (c *Conjunction) Value() seg.DocId { return c.doc }

func (c *Conjunction) Attributes() *attribute.Bag { return c.bag }

// Subs exposes the reordered sub-iterators so positional wrappers (phrase,
// same-position) can pull their position streams after alignment.
func (c *Conjunction) Subs() []DocIterator { return c.subs }

// Verified wraps base (normally a *Conjunction) with a per-document verify
// predicate run after each alignment; a false verdict causes the conjunction
// to keep advancing until verify succeeds or the base exhausts. This is the
// shared shape behind both phrase's positional alignment check and
// same-position's find_same_position convergence loop.
type Verified struct {
	base   DocIterator
	verify func() bool
}

// NewVerified builds a positionally-verified conjunction.
func NewVerified(base DocIterator, verify func() bool) *Verified {
	return &Verified{base: base, verify: verify}
}

func (v *Verified) Next() bool {
	for v.base.Next() {
		if v.verify() {
			return true
		}
	}
	return false
}

func (v *Verified) Seek(target seg.DocId) seg.DocId {
	d := v.base.Seek(target)
	if d == seg.DocEOF {
		return seg.DocEOF
	}
	if v.verify() {
		return d
	}
	if !v.Next() {
		return seg.DocEOF
	}
	return v.base.Value()
}

func (v *Verified) Value() seg.DocId { return v.base.Value() }

func (v *Verified) Attributes() *attribute.Bag { return v.base.Attributes() }
