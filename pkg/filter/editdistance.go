package filter

import (
	"github.com/kittclouds/qcore/pkg/iter"
	"github.com/kittclouds/qcore/pkg/scorer"
	"github.com/kittclouds/qcore/pkg/seg"
)

// EditDistance matches every document carrying a term within MaxEdits
// Levenshtein edits of Text — §3, §4.1 "DFA-accepted terms for ...
// EditDistance". No library in the retrieval pack implements Levenshtein
// automata over a term dictionary; distance is computed directly with the
// standard dynamic-programming algorithm against every term, since a fuzzy
// edit radius gives no contiguous sorted bucket to narrow the walk into.
type EditDistance struct {
	Field     string
	Text      string
	MaxEdits  int
	Boost     float32
	Merge     iter.MergeType
}

// NewEditDistance builds an EditDistance filter with the neutral boost and
// Sum merge.
func NewEditDistance(field, text string, maxEdits int) *EditDistance {
	return &EditDistance{Field: field, Text: text, MaxEdits: maxEdits, Boost: seg.NoBoost}
}

// levenshtein returns the edit distance between a and b, stopping early
// (returning a value > limit) once every cell in the current row exceeds
// limit, since the caller only needs a <= limit test.
func levenshtein(a, b []byte, limit int) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		rowMin := curr[0]
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			curr[j] = m
			if m < rowMin {
				rowMin = m
			}
		}
		if rowMin > limit {
			return rowMin
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func (f *EditDistance) Prepare(index seg.IndexReader, order scorer.Order, callerBoost float32, _ any) (*Prepared, error) {
	if f.Text == "" {
		return emptyPrepared(), nil
	}
	boost := seg.ClampBoost(f.Boost * callerBoost)
	required := seg.FeatureDocs | order.Features()
	target := []byte(f.Text)
	maxEdits := f.MaxEdits
	if maxEdits < 0 {
		maxEdits = 0
	}

	states := prepareDynamicTermSet(index, order, f.Field, required, boost, func(field seg.TermReader, collect func(int, seg.TermIterator)) []matchedTerm {
		return walkTerms(field, nil, seg.NoBoost, func(term []byte) bool {
			return levenshtein(target, term, maxEdits) <= maxEdits
		}, nil, collect)
	})
	if len(states) == 0 {
		return emptyPrepared(), nil
	}

	merge := iter.Resolve(f.Merge)
	build := func(segment seg.SubReader, raw segmentState, ord scorer.Order) iter.DocIterator {
		return buildDynamicSetIterator(segment, raw, ord, boost, merge, 1)
	}
	return newPrepared(boost, order, states, nil, build), nil
}
