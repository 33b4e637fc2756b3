package filter

import (
	"regexp"
	"strings"

	"github.com/kittclouds/qcore/pkg/iter"
	"github.com/kittclouds/qcore/pkg/scorer"
	"github.com/kittclouds/qcore/pkg/seg"
)

// Wildcard matches every document carrying a term accepted by a glob-style
// pattern ('*' any run of characters, '?' exactly one UTF-8 character) — §3, §4.1 "DFA-
// accepted terms for Wildcard". No library in the retrieval pack implements
// glob-over-a-term-dictionary matching, so the pattern is compiled once to a
// standard-library regexp and every term is tested against it; the
// dictionary's sort order gives no contiguous bucket to seek into, so the
// walk always starts from the first term.
type Wildcard struct {
	Field   string
	Pattern string
	Boost   float32
	Merge   iter.MergeType
}

// NewWildcard builds a Wildcard filter with the neutral boost and Sum merge.
func NewWildcard(field, pattern string) *Wildcard {
	return &Wildcard{Field: field, Pattern: pattern, Boost: seg.NoBoost}
}

func compileWildcard(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteByte('^')
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteByte('$')
	return regexp.Compile(b.String())
}

func (f *Wildcard) Prepare(index seg.IndexReader, order scorer.Order, callerBoost float32, _ any) (*Prepared, error) {
	if f.Pattern == "" {
		return emptyPrepared(), nil
	}
	re, err := compileWildcard(f.Pattern)
	if err != nil {
		return nil, prepareErrorf("wildcard", "invalid pattern %q: %v", f.Pattern, err)
	}
	boost := seg.ClampBoost(f.Boost * callerBoost)
	required := seg.FeatureDocs | order.Features()

	states := prepareDynamicTermSet(index, order, f.Field, required, boost, func(field seg.TermReader, collect func(int, seg.TermIterator)) []matchedTerm {
		return walkTerms(field, nil, seg.NoBoost, func(term []byte) bool { return re.Match(term) }, nil, collect)
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
