package iter

import (
	"testing"

	"github.com/kittclouds/qcore/pkg/seg"
	"github.com/stretchr/testify/require"
)

// buildPhraseSegment reproduces spec §8's three-document example:
//
//	d1: "quick brown fox"
//	d2: "the quick fox"
//	d3: "brown quick fox"
func buildPhraseSegment(t *testing.T) *seg.MemSegment {
	t.Helper()
	b := seg.NewMemSegmentBuilder()
	d1 := b.NewDoc()
	b.IndexField(d1, "phrase", []string{"quick", "brown", "fox"})
	d2 := b.NewDoc()
	b.IndexField(d2, "phrase", []string{"the", "quick", "fox"})
	d3 := b.NewDoc()
	b.IndexField(d3, "phrase", []string{"brown", "quick", "fox"})
	return b.Build()
}

func termDocIterator(t *testing.T, field seg.TermReader, term string) DocIterator {
	t.Helper()
	it := field.Iterator()
	require.True(t, it.Seek([]byte(term)))
	postings := field.Postings(it.Cookie(), seg.FeatureDocs|seg.FeatureFreq|seg.FeaturePos)
	return NewTermDocIterator(postings, 0, seg.NoBoost, nil)
}

func collectDocs(it DocIterator) []seg.DocId {
	var out []seg.DocId
	for it.Next() {
		out = append(out, it.Value())
	}
	return out
}

func TestTermIteratorMatchesAllThreeDocs(t *testing.T) {
	segment := buildPhraseSegment(t)
	field, _ := segment.Field("phrase")
	it := termDocIterator(t, field, "quick")
	require.Equal(t, []seg.DocId{1, 2, 3}, collectDocs(it))
}

func TestFixedPhraseQuickBrownMatchesNothing(t *testing.T) {
	segment := buildPhraseSegment(t)
	field, _ := segment.Field("phrase")

	quick := termDocIterator(t, field, "quick")
	brown := termDocIterator(t, field, "brown")

	slots := []PhraseSlot{
		FixedSlot(quick, 0),
		FixedSlot(brown, 1),
	}
	phrase := NewPhraseIterator(slots, Sum, 0)
	require.Empty(t, collectDocs(phrase))
}

func TestFixedPhraseSingleSlotEqualsTermFilter(t *testing.T) {
	segment := buildPhraseSegment(t)
	field, _ := segment.Field("phrase")

	quick := termDocIterator(t, field, "quick")
	phrase := NewPhraseIterator([]PhraseSlot{FixedSlot(quick, 0)}, Sum, 0)
	require.Equal(t, []seg.DocId{1, 2, 3}, collectDocs(phrase))
}

func TestVariadicPhraseQuickThenFPrefixMatchesAllThree(t *testing.T) {
	segment := buildPhraseSegment(t)
	field, _ := segment.Field("phrase")

	quick := termDocIterator(t, field, "quick")
	fox := termDocIterator(t, field, "fox") // stands in for the "f" prefix's sole match

	disjunction := NewSlotDisjunction([]DocIterator{fox}, Sum, 0)
	slots := []PhraseSlot{
		FixedSlot(quick, 0),
		VariadicSlot(disjunction, 1),
	}
	phrase := NewPhraseIterator(slots, Sum, 0)
	require.Equal(t, []seg.DocId{1, 2, 3}, collectDocs(phrase))
}

func TestSamePositionSingleTermEqualsTermFilter(t *testing.T) {
	segment := buildPhraseSegment(t)
	field, _ := segment.Field("phrase")

	quick := termDocIterator(t, field, "quick")
	same := NewSamePositionIterator([]DocIterator{quick}, Sum, 0)
	require.Equal(t, []seg.DocId{1, 2, 3}, collectDocs(same))
}

func TestSamePositionTwoTermsMatchesNothing(t *testing.T) {
	segment := buildPhraseSegment(t)
	field, _ := segment.Field("phrase")

	quick := termDocIterator(t, field, "quick")
	brown := termDocIterator(t, field, "brown")
	same := NewSamePositionIterator([]DocIterator{quick, brown}, Sum, 0)
	require.Empty(t, collectDocs(same))
}
