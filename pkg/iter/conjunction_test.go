package iter

import (
	"testing"

	"github.com/kittclouds/qcore/pkg/seg"
	"github.com/stretchr/testify/require"
)

func buildThreeFieldSegment(t *testing.T) *seg.MemSegment {
	t.Helper()
	b := seg.NewMemSegmentBuilder()
	d1 := b.NewDoc()
	b.IndexField(d1, "a", []string{"300"})
	b.IndexField(d1, "b", []string{"90"})
	b.IndexField(d1, "c", []string{"9"})
	d2 := b.NewDoc()
	b.IndexField(d2, "a", []string{"700"})
	b.IndexField(d2, "c", []string{"7"})
	return b.Build()
}

func TestSamePositionAcrossThreeFields(t *testing.T) {
	segment := buildThreeFieldSegment(t)
	a, _ := segment.Field("a")
	b, _ := segment.Field("b")
	c, _ := segment.Field("c")

	same := NewSamePositionIterator([]DocIterator{
		termDocIterator(t, a, "300"),
		termDocIterator(t, b, "90"),
		termDocIterator(t, c, "9"),
	}, Sum, 0)
	require.Equal(t, []seg.DocId{1}, collectDocs(same))
}

func TestSamePositionAscendingAndSeekIsNoopBackwards(t *testing.T) {
	segment := buildThreeFieldSegment(t)
	a, _ := segment.Field("a")
	c, _ := segment.Field("c")

	same := NewSamePositionIterator([]DocIterator{
		termDocIterator(t, a, "700"),
		termDocIterator(t, c, "7"),
	}, Sum, 0)

	require.True(t, same.Next())
	require.Equal(t, seg.DocId(2), same.Value())

	// seeking to a smaller id than current is a no-op: returns current value.
	require.Equal(t, seg.DocId(2), same.Seek(seg.DocId(1)))
}

func TestConjunctionIdempotentOnIdenticalIterators(t *testing.T) {
	segment := buildPhraseSegment(t)
	field, _ := segment.Field("phrase")

	a := termDocIterator(t, field, "quick")
	b := termDocIterator(t, field, "quick")
	c := NewConjunction([]DocIterator{a, b}, Sum, 0)
	require.Equal(t, []seg.DocId{1, 2, 3}, collectDocs(c))
}

func TestDisjunctionCommutative(t *testing.T) {
	segment := buildPhraseSegment(t)
	field, _ := segment.Field("phrase")

	ab := NewDisjunction([]DocIterator{
		termDocIterator(t, field, "the"),
		termDocIterator(t, field, "brown"),
	}, Sum, 0, 1)
	ba := NewDisjunction([]DocIterator{
		termDocIterator(t, field, "brown"),
		termDocIterator(t, field, "the"),
	}, Sum, 0, 1)

	require.Equal(t, collectDocs(ab), collectDocs(ba))
}

func TestSeekOnExhaustedIteratorStaysEOF(t *testing.T) {
	segment := buildPhraseSegment(t)
	field, _ := segment.Field("phrase")
	it := termDocIterator(t, field, "quick")
	for it.Next() {
	}
	require.Equal(t, seg.DocEOF, it.Seek(1))
	require.Equal(t, seg.DocEOF, it.Seek(seg.DocEOF))
}
