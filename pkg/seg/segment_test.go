package seg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func buildPhraseSegment(t *testing.T) *MemSegment {
	t.Helper()
	b := NewMemSegmentBuilder()

	d1 := b.NewDoc()
	b.IndexField(d1, "phrase", []string{"quick", "brown", "fox"})

	d2 := b.NewDoc()
	b.IndexField(d2, "phrase", []string{"the", "quick", "fox"})

	d3 := b.NewDoc()
	b.IndexField(d3, "phrase", []string{"brown", "quick", "fox"})

	return b.Build()
}

func TestMemSegmentTermDictionaryLookup(t *testing.T) {
	segment := buildPhraseSegment(t)

	field, ok := segment.Field("phrase")
	require.True(t, ok)
	require.True(t, field.Meta().IndexFeatures.Has(FeatureFreq|FeaturePos))

	it := field.Iterator()
	require.True(t, it.Seek([]byte("quick")))
	require.Equal(t, "quick", string(it.Value()))

	postings := field.Postings(it.Cookie(), FeatureDocs|FeatureFreq|FeaturePos)
	var docs []DocId
	for postings.Next() {
		docs = append(docs, postings.Value())
	}
	require.Equal(t, []DocId{1, 2, 3}, docs)
}

func TestMemSegmentMissingTermSeekFails(t *testing.T) {
	segment := buildPhraseSegment(t)
	field, _ := segment.Field("phrase")
	it := field.Iterator()
	require.False(t, it.Seek([]byte("zzz")))
}

func TestMemSegmentPositionsPerDoc(t *testing.T) {
	segment := buildPhraseSegment(t)
	field, _ := segment.Field("phrase")
	it := field.Iterator()
	require.True(t, it.Seek([]byte("fox")))

	postings := field.Postings(it.Cookie(), FeatureDocs|FeatureFreq|FeaturePos)
	require.True(t, postings.Next())
	require.Equal(t, DocId(1), postings.Value())
	positions := postings.Positions()
	require.NotNil(t, positions)
	require.Equal(t, PosMin+2, positions.Next())
	require.Equal(t, PosEOF, positions.Next())
}

func TestPostingEntryPromotesAtThreshold(t *testing.T) {
	e := NewPostingEntry()
	for i := 0; i < BitmapPromotionThreshold+10; i++ {
		e.Add(DocId(i) + DocMin)
	}
	require.Equal(t, BitmapPromotionThreshold+10, e.DocFreq())
	set := e.ToDocSet()
	require.True(t, set.Contains(DocMin))
	require.False(t, set.Contains(DocMin+DocId(BitmapPromotionThreshold+100)))
}

func TestDocSetIntersectionAndUnion(t *testing.T) {
	a := newSliceDocSet([]uint32{1, 2, 3, 5})
	b := newSliceDocSet([]uint32{2, 3, 4})

	and := a.And(b)
	require.Equal(t, []DocId{2, 3}, and.ToSlice())

	or := a.Or(b)
	require.Equal(t, []DocId{1, 2, 3, 4, 5}, or.ToSlice())

	diff := a.AndNot(b)
	require.Equal(t, []DocId{1, 5}, diff.ToSlice())
}

func TestDeletedDocsExcludedFromLiveDocs(t *testing.T) {
	b := NewMemSegmentBuilder()
	d1 := b.NewDoc()
	b.IndexField(d1, "f", []string{"a"})
	d2 := b.NewDoc()
	b.IndexField(d2, "f", []string{"a"})
	b.Delete(d1)

	segment := b.Build()
	require.Equal(t, 1, segment.NumDocs())
	require.False(t, segment.LiveDocs().Contains(d1))
	require.True(t, segment.LiveDocs().Contains(d2))
}
