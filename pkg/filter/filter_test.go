package filter

import (
	"testing"

	"github.com/kittclouds/qcore/pkg/attribute"
	"github.com/kittclouds/qcore/pkg/iter"
	"github.com/kittclouds/qcore/pkg/scorer"
	"github.com/kittclouds/qcore/pkg/seg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPhraseIndex builds §8's concrete three-document scenario:
//
//	d1: "quick brown fox"
//	d2: "the quick fox"
//	d3: "brown quick fox"
func buildPhraseIndex(t *testing.T) seg.IndexReader {
	t.Helper()
	b := seg.NewMemSegmentBuilder()
	d1 := b.NewDoc()
	b.IndexField(d1, "phrase", []string{"quick", "brown", "fox"})
	d2 := b.NewDoc()
	b.IndexField(d2, "phrase", []string{"the", "quick", "fox"})
	d3 := b.NewDoc()
	b.IndexField(d3, "phrase", []string{"brown", "quick", "fox"})
	return seg.NewMemIndex(b.Build())
}

func collectDocs(t *testing.T, prepared *Prepared, index seg.IndexReader) []seg.DocId {
	t.Helper()
	var out []seg.DocId
	for i := 0; i < index.Size(); i++ {
		segment := index.Segment(i)
		it := prepared.Execute(segment)
		for it.Next() {
			out = append(out, it.Value())
		}
	}
	return out
}

func TestTermFilterMatchesAllThreeDocs(t *testing.T) {
	index := buildPhraseIndex(t)
	order := scorer.Prepare()
	f := NewTerm("phrase", "quick")
	prepared, err := f.Prepare(index, order, seg.NoBoost, nil)
	require.NoError(t, err)
	assert.Equal(t, []seg.DocId{1, 2, 3}, collectDocs(t, prepared, index))
}

func TestFixedPhraseQuickBrownMatchesNothing(t *testing.T) {
	index := buildPhraseIndex(t)
	order := scorer.Prepare()
	f := NewPhrase("phrase",
		PhraseSlotSpec{Offset: 0, Options: PhraseSlotOptions{Kind: SlotTerm, Text: "quick"}},
		PhraseSlotSpec{Offset: 1, Options: PhraseSlotOptions{Kind: SlotTerm, Text: "brown"}},
	)
	prepared, err := f.Prepare(index, order, seg.NoBoost, nil)
	require.NoError(t, err)
	assert.Empty(t, collectDocs(t, prepared, index))
}

func TestFixedPhraseSingleSlotEqualsTermFilter(t *testing.T) {
	index := buildPhraseIndex(t)
	order := scorer.Prepare()
	f := NewPhrase("phrase", PhraseSlotSpec{Offset: 0, Options: PhraseSlotOptions{Kind: SlotTerm, Text: "quick"}})
	prepared, err := f.Prepare(index, order, seg.NoBoost, nil)
	require.NoError(t, err)
	assert.Equal(t, []seg.DocId{1, 2, 3}, collectDocs(t, prepared, index))
}

func TestVariadicPhraseQuickThenFPrefixMatchesAllThree(t *testing.T) {
	index := buildPhraseIndex(t)
	order := scorer.Prepare()
	f := NewPhrase("phrase",
		PhraseSlotSpec{Offset: 0, Options: PhraseSlotOptions{Kind: SlotTerm, Text: "quick"}},
		PhraseSlotSpec{Offset: 1, Options: PhraseSlotOptions{Kind: SlotPrefix, Text: "f"}},
	)
	prepared, err := f.Prepare(index, order, seg.NoBoost, nil)
	require.NoError(t, err)
	assert.Equal(t, []seg.DocId{1, 2, 3}, collectDocs(t, prepared, index))
}

func TestSamePositionSingleTermEqualsTermFilter(t *testing.T) {
	index := buildPhraseIndex(t)
	order := scorer.Prepare()
	f := NewSamePosition(SamePositionTerm{Field: "phrase", Text: "quick"})
	prepared, err := f.Prepare(index, order, seg.NoBoost, nil)
	require.NoError(t, err)
	assert.Equal(t, []seg.DocId{1, 2, 3}, collectDocs(t, prepared, index))
}

func TestSamePositionTwoTermsMatchesNothing(t *testing.T) {
	index := buildPhraseIndex(t)
	order := scorer.Prepare()
	f := NewSamePosition(
		SamePositionTerm{Field: "phrase", Text: "quick"},
		SamePositionTerm{Field: "phrase", Text: "brown"},
	)
	prepared, err := f.Prepare(index, order, seg.NoBoost, nil)
	require.NoError(t, err)
	assert.Empty(t, collectDocs(t, prepared, index))
}

func TestByTermsVariadicSlotFailsPrepare(t *testing.T) {
	index := buildPhraseIndex(t)
	order := scorer.Prepare()
	f := NewPhrase("phrase",
		PhraseSlotSpec{Offset: 0, Options: PhraseSlotOptions{Kind: SlotTerm, Text: "quick"}},
		PhraseSlotSpec{Offset: 1, Options: PhraseSlotOptions{Kind: SlotTerms}},
	)
	_, err := f.Prepare(index, order, seg.NoBoost, nil)
	require.Error(t, err)
	var perr *PrepareError
	require.ErrorAs(t, err, &perr)
}

func TestEmptyFilterAlwaysEmpty(t *testing.T) {
	index := buildPhraseIndex(t)
	order := scorer.Prepare()
	prepared, err := Empty{}.Prepare(index, order, seg.NoBoost, nil)
	require.NoError(t, err)
	assert.Empty(t, collectDocs(t, prepared, index))

	emptyIndex := seg.NewMemIndex()
	prepared2, err := Empty{}.Prepare(emptyIndex, order, seg.NoBoost, nil)
	require.NoError(t, err)
	assert.Empty(t, collectDocs(t, prepared2, emptyIndex))
}

func TestAllFilterMatchesEveryLiveDoc(t *testing.T) {
	index := buildPhraseIndex(t)
	order := scorer.Prepare()
	f := NewAll()
	prepared, err := f.Prepare(index, order, seg.NoBoost, nil)
	require.NoError(t, err)
	assert.Equal(t, []seg.DocId{1, 2, 3}, collectDocs(t, prepared, index))
}

func TestZeroBoostZeroesBoostSortScore(t *testing.T) {
	index := buildPhraseIndex(t)
	order := scorer.Prepare(scorer.NewBoostSort())
	f := &Term{Field: "phrase", Text: "quick", Boost: 0}
	prepared, err := f.Prepare(index, order, seg.NoBoost, nil)
	require.NoError(t, err)

	segment := index.Segment(0)
	it := prepared.Execute(segment)
	require.True(t, it.Next())
	raw, ok := it.Attributes().Get(attribute.KindScore)
	require.True(t, ok)
	score := raw.(attribute.Score)
	dst := make([]float32, 1)
	score(dst)
	assert.Equal(t, float32(0), dst[0])
}

func TestPrefixFilterMatchesFoxOnly(t *testing.T) {
	index := buildPhraseIndex(t)
	order := scorer.Prepare()
	f := NewPrefix("phrase", "fo")
	prepared, err := f.Prepare(index, order, seg.NoBoost, nil)
	require.NoError(t, err)
	assert.Equal(t, []seg.DocId{1, 2, 3}, collectDocs(t, prepared, index))
}

func TestWildcardFilterMatchesBrownOnly(t *testing.T) {
	index := buildPhraseIndex(t)
	order := scorer.Prepare()
	f := NewWildcard("phrase", "b*n")
	prepared, err := f.Prepare(index, order, seg.NoBoost, nil)
	require.NoError(t, err)
	assert.Equal(t, []seg.DocId{1, 3}, collectDocs(t, prepared, index))
}

func TestEditDistanceMatchesNearMisspelling(t *testing.T) {
	index := buildPhraseIndex(t)
	order := scorer.Prepare()
	f := NewEditDistance("phrase", "quik", 1)
	prepared, err := f.Prepare(index, order, seg.NoBoost, nil)
	require.NoError(t, err)
	assert.Equal(t, []seg.DocId{1, 2, 3}, collectDocs(t, prepared, index))
}

func TestBoostWrapperMultipliesInnerBoost(t *testing.T) {
	index := buildPhraseIndex(t)
	order := scorer.Prepare(scorer.NewBoostSort())
	f := NewBoost(NewTerm("phrase", "quick"), 2.0)
	prepared, err := f.Prepare(index, order, seg.NoBoost, nil)
	require.NoError(t, err)
	assert.Equal(t, float32(2.0), prepared.Boost())
}

func TestMissingFieldYieldsEmptyPrepared(t *testing.T) {
	index := buildPhraseIndex(t)
	order := scorer.Prepare()
	f := NewTerm("nonexistent-field", "quick")
	prepared, err := f.Prepare(index, order, seg.NoBoost, nil)
	require.NoError(t, err)
	assert.Empty(t, collectDocs(t, prepared, index))
}

// buildSameFieldIndex builds §8's parallel a/b/c field scenario: one
// document carries "300"/"90"/"9" at the same position and another carries
// "700"/(gap)/"7".
func buildSameFieldIndex(t *testing.T) seg.IndexReader {
	t.Helper()
	b := seg.NewMemSegmentBuilder()
	d1 := b.NewDoc()
	b.IndexField(d1, "a", []string{"300"})
	b.IndexField(d1, "b", []string{"90"})
	b.IndexField(d1, "c", []string{"9"})
	d2 := b.NewDoc()
	b.IndexField(d2, "a", []string{"700"})
	b.IndexField(d2, "c", []string{"7"})
	return seg.NewMemIndex(b.Build())
}

func TestSamePositionAcrossThreeDistinctFields(t *testing.T) {
	index := buildSameFieldIndex(t)
	order := scorer.Prepare()
	f := NewSamePosition(
		SamePositionTerm{Field: "a", Text: "300"},
		SamePositionTerm{Field: "b", Text: "90"},
		SamePositionTerm{Field: "c", Text: "9"},
	)
	prepared, err := f.Prepare(index, order, seg.NoBoost, nil)
	require.NoError(t, err)
	assert.Equal(t, []seg.DocId{1}, collectDocs(t, prepared, index))
}

func TestSamePositionAscendingAndSeekBackwardsIsNoop(t *testing.T) {
	index := buildSameFieldIndex(t)
	order := scorer.Prepare()
	f := NewSamePosition(
		SamePositionTerm{Field: "a", Text: "700"},
		SamePositionTerm{Field: "c", Text: "7"},
	)
	prepared, err := f.Prepare(index, order, seg.NoBoost, nil)
	require.NoError(t, err)

	it := prepared.Execute(index.Segment(0))
	require.True(t, it.Next())
	cur := it.Value()
	assert.Equal(t, seg.DocId(2), cur)

	// seeking backwards is a no-op that returns the current value.
	got := it.Seek(seg.DocId(1))
	assert.Equal(t, cur, got)
}

// bm25ScoreForDoc prepares f against index with a BM25 order and returns the
// score attached to doc within segment, failing the test if doc never
// appears.
func bm25ScoreForDoc(t *testing.T, f Filter, index seg.IndexReader, segment seg.SubReader, doc seg.DocId) float32 {
	t.Helper()
	order := scorer.Prepare(scorer.NewBM25(scorer.DefaultBM25Params()))
	prepared, err := f.Prepare(index, order, seg.NoBoost, nil)
	require.NoError(t, err)
	it := prepared.Execute(segment)
	for it.Next() {
		if it.Value() != doc {
			continue
		}
		raw, ok := it.Attributes().Get(attribute.KindScore)
		require.True(t, ok)
		score := raw.(attribute.Score)
		dst := make([]float32, 1)
		score(dst)
		return dst[0]
	}
	t.Fatalf("doc %d never matched", doc)
	return 0
}

// TestTermsFieldCollectorNotDoubleCountedAcrossSlots is the regression test
// for the field_collectors cardinality bug: a segment where >= 2 slots of a
// Terms filter match the same field must feed the shared field collectors
// exactly once, the same as a segment where only 1 slot matches. A BM25
// avgFieldLen computed by double-counting a segment's length/doc contribution
// once per matched slot would disagree between the single-slot and
// multi-slot queries below, even though both queries share the same
// contributing segments.
func TestTermsFieldCollectorNotDoubleCountedAcrossSlots(t *testing.T) {
	b1 := seg.NewMemSegmentBuilder()
	doc1 := b1.NewDoc()
	b1.IndexField(doc1, "phrase", []string{"quick", "brown", "filler", "filler", "filler"})
	seg1 := seg.NewMemIndex(b1.Build()).Segment(0)

	b2 := seg.NewMemSegmentBuilder()
	doc2 := b2.NewDoc()
	b2.IndexField(doc2, "phrase", []string{"quick"})
	seg2 := seg.NewMemIndex(b2.Build()).Segment(0)

	index := seg.NewMemIndex(seg1, seg2)

	single := NewTerms("phrase", "quick")
	multi := NewTerms("phrase", "quick", "brown")

	scoreSegment := index.Segment(1)
	singleScore := bm25ScoreForDoc(t, single, index, scoreSegment, doc2)
	multiScore := bm25ScoreForDoc(t, multi, index, scoreSegment, doc2)
	assert.Equal(t, singleScore, multiScore, "doc2's BM25 score must not change when an unrelated slot on the same field matches a different segment")
}

// TestSamePositionFieldCollectorsAreIndependentPerField is the regression
// test for Open Question 2: BM25 stats for field "a" must not absorb field
// "b"/"c"'s doc/length statistics, even though all three slots are evaluated
// by the same SamePosition filter and finalized through the same run of
// field_collectors construction. The combined query's score (summed across
// slots via the default MergeSum aggregator) must equal the sum of each
// field's own independently-computed score — any cross-field bleed into a
// shared field collector would throw that off.
func TestSamePositionFieldCollectorsAreIndependentPerField(t *testing.T) {
	index := buildSameFieldIndex(t)
	same := NewSamePosition(
		SamePositionTerm{Field: "a", Text: "300"},
		SamePositionTerm{Field: "b", Text: "90"},
		SamePositionTerm{Field: "c", Text: "9"},
	)
	soloA := NewSamePosition(SamePositionTerm{Field: "a", Text: "300"})
	soloB := NewSamePosition(SamePositionTerm{Field: "b", Text: "90"})
	soloC := NewSamePosition(SamePositionTerm{Field: "c", Text: "9"})

	segment := index.Segment(0)
	scoreA := bm25ScoreForDoc(t, soloA, index, segment, 1)
	scoreB := bm25ScoreForDoc(t, soloB, index, segment, 1)
	scoreC := bm25ScoreForDoc(t, soloC, index, segment, 1)
	comboScore := bm25ScoreForDoc(t, same, index, segment, 1)
	assert.InDelta(t, scoreA+scoreB+scoreC, comboScore, 1e-4, "combined SamePosition score must equal the sum of each field's independently-computed score, not a blob summed across fields' stats")
}

func TestMergeTypeIsPropagatedThroughDisjunction(t *testing.T) {
	index := buildPhraseIndex(t)
	order := scorer.Prepare(scorer.NewBoostSort())
	f := NewTerms("phrase", "quick", "brown")
	f.Merge = iter.MergeMax
	prepared, err := f.Prepare(index, order, seg.NoBoost, nil)
	require.NoError(t, err)
	docs := collectDocs(t, prepared, index)
	assert.Equal(t, []seg.DocId{1, 2, 3}, docs)

	// doc 1 carries both terms, each scoring 1 under boost_sort: MergeMax
	// keeps 1 where the default MergeSum would give 2.
	it := prepared.Execute(index.Segment(0))
	require.True(t, it.Next())
	require.Equal(t, seg.DocId(1), it.Value())
	raw, ok := it.Attributes().Get(attribute.KindScore)
	require.True(t, ok)
	dst := make([]float32, 1)
	raw.(attribute.Score)(dst)
	assert.Equal(t, float32(1), dst[0])
}
