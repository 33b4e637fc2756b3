package scorer

import (
	"testing"

	"github.com/kittclouds/qcore/pkg/attribute"
	"github.com/kittclouds/qcore/pkg/seg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoostSortConstantWithoutFilterBoost(t *testing.T) {
	s := NewBoostSort()
	prepared := s.Prepare()
	attrs := attribute.NewBag()

	fn := prepared.PrepareScorer(nil, nil, nil, attrs, 2.5)
	require.True(t, fn.IsConstant())

	dst := make([]float32, 1)
	fn.Eval(dst)
	assert.Equal(t, float32(2.5), dst[0])
}

func TestBoostSortMultipliesDynamicFilterBoost(t *testing.T) {
	s := NewBoostSort()
	prepared := s.Prepare()
	attrs := attribute.NewBag()
	attrs.Set(attribute.KindFilterBoost, attribute.FilterBoost(3.0))

	fn := prepared.PrepareScorer(nil, nil, nil, attrs, 2.0)
	assert.False(t, fn.IsConstant())

	dst := make([]float32, 1)
	fn.Eval(dst)
	assert.Equal(t, float32(6.0), dst[0])
}

func TestRegistryResolvesCanonicalScorers(t *testing.T) {
	assert.True(t, Exists("boost_sort", "none"))
	assert.True(t, Exists("bm25", "json"))
	assert.True(t, Exists("tfidf", "json"))

	s, err := Get("bm25", "json", "")
	require.NoError(t, err)
	assert.Equal(t, "bm25", s.Name())
}

func TestRegistryUnknownScorerErrors(t *testing.T) {
	_, err := Get("nonexistent", "json", "")
	assert.Error(t, err)
}

func TestRegistryCollisionKeepsFirstRegistration(t *testing.T) {
	called := false
	Register("bm25", "json", func(string) (Scorer, error) {
		called = true
		return NewBM25(DefaultBM25Params()), nil
	}, "test-collision")

	s, err := Get("bm25", "json", "")
	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, "bm25", s.Name())
}

func TestBM25TermCollectorEncodesStatsBlob(t *testing.T) {
	s := NewBM25(DefaultBM25Params())
	prepared := s.Prepare()

	fc := prepared.FieldCollector()
	tc := prepared.TermCollector()

	require.NotNil(t, fc)
	require.NotNil(t, tc)

	stats := make([]byte, prepared.StatsSize())
	tc.Finish(stats, 0, fc, nil)

	attrs := attribute.NewBag()
	attrs.Set(attribute.KindFrequency, uint32(1))
	fn := prepared.PrepareScorer(nil, nil, stats, attrs, seg.NoBoost)
	dst := make([]float32, 1)
	fn.Eval(dst)
	assert.GreaterOrEqual(t, dst[0], float32(0))
}

func TestTFIDFWithoutIDFIsRawTermFrequency(t *testing.T) {
	s := NewTFIDF(TFIDFParams{WithIDF: false})
	prepared := s.Prepare()

	stats := make([]byte, prepared.StatsSize())
	prepared.TermCollector().Finish(stats, 0, prepared.FieldCollector(), nil)

	attrs := attribute.NewBag()
	attrs.Set(attribute.KindFrequency, uint32(4))
	fn := prepared.PrepareScorer(nil, nil, stats, attrs, 1.0)
	dst := make([]float32, 1)
	fn.Eval(dst)
	assert.InDelta(t, 2.0, dst[0], 0.0001) // sqrt(4) * 1.0 * 1.0
}

func TestOrderAggregatesFeaturesAndStatsSize(t *testing.T) {
	order := Prepare(NewBoostSort(), NewBM25(DefaultBM25Params()), NewTFIDF(DefaultTFIDFParams()))
	assert.Equal(t, 3, order.Len())
	assert.Equal(t, bm25StatsSize+tfidfStatsSize, order.StatsSize())
	assert.True(t, order.Features().Has(seg.FeatureDocs))
	assert.True(t, order.Features().Has(seg.FeatureFreq))
}

func TestEmptyOrderIsEmpty(t *testing.T) {
	order := Prepare()
	assert.True(t, order.Empty())
	assert.Equal(t, 0, order.StatsSize())
}
