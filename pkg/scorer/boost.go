package scorer

import (
	"github.com/kittclouds/qcore/pkg/attribute"
	"github.com/kittclouds/qcore/pkg/seg"
)

// BoostSort is the canonical scorer that contributes nothing but the
// filter's own boost, ported from original_source/core/search/
// boost_sort.cpp: when no dynamic filter_boost attribute is present on the
// candidate iterator it returns Constant(boost); otherwise it returns a
// closure multiplying the dynamic boost by the static one.
type BoostSort struct{}

// NewBoostSort constructs the boost_sort scorer.
func NewBoostSort() *BoostSort { return &BoostSort{} }

func (*BoostSort) Name() string { return "boost_sort" }

func (s *BoostSort) Prepare() PreparedScorer { return boostSortPrepared{} }

type boostSortPrepared struct{}

func (boostSortPrepared) IndexFeatures() seg.IndexFeatures { return 0 }

func (boostSortPrepared) FieldCollector() FieldCollector { return noopFieldCollector{} }
func (boostSortPrepared) TermCollector() TermCollector   { return noopTermCollector{} }
func (boostSortPrepared) StatsSize() int                 { return 0 }

func (boostSortPrepared) PrepareScorer(_ seg.SubReader, _ seg.TermReader, _ []byte, attrs *attribute.Bag, boost float32) ScoreFunction {
	raw, ok := attrs.Get(attribute.KindFilterBoost)
	if !ok {
		return Constant(boost)
	}
	volatile, ok := raw.(attribute.FilterBoost)
	if !ok {
		return Constant(boost)
	}
	return FromFunc(func(dst []float32) {
		for i := range dst {
			dst[i] = float32(volatile) * boost
		}
	})
}

type noopFieldCollector struct{}

func (noopFieldCollector) Collect(seg.SubReader, seg.TermReader) {}

type noopTermCollector struct{}

func (noopTermCollector) Collect(seg.SubReader, seg.TermReader, int, seg.TermIterator) {}
func (noopTermCollector) Finish([]byte, int, FieldCollector, seg.IndexReader)           {}
