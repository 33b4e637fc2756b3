package scorer

import (
	"encoding/binary"
	"encoding/json"
	"math"

	"github.com/kittclouds/qcore/pkg/attribute"
	"github.com/kittclouds/qcore/pkg/seg"
)

// bm25StatsSize: docFreq(8) + totalDocs(8) + avgFieldLen(8, float64 bits).
const bm25StatsSize = 24

// BM25Params tunes the scorer, mirroring resorank.ResoRankConfig's K1/B.
type BM25Params struct {
	K1 float64
	B  float64
}

// DefaultBM25Params returns the conventional k1=1.2, b=0.75 tuning.
func DefaultBM25Params() BM25Params { return BM25Params{K1: 1.2, B: 0.75} }

// BM25 is the canonical Okapi BM25 scorer (§4.5: "tfidf and bm25 are
// conventional and take an opaque stats blob laid out by their
// collectors").
type BM25 struct {
	params BM25Params
}

// NewBM25 builds a BM25 scorer with explicit parameters.
func NewBM25(params BM25Params) *BM25 { return &BM25{params: params} }

// NewBM25FromArgs builds a BM25 scorer from a JSON args string, defaulting
// unset fields, for use as a registry factory.
func NewBM25FromArgs(args string) (Scorer, error) {
	params := DefaultBM25Params()
	if args != "" {
		if err := json.Unmarshal([]byte(args), &params); err != nil {
			return nil, err
		}
	}
	return NewBM25(params), nil
}

func (*BM25) Name() string { return "bm25" }

func (s *BM25) Prepare() PreparedScorer {
	return &bm25Prepared{params: s.params}
}

type bm25Prepared struct {
	params BM25Params
}

func (*bm25Prepared) IndexFeatures() seg.IndexFeatures {
	return seg.FeatureDocs | seg.FeatureFreq
}

func (p *bm25Prepared) FieldCollector() FieldCollector { return &bm25FieldCollector{} }
func (p *bm25Prepared) TermCollector() TermCollector   { return &bm25TermCollector{} }
func (*bm25Prepared) StatsSize() int                   { return bm25StatsSize }

func (p *bm25Prepared) PrepareScorer(_ seg.SubReader, field seg.TermReader, stats []byte, attrs *attribute.Bag, boost float32) ScoreFunction {
	if len(stats) < bm25StatsSize {
		return Constant(0)
	}
	docFreq := binary.LittleEndian.Uint64(stats[0:8])
	totalDocs := binary.LittleEndian.Uint64(stats[8:16])
	avgFieldLen := math.Float64frombits(binary.LittleEndian.Uint64(stats[16:24]))

	provider, hasLen := field.(seg.FieldStatsProvider)
	idfVal := idf(float64(totalDocs), docFreq)
	k1, b := p.params.K1, p.params.B

	return FromFunc(func(dst []float32) {
		tf, _, _ := attribute.GetTyped[uint32](attrs, attribute.KindFrequency)
		fieldLen := avgFieldLen
		if hasLen {
			if docAttr, ok, _ := attribute.GetTyped[*seg.DocId](attrs, attribute.KindDocument); ok {
				fieldLen = float64(provider.FieldLength(*docAttr))
			}
		}
		tfNorm := normalizedTF(tf, uint32(fieldLen), avgFieldLen, b)
		score := float32(idfVal * saturate(tfNorm, k1))
		for i := range dst {
			dst[i] = score * boost
		}
	})
}

type bm25FieldCollector struct {
	totalDocs uint64
	totalLen  uint64
}

func (c *bm25FieldCollector) Collect(_ seg.SubReader, field seg.TermReader) {
	if p, ok := field.(seg.FieldStatsProvider); ok {
		c.totalDocs += uint64(p.FieldNumDocs())
		c.totalLen += uint64(p.FieldTotalLength())
	}
}

func (c *bm25FieldCollector) avgFieldLen() float64 {
	if c.totalDocs == 0 {
		return 0
	}
	return float64(c.totalLen) / float64(c.totalDocs)
}

type bm25TermCollector struct {
	docFreq uint64
}

func (c *bm25TermCollector) Collect(_ seg.SubReader, _ seg.TermReader, _ int, term seg.TermIterator) {
	c.docFreq += uint64(term.DocFreq())
}

func (c *bm25TermCollector) Finish(statsBuf []byte, _ int, fieldStats FieldCollector, _ seg.IndexReader) {
	fc, _ := fieldStats.(*bm25FieldCollector)
	var totalDocs uint64
	var avgLen float64
	if fc != nil {
		totalDocs = fc.totalDocs
		avgLen = fc.avgFieldLen()
	}
	binary.LittleEndian.PutUint64(statsBuf[0:8], c.docFreq)
	binary.LittleEndian.PutUint64(statsBuf[8:16], totalDocs)
	binary.LittleEndian.PutUint64(statsBuf[16:24], math.Float64bits(avgLen))
}
