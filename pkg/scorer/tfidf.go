package scorer

import (
	"encoding/binary"
	"encoding/json"
	"math"

	"github.com/kittclouds/qcore/pkg/attribute"
	"github.com/kittclouds/qcore/pkg/seg"
)

// tfidfStatsSize: docFreq(8) + totalDocs(8).
const tfidfStatsSize = 16

// TFIDFParams tunes whether IDF is applied at all (disabling it degenerates
// to raw term frequency, a common debugging configuration).
type TFIDFParams struct {
	WithIDF bool
}

// DefaultTFIDFParams enables IDF, the conventional configuration.
func DefaultTFIDFParams() TFIDFParams { return TFIDFParams{WithIDF: true} }

// TFIDF is the classic term-frequency / inverse-document-frequency scorer.
type TFIDF struct {
	params TFIDFParams
}

// NewTFIDF builds a TFIDF scorer with explicit parameters.
func NewTFIDF(params TFIDFParams) *TFIDF { return &TFIDF{params: params} }

// NewTFIDFFromArgs builds a TFIDF scorer from a JSON args string.
func NewTFIDFFromArgs(args string) (Scorer, error) {
	params := DefaultTFIDFParams()
	if args != "" {
		if err := json.Unmarshal([]byte(args), &params); err != nil {
			return nil, err
		}
	}
	return NewTFIDF(params), nil
}

func (*TFIDF) Name() string { return "tfidf" }

func (s *TFIDF) Prepare() PreparedScorer {
	return &tfidfPrepared{params: s.params}
}

type tfidfPrepared struct {
	params TFIDFParams
}

func (*tfidfPrepared) IndexFeatures() seg.IndexFeatures {
	return seg.FeatureDocs | seg.FeatureFreq
}

func (p *tfidfPrepared) FieldCollector() FieldCollector { return &tfidfFieldCollector{} }
func (p *tfidfPrepared) TermCollector() TermCollector   { return &tfidfTermCollector{} }
func (*tfidfPrepared) StatsSize() int                   { return tfidfStatsSize }

func (p *tfidfPrepared) PrepareScorer(_ seg.SubReader, _ seg.TermReader, stats []byte, attrs *attribute.Bag, boost float32) ScoreFunction {
	if len(stats) < tfidfStatsSize {
		return Constant(0)
	}
	docFreq := binary.LittleEndian.Uint64(stats[0:8])
	totalDocs := binary.LittleEndian.Uint64(stats[8:16])

	weight := float32(1.0)
	if p.params.WithIDF {
		weight = float32(1.0 + math.Log(float64(totalDocs)/float64(1+docFreq)))
	}

	return FromFunc(func(dst []float32) {
		tf, _, _ := attribute.GetTyped[uint32](attrs, attribute.KindFrequency)
		score := float32(math.Sqrt(float64(tf))) * weight * boost
		for i := range dst {
			dst[i] = score
		}
	})
}

type tfidfFieldCollector struct {
	totalDocs uint64
}

func (c *tfidfFieldCollector) Collect(_ seg.SubReader, field seg.TermReader) {
	if p, ok := field.(seg.FieldStatsProvider); ok {
		c.totalDocs += uint64(p.FieldNumDocs())
	}
}

type tfidfTermCollector struct {
	docFreq uint64
}

func (c *tfidfTermCollector) Collect(_ seg.SubReader, _ seg.TermReader, _ int, term seg.TermIterator) {
	c.docFreq += uint64(term.DocFreq())
}

func (c *tfidfTermCollector) Finish(statsBuf []byte, _ int, fieldStats FieldCollector, _ seg.IndexReader) {
	fc, _ := fieldStats.(*tfidfFieldCollector)
	var totalDocs uint64
	if fc != nil {
		totalDocs = fc.totalDocs
	}
	binary.LittleEndian.PutUint64(statsBuf[0:8], c.docFreq)
	binary.LittleEndian.PutUint64(statsBuf[8:16], totalDocs)
}
