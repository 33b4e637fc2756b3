package iter

// MergeType selects how a combinator folds score components from multiple
// sub-iterators into one result (§4.2 "Aggregators"). It is resolved once
// per prepared filter (not per document), so the hot per-doc loop calls a
// plain function value rather than doing a dispatch on every merge.
type MergeType int

const (
	MergeSum MergeType = iota
	MergeMax
	MergeMin
	MergeNoOp
)

// Aggregator folds src into dst, both slices of equal length (one f32 per
// registered scorer).
type Aggregator func(dst, src []float32)

// Sum adds src component-wise into dst.
func Sum(dst, src []float32) {
	for i := range dst {
		dst[i] += src[i]
	}
}

// Max keeps the component-wise maximum.
func Max(dst, src []float32) {
	for i := range dst {
		if src[i] > dst[i] {
			dst[i] = src[i]
		}
	}
}

// Min keeps the component-wise minimum.
func Min(dst, src []float32) {
	for i := range dst {
		if src[i] < dst[i] {
			dst[i] = src[i]
		}
	}
}

// NoOp overwrites dst with src, discarding whatever was previously merged.
func NoOp(dst, src []float32) {
	copy(dst, src)
}

// Resolve returns the Aggregator function for mt.
func Resolve(mt MergeType) Aggregator {
	switch mt {
	case MergeMax:
		return Max
	case MergeMin:
		return Min
	case MergeNoOp:
		return NoOp
	default:
		return Sum
	}
}
