package scorer

import "github.com/kittclouds/qcore/pkg/attribute"

// ScoreFunction is either a Constant fast path or a closure evaluated per
// document (§4.5). N is implicit in the length of the slice passed to Eval
// — one f32 component per registered scorer in the active Order.
type ScoreFunction struct {
	isConstant bool
	constant   float32
	fn         func(dst []float32)
}

// Constant builds the fast-path score: every component equals value. This
// is what boost_sort returns whenever no dynamic per-document attribute is
// present (§4.5, original_source boost_sort.cpp).
func Constant(value float32) ScoreFunction {
	return ScoreFunction{isConstant: true, constant: value}
}

// FromFunc builds a per-document score function.
func FromFunc(fn func(dst []float32)) ScoreFunction {
	return ScoreFunction{fn: fn}
}

// IsConstant reports whether Eval ignores its argument's prior contents and
// always writes the same value.
func (s ScoreFunction) IsConstant() bool { return s.isConstant }

// Eval writes this function's score components into dst.
func (s ScoreFunction) Eval(dst []float32) {
	if s.isConstant {
		for i := range dst {
			dst[i] = s.constant
		}
		return
	}
	if s.fn != nil {
		s.fn(dst)
	}
}

// AsAttribute adapts the ScoreFunction to the attribute.Score shape a
// DocIterator's attribute bag expects.
func (s ScoreFunction) AsAttribute() attribute.Score {
	return func(dst []float32) { s.Eval(dst) }
}
