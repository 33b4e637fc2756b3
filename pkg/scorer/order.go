package scorer

import "github.com/kittclouds/qcore/pkg/seg"

// Order is the prepared, ordered list of scorers a query executes with
// (§6: "Order::prepare(scorers: &[ScorerSpec]) -> Order builds an ordered
// list of prepared scorers").
type Order struct {
	scorers []PreparedScorer
}

// Prepare compiles each Scorer via its own Prepare() into an Order.
func Prepare(scorers ...Scorer) Order {
	prepared := make([]PreparedScorer, len(scorers))
	for i, s := range scorers {
		prepared[i] = s.Prepare()
	}
	return Order{scorers: prepared}
}

// Empty reports whether this Order carries no scorers (a pure-match,
// unscored query).
func (o Order) Empty() bool { return len(o.scorers) == 0 }

// Len returns the number of prepared scorers.
func (o Order) Len() int { return len(o.scorers) }

// Buckets exposes the prepared scorers in order.
func (o Order) Buckets() []PreparedScorer { return o.scorers }

// Features unions every scorer's required IndexFeatures into the set a
// filter must additionally request from the posting source.
func (o Order) Features() seg.IndexFeatures {
	var f seg.IndexFeatures
	for _, s := range o.scorers {
		f |= s.IndexFeatures()
	}
	return f
}

// StatsSize returns the total byte length needed to hold one stats blob per
// scorer, laid out back to back.
func (o Order) StatsSize() int {
	total := 0
	for _, s := range o.scorers {
		total += s.StatsSize()
	}
	return total
}
