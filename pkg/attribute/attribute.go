// Package attribute implements the process-global attribute-type registry
// and the per-iterator attribute bag that DocIterators use to expose
// optional data (document id, cost, score, frequency, position, payload,
// offset, filter_boost) to callers that look it up by type (§4.2, §5).
package attribute

import (
	"fmt"
	"log"
	"sync"
)

// Kind identifies one attribute type in the bag. Kinds are allocated by
// Register and compared by identity, the Go analogue of the source's
// type-id lookup.
type Kind struct {
	name string
}

func (k Kind) String() string { return k.name }

var (
	registryMu sync.Mutex
	registry   = map[string]Kind{}
)

// Register allocates (or looks up) the Kind for name. Registering the same
// name twice is not an error: the first registration wins and later callers
// get a logged warning, exactly like the scorer registry (§5 "Shared
// state": "duplicate registration is a warning, not an error").
func Register(name string) Kind {
	registryMu.Lock()
	defer registryMu.Unlock()

	if existing, ok := registry[name]; ok {
		log.Printf("attribute: type name collision detected while registering %q, ignoring", name)
		return existing
	}
	k := Kind{name: name}
	registry[name] = k
	return k
}

// Well-known attribute kinds every DocIterator may expose.
var (
	KindDocument    = Register("document")
	KindCost        = Register("cost")
	KindScore       = Register("score")
	KindFrequency   = Register("frequency")
	KindPosition    = Register("position")
	KindPayload     = Register("payload")
	KindOffset      = Register("offset")
	KindFilterBoost = Register("filter_boost")
)

// Offset is the byte-range attribute value for OFFS-indexed fields.
type Offset struct {
	Start, End uint32
}

// Score is the callable attribute that writes one f32 per registered
// scorer into dst; it is the attribute-bag face of a ScoreFunction.
type Score func(dst []float32)

// FilterBoost is the multiplier an iterator exposes for boost_sort's
// volatile path. TermDocIterator publishes its static per-term boost here;
// no other iterator sets it.
type FilterBoost float32

// Bag is the per-iterator set of currently-populated attributes. Iterators
// construct one at build time and mutate the stored values in place as they
// advance; they never reallocate the bag itself.
type Bag struct {
	values map[Kind]any
}

// NewBag returns an empty attribute bag.
func NewBag() *Bag { return &Bag{values: make(map[Kind]any)} }

// Set stores (or replaces) the value for kind.
func (b *Bag) Set(kind Kind, value any) { b.values[kind] = value }

// Get looks up kind, returning (nil, false) when absent.
func (b *Bag) Get(kind Kind) (any, bool) {
	v, ok := b.values[kind]
	return v, ok
}

// Has reports whether kind is present in the bag.
func (b *Bag) Has(kind Kind) bool {
	_, ok := b.values[kind]
	return ok
}

// GetTyped is a small generic helper over Get that also asserts the stored
// value's Go type, returning an error describing the mismatch instead of
// panicking — attribute bags are populated by iterator authors, so a type
// mismatch here is a programming error worth a clear message.
func GetTyped[T any](b *Bag, kind Kind) (T, bool, error) {
	var zero T
	raw, ok := b.Get(kind)
	if !ok {
		return zero, false, nil
	}
	typed, ok := raw.(T)
	if !ok {
		return zero, false, fmt.Errorf("attribute: kind %s holds %T, not %T", kind, raw, zero)
	}
	return typed, true, nil
}
