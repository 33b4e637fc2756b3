package seg

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

// BitmapPromotionThreshold is the document-frequency threshold at or above
// which a posting list is promoted from a sorted slice to a roaring bitmap. Mirrors
// the teacher's dual-mode posting list: small lists stay cache-friendly
// slices, large ones get SIMD-optimized set operations.
const BitmapPromotionThreshold = 2000

// DocSet unifies slice- and bitmap-backed sets of document ids (a segment's
// live-docs set, a PostingEntry's document set).
type DocSet interface {
	Len() int
	Contains(id DocId) bool
	ToSlice() []DocId
	And(other DocSet) DocSet
	Or(other DocSet) DocSet
	AndNot(other DocSet) DocSet
}

// sliceDocSet is a sorted, deduplicated []DocId.
type sliceDocSet struct {
	docs []DocId
}

func newSliceDocSet(docs []uint32) *sliceDocSet {
	conv := make([]DocId, len(docs))
	for i, d := range docs {
		conv[i] = DocId(d)
	}
	sort.Slice(conv, func(i, j int) bool { return conv[i] < conv[j] })
	return &sliceDocSet{docs: dedupeDocIds(conv)}
}

func dedupeDocIds(sorted []DocId) []DocId {
	if len(sorted) <= 1 {
		return sorted
	}
	write := 1
	for read := 1; read < len(sorted); read++ {
		if sorted[read] != sorted[read-1] {
			sorted[write] = sorted[read]
			write++
		}
	}
	return sorted[:write]
}

func (s *sliceDocSet) Len() int { return len(s.docs) }

func (s *sliceDocSet) Contains(id DocId) bool {
	idx := sort.Search(len(s.docs), func(i int) bool { return s.docs[i] >= id })
	return idx < len(s.docs) && s.docs[idx] == id
}

func (s *sliceDocSet) ToSlice() []DocId {
	out := make([]DocId, len(s.docs))
	copy(out, s.docs)
	return out
}

func (s *sliceDocSet) toBitmap() *bitmapDocSet {
	bm := roaring.New()
	for _, d := range s.docs {
		bm.Add(uint32(d))
	}
	return &bitmapDocSet{bm: bm}
}

func (s *sliceDocSet) And(other DocSet) DocSet {
	if o, ok := other.(*sliceDocSet); ok {
		return intersectSorted(s.docs, o.docs)
	}
	return s.toBitmap().And(other)
}

func (s *sliceDocSet) Or(other DocSet) DocSet {
	if o, ok := other.(*sliceDocSet); ok {
		return unionSorted(s.docs, o.docs)
	}
	return s.toBitmap().Or(other)
}

func (s *sliceDocSet) AndNot(other DocSet) DocSet {
	if o, ok := other.(*sliceDocSet); ok {
		return diffSorted(s.docs, o.docs)
	}
	return s.toBitmap().AndNot(other)
}

func intersectSorted(a, b []DocId) *sliceDocSet {
	if len(a) == 0 || len(b) == 0 {
		return &sliceDocSet{}
	}
	result := make([]DocId, 0, min(len(a), len(b)))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			result = append(result, a[i])
			i++
			j++
		}
	}
	return &sliceDocSet{docs: result}
}

func unionSorted(a, b []DocId) *sliceDocSet {
	result := make([]DocId, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			result = append(result, a[i])
			i++
		case a[i] > b[j]:
			result = append(result, b[j])
			j++
		default:
			result = append(result, a[i])
			i++
			j++
		}
	}
	result = append(result, a[i:]...)
	result = append(result, b[j:]...)
	return &sliceDocSet{docs: result}
}

func diffSorted(a, b []DocId) *sliceDocSet {
	result := make([]DocId, 0, len(a))
	i, j := 0, 0
	for i < len(a) {
		if j >= len(b) || a[i] < b[j] {
			result = append(result, a[i])
			i++
		} else if a[i] > b[j] {
			j++
		} else {
			i++
			j++
		}
	}
	return &sliceDocSet{docs: result}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// bitmapDocSet wraps a roaring bitmap for high-cardinality sets.
type bitmapDocSet struct {
	bm *roaring.Bitmap
}

// NewBitmapDocSet builds an empty bitmap-backed DocSet.
func NewBitmapDocSet() DocSet { return &bitmapDocSet{bm: roaring.New()} }

func (b *bitmapDocSet) Len() int                  { return int(b.bm.GetCardinality()) }
func (b *bitmapDocSet) Contains(id DocId) bool     { return b.bm.Contains(uint32(id)) }
func (b *bitmapDocSet) Add(id DocId)               { b.bm.Add(uint32(id)) }
func (b *bitmapDocSet) Cardinality() uint64        { return b.bm.GetCardinality() }

func (b *bitmapDocSet) ToSlice() []DocId {
	arr := b.bm.ToArray()
	out := make([]DocId, len(arr))
	for i, v := range arr {
		out[i] = DocId(v)
	}
	return out
}

func (b *bitmapDocSet) asBitmap(other DocSet) *roaring.Bitmap {
	switch o := other.(type) {
	case *bitmapDocSet:
		return o.bm
	case *sliceDocSet:
		return o.toBitmap().bm
	default:
		bm := roaring.New()
		for _, id := range other.ToSlice() {
			bm.Add(uint32(id))
		}
		return bm
	}
}

func (b *bitmapDocSet) And(other DocSet) DocSet {
	return &bitmapDocSet{bm: roaring.And(b.bm, b.asBitmap(other))}
}

func (b *bitmapDocSet) Or(other DocSet) DocSet {
	return &bitmapDocSet{bm: roaring.Or(b.bm, b.asBitmap(other))}
}

func (b *bitmapDocSet) AndNot(other DocSet) DocSet {
	return &bitmapDocSet{bm: roaring.AndNot(b.bm, b.asBitmap(other))}
}

// PostingEntry accumulates one term's document set with automatic promotion
// from slice to bitmap once its document frequency crosses
// BitmapPromotionThreshold, exactly as the teacher's GramEntry does.
type PostingEntry struct {
	df    uint32
	small []DocId
	large *bitmapDocSet
}

// NewPostingEntry returns an empty, growable posting entry.
func NewPostingEntry() *PostingEntry { return &PostingEntry{} }

// Add registers an occurrence of id, promoting storage if needed. Ids must
// be added in non-decreasing order (segment builders append documents in
// doc-id order).
func (e *PostingEntry) Add(id DocId) {
	if e.large != nil {
		e.large.Add(id)
		e.df++
		return
	}
	if len(e.small) > 0 && e.small[len(e.small)-1] == id {
		return
	}
	e.small = append(e.small, id)
	e.df++
	if e.df >= BitmapPromotionThreshold {
		bm := NewBitmapDocSet().(*bitmapDocSet)
		for _, d := range e.small {
			bm.Add(d)
		}
		e.large = bm
		e.small = nil
	}
}

// DocFreq returns the number of distinct documents recorded.
func (e *PostingEntry) DocFreq() int {
	if e.large != nil {
		return int(e.large.Cardinality())
	}
	return len(e.small)
}

// ToDocSet materializes the current representation as a DocSet.
func (e *PostingEntry) ToDocSet() DocSet {
	if e.large != nil {
		return e.large
	}
	return &sliceDocSet{docs: append([]DocId(nil), e.small...)}
}
