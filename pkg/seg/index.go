package seg

// MemIndex is a read-only, ordered collection of in-memory segments.
type MemIndex struct {
	segments []SubReader
}

// NewMemIndex wraps a fixed segment order into an IndexReader.
func NewMemIndex(segments ...SubReader) *MemIndex {
	return &MemIndex{segments: segments}
}

func (ix *MemIndex) Size() int { return len(ix.segments) }

func (ix *MemIndex) Segment(i int) SubReader { return ix.segments[i] }
