package seg

import (
	"bytes"
	"sort"
)

// FieldMeta describes the static properties of one field's term dictionary.
type FieldMeta struct {
	IndexFeatures IndexFeatures
}

// SeekCookie is an opaque, cheaply-storable handle a TermIterator hands
// back so postings for that exact term can be reopened later without
// re-walking the dictionary (§3 "Term + SeekCookie").
type SeekCookie interface{}

// TermIterator walks a field's term dictionary in sorted byte order.
type TermIterator interface {
	// Seek advances to the smallest term >= target and reports whether an
	// exact match was found.
	Seek(term []byte) bool
	// Next advances to the next term in dictionary order.
	Next() bool
	// Value returns the term bytes at the current position.
	Value() []byte
	// Cookie returns a reusable handle for the current term's postings.
	Cookie() SeekCookie
	// DocFreq returns the number of documents (in this segment) containing
	// the current term.
	DocFreq() int
}

// PositionIterator walks the within-document token offsets of one term
// occurrence stream.
type PositionIterator interface {
	// Next advances to the next position, or PosEOF if exhausted.
	Next() Pos
	// Seek advances to the smallest position >= target, or PosEOF.
	Seek(target Pos) Pos
	// Value returns the current position without advancing.
	Value() Pos
}

// PostingsIterator walks one term's per-document occurrences in ascending
// doc-id order, with optional frequency and position sub-streams depending
// on which IndexFeatures were requested.
type PostingsIterator interface {
	Next() bool
	Seek(target DocId) DocId
	Value() DocId
	// Freq returns the term frequency within the current document. Valid
	// only when FeatureFreq was requested.
	Freq() uint32
	// Positions returns the position stream for the current document, or
	// nil when FeaturePos was not requested.
	Positions() PositionIterator
}

// TermReader is a field's term dictionary plus a way to open postings for a
// term located via a SeekCookie.
type TermReader interface {
	Meta() FieldMeta
	Iterator() TermIterator
	Postings(cookie SeekCookie, features IndexFeatures) PostingsIterator
}

// FieldStatsProvider is an optional extension a TermReader may implement to
// expose aggregate per-field statistics (document count, total token
// length) that length-normalizing scorers such as BM25 need for their
// field_collector. It is not part of the minimal external contract (§6);
// the in-memory reference segment provides it because a real directory
// layer normally would via a per-field "norm" stream.
type FieldStatsProvider interface {
	FieldNumDocs() int
	FieldTotalLength() int64
	FieldLength(doc DocId) uint32
}

// SubReader is one immutable segment of the index.
type SubReader interface {
	// Field resolves a field name to its term dictionary, or false if the
	// segment carries no such field.
	Field(name string) (TermReader, bool)
	// LiveDocs reports which document ids in this segment are not deleted.
	// A nil DocSet means "all documents are live".
	LiveDocs() DocSet
	// NumDocs is the number of live documents in the segment.
	NumDocs() int
	// MaxDoc is the largest document id ever assigned in this segment,
	// including deleted ones; DocInvalid if the segment is empty. Filters
	// that must enumerate every id (All) iterate [DocMin, MaxDoc].
	MaxDoc() DocId
}

// IndexReader exposes a read-only, ordered collection of segments.
type IndexReader interface {
	Size() int
	Segment(i int) SubReader
}

// --- in-memory reference implementation -----------------------------------

type memTerm struct {
	term      []byte
	docs      []DocId
	freqs     []uint32
	positions [][]Pos
}

// MemField is an in-memory field: a sorted term dictionary (binary-search
// dictionary, standing in for the directory layer's FST/file-backed
// dictionary per §6) plus per-term postings with positions.
type MemField struct {
	meta     FieldMeta
	terms    []*memTerm // sorted by term bytes
	numDocs  int
	totalLen int64
	docLens  map[DocId]uint32
}

func (f *MemField) Meta() FieldMeta { return f.meta }

// FieldNumDocs implements FieldStatsProvider.
func (f *MemField) FieldNumDocs() int { return f.numDocs }

// FieldTotalLength implements FieldStatsProvider.
func (f *MemField) FieldTotalLength() int64 { return f.totalLen }

// FieldLength implements FieldStatsProvider.
func (f *MemField) FieldLength(doc DocId) uint32 { return f.docLens[doc] }

func (f *MemField) Iterator() TermIterator {
	return &memTermIterator{field: f, idx: -1}
}

func (f *MemField) Postings(cookie SeekCookie, features IndexFeatures) PostingsIterator {
	idx, ok := cookie.(int)
	if !ok || idx < 0 || idx >= len(f.terms) {
		return emptyPostings{}
	}
	t := f.terms[idx]
	return &memPostingsIterator{term: t, features: features, pos: -1}
}

type memTermIterator struct {
	field *MemField
	idx   int
}

func (it *memTermIterator) Seek(target []byte) bool {
	terms := it.field.terms
	i := sort.Search(len(terms), func(i int) bool {
		return bytes.Compare(terms[i].term, target) >= 0
	})
	it.idx = i
	return i < len(terms) && bytes.Equal(terms[i].term, target)
}

func (it *memTermIterator) Next() bool {
	it.idx++
	return it.idx < len(it.field.terms)
}

func (it *memTermIterator) Value() []byte {
	if it.idx < 0 || it.idx >= len(it.field.terms) {
		return nil
	}
	return it.field.terms[it.idx].term
}

func (it *memTermIterator) Cookie() SeekCookie { return it.idx }

func (it *memTermIterator) DocFreq() int {
	if it.idx < 0 || it.idx >= len(it.field.terms) {
		return 0
	}
	return len(it.field.terms[it.idx].docs)
}

type memPostingsIterator struct {
	term     *memTerm
	features IndexFeatures
	pos      int
}

func (it *memPostingsIterator) Next() bool {
	it.pos++
	return it.pos < len(it.term.docs)
}

func (it *memPostingsIterator) Seek(target DocId) DocId {
	if it.pos >= 0 && it.pos < len(it.term.docs) && it.term.docs[it.pos] >= target {
		return it.term.docs[it.pos]
	}
	docs := it.term.docs
	i := sort.Search(len(docs), func(i int) bool { return docs[i] >= target })
	it.pos = i
	if i >= len(docs) {
		return DocEOF
	}
	return docs[i]
}

func (it *memPostingsIterator) Value() DocId {
	if it.pos < 0 || it.pos >= len(it.term.docs) {
		return DocEOF
	}
	return it.term.docs[it.pos]
}

func (it *memPostingsIterator) Freq() uint32 {
	if !it.features.Has(FeatureFreq) || it.pos < 0 || it.pos >= len(it.term.freqs) {
		return 0
	}
	return it.term.freqs[it.pos]
}

func (it *memPostingsIterator) Positions() PositionIterator {
	if !it.features.Has(FeaturePos) || it.pos < 0 || it.pos >= len(it.term.positions) {
		return nil
	}
	return &memPositionIterator{values: it.term.positions[it.pos], idx: -1}
}

type memPositionIterator struct {
	values []Pos
	idx    int
}

func (p *memPositionIterator) Next() Pos {
	p.idx++
	if p.idx >= len(p.values) {
		return PosEOF
	}
	return p.values[p.idx]
}

func (p *memPositionIterator) Seek(target Pos) Pos {
	if p.idx >= 0 && p.idx < len(p.values) && p.values[p.idx] >= target {
		return p.values[p.idx]
	}
	i := sort.Search(len(p.values), func(i int) bool { return p.values[i] >= target })
	p.idx = i
	if i >= len(p.values) {
		return PosEOF
	}
	return p.values[i]
}

func (p *memPositionIterator) Value() Pos {
	if p.idx < 0 || p.idx >= len(p.values) {
		return PosEOF
	}
	return p.values[p.idx]
}

type emptyPostings struct{}

func (emptyPostings) Next() bool               { return false }
func (emptyPostings) Seek(DocId) DocId         { return DocEOF }
func (emptyPostings) Value() DocId             { return DocEOF }
func (emptyPostings) Freq() uint32             { return 0 }
func (emptyPostings) Positions() PositionIterator { return nil }

// MemSegment is an in-memory SubReader, built once by MemSegmentBuilder and
// read-only thereafter.
type MemSegment struct {
	fields   map[string]*MemField
	liveDocs DocSet
	numDocs  int
	maxDoc   DocId
}

func (s *MemSegment) Field(name string) (TermReader, bool) {
	f, ok := s.fields[name]
	return f, ok
}

func (s *MemSegment) LiveDocs() DocSet { return s.liveDocs }
func (s *MemSegment) NumDocs() int     { return s.numDocs }
func (s *MemSegment) MaxDoc() DocId    { return s.maxDoc }

// MemSegmentBuilder accumulates documents field by field and produces an
// immutable MemSegment. It is the concrete stand-in for the external
// directory/segment-writer layer (§6), needed here because no codec was
// supplied in the retrieval pack and the filters need something real to
// read from in tests and the demo.
type MemSegmentBuilder struct {
	nextDoc  DocId
	fields   map[string]map[string]*memTerm // field -> term string -> data
	docLens  map[string]map[DocId]uint32    // field -> doc -> token count
	deleted  map[DocId]bool
}

// NewMemSegmentBuilder returns an empty builder.
func NewMemSegmentBuilder() *MemSegmentBuilder {
	return &MemSegmentBuilder{
		nextDoc: DocMin,
		fields:  make(map[string]map[string]*memTerm),
		docLens: make(map[string]map[DocId]uint32),
		deleted: make(map[DocId]bool),
	}
}

// NewDoc reserves and returns the next document id.
func (b *MemSegmentBuilder) NewDoc() DocId {
	id := b.nextDoc
	b.nextDoc++
	return id
}

// Delete marks a document as not-live; it is excluded from LiveDocs on the
// built segment but its postings remain (matching a tombstone-style delete,
// the only kind the directory layer would hand the core).
func (b *MemSegmentBuilder) Delete(id DocId) { b.deleted[id] = true }

// IndexField tokenizes tokens onto field for doc, recording one position
// per token starting at PosMin. Calling IndexField more than once for the
// same (doc, field) pair is not supported; build a single token list per
// field per document.
func (b *MemSegmentBuilder) IndexField(doc DocId, field string, tokens []string) {
	terms, ok := b.fields[field]
	if !ok {
		terms = make(map[string]*memTerm)
		b.fields[field] = terms
	}
	lens, ok := b.docLens[field]
	if !ok {
		lens = make(map[DocId]uint32)
		b.docLens[field] = lens
	}
	lens[doc] += uint32(len(tokens))
	for i, tok := range tokens {
		t, ok := terms[tok]
		if !ok {
			t = &memTerm{term: []byte(tok)}
			terms[tok] = t
		}
		p := Pos(i) + PosMin
		n := len(t.docs)
		if n > 0 && t.docs[n-1] == doc {
			t.freqs[n-1]++
			t.positions[n-1] = append(t.positions[n-1], p)
		} else {
			t.docs = append(t.docs, doc)
			t.freqs = append(t.freqs, 1)
			t.positions = append(t.positions, []Pos{p})
		}
	}
}

// Build finalizes the accumulated fields into a sorted, read-only segment.
func (b *MemSegmentBuilder) Build() *MemSegment {
	maxDoc := DocInvalid
	if b.nextDoc > DocMin {
		maxDoc = b.nextDoc - 1
	}
	seg := &MemSegment{
		fields:  make(map[string]*MemField, len(b.fields)),
		numDocs: int(b.nextDoc) - int(DocMin),
		maxDoc:  maxDoc,
	}
	for name, terms := range b.fields {
		list := make([]*memTerm, 0, len(terms))
		for _, t := range terms {
			list = append(list, t)
		}
		sort.Slice(list, func(i, j int) bool { return bytes.Compare(list[i].term, list[j].term) < 0 })
		features := FeatureDocs | FeatureFreq | FeaturePos

		var totalLen int64
		for _, l := range b.docLens[name] {
			totalLen += int64(l)
		}
		docLens := make(map[DocId]uint32, len(b.docLens[name]))
		for d, l := range b.docLens[name] {
			docLens[d] = l
		}
		seg.fields[name] = &MemField{
			meta:     FieldMeta{IndexFeatures: features},
			terms:    list,
			numDocs:  len(b.docLens[name]),
			totalLen: totalLen,
			docLens:  docLens,
		}
	}
	if len(b.deleted) > 0 {
		live := NewBitmapDocSet().(*bitmapDocSet)
		for id := DocMin; id < b.nextDoc; id++ {
			if !b.deleted[id] {
				live.Add(id)
			}
		}
		seg.liveDocs = live
		seg.numDocs -= len(b.deleted)
	}
	return seg
}
