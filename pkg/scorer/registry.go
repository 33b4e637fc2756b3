// Package scorer implements the process-global scorer registry and the two
// canonical scorers (bm25, tfidf) plus boost_sort (§4.5).
package scorer

import (
	"fmt"
	"log"
	"sync"

	"github.com/kittclouds/qcore/pkg/attribute"
	"github.com/kittclouds/qcore/pkg/seg"
)

// Factory builds a Scorer from its argument string (the scorer's own JSON
// or textual config), mirroring scorer_register::get's factory signature.
type Factory func(args string) (Scorer, error)

type entryKey struct {
	name       string
	argsFormat string
}

var (
	registryMu sync.Mutex
	registry   = map[entryKey]Factory{}
	sources    = map[entryKey]string{}
)

// Register adds factory under (name, argsFormat). A later registration of
// the same key is a logged warning, not an error or panic — the first
// registration wins, exactly as core/search/scorers.cpp's scorer_registrar
// behaves.
func Register(name, argsFormat string, factory Factory, source string) {
	registryMu.Lock()
	defer registryMu.Unlock()

	key := entryKey{name: name, argsFormat: argsFormat}
	if _, exists := registry[key]; exists {
		if prev, ok := sources[key]; ok && prev != "" {
			log.Printf("scorer: type name collision detected while registering %q, ignoring: previously from %s", name, prev)
		} else {
			log.Printf("scorer: type name collision detected while registering %q, ignoring", name)
		}
		return
	}
	registry[key] = factory
	sources[key] = source
}

// Get builds a Scorer instance for (name, argsFormat, args), or an error if
// nothing is registered under that key.
func Get(name, argsFormat, args string) (Scorer, error) {
	registryMu.Lock()
	factory, ok := registry[entryKey{name: name, argsFormat: argsFormat}]
	registryMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("scorer: unknown scorer %q (args_format=%s)", name, argsFormat)
	}
	return factory(args)
}

// Exists reports whether a scorer is registered under (name, argsFormat).
func Exists(name, argsFormat string) bool {
	registryMu.Lock()
	defer registryMu.Unlock()
	_, ok := registry[entryKey{name: name, argsFormat: argsFormat}]
	return ok
}

func init() {
	Register("boost_sort", "none", func(string) (Scorer, error) { return NewBoostSort(), nil }, "pkg/scorer/boost.go")
	Register("bm25", "json", func(args string) (Scorer, error) { return NewBM25FromArgs(args) }, "pkg/scorer/bm25.go")
	Register("tfidf", "json", func(args string) (Scorer, error) { return NewTFIDFFromArgs(args) }, "pkg/scorer/tfidf.go")
}

// Scorer is declared by a (name, args_format) pair in the registry; Prepare
// compiles it into a PreparedScorer bound to nothing segment-specific yet.
type Scorer interface {
	Name() string
	Prepare() PreparedScorer
}

// PreparedScorer is the segment-agnostic, reusable half of a scorer: it
// knows which IndexFeatures it needs and how to build collectors and a
// concrete ScoreFunction once a segment and its stats are known (§4.5).
type PreparedScorer interface {
	IndexFeatures() seg.IndexFeatures
	FieldCollector() FieldCollector
	TermCollector() TermCollector
	StatsSize() int
	PrepareScorer(segment seg.SubReader, field seg.TermReader, stats []byte, attrs *attribute.Bag, boost float32) ScoreFunction
}

// FieldCollector accumulates per-field aggregate statistics (document
// count, total field length) across every segment a filter visits, once
// per segment that contributed at least one matched term (§4.1).
type FieldCollector interface {
	Collect(segment seg.SubReader, field seg.TermReader)
}

// TermCollector accumulates per-term statistics during the walk, then
// finalizes them into the stats blob once every segment has been visited
// (§4.1's collect/finish split).
type TermCollector interface {
	Collect(segment seg.SubReader, field seg.TermReader, termIndex int, term seg.TermIterator)
	Finish(statsBuf []byte, termIndex int, fieldStats FieldCollector, index seg.IndexReader)
}
