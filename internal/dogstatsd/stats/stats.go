// Package stats aggregates parsed DogStatsD messages into quantile
// sketches, per-kind and per-type counts, and a unique-context count.
package stats

import (
	"encoding/binary"
	"hash/maphash"
	"math"
	"sort"
	"unicode"

	"github.com/DataDog/sketches-go/ddsketch"

	"github.com/scottopell/dogstatsd-utils/internal/dogstatsd/parser"
	"github.com/scottopell/dogstatsd-utils/internal/dogstatsd/reader"
	"github.com/scottopell/dogstatsd-utils/internal/logging"
)

// MessageKind distinguishes the three top-level DogStatsD message
// variants for counting purposes.
type MessageKind int

const (
	KindMetric MessageKind = iota
	KindEvent
	KindServiceCheck
)

// KindStats is the total count of messages of one MessageKind, plus (for
// metrics) a breakdown by MetricType.
type KindStats struct {
	Total      uint32
	ByType     map[parser.MetricType]uint32
}

// BatchStats is the full set of aggregated statistics for one stream.
type BatchStats struct {
	NameLength            *ddsketch.DDSketch
	TagTotalLength        *ddsketch.DDSketch
	NumTags               *ddsketch.DDSketch
	NumValues             *ddsketch.DDSketch
	NumUnicodeTags        uint32
	ValueRange            *ddsketch.DDSketch
	ValuesThatAreFloats   uint32
	Kind                  map[MessageKind]*KindStats
	NumContexts           uint32
	UniqueTags            map[string]uint32
	NumMsgs               uint32
	NumMsgsWithMultivalue uint32
	ReaderAnalytics       *reader.Analytics
}

// Analyzer drains a reader.Reader, updating a BatchStats as it goes.
// Parse failures are logged and skipped; they never abort analysis.
type Analyzer struct {
	stats  BatchStats
	seen   map[uint64]struct{}
	hasher maphash.Hash
}

const defaultRelativeAccuracy = 0.01

// New constructs an Analyzer with freshly allocated sketches.
func New() *Analyzer {
	mk := func() *ddsketch.DDSketch {
		s, _ := ddsketch.NewDefaultDDSketch(defaultRelativeAccuracy)
		return s
	}
	return &Analyzer{
		stats: BatchStats{
			NameLength:     mk(),
			TagTotalLength: mk(),
			NumTags:        mk(),
			NumValues:      mk(),
			ValueRange:     mk(),
			Kind: map[MessageKind]*KindStats{
				KindMetric:       {ByType: map[parser.MetricType]uint32{}},
				KindEvent:        {},
				KindServiceCheck: {},
			},
			UniqueTags: map[string]uint32{},
		},
		seen: map[uint64]struct{}{},
	}
}

// Analyze drains r completely, parsing and aggregating every line.
func (a *Analyzer) Analyze(r *reader.Reader) error {
	var line string
	for {
		n, err := r.ReadMsg(&line)
		if err != nil {
			return err
		}
		if n == 0 {
			break
		}
		a.update(line)
	}
	if snap, ok := r.Analytics(); ok {
		a.stats.ReaderAnalytics = snap
	}
	return nil
}

func (a *Analyzer) update(line string) {
	msg, err := parser.ParseLine(line)
	if err != nil {
		logging.L().Warnw("skipping unparsable dogstatsd message", "error", err)
		return
	}

	a.stats.NumMsgs++

	switch m := msg.(type) {
	case *parser.Metric:
		a.updateMetric(m)
	case *parser.Event:
		a.stats.Kind[KindEvent].Total++
	case *parser.ServiceCheck:
		a.stats.Kind[KindServiceCheck].Total++
	}
}

func (a *Analyzer) updateMetric(m *parser.Metric) {
	ks := a.stats.Kind[KindMetric]
	ks.Total++
	ks.ByType[m.MetricType]++

	for _, v := range m.Values {
		_ = a.stats.ValueRange.Add(v)
		if v != math.Round(v) {
			a.stats.ValuesThatAreFloats++
		}
	}
	_ = a.stats.NumValues.Add(float64(len(m.Values)))
	if len(m.Values) > 1 {
		a.stats.NumMsgsWithMultivalue++
	}

	_ = a.stats.NumTags.Add(float64(len(m.Tags)))
	tagTotalLen := 0
	for _, tag := range m.Tags {
		tagTotalLen += len(tag)
		a.stats.UniqueTags[tag]++
		if !isASCII(tag) {
			a.stats.NumUnicodeTags++
		}
	}
	_ = a.stats.TagTotalLength.Add(float64(tagTotalLen))

	_ = a.stats.NameLength.Add(float64(len(m.Name)))

	a.recordContext(m.Name, m.Tags)
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// recordContext hashes (name, sorted tags) and records a new distinct
// context if this hash hasn't been seen. Sorting is lexicographic byte
// order so that tag permutations collide.
func (a *Analyzer) recordContext(name string, tags []string) {
	sorted := append([]string(nil), tags...)
	sort.Strings(sorted)

	a.hasher.Reset()
	writeLengthPrefixed(&a.hasher, name)
	for _, t := range sorted {
		writeLengthPrefixed(&a.hasher, t)
	}
	h := a.hasher.Sum64()

	if _, ok := a.seen[h]; !ok {
		a.seen[h] = struct{}{}
		a.stats.NumContexts++
	}
}

func writeLengthPrefixed(h *maphash.Hash, s string) {
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(s)))
	_, _ = h.Write(lenBuf[:])
	_, _ = h.WriteString(s)
}

// Stats returns the accumulated BatchStats.
func (a *Analyzer) Stats() BatchStats {
	return a.stats
}
