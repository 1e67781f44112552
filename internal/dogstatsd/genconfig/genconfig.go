// Package genconfig projects aggregated DogStatsD statistics into a
// configuration for an external synthetic-traffic generator (the
// "lading" dogstatsd payload module this toolkit targets without
// embedding). The shape mirrors that external schema closely enough that
// its YAML output can be fed to the generator unmodified.
package genconfig

import (
	"github.com/DataDog/sketches-go/ddsketch"

	"github.com/scottopell/dogstatsd-utils/internal/dogstatsd/packet"
	"github.com/scottopell/dogstatsd-utils/internal/dogstatsd/parser"
	"github.com/scottopell/dogstatsd-utils/internal/dogstatsd/reader"
	"github.com/scottopell/dogstatsd-utils/internal/dogstatsd/stats"
)

// ConfRange is either a single constant value or an inclusive [Min, Max]
// range, matching the external generator's ConfRange schema.
type ConfRange struct {
	Constant  *uint64 `yaml:"constant,omitempty"`
	Inclusive *struct {
		Min uint64 `yaml:"min"`
		Max uint64 `yaml:"max"`
	} `yaml:"inclusive,omitempty"`
}

func constantRange(v uint64) ConfRange {
	return ConfRange{Constant: &v}
}

func inclusiveRange(min, max uint64) ConfRange {
	r := ConfRange{}
	r.Inclusive = &struct {
		Min uint64 `yaml:"min"`
		Max uint64 `yaml:"max"`
	}{Min: min, Max: max}
	return r
}

// confRangeFromQuantiles implements the "q20 == q80 -> Constant, else
// Inclusive" rule shared by every projected length/count field. An empty
// (zero-count) sketch falls back to the library default.
func confRangeFromQuantiles(sketch *ddsketch.DDSketch, def ConfRange) ConfRange {
	if sketch == nil || sketch.GetCount() == 0 {
		return def
	}
	q20, err1 := sketch.GetValueAtQuantile(0.2)
	q80, err2 := sketch.GetValueAtQuantile(0.8)
	if err1 != nil || err2 != nil {
		return def
	}
	lo, hi := uint64(q20), uint64(q80)
	if lo == hi {
		return constantRange(lo)
	}
	return inclusiveRange(lo, hi)
}

// ValueConf describes the distribution of a metric's numeric values.
type ValueConf struct {
	FloatProbability float64   `yaml:"float_probability"`
	Range            ConfRange `yaml:"range"`
}

// MetricWeights is the relative emission frequency of each metric type,
// scaled to fit a byte each.
type MetricWeights struct {
	Count        uint8 `yaml:"count"`
	Gauge        uint8 `yaml:"gauge"`
	Histogram    uint8 `yaml:"histogram"`
	Timer        uint8 `yaml:"timer"`
	Set          uint8 `yaml:"set"`
	Distribution uint8 `yaml:"distribution"`
}

// KindWeights is the relative emission frequency of metrics, events, and
// service checks.
type KindWeights struct {
	Metric       uint8 `yaml:"metric"`
	Event        uint8 `yaml:"event"`
	ServiceCheck uint8 `yaml:"service_check"`
}

// Transport names the synthetic generator's emission transport.
type Transport string

const (
	TransportUDP          Transport = "udp"
	TransportUnixDatagram Transport = "unix_datagram"
)

// Config is the full projected generator configuration.
type Config struct {
	Contexts                  ConfRange     `yaml:"contexts"`
	NameLength                ConfRange     `yaml:"name_length"`
	TagKeyLength              ConfRange     `yaml:"tag_key_length"`
	TagValueLength            ConfRange     `yaml:"tag_value_length"`
	TagsPerMsg                ConfRange     `yaml:"tags_per_msg"`
	MultivalueCount           ConfRange     `yaml:"multivalue_count"`
	MultivaluePackProbability float64       `yaml:"multivalue_pack_probability"`
	Value                     ValueConf     `yaml:"value"`
	MetricWeights             MetricWeights `yaml:"metric_weights"`
	KindWeights               KindWeights   `yaml:"kind_weights"`
	SamplingRange             ConfRange     `yaml:"sampling_range"`
	SamplingProbability       float64       `yaml:"sampling_probability"`
	LengthPrefixFramed        bool          `yaml:"length_prefix_framed"`
	BytesPerSecond            *uint64       `yaml:"bytes_per_second,omitempty"`
	Transport                 Transport     `yaml:"transport,omitempty"`
}

// Library defaults used whenever a sketch has no observations to derive a
// range from, or for fields the analyzer doesn't populate (sampling, tag
// key length, tag value length).
var (
	defaultNameLength      = inclusiveRange(5, 30)
	defaultTagKeyLength    = inclusiveRange(3, 15)
	defaultTagValueLength  = inclusiveRange(3, 15)
	defaultTagsPerMsg      = inclusiveRange(1, 10)
	defaultMultivalueCount = constantRange(1)
	defaultSamplingRange   = inclusiveRange(1, 1)
)

// Project maps a BatchStats snapshot to a Config. NameLength, TagsPerMsg
// and MultivalueCount are derived from the same generic quantile
// machinery; only the sketch selection differs per field. TagKeyLength
// and TagValueLength are always the library defaults: they are not
// derived from the observed tags.
func Project(s stats.BatchStats) Config {
	cfg := Config{
		Contexts:                  constantRange(uint64(s.NumContexts)),
		NameLength:                confRangeFromQuantiles(s.NameLength, defaultNameLength),
		TagKeyLength:              defaultTagKeyLength, // tag-key/value split isn't tracked separately from tag length
		TagValueLength:            defaultTagValueLength,
		TagsPerMsg:                confRangeFromQuantiles(s.NumTags, defaultTagsPerMsg),
		MultivalueCount:           confRangeFromQuantiles(s.NumValues, defaultMultivalueCount),
		MultivaluePackProbability: multivalueProbability(s),
		Value:                     projectValue(s),
		MetricWeights:             projectMetricWeights(s),
		KindWeights:               projectKindWeights(s),
		SamplingRange:             defaultSamplingRange,
		SamplingProbability:       1.0,
		LengthPrefixFramed:        false,
	}

	if s.ReaderAnalytics != nil {
		applyTransportAndRate(&cfg, s.ReaderAnalytics)
	}

	return cfg
}

func multivalueProbability(s stats.BatchStats) float64 {
	if s.NumMsgs == 0 {
		return 0
	}
	return float64(s.NumMsgsWithMultivalue) / float64(s.NumMsgs)
}

func projectValue(s stats.BatchStats) ValueConf {
	var floatProb float64
	if s.ValueRange != nil && s.ValueRange.GetCount() > 0 {
		floatProb = float64(s.ValuesThatAreFloats) / s.ValueRange.GetCount()
	}
	return ValueConf{
		FloatProbability: floatProb,
		Range:            confRangeFromQuantiles(s.ValueRange, inclusiveRange(0, 100)),
	}
}

// scaleToU8 implements the shared weight-scaling rule: if the counts sum
// to <256 they pass through unchanged; otherwise they're scaled down to
// fit a byte while preserving their ratio.
func scaleToU8(counts []uint32) []uint8 {
	var sum uint64
	for _, c := range counts {
		sum += uint64(c)
	}
	out := make([]uint8, len(counts))
	if sum == 0 {
		return out
	}
	if sum < 256 {
		for i, c := range counts {
			out[i] = uint8(c)
		}
		return out
	}
	scale := float64(sum) / 255.0
	for i, c := range counts {
		v := float64(c) / scale
		out[i] = uint8(round(v))
	}
	return out
}

func round(f float64) float64 {
	if f < 0 {
		return float64(int64(f - 0.5))
	}
	return float64(int64(f + 0.5))
}

func projectMetricWeights(s stats.BatchStats) MetricWeights {
	ks, ok := s.Kind[stats.KindMetric]
	if !ok {
		return MetricWeights{}
	}
	counts := []uint32{
		ks.ByType[parser.Count],
		ks.ByType[parser.Gauge],
		ks.ByType[parser.Histogram],
		ks.ByType[parser.Timer],
		ks.ByType[parser.Set],
		ks.ByType[parser.Distribution],
	}
	scaled := scaleToU8(counts)
	return MetricWeights{
		Count:        scaled[0],
		Gauge:        scaled[1],
		Histogram:    scaled[2],
		Timer:        scaled[3],
		Set:          scaled[4],
		Distribution: scaled[5],
	}
}

func projectKindWeights(s stats.BatchStats) KindWeights {
	counts := []uint32{
		s.Kind[stats.KindMetric].Total,
		s.Kind[stats.KindEvent].Total,
		s.Kind[stats.KindServiceCheck].Total,
	}
	scaled := scaleToU8(counts)
	return KindWeights{Metric: scaled[0], Event: scaled[1], ServiceCheck: scaled[2]}
}

func applyTransportAndRate(cfg *Config, a *reader.Analytics) {
	switch a.TransportType {
	case packet.UnixDatagram:
		cfg.Transport = TransportUnixDatagram
	default:
		cfg.Transport = TransportUDP
	}

	elapsed := a.LatestTimestamp - a.EarliestTimestamp
	if elapsed > 0 {
		bps := uint64(float64(a.TotalBytes) / elapsed.Seconds())
		cfg.BytesPerSecond = &bps
	}
}
