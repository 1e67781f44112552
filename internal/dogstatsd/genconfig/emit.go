package genconfig

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/scottopell/dogstatsd-utils/internal/dogstatsd/parser"
	"github.com/scottopell/dogstatsd-utils/internal/dogstatsd/rate"
)

// EmitOptions configures a synthetic-emission run. At most one of NumMsgs
// (>0) or Rate (non-nil) should be set by the caller (the CLI rejects
// setting both as an argument-conflict error before constructing
// EmitOptions). With Rate nil and NumMsgs 0, Emit writes nothing.
type EmitOptions struct {
	NumMsgs     int
	NumContexts int
	MetricTypes []parser.MetricType
	Rate        *rate.Rate
	Output      io.Writer
	Rand        *rand.Rand
}

var allMetricTypes = []parser.MetricType{
	parser.Count, parser.Gauge, parser.Histogram, parser.Timer, parser.Set, parser.Distribution,
}

// ctxPool is a small deterministic pool of synthetic (name, tags)
// contexts drawn from a projected Config's length ranges.
type ctxPool struct {
	names []string
	tags  [][]string
}

func buildCtxPool(cfg Config, n int, r *rand.Rand) ctxPool {
	if n <= 0 {
		n = 1
	}
	pool := ctxPool{names: make([]string, n), tags: make([][]string, n)}
	for i := 0; i < n; i++ {
		pool.names[i] = fmt.Sprintf("synthetic.metric.%d", i)
		numTags := int(sampleRange(cfg.TagsPerMsg, r))
		tags := make([]string, 0, numTags)
		for j := 0; j < numTags; j++ {
			tags = append(tags, fmt.Sprintf("tag%d:v%d", j, i))
		}
		pool.tags[i] = tags
	}
	return pool
}

func sampleRange(cr ConfRange, r *rand.Rand) uint64 {
	if cr.Constant != nil {
		return *cr.Constant
	}
	if cr.Inclusive != nil {
		if cr.Inclusive.Max <= cr.Inclusive.Min {
			return cr.Inclusive.Min
		}
		span := cr.Inclusive.Max - cr.Inclusive.Min + 1
		return cr.Inclusive.Min + uint64(r.Int63n(int64(span)))
	}
	return 0
}

// weightedMetricType picks a MetricType according to MetricWeights,
// falling back to a uniform pick over allowed when every weight is zero.
func weightedMetricType(w MetricWeights, allowed []parser.MetricType, r *rand.Rand) parser.MetricType {
	weights := map[parser.MetricType]uint8{
		parser.Count: w.Count, parser.Gauge: w.Gauge, parser.Histogram: w.Histogram,
		parser.Timer: w.Timer, parser.Set: w.Set, parser.Distribution: w.Distribution,
	}
	var total int
	for _, t := range allowed {
		total += int(weights[t])
	}
	if total == 0 {
		return allowed[r.Intn(len(allowed))]
	}
	pick := r.Intn(total)
	for _, t := range allowed {
		pick -= int(weights[t])
		if pick < 0 {
			return t
		}
	}
	return allowed[len(allowed)-1]
}

func metricTypeCode(t parser.MetricType) string {
	switch t {
	case parser.Count:
		return "c"
	case parser.Gauge:
		return "g"
	case parser.Histogram:
		return "h"
	case parser.Timer:
		return "ms"
	case parser.Set:
		return "s"
	default:
		return "d"
	}
}

func renderLine(cfg Config, pool ctxPool, opts EmitOptions, r *rand.Rand) string {
	idx := r.Intn(len(pool.names))
	name := pool.names[idx]
	tags := pool.tags[idx]

	metricTypes := opts.MetricTypes
	if len(metricTypes) == 0 {
		metricTypes = allMetricTypes
	}
	mt := weightedMetricType(cfg.MetricWeights, metricTypes, r)

	lo, hi := 0.0, 100.0
	if cfg.Value.Range.Inclusive != nil {
		lo, hi = float64(cfg.Value.Range.Inclusive.Min), float64(cfg.Value.Range.Inclusive.Max)
	} else if cfg.Value.Range.Constant != nil {
		lo, hi = float64(*cfg.Value.Range.Constant), float64(*cfg.Value.Range.Constant)
	}
	value := lo
	if hi > lo {
		value = lo + r.Float64()*(hi-lo)
	}
	if r.Float64() > cfg.Value.FloatProbability {
		value = float64(int64(value))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s:%v|%s", name, value, metricTypeCode(mt))
	if len(tags) > 0 {
		sb.WriteString("|#")
		sb.WriteString(strings.Join(tags, ","))
	}
	return sb.String()
}

// Emit drives one of three emission modes: a fixed count with no pacing,
// an Hz-paced ticker loop, or a throughput token-bucket loop. ctx
// cancellation stops the Hz/throughput loops early.
func Emit(ctx context.Context, cfg Config, opts EmitOptions) error {
	r := opts.Rand
	if r == nil {
		r = rand.New(rand.NewSource(34512423))
	}
	numContexts := opts.NumContexts
	if numContexts <= 0 {
		if cfg.Contexts.Constant != nil {
			numContexts = int(*cfg.Contexts.Constant)
		} else {
			numContexts = 1
		}
	}
	pool := buildCtxPool(cfg, numContexts, r)

	switch {
	case opts.Rate == nil:
		for i := 0; i < opts.NumMsgs; i++ {
			if _, err := fmt.Fprintln(opts.Output, renderLine(cfg, pool, opts, r)); err != nil {
				return err
			}
		}
		return nil
	case opts.Rate.Kind == rate.Hz:
		return emitHzPaced(ctx, cfg, pool, opts, r)
	default:
		return emitThroughputThrottled(ctx, cfg, pool, opts, r)
	}
}

func emitHzPaced(ctx context.Context, cfg Config, pool ctxPool, opts EmitOptions, r *rand.Rand) error {
	interval := time.Duration(float64(time.Second) / opts.Rate.HzValue)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := fmt.Fprintln(opts.Output, renderLine(cfg, pool, opts, r)); err != nil {
				return err
			}
		}
	}
}

// tokenBucket is a minimal throughput limiter: tokens accumulate at
// refillRate, and take returns how long the caller must wait before
// enough will have accrued to cover the requested size (zero if they
// already have). take itself never blocks.
type tokenBucket struct {
	capacity   float64
	tokens     float64
	refillRate float64 // tokens/sec
	last       time.Time
}

func newTokenBucket(bytesPerSecond uint64) *tokenBucket {
	rate := float64(bytesPerSecond)
	return &tokenBucket{capacity: rate, tokens: rate, refillRate: rate, last: time.Now()}
}

func (b *tokenBucket) take(n float64) time.Duration {
	now := time.Now()
	elapsed := now.Sub(b.last).Seconds()
	b.last = now
	b.tokens += elapsed * b.refillRate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	if b.tokens >= n {
		b.tokens -= n
		return 0
	}
	deficit := n - b.tokens
	b.tokens = 0
	return time.Duration(deficit / b.refillRate * float64(time.Second))
}

func emitThroughputThrottled(ctx context.Context, cfg Config, pool ctxPool, opts EmitOptions, r *rand.Rand) error {
	bucket := newTokenBucket(opts.Rate.BytesPerSecond)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := renderLine(cfg, pool, opts, r)
		if wait := bucket.take(float64(len(line) + 1)); wait > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if _, err := fmt.Fprintln(opts.Output, line); err != nil {
			return err
		}
	}
}
