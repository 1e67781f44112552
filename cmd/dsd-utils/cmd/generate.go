package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/scottopell/dogstatsd-utils/internal/dogstatsd/genconfig"
	"github.com/scottopell/dogstatsd-utils/internal/dogstatsd/parser"
	"github.com/scottopell/dogstatsd-utils/internal/dogstatsd/rate"
	"github.com/scottopell/dogstatsd-utils/internal/dogstatsd/stats"
)

func newGenerateCmd() *cobra.Command {
	var (
		numMsgs     int
		numContexts int
		metricTypes string
		rateStr     string
		output      string
	)

	c := &cobra.Command{
		Use:   "generate",
		Short: "Emit synthetic DogStatsD traffic from a generator configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if numMsgs > 0 && rateStr != "" {
				return &argConflictError{msg: "--num-msgs and --rate are mutually exclusive"}
			}

			var r *rate.Rate
			if rateStr != "" {
				parsed, err := rate.Parse(rateStr)
				if err != nil {
					return err
				}
				r = &parsed
			}

			types, err := parseMetricTypes(metricTypes)
			if err != nil {
				return err
			}

			out, outCloser, err := openOutput(output)
			if err != nil {
				return err
			}
			defer outCloser.Close()

			cfg := genconfig.Project(emptyBatchStats(numContexts))
			opts := genconfig.EmitOptions{
				NumMsgs:     numMsgs,
				NumContexts: numContexts,
				MetricTypes: types,
				Rate:        r,
				Output:      out,
			}
			return genconfig.Emit(cmd.Context(), cfg, opts)
		},
	}

	c.Flags().IntVarP(&numMsgs, "num-msgs", "n", 0, "number of messages to emit")
	c.Flags().IntVar(&numContexts, "num-contexts", 100, "number of distinct metric contexts to synthesize")
	c.Flags().StringVar(&metricTypes, "metric-types", "", "comma-delimited subset of {count,gauge,histogram,timer,set,distribution}")
	c.Flags().StringVarP(&rateStr, "rate", "r", "", "emission rate, e.g. 100hz or 1kb")
	c.Flags().StringVarP(&output, "output", "o", "-", "output path, - for stdout")
	return c
}

// emptyBatchStats builds a zero-valued BatchStats carrying only
// numContexts, so genconfig.Project's library-default fallbacks populate
// every other field; generate takes no capture input to derive them from.
func emptyBatchStats(numContexts int) stats.BatchStats {
	return stats.BatchStats{
		NumContexts: uint32(numContexts),
		Kind: map[stats.MessageKind]*stats.KindStats{
			stats.KindMetric:       {ByType: map[parser.MetricType]uint32{}},
			stats.KindEvent:        {},
			stats.KindServiceCheck: {},
		},
	}
}

func parseMetricTypes(s string) ([]parser.MetricType, error) {
	if s == "" {
		return nil, nil
	}
	names := map[string]parser.MetricType{
		"count": parser.Count, "gauge": parser.Gauge, "histogram": parser.Histogram,
		"timer": parser.Timer, "set": parser.Set, "distribution": parser.Distribution,
	}
	var out []parser.MetricType
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		mt, ok := names[strings.ToLower(part)]
		if !ok {
			return nil, &argConflictError{msg: "unknown metric type " + part}
		}
		out = append(out, mt)
	}
	return out, nil
}
