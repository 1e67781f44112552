package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/scottopell/dogstatsd-utils/internal/dogstatsd/genconfig"
	"github.com/scottopell/dogstatsd-utils/internal/dogstatsd/reader"
	"github.com/scottopell/dogstatsd-utils/internal/dogstatsd/stats"
)

func newAnalyzeCmd() *cobra.Command {
	var ladingConfigPath string
	var printUniqueTags bool

	c := &cobra.Command{
		Use:   "analyze [input]",
		Short: "Summarize a capture's DogStatsD traffic",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var inputPath string
			if len(args) == 1 {
				inputPath = args[0]
			}

			in, inCloser, err := openInput(inputPath)
			if err != nil {
				return err
			}
			defer inCloser.Close()

			r, err := reader.Open(in)
			if err != nil {
				return err
			}
			defer r.Close()

			a := stats.New()
			if err := a.Analyze(r); err != nil {
				return err
			}
			batch := a.Stats()

			if ladingConfigPath != "" {
				out, outCloser, err := openOutput(ladingConfigPath)
				if err != nil {
					return err
				}
				defer outCloser.Close()

				cfg := genconfig.Project(batch)
				enc := yaml.NewEncoder(out)
				defer enc.Close()
				return enc.Encode(cfg)
			}

			printSummary(cmd, batch, printUniqueTags)
			return nil
		},
	}

	c.Flags().StringVar(&ladingConfigPath, "lading-config", "", "write a projected generator config (YAML) to PATH instead of printing a summary")
	c.Flags().BoolVar(&printUniqueTags, "print-unique-tags", false, "print the observed unique-tag multiset")
	return c
}

func printSummary(cmd *cobra.Command, s stats.BatchStats, printUniqueTags bool) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "messages:        %d\n", s.NumMsgs)
	fmt.Fprintf(out, "contexts:        %d\n", s.NumContexts)
	fmt.Fprintf(out, "multivalue msgs: %d\n", s.NumMsgsWithMultivalue)
	fmt.Fprintf(out, "unicode tags:    %d\n", s.NumUnicodeTags)

	for _, kind := range []stats.MessageKind{stats.KindMetric, stats.KindEvent, stats.KindServiceCheck} {
		ks := s.Kind[kind]
		if ks == nil {
			continue
		}
		fmt.Fprintf(out, "%s: %d\n", kindName(kind), ks.Total)
		for mt, count := range ks.ByType {
			if count > 0 {
				fmt.Fprintf(out, "  %s: %d\n", mt, count)
			}
		}
	}

	if printUniqueTags {
		tags := make([]string, 0, len(s.UniqueTags))
		for t := range s.UniqueTags {
			tags = append(tags, t)
		}
		sort.Strings(tags)
		fmt.Fprintln(out, "unique tags:")
		for _, t := range tags {
			fmt.Fprintf(out, "  %s: %d\n", t, s.UniqueTags[t])
		}
	}
}

func kindName(k stats.MessageKind) string {
	switch k {
	case stats.KindEvent:
		return "events"
	case stats.KindServiceCheck:
		return "service_checks"
	default:
		return "metrics"
	}
}
