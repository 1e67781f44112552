package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/scottopell/dogstatsd-utils/internal/dogstatsd/reader"
)

func newCatCmd() *cobra.Command {
	var output string

	c := &cobra.Command{
		Use:   "cat [input]",
		Short: "Decode a capture to one DogStatsD line per message",
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

			var out io.Writer
			outCloser := io.NopCloser(nil)
			if output == "" || output == "-" {
				out = cmd.OutOrStdout()
			} else {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				out, outCloser = f, f
			}
			defer outCloser.Close()

			r, err := reader.Open(in)
			if err != nil {
				return err
			}
			defer r.Close()

			var line string
			for {
				n, err := r.ReadMsg(&line)
				if err != nil {
					return err
				}
				if n == 0 {
					return nil
				}
				if _, err := fmt.Fprintln(out, line); err != nil {
					return err
				}
			}
		},
	}

	c.Flags().StringVarP(&output, "output", "o", "-", "output path, - for stdout")
	return c
}
