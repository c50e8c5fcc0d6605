package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/codeGROOVE-dev/cpcompare/pkg/metric"
	"github.com/codeGROOVE-dev/cpcompare/pkg/profile"
)

func newPlatformsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "platforms",
		Short: "List supported platforms and the metrics compared on each",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printPlatforms(cmd.OutOrStdout())
		},
	}
}

func printPlatforms(out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, info := range profile.Platforms() {
		keys := metric.Keys(info.Name())
		if len(keys) == 0 {
			fmt.Fprintf(tw, "%s\t(profile only)\t\n", info.Name())
			continue
		}
		for _, k := range keys {
			order := "higher wins"
			if metric.LowerIsBetter(k) {
				order = "lower wins"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", info.Name(), metric.Label(k), order)
		}
	}
	return tw.Flush()
}
