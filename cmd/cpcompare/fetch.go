package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codeGROOVE-dev/cpcompare/pkg/profile"
)

func newFetchCmd(g *globalFlags) *cobra.Command {
	var withMetrics bool
	cmd := &cobra.Command{
		Use:   "fetch <platform> <username> | fetch <profile-url>",
		Short: "Fetch and normalize one profile",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d, err := setup(ctx, g)
			if err != nil {
				return err
			}
			defer d.Close()

			client, err := d.client(ctx, nil)
			if err != nil {
				return err
			}

			platform, username, err := fetchTarget(args)
			if err != nil {
				return err
			}

			if withMetrics {
				sum, err := client.Summarize(ctx, platform, username)
				if err != nil {
					return err
				}
				return outputJSON(cmd.OutOrStdout(), sum)
			}

			r := client.Fetch(ctx, platform, username)
			if fe := r.Err(); fe != nil {
				return fe
			}
			return outputJSON(cmd.OutOrStdout(), r)
		},
	}
	cmd.Flags().BoolVar(&withMetrics, "metrics", false, "include derived metrics and rating insights")
	return cmd
}

// fetchTarget resolves either "<platform> <username>" or a single profile URL.
func fetchTarget(args []string) (profile.Platform, string, error) {
	if len(args) == 2 {
		p, ok := profile.ParsePlatform(args[0])
		if !ok {
			return "", "", fmt.Errorf("unsupported platform %q", args[0])
		}
		if info := profile.Lookup(p); info != nil && !strings.Contains(args[1], "://") && !info.ValidUsername(strings.TrimSpace(args[1])) {
			return "", "", fmt.Errorf("%w: %q is not a valid %s handle", profile.ErrInvalidUsername, args[1], p)
		}
		return p, args[1], nil
	}
	if !strings.Contains(args[0], "://") {
		return "", "", errors.New("a single argument must be a profile URL; otherwise pass <platform> <username>")
	}
	info := profile.MatchURL(args[0])
	if info == nil {
		return "", "", fmt.Errorf("no supported platform matches %s", args[0])
	}
	return info.Name(), args[0], nil
}
