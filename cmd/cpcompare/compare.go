package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codeGROOVE-dev/cpcompare/pkg/profile"
)

func newCompareCmd(g *globalFlags) *cobra.Command {
	var user1, user2 map[string]string
	cmd := &cobra.Command{
		Use:   "compare --user1 platform=handle,... --user2 platform=handle,...",
		Short: "Compare two users across platforms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h1, err := parseHandles(user1)
			if err != nil {
				return fmt.Errorf("--user1: %w", err)
			}
			h2, err := parseHandles(user2)
			if err != nil {
				return fmt.Errorf("--user2: %w", err)
			}

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
			cmp, err := client.Compare(ctx, h1, h2)
			if err != nil {
				return err
			}
			return outputJSON(cmd.OutOrStdout(), cmp)
		},
	}
	cmd.Flags().StringToStringVar(&user1, "user1", nil, "first user's handles, e.g. leetcode=alice,codeforces=alice_cf")
	cmd.Flags().StringToStringVar(&user2, "user2", nil, "second user's handles")
	return cmd
}

func parseHandles(m map[string]string) (profile.Handles, error) {
	var h profile.Handles
	for name, username := range m {
		p, ok := profile.ParsePlatform(name)
		if !ok {
			return h, fmt.Errorf("unsupported platform %q", name)
		}
		h.Set(p, username)
	}
	return h, nil
}
