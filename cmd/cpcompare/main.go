// Command cpcompare fetches competitive programming profiles and compares
// two users across LeetCode, Codeforces, AtCoder and GeeksforGeeks.
//
// Usage:
//
//	cpcompare fetch codeforces tourist
//	cpcompare fetch https://atcoder.jp/users/tourist --metrics
//	cpcompare compare --user1 leetcode=alice,codeforces=alice_cf --user2 leetcode=bob
//	cpcompare serve --addr :8080
//	cpcompare platforms
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/codeGROOVE-dev/cpcompare/internal/config"
	"github.com/codeGROOVE-dev/cpcompare/pkg/cpcompare"
	"github.com/codeGROOVE-dev/cpcompare/pkg/fetch"
	"github.com/codeGROOVE-dev/cpcompare/pkg/httpcache"
)

//nolint:govet // fieldalignment: flag grouping
type globalFlags struct {
	configPath string
	debug      bool
	noCache    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1) //nolint:gocritic // exitAfterDefer is acceptable in main
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "cpcompare",
		Short:         "Compare competitive programming profiles",
		Long:          "cpcompare normalizes LeetCode, Codeforces, AtCoder and GeeksforGeeks profiles and compares two users metric by metric.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "YAML config file (overrides "+config.EnvPrefix+"CONFIG)")
	root.PersistentFlags().BoolVar(&g.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&g.noCache, "no-cache", false, "disable the upstream HTTP cache")

	root.AddCommand(newFetchCmd(g), newCompareCmd(g), newServeCmd(g), newPlatformsCmd())
	return root
}

// runtimeDeps is what every command builds from configuration.
type runtimeDeps struct {
	cfg       *config.Config
	logger    *slog.Logger
	httpCache *httpcache.Cache
}

func (d *runtimeDeps) Close() {
	if d.httpCache == nil {
		return
	}
	if err := d.httpCache.Close(); err != nil {
		d.logger.Warn("failed to close cache", "error", err)
	}
}

func setup(ctx context.Context, g *globalFlags) (*runtimeDeps, error) {
	if g.configPath != "" {
		if err := os.Setenv(config.EnvPrefix+"CONFIG", g.configPath); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if g.debug {
		cfg.LogLevel = "debug"
	}
	if g.noCache {
		cfg.NoHTTPCache = true
	}

	d := &runtimeDeps{cfg: cfg, logger: newLogger(os.Stderr, cfg.LogLevel)}
	if cfg.NoHTTPCache {
		return d, nil
	}

	negTTL := httpcache.WithNegativeTTL(cfg.HTTPCacheNegativeTTL)
	if cfg.HTTPCacheDir != "" {
		d.httpCache, err = httpcache.NewWithPath(cfg.HTTPCacheTTL, cfg.HTTPCacheDir, negTTL)
	} else {
		d.httpCache, err = httpcache.New(cfg.HTTPCacheTTL, negTTL)
	}
	if err != nil {
		d.logger.WarnContext(ctx, "failed to initialize cache, continuing without cache", "error", err)
		d.httpCache = nil
		return d, nil
	}
	d.logger.DebugContext(ctx, "HTTP cache initialized", "ttl", cfg.HTTPCacheTTL.String())
	return d, nil
}

func (d *runtimeDeps) client(ctx context.Context, observer fetch.Observer) (*cpcompare.Client, error) {
	opts := []cpcompare.Option{
		cpcompare.WithLogger(d.logger),
		cpcompare.WithProfileTTL(d.cfg.ProfileCacheTTL),
		cpcompare.WithFetchTimeout(d.cfg.FetchTimeout),
	}
	if d.httpCache != nil {
		opts = append(opts, cpcompare.WithHTTPCache(d.httpCache))
	}
	if observer != nil {
		opts = append(opts, cpcompare.WithObserver(observer))
	}
	return cpcompare.New(ctx, opts...)
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
