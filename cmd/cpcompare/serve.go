package main

import (
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/codeGROOVE-dev/cpcompare/internal/config"
	"github.com/codeGROOVE-dev/cpcompare/internal/metrics"
	"github.com/codeGROOVE-dev/cpcompare/internal/server"
	"github.com/codeGROOVE-dev/cpcompare/pkg/session"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the comparison API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			d, err := setup(ctx, g)
			if err != nil {
				return err
			}
			defer d.Close()
			if addr != "" {
				d.cfg.Addr = addr
			}

			m := metrics.New()
			client, err := d.client(ctx, m.ObserveFetch)
			if err != nil {
				return err
			}

			store, closeStore, err := sessionStore(d.cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := closeStore(); err != nil {
					d.logger.Warn("failed to close session store", "error", err)
				}
			}()
			d.logger.InfoContext(ctx, "session store ready", "backend", d.cfg.SessionBackend)

			srv := server.New(client, session.New(store, session.WithLogger(d.logger)),
				server.WithLogger(d.logger),
				server.WithMetrics(m),
				server.WithRateLimit(d.cfg.RateLimitPerMinute),
				server.WithAllowedOrigins(d.cfg.AllowedOrigins...),
				server.WithProxyHeaders(d.cfg.TrustProxyHeaders),
			)
			return srv.ListenAndServe(ctx, d.cfg.Addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

func sessionStore(cfg *config.Config) (session.Store, func() error, error) {
	switch cfg.SessionBackend {
	case config.BackendDisk:
		s, err := session.NewDiskStore(cfg.SessionPath(), cfg.SessionRetention)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.BackendRedis:
		rc := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return session.NewRedisStore(rc, "", cfg.SessionRetention), rc.Close, nil
	default:
		return session.NewMemoryStore(), func() error { return nil }, nil
	}
}
