// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kusari-oss/stencil/cmd/stencil/cmd/env"
	"github.com/kusari-oss/stencil/internal/core/draft"
	"github.com/kusari-oss/stencil/internal/server"
)

func newServeCmd(e *env.Env) *cobra.Command {
	var (
		addr    string
		refresh bool
	)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve template validation and formatting, the action catalog, editing
drafts, a GitHub proxy and Prometheus metrics over HTTP.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = e.Config.Server.Addr
			}
			m := e.Metrics()

			c, err := e.Catalog()
			if err != nil {
				return err
			}
			if refresh {
				if _, err := e.Refresh(cmd.Context(), c); err != nil {
					return err
				}
			}
			idx, err := c.Load(cmd.Context())
			if err != nil {
				return err
			}
			m.CatalogSize(idx.Len())
			e.Logger.Info("catalog loaded", zap.Int("actions", idx.Len()))

			st, err := e.Store()
			if err != nil {
				return err
			}

			srv := server.New(c,
				server.WithGitHub(e.GitHub()),
				server.WithDrafts(draft.New(st)),
				server.WithMetrics(m),
				server.WithLogger(e.Logger))
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}

	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	serveCmd.Flags().BoolVar(&refresh, "refresh", false, "refresh action repositories before serving")

	return serveCmd
}
