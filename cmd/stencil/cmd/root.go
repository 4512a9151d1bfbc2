// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kusari-oss/stencil/cmd/stencil/cmd/action"
	"github.com/kusari-oss/stencil/cmd/stencil/cmd/env"
	"github.com/kusari-oss/stencil/cmd/stencil/cmd/github"
	"github.com/kusari-oss/stencil/cmd/stencil/cmd/library"
	"github.com/kusari-oss/stencil/internal/version"
)

// NewRootCommand builds the full command tree around e.
func NewRootCommand(e *env.Env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "stencil",
		Short: "Backstage software template editor",
		Long: `Stencil edits, validates and previews Backstage software templates
and syncs them with GitHub repositories.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.Init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return e.Close()
		},
	}

	rootCmd.PersistentFlags().StringVar(&e.ConfigPath, "config", "", "config file (default is ~/.stencil/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&e.LogLevel, "log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&e.LogFormat, "log-format", "", "log format: console or json")

	rootCmd.AddCommand(newNewCmd(e))
	rootCmd.AddCommand(newValidateCmd(e))
	rootCmd.AddCommand(newFmtCmd())
	rootCmd.AddCommand(newPreviewCmd())
	rootCmd.AddCommand(newDraftCmd(e))
	rootCmd.AddCommand(newServeCmd(e))
	rootCmd.AddCommand(action.NewActionCmd(e))
	rootCmd.AddCommand(github.NewGitHubCmd(e))
	rootCmd.AddCommand(library.NewLibraryCommand(e))

	return rootCmd
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCommand(&env.Env{}).ExecuteContext(ctx)
}
