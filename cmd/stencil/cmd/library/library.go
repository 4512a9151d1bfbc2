// SPDX-License-Identifier: Apache-2.0

package library

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kusari-oss/stencil/cmd/stencil/cmd/env"
	"github.com/kusari-oss/stencil/internal/core/library"
)

// NewLibraryCommand creates the library command
func NewLibraryCommand(e *env.Env) *cobra.Command {
	libraryCmd := &cobra.Command{
		Use:   "library",
		Short: "Manage the stencil library of templates and actions",
		Long: `Manage the stencil library of templates and actions. Initialize the
library, sync it with new files, list its templates or diagnose how it is
resolved.`,
	}

	libraryCmd.AddCommand(newInitCommand(e))
	libraryCmd.AddCommand(newSyncCommand(e))
	libraryCmd.AddCommand(newListCommand(e))
	libraryCmd.AddCommand(newDiagnoseCommand(e))

	return libraryCmd
}

func newInitCommand(e *env.Env) *cobra.Command {
	var overwrite bool

	initCmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a stencil library",
		Long: `Initialize a stencil library with actions and templates directories,
seeding the actions directory with the built-in action table. Without a
directory the configured library path is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := e.Config.LibraryPath
			if len(args) > 0 {
				path = args[0]
			}

			info, err := library.Init(path, overwrite)
			if err != nil {
				return fmt.Errorf("error initializing library: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Initialization complete!")
			fmt.Fprintf(out, "Library: %s\n", info.Path)
			fmt.Fprintf(out, "Actions directory: %s\n", info.ActionsDir)
			fmt.Fprintf(out, "Templates directory: %s\n", info.TemplatesDir)
			return nil
		},
	}

	initCmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace default files that already exist")

	return initCmd
}

func newListCommand(e *env.Env) *cobra.Command {
	var libraryPath string

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List library templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := e.Config.LibraryManager(libraryPath).ResolvePath()
			if err != nil {
				return err
			}
			names, err := library.ListTemplates(info)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(names) == 0 {
				fmt.Fprintf(out, "No templates in %s\n", info.TemplatesDir)
				return nil
			}
			for _, n := range names {
				fmt.Fprintf(out, "- %s\n", n)
			}
			return nil
		},
	}

	listCmd.Flags().StringVar(&libraryPath, "library-path", "", "library to list (default is the resolved library)")

	return listCmd
}
