// SPDX-License-Identifier: Apache-2.0

package library

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kusari-oss/stencil/cmd/stencil/cmd/env"
	"github.com/kusari-oss/stencil/internal/core/library"
	"github.com/kusari-oss/stencil/internal/defaults"
)

func newSyncCommand(e *env.Env) *cobra.Command {
	var (
		libraryPath string
		dryRun      bool
		force       bool
	)

	syncCmd := &cobra.Command{
		Use:     "sync [source-directory]",
		Aliases: []string{"update"},
		Short:   "Sync the library with a directory or the built-in defaults",
		Long: `Copy actions/ and templates/ files from a source directory into the
library. Files are checked before they are copied: action files must parse as
action definitions and templates must decode. Identical files are skipped
unless --force is given.

Without a source directory the built-in action table is rewritten into the
library's actions directory.

Examples:
  stencil library sync ./shared-library      # Copy files from a directory
  stencil library sync --dry-run ./shared    # Show what would change
  stencil library sync                       # Restore the built-in actions`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := library.ExpandPath(libraryPath)
			if target == "" {
				target = e.Config.LibraryPath
			}
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				info := library.Inspect(target, "sync")
				if dryRun {
					fmt.Fprintf(out, "Would restore built-in actions in %s\n", info.ActionsDir)
					return nil
				}
				written, err := defaults.CopyDefaults(info.ActionsDir, true)
				if err != nil {
					return fmt.Errorf("failed to sync defaults: %w", err)
				}
				for _, w := range written {
					fmt.Fprintf(out, "  update %s\n", w)
				}
				fmt.Fprintf(out, "Library sync complete: %s\n", target)
				return nil
			}

			updater := library.NewUpdater(target, args[0], force, dryRun)
			changes, err := updater.Update()
			printChanges(out, changes, updater.Stats())
			if err != nil {
				return fmt.Errorf("error updating library: %w", err)
			}

			if dryRun {
				fmt.Fprintln(out, "Dry run completed. No files were actually modified.")
			} else {
				fmt.Fprintf(out, "Library sync complete: %s\n", target)
			}
			return nil
		},
	}

	syncCmd.Flags().StringVar(&libraryPath, "library-path", "", "library to sync (default is the configured library)")
	syncCmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "show what would be synced without making changes")
	syncCmd.Flags().BoolVarP(&force, "force", "f", false, "rewrite files even if they are identical")

	return syncCmd
}

func printChanges(w io.Writer, changes []library.Change, stats library.Stats) {
	for _, c := range changes {
		if c.Reason != "" {
			fmt.Fprintf(w, "  %-7s %s: %s\n", c.Action, c.Path, c.Reason)
			continue
		}
		fmt.Fprintf(w, "  %-7s %s\n", c.Action, c.Path)
	}
	fmt.Fprintf(w, "%d examined, %d created, %d updated, %d skipped, %d invalid\n",
		stats.Examined, stats.Created, stats.Updated, stats.Skipped, stats.Invalid)
}
