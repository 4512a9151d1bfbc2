// SPDX-License-Identifier: Apache-2.0

package library

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kusari-oss/stencil/cmd/stencil/cmd/env"
	"github.com/kusari-oss/stencil/internal/core/library"
	"github.com/kusari-oss/stencil/internal/defaults"
)

func newDiagnoseCommand(e *env.Env) *cobra.Command {
	var (
		jsonOutput  bool
		libraryPath string
	)

	diagnoseCmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Diagnose library configuration issues",
		Long: `Diagnose library configuration and path resolution issues.

This command provides detailed information about:
- Library path resolution order and results
- Configuration sources and their values
- Directory existence and the number of library files

Use this command when templates or actions from the library are missing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr := e.Config.LibraryManager(libraryPath)
			diagnostics := mgr.Diagnostics()
			diagnostics["config_file"] = e.ConfigPath
			if cwd, err := os.Getwd(); err == nil {
				diagnostics["current_directory"] = cwd
			}
			if files, err := defaults.ListEmbeddedFiles(); err == nil {
				diagnostics["embedded_defaults"] = files
			}

			info, resolveErr := mgr.ResolvePath()
			if info != nil && info.Valid {
				defs, failures, err := library.LoadActions(info.ActionsDir)
				if err == nil {
					diagnostics["actions"] = len(defs)
					diagnostics["invalid_action_files"] = len(failures)
				}
				if names, err := library.ListTemplates(info); err == nil {
					diagnostics["templates"] = len(names)
				}
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(diagnostics)
			}

			fmt.Fprintln(out, "=== Stencil Library Diagnostics ===")
			fmt.Fprintln(out)

			fmt.Fprintln(out, "Library Resolution:")
			switch {
			case info != nil && info.Valid:
				fmt.Fprintf(out, "  ✓ Library found and valid: %s\n", info.Path)
				fmt.Fprintf(out, "    Source: %s\n", info.Source)
				fmt.Fprintf(out, "    Actions: %v, templates: %v\n", diagnostics["actions"], diagnostics["templates"])
			case info != nil:
				fmt.Fprintf(out, "  ✗ Library invalid: %s\n", info.Path)
				for _, msg := range info.Errors {
					fmt.Fprintf(out, "    Error: %s\n", msg)
				}
			default:
				fmt.Fprintln(out, "  ✗ No library path resolved")
				if resolveErr != nil {
					fmt.Fprintf(out, "    Error: %s\n", resolveErr)
				}
			}
			fmt.Fprintln(out)

			fmt.Fprintln(out, "Configuration Sources:")
			printSource(out, "Command line", diagnostics["cmdline_library_path"])
			printSource(out, library.HomeEnv, diagnostics["stencil_home"])
			printSource(out, "Config file", diagnostics["global_library_path"])
			if files, ok := diagnostics["embedded_defaults"].([]string); ok {
				fmt.Fprintf(out, "  Built-in defaults: %s\n", strings.Join(files, ", "))
			}
			if home := diagnostics["user_home"]; home != nil {
				fmt.Fprintf(out, "  User home: %s\n", home)
			}

			if info == nil || !info.Valid {
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Recommendations:")
				fmt.Fprintln(out, "  1. Initialize a library with: stencil library init")
				fmt.Fprintln(out, "  2. Or point library_path in the config file at an existing library")
			}
			return nil
		},
	}

	diagnoseCmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	diagnoseCmd.Flags().StringVar(&libraryPath, "library-path", "", "library path to check first")

	return diagnoseCmd
}

func printSource(w io.Writer, name string, v any) {
	if s, ok := v.(string); ok && s != "" {
		fmt.Fprintf(w, "  %s: %s\n", name, s)
		return
	}
	fmt.Fprintf(w, "  %s: (not set)\n", name)
}
