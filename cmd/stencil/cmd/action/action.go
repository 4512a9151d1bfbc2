// SPDX-License-Identifier: Apache-2.0

package action

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kusari-oss/stencil/cmd/stencil/cmd/env"
	"github.com/kusari-oss/stencil/internal/core/catalog"
	"github.com/kusari-oss/stencil/internal/core/format"
	"github.com/kusari-oss/stencil/internal/core/library"
)

// NewActionCmd creates the action command
func NewActionCmd(e *env.Env) *cobra.Command {
	actionCmd := &cobra.Command{
		Use:   "action",
		Short: "Manage the action catalog",
		Long: `List and inspect known scaffolder actions, and manage custom actions
and remote action repositories.`,
	}

	actionCmd.AddCommand(newActionListCmd(e))
	actionCmd.AddCommand(newActionInfoCmd(e))
	actionCmd.AddCommand(newActionAddCmd(e))
	actionCmd.AddCommand(newActionRemoveCmd(e))
	actionCmd.AddCommand(newActionImportCmd(e))
	actionCmd.AddCommand(newRepoCmd(e))

	return actionCmd
}

func newActionListCmd(e *env.Env) *cobra.Command {
	var category string

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available actions",
		Long:  `List all actions in the merged catalog, optionally filtered by category.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := e.Catalog()
			if err != nil {
				return err
			}
			idx, err := c.Load(cmd.Context())
			if err != nil {
				return err
			}

			defs := idx.All()
			if category != "" {
				if !catalog.Category(category).Valid() {
					return fmt.Errorf("unknown category %q (known: %s)", category, categoryNames())
				}
				defs = idx.ByCategory(catalog.Category(category))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Available actions:")
			fmt.Fprintln(out, "------------------")
			for _, d := range defs {
				fmt.Fprintf(out, "- %s: %s [%s]\n", d.Action, d.Label, d.Category)
			}
			return nil
		},
	}

	listCmd.Flags().StringVarP(&category, "category", "c", "", "only list actions in this category")

	return listCmd
}

func newActionInfoCmd(e *env.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "info <action>",
		Short: "Show information about an action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := e.Catalog()
			if err != nil {
				return err
			}
			idx, err := c.Load(cmd.Context())
			if err != nil {
				return err
			}
			d, ok := idx.Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown action %q", args[0])
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Action: %s\n", d.Action)
			fmt.Fprintf(out, "Label: %s\n", d.Label)
			fmt.Fprintf(out, "Category: %s\n", d.Category)
			if d.Description != "" {
				fmt.Fprintf(out, "Description: %s\n", d.Description)
			}
			if len(d.Inputs) == 0 {
				return nil
			}
			fmt.Fprintln(out, "Inputs:")
			for _, in := range d.Inputs {
				req := ""
				if in.Required {
					req = " (required)"
				}
				fmt.Fprintf(out, "  - %s: %s%s\n", in.Name, in.Type, req)
				if in.Description != "" {
					fmt.Fprintf(out, "      %s\n", in.Description)
				}
			}
			return nil
		},
	}
}

func newActionAddCmd(e *env.Env) *cobra.Command {
	var file string

	addCmd := &cobra.Command{
		Use:   "add -f <file>",
		Short: "Add custom actions from a definition file",
		Long: `Add or replace custom actions. The file holds one definition, a list of
definitions, or a mapping with an "actions" list, in YAML or JSON.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("error reading %s: %w", file, err)
			}
			defs, err := catalog.Parse(data, contentType(file))
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			if len(defs) == 0 {
				return fmt.Errorf("%s contains no action definitions", file)
			}

			c, err := e.Catalog()
			if err != nil {
				return err
			}
			for _, d := range defs {
				if err := c.Custom.Add(cmd.Context(), d); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", d.Action)
			}
			return nil
		},
	}

	addCmd.Flags().StringVarP(&file, "file", "f", "", "action definition file")
	_ = addCmd.MarkFlagRequired("file")

	return addCmd
}

func newActionRemoveCmd(e *env.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <action>",
		Short: "Remove a custom action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := e.Catalog()
			if err != nil {
				return err
			}
			removed, err := c.Custom.Remove(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !removed {
				fmt.Fprintf(cmd.OutOrStdout(), "No custom action %s\n", args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}
}

func newActionImportCmd(e *env.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "import [directory]",
		Short: "Import custom actions from a directory",
		Long: `Import every YAML and JSON action file in a directory as custom
actions. Without a directory the actions directory of the library is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var dir string
			if len(args) > 0 {
				dir = args[0]
			} else {
				info, err := e.Config.LibraryManager("").ResolvePath()
				if err != nil {
					return err
				}
				dir = info.ActionsDir
			}

			defs, failures, err := library.LoadActions(dir)
			if err != nil {
				return err
			}
			c, err := e.Catalog()
			if err != nil {
				return err
			}
			for _, d := range defs {
				if err := c.Custom.Add(cmd.Context(), d); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %d action(s) from %s\n", len(defs), dir)
			for _, f := range failures {
				fmt.Fprintf(out, "  skipped %s\n", f)
			}
			return nil
		},
	}
}

func contentType(path string) string {
	if format.KindFromPath(path) == format.JSON {
		return "application/json"
	}
	return "application/yaml"
}

func categoryNames() string {
	names := make([]string, 0, len(catalog.Categories()))
	for _, c := range catalog.Categories() {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}
