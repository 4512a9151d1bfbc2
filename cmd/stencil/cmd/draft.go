// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kusari-oss/stencil/cmd/stencil/cmd/env"
	"github.com/kusari-oss/stencil/internal/core/draft"
	"github.com/kusari-oss/stencil/internal/core/editor"
	"github.com/kusari-oss/stencil/internal/core/transcode"
	"github.com/kusari-oss/stencil/internal/core/validator"
)

func newDraftCmd(e *env.Env) *cobra.Command {
	var name string

	draftCmd := &cobra.Command{
		Use:   "draft",
		Short: "Edit templates as saved drafts",
		Long: `A draft is an editing session kept in the store. Open a template into a
draft, apply editor commands to it, then export the result.`,
	}
	draftCmd.PersistentFlags().StringVarP(&name, "name", "n", draft.DefaultName, "draft name")

	drafts := func() (*draft.Drafts, error) {
		s, err := e.Store()
		if err != nil {
			return nil, err
		}
		return draft.New(s), nil
	}
	load := func(cmd *cobra.Command) (*draft.Drafts, *draft.Draft, error) {
		d, err := drafts()
		if err != nil {
			return nil, nil, err
		}
		saved, found, err := d.Get(cmd.Context(), name)
		if err != nil {
			return nil, nil, err
		}
		if !found {
			return nil, nil, fmt.Errorf("no draft named %q; create one with 'stencil draft open'", name)
		}
		return d, saved, nil
	}

	draftCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved drafts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := drafts()
			if err != nil {
				return err
			}
			names, err := d.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	})

	draftCmd.AddCommand(&cobra.Command{
		Use:   "open [file]",
		Short: "Start a draft from a template file, or a blank template",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state := editor.NewState(nil)
			if len(args) > 0 {
				t, err := readTemplate(args[0])
				if err != nil {
					return err
				}
				state = editor.NewState(t)
			}
			d, err := drafts()
			if err != nil {
				return err
			}
			if err := d.Set(cmd.Context(), name, state); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved draft %s\n", name)
			return nil
		},
	})

	var asJSON bool
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the template of a draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, saved, err := load(cmd)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(saved)
			}
			data, err := transcode.Encode(saved.State.Template)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	showCmd.Flags().BoolVar(&asJSON, "json", false, "print the whole session as JSON")
	draftCmd.AddCommand(showCmd)

	draftCmd.AddCommand(&cobra.Command{
		Use:   "apply <commands.json|->",
		Short: "Apply editor commands to a draft",
		Long: `Apply a JSON list of editor commands, or a single command object, to a
draft. Each command names its type, for example:

  [{"type": "updateMetadata", "patch": {"title": "Web Service"}},
   {"type": "addStep", "step": {"name": "Log", "action": "debug:log"}}]

Commands whose target does not exist leave the draft unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("error reading commands: %w", err)
			}
			cmds, err := editor.DecodeCommands(data)
			if err != nil {
				return err
			}

			d, saved, err := load(cmd)
			if err != nil {
				return err
			}
			next := editor.ReduceAll(saved.State, cmds...)
			if err := d.Set(cmd.Context(), name, next); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Applied %d command(s) to %s\n", len(cmds), name)
			c, err := e.Catalog()
			if err != nil {
				return err
			}
			idx, err := c.Load(cmd.Context())
			if err != nil {
				return err
			}
			issues := validator.Validate(next.Template, idx)
			printIssues(out, issues, validator.GetSummary(issues))
			return nil
		},
	})

	var output string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write the template of a draft and mark it clean",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, saved, err := load(cmd)
			if err != nil {
				return err
			}
			data, err := transcode.Encode(saved.State.Template)
			if err != nil {
				return err
			}
			if err := writeOutput(cmd.OutOrStdout(), output, data); err != nil {
				return err
			}
			return d.Set(cmd.Context(), name, editor.Reduce(saved.State, editor.MarkClean{}))
		},
	}
	exportCmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default is standard output)")
	draftCmd.AddCommand(exportCmd)

	draftCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete a draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := drafts()
			if err != nil {
				return err
			}
			if err := d.Clear(cmd.Context(), name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared draft %s\n", name)
			return nil
		},
	})

	return draftCmd
}
