// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kusari-oss/stencil/cmd/stencil/cmd/env"
	"github.com/kusari-oss/stencil/internal/core/library"
	"github.com/kusari-oss/stencil/internal/core/models"
	"github.com/kusari-oss/stencil/internal/core/transcode"
	"github.com/kusari-oss/stencil/internal/core/validator"
)

func newNewCmd(e *env.Env) *cobra.Command {
	var (
		output string
		from   string
		name   string
	)

	newCmd := &cobra.Command{
		Use:   "new",
		Short: "Write a new template",
		Long: `Write a blank template, or a copy of a template from the library,
to a file or standard output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t := models.NewBlankTemplate()
			if from != "" {
				info, err := e.Config.LibraryManager("").ResolvePath()
				if err != nil {
					return err
				}
				path, err := library.TemplatePath(info, from)
				if err != nil {
					return err
				}
				if t, err = readTemplate(path); err != nil {
					return err
				}
			}
			if name != "" {
				t.Metadata.Name = name
			}

			data, err := transcode.Encode(t)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, data)
		},
	}

	newCmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default is standard output)")
	newCmd.Flags().StringVar(&from, "from", "", "library template to start from")
	newCmd.Flags().StringVar(&name, "name", "", "metadata.name of the new template")

	return newCmd
}

func newValidateCmd(e *env.Env) *cobra.Command {
	var (
		strict     bool
		jsonOutput bool
	)

	validateCmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a template",
		Long: `Validate a template against the action catalog. Exits non-zero when
errors are found, or warnings with --strict.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := readTemplate(args[0])
			if err != nil {
				return err
			}
			c, err := e.Catalog()
			if err != nil {
				return err
			}
			idx, err := c.Load(cmd.Context())
			if err != nil {
				return err
			}

			issues := validator.Validate(t, idx)
			sum := validator.GetSummary(issues)

			out := cmd.OutOrStdout()
			if jsonOutput {
				if issues == nil {
					issues = []validator.Issue{}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(map[string]any{"issues": issues, "summary": sum}); err != nil {
					return err
				}
			} else {
				printIssues(out, issues, sum)
			}

			if sum.Errors > 0 || (strict && sum.Warnings > 0) {
				return fmt.Errorf("validation failed: %d error(s), %d warning(s)", sum.Errors, sum.Warnings)
			}
			return nil
		},
	}

	validateCmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as errors")
	validateCmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	return validateCmd
}

func newFmtCmd() *cobra.Command {
	var write bool

	fmtCmd := &cobra.Command{
		Use:   "fmt <file>",
		Short: "Normalize a template",
		Long:  `Decode and re-encode a template in canonical form.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			original, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("error reading %s: %w", args[0], err)
			}
			t, err := transcode.Decode(original)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			data, err := transcode.Encode(t)
			if err != nil {
				return err
			}

			if !write {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if bytes.Equal(original, data) {
				return nil
			}
			if err := os.WriteFile(args[0], data, 0644); err != nil {
				return fmt.Errorf("error writing %s: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), args[0])
			return nil
		},
	}

	fmtCmd.Flags().BoolVarP(&write, "write", "w", false, "write the result back to the file")

	return fmtCmd
}

func readTemplate(path string) (*models.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	t, err := transcode.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	return nil
}

func printIssues(w io.Writer, issues []validator.Issue, sum validator.Summary) {
	for _, i := range issues {
		fmt.Fprintf(w, "%-7s %s: %s\n", i.Severity, i.Location, i.Message)
		if i.Suggestion != "" {
			fmt.Fprintf(w, "        %s\n", i.Suggestion)
		}
	}
	if sum.Total == 0 {
		fmt.Fprintln(w, "No issues found.")
		return
	}
	fmt.Fprintf(w, "\n%d error(s), %d warning(s), %d info\n", sum.Errors, sum.Warnings, sum.Infos)
}
