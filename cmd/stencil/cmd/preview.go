// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/kusari-oss/stencil/internal/core/parameters"
	"github.com/kusari-oss/stencil/internal/preview"
)

func newPreviewCmd() *cobra.Command {
	var (
		sets     []string
		interval time.Duration
	)

	previewCmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Simulate running a template",
		Long: `Walk through the parameter wizard with defaults and --set values,
then simulate the steps one per interval. Nothing is executed.`,
		Example: `  stencil preview template.yaml --set name=api --set publish=true`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := readTemplate(args[0])
			if err != nil {
				return err
			}
			values, err := parameters.ParseAssignments(sets, t.Spec.Parameters)
			if err != nil {
				return err
			}
			s, err := preview.New(t, preview.WithValues(values), preview.WithInterval(interval))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for s.Phase() == preview.PhaseForm {
				step := s.CurrentStep()
				fmt.Fprintf(out, "Step %d: %s\n", s.StepIndex()+1, step.Title)
				for _, key := range step.Properties.Keys() {
					fmt.Fprintf(out, "  %s = %s\n", key, display(s.Values()[key]))
				}
				if err := s.Next(); err != nil {
					return err
				}
			}

			fmt.Fprintf(out, "\nReview\n")
			values = s.Values()
			keys := make([]string, 0, len(values))
			for k := range values {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(out, "  %s: %s\n", k, display(values[k]))
			}

			fmt.Fprintf(out, "\nRunning\n")
			total := len(t.Spec.Steps)
			_, err = s.Run(cmd.Context(), func(r preview.StepResult) {
				if r.Status == preview.StatusRunning {
					return
				}
				fmt.Fprintf(out, "  [%d/%d] %-8s %s (%s)\n", r.Index+1, total, r.Status, r.Name, r.Action)
				if r.Note != "" {
					fmt.Fprintf(out, "          %s\n", r.Note)
				}
				if len(r.Missing) > 0 {
					fmt.Fprintf(out, "          missing values: %v\n", r.Missing)
				}
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "\nComplete\n")
			for _, l := range s.Links() {
				target := l.URL
				if target == "" {
					target = l.EntityRef
				}
				fmt.Fprintf(out, "  %s: %s\n", l.Title, target)
			}
			return nil
		},
	}

	previewCmd.Flags().StringArrayVar(&sets, "set", nil, "parameter value as key=value (repeatable)")
	previewCmd.Flags().DurationVar(&interval, "interval", preview.DefaultInterval, "simulated duration of each step")

	return previewCmd
}

func display(v any) string {
	switch val := v.(type) {
	case nil:
		return "(empty)"
	case string:
		if val == "" {
			return "(empty)"
		}
		return val
	case []any, map[string]any:
		b, err := json.Marshal(val)
		if err == nil {
			return string(b)
		}
	}
	return fmt.Sprint(v)
}
