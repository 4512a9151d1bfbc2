// SPDX-License-Identifier: Apache-2.0

package action

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kusari-oss/stencil/cmd/stencil/cmd/env"
	"github.com/kusari-oss/stencil/internal/core/catalog"
)

func newRepoCmd(e *env.Env) *cobra.Command {
	repoCmd := &cobra.Command{
		Use:   "repo",
		Short: "Manage remote action repositories",
		Long: `Action repositories are URLs serving action definitions as YAML or
JSON. Their actions take precedence over built-in and custom ones.`,
	}

	repoCmd.AddCommand(newRepoAddCmd(e))
	repoCmd.AddCommand(newRepoRemoveCmd(e))
	repoCmd.AddCommand(newRepoListCmd(e))
	repoCmd.AddCommand(newRepoRefreshCmd(e))

	return repoCmd
}

func newRepoAddCmd(e *env.Env) *cobra.Command {
	var (
		name     string
		disabled bool
		noFetch  bool
	)

	addCmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Add or update an action repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := e.Catalog()
			if err != nil {
				return err
			}
			repo := catalog.Repository{URL: args[0], Name: name, Enabled: !disabled}
			if err := c.Repositories.Add(cmd.Context(), repo); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added repository %s\n", args[0])

			if noFetch || disabled {
				return nil
			}
			return refresh(cmd, e, c)
		},
	}

	addCmd.Flags().StringVar(&name, "name", "", "display name (default is the url)")
	addCmd.Flags().BoolVar(&disabled, "disabled", false, "add the repository without enabling it")
	addCmd.Flags().BoolVar(&noFetch, "no-fetch", false, "do not fetch the repository now")

	return addCmd
}

func newRepoRemoveCmd(e *env.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <url>",
		Short: "Remove an action repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := e.Catalog()
			if err != nil {
				return err
			}
			removed, err := c.Repositories.Remove(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !removed {
				fmt.Fprintf(cmd.OutOrStdout(), "No repository %s\n", args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed repository %s\n", args[0])
			return nil
		},
	}
}

func newRepoListCmd(e *env.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List action repositories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := e.Catalog()
			if err != nil {
				return err
			}
			repos, err := c.Repositories.List(cmd.Context())
			if err != nil {
				return err
			}
			cache, err := c.Repositories.Cache(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(repos) == 0 {
				fmt.Fprintln(out, "No action repositories configured.")
				return nil
			}
			for _, r := range repos {
				state := "enabled"
				if !r.Enabled {
					state = "disabled"
				}
				fmt.Fprintf(out, "- %s (%s, %s, %d cached actions)\n", r.Name, r.URL, state, len(cache[r.URL]))
			}
			return nil
		},
	}
}

func newRepoRefreshCmd(e *env.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Fetch every enabled action repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := e.Catalog()
			if err != nil {
				return err
			}
			return refresh(cmd, e, c)
		},
	}
}

// refresh prints one line per repository. Fetch failures are reported but
// do not fail the command.
func refresh(cmd *cobra.Command, e *env.Env, c *env.Catalog) error {
	report, err := e.Refresh(cmd.Context(), c)
	if err != nil {
		return err
	}
	failed := make(map[string]error, len(report.Errors))
	for _, fe := range report.Errors {
		failed[fe.Repository] = fe.Err
	}

	repos, err := c.Repositories.List(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, r := range repos {
		n, ok := report.Fetched[r.URL]
		switch {
		case !ok:
			continue
		case failed[r.URL] != nil:
			fmt.Fprintf(out, "✗ %s: %v (%d cached actions kept)\n", r.URL, failed[r.URL], n)
		default:
			fmt.Fprintf(out, "✓ %s: %d actions\n", r.URL, n)
		}
	}
	return nil
}
