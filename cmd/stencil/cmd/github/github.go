// SPDX-License-Identifier: Apache-2.0

package github

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kusari-oss/stencil/cmd/stencil/cmd/env"
	"github.com/kusari-oss/stencil/internal/core/transcode"
	"github.com/kusari-oss/stencil/internal/core/validator"
	gh "github.com/kusari-oss/stencil/internal/github"
	"github.com/kusari-oss/stencil/internal/sync"
)

// NewGitHubCmd creates the github command
func NewGitHubCmd(e *env.Env) *cobra.Command {
	githubCmd := &cobra.Command{
		Use:   "github",
		Short: "Pull and push templates on GitHub",
		Long: `Load templates from GitHub URLs and commit them back. The token is read
from github.token in the config file, STENCIL_GITHUB_TOKEN or GITHUB_TOKEN.`,
	}

	githubCmd.AddCommand(newWhoamiCmd(e))
	githubCmd.AddCommand(newReposCmd(e))
	githubCmd.AddCommand(newBranchesCmd(e))
	githubCmd.AddCommand(newPullCmd(e))
	githubCmd.AddCommand(newPushCmd(e))

	return githubCmd
}

func newWhoamiCmd(e *env.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Validate the configured token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token := e.Config.GitHub.Token
			if token == "" {
				return gh.ErrNoToken
			}
			user, err := e.GitHub().ValidateToken(cmd.Context(), token)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Logged in as %s", user.Login)
			if user.Name != "" {
				fmt.Fprintf(out, " (%s)", user.Name)
			}
			fmt.Fprintln(out)
			if user.Scopes != "" {
				fmt.Fprintf(out, "Scopes: %s\n", user.Scopes)
			}
			return nil
		},
	}
}

func newReposCmd(e *env.Env) *cobra.Command {
	var page int

	reposCmd := &cobra.Command{
		Use:   "repos [search]",
		Short: "List repositories of the authenticated user",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var search string
			if len(args) > 0 {
				search = args[0]
			}
			repos, err := e.GitHub().ListRepos(cmd.Context(), search, page)
			if err != nil {
				return err
			}
			for _, r := range repos {
				visibility := "public"
				if r.Private {
					visibility = "private"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "- %s (%s, %s)\n", r.FullName, visibility, r.DefaultBranch)
			}
			return nil
		},
	}

	reposCmd.Flags().IntVar(&page, "page", 1, "result page")

	return reposCmd
}

func newBranchesCmd(e *env.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "branches <owner/repo>",
		Short: "List branches of a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, repo, err := splitRepo(args[0])
			if err != nil {
				return err
			}
			branches, err := e.GitHub().ListBranches(cmd.Context(), owner, repo)
			if err != nil {
				return err
			}
			for _, b := range branches {
				fmt.Fprintf(cmd.OutOrStdout(), "- %s %s\n", b.Name, shortSHA(b.Commit.SHA))
			}
			return nil
		},
	}
}

func newPullCmd(e *env.Env) *cobra.Command {
	var output string

	pullCmd := &cobra.Command{
		Use:   "pull <url>",
		Short: "Load a template from GitHub",
		Long: `Load a template from a GitHub file or directory URL, an owner/repo
reference or any raw http(s) URL. Directories read template.yaml inside them.
The template is written in canonical form.`,
		Example: `  stencil github pull https://github.com/acme/templates/blob/main/service/template.yaml
  stencil github pull https://github.com/acme/templates/tree/main/service -o template.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := sync.New(e.GitHub(), nil, sync.WithLogger(e.Logger))
			res, err := s.Pull(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			data, err := transcode.Encode(res.Template)
			if err != nil {
				return err
			}
			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0644); err != nil {
				return fmt.Errorf("error writing %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pulled %s into %s\n", res.Source.FullName(), output)
			return nil
		},
	}

	pullCmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default is standard output)")

	return pullCmd
}

func newPushCmd(e *env.Env) *cobra.Command {
	var (
		repo         string
		opts         sync.PushOptions
		acceptErrors bool
	)

	pushCmd := &cobra.Command{
		Use:   "push <file>",
		Short: "Validate and commit a template to GitHub",
		Long: `Validate a template against the action catalog and commit it to a
repository. Templates with errors are not pushed unless --accept-errors is
given. The commit message and a created branch name are Go templates over
.Template, .Repo, .Path and .Branch.`,
		Example: `  stencil github push template.yaml --repo acme/templates --path service/template.yaml
  stencil github push template.yaml --repo acme/templates --path t.yaml --create-branch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("error reading %s: %w", args[0], err)
			}
			t, err := transcode.Decode(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if opts.Owner, opts.Repo, err = splitRepo(repo); err != nil {
				return err
			}
			opts.AcceptErrors = acceptErrors

			c, err := e.Catalog()
			if err != nil {
				return err
			}
			idx, err := c.Load(cmd.Context())
			if err != nil {
				return err
			}

			s := sync.New(e.GitHub(), idx, sync.WithLogger(e.Logger))
			res, err := s.Push(cmd.Context(), t, opts)
			out := cmd.OutOrStdout()
			if errors.Is(err, sync.ErrValidationFailed) {
				for _, i := range res.Issues {
					if i.Severity == validator.SeverityError {
						fmt.Fprintf(out, "error   %s: %s\n", i.Location, i.Message)
					}
				}
				return fmt.Errorf("%w; use --accept-errors to push anyway", err)
			}
			if err != nil {
				return err
			}

			verb := "Updated"
			if res.Created {
				verb = "Created"
			}
			fmt.Fprintf(out, "%s %s on %s/%s", verb, opts.Path, opts.Owner, opts.Repo)
			if res.Branch != "" {
				fmt.Fprintf(out, " (branch %s)", res.Branch)
			}
			fmt.Fprintln(out)
			if res.Commit != nil {
				fmt.Fprintf(out, "Commit %s %s\n", shortSHA(res.Commit.Commit.SHA), res.Commit.Commit.HTMLURL)
			}
			return nil
		},
	}

	pushCmd.Flags().StringVar(&repo, "repo", "", "target repository as owner/name")
	pushCmd.Flags().StringVar(&opts.Path, "path", "", "file path in the repository")
	pushCmd.Flags().StringVar(&opts.Branch, "branch", "", "branch to commit to (default is the default branch)")
	pushCmd.Flags().BoolVar(&opts.CreateBranch, "create-branch", false, "create the branch before committing")
	pushCmd.Flags().StringVar(&opts.From, "from", "", "source of a created branch (default is the default branch)")
	pushCmd.Flags().StringVarP(&opts.Message, "message", "m", "", "commit message template")
	pushCmd.Flags().BoolVar(&acceptErrors, "accept-errors", false, "push even when validation finds errors")
	_ = pushCmd.MarkFlagRequired("repo")
	_ = pushCmd.MarkFlagRequired("path")

	return pushCmd
}

func splitRepo(s string) (string, string, error) {
	owner, repo, ok := strings.Cut(strings.TrimSuffix(s, ".git"), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("invalid repository %q, expected owner/name", s)
	}
	return owner, repo, nil
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
