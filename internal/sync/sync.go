// SPDX-License-Identifier: Apache-2.0

// Package sync loads templates from GitHub and pushes edited templates back.
package sync

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/kusari-oss/stencil/internal/core/catalog"
	"github.com/kusari-oss/stencil/internal/core/models"
	"github.com/kusari-oss/stencil/internal/core/template"
	"github.com/kusari-oss/stencil/internal/core/transcode"
	"github.com/kusari-oss/stencil/internal/core/validator"
	"github.com/kusari-oss/stencil/internal/github"
	"github.com/kusari-oss/stencil/internal/logging"
)

// DefaultFileName is read when a pull URL names a directory.
const DefaultFileName = "template.yaml"

// ErrValidationFailed blocks a push of a template with validation errors.
var ErrValidationFailed = errors.New("template has validation errors")

// GitHub is the part of the GitHub client used here.
type GitHub interface {
	GetFile(ctx context.Context, owner, repo, path, ref string) (*github.File, error)
	PutFile(ctx context.Context, req github.PutFileRequest) (*github.PushResult, error)
	CreateBranch(ctx context.Context, owner, repo, branch, from string) (*github.Ref, error)
	FetchRaw(ctx context.Context, url string) ([]byte, error)
}

type Syncer struct {
	gh     GitHub
	lookup catalog.Lookup
	logger *zap.Logger
}

type Option func(*Syncer)

func WithLogger(l *zap.Logger) Option {
	return func(s *Syncer) { s.logger = logging.OrNop(l) }
}

// New creates a Syncer. lookup is used to validate before a push and may be nil.
func New(gh GitHub, lookup catalog.Lookup, opts ...Option) *Syncer {
	s := &Syncer{gh: gh, lookup: lookup, logger: logging.Nop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// PullResult is a decoded template and where it came from.
type PullResult struct {
	Template *models.Template
	Source   github.RepoRef
	// SHA of the file blob; empty for raw URLs.
	SHA string
}

// Pull loads a template from a GitHub URL or owner/repo reference. Directory
// URLs read template.yaml inside them. Other http(s) URLs are fetched as is.
func (s *Syncer) Pull(ctx context.Context, source string) (*PullResult, error) {
	ref, err := github.ParseURL(source)
	if err != nil {
		if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
			return nil, err
		}
		s.logger.Debug("fetching raw template", zap.String("url", source))
		data, err := s.gh.FetchRaw(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", source, err)
		}
		t, err := transcode.Decode(data)
		if err != nil {
			return nil, err
		}
		return &PullResult{Template: t}, nil
	}

	filePath := ref.Path
	if !ref.Blob && !isYAML(filePath) {
		filePath = path.Join(filePath, DefaultFileName)
	}

	s.logger.Debug("pulling template",
		zap.String("repository", ref.FullName()),
		zap.String("path", filePath),
		zap.String("branch", ref.Branch))

	f, err := s.gh.GetFile(ctx, ref.Owner, ref.Repo, filePath, ref.Branch)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s from %s: %w", filePath, ref.FullName(), err)
	}
	data, err := f.Decode()
	if err != nil {
		return nil, err
	}
	t, err := transcode.Decode(data)
	if err != nil {
		return nil, err
	}

	ref.Path = filePath
	return &PullResult{Template: t, Source: *ref, SHA: f.SHA}, nil
}

// PushOptions describes where and how to commit a template.
type PushOptions struct {
	Owner string
	Repo  string
	Path  string
	// Branch to commit to. Empty is the default branch, or a name rendered
	// from template.DefaultBranchName when CreateBranch is set.
	Branch       string
	CreateBranch bool
	// From is the source of a created branch. Empty is the default branch.
	From string
	// Message is a text/template for the commit message.
	Message      string
	AcceptErrors bool
}

// PushResult reports a push. Issues are always set, even when the push was
// blocked.
type PushResult struct {
	Issues  []validator.Issue
	Branch  string
	Created bool
	Commit  *github.PushResult
	Message string
}

// Push validates, encodes and commits t.
func (s *Syncer) Push(ctx context.Context, t *models.Template, opts PushOptions) (*PushResult, error) {
	if t == nil {
		return nil, errors.New("no template to push")
	}
	if opts.Owner == "" || opts.Repo == "" || opts.Path == "" {
		return nil, errors.New("owner, repo and path are required")
	}

	res := &PushResult{Issues: validator.Validate(t, s.lookup), Branch: opts.Branch}
	if sum := validator.GetSummary(res.Issues); sum.Errors > 0 && !opts.AcceptErrors {
		return res, fmt.Errorf("%w: %d error(s)", ErrValidationFailed, sum.Errors)
	}

	content, err := transcode.Encode(t)
	if err != nil {
		return res, err
	}

	tctx := template.Context{Template: t, Repo: opts.Owner + "/" + opts.Repo, Path: opts.Path, Branch: opts.Branch}
	if opts.CreateBranch {
		if res.Branch == "" {
			if res.Branch, err = template.BranchName("", tctx); err != nil {
				return res, err
			}
			tctx.Branch = res.Branch
		}
		if _, err := s.gh.CreateBranch(ctx, opts.Owner, opts.Repo, res.Branch, opts.From); err != nil {
			return res, fmt.Errorf("failed to create branch %s: %w", res.Branch, err)
		}
		s.logger.Info("created branch",
			zap.String("repository", tctx.Repo),
			zap.String("branch", res.Branch),
			zap.String("from", opts.From))
	}

	if res.Message, err = template.CommitMessage(opts.Message, tctx); err != nil {
		return res, err
	}

	var sha string
	existing, err := s.gh.GetFile(ctx, opts.Owner, opts.Repo, opts.Path, res.Branch)
	switch {
	case err == nil:
		sha = existing.SHA
	case github.IsNotFound(err):
		res.Created = true
	default:
		return res, fmt.Errorf("failed to read current %s: %w", opts.Path, err)
	}

	commit, err := s.gh.PutFile(ctx, github.PutFileRequest{
		Owner:   opts.Owner,
		Repo:    opts.Repo,
		Path:    opts.Path,
		Content: content,
		Message: res.Message,
		Branch:  res.Branch,
		SHA:     sha,
	})
	if err != nil {
		return res, fmt.Errorf("failed to push %s: %w", opts.Path, err)
	}
	res.Commit = commit

	s.logger.Info("pushed template",
		zap.String("repository", tctx.Repo),
		zap.String("path", opts.Path),
		zap.String("branch", res.Branch),
		zap.Bool("created", res.Created),
		zap.String("commit", commit.Commit.SHA))
	return res, nil
}

func isYAML(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	return ext == ".yaml" || ext == ".yml"
}
