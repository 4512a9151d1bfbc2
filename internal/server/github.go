// SPDX-License-Identifier: Apache-2.0

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/kusari-oss/stencil/internal/github"
)

// TokenHeader carries the caller's GitHub token.
const TokenHeader = "X-GitHub-Token"

// githubGet fetches ?url= anonymously or with the caller's token. Repository
// and tree URLs are listed through the contents API; file URLs are read raw
// and returned as {"content": "..."}.
func (s *Server) githubGet(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		writeError(w, http.StatusBadRequest, "Missing url parameter")
		return
	}
	gh := s.gh.WithToken(r.Header.Get(TokenHeader))

	if github.IsDirectoryURL(target) {
		if ref, err := github.ParseURL(target); err == nil {
			items, err := gh.ListContents(r.Context(), ref.Owner, ref.Repo, ref.Path, ref.Branch)
			if err == nil {
				writeJSON(w, http.StatusOK, items)
				return
			}
			s.logger.Debug("directory listing failed, trying raw fetch", zap.String("url", target), zap.Error(err))
		}
	}

	data, err := gh.FetchRaw(r.Context(), github.RawURL(target, gh.RawBaseURL()))
	if err != nil {
		s.githubError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"content": string(data)})
}

type githubRequest struct {
	Action     string `json:"action"`
	Page       int    `json:"page"`
	Search     string `json:"search"`
	Owner      string `json:"owner"`
	Repo       string `json:"repo"`
	Path       string `json:"path"`
	Ref        string `json:"ref"`
	Content    string `json:"content"`
	Message    string `json:"message"`
	Branch     string `json:"branch"`
	SHA        string `json:"sha"`
	FromBranch string `json:"fromBranch"`
}

// githubPost runs one authenticated operation selected by "action".
func (s *Server) githubPost(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(TokenHeader)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "Missing GitHub token")
		return
	}

	var req githubRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Request error: %v", err))
		return
	}

	ctx := r.Context()
	gh := s.gh.WithToken(token)

	var (
		out any
		err error
	)
	switch req.Action {
	case "validate-token":
		out, err = gh.ValidateToken(ctx, token)
	case "list-repos":
		out, err = gh.ListRepos(ctx, req.Search, req.Page)
	case "get-repo":
		out, err = gh.GetRepo(ctx, req.Owner, req.Repo)
	case "get-file":
		out, err = gh.GetFile(ctx, req.Owner, req.Repo, req.Path, req.Ref)
	case "put-file":
		out, err = gh.PutFile(ctx, github.PutFileRequest{
			Owner:   req.Owner,
			Repo:    req.Repo,
			Path:    req.Path,
			Content: []byte(req.Content),
			Message: req.Message,
			Branch:  req.Branch,
			SHA:     req.SHA,
		})
	case "list-branches":
		out, err = gh.ListBranches(ctx, req.Owner, req.Repo)
	case "create-branch":
		out, err = gh.CreateBranch(ctx, req.Owner, req.Repo, req.Branch, req.FromBranch)
	case "list-contents":
		out, err = gh.ListContents(ctx, req.Owner, req.Repo, req.Path, req.Ref)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown action: %s", req.Action))
		return
	}
	if err != nil {
		s.githubError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) githubError(w http.ResponseWriter, err error) {
	var apiErr *github.APIError
	switch {
	case errors.As(err, &apiErr):
		writeError(w, apiErr.StatusCode, apiErr.Message)
	case errors.Is(err, github.ErrNoToken):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		s.logger.Warn("github request failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	}
}
