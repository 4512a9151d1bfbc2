// SPDX-License-Identifier: Apache-2.0

// Package github is a small client for the GitHub REST contents, branches
// and repositories APIs.
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kusari-oss/stencil/internal/metrics"
	"github.com/kusari-oss/stencil/internal/version"
)

const (
	DefaultBaseURL    = "https://api.github.com"
	DefaultRawBaseURL = "https://raw.githubusercontent.com"
	DefaultTimeout    = 10 * time.Second

	apiVersion = "2022-11-28"
	maxBody    = 10 << 20
)

// ErrNoToken is returned by operations that need a token when none is set.
var ErrNoToken = errors.New("not connected to GitHub: no token")

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("GitHub API error (%d): %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

type Client struct {
	baseURL    string
	rawBaseURL string
	token      string
	http       *http.Client
	metrics    *metrics.Metrics
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithRawBaseURL(u string) Option {
	return func(c *Client) { c.rawBaseURL = strings.TrimRight(u, "/") }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http = &http.Client{Timeout: d} }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		rawBaseURL: DefaultRawBaseURL,
		http:       &http.Client{Timeout: DefaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// WithToken returns a copy of c that authenticates with token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// HasToken reports whether a token is configured.
func (c *Client) HasToken() bool {
	return c.token != ""
}

type User struct {
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Scopes    string `json:"scopes"`
}

type Owner struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}

type Repo struct {
	FullName      string `json:"full_name"`
	Name          string `json:"name"`
	Owner         Owner  `json:"owner"`
	Description   string `json:"description"`
	DefaultBranch string `json:"default_branch"`
	Private       bool   `json:"private"`
	HTMLURL       string `json:"html_url"`
	UpdatedAt     string `json:"updated_at"`
}

type Branch struct {
	Name   string `json:"name"`
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

// File is a contents API file. Content is base64 as returned by the API.
type File struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	SHA      string `json:"sha"`
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
	HTMLURL  string `json:"html_url"`
}

// Decode returns the file bytes.
func (f *File) Decode() ([]byte, error) {
	if f.Encoding != "" && f.Encoding != "base64" {
		return nil, fmt.Errorf("unsupported content encoding %q", f.Encoding)
	}
	// the API wraps base64 at 60 columns
	clean := strings.NewReplacer("\n", "", "\r", "").Replace(f.Content)
	data, err := base64.StdEncoding.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", f.Path, err)
	}
	return data, nil
}

type ContentItem struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"` // file or dir
	Size int64  `json:"size"`
	SHA  string `json:"sha"`
}

type PushResult struct {
	Content struct {
		Name    string `json:"name"`
		Path    string `json:"path"`
		SHA     string `json:"sha"`
		HTMLURL string `json:"html_url"`
	} `json:"content"`
	Commit struct {
		SHA     string `json:"sha"`
		HTMLURL string `json:"html_url"`
	} `json:"commit"`
}

type Ref struct {
	Ref    string `json:"ref"`
	Object struct {
		SHA string `json:"sha"`
	} `json:"object"`
}

// PutFileRequest creates or updates one file. SHA is required when the
// file already exists.
type PutFileRequest struct {
	Owner   string
	Repo    string
	Path    string
	Content []byte
	Message string
	Branch  string
	SHA     string
}

// ValidateToken reads the user behind token, with a 10 second limit.
func (c *Client) ValidateToken(ctx context.Context, token string) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	var user User
	resp, err := c.WithToken(token).do(ctx, "validate-token", http.MethodGet, "/user", nil, &user)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("connection timed out: %w", err)
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return nil, &APIError{StatusCode: http.StatusUnauthorized, Message: "invalid token"}
		}
		return nil, err
	}
	user.Scopes = resp.Header.Get("X-OAuth-Scopes")
	return &user, nil
}

// ListRepos lists the caller's repositories by last update, or searches
// them by name when search is set. page starts at 1.
func (c *Client) ListRepos(ctx context.Context, search string, page int) ([]Repo, error) {
	if page < 1 {
		page = 1
	}
	if search != "" {
		var result struct {
			Items []Repo `json:"items"`
		}
		path := fmt.Sprintf("/search/repositories?q=%s+in:name&sort=updated&per_page=20&page=%d", url.QueryEscape(search), page)
		if _, err := c.authed(ctx, "list-repos", http.MethodGet, path, nil, &result); err != nil {
			return nil, err
		}
		return result.Items, nil
	}

	var repos []Repo
	path := fmt.Sprintf("/user/repos?sort=updated&per_page=30&page=%d&affiliation=owner,collaborator,organization_member", page)
	if _, err := c.authed(ctx, "list-repos", http.MethodGet, path, nil, &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

func (c *Client) GetRepo(ctx context.Context, owner, repo string) (*Repo, error) {
	var out Repo
	if _, err := c.do(ctx, "get-repo", http.MethodGet, repoPath(owner, repo), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetFile reads a file. An empty ref is the default branch.
func (c *Client) GetFile(ctx context.Context, owner, repo, path, ref string) (*File, error) {
	var out File
	if _, err := c.do(ctx, "get-file", http.MethodGet, contentsPath(owner, repo, path, ref), nil, &out); err != nil {
		return nil, err
	}
	if out.Path == "" && out.Name == "" {
		return nil, fmt.Errorf("%s is not a file", path)
	}
	return &out, nil
}

// ListContents lists a directory. An empty path is the repository root.
func (c *Client) ListContents(ctx context.Context, owner, repo, path, ref string) ([]ContentItem, error) {
	var out []ContentItem
	if _, err := c.do(ctx, "list-contents", http.MethodGet, contentsPath(owner, repo, path, ref), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PutFile commits one file.
func (c *Client) PutFile(ctx context.Context, req PutFileRequest) (*PushResult, error) {
	body := map[string]string{
		"message": req.Message,
		"content": base64.StdEncoding.EncodeToString(req.Content),
	}
	if req.Branch != "" {
		body["branch"] = req.Branch
	}
	if req.SHA != "" {
		body["sha"] = req.SHA
	}
	var out PushResult
	if _, err := c.authed(ctx, "put-file", http.MethodPut, contentsPath(req.Owner, req.Repo, req.Path, ""), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListBranches(ctx context.Context, owner, repo string) ([]Branch, error) {
	var out []Branch
	if _, err := c.do(ctx, "list-branches", http.MethodGet, repoPath(owner, repo)+"/branches?per_page=100", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateBranch creates branch from the head of from. An empty from is the
// repository's default branch.
func (c *Client) CreateBranch(ctx context.Context, owner, repo, branch, from string) (*Ref, error) {
	if from == "" {
		r, err := c.GetRepo(ctx, owner, repo)
		if err != nil {
			return nil, fmt.Errorf("could not resolve default branch: %w", err)
		}
		from = r.DefaultBranch
	}

	var source Ref
	if _, err := c.do(ctx, "get-ref", http.MethodGet, repoPath(owner, repo)+"/git/ref/heads/"+escapePath(from), nil, &source); err != nil {
		if IsNotFound(err) {
			return nil, &APIError{StatusCode: http.StatusNotFound, Message: "could not find branch: " + from}
		}
		return nil, err
	}

	var out Ref
	body := map[string]string{"ref": "refs/heads/" + branch, "sha": source.Object.SHA}
	if _, err := c.authed(ctx, "create-branch", http.MethodPost, repoPath(owner, repo)+"/git/refs", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchRaw downloads a file from raw.githubusercontent.com style URLs.
func (c *Client) FetchRaw(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", version.UserAgent())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.GitHubRequest("fetch-raw", 0)
		return nil, fmt.Errorf("fetch error: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.GitHubRequest("fetch-raw", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "failed to fetch: " + http.StatusText(resp.StatusCode)}
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBody))
}

// RawBaseURL is where raw file URLs point.
func (c *Client) RawBaseURL() string {
	return c.rawBaseURL
}

func (c *Client) authed(ctx context.Context, op, method, path string, body, out any) (*http.Response, error) {
	if c.token == "" {
		return nil, ErrNoToken
	}
	return c.do(ctx, op, method, path, body, out)
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("User-Agent", version.UserAgent())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.GitHubRequest(op, 0)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	c.metrics.GitHubRequest(op, resp.StatusCode)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
		var payload struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &payload) == nil && payload.Message != "" {
			apiErr.Message = payload.Message
		}
		return resp, apiErr
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp, fmt.Errorf("%s: failed to decode response: %w", op, err)
		}
	}
	return resp, nil
}

func repoPath(owner, repo string) string {
	return "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo)
}

func contentsPath(owner, repo, path, ref string) string {
	p := repoPath(owner, repo) + "/contents/" + escapePath(strings.Trim(path, "/"))
	if ref != "" {
		p += "?ref=" + url.QueryEscape(ref)
	}
	return p
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}
