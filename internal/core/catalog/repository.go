// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kusari-oss/stencil/internal/core/store"
)

// DefaultFetchTimeout bounds a single repository fetch.
const DefaultFetchTimeout = 10 * time.Second

// maxPayload caps the size of a repository response.
const maxPayload = 10 << 20

// Repository is a remote action source.
type Repository struct {
	URL     string `json:"url" yaml:"url"`
	Name    string `json:"name" yaml:"name"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

// CatalogFetchError reports a failed refresh of one repository.
type CatalogFetchError struct {
	Repository string
	Err        error
}

func (e *CatalogFetchError) Error() string {
	return fmt.Sprintf("failed to fetch actions from %s: %v", e.Repository, e.Err)
}

func (e *CatalogFetchError) Unwrap() error {
	return e.Err
}

// RefreshReport summarizes a refresh. Fetched maps repository URL to the
// number of actions now cached for it.
type RefreshReport struct {
	Fetched map[string]int
	Errors  []*CatalogFetchError
}

// Err joins all per-repository failures, or returns nil.
func (r *RefreshReport) Err() error {
	if r == nil || len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Repositories manages the configured repositories and their cached
// actions. It is the highest-precedence provider.
type Repositories struct {
	store   store.Store
	client  *http.Client
	timeout time.Duration
}

type RepositoriesOption func(*Repositories)

// WithHTTPClient replaces the client used for fetches.
func WithHTTPClient(c *http.Client) RepositoriesOption {
	return func(r *Repositories) {
		r.client = c
	}
}

// WithFetchTimeout sets the per-repository timeout.
func WithFetchTimeout(d time.Duration) RepositoriesOption {
	return func(r *Repositories) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func NewRepositories(s store.Store, opts ...RepositoriesOption) *Repositories {
	r := &Repositories{
		store:   s,
		client:  http.DefaultClient,
		timeout: DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (*Repositories) Name() string { return "repository" }

// List returns the configured repositories in insertion order.
func (r *Repositories) List(ctx context.Context) ([]Repository, error) {
	var repos []Repository
	if _, err := store.GetJSON(ctx, r.store, store.KeyRepositories, &repos); err != nil {
		return nil, err
	}
	if repos == nil {
		repos = []Repository{}
	}
	return repos, nil
}

// Add upserts a repository by URL.
func (r *Repositories) Add(ctx context.Context, repo Repository) error {
	if repo.URL == "" {
		return fmt.Errorf("repository url cannot be empty")
	}
	repos, err := r.List(ctx)
	if err != nil {
		return err
	}
	if repo.Name == "" {
		repo.Name = repo.URL
	}

	replaced := false
	for i := range repos {
		if repos[i].URL == repo.URL {
			repos[i] = repo
			replaced = true
			break
		}
	}
	if !replaced {
		repos = append(repos, repo)
	}
	return store.SetJSON(ctx, r.store, store.KeyRepositories, repos)
}

// Remove drops a repository and its cached actions. An absent URL is a no-op.
func (r *Repositories) Remove(ctx context.Context, url string) (bool, error) {
	repos, err := r.List(ctx)
	if err != nil {
		return false, err
	}
	kept := repos[:0]
	for _, repo := range repos {
		if repo.URL != url {
			kept = append(kept, repo)
		}
	}
	if len(kept) == len(repos) {
		return false, nil
	}
	if err := store.SetJSON(ctx, r.store, store.KeyRepositories, kept); err != nil {
		return false, err
	}

	cache, err := r.Cache(ctx)
	if err != nil {
		return true, err
	}
	delete(cache, url)
	return true, store.SetJSON(ctx, r.store, store.KeyRepositoryCache, cache)
}

// Cache returns the cached actions keyed by repository URL.
func (r *Repositories) Cache(ctx context.Context) (map[string][]ActionDefinition, error) {
	cache := map[string][]ActionDefinition{}
	if _, err := store.GetJSON(ctx, r.store, store.KeyRepositoryCache, &cache); err != nil {
		return nil, err
	}
	if cache == nil {
		cache = map[string][]ActionDefinition{}
	}
	return cache, nil
}

// Actions returns the cached actions of enabled repositories in list order.
func (r *Repositories) Actions(ctx context.Context) ([]ActionDefinition, error) {
	repos, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	cache, err := r.Cache(ctx)
	if err != nil {
		return nil, err
	}

	defs := []ActionDefinition{}
	for _, repo := range repos {
		if repo.Enabled {
			defs = append(defs, cache[repo.URL]...)
		}
	}
	return defs, nil
}

// Refresh fetches every enabled repository. A failing repository keeps its
// last cached value (empty if never fetched) and is reported in the
// returned RefreshReport; the returned error covers store failures only.
func (r *Repositories) Refresh(ctx context.Context) (*RefreshReport, error) {
	repos, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	cache, err := r.Cache(ctx)
	if err != nil {
		return nil, err
	}

	report := &RefreshReport{Fetched: map[string]int{}}
	for _, repo := range repos {
		if !repo.Enabled {
			continue
		}
		defs, err := r.Fetch(ctx, repo.URL)
		if err != nil {
			report.Errors = append(report.Errors, &CatalogFetchError{Repository: repo.URL, Err: err})
			if _, ok := cache[repo.URL]; !ok {
				cache[repo.URL] = []ActionDefinition{}
			}
		} else {
			cache[repo.URL] = defs
		}
		report.Fetched[repo.URL] = len(cache[repo.URL])
	}

	if err := store.SetJSON(ctx, r.store, store.KeyRepositoryCache, cache); err != nil {
		return report, err
	}
	return report, nil
}

// Fetch downloads and parses one repository document.
func (r *Repositories) Fetch(ctx context.Context, url string) ([]ActionDefinition, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9, text/plain;q=0.5")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching repository: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayload))
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}
	return Parse(body, resp.Header.Get("Content-Type"))
}
