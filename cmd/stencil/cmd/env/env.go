// SPDX-License-Identifier: Apache-2.0

// Package env carries the loaded configuration and the collaborators built
// from it to every command.
package env

import (
	"context"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kusari-oss/stencil/internal/core/catalog"
	"github.com/kusari-oss/stencil/internal/core/config"
	"github.com/kusari-oss/stencil/internal/core/store"
	"github.com/kusari-oss/stencil/internal/github"
	"github.com/kusari-oss/stencil/internal/logging"
	"github.com/kusari-oss/stencil/internal/metrics"
)

// Env is filled by the persistent flags and Init.
type Env struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string

	Config *config.Config
	Logger *zap.Logger

	metrics *metrics.Metrics
	store   store.Store
}

// Init loads the configuration and builds the logger. Flags override the
// configuration.
func (e *Env) Init() error {
	cfg, err := config.Load(e.ConfigPath)
	if err != nil {
		return err
	}
	if e.LogLevel != "" {
		cfg.Log.Level = e.LogLevel
	}
	if e.LogFormat != "" {
		cfg.Log.Format = e.LogFormat
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	e.Config = cfg
	e.Logger = logger
	return nil
}

// Metrics returns the process collectors, created on first use.
func (e *Env) Metrics() *metrics.Metrics {
	if e.metrics == nil {
		e.metrics = metrics.New(prometheus.NewRegistry())
	}
	return e.metrics
}

// Store opens the configured store once.
func (e *Env) Store() (store.Store, error) {
	if e.store != nil {
		return e.store, nil
	}
	s, err := e.config().OpenStore()
	if err != nil {
		return nil, err
	}
	e.store = s
	return s, nil
}

// Catalog is the merged action catalog and its writable layers.
type Catalog struct {
	*catalog.Catalog
	Custom       *catalog.Custom
	Repositories *catalog.Repositories
}

// Catalog builds the catalog with builtin, custom and repository layers,
// lowest precedence first.
func (e *Env) Catalog() (*Catalog, error) {
	s, err := e.Store()
	if err != nil {
		return nil, err
	}
	custom := catalog.NewCustom(s)
	repos := catalog.NewRepositories(s, catalog.WithFetchTimeout(e.config().Catalog.FetchTimeout))
	return &Catalog{
		Catalog:      catalog.New(catalog.NewBuiltin(), custom, repos),
		Custom:       custom,
		Repositories: repos,
	}, nil
}

// Refresh fetches every enabled action repository, logging and counting
// each outcome.
func (e *Env) Refresh(ctx context.Context, c *Catalog) (*catalog.RefreshReport, error) {
	report, err := c.Repositories.Refresh(ctx)
	if err != nil {
		return report, err
	}
	failed := make(map[string]bool, len(report.Errors))
	for _, fe := range report.Errors {
		failed[fe.Repository] = true
		e.logger().Warn("action repository fetch failed",
			zap.String("repository", fe.Repository),
			zap.Error(fe.Err))
	}
	for url, n := range report.Fetched {
		e.Metrics().CatalogFetch(!failed[url])
		if !failed[url] {
			e.logger().Info("action repository refreshed",
				zap.String("repository", url),
				zap.Int("actions", n))
		}
	}
	return report, nil
}

// GitHub builds a client from the configuration.
func (e *Env) GitHub() *github.Client {
	cfg := e.config()
	return github.New(
		github.WithBaseURL(cfg.GitHub.APIURL),
		github.WithToken(cfg.GitHub.Token),
		github.WithTimeout(cfg.GitHub.Timeout),
		github.WithMetrics(e.metrics),
	)
}

// Close releases the store and flushes the logger.
func (e *Env) Close() error {
	if e.Logger != nil {
		_ = e.Logger.Sync()
	}
	if c, ok := e.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (e *Env) config() *config.Config {
	if e.Config == nil {
		e.Config = config.NewDefaultConfig()
	}
	return e.Config
}

func (e *Env) logger() *zap.Logger {
	return logging.OrNop(e.Logger)
}
