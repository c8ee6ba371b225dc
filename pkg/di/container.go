// Package di provides dependency injection container
package di

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ssargent/oidcast/pkg/api" //nolint:depguard
	"github.com/ssargent/oidcast/pkg/config"
	"github.com/ssargent/oidcast/pkg/model"
	"github.com/ssargent/oidcast/pkg/schema"
	"github.com/ssargent/oidcast/pkg/store"
)

var ErrNotInitialized = errors.New("di: container not initialized")

// Container holds all the dependencies for the application
type Container struct {
	config        *config.Config
	logger        *slog.Logger
	metrics       *api.Metrics
	store         *store.Store
	repos         []*model.Repository
	serverStarter api.ServerStarter
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	return &Container{
		serverStarter: api.NewServerStarter(),
	}
}

// Init builds the logger, opens the store and creates one repository per
// configured table. Logs go to logOut.
func (c *Container) Init(cfg *config.Config, logOut io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger, err := config.NewLogger(cfg.Logging, logOut)
	if err != nil {
		return err
	}
	tables, err := cfg.Schemas()
	if err != nil {
		return err
	}

	if !cfg.Storage.InMemory {
		if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
			return fmt.Errorf("failed to create data dir: %w", err)
		}
	}
	s, err := store.Open(store.Options{
		DataDir:  cfg.DataDir,
		InMemory: cfg.Storage.InMemory,
		Sync:     cfg.Storage.Sync,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	metrics := api.NewMetrics(nil)
	repos := make([]*model.Repository, 0, len(tables))
	for _, t := range tables {
		def, err := model.ForTable(t)
		if err != nil {
			s.Close()
			return err
		}
		repos = append(repos, model.NewRepository(def, s, logger, metrics))
	}

	c.config = cfg
	c.logger = logger
	c.metrics = metrics
	c.store = s
	c.repos = repos
	return nil
}

// Config returns the configuration passed to Init
func (c *Container) Config() *config.Config { return c.config }

// Logger returns the process logger, or the slog default before Init
func (c *Container) Logger() *slog.Logger {
	if c.logger == nil {
		return slog.Default()
	}
	return c.logger
}

// Metrics returns the metrics shared by the repositories and the API
func (c *Container) Metrics() *api.Metrics { return c.metrics }

// Store returns the open row store
func (c *Container) Store() *store.Store { return c.store }

// Repositories returns the repositories in configuration order
func (c *Container) Repositories() []*model.Repository { return c.repos }

// Repository returns the repository for table
func (c *Container) Repository(table string) (*model.Repository, error) {
	if c.store == nil {
		return nil, ErrNotInitialized
	}
	for _, r := range c.repos {
		if r.Definition().Table().Name == table {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", schema.ErrUnknownTable, table)
}

// GetServerStarter returns the server starter
func (c *Container) GetServerStarter() api.ServerStarter {
	return c.serverStarter
}

// SetServerStarter allows overriding the server starter (for testing)
func (c *Container) SetServerStarter(s api.ServerStarter) {
	c.serverStarter = s
}

// Close releases the store. It is safe to call before Init.
func (c *Container) Close() error {
	if c.store == nil {
		return nil
	}
	return c.store.Close()
}
