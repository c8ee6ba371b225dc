package api

import (
	"context"
	"log/slog"

	"github.com/ssargent/oidcast/pkg/model"
)

// ServerStarter runs the API until ctx is cancelled.
type ServerStarter interface {
	StartServer(ctx context.Context, repos []*model.Repository, config ServerConfig, metrics *Metrics, logger *slog.Logger) error
}

// DefaultServerStarter is the default implementation of ServerStarter
type DefaultServerStarter struct{}

// NewServerStarter creates a server starter
func NewServerStarter() ServerStarter {
	return &DefaultServerStarter{}
}

// StartServer starts the API server with the given configuration
func (s *DefaultServerStarter) StartServer(
	ctx context.Context,
	repos []*model.Repository,
	config ServerConfig,
	metrics *Metrics,
	logger *slog.Logger,
) error {
	return StartServer(ctx, repos, config, metrics, logger)
}
