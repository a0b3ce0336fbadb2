package container

import (
	"context"
	"fmt"
	"sync"

	config "gitlab.com/smartguard1/sg.access_relay/src/production/SG.Config"
	logger "gitlab.com/smartguard1/sg.access_relay/src/production/SG.Logger"
	implementation "gitlab.com/smartguard1/sg.access_relay/src/production/SG.Repository/Implementation"
	"go.mongodb.org/mongo-driver/mongo"
)

// RelayContainer manages dependencies for the access relay service
type RelayContainer struct {
	config      *config.RelayConfig
	logger      *logger.Logger
	mongoClient *mongo.Client

	// Mutex for thread-safe access
	mu sync.Mutex

	// Cleanup functions
	cleanupFuncs []func(ctx context.Context) error
}

// NewRelayContainer creates a new container for the access relay service
func NewRelayContainer() (*RelayContainer, error) {
	cfg, err := config.LoadRelayConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load relay configuration: %w", err)
	}

	log := logger.NewLogger(&cfg.Logging)

	return &RelayContainer{
		config: cfg,
		logger: log,
	}, nil
}

// GetConfig returns the relay configuration
func (c *RelayContainer) GetConfig() *config.RelayConfig {
	return c.config
}

// GetLogger returns the logger
func (c *RelayContainer) GetLogger() *logger.Logger {
	return c.logger
}

// GetMongoClient returns the shared directory connection, connecting on
// first use. Connection failure here is surfaced to the caller and is
// expected to be fatal at startup.
func (c *RelayContainer) GetMongoClient() (*mongo.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mongoClient == nil {
		client, err := implementation.ConnectMongo(&c.config.Mongo)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to student directory: %w", err)
		}
		c.mongoClient = client
		c.cleanupFuncs = append(c.cleanupFuncs, client.Disconnect)
	}

	return c.mongoClient, nil
}

// AddCleanupFunc adds a cleanup function
func (c *RelayContainer) AddCleanupFunc(fn func(ctx context.Context) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupFuncs = append(c.cleanupFuncs, fn)
}

// Shutdown gracefully shuts down the container and all its dependencies.
// Cleanup functions run in reverse registration order.
func (c *RelayContainer) Shutdown(ctx context.Context) error {
	c.logger.Info("Shutting down container...")

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := len(c.cleanupFuncs) - 1; i >= 0; i-- {
		if err := c.cleanupFuncs[i](ctx); err != nil {
			c.logger.ErrorWithError(err, "Error during cleanup")
		}
	}

	c.logger.Info("Container shutdown complete")
	return nil
}
