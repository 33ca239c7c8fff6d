package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/factlog/factlog/adapters"
	"github.com/factlog/factlog/adapters/memory"
	"github.com/factlog/factlog/adapters/postgres"
	"github.com/factlog/factlog/cli/config"
)

// CLIAdapter combines all adapter interfaces needed by CLI commands.
type CLIAdapter interface {
	adapters.FactLogAdapter
	adapters.FeedAdapter
	adapters.CheckpointAdapter
	adapters.HealthChecker
}

// AdapterFactory creates the appropriate adapter based on configuration.
type AdapterFactory struct {
	config *config.Config
	dbURL  string
}

// NewAdapterFactory creates a new adapter factory.
func NewAdapterFactory(cfg *config.Config) (*AdapterFactory, error) {
	dbURL := os.ExpandEnv(cfg.Database.URL)
	if cfg.Database.Driver != "memory" && (dbURL == "" || dbURL == "${DATABASE_URL}") {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	return &AdapterFactory{
		config: cfg,
		dbURL:  dbURL,
	}, nil
}

// CreateAdapter creates the appropriate adapter based on the driver configuration.
// For PostgreSQL, it validates the connection with a short timeout to fail fast on invalid URLs.
func (f *AdapterFactory) CreateAdapter(ctx context.Context) (CLIAdapter, error) {
	ctx = ensureContext(ctx)

	switch f.config.Database.Driver {
	case "postgres", "postgresql":
		opts := []postgres.Option{}
		if f.config.Database.Schema != "" {
			opts = append(opts, postgres.WithSchema(f.config.Database.Schema))
		}

		adapter, err := postgres.NewAdapter(f.dbURL, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres adapter: %w", err)
		}

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := adapter.Ping(pingCtx); err != nil {
			_ = adapter.Close()
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}

		return adapter, nil

	case "memory":
		return memory.NewAdapter(), nil

	default:
		return nil, fmt.Errorf("unsupported database driver: %s", f.config.Database.Driver)
	}
}

// GetDatabaseURL returns the resolved database URL.
func (f *AdapterFactory) GetDatabaseURL() string {
	return f.dbURL
}

// IsMemoryDriver returns true if using the memory driver.
func (f *AdapterFactory) IsMemoryDriver() bool {
	return f.config.Database.Driver == "memory"
}

// ensureContext returns the provided context or a background context if nil.
func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// createAdapterCleanup returns a cleanup function for closing adapters.
func createAdapterCleanup(adapter CLIAdapter) func() {
	return func() {
		_ = adapter.Close()
	}
}

// getAdapterWithConfig loads config and creates an adapter with cleanup function.
func getAdapterWithConfig(ctx context.Context) (CLIAdapter, *config.Config, func(), error) {
	ctx = ensureContext(ctx)

	cfg, _, err := loadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("no factlog.yaml found: %w", err)
	}

	factory, err := NewAdapterFactory(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	adapter, err := factory.CreateAdapter(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	return adapter, cfg, createAdapterCleanup(adapter), nil
}

// getAdapter is a convenience wrapper that returns adapter without config.
func getAdapter(ctx context.Context) (CLIAdapter, func(), error) {
	adapter, _, cleanup, err := getAdapterWithConfig(ctx)
	return adapter, cleanup, err
}

// loadConfig is a helper that loads config from the current working directory.
// Returns (config, cwd, error).
func loadConfig() (*config.Config, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", err
	}

	_, cfg, err := config.FindConfig(cwd)
	if err != nil {
		return nil, cwd, err
	}

	return cfg, cwd, nil
}

// loadConfigOrDefault is like loadConfig but returns defaults if no config found.
func loadConfigOrDefault() (*config.Config, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", err
	}

	_, cfg, err := config.FindConfig(cwd)
	if err != nil {
		return config.DefaultConfig(), cwd, nil
	}

	return cfg, cwd, nil
}

// DiagnosticSkipReason represents why a diagnostic check was skipped.
type DiagnosticSkipReason int

const (
	// DiagnosticNotSkipped means the diagnostic should proceed.
	DiagnosticNotSkipped DiagnosticSkipReason = iota
	// DiagnosticSkipNoConfig means no configuration was found.
	DiagnosticSkipNoConfig
	// DiagnosticSkipMemoryDriver means the memory driver is being used.
	DiagnosticSkipMemoryDriver
	// DiagnosticSkipNoDBURL means the database URL is not set.
	DiagnosticSkipNoDBURL
)

// DiagnosticEnv holds the environment for diagnostic checks that need database access.
type DiagnosticEnv struct {
	Adapter CLIAdapter
	Config  *config.Config
	cleanup func()
}

// Close cleans up the DiagnosticEnv resources.
func (e *DiagnosticEnv) Close() {
	if e.cleanup != nil {
		e.cleanup()
	}
}

// SetupDiagnosticEnv creates a DiagnosticEnv for diagnostic checks.
// Returns (env, skipReason, error). If skipReason != DiagnosticNotSkipped, the check should be skipped.
func SetupDiagnosticEnv(ctx context.Context) (*DiagnosticEnv, DiagnosticSkipReason, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, DiagnosticNotSkipped, err
	}

	_, cfg, err := config.FindConfig(cwd)
	if err != nil {
		return nil, DiagnosticSkipNoConfig, nil
	}

	if cfg.Database.Driver == "memory" {
		return nil, DiagnosticSkipMemoryDriver, nil
	}

	dbURL := os.ExpandEnv(cfg.Database.URL)
	if dbURL == "" || dbURL == "${DATABASE_URL}" {
		return nil, DiagnosticSkipNoDBURL, nil
	}

	adapter, cleanup, err := getAdapter(ctx)
	if err != nil {
		return nil, DiagnosticNotSkipped, err
	}

	return &DiagnosticEnv{
		Adapter: adapter,
		Config:  cfg,
		cleanup: cleanup,
	}, DiagnosticNotSkipped, nil
}
