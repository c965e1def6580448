package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ksyq12/vhostctl/internal/config"
	"github.com/ksyq12/vhostctl/internal/executor"
	"github.com/ksyq12/vhostctl/internal/input"
	"github.com/ksyq12/vhostctl/internal/logger"
)

// Dependencies aggregates all CLI external dependencies for testability
type Dependencies struct {
	ConfigLoader ConfigLoader
	AppFactory   AppFactory
	Executor     executor.CommandExecutor
	StdinReader  input.Reader
}

// ConfigLoader handles configuration loading and saving
type ConfigLoader interface {
	Load(path string) (*config.Config, error)
	Save(cfg *config.Config, path string) error
}

// AppFactory wires an App from a loaded config
type AppFactory interface {
	Build(cfg *config.Config) (*App, error)
}

// Package-level dependencies (can be overridden for testing)
var deps = &Dependencies{
	ConfigLoader: &realConfigLoader{},
	AppFactory:   &realAppFactory{},
	Executor:     executor.NewSystemExecutor(),
	StdinReader:  input.NewStdinReader(),
}

// SetDeps replaces the package dependencies (for testing)
func SetDeps(d *Dependencies) {
	deps = d
}

// GetDeps returns the current dependencies (for testing)
func GetDeps() *Dependencies {
	return deps
}

type realConfigLoader struct{}

func (r *realConfigLoader) Load(path string) (*config.Config, error) {
	return config.Load(path)
}

func (r *realConfigLoader) Save(cfg *config.Config, path string) error {
	return cfg.Save(path)
}

type realAppFactory struct{}

func (r *realAppFactory) Build(cfg *config.Config) (*App, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return buildApp(cfg, buildOptions{
		exec:     deps.Executor,
		registry: reg,
		logger:   logger.Zap(),
	})
}
