package cli

import (
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ksyq12/vhostctl/internal/config"
	"github.com/ksyq12/vhostctl/internal/driver"
	"github.com/ksyq12/vhostctl/internal/executor"
)

// MockConfigLoader is a test double for ConfigLoader
type MockConfigLoader struct {
	Cfg       *config.Config
	LoadErr   error
	SaveErr   error
	SaveCalls int
	SavedPath string
}

func (m *MockConfigLoader) Load(path string) (*config.Config, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if m.Cfg == nil {
		m.Cfg = config.New()
	}
	return m.Cfg, nil
}

func (m *MockConfigLoader) Save(cfg *config.Config, path string) error {
	m.SaveCalls++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Cfg = cfg
	m.SavedPath = path
	return nil
}

// MockAppFactory builds real Apps over the loaded config, but controls the
// webserver through Controller (or through command lines run by Executor
// when Controller is nil). Metrics go to a private registry per build.
type MockAppFactory struct {
	Controller *driver.MockController
	Executor   *executor.MockExecutor
	Err        error
	Builds     int
}

func (m *MockAppFactory) Build(cfg *config.Config) (*App, error) {
	m.Builds++
	if m.Err != nil {
		return nil, m.Err
	}
	opts := buildOptions{
		exec:     &executor.MockExecutor{},
		registry: prometheus.NewRegistry(),
		logger:   zap.NewNop(),
	}
	if m.Controller != nil {
		opts.controller = m.Controller
	}
	if m.Executor != nil {
		opts.exec = m.Executor
	}
	return buildApp(cfg, opts)
}

// MockStdinReader is a test double for StdinReader
type MockStdinReader struct {
	Input string
	pos   int
}

func (m *MockStdinReader) ReadString(delim byte) (string, error) {
	if m.pos >= len(m.Input) {
		return "", io.EOF
	}
	idx := strings.IndexByte(m.Input[m.pos:], delim)
	if idx == -1 {
		result := m.Input[m.pos:]
		m.pos = len(m.Input)
		return result, nil
	}
	result := m.Input[m.pos : m.pos+idx+1]
	m.pos += idx + 1
	return result, nil
}

// MockDependenciesBuilder helps create mock dependencies for tests
type MockDependenciesBuilder struct {
	deps *Dependencies
}

// NewMockDeps creates a new MockDependenciesBuilder with sensible defaults
func NewMockDeps() *MockDependenciesBuilder {
	return &MockDependenciesBuilder{
		deps: &Dependencies{
			ConfigLoader: &MockConfigLoader{Cfg: config.New()},
			AppFactory:   &MockAppFactory{Controller: driver.NewMockController("mock")},
			Executor:     &executor.MockExecutor{},
			StdinReader:  &MockStdinReader{Input: "y\n"},
		},
	}
}

// WithConfig sets the config for the mock
func (b *MockDependenciesBuilder) WithConfig(cfg *config.Config) *MockDependenciesBuilder {
	b.deps.ConfigLoader = &MockConfigLoader{Cfg: cfg}
	return b
}

// WithConfigLoader sets a custom config loader
func (b *MockDependenciesBuilder) WithConfigLoader(loader ConfigLoader) *MockDependenciesBuilder {
	b.deps.ConfigLoader = loader
	return b
}

// WithController sets the webserver controller used by built apps
func (b *MockDependenciesBuilder) WithController(ctrl *driver.MockController) *MockDependenciesBuilder {
	b.deps.AppFactory = &MockAppFactory{Controller: ctrl}
	return b
}

// WithAppFactory sets a custom app factory
func (b *MockDependenciesBuilder) WithAppFactory(factory AppFactory) *MockDependenciesBuilder {
	b.deps.AppFactory = factory
	return b
}

// WithExecutor sets the executor used for binary lookups
func (b *MockDependenciesBuilder) WithExecutor(exec executor.CommandExecutor) *MockDependenciesBuilder {
	b.deps.Executor = exec
	return b
}

// WithStdinInput sets the stdin input for the mock
func (b *MockDependenciesBuilder) WithStdinInput(input string) *MockDependenciesBuilder {
	b.deps.StdinReader = &MockStdinReader{Input: input}
	return b
}

// Build returns the configured Dependencies
func (b *MockDependenciesBuilder) Build() *Dependencies {
	return b.deps
}
